package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/noiva/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3001,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	progressInterval = configVar[time.Duration]{
		envKey:       "SERVER_PROGRESS_INTERVAL",
		flagKey:      "progress-interval",
		defaultValue: 5 * time.Second,
		usage:        "Minimum interval between relayed host progress updates, 0 relays every update",
	}
	chatMaxLength = configVar[int]{
		envKey:       "SERVER_CHAT_MAX_LENGTH",
		flagKey:      "chat-max-length",
		defaultValue: 2000,
		usage:        "Maximum chat message length in characters",
	}
	sendBuffer = configVar[int]{
		envKey:       "SERVER_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 64,
		usage:        "Outbound messages queued per connection before it is dropped",
	}
	metadataTimeout = configVar[time.Duration]{
		envKey:       "SERVER_METADATA_TIMEOUT",
		flagKey:      "metadata-timeout",
		defaultValue: 3 * time.Second,
		usage:        "Timeout of the room video lookup",
	}
	databaseURL = configVar[string]{
		envKey:       "DATABASE_URL",
		flagKey:      "database-url",
		defaultValue: "",
		usage:        "Postgres url of the rooms table, empty disables video lookup",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host, empty disables the video cache",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	videoCacheTTL = configVar[time.Duration]{
		envKey:       "VIDEO_CACHE_TTL",
		flagKey:      "video-cache-ttl",
		defaultValue: time.Minute,
		usage:        "Lifetime of cached room video info",
	}
	resolveTitles = configVar[bool]{
		envKey:       "SERVER_RESOLVE_TITLES",
		flagKey:      "resolve-titles",
		defaultValue: false,
		usage:        "Resolve missing video titles from YouTube",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.Duration(progressInterval.flagKey, progressInterval.defaultValue, progressInterval.usage)
	pflag.Int(chatMaxLength.flagKey, chatMaxLength.defaultValue, chatMaxLength.usage)
	pflag.Int(sendBuffer.flagKey, sendBuffer.defaultValue, sendBuffer.usage)
	pflag.Duration(metadataTimeout.flagKey, metadataTimeout.defaultValue, metadataTimeout.usage)
	pflag.String(databaseURL.flagKey, databaseURL.defaultValue, databaseURL.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Duration(videoCacheTTL.flagKey, videoCacheTTL.defaultValue, videoCacheTTL.usage)
	pflag.Bool(resolveTitles.flagKey, resolveTitles.defaultValue, resolveTitles.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(host)
	bind(port)
	bind(logLevel)
	bind(progressInterval)
	bind(chatMaxLength)
	bind(sendBuffer)
	bind(metadataTimeout)
	bind(databaseURL)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(videoCacheTTL)
	bind(resolveTitles)

	return &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		ProgressInterval: viper.GetDuration(progressInterval.flagKey),
		ChatMaxLength:    viper.GetInt(chatMaxLength.flagKey),
		SendBuffer:       viper.GetInt(sendBuffer.flagKey),
		MetadataTimeout:  viper.GetDuration(metadataTimeout.flagKey),
		DatabaseURL:      viper.GetString(databaseURL.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		VideoCacheTTL:    viper.GetDuration(videoCacheTTL.flagKey),
		ResolveTitles:    viper.GetBool(resolveTitles.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
