package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/noiva/watchparty/internal/controller"
	"github.com/noiva/watchparty/internal/repository/connection/inmemory"
	"github.com/noiva/watchparty/internal/repository/roommeta"
	roommetaPostgres "github.com/noiva/watchparty/internal/repository/roommeta/postgres"
	roommetaRedis "github.com/noiva/watchparty/internal/repository/roommeta/redis"
	"github.com/noiva/watchparty/internal/service/room"
	"github.com/noiva/watchparty/pkg/ctxlogger"
	"github.com/noiva/watchparty/pkg/pgclient"
	"github.com/noiva/watchparty/pkg/redisclient"
	"github.com/noiva/watchparty/pkg/ytvideodata"
	"github.com/redis/go-redis/v9"
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	ProgressInterval time.Duration `json:"progress_interval"`
	ChatMaxLength    int           `json:"chat_max_length"`
	SendBuffer       int           `json:"send_buffer"`
	MetadataTimeout  time.Duration `json:"metadata_timeout"`
	DatabaseURL      string        `json:"-"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port"`
	RedisPassword    string        `json:"-"`
	VideoCacheTTL    time.Duration `json:"video_cache_ttl"`
	ResolveTitles    bool          `json:"resolve_titles"`
}

func (cfg *AppConfig) Validate() error {
	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.Host, validation.Required),
		validation.Field(&cfg.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&cfg.LogLevel, validation.Required, validation.By(validLogLevel)),
		validation.Field(&cfg.ProgressInterval, validation.Min(time.Duration(0))),
		validation.Field(&cfg.ChatMaxLength, validation.Required, validation.Min(1)),
		validation.Field(&cfg.SendBuffer, validation.Required, validation.Min(1)),
		validation.Field(&cfg.MetadataTimeout, validation.Min(time.Duration(0))),
		validation.Field(&cfg.RedisPort, validation.When(cfg.RedisHost != "", validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&cfg.VideoCacheTTL, validation.When(cfg.RedisHost != "", validation.Required, validation.Min(time.Second))),
	)
}

func validLogLevel(value any) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(value.(string)))); err != nil {
		return fmt.Errorf("must be one of DEBUG, INFO, WARN, ERROR")
	}

	return nil
}

func newLogger(cfg *AppConfig) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// newRoomMetaLookup stacks the metadata sources: database, optional title
// resolution, optional cache.
func newRoomMetaLookup(db roommetaPostgres.DBTX, rc *redis.Client, cfg *AppConfig, logger *slog.Logger) roommeta.Lookup {
	var lookup roommeta.Lookup = roommetaPostgres.NewRepo(db)
	if cfg.ResolveTitles {
		lookup = roommeta.WithTitleFallback(lookup, ytvideodata.New(), logger)
	}
	if rc != nil {
		lookup = roommetaRedis.NewRepo(rc, lookup, cfg.VideoCacheTTL, logger)
	}

	return lookup
}

type app struct {
	handler     http.Handler
	roomService interface{ Wait() }
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*app, error) {
	a := &app{}

	var lookup roommeta.Lookup
	if cfg.DatabaseURL != "" {
		pool, err := pgclient.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		var rc *redis.Client
		if cfg.RedisHost != "" {
			rc, err = redisclient.NewRedisClient(ctx, &redisclient.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
			})
			if err != nil {
				a.close()
				return nil, fmt.Errorf("failed to create redis client: %w", err)
			}
			a.closers = append(a.closers, func() { rc.Close() })
		}

		lookup = newRoomMetaLookup(pool, rc, cfg, logger)
	} else {
		logger.WarnContext(ctx, "database url is empty, room video lookup disabled")
	}

	connectionRepo := inmemory.NewRepo()
	roomService := room.NewService(room.NewRegistry(), connectionRepo, lookup, &room.Config{
		ProgressInterval: cfg.ProgressInterval,
		ChatMaxLength:    cfg.ChatMaxLength,
		MetadataTimeout:  cfg.MetadataTimeout,
	}, logger)
	a.roomService = roomService
	a.handler = controller.NewController(roomService, connectionRepo, logger, cfg.SendBuffer).GetMux()

	return a, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	// cancelled on shutdown to close hijacked websocket connections
	connCtx, cancelConns := context.WithCancel(ctx)
	defer cancelConns()

	server := &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:     a.handler,
		BaseContext: func(net.Listener) context.Context { return connCtx },
	}
	server.RegisterOnShutdown(cancelConns)

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()
	a.roomService.Wait()

	return nil
}
