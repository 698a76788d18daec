package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/noiva/watchparty/internal/repository/roommeta"
	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	next           roommeta.Lookup
	expireDuration time.Duration
	logger         *slog.Logger
}

// NewRepo returns a read-through cache in front of next.
func NewRepo(rc *redis.Client, next roommeta.Lookup, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		next:           next,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getVideoKey(roomId string) string {
	return "room:" + roomId + ":video"
}

func (r repo) GetVideoInfo(ctx context.Context, roomId string) (roommeta.VideoInfo, error) {
	info, ok, err := r.get(ctx, roomId)
	if err != nil {
		// cache is best effort
		r.logger.WarnContext(ctx, "failed to read video info from cache", "room_id", roomId, "error", err)
	} else if ok {
		r.logger.DebugContext(ctx, "video info cache hit", "room_id", roomId)
		return info, nil
	}

	info, err = r.next.GetVideoInfo(ctx, roomId)
	if err != nil {
		return roommeta.VideoInfo{}, err
	}

	if err := r.set(ctx, roomId, info); err != nil {
		r.logger.WarnContext(ctx, "failed to write video info to cache", "room_id", roomId, "error", err)
	}

	return info, nil
}

func (r repo) get(ctx context.Context, roomId string) (roommeta.VideoInfo, bool, error) {
	cmd := r.rc.HGetAll(ctx, r.getVideoKey(roomId))
	res, err := cmd.Result()
	if err != nil {
		return roommeta.VideoInfo{}, false, fmt.Errorf("failed to get video info: %w", err)
	}

	if len(res) == 0 {
		return roommeta.VideoInfo{}, false, nil
	}

	var info roommeta.VideoInfo
	if err := cmd.Scan(&info); err != nil {
		return roommeta.VideoInfo{}, false, fmt.Errorf("failed to scan video info: %w", err)
	}

	return info, true, nil
}

func (r repo) set(ctx context.Context, roomId string, info roommeta.VideoInfo) error {
	videoKey := r.getVideoKey(roomId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, videoKey, info)
	pipe.Expire(ctx, videoKey, r.expireDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set video info: %w", err)
	}

	return nil
}
