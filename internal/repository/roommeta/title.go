package roommeta

import (
	"context"
	"log/slog"
)

type iTitleResolver interface {
	Title(ctx context.Context, videoURL string) (string, error)
}

type titleFallback struct {
	next     Lookup
	resolver iTitleResolver
	logger   *slog.Logger
}

// WithTitleFallback fills in a missing video title using resolver.
// Resolution failures leave the title empty.
func WithTitleFallback(next Lookup, resolver iTitleResolver, logger *slog.Logger) *titleFallback {
	return &titleFallback{
		next:     next,
		resolver: resolver,
		logger:   logger,
	}
}

func (t *titleFallback) GetVideoInfo(ctx context.Context, roomId string) (VideoInfo, error) {
	info, err := t.next.GetVideoInfo(ctx, roomId)
	if err != nil {
		return VideoInfo{}, err
	}

	if info.VideoTitle != "" || info.VideoURL == "" {
		return info, nil
	}

	title, err := t.resolver.Title(ctx, info.VideoURL)
	if err != nil {
		t.logger.DebugContext(ctx, "failed to resolve video title", "video_url", info.VideoURL, "error", err)
		return info, nil
	}
	info.VideoTitle = title

	return info, nil
}
