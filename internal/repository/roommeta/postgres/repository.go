package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/noiva/watchparty/internal/repository/roommeta"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	db DBTX
}

func NewRepo(db DBTX) *repo {
	return &repo{db: db}
}

const getVideoInfoQuery = `
	SELECT "videoUrl", "videoTitle"
	FROM rooms
	WHERE id = $1
`

func (r *repo) GetVideoInfo(ctx context.Context, roomId string) (roommeta.VideoInfo, error) {
	var videoURL, videoTitle *string
	if err := r.db.QueryRow(ctx, getVideoInfoQuery, roomId).Scan(&videoURL, &videoTitle); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return roommeta.VideoInfo{}, roommeta.ErrNotFound
		}
		if ctx.Err() != nil {
			return roommeta.VideoInfo{}, fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return roommeta.VideoInfo{}, fmt.Errorf("failed to get room video info: %w", err)
	}

	if videoURL == nil || *videoURL == "" {
		return roommeta.VideoInfo{}, roommeta.ErrNotFound
	}

	info := roommeta.VideoInfo{VideoURL: *videoURL}
	if videoTitle != nil {
		info.VideoTitle = *videoTitle
	}

	return info, nil
}
