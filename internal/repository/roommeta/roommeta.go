package roommeta

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("room metadata not found")

type VideoInfo struct {
	VideoURL   string `redis:"video_url"`
	VideoTitle string `redis:"video_title"`
}

type Lookup interface {
	GetVideoInfo(ctx context.Context, roomId string) (VideoInfo, error)
}
