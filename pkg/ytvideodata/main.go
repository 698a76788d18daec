package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
	ErrUnsupportedURL     = errors.New("not a youtube video url")
)

var videoIdRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Client struct {
	httpClient *http.Client
	oembedURL  string
	pageURL    string
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		oembedURL:  "https://www.youtube.com/oembed",
		pageURL:    "https://youtu.be/",
	}
}

// VideoId extracts the video id from watch, short, embed and shorts links.
func VideoId(videoURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
		} else {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 && (parts[0] == "embed" || parts[0] == "shorts") {
				id = parts[1]
			}
		}
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	}

	if !videoIdRe.MatchString(id) {
		return "", ErrUnsupportedURL
	}

	return id, nil
}

// Get returns video data for a youtube link, falling back to the watch page
// when oEmbed refuses the video.
func (c *Client) Get(ctx context.Context, videoURL string) (*VideoData, error) {
	videoId, err := VideoId(videoURL)
	if err != nil {
		return nil, err
	}

	videoData, err := c.getWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}

// Title implements the title resolver used by the room metadata lookup.
func (c *Client) Title(ctx context.Context, videoURL string) (string, error) {
	videoData, err := c.Get(ctx, videoURL)
	if err != nil {
		return "", err
	}

	return videoData.Title, nil
}
