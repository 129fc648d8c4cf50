// Package playlist fetches the remote episode listing for a feed by
// shelling out to yt-dlp in flat playlist mode and parsing its JSON dump.
package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"castsync/internal/services"
)

const (
	defaultBinary  = "yt-dlp"
	defaultTimeout = 10 * time.Minute
)

// Entry is one video in a remote playlist, in playlist order.
type Entry struct {
	VideoID      string
	Title        string
	Description  string
	ThumbnailURL string
	UploadDate   string
	Channel      string
	DurationSec  float64
	Index        int
}

// Client lists the entries of a remote playlist.
type Client interface {
	List(ctx context.Context, playlistURL string) ([]Entry, error)
}

// MetadataFetcher resolves a single video for the fields a flat listing
// omits, such as the description and upload date.
type MetadataFetcher interface {
	Metadata(ctx context.Context, videoID string) (Entry, error)
}

// YtdlpClient implements Client with a yt-dlp subprocess.
type YtdlpClient struct {
	// Binary is the yt-dlp executable path. Defaults to "yt-dlp".
	Binary string
	// Timeout bounds a single listing invocation. Defaults to 10 minutes.
	Timeout time.Duration
}

// NewYtdlpClient returns a client using the given executable path.
func NewYtdlpClient(binary string) *YtdlpClient {
	if binary == "" {
		binary = defaultBinary
	}
	return &YtdlpClient{Binary: binary, Timeout: defaultTimeout}
}

// List fetches the playlist listing without resolving individual videos.
func (c *YtdlpClient) List(ctx context.Context, playlistURL string) ([]Entry, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := c.Binary
	if binary == "" {
		binary = defaultBinary
	}
	cmd := exec.CommandContext(cmdCtx, binary, "--flat-playlist", "-J", "--no-warnings", playlistURL)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, services.Wrap(services.ErrTimeout, "playlist", "list",
				fmt.Sprintf("yt-dlp exceeded %s", timeout), err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyRunError(err, stderr.String(), "list")
	}

	entries, err := ParseListing(stdout.Bytes())
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "playlist", "list", "parse yt-dlp output", err)
	}
	return entries, nil
}

// Metadata resolves one video's full record via a non-flat yt-dlp dump.
func (c *YtdlpClient) Metadata(ctx context.Context, videoID string) (Entry, error) {
	if videoID == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "playlist", "metadata", "video id required", nil)
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := c.Binary
	if binary == "" {
		binary = defaultBinary
	}
	cmd := exec.CommandContext(cmdCtx, binary, "-J", "--no-warnings", videoID)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return Entry{}, services.Wrap(services.ErrTimeout, "playlist", "metadata",
				fmt.Sprintf("yt-dlp exceeded %s", timeout), err)
		}
		if ctx.Err() != nil {
			return Entry{}, ctx.Err()
		}
		return Entry{}, classifyRunError(err, stderr.String(), "metadata")
	}

	entry, err := ParseVideo(stdout.Bytes())
	if err != nil {
		return Entry{}, services.Wrap(services.ErrExternalTool, "playlist", "metadata", "parse yt-dlp output", err)
	}
	return entry, nil
}

func classifyRunError(err error, stderr, op string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = "yt-dlp failed"
	} else if len(detail) > 400 {
		detail = detail[len(detail)-400:]
	}
	lower := strings.ToLower(detail)
	marker := services.ErrExternalTool
	if strings.Contains(lower, "429") || strings.Contains(lower, "rate") ||
		strings.Contains(lower, "timed out") || strings.Contains(lower, "network") {
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "playlist", op, detail, err)
}

type listingPayload struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Channel string         `json:"channel"`
	Entries []entryPayload `json:"entries"`
}

type entryPayload struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Channel     string             `json:"channel"`
	Uploader    string             `json:"uploader"`
	UploadDate  string             `json:"upload_date"`
	Duration    float64            `json:"duration"`
	Thumbnails  []thumbnailPayload `json:"thumbnails"`
}

type thumbnailPayload struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ParseListing decodes a yt-dlp flat playlist JSON dump. Entries keep
// their playlist position; entries without an ID are dropped.
func ParseListing(data []byte) ([]Entry, error) {
	var payload listingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode playlist json: %w", err)
	}

	entries := make([]Entry, 0, len(payload.Entries))
	for i, raw := range payload.Entries {
		if raw.ID == "" {
			continue
		}
		channel := raw.Channel
		if channel == "" {
			channel = raw.Uploader
		}
		if channel == "" {
			channel = payload.Channel
		}
		entries = append(entries, Entry{
			VideoID:      raw.ID,
			Title:        raw.Title,
			Description:  raw.Description,
			ThumbnailURL: bestThumbnail(raw.Thumbnails),
			UploadDate:   raw.UploadDate,
			Channel:      channel,
			DurationSec:  raw.Duration,
			Index:        i,
		})
	}
	return entries, nil
}

// ParseVideo decodes a single-video yt-dlp JSON dump.
func ParseVideo(data []byte) (Entry, error) {
	var payload entryPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Entry{}, fmt.Errorf("decode video json: %w", err)
	}
	if payload.ID == "" {
		return Entry{}, fmt.Errorf("video json missing id")
	}
	channel := payload.Channel
	if channel == "" {
		channel = payload.Uploader
	}
	return Entry{
		VideoID:      payload.ID,
		Title:        payload.Title,
		Description:  payload.Description,
		ThumbnailURL: bestThumbnail(payload.Thumbnails),
		UploadDate:   payload.UploadDate,
		Channel:      channel,
		DurationSec:  payload.Duration,
	}, nil
}

func bestThumbnail(thumbs []thumbnailPayload) string {
	best := ""
	bestArea := -1
	for _, thumb := range thumbs {
		if thumb.URL == "" {
			continue
		}
		area := thumb.Width * thumb.Height
		if area > bestArea {
			best = thumb.URL
			bestArea = area
		}
	}
	return best
}
