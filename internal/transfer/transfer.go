// Package transfer fetches individual episodes with yt-dlp, streaming
// progress back to the caller while the tool runs. Downloads land in a
// staging directory and only move into the feed library once complete, so
// an interrupted fetch never leaves a partial file behind.
package transfer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"castsync/internal/fileutil"
	"castsync/internal/services"
)

const defaultBinary = "yt-dlp"

// Request describes one episode fetch.
type Request struct {
	VideoID      string
	Title        string
	TargetDir    string
	AudioQuality string
	Extension    string
}

// Result reports where the finished file landed.
type Result struct {
	Filename string
	Path     string
}

// ProgressFunc receives download percentages as yt-dlp reports them.
// Implementations must not block.
type ProgressFunc func(percent float64)

// Engine downloads a single episode.
type Engine interface {
	Download(ctx context.Context, req Request, progress ProgressFunc) (Result, error)
}

// YtdlpEngine implements Engine with a yt-dlp subprocess extracting audio.
type YtdlpEngine struct {
	// Binary is the yt-dlp executable path. Defaults to "yt-dlp".
	Binary string
	// StagingDir holds in-flight downloads before the final move.
	StagingDir string
	// Timeout bounds one download. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Download runs yt-dlp and moves the finished file into the target
// directory. The final filename derives from the request title.
func (e *YtdlpEngine) Download(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if req.VideoID == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transfer", "download", "video id required", nil)
	}
	ext := strings.TrimPrefix(req.Extension, ".")
	if ext == "" {
		ext = "mp3"
	}

	stagingDir := filepath.Join(e.StagingDir, req.VideoID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	binary := e.Binary
	if binary == "" {
		binary = defaultBinary
	}
	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", ext,
		"--no-playlist",
		"--no-warnings",
		"--newline",
		"-o", filepath.Join(stagingDir, "%(id)s.%(ext)s"),
	}
	if req.AudioQuality != "" {
		args = append(args, "--audio-quality", req.AudioQuality)
	}
	args = append(args, req.VideoID)

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stderrTail tailBuffer
	cmd.Stderr = &stderrTail
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transfer", "download", "start yt-dlp", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if percent, ok := ParseProgressLine(scanner.Text()); ok && progress != nil {
			progress(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return Result{}, services.Wrap(services.ErrTimeout, "transfer", "download",
				fmt.Sprintf("video %s exceeded %s", req.VideoID, e.Timeout), err)
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "transfer", "download",
			strings.TrimSpace(stderrTail.String()), err)
	}

	staged := filepath.Join(stagingDir, req.VideoID+"."+ext)
	if !fileutil.FileExists(staged) {
		return Result{}, services.Wrap(services.ErrExternalTool, "transfer", "download",
			fmt.Sprintf("yt-dlp produced no %s file for %s", ext, req.VideoID), nil)
	}

	filename := SanitizeFilename(req.Title)
	if filename == "" {
		filename = req.VideoID
	}
	filename += "." + ext
	final := filepath.Join(req.TargetDir, filename)
	if err := os.MkdirAll(req.TargetDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create target dir: %w", err)
	}
	if err := fileutil.MoveFile(staged, final); err != nil {
		return Result{}, fmt.Errorf("move into library: %w", err)
	}

	return Result{Filename: filename, Path: final}, nil
}

// SanitizeFilename replaces characters that are unsafe in filenames and
// collapses the surrounding whitespace.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", " -", "*", "_",
		"?", "", "\"", "'", "<", "(", ">", ")", "|", "-",
	)
	cleaned := replacer.Replace(name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimSpace(cleaned)
}

// tailBuffer keeps the last chunk of writes so error messages stay short.
type tailBuffer struct {
	buf []byte
}

const tailLimit = 2048

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > tailLimit {
		t.buf = t.buf[len(t.buf)-tailLimit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
