package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	StagingDir string `toml:"staging_dir"`
	SocketPath string `toml:"socket_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Downloads contains global transfer pacing and tooling settings.
type Downloads struct {
	// StartDelaySeconds is the minimum delay between the start of two
	// consecutive transfers, independent of concurrency.
	StartDelaySeconds int `toml:"start_delay_seconds"`
	// TimeoutMinutes is the hard per-transfer deadline.
	TimeoutMinutes int `toml:"timeout_minutes"`
	// AudioQuality is the default quality preference passed to the
	// transfer tool when a feed does not set its own.
	AudioQuality string `toml:"audio_quality"`
	// YtdlpPath overrides the yt-dlp executable location.
	YtdlpPath string `toml:"ytdlp_path"`
}

// Matching contains the fuzzy-match acceptance thresholds.
type Matching struct {
	// DuplicateThreshold gates download-skip decisions (file == episode).
	DuplicateThreshold float64 `toml:"duplicate_threshold"`
	// LinkThreshold gates attaching playlist metadata to a present file.
	LinkThreshold float64 `toml:"link_threshold"`
}

// Feed describes one playlist-to-directory sync target.
type Feed struct {
	Name                   string   `toml:"name"`
	Playlist               string   `toml:"playlist"`
	Directory              string   `toml:"directory"`
	PollIntervalMinutes    int      `toml:"poll_interval_minutes"`
	Enabled                *bool    `toml:"enabled"`
	MaxConcurrentDownloads int      `toml:"max_concurrent_downloads"`
	AudioQuality           string   `toml:"audio_quality"`
	FileExtensions         []string `toml:"file_extensions"`
	// ChannelSuffix is the trailing "| CHANNEL" marker stripped from
	// playlist titles before matching.
	ChannelSuffix string `toml:"channel_suffix"`
}

// IsEnabled reports whether the feed should be polled. Feeds are enabled
// unless explicitly disabled.
func (f Feed) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Config encapsulates all configuration values for castsync.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Downloads Downloads `toml:"downloads"`
	Matching  Matching  `toml:"matching"`
	Feeds     []Feed    `toml:"feed"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/castsync/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool result
// reports whether a config file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("castsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Feed directories are created on a best-effort basis so the daemon can
// start while external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.StagingDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, feed := range c.Feeds {
		if strings.TrimSpace(feed.Directory) != "" {
			_ = os.MkdirAll(feed.Directory, 0o755)
		}
	}
	return nil
}

// FeedByName returns the feed with the given name.
func (c *Config) FeedByName(name string) (Feed, bool) {
	for _, feed := range c.Feeds {
		if feed.Name == name {
			return feed, true
		}
	}
	return Feed{}, false
}

// EnabledFeeds returns the feeds that should be polled.
func (c *Config) EnabledFeeds() []Feed {
	out := make([]Feed, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		if feed.IsEnabled() {
			out = append(out, feed)
		}
	}
	return out
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
