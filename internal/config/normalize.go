package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeDownloads()
	c.normalizeMatching()
	for i := range c.Feeds {
		if err := c.normalizeFeed(&c.Feeds[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeDownloads() {
	if c.Downloads.StartDelaySeconds <= 0 {
		c.Downloads.StartDelaySeconds = defaultStartDelaySeconds
	}
	if c.Downloads.TimeoutMinutes <= 0 {
		c.Downloads.TimeoutMinutes = defaultTimeoutMinutes
	}
	if strings.TrimSpace(c.Downloads.AudioQuality) == "" {
		c.Downloads.AudioQuality = defaultAudioQuality
	}
	if strings.TrimSpace(c.Downloads.YtdlpPath) == "" {
		c.Downloads.YtdlpPath = defaultYtdlpPath
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.DuplicateThreshold <= 0 {
		c.Matching.DuplicateThreshold = defaultDuplicateThreshold
	}
	if c.Matching.LinkThreshold <= 0 {
		c.Matching.LinkThreshold = defaultLinkThreshold
	}
}

func (c *Config) normalizeFeed(feed *Feed) error {
	feed.Name = strings.TrimSpace(feed.Name)
	feed.Playlist = strings.TrimSpace(feed.Playlist)

	var err error
	if feed.Directory, err = expandPath(feed.Directory); err != nil {
		return fmt.Errorf("feed %q directory: %w", feed.Name, err)
	}

	if feed.PollIntervalMinutes == 0 {
		feed.PollIntervalMinutes = defaultPollIntervalMinutes
	}
	if feed.MaxConcurrentDownloads <= 0 {
		feed.MaxConcurrentDownloads = defaultMaxConcurrent
	}
	if strings.TrimSpace(feed.AudioQuality) == "" {
		feed.AudioQuality = c.Downloads.AudioQuality
	}

	if len(feed.FileExtensions) == 0 {
		feed.FileExtensions = append([]string{}, defaultFileExtensions...)
	}
	for i, ext := range feed.FileExtensions {
		feed.FileExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	return nil
}
