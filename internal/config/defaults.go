package config

import "time"

const (
	defaultStateDir   = "~/.local/share/castsync"
	defaultLogDir     = "~/.local/share/castsync/logs"
	defaultStagingDir = "~/.local/share/castsync/staging"
	defaultSocketPath = "~/.local/share/castsync/castsyncd.sock"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultStartDelaySeconds = 5
	defaultTimeoutMinutes    = 30
	defaultAudioQuality      = "192K"
	defaultYtdlpPath         = "yt-dlp"

	defaultDuplicateThreshold = 0.80
	defaultLinkThreshold      = 0.60

	defaultPollIntervalMinutes = 60
	minPollIntervalMinutes     = 5
	maxPollIntervalMinutes     = 1440
	defaultMaxConcurrent       = 1
)

var defaultFileExtensions = []string{"mp3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			StagingDir: defaultStagingDir,
			SocketPath: defaultSocketPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Downloads: Downloads{
			StartDelaySeconds: defaultStartDelaySeconds,
			TimeoutMinutes:    defaultTimeoutMinutes,
			AudioQuality:      defaultAudioQuality,
			YtdlpPath:         defaultYtdlpPath,
		},
		Matching: Matching{
			DuplicateThreshold: defaultDuplicateThreshold,
			LinkThreshold:      defaultLinkThreshold,
		},
	}
}

// StartDelay returns the inter-transfer delay as a duration.
func (d Downloads) StartDelay() time.Duration {
	return time.Duration(d.StartDelaySeconds) * time.Second
}

// Timeout returns the per-transfer deadline as a duration.
func (d Downloads) Timeout() time.Duration {
	return time.Duration(d.TimeoutMinutes) * time.Minute
}

// PollInterval returns the feed's polling interval as a duration.
func (f Feed) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalMinutes) * time.Minute
}
