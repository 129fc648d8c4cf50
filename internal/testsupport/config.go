package testsupport

import (
	"path/filepath"
	"testing"

	"castsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.SocketPath = filepath.Join(base, "castsync.sock")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFeed appends a feed whose directory lives under the test base dir.
func WithFeed(name, playlist string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feeds = append(b.cfg.Feeds, config.Feed{
			Name:      name,
			Playlist:  playlist,
			Directory: filepath.Join(b.baseDir, "library", name),
		})
	}
}

// WithFeedConcurrency sets the download slot count for a named feed.
func WithFeedConcurrency(name string, slots int) ConfigOption {
	return func(b *configBuilder) {
		for i := range b.cfg.Feeds {
			if b.cfg.Feeds[i].Name == name {
				b.cfg.Feeds[i].MaxConcurrentDownloads = slots
			}
		}
	}
}

// WithDownloadDelay overrides the inter-start delay for scheduler tests.
func WithDownloadDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downloads.StartDelaySeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
