package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Feeds))
	for _, feed := range c.Feeds {
		if err := c.validateFeed(feed); err != nil {
			return err
		}
		if _, dup := seen[feed.Name]; dup {
			return fmt.Errorf("feed %q is defined more than once", feed.Name)
		}
		seen[feed.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func (c *Config) validateMatching() error {
	if c.Matching.DuplicateThreshold < 0 || c.Matching.DuplicateThreshold > 1 {
		return errors.New("matching.duplicate_threshold must be between 0 and 1")
	}
	if c.Matching.LinkThreshold < 0 || c.Matching.LinkThreshold > 1 {
		return errors.New("matching.link_threshold must be between 0 and 1")
	}
	if c.Matching.LinkThreshold > c.Matching.DuplicateThreshold {
		return errors.New("matching.link_threshold must not exceed matching.duplicate_threshold")
	}
	return nil
}

func (c *Config) validateFeed(feed Feed) error {
	if feed.Name == "" {
		return errors.New("feed.name must be set")
	}
	if strings.TrimSpace(feed.Playlist) == "" {
		return fmt.Errorf("feed %q: playlist must be set", feed.Name)
	}
	if strings.TrimSpace(feed.Directory) == "" {
		return fmt.Errorf("feed %q: directory must be set", feed.Name)
	}
	if feed.PollIntervalMinutes < minPollIntervalMinutes || feed.PollIntervalMinutes > maxPollIntervalMinutes {
		return fmt.Errorf("feed %q: poll_interval_minutes must be between %d and %d, got %d",
			feed.Name, minPollIntervalMinutes, maxPollIntervalMinutes, feed.PollIntervalMinutes)
	}
	return nil
}
