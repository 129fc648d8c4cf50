// Package logging builds the slog loggers used across the daemon and CLI.
//
// It provides console and JSON handlers, typed attribute helpers, and the
// standardized field keys (feed, video_id, event_type, error_hint) that
// keep log output queryable. Construct loggers through New or
// NewFromConfig; use NewComponentLogger to stamp a subsystem name.
package logging
