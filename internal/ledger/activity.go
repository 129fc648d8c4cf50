package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Event types recorded in the activity log.
const (
	EventSyncStarted       = "sync_started"
	EventSyncCompleted     = "sync_completed"
	EventSyncFailed        = "sync_failed"
	EventEpisodeLinked     = "episode_linked"
	EventDownloadQueued    = "download_queued"
	EventDownloadStarted   = "download_started"
	EventDownloadCompleted = "download_completed"
	EventDownloadFailed    = "download_failed"
)

// RecordActivity appends one event to the activity log. Feed may be empty
// for daemon-level events.
func (s *Store) RecordActivity(ctx context.Context, feed, eventType, message string) error {
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO activity (feed, event_type, message, created_at)
		VALUES (?, ?, ?, ?)`,
		nullableString(feed), eventType, message, formatTime(nowUTC()))
}

// RecentActivity returns the newest events, most recent first. An
// empty feed returns events across all feeds.
func (s *Store) RecentActivity(ctx context.Context, feed string, limit int) ([]*Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx = ensureContext(ctx)
	query := `
		SELECT id, feed, event_type, message, created_at
		FROM activity ORDER BY id DESC LIMIT ?`
	args := []any{limit}
	if feed != "" {
		query = `
		SELECT id, feed, event_type, message, created_at
		FROM activity WHERE feed = ? ORDER BY id DESC LIMIT ?`
		args = []any{feed, limit}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var events []*Activity
	for rows.Next() {
		var (
			id         int64
			feed       sql.NullString
			eventType  string
			message    string
			createdRaw sql.NullString
		)
		if err := rows.Scan(&id, &feed, &eventType, &message, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		event := &Activity{ID: id, Feed: feed.String, EventType: eventType, Message: message}
		if created, err := parseTimeString(createdRaw.String); err == nil {
			event.CreatedAt = created
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func markFeedSynced(ctx context.Context, q querier, feed string) error {
	now := formatTime(nowUTC())
	_, err := q.ExecContext(ctx, `
		INSERT INTO feed_state (feed, last_sync_at, last_error, updated_at)
		VALUES (?, ?, NULL, ?)
		ON CONFLICT(feed) DO UPDATE SET last_sync_at = excluded.last_sync_at, last_error = NULL, updated_at = excluded.updated_at`,
		feed, now, now)
	if err != nil {
		return fmt.Errorf("mark feed synced: %w", err)
	}
	return nil
}

// SetFeedError records the most recent sync failure for a feed.
func (s *Store) SetFeedError(ctx context.Context, feed, message string) error {
	now := formatTime(nowUTC())
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO feed_state (feed, last_error, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(feed) DO UPDATE SET last_error = excluded.last_error, updated_at = excluded.updated_at`,
		feed, nullableString(message), now)
}

// FeedStateFor returns the sync state for one feed, or nil when the feed
// has never synced.
func (s *Store) FeedStateFor(ctx context.Context, feed string) (*FeedState, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT feed, last_sync_at, last_error, updated_at FROM feed_state WHERE feed = ?", feed)
	state, err := scanFeedState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query feed state: %w", err)
	}
	return state, nil
}

// FeedStates returns the sync state of every feed the ledger has seen.
func (s *Store) FeedStates(ctx context.Context) ([]*FeedState, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT feed, last_sync_at, last_error, updated_at FROM feed_state ORDER BY feed ASC")
	if err != nil {
		return nil, fmt.Errorf("list feed states: %w", err)
	}
	defer rows.Close()

	var states []*FeedState
	for rows.Next() {
		state, err := scanFeedState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

func scanFeedState(scanner interface{ Scan(dest ...any) error }) (*FeedState, error) {
	var (
		feed       string
		lastSync   sql.NullString
		lastError  sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&feed, &lastSync, &lastError, &updatedRaw); err != nil {
		return nil, err
	}
	state := &FeedState{Feed: feed, LastSyncAt: timeOrNil(lastSync), LastError: lastError.String}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		state.UpdatedAt = updated
	}
	return state, nil
}
