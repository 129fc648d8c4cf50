package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"castsync/internal/services"
)

const queueColumns = "id, feed, video_id, title, status, progress_percent, error_message, attempts, queued_at, started_at, finished_at, updated_at"

func scanQueueItem(scanner interface{ Scan(dest ...any) error }) (*QueueItem, error) {
	var (
		id          int64
		feed        string
		videoID     string
		title       string
		statusStr   string
		progress    float64
		errMessage  sql.NullString
		attempts    int64
		queuedRaw   sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id, &feed, &videoID, &title, &statusStr, &progress,
		&errMessage, &attempts, &queuedRaw, &startedRaw, &finishedRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &QueueItem{
		ID:              id,
		Feed:            feed,
		VideoID:         videoID,
		Title:           title,
		Status:          Status(statusStr),
		ProgressPercent: progress,
		ErrorMessage:    errMessage.String,
		Attempts:        attempts,
		StartedAt:       timeOrNil(startedRaw),
		FinishedAt:      timeOrNil(finishedRaw),
	}
	if queued, err := parseTimeString(queuedRaw.String); err == nil {
		item.QueuedAt = queued
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func queryQueueItem(ctx context.Context, q querier, feed, videoID string) (*QueueItem, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+queueColumns+" FROM download_queue WHERE feed = ? AND video_id = ?",
		feed, videoID)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query queue item: %w", err)
	}
	return item, nil
}

// Enqueue adds a video to the download queue. A video already queued or
// downloading for the feed is returned as-is; a completed or failed entry
// is reset to queued so the fetch can be retried.
func (s *Store) Enqueue(ctx context.Context, feed, videoID, title string) (*QueueItem, error) {
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "enqueue", "video id required", nil)
	}
	var item *QueueItem
	err := s.withFeedTx(ctx, feed, func(tx *sql.Tx) error {
		existing, err := queryQueueItem(ctx, tx, feed, videoID)
		if err != nil {
			return err
		}
		now := formatTime(nowUTC())
		switch {
		case existing == nil:
			res, err := tx.ExecContext(ctx, `
				INSERT INTO download_queue (feed, video_id, title, status, queued_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				feed, videoID, title, string(StatusQueued), now, now)
			if err != nil {
				return fmt.Errorf("insert queue item: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("queue item id: %w", err)
			}
			item = &QueueItem{ID: id, Feed: feed, VideoID: videoID, Title: title, Status: StatusQueued}
			return nil
		case existing.Status == StatusQueued || existing.Status == StatusDownloading:
			item = existing
			return nil
		default:
			_, err := tx.ExecContext(ctx, `
				UPDATE download_queue
				SET status = ?, title = ?, progress_percent = 0, error_message = NULL, started_at = NULL, finished_at = NULL, queued_at = ?, updated_at = ?
				WHERE id = ?`,
				string(StatusQueued), title, now, now, existing.ID)
			if err != nil {
				return fmt.Errorf("requeue item: %w", err)
			}
			existing.Status = StatusQueued
			existing.Title = title
			existing.ProgressPercent = 0
			existing.ErrorMessage = ""
			item = existing
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func markQueueStatus(ctx context.Context, q querier, feed, videoID string, status Status, errMessage string) error {
	now := formatTime(nowUTC())
	var query string
	args := []any{string(status)}
	switch status {
	case StatusDownloading:
		query = "UPDATE download_queue SET status = ?, attempts = attempts + 1, started_at = ?, error_message = NULL, updated_at = ? WHERE feed = ? AND video_id = ?"
		args = append(args, now, now, feed, videoID)
	case StatusCompleted:
		query = "UPDATE download_queue SET status = ?, progress_percent = 100, finished_at = ?, updated_at = ? WHERE feed = ? AND video_id = ?"
		args = append(args, now, now, feed, videoID)
	case StatusFailed:
		query = "UPDATE download_queue SET status = ?, error_message = ?, finished_at = ?, updated_at = ? WHERE feed = ? AND video_id = ?"
		args = append(args, nullableString(errMessage), now, now, feed, videoID)
	default:
		query = "UPDATE download_queue SET status = ?, updated_at = ? WHERE feed = ? AND video_id = ?"
		args = append(args, now, feed, videoID)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark queue %s: %w", status, err)
	}
	return nil
}

// MarkDownloading transitions an item to downloading and bumps its
// attempt counter.
func (s *Store) MarkDownloading(ctx context.Context, feed, videoID string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return markQueueStatus(ctx, s.db, feed, videoID, StatusDownloading, "")
	})
}

// MarkCompleted transitions an item to completed outside of
// CompleteDownload, for downloads whose facts were already recorded.
func (s *Store) MarkCompleted(ctx context.Context, feed, videoID string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return markQueueStatus(ctx, s.db, feed, videoID, StatusCompleted, "")
	})
}

// MarkFailed records a failed download with its error message.
func (s *Store) MarkFailed(ctx context.Context, feed, videoID, errMessage string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return markQueueStatus(ctx, s.db, feed, videoID, StatusFailed, errMessage)
	})
}

// SetProgress updates the download progress percentage for an in-flight item.
func (s *Store) SetProgress(ctx context.Context, feed, videoID string, percent float64) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return s.execWithoutResultRetry(ctx,
		"UPDATE download_queue SET progress_percent = ?, updated_at = ? WHERE feed = ? AND video_id = ? AND status = ?",
		percent, formatTime(nowUTC()), feed, videoID, string(StatusDownloading))
}

// QueueItemByVideo returns the queue entry for a video, or nil.
func (s *Store) QueueItemByVideo(ctx context.Context, feed, videoID string) (*QueueItem, error) {
	return queryQueueItem(ensureContext(ctx), s.db, feed, videoID)
}

// ListQueue returns queue items ordered oldest first. An empty feed
// spans all feeds; statuses, when given, restrict the result.
func (s *Store) ListQueue(ctx context.Context, feed string, statuses ...Status) ([]*QueueItem, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + queueColumns + " FROM download_queue"
	var (
		conditions []string
		args       []any
	)
	if feed != "" {
		conditions = append(conditions, "feed = ?")
		args = append(args, feed)
	}
	if len(statuses) > 0 {
		placeholders := make([]byte, 0, len(statuses)*2)
		for i, status := range statuses {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+string(placeholders)+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY queued_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var items []*QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats summarizes the queue by status.
func (s *Store) Stats(ctx context.Context) (QueueStats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM download_queue GROUP BY status")
	if err != nil {
		return QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats QueueStats
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return QueueStats{}, fmt.Errorf("scan stats: %w", err)
		}
		switch Status(statusStr) {
		case StatusQueued:
			stats.Queued = count
		case StatusDownloading:
			stats.Downloading = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// ClearCompleted removes completed queue entries and returns the count.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.deleteByStatus(ctx, StatusCompleted)
}

// ClearFailed removes failed queue entries and returns the count.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.deleteByStatus(ctx, StatusFailed)
}

func (s *Store) deleteByStatus(ctx context.Context, status Status) (int64, error) {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM download_queue WHERE status = ?", string(status))
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", status, err)
	}
	return res.RowsAffected()
}

// ResetStuckDownloads requeues items left in the downloading state by an
// unclean shutdown. Runs once at daemon startup before any worker starts.
func (s *Store) ResetStuckDownloads(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE download_queue
		SET status = ?, progress_percent = 0, started_at = NULL, updated_at = ?
		WHERE status = ?`,
		string(StatusQueued), formatTime(nowUTC()), string(StatusDownloading))
	if err != nil {
		return 0, fmt.Errorf("reset stuck downloads: %w", err)
	}
	return res.RowsAffected()
}
