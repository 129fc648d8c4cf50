package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"castsync/internal/services"
)

func scanDownload(scanner interface{ Scan(dest ...any) error }) (*Download, error) {
	var (
		id            int64
		feed          string
		videoID       string
		filename      string
		downloadedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &feed, &videoID, &filename, &downloadedRaw); err != nil {
		return nil, err
	}
	download := &Download{ID: id, Feed: feed, VideoID: videoID, Filename: filename}
	if downloaded, err := parseTimeString(downloadedRaw.String); err == nil {
		download.DownloadedAt = downloaded
	}
	return download, nil
}

// recordDownload inserts the write-once download fact. Inserting the same
// video twice is a validation error, so a completed download can never be
// silently repeated.
func recordDownload(ctx context.Context, q querier, feed, videoID, filename string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO downloads (feed, video_id, filename, downloaded_at)
		VALUES (?, ?, ?, ?)`,
		feed, videoID, filename, formatTime(nowUTC()))
	if err != nil {
		if isConstraintViolation(err) {
			return services.Wrap(services.ErrValidation, "ledger", "record download",
				fmt.Sprintf("video %s already downloaded", videoID), err)
		}
		return fmt.Errorf("insert download: %w", err)
	}
	return nil
}

// RecordDownload marks a video as fetched for a feed. The record is
// write-once per (feed, video).
func (s *Store) RecordDownload(ctx context.Context, feed, videoID, filename string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return recordDownload(ctx, s.db, feed, videoID, filename)
	})
}

// IsDownloaded reports whether a video already has a download record.
func (s *Store) IsDownloaded(ctx context.Context, feed, videoID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM downloads WHERE feed = ? AND video_id = ?",
		feed, videoID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query download: %w", err)
	}
	return count > 0, nil
}

// DownloadedVideos returns the set of video IDs already fetched for a feed.
func (s *Store) DownloadedVideos(ctx context.Context, feed string) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT video_id FROM downloads WHERE feed = ?", feed)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	videos := make(map[string]struct{})
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		videos[videoID] = struct{}{}
	}
	return videos, rows.Err()
}

// DownloadByVideo returns the download record for a video, or nil.
func (s *Store) DownloadByVideo(ctx context.Context, feed, videoID string) (*Download, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT id, feed, video_id, filename, downloaded_at FROM downloads WHERE feed = ? AND video_id = ?",
		feed, videoID)
	download, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query download: %w", err)
	}
	return download, nil
}

// CompleteDownload records a finished fetch in one transaction: the
// write-once download fact, the episode record with its metadata, and the
// queue item's transition to completed.
func (s *Store) CompleteDownload(ctx context.Context, feed string, up EpisodeUpsert) error {
	if up.VideoID == "" {
		return services.Wrap(services.ErrValidation, "ledger", "complete download", "video id required", nil)
	}
	return s.withFeedTx(ctx, feed, func(tx *sql.Tx) error {
		if err := recordDownload(ctx, tx, feed, up.VideoID, up.Filename); err != nil {
			return err
		}
		if _, err := upsertEpisode(ctx, tx, feed, up); err != nil {
			return err
		}
		return markQueueStatus(ctx, tx, feed, up.VideoID, StatusCompleted, "")
	})
}
