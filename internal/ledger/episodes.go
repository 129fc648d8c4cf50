package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"castsync/internal/services"
)

const episodeColumns = "id, feed, filename, video_id, remote_title, description, thumbnail_url, publish_date, match_score, display_order, added_at, updated_at"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id           int64
		feed         string
		filename     string
		videoID      sql.NullString
		remoteTitle  sql.NullString
		description  sql.NullString
		thumbnailURL sql.NullString
		publishDate  sql.NullString
		matchScore   sql.NullFloat64
		displayOrder int64
		addedRaw     sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&feed,
		&filename,
		&videoID,
		&remoteTitle,
		&description,
		&thumbnailURL,
		&publishDate,
		&matchScore,
		&displayOrder,
		&addedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:           id,
		Feed:         feed,
		Filename:     filename,
		VideoID:      videoID.String,
		RemoteTitle:  remoteTitle.String,
		Description:  description.String,
		ThumbnailURL: thumbnailURL.String,
		PublishDate:  publishDate.String,
		DisplayOrder: displayOrder,
	}
	if matchScore.Valid {
		score := matchScore.Float64
		episode.MatchScore = &score
	}
	if added, err := parseTimeString(addedRaw.String); err == nil {
		episode.AddedAt = added
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}

// EpisodeUpsert carries the remote metadata applied to one episode record
// during a reconciliation pass.
type EpisodeUpsert struct {
	Filename     string
	VideoID      string
	RemoteTitle  string
	Description  string
	ThumbnailURL string
	PublishDate  string
	MatchScore   float64
}

func queryEpisode(ctx context.Context, q querier, feed, filename string) (*Episode, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE feed = ? AND filename = ?",
		feed, filename)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query episode: %w", err)
	}
	return episode, nil
}

func videoClaimedBy(ctx context.Context, q querier, feed, videoID string) (string, error) {
	var filename string
	err := q.QueryRowContext(ctx,
		"SELECT filename FROM episodes WHERE feed = ? AND video_id = ?",
		feed, videoID).Scan(&filename)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query video claim: %w", err)
	}
	return filename, nil
}

func minDisplayOrder(ctx context.Context, q querier, feed string) (int64, bool, error) {
	var order sql.NullInt64
	err := q.QueryRowContext(ctx,
		"SELECT MIN(display_order) FROM episodes WHERE feed = ?", feed).Scan(&order)
	if err != nil {
		return 0, false, fmt.Errorf("query min order: %w", err)
	}
	return order.Int64, order.Valid, nil
}

func maxDisplayOrder(ctx context.Context, q querier, feed string) (int64, bool, error) {
	var order sql.NullInt64
	err := q.QueryRowContext(ctx,
		"SELECT MAX(display_order) FROM episodes WHERE feed = ?", feed).Scan(&order)
	if err != nil {
		return 0, false, fmt.Errorf("query max order: %w", err)
	}
	return order.Int64, order.Valid, nil
}

// upsertEpisode creates or updates one episode record. New records are
// prepended, receiving a display order below the feed's current minimum.
// Existing records keep their order; metadata only changes when the new
// match score is at least the stored one, so a weaker match never
// overwrites a stronger link. Returns true when a row was written.
func upsertEpisode(ctx context.Context, q querier, feed string, up EpisodeUpsert) (bool, error) {
	existing, err := queryEpisode(ctx, q, feed, up.Filename)
	if err != nil {
		return false, err
	}

	if up.VideoID != "" {
		claimant, err := videoClaimedBy(ctx, q, feed, up.VideoID)
		if err != nil {
			return false, err
		}
		if claimant != "" && claimant != up.Filename {
			return false, services.Wrap(services.ErrValidation, "ledger", "upsert episode",
				fmt.Sprintf("video %s already linked to %s", up.VideoID, claimant), nil)
		}
	}

	now := nowUTC()
	if existing == nil {
		order := int64(0)
		if min, ok, err := minDisplayOrder(ctx, q, feed); err != nil {
			return false, err
		} else if ok {
			order = min - 1
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO episodes (feed, filename, video_id, remote_title, description, thumbnail_url, publish_date, match_score, display_order, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			feed, up.Filename, nullableString(up.VideoID), nullableString(up.RemoteTitle),
			nullableString(up.Description), nullableString(up.ThumbnailURL),
			nullableString(up.PublishDate), up.MatchScore, order,
			formatTime(now), formatTime(now))
		if err != nil {
			if isConstraintViolation(err) {
				return false, services.Wrap(services.ErrValidation, "ledger", "upsert episode", "uniqueness violated", err)
			}
			return false, fmt.Errorf("insert episode: %w", err)
		}
		return true, nil
	}

	if existing.MatchScore != nil && up.MatchScore < *existing.MatchScore {
		return false, nil
	}
	sameScore := existing.MatchScore != nil && *existing.MatchScore == up.MatchScore
	unchanged := existing.VideoID == up.VideoID &&
		existing.RemoteTitle == up.RemoteTitle &&
		existing.Description == up.Description &&
		existing.ThumbnailURL == up.ThumbnailURL &&
		existing.PublishDate == up.PublishDate &&
		sameScore
	if unchanged {
		return false, nil
	}

	_, err = q.ExecContext(ctx, `
		UPDATE episodes
		SET video_id = ?, remote_title = ?, description = ?, thumbnail_url = ?, publish_date = ?, match_score = ?, updated_at = ?
		WHERE feed = ? AND filename = ?`,
		nullableString(up.VideoID), nullableString(up.RemoteTitle),
		nullableString(up.Description), nullableString(up.ThumbnailURL),
		nullableString(up.PublishDate), up.MatchScore, formatTime(now),
		feed, up.Filename)
	if err != nil {
		if isConstraintViolation(err) {
			return false, services.Wrap(services.ErrValidation, "ledger", "upsert episode", "uniqueness violated", err)
		}
		return false, fmt.Errorf("update episode: %w", err)
	}
	return true, nil
}

// ingestFiles records local files that have no episode row yet. They are
// appended after every known episode in alphabetical order, so untracked
// library files keep a stable position at the end of the feed.
func ingestFiles(ctx context.Context, q querier, feed string, filenames []string) (int, error) {
	if len(filenames) == 0 {
		return 0, nil
	}
	next := int64(1)
	if max, ok, err := maxDisplayOrder(ctx, q, feed); err != nil {
		return 0, err
	} else if ok {
		next = max + 1
	}

	now := formatTime(nowUTC())
	created := 0
	for _, filename := range filenames {
		existing, err := queryEpisode(ctx, q, feed, filename)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO episodes (feed, filename, display_order, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			feed, filename, next, now, now)
		if err != nil {
			return created, fmt.Errorf("ingest file %s: %w", filename, err)
		}
		next++
		created++
	}
	return created, nil
}

// UpsertEpisode applies a single metadata upsert outside of a
// reconciliation pass, for example after a completed download.
func (s *Store) UpsertEpisode(ctx context.Context, feed string, up EpisodeUpsert) error {
	return s.withFeedTx(ctx, feed, func(tx *sql.Tx) error {
		_, err := upsertEpisode(ctx, tx, feed, up)
		return err
	})
}

// EpisodeByFilename returns the episode record for a file, or nil.
func (s *Store) EpisodeByFilename(ctx context.Context, feed, filename string) (*Episode, error) {
	return queryEpisode(ensureContext(ctx), s.db, feed, filename)
}

// ListEpisodes returns a feed's episodes in display order, newest first.
func (s *Store) ListEpisodes(ctx context.Context, feed string) ([]*Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE feed = ? ORDER BY display_order ASC, filename ASC",
		feed)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// EpisodeCount returns the number of episode records for a feed.
func (s *Store) EpisodeCount(ctx context.Context, feed string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM episodes WHERE feed = ?", feed).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count episodes: %w", err)
	}
	return count, nil
}
