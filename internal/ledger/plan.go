package ledger

import (
	"context"
	"database/sql"
)

// Plan is the full outcome of one reconciliation pass for a feed. It is
// applied atomically: either every upsert, link, and ingest lands or none
// of them do.
type Plan struct {
	// Upserts refresh metadata on episodes in playlist order, oldest
	// first, so prepended records end up newest on top.
	Upserts []EpisodeUpsert
	// Links mark videos matched to existing local files as downloaded
	// without fetching them.
	Links []Link
	// IngestFilenames are local files with no episode record, appended
	// alphabetically after every known episode.
	IngestFilenames []string
	// SyncedAt stamps the feed state when the plan commits.
	Synced bool
}

// Link associates a playlist video with a file already on disk.
type Link struct {
	VideoID  string
	Filename string
}

// PlanResult counts the mutations a committed plan performed. A second
// pass over unchanged inputs reports all zeros.
type PlanResult struct {
	EpisodesWritten int
	VideosLinked    int
	FilesIngested   int
}

// Changed reports whether the plan mutated the ledger.
func (r PlanResult) Changed() bool {
	return r.EpisodesWritten > 0 || r.VideosLinked > 0 || r.FilesIngested > 0
}

// ApplyPlan commits a reconciliation pass in a single transaction while
// holding the feed's write lock.
func (s *Store) ApplyPlan(ctx context.Context, feed string, plan Plan) (PlanResult, error) {
	var result PlanResult
	err := s.withFeedTx(ctx, feed, func(tx *sql.Tx) error {
		for _, up := range plan.Upserts {
			written, err := upsertEpisode(ctx, tx, feed, up)
			if err != nil {
				return err
			}
			if written {
				result.EpisodesWritten++
			}
		}
		for _, link := range plan.Links {
			downloaded, err := linkExisting(ctx, tx, feed, link)
			if err != nil {
				return err
			}
			if downloaded {
				result.VideosLinked++
			}
		}
		ingested, err := ingestFiles(ctx, tx, feed, plan.IngestFilenames)
		if err != nil {
			return err
		}
		result.FilesIngested = ingested

		if plan.Synced {
			return markFeedSynced(ctx, tx, feed)
		}
		return nil
	})
	if err != nil {
		return PlanResult{}, err
	}
	return result, nil
}

// linkExisting records a download fact for a video whose file is already
// present locally. Already-linked videos are skipped, keeping the pass
// idempotent.
func linkExisting(ctx context.Context, tx *sql.Tx, feed string, link Link) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM downloads WHERE feed = ? AND video_id = ?",
		feed, link.VideoID).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := recordDownload(ctx, tx, feed, link.VideoID, link.Filename); err != nil {
		return false, err
	}
	return true, nil
}
