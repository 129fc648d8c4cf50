// Package reconciler runs one sync pass per feed: fetch the playlist
// snapshot, match entries against the ledger and the files on disk,
// commit the resulting plan atomically, and hand the missing entries to
// the download backlog.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"castsync/internal/config"
	"castsync/internal/fileutil"
	"castsync/internal/ledger"
	"castsync/internal/logging"
	"castsync/internal/matcher"
	"castsync/internal/playlist"
	"castsync/internal/services"
)

// State names the step a feed's pass is currently in.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateMatching   State = "matching"
	StatePersisting State = "persisting"
	StateScheduling State = "scheduling"
	StateFailed     State = "failed"
)

// Outcome summarizes one completed pass.
type Outcome struct {
	Feed           string
	Entries        int
	LocalFiles     int
	Linked         int
	MetadataSynced int
	FilesIngested  int
	Queued         int
	Changed        bool
}

// Reconciler coordinates sync passes across feeds. Passes for the same
// feed never overlap; distinct feeds may run concurrently.
type Reconciler struct {
	store     *ledger.Store
	playlists playlist.Client
	matching  config.Matching
	logger    *slog.Logger

	mu     sync.Mutex
	states map[string]State
}

// New builds a reconciler backed by the ledger store and playlist client.
func New(store *ledger.Store, playlists playlist.Client, matching config.Matching, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:     store,
		playlists: playlists,
		matching:  matching,
		logger:    logging.NewComponentLogger(logger, "reconciler"),
		states:    make(map[string]State),
	}
}

// FeedState reports the current pass state for a feed.
func (r *Reconciler) FeedState(feed string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[feed]; ok {
		return state
	}
	return StateIdle
}

func (r *Reconciler) setState(feed string, state State) {
	r.mu.Lock()
	r.states[feed] = state
	r.mu.Unlock()
}

// RunPass executes one full reconciliation pass for a feed. A fetch or
// persistence failure aborts only this pass; the feed's last error is
// recorded and the next tick retries from idle.
func (r *Reconciler) RunPass(ctx context.Context, feed config.Feed) (Outcome, error) {
	log := r.logger.With(logging.String(logging.FieldFeed, feed.Name))
	log.Info("sync pass started")
	if err := r.store.RecordActivity(ctx, feed.Name, ledger.EventSyncStarted, "sync pass started"); err != nil {
		log.Warn("record activity", logging.Error(err))
	}

	outcome, err := r.runPass(ctx, feed, log)
	if err != nil {
		r.setState(feed.Name, StateFailed)
		if storeErr := r.store.SetFeedError(ctx, feed.Name, err.Error()); storeErr != nil {
			log.Warn("record feed error", logging.Error(storeErr))
		}
		if actErr := r.store.RecordActivity(ctx, feed.Name, ledger.EventSyncFailed, err.Error()); actErr != nil {
			log.Warn("record activity", logging.Error(actErr))
		}
		log.Error("sync pass failed", logging.Error(err))
		r.setState(feed.Name, StateIdle)
		return Outcome{Feed: feed.Name}, err
	}

	r.setState(feed.Name, StateIdle)
	log.Info("sync pass completed",
		logging.Int("entries", outcome.Entries),
		logging.Int("linked", outcome.Linked),
		logging.Int("queued", outcome.Queued),
	)
	message := fmt.Sprintf("sync completed: %d entries, %d linked, %d queued", outcome.Entries, outcome.Linked, outcome.Queued)
	if err := r.store.RecordActivity(ctx, feed.Name, ledger.EventSyncCompleted, message); err != nil {
		log.Warn("record activity", logging.Error(err))
	}
	return outcome, nil
}

func (r *Reconciler) runPass(ctx context.Context, feed config.Feed, log *slog.Logger) (Outcome, error) {
	outcome := Outcome{Feed: feed.Name}

	r.setState(feed.Name, StateFetching)
	entries, err := r.playlists.List(ctx, feed.Playlist)
	if err != nil {
		return outcome, services.Wrap(services.ErrTransient, "reconciler", "fetch playlist", feed.Playlist, err)
	}
	outcome.Entries = len(entries)

	r.setState(feed.Name, StateMatching)
	files, err := fileutil.ListAudioFiles(feed.Directory, feed.FileExtensions)
	if err != nil {
		return outcome, fmt.Errorf("list local files: %w", err)
	}
	outcome.LocalFiles = len(files)

	episodes, err := r.store.ListEpisodes(ctx, feed.Name)
	if err != nil {
		return outcome, err
	}
	downloaded, err := r.store.DownloadedVideos(ctx, feed.Name)
	if err != nil {
		return outcome, err
	}

	plan, missing := r.buildPlan(feed, entries, files, episodes, downloaded)

	r.setState(feed.Name, StatePersisting)
	result, err := r.store.ApplyPlan(ctx, feed.Name, plan)
	if err != nil {
		return outcome, err
	}
	outcome.Linked = result.VideosLinked
	outcome.MetadataSynced = result.EpisodesWritten - result.VideosLinked
	if outcome.MetadataSynced < 0 {
		outcome.MetadataSynced = 0
	}
	outcome.FilesIngested = result.FilesIngested
	outcome.Changed = result.Changed()

	r.setState(feed.Name, StateScheduling)
	queued, err := r.scheduleBacklog(ctx, feed, missing, log)
	outcome.Queued = queued
	if err != nil {
		return outcome, err
	}
	if queued > 0 {
		outcome.Changed = true
	}
	return outcome, nil
}

// buildPlan partitions playlist entries into metadata syncs for episodes
// already linked or downloaded, links for entries matched to files on
// disk, and the missing set that feeds the backlog. Upserts are ordered
// oldest entry first so newly created records stack newest on top.
func (r *Reconciler) buildPlan(
	feed config.Feed,
	entries []playlist.Entry,
	files []fileutil.LocalFile,
	episodes []*ledger.Episode,
	downloaded map[string]struct{},
) (ledger.Plan, []playlist.Entry) {
	byVideo := make(map[string]*ledger.Episode)
	byFilename := make(map[string]*ledger.Episode)
	for _, episode := range episodes {
		if episode.VideoID != "" {
			byVideo[episode.VideoID] = episode
		}
		byFilename[episode.Filename] = episode
	}

	type pendingUpsert struct {
		entry  playlist.Entry
		upsert ledger.EpisodeUpsert
	}
	var (
		pending []pendingUpsert
		links   []ledger.Link
		missing []playlist.Entry
	)

	// Entries already linked to an episode only need a metadata refresh.
	var unlinked []playlist.Entry
	for _, entry := range entries {
		if episode, ok := byVideo[entry.VideoID]; ok {
			pending = append(pending, pendingUpsert{
				entry:  entry,
				upsert: upsertFor(entry, episode.Filename, scoreOf(episode)),
			})
			continue
		}
		unlinked = append(unlinked, entry)
	}

	// Files not yet claimed by a linked episode are match candidates.
	// Files the ledger already knows accept weaker matches than fresh
	// ones, because remote titles drift further from filenames than
	// filenames drift from each other.
	var (
		freshNames  []string
		knownNames  []string
		claimedFile = make(map[string]struct{})
	)
	for _, episode := range episodes {
		if episode.VideoID != "" {
			claimedFile[episode.Filename] = struct{}{}
		}
	}
	for _, file := range files {
		if _, ok := claimedFile[file.Name]; ok {
			continue
		}
		if _, known := byFilename[file.Name]; known {
			knownNames = append(knownNames, file.Name)
		} else {
			freshNames = append(freshNames, file.Name)
		}
	}

	opts := matcher.Options{Threshold: r.matching.DuplicateThreshold, ChannelSuffix: feed.ChannelSuffix}
	unlinked, pendingFresh, freshLinks := r.matchGroup(unlinked, freshNames, opts, true)
	opts.Threshold = r.matching.LinkThreshold
	unlinked, pendingKnown, _ := r.matchGroup(unlinked, knownNames, opts, false)

	links = append(links, freshLinks...)
	for _, p := range pendingFresh {
		pending = append(pending, pendingUpsert{entry: p.entry, upsert: p.upsert})
	}
	for _, p := range pendingKnown {
		pending = append(pending, pendingUpsert{entry: p.entry, upsert: p.upsert})
	}

	// What is left is neither downloaded nor present on disk.
	for _, entry := range unlinked {
		if _, ok := downloaded[entry.VideoID]; ok {
			continue
		}
		missing = append(missing, entry)
	}

	// Oldest first: higher playlist index means older in typical remote
	// ordering.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].entry.Index > pending[j].entry.Index
	})
	plan := ledger.Plan{Links: links, Synced: true}
	for _, p := range pending {
		plan.Upserts = append(plan.Upserts, p.upsert)
	}

	linkedFiles := make(map[string]struct{}, len(claimedFile))
	for name := range claimedFile {
		linkedFiles[name] = struct{}{}
	}
	for _, up := range plan.Upserts {
		linkedFiles[up.Filename] = struct{}{}
	}
	for _, file := range files {
		if _, ok := byFilename[file.Name]; ok {
			continue
		}
		if _, ok := linkedFiles[file.Name]; ok {
			continue
		}
		plan.IngestFilenames = append(plan.IngestFilenames, file.Name)
	}
	sort.Strings(plan.IngestFilenames)

	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Index > missing[j].Index
	})
	return plan, missing
}

type matchedUpsert struct {
	entry  playlist.Entry
	upsert ledger.EpisodeUpsert
}

// matchGroup assigns entries to candidate filenames, returning the
// entries that stayed unmatched. When markDownloaded is set each match
// also produces a download link so the scheduler skips the fetch.
func (r *Reconciler) matchGroup(entries []playlist.Entry, candidates []string, opts matcher.Options, markDownloaded bool) ([]playlist.Entry, []matchedUpsert, []ledger.Link) {
	if len(entries) == 0 || len(candidates) == 0 {
		return entries, nil, nil
	}

	references := make([]string, len(entries))
	for i, entry := range entries {
		references[i] = entry.Title
	}
	stems := make([]string, len(candidates))
	for i, name := range candidates {
		stems[i] = fileutil.StripExtension(name)
	}

	matches := matcher.Assign(references, stems, opts)

	var (
		upserts []matchedUpsert
		links   []ledger.Link
		taken   = make(map[int]struct{}, len(matches))
	)
	for _, match := range matches {
		entry := entries[match.Reference]
		filename := candidates[match.Candidate]
		taken[match.Reference] = struct{}{}
		upserts = append(upserts, matchedUpsert{
			entry:  entry,
			upsert: upsertFor(entry, filename, match.Score),
		})
		if markDownloaded {
			links = append(links, ledger.Link{VideoID: entry.VideoID, Filename: filename})
		}
	}

	var rest []playlist.Entry
	for i, entry := range entries {
		if _, ok := taken[i]; !ok {
			rest = append(rest, entry)
		}
	}
	return rest, upserts, links
}

func upsertFor(entry playlist.Entry, filename string, score float64) ledger.EpisodeUpsert {
	return ledger.EpisodeUpsert{
		Filename:     filename,
		VideoID:      entry.VideoID,
		RemoteTitle:  entry.Title,
		Description:  entry.Description,
		ThumbnailURL: entry.ThumbnailURL,
		PublishDate:  entry.UploadDate,
		MatchScore:   score,
	}
}

func scoreOf(episode *ledger.Episode) float64 {
	if episode.MatchScore != nil {
		return *episode.MatchScore
	}
	return 0
}

// scheduleBacklog enqueues missing entries oldest first and logs each
// newly queued download.
func (r *Reconciler) scheduleBacklog(ctx context.Context, feed config.Feed, missing []playlist.Entry, log *slog.Logger) (int, error) {
	queued := 0
	for _, entry := range missing {
		existing, err := r.store.QueueItemByVideo(ctx, feed.Name, entry.VideoID)
		if err != nil {
			return queued, err
		}
		if existing != nil && (existing.Status == ledger.StatusQueued || existing.Status == ledger.StatusDownloading) {
			continue
		}
		// Failed items come back through the backlog on the next pass
		// rather than retrying within the same one.
		if _, err := r.store.Enqueue(ctx, feed.Name, entry.VideoID, entry.Title); err != nil {
			return queued, err
		}
		queued++
		log.Info("download queued",
			logging.String(logging.FieldVideoID, entry.VideoID),
			logging.String("title", entry.Title),
		)
		if err := r.store.RecordActivity(ctx, feed.Name, ledger.EventDownloadQueued, fmt.Sprintf("queued %q", entry.Title)); err != nil {
			log.Warn("record activity", logging.Error(err))
		}
	}
	return queued, nil
}
