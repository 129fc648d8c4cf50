// Package scheduler drains the download backlog. Transfers are bounded
// by a per-feed concurrency limit, spaced by a mandatory delay between
// consecutive starts, and cut off by a hard per-transfer timeout. Item
// state transitions land in the ledger; progress fans out through a
// non-blocking hub.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"castsync/internal/config"
	"castsync/internal/ledger"
	"castsync/internal/logging"
	"castsync/internal/playlist"
	"castsync/internal/services"
	"castsync/internal/transfer"
)

const (
	pollInterval    = 2 * time.Second
	metadataTimeout = 30 * time.Second
)

// Scheduler owns the download queue's state transitions.
type Scheduler struct {
	store    *ledger.Store
	engine   transfer.Engine
	cfg      *config.Config
	hub      *Hub
	logger   *slog.Logger
	metadata playlist.MetadataFetcher

	mu        sync.Mutex
	lastStart time.Time
	active    map[string]int
}

// New builds a scheduler draining the store's queue through the engine.
// A nil metadata fetcher is allowed; completed downloads then carry only
// the title known at enqueue time.
func New(store *ledger.Store, engine transfer.Engine, cfg *config.Config, hub *Hub, metadata playlist.MetadataFetcher, logger *slog.Logger) *Scheduler {
	if hub == nil {
		hub = NewHub()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:    store,
		engine:   engine,
		cfg:      cfg,
		hub:      hub,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		metadata: metadata,
		active:   make(map[string]int),
	}
}

// Hub exposes the progress hub for observers.
func (s *Scheduler) Hub() *Hub {
	return s.hub
}

// Run drains the queue until the context is cancelled. Worker slots are
// bounded by the highest per-feed concurrency limit; each feed is
// additionally capped by its own limit.
func (s *Scheduler) Run(ctx context.Context) error {
	limit := 0
	for _, feed := range s.cfg.Feeds {
		slots := feed.MaxConcurrentDownloads
		if slots <= 0 {
			slots = 1
		}
		limit += slots
	}
	if limit < 1 {
		limit = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit + 1)

	group.Go(func() error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			s.dispatch(groupCtx, group)
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	err := group.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// dispatch claims queued items and hands them to workers while slots are
// available. Items whose feed has no free slot are skipped, not waited
// on, so a saturated feed never starves the others.
func (s *Scheduler) dispatch(ctx context.Context, group *errgroup.Group) {
	items, err := s.store.ListQueue(ctx, "", ledger.StatusQueued)
	if err != nil {
		s.logger.Warn("poll queue", logging.Error(err))
		return
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		feed, ok := s.cfg.FeedByName(item.Feed)
		if !ok {
			s.failItem(item, "feed no longer configured")
			continue
		}
		if !s.claimSlot(feed) {
			continue
		}
		if err := s.store.MarkDownloading(ctx, item.Feed, item.VideoID); err != nil {
			s.releaseSlot(feed.Name)
			s.logger.Warn("mark downloading", logging.Error(err))
			return
		}

		// The group limit covers the sum of per-feed slots, so a claimed
		// slot always finds a free worker.
		claimed := *item
		group.Go(func() error {
			defer s.releaseSlot(feed.Name)
			s.waitForStartSlot(ctx)
			s.runTransfer(ctx, feed, &claimed)
			return nil
		})
	}
}

func (s *Scheduler) claimSlot(feed config.Feed) bool {
	limit := feed.MaxConcurrentDownloads
	if limit <= 0 {
		limit = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[feed.Name] >= limit {
		return false
	}
	s.active[feed.Name]++
	return true
}

func (s *Scheduler) releaseSlot(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[feed] > 0 {
		s.active[feed]--
	}
}

// waitForStartSlot enforces the minimum delay between the start of two
// consecutive transfers, independent of the concurrency limit.
func (s *Scheduler) waitForStartSlot(ctx context.Context) {
	delay := s.cfg.Downloads.StartDelay()
	for {
		s.mu.Lock()
		now := time.Now()
		wait := time.Duration(0)
		if !s.lastStart.IsZero() {
			wait = s.lastStart.Add(delay).Sub(now)
		}
		if wait <= 0 {
			s.lastStart = now
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *Scheduler) runTransfer(ctx context.Context, feed config.Feed, item *ledger.QueueItem) {
	log := s.logger.With(
		logging.String(logging.FieldFeed, item.Feed),
		logging.String(logging.FieldVideoID, item.VideoID),
	)
	log.Info("download started", logging.String("title", item.Title))
	s.publish(item, ledger.StatusDownloading, 0, "")
	if err := s.store.RecordActivity(ctx, item.Feed, ledger.EventDownloadStarted, fmt.Sprintf("downloading %q", item.Title)); err != nil {
		log.Warn("record activity", logging.Error(err))
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.cfg.Downloads.Timeout())
	defer cancel()

	quality := feed.AudioQuality
	if quality == "" {
		quality = s.cfg.Downloads.AudioQuality
	}
	extension := "mp3"
	if len(feed.FileExtensions) > 0 {
		extension = feed.FileExtensions[0]
	}

	result, err := s.engine.Download(transferCtx, transfer.Request{
		VideoID:      item.VideoID,
		Title:        item.Title,
		TargetDir:    feed.Directory,
		AudioQuality: quality,
		Extension:    extension,
	}, func(percent float64) {
		s.publish(item, ledger.StatusDownloading, percent, "")
		if err := s.store.SetProgress(ctx, item.Feed, item.VideoID, percent); err != nil {
			log.Debug("set progress", logging.Error(err))
		}
	})
	if err != nil {
		message := err.Error()
		if services.IsTimeout(err) {
			message = fmt.Sprintf("timed out after %s", s.cfg.Downloads.Timeout())
		}
		s.failItem(item, message)
		log.Error("download failed", logging.Error(err))
		return
	}

	err = s.store.CompleteDownload(ctx, item.Feed, s.enrichedUpsert(ctx, item, result.Filename, log))
	if err != nil {
		// A concurrent writer already recorded this video; the file is in
		// place, so the item still completes.
		if services.IsValidation(err) {
			if markErr := s.store.MarkCompleted(ctx, item.Feed, item.VideoID); markErr != nil {
				log.Warn("mark completed", logging.Error(markErr))
			}
		} else {
			s.failItem(item, err.Error())
			log.Error("persist download", logging.Error(err))
			return
		}
	}

	s.publish(item, ledger.StatusCompleted, 100, "")
	log.Info("download completed", logging.String(logging.FieldFilename, result.Filename))
	if err := s.store.RecordActivity(ctx, item.Feed, ledger.EventDownloadCompleted, fmt.Sprintf("downloaded %q", result.Filename)); err != nil {
		log.Warn("record activity", logging.Error(err))
	}
}

// enrichedUpsert resolves the episode record for a finished download.
// When a metadata fetcher is available the video is resolved for its
// description, thumbnail, and publish date; a fetch failure degrades to
// the enqueue-time title rather than blocking completion.
func (s *Scheduler) enrichedUpsert(ctx context.Context, item *ledger.QueueItem, filename string, log *slog.Logger) ledger.EpisodeUpsert {
	up := ledger.EpisodeUpsert{
		Filename:    filename,
		VideoID:     item.VideoID,
		RemoteTitle: item.Title,
		MatchScore:  1,
	}
	if s.metadata == nil {
		return up
	}
	metaCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	entry, err := s.metadata.Metadata(metaCtx, item.VideoID)
	if err != nil {
		log.Warn("fetch video metadata", logging.Error(err))
		return up
	}
	if entry.Title != "" {
		up.RemoteTitle = entry.Title
	}
	up.Description = entry.Description
	up.ThumbnailURL = entry.ThumbnailURL
	up.PublishDate = entry.UploadDate
	return up
}

// failItem records a terminal failure. The writes run on a fresh
// context so a download cancelled by shutdown still lands in the
// failed state instead of lingering as downloading.
func (s *Scheduler) failItem(item *ledger.QueueItem, message string) {
	ctx := context.Background()
	if err := s.store.MarkFailed(ctx, item.Feed, item.VideoID, message); err != nil {
		s.logger.Warn("mark failed", logging.Error(err))
	}
	s.publish(item, ledger.StatusFailed, 0, message)
	if err := s.store.RecordActivity(ctx, item.Feed, ledger.EventDownloadFailed, fmt.Sprintf("%q: %s", item.Title, message)); err != nil {
		s.logger.Warn("record activity", logging.Error(err))
	}
}

func (s *Scheduler) publish(item *ledger.QueueItem, status ledger.Status, percent float64, message string) {
	s.hub.Publish(Event{
		Feed:    item.Feed,
		VideoID: item.VideoID,
		Title:   item.Title,
		Status:  status,
		Percent: percent,
		Message: message,
	})
}
