// Package daemon ties the sync services together: the ledger store, the
// per-feed watcher loops, and the download scheduler, under a flock that
// enforces a single running instance per state directory.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"castsync/internal/config"
	"castsync/internal/ledger"
	"castsync/internal/logging"
	"castsync/internal/playlist"
	"castsync/internal/reconciler"
	"castsync/internal/scheduler"
	"castsync/internal/transfer"
	"castsync/internal/watcher"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *ledger.Store

	rec     *reconciler.Reconciler
	watcher *watcher.Watcher
	sched   *scheduler.Scheduler

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// FeedStatus is the per-feed slice of a status report.
type FeedStatus struct {
	Name       string
	State      string
	Episodes   int
	LastSyncAt string
	LastError  string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	DBPath       string
	Queue        ledger.QueueStats
	Feeds        []FeedStatus
}

// New constructs a daemon with initialized dependencies. Passing a nil
// playlist client or transfer engine selects the yt-dlp defaults from the
// configuration.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, playlists playlist.Client, engine transfer.Engine) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if playlists == nil {
		playlists = playlist.NewYtdlpClient(cfg.Downloads.YtdlpPath)
	}
	if engine == nil {
		engine = &transfer.YtdlpEngine{
			Binary:     cfg.Downloads.YtdlpPath,
			StagingDir: cfg.Paths.StagingDir,
			Timeout:    cfg.Downloads.Timeout(),
		}
	}

	rec := reconciler.New(store, playlists, cfg.Matching, logger)
	metadata, _ := playlists.(playlist.MetadataFetcher)
	sched := scheduler.New(store, engine, cfg, scheduler.NewHub(), metadata, logger)
	w := watcher.New(cfg, rec, logger)

	lockPath := filepath.Join(cfg.Paths.StateDir, "castsync.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		rec:      rec,
		watcher:  w,
		sched:    sched,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, requeues downloads interrupted by a
// previous shutdown, and launches the watcher and scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another castsync daemon instance is already running")
	}

	reset, err := d.store.ResetStuckDownloads(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reset stuck downloads: %w", err)
	}
	if reset > 0 {
		d.logger.Info("requeued interrupted downloads", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.watcher.Start(runCtx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sched.Run(runCtx); err != nil {
			d.logger.Error("scheduler stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("castsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("castsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether background processing is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Hub exposes the scheduler's progress hub.
func (d *Daemon) Hub() *scheduler.Hub {
	return d.sched.Hub()
}

// TriggerSync requests an immediate pass for a feed, or all feeds when
// name is empty.
func (d *Daemon) TriggerSync(name string) error {
	return d.watcher.TriggerSync(name)
}

// Status assembles the runtime report served over IPC.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		DBPath:       d.store.Path(),
	}

	stats, err := d.store.Stats(ctx)
	if err != nil {
		return status, err
	}
	status.Queue = stats

	for _, feed := range d.cfg.EnabledFeeds() {
		fs := FeedStatus{
			Name:  feed.Name,
			State: string(d.rec.FeedState(feed.Name)),
		}
		if count, err := d.store.EpisodeCount(ctx, feed.Name); err == nil {
			fs.Episodes = count
		}
		if state, err := d.store.FeedStateFor(ctx, feed.Name); err == nil && state != nil {
			if state.LastSyncAt != nil {
				fs.LastSyncAt = state.LastSyncAt.Local().Format("2006-01-02 15:04:05")
			}
			fs.LastError = state.LastError
		}
		status.Feeds = append(status.Feeds, fs)
	}
	return status, nil
}

// ListEpisodes returns the ledger's view of one feed.
func (d *Daemon) ListEpisodes(ctx context.Context, feed string) ([]*ledger.Episode, error) {
	return d.store.ListEpisodes(ctx, feed)
}

// ListQueue returns queue items filtered by optional feed and statuses.
func (d *Daemon) ListQueue(ctx context.Context, feed string, statuses []ledger.Status) ([]*ledger.QueueItem, error) {
	return d.store.ListQueue(ctx, feed, statuses...)
}

// RecentActivity returns the newest activity log events.
func (d *Daemon) RecentActivity(ctx context.Context, feed string, limit int) ([]*ledger.Activity, error) {
	return d.store.RecentActivity(ctx, feed, limit)
}

// ClearCompleted removes completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}
