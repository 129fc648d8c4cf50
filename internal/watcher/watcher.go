// Package watcher drives periodic reconciliation. Each enabled feed gets
// its own ticker loop at its configured poll interval; passes for one
// feed never overlap, while distinct feeds sync independently.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"castsync/internal/config"
	"castsync/internal/logging"
	"castsync/internal/reconciler"
	"castsync/internal/services"
)

// Watcher owns the per-feed sync loops.
type Watcher struct {
	cfg    *config.Config
	rec    *reconciler.Reconciler
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	triggers map[string]chan struct{}
}

// New constructs a watcher over the enabled feeds.
func New(cfg *config.Config, rec *reconciler.Reconciler, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		cfg:      cfg,
		rec:      rec,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		triggers: make(map[string]chan struct{}),
	}
}

// Start launches one loop per enabled feed. Each loop runs an immediate
// first pass, then ticks at the feed's poll interval.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	for _, feed := range w.cfg.EnabledFeeds() {
		trigger := make(chan struct{}, 1)
		w.triggers[feed.Name] = trigger
		w.wg.Add(1)
		go w.runLoop(runCtx, feed, trigger)
	}
}

// Stop cancels the loops and waits for in-flight passes to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	w.triggers = make(map[string]chan struct{})
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// TriggerSync requests an immediate pass for one feed, or for every feed
// when name is empty. A feed already mid-pass coalesces the request into
// its next run.
func (w *Watcher) TriggerSync(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return services.Wrap(services.ErrConfiguration, "watcher", "trigger sync", "watcher not running", nil)
	}
	if name == "" {
		for _, trigger := range w.triggers {
			requestSync(trigger)
		}
		return nil
	}
	trigger, ok := w.triggers[name]
	if !ok {
		return services.Wrap(services.ErrNotFound, "watcher", "trigger sync", "unknown feed "+name, nil)
	}
	requestSync(trigger)
	return nil
}

// Running reports whether the loops are active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// FeedState exposes the reconciler's current state for a feed.
func (w *Watcher) FeedState(name string) reconciler.State {
	return w.rec.FeedState(name)
}

func requestSync(trigger chan struct{}) {
	select {
	case trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) runLoop(ctx context.Context, feed config.Feed, trigger chan struct{}) {
	defer w.wg.Done()

	log := w.logger.With(logging.String(logging.FieldFeed, feed.Name))
	interval := feed.PollInterval()
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runOnce(ctx, feed, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx, feed, log)
		case <-trigger:
			w.runOnce(ctx, feed, log)
			ticker.Reset(interval)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, feed config.Feed, log *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.rec.RunPass(ctx, feed); err != nil {
		// The pass already recorded its own failure; the loop stays alive
		// for the next tick.
		log.Debug("pass error", logging.Error(err))
	}
}
