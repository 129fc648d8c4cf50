package watcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"castsync/internal/config"
	"castsync/internal/playlist"
	"castsync/internal/reconciler"
	"castsync/internal/testsupport"
	"castsync/internal/watcher"
)

type countingPlaylist struct {
	mu    sync.Mutex
	calls int
}

func (c *countingPlaylist) List(ctx context.Context, playlistURL string) ([]playlist.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, nil
}

func (c *countingPlaylist) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newWatcher(t *testing.T, client playlist.Client) (*watcher.Watcher, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFeed("show", "https://example.test/playlist"))
	store := testsupport.MustOpenStore(t, cfg)
	matching := config.Matching{DuplicateThreshold: 0.80, LinkThreshold: 0.60}
	rec := reconciler.New(store, client, matching, nil)
	return watcher.New(cfg, rec, nil), cfg
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !condition() {
		select {
		case <-deadline:
			t.Fatal("condition not reached before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartRunsImmediatePass(t *testing.T) {
	client := &countingPlaylist{}
	w, _ := newWatcher(t, client)

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, 5*time.Second, func() bool { return client.count() >= 1 })
}

func TestTriggerSyncRunsExtraPass(t *testing.T) {
	client := &countingPlaylist{}
	w, _ := newWatcher(t, client)

	w.Start(context.Background())
	defer w.Stop()
	waitFor(t, 5*time.Second, func() bool { return client.count() >= 1 })

	if err := w.TriggerSync("show"); err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool { return client.count() >= 2 })
}

func TestTriggerSyncUnknownFeed(t *testing.T) {
	client := &countingPlaylist{}
	w, _ := newWatcher(t, client)

	w.Start(context.Background())
	defer w.Stop()

	if err := w.TriggerSync("no-such-feed"); err == nil {
		t.Fatal("expected error for unknown feed")
	}
}

func TestTriggerSyncWhenStopped(t *testing.T) {
	client := &countingPlaylist{}
	w, _ := newWatcher(t, client)

	if err := w.TriggerSync(""); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestStopWaitsForLoops(t *testing.T) {
	client := &countingPlaylist{}
	w, _ := newWatcher(t, client)

	w.Start(context.Background())
	waitFor(t, 5*time.Second, func() bool { return client.count() >= 1 })
	w.Stop()

	if w.Running() {
		t.Fatal("watcher still reports running after Stop")
	}
	settled := client.count()
	time.Sleep(50 * time.Millisecond)
	if client.count() != settled {
		t.Fatal("passes kept running after Stop")
	}
}
