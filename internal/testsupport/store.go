package testsupport

import (
	"context"
	"testing"

	"castsync/internal/config"
	"castsync/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue queues a download for tests using the provided store.
func MustEnqueue(t testing.TB, store *ledger.Store, feed, videoID, title string) *ledger.QueueItem {
	t.Helper()

	item, err := store.Enqueue(context.Background(), feed, videoID, title)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
