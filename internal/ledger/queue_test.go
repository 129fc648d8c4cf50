package ledger_test

import (
	"context"
	"errors"
	"testing"

	"castsync/internal/ledger"
	"castsync/internal/services"
	"castsync/internal/testsupport"
)

func TestEnqueueDeduplicatesActiveItems(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")
	again, err := store.Enqueue(ctx, "show", "vid-1", "Episode 1")
	if err != nil {
		t.Fatalf("Enqueue duplicate: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("duplicate enqueue created new item: %d vs %d", again.ID, first.ID)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Queued != 1 || stats.Total() != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestEnqueueResetsFailedItem(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")
	if err := store.MarkDownloading(ctx, "show", "vid-1"); err != nil {
		t.Fatalf("MarkDownloading: %v", err)
	}
	if err := store.MarkFailed(ctx, "show", "vid-1", "network error"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	item, err := store.Enqueue(ctx, "show", "vid-1", "Episode 1")
	if err != nil {
		t.Fatalf("re-Enqueue: %v", err)
	}
	if item.Status != ledger.StatusQueued {
		t.Fatalf("expected queued, got %s", item.Status)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("error message survived requeue: %q", item.ErrorMessage)
	}
}

func TestQueueLifecycleTransitions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")

	if err := store.MarkDownloading(ctx, "show", "vid-1"); err != nil {
		t.Fatalf("MarkDownloading: %v", err)
	}
	if err := store.SetProgress(ctx, "show", "vid-1", 42.5); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}

	item, err := store.QueueItemByVideo(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("QueueItemByVideo: %v", err)
	}
	if item.Status != ledger.StatusDownloading || item.ProgressPercent != 42.5 {
		t.Fatalf("unexpected in-flight state: %+v", item)
	}
	if item.Attempts != 1 || item.StartedAt == nil {
		t.Fatalf("attempt tracking missing: %+v", item)
	}

	if err := store.CompleteDownload(ctx, "show", ledger.EpisodeUpsert{
		Filename: "episode-1.mp3", VideoID: "vid-1", RemoteTitle: "Episode 1", MatchScore: 1,
	}); err != nil {
		t.Fatalf("CompleteDownload: %v", err)
	}

	item, err = store.QueueItemByVideo(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("QueueItemByVideo after complete: %v", err)
	}
	if item.Status != ledger.StatusCompleted || item.ProgressPercent != 100 {
		t.Fatalf("unexpected completed state: %+v", item)
	}

	downloaded, err := store.IsDownloaded(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("IsDownloaded: %v", err)
	}
	if !downloaded {
		t.Fatal("download fact missing after CompleteDownload")
	}

	episode, err := store.EpisodeByFilename(ctx, "show", "episode-1.mp3")
	if err != nil {
		t.Fatalf("EpisodeByFilename: %v", err)
	}
	if episode == nil || episode.VideoID != "vid-1" {
		t.Fatalf("episode record missing after CompleteDownload: %+v", episode)
	}
}

func TestRecordDownloadIsWriteOnce(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.RecordDownload(ctx, "show", "vid-1", "a.mp3"); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}
	err := store.RecordDownload(ctx, "show", "vid-1", "b.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error on repeat download, got %v", err)
	}

	download, err := store.DownloadByVideo(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("DownloadByVideo: %v", err)
	}
	if download.Filename != "a.mp3" {
		t.Fatalf("original download record changed: %+v", download)
	}
}

func TestListQueueReturnsOldestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "First")
	testsupport.MustEnqueue(t, store, "show", "vid-2", "Second")

	items, err := store.ListQueue(ctx, "", ledger.StatusQueued)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 2 || items[0].VideoID != "vid-1" {
		t.Fatalf("expected oldest item first, got %+v", items)
	}
}

func TestResetStuckDownloads(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")
	if err := store.MarkDownloading(ctx, "show", "vid-1"); err != nil {
		t.Fatalf("MarkDownloading: %v", err)
	}
	if err := store.SetProgress(ctx, "show", "vid-1", 60); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}

	reset, err := store.ResetStuckDownloads(ctx)
	if err != nil {
		t.Fatalf("ResetStuckDownloads: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset item, got %d", reset)
	}

	item, err := store.QueueItemByVideo(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("QueueItemByVideo: %v", err)
	}
	if item.Status != ledger.StatusQueued || item.ProgressPercent != 0 || item.StartedAt != nil {
		t.Fatalf("stuck item not reset: %+v", item)
	}
}

func TestClearFailedRemovesOnlyFailed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Keep")
	testsupport.MustEnqueue(t, store, "show", "vid-2", "Drop")
	if err := store.MarkDownloading(ctx, "show", "vid-2"); err != nil {
		t.Fatalf("MarkDownloading: %v", err)
	}
	if err := store.MarkFailed(ctx, "show", "vid-2", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	removed, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	items, err := store.ListQueue(ctx, "")
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 1 || items[0].VideoID != "vid-1" {
		t.Fatalf("unexpected remaining queue: %+v", items)
	}
}

func TestListQueueFiltersByFeed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")
	testsupport.MustEnqueue(t, store, "other", "vid-2", "Elsewhere")
	testsupport.MustEnqueue(t, store, "show", "vid-3", "Episode 2")

	items, err := store.ListQueue(ctx, "show")
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items for feed, got %+v", items)
	}
	for _, item := range items {
		if item.Feed != "show" {
			t.Fatalf("foreign feed in result: %+v", item)
		}
	}

	scoped, err := store.ListQueue(ctx, "show", ledger.StatusQueued)
	if err != nil {
		t.Fatalf("ListQueue with status: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("feed plus status filter mismatch: %+v", scoped)
	}
}

func TestRecordActivityAndRecent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.RecordActivity(ctx, "show", ledger.EventSyncStarted, "sync started"); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := store.RecordActivity(ctx, "", ledger.EventDownloadCompleted, "fetched episode"); err != nil {
		t.Fatalf("RecordActivity daemon event: %v", err)
	}

	events, err := store.RecentActivity(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != ledger.EventDownloadCompleted {
		t.Fatalf("events not newest first: %+v", events[0])
	}
	if events[1].Feed != "show" {
		t.Fatalf("feed not recorded: %+v", events[1])
	}
}
