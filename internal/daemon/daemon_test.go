package daemon_test

import (
	"context"
	"testing"

	"castsync/internal/daemon"
	"castsync/internal/playlist"
	"castsync/internal/testsupport"
	"castsync/internal/transfer"
)

type nopPlaylist struct{}

func (nopPlaylist) List(ctx context.Context, playlistURL string) ([]playlist.Entry, error) {
	return nil, nil
}

type nopEngine struct{}

func (nopEngine) Download(ctx context.Context, req transfer.Request, progress transfer.ProgressFunc) (transfer.Result, error) {
	return transfer.Result{Filename: req.VideoID + ".mp3"}, nil
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFeed("show", "https://example.test/playlist"))
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, nil, nopPlaylist{}, nopEngine{})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon not running after Start")
	}

	status, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || len(status.Feeds) != 1 || status.Feeds[0].Name != "show" {
		t.Fatalf("unexpected status: %+v", status)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon still running after Stop")
	}
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, nil, nopPlaylist{}, nopEngine{})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, nil, nopPlaylist{}, nopEngine{})
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance acquired the lock")
	}
}

func TestDaemonStartRequeuesInterruptedDownloads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "show", "vid-1", "Episode 1")
	if err := store.MarkDownloading(ctx, "show", "vid-1"); err != nil {
		t.Fatalf("MarkDownloading: %v", err)
	}

	d, err := daemon.New(cfg, store, nil, nopPlaylist{}, nopEngine{})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	item, err := store.QueueItemByVideo(ctx, "show", "vid-1")
	if err != nil {
		t.Fatalf("QueueItemByVideo: %v", err)
	}
	if item.StartedAt != nil {
		t.Fatalf("interrupted download not requeued: %+v", item)
	}
}
