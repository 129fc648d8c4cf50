package ledger_test

import (
	"context"
	"errors"
	"testing"

	"castsync/internal/ledger"
	"castsync/internal/services"
	"castsync/internal/testsupport"
)

func TestUpsertEpisodePrependsNewRecords(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, up := range []ledger.EpisodeUpsert{
		{Filename: "oldest.mp3", VideoID: "vid-1", RemoteTitle: "Episode 1", MatchScore: 1},
		{Filename: "middle.mp3", VideoID: "vid-2", RemoteTitle: "Episode 2", MatchScore: 1},
		{Filename: "newest.mp3", VideoID: "vid-3", RemoteTitle: "Episode 3", MatchScore: 1},
	} {
		if err := store.UpsertEpisode(ctx, "show", up); err != nil {
			t.Fatalf("UpsertEpisode: %v", err)
		}
	}

	episodes, err := store.ListEpisodes(ctx, "show")
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(episodes))
	}
	want := []string{"newest.mp3", "middle.mp3", "oldest.mp3"}
	for i, episode := range episodes {
		if episode.Filename != want[i] {
			t.Errorf("position %d: got %s, want %s", i, episode.Filename, want[i])
		}
	}
}

func TestUpsertEpisodeKeepsStrongerMatch(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	strong := ledger.EpisodeUpsert{Filename: "ep.mp3", VideoID: "vid-1", RemoteTitle: "Strong", MatchScore: 0.95}
	if err := store.UpsertEpisode(ctx, "show", strong); err != nil {
		t.Fatalf("UpsertEpisode strong: %v", err)
	}

	weak := ledger.EpisodeUpsert{Filename: "ep.mp3", VideoID: "vid-2", RemoteTitle: "Weak", MatchScore: 0.70}
	if err := store.UpsertEpisode(ctx, "show", weak); err != nil {
		t.Fatalf("UpsertEpisode weak: %v", err)
	}

	episode, err := store.EpisodeByFilename(ctx, "show", "ep.mp3")
	if err != nil {
		t.Fatalf("EpisodeByFilename: %v", err)
	}
	if episode.VideoID != "vid-1" || episode.RemoteTitle != "Strong" {
		t.Fatalf("weaker match overwrote record: %+v", episode)
	}
}

func TestUpsertEpisodeRejectsDuplicateVideo(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := ledger.EpisodeUpsert{Filename: "a.mp3", VideoID: "vid-1", MatchScore: 1}
	if err := store.UpsertEpisode(ctx, "show", first); err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}

	dup := ledger.EpisodeUpsert{Filename: "b.mp3", VideoID: "vid-1", MatchScore: 1}
	err := store.UpsertEpisode(ctx, "show", dup)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if episode, _ := store.EpisodeByFilename(ctx, "show", "b.mp3"); episode != nil {
		t.Fatal("duplicate video claim created a record")
	}
}

func TestUpsertEpisodeAllowsSameVideoAcrossFeeds(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	up := ledger.EpisodeUpsert{Filename: "ep.mp3", VideoID: "vid-1", MatchScore: 1}
	if err := store.UpsertEpisode(ctx, "show-a", up); err != nil {
		t.Fatalf("UpsertEpisode show-a: %v", err)
	}
	if err := store.UpsertEpisode(ctx, "show-b", up); err != nil {
		t.Fatalf("UpsertEpisode show-b: %v", err)
	}
}

func TestApplyPlanIngestsFilesAfterKnownEpisodes(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	plan := ledger.Plan{
		Upserts: []ledger.EpisodeUpsert{
			{Filename: "matched.mp3", VideoID: "vid-1", RemoteTitle: "Matched", MatchScore: 0.9},
		},
		IngestFilenames: []string{"zeta.mp3", "alpha.mp3"},
		Synced:          true,
	}
	result, err := store.ApplyPlan(ctx, "show", plan)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	if result.EpisodesWritten != 1 || result.FilesIngested != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	episodes, err := store.ListEpisodes(ctx, "show")
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	var names []string
	for _, episode := range episodes {
		names = append(names, episode.Filename)
	}
	want := []string{"matched.mp3", "zeta.mp3", "alpha.mp3"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", names, want)
		}
	}
}

func TestApplyPlanSecondPassIsNoop(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	plan := ledger.Plan{
		Upserts: []ledger.EpisodeUpsert{
			{Filename: "ep.mp3", VideoID: "vid-1", RemoteTitle: "Episode", MatchScore: 0.9},
		},
		Links:           []ledger.Link{{VideoID: "vid-1", Filename: "ep.mp3"}},
		IngestFilenames: []string{"stray.mp3"},
		Synced:          true,
	}

	first, err := store.ApplyPlan(ctx, "show", plan)
	if err != nil {
		t.Fatalf("first ApplyPlan: %v", err)
	}
	if !first.Changed() {
		t.Fatal("first pass reported no changes")
	}

	second, err := store.ApplyPlan(ctx, "show", plan)
	if err != nil {
		t.Fatalf("second ApplyPlan: %v", err)
	}
	if second.Changed() {
		t.Fatalf("second pass mutated the ledger: %+v", second)
	}
}

func TestApplyPlanMarksFeedSynced(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.SetFeedError(ctx, "show", "boom"); err != nil {
		t.Fatalf("SetFeedError: %v", err)
	}
	if _, err := store.ApplyPlan(ctx, "show", ledger.Plan{Synced: true}); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	state, err := store.FeedStateFor(ctx, "show")
	if err != nil {
		t.Fatalf("FeedStateFor: %v", err)
	}
	if state == nil || state.LastSyncAt == nil {
		t.Fatal("feed sync time not recorded")
	}
	if state.LastError != "" {
		t.Fatalf("last error not cleared: %q", state.LastError)
	}
}
