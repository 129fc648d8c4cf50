package playlist

import "testing"

const sampleListing = `{
  "id": "PLtest",
  "title": "Night Stories",
  "channel": "Night Stories FM",
  "entries": [
    {
      "id": "vid-1",
      "title": "Episode One: The Beginning",
      "description": "First episode.",
      "upload_date": "20240105",
      "duration": 1800,
      "thumbnails": [
        {"url": "https://img.example/small.jpg", "width": 120, "height": 90},
        {"url": "https://img.example/large.jpg", "width": 1280, "height": 720}
      ]
    },
    {
      "id": "vid-2",
      "title": "Episode Two | Night Stories FM",
      "uploader": "Night Stories FM",
      "upload_date": "20240112"
    },
    {
      "id": "",
      "title": "deleted video"
    }
  ]
}`

func TestParseListing(t *testing.T) {
	entries, err := ParseListing([]byte(sampleListing))
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.VideoID != "vid-1" || first.Index != 0 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.ThumbnailURL != "https://img.example/large.jpg" {
		t.Fatalf("expected largest thumbnail, got %s", first.ThumbnailURL)
	}
	if first.Channel != "Night Stories FM" {
		t.Fatalf("channel fallback failed: %s", first.Channel)
	}

	second := entries[1]
	if second.Channel != "Night Stories FM" {
		t.Fatalf("uploader fallback failed: %s", second.Channel)
	}
	if second.Index != 1 {
		t.Fatalf("index should track playlist position, got %d", second.Index)
	}
}

func TestParseListingRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseListing([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

const sampleVideo = `{
  "id": "vid-1",
  "title": "Episode One: The Beginning",
  "description": "First episode, in full.",
  "uploader": "Night Stories FM",
  "upload_date": "20240105",
  "duration": 1800,
  "thumbnails": [
    {"url": "https://img.example/small.jpg", "width": 120, "height": 90},
    {"url": "https://img.example/large.jpg", "width": 1280, "height": 720}
  ]
}`

func TestParseVideo(t *testing.T) {
	entry, err := ParseVideo([]byte(sampleVideo))
	if err != nil {
		t.Fatalf("ParseVideo: %v", err)
	}
	if entry.VideoID != "vid-1" || entry.Title != "Episode One: The Beginning" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Description != "First episode, in full." || entry.UploadDate != "20240105" {
		t.Fatalf("metadata fields missing: %+v", entry)
	}
	if entry.ThumbnailURL != "https://img.example/large.jpg" {
		t.Fatalf("expected largest thumbnail, got %s", entry.ThumbnailURL)
	}
	if entry.Channel != "Night Stories FM" {
		t.Fatalf("uploader fallback failed: %s", entry.Channel)
	}
}

func TestParseVideoRequiresID(t *testing.T) {
	if _, err := ParseVideo([]byte(`{"title": "nameless"}`)); err == nil {
		t.Fatal("expected error for payload without id")
	}
}

func TestParseListingEmptyPlaylist(t *testing.T) {
	entries, err := ParseListing([]byte(`{"id": "PL", "entries": []}`))
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
