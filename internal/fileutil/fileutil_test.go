package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestListAudioFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp3"), "b")
	writeFile(t, filepath.Join(dir, "a.MP3"), "a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "c.m4a"), "c")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListAudioFiles(dir, []string{"mp3"})
	if err != nil {
		t.Fatalf("ListAudioFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Name != "a.MP3" || files[1].Name != "b.mp3" {
		t.Errorf("unexpected order: %v", files)
	}
}

func TestListAudioFilesMissingDir(t *testing.T) {
	files, err := ListAudioFiles(filepath.Join(t.TempDir(), "missing"), []string{"mp3"})
	if err != nil {
		t.Fatalf("ListAudioFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files, want 0", len(files))
	}
}

func TestStripExtension(t *testing.T) {
	tests := map[string]string{
		"Episode 001.mp3": "Episode 001",
		"no-extension":    "no-extension",
		"a.b.mp3":         "a.b",
	}
	for in, want := range tests {
		if got := StripExtension(in); got != want {
			t.Errorf("StripExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "dst.mp3")
	writeFile(t, src, "audio-bytes")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if FileExists(src) {
		t.Error("source still exists")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "audio-bytes" {
		t.Errorf("destination content = %q, err %v", data, err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("missing file reported as existing")
	}
	if FileExists(dir) {
		t.Error("directory reported as regular file")
	}
	path := filepath.Join(dir, "f")
	writeFile(t, path, "x")
	if !FileExists(path) {
		t.Error("existing file not reported")
	}
}
