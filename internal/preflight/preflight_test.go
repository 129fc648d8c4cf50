package preflight_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"castsync/internal/preflight"
)

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectory("Library", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %+v", dir, result)
	}

	missing := preflight.CheckDirectory("Library", filepath.Join(dir, "absent"))
	if missing.Passed {
		t.Fatalf("expected failure for missing directory: %+v", missing)
	}
	if !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", missing.Detail)
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	notDir := preflight.CheckDirectory("Library", file)
	if notDir.Passed || !strings.Contains(notDir.Detail, "not a directory") {
		t.Fatalf("expected not-a-directory failure: %+v", notDir)
	}
}

func TestCheckCommand(t *testing.T) {
	if result := preflight.CheckCommand("shell", "sh"); !result.Passed {
		t.Fatalf("sh should resolve on PATH: %+v", result)
	}
	if result := preflight.CheckCommand("bogus", "castsync-no-such-binary"); result.Passed {
		t.Fatalf("expected failure for unknown command: %+v", result)
	}
	if result := preflight.CheckCommand("empty", "  "); result.Passed {
		t.Fatalf("expected failure for blank command: %+v", result)
	}
}

func TestFailed(t *testing.T) {
	results := []preflight.Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false},
	}
	failed := preflight.Failed(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed set: %+v", failed)
	}
}
