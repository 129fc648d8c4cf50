package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"castsync/internal/batch"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("output should mention target path: %q", output)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[downloads]") {
		t.Fatalf("sample config missing downloads section:\n%s", data)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestMatchRunProducesArtifacts(t *testing.T) {
	dir := t.TempDir()
	titlesPath := filepath.Join(dir, "titles.json")
	listingPath := filepath.Join(dir, "files.txt")
	reportPath := filepath.Join(dir, "report.json")
	mappingPath := filepath.Join(dir, "mapping.txt")

	titles := `["Episode One - The Start", "Episode Two - The Middle", "Private video"]`
	if err := os.WriteFile(titlesPath, []byte(titles), 0o644); err != nil {
		t.Fatal(err)
	}
	listing := "episode one the start.mp3\nepisode two the middle.mp3\n"
	if err := os.WriteFile(listingPath, []byte(listing), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, "match", "run", "--titles", titlesPath, "--files", listingPath,
		"--out", reportPath, "--map", mappingPath)
	if err != nil {
		t.Fatalf("match run: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Matched 2 of 2 titles") {
		t.Fatalf("unexpected summary: %q", output)
	}

	entries, err := batch.LoadReport(reportPath)
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if len(entries) != 2 || entries[0].MatchedFilename != "episode one the start.mp3" {
		t.Fatalf("unexpected report entries: %+v", entries)
	}

	mapping, err := os.ReadFile(mappingPath)
	if err != nil {
		t.Fatalf("read mapping: %v", err)
	}
	if !strings.Contains(string(mapping), "Episode One - The Start") {
		t.Fatalf("mapping missing title:\n%s", mapping)
	}
}

func TestMatchRenameDryRunLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")

	if err := os.WriteFile(filepath.Join(dir, "first.mp3"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries := []batch.ReportEntry{
		{Order: 1, VideoTitle: "First", MatchedFilename: "first.mp3", Score: 0.9},
	}
	if err := batch.WriteReport(reportPath, entries); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, "match", "rename", "--report", reportPath, "--dir", dir)
	if err != nil {
		t.Fatalf("match rename: %v\n%s", err, output)
	}
	if !strings.Contains(output, "dry-run: 1 renamed") {
		t.Fatalf("unexpected summary: %q", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "first.mp3")); err != nil {
		t.Fatalf("dry run must not rename: %v", err)
	}

	if _, err := runCommand(t, "match", "rename", "--report", reportPath, "--dir", dir, "--execute"); err != nil {
		t.Fatalf("match rename --execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "001_first.mp3")); err != nil {
		t.Fatalf("expected prefixed file after execute: %v", err)
	}
}

func TestMatchReverseInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode_order.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, "match", "reverse", path)
	if err != nil {
		t.Fatalf("match reverse: %v\n%s", err, output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "c\nb\na\n" {
		t.Fatalf("unexpected reversed content: %q", data)
	}
}
