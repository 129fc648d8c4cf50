package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"castsync/internal/fileutil"
)

// DefaultPadWidth is the zero-padding applied to order prefixes.
const DefaultPadWidth = 3

// RenameAction describes what one report entry would do on disk.
type RenameAction struct {
	Order   int
	OldName string
	NewName string
	Skipped bool
	Err     error
}

// RenameSummary totals the outcome of a rename run.
type RenameSummary struct {
	Renamed int
	Skipped int
	Errors  int
	Actions []RenameAction
}

func prefixPattern(padWidth int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^\d{%d}_`, padWidth))
}

// RenameFiles prefixes matched files in dir with their zero-padded order
// number. Files already carrying a prefix are skipped. With execute
// false nothing is touched and the summary previews the run.
func RenameFiles(entries []ReportEntry, dir string, padWidth int, execute bool) RenameSummary {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	prefixed := prefixPattern(padWidth)

	var summary RenameSummary
	for _, entry := range entries {
		action := RenameAction{Order: entry.Order, OldName: entry.MatchedFilename}
		if prefixed.MatchString(entry.MatchedFilename) {
			action.Skipped = true
			action.NewName = entry.MatchedFilename
			summary.Skipped++
			summary.Actions = append(summary.Actions, action)
			continue
		}

		action.NewName = fmt.Sprintf("%0*d_%s", padWidth, entry.Order, entry.MatchedFilename)
		oldPath := filepath.Join(dir, entry.MatchedFilename)
		newPath := filepath.Join(dir, action.NewName)

		if execute {
			if !fileutil.FileExists(oldPath) {
				action.Err = fmt.Errorf("source file not found: %s", oldPath)
				summary.Errors++
				summary.Actions = append(summary.Actions, action)
				continue
			}
			if err := fileutil.MoveFile(oldPath, newPath); err != nil {
				action.Err = err
				summary.Errors++
				summary.Actions = append(summary.Actions, action)
				continue
			}
		}
		summary.Renamed++
		summary.Actions = append(summary.Actions, action)
	}
	return summary
}

// GenerateScript renders the rename run as a bash script instead of
// executing it, so the moves can be reviewed and run elsewhere.
func GenerateScript(entries []ReportEntry, dir string, padWidth int) string {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	prefixed := prefixPattern(padWidth)

	lines := []string{"#!/bin/bash", "", "# Rename audio files with order prefix", ""}
	for _, entry := range entries {
		if prefixed.MatchString(entry.MatchedFilename) {
			lines = append(lines, fmt.Sprintf("# SKIP: %s (already has order prefix)", entry.MatchedFilename))
			continue
		}
		newName := fmt.Sprintf("%0*d_%s", padWidth, entry.Order, entry.MatchedFilename)
		src := shellQuote(filepath.Join(dir, entry.MatchedFilename))
		dst := shellQuote(filepath.Join(dir, newName))
		lines = append(lines, fmt.Sprintf("mv %s %s", src, dst))
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteScript saves the generated script with execute permission.
func WriteScript(path string, entries []ReportEntry, dir string, padWidth int) error {
	script := GenerateScript(entries, dir, padWidth)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
