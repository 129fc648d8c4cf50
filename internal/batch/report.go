package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Default artifact names, kept stable so the modes compose without flags.
const (
	DefaultReportFile  = "matched_episodes.json"
	DefaultMappingFile = "episode_mapping.txt"
	DefaultScriptFile  = "rename_episodes.sh"
	DefaultMapFile     = "episode_order.txt"
)

// WriteReport saves the detailed match report as indented JSON.
func WriteReport(path string, entries []ReportEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadReport reads a match report written by WriteReport.
func LoadReport(path string) ([]ReportEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var entries []ReportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return entries, nil
}

// WriteMapping saves the human-readable pairing file.
func WriteMapping(path string, entries []ReportEntry) error {
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", entry.Order, entry.VideoTitle)
		fmt.Fprintf(&b, "   -> %s\n\n", entry.MatchedFilename)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// WriteMapFile saves the matched filenames in playlist order, one per
// line, for feed servers that read an explicit ordering file.
func WriteMapFile(path string, entries []ReportEntry) error {
	sorted := make([]ReportEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var b strings.Builder
	for _, entry := range sorted {
		b.WriteString(entry.MatchedFilename)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write map file: %w", err)
	}
	return nil
}
