package batch

import (
	"castsync/internal/fileutil"
	"castsync/internal/matcher"
)

// LowConfidenceScore flags matches worth a manual look in the summary.
const LowConfidenceScore = 0.70

// ReportEntry is one accepted pairing in playlist order.
type ReportEntry struct {
	Order           int     `json:"order"`
	VideoTitle      string  `json:"videoTitle"`
	MatchedFilename string  `json:"matchedFilename"`
	Score           float64 `json:"score"`
	PlaylistIndex   int     `json:"playlistIndex"`
}

// Result carries the report plus everything that found no partner.
type Result struct {
	Entries         []ReportEntry
	UnmatchedTitles []string
	UnmatchedFiles  []string
}

// AverageScore returns the mean score across accepted matches.
func (r Result) AverageScore() float64 {
	if len(r.Entries) == 0 {
		return 0
	}
	total := 0.0
	for _, entry := range r.Entries {
		total += entry.Score
	}
	return total / float64(len(r.Entries))
}

// LowConfidence returns the accepted matches scoring under the
// confidence floor.
func (r Result) LowConfidence() []ReportEntry {
	var low []ReportEntry
	for _, entry := range r.Entries {
		if entry.Score < LowConfidenceScore {
			low = append(low, entry)
		}
	}
	return low
}

// MatchTitles pairs playlist titles with files. Every title takes its
// best available file (each file used at most once); threshold zero
// accepts any positive score, leaving confidence judgments to the
// report. Order numbers follow the playlist, starting at 1.
func MatchTitles(titles []string, files []ListedFile, opts matcher.Options) Result {
	stems := make([]string, len(files))
	for i, file := range files {
		stems[i] = fileutil.StripExtension(file.Name)
	}

	matches := matcher.Assign(titles, stems, opts)

	byTitle := make(map[int]matcher.Match, len(matches))
	usedFiles := make(map[int]struct{}, len(matches))
	for _, match := range matches {
		byTitle[match.Reference] = match
		usedFiles[match.Candidate] = struct{}{}
	}

	var result Result
	for i, title := range titles {
		match, ok := byTitle[i]
		if !ok {
			result.UnmatchedTitles = append(result.UnmatchedTitles, title)
			continue
		}
		result.Entries = append(result.Entries, ReportEntry{
			Order:           len(result.Entries) + 1,
			VideoTitle:      title,
			MatchedFilename: files[match.Candidate].Name,
			Score:           match.Score,
			PlaylistIndex:   i,
		})
	}
	for i, file := range files {
		if _, ok := usedFiles[i]; !ok {
			result.UnmatchedFiles = append(result.UnmatchedFiles, file.Name)
		}
	}
	return result
}
