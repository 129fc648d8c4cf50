// Package matcher assigns playlist entries to local filenames (or one set
// of filenames to another) using fuzzy similarity scoring with greedy
// one-to-one assignment.
package matcher

import (
	"sort"

	"castsync/internal/similarity"
)

const (
	// DefaultDuplicateThreshold gates duplicate and download-skip
	// decisions: two names this close are the same episode.
	DefaultDuplicateThreshold = 0.80

	// DefaultLinkThreshold gates linking playlist metadata onto a file
	// that is already known to be present. Titles and filenames diverge
	// more than two filenames do, so the bar is lower.
	DefaultLinkThreshold = 0.60

	// scoreEpsilon is the margin under which two candidate scores are
	// considered tied and length/lexical tie-breaks apply.
	scoreEpsilon = 1e-3
)

// Options controls scoring and acceptance.
type Options struct {
	// Threshold is the minimum accepted score. Zero means accept any
	// positive score (used by the offline batch tool, which reports
	// confidence instead of filtering).
	Threshold float64

	// ChannelSuffix, when set, is stripped from the end of reference
	// titles before scoring ("Episode | SHOW NAME" -> "Episode").
	ChannelSuffix string
}

// Match records one accepted reference-to-candidate pairing.
type Match struct {
	Reference int // index into the references slice
	Candidate int // index into the candidates slice
	Score     float64
}

type scored struct {
	ref       int
	cand      int
	score     float64
	lengthGap int
	candName  string
}

// Score computes the similarity between a reference title and a candidate
// name after suffix stripping and normalization. A part-number conflict
// vetoes the pair outright and yields 0.
func Score(reference, candidate string, opts Options) float64 {
	ref := similarity.NormalizeTitle(reference, opts.ChannelSuffix)
	cand := similarity.Normalize(candidate)
	if similarity.PartsConflict(ref, cand) {
		return 0
	}
	return similarity.Ratio(ref, cand)
}

// Assign produces a best-effort one-to-one assignment of references to
// candidates. Pairs are accepted greedily in descending score order, so a
// candidate is consumed by at most one reference per pass. Ties within
// scoreEpsilon prefer the candidate whose length is closest to the
// reference, then the lexically smaller candidate name, making the output
// deterministic.
func Assign(references, candidates []string, opts Options) []Match {
	if len(references) == 0 || len(candidates) == 0 {
		return nil
	}

	normRefs := make([]string, len(references))
	for i, r := range references {
		normRefs[i] = similarity.NormalizeTitle(r, opts.ChannelSuffix)
	}
	normCands := make([]string, len(candidates))
	for i, c := range candidates {
		normCands[i] = similarity.Normalize(c)
	}

	pairs := make([]scored, 0, len(references)*len(candidates))
	for ri, ref := range normRefs {
		refLen := len([]rune(ref))
		for ci, cand := range normCands {
			if similarity.PartsConflict(ref, cand) {
				continue
			}
			score := similarity.Ratio(ref, cand)
			if score <= 0 || score < opts.Threshold {
				continue
			}
			gap := len([]rune(cand)) - refLen
			if gap < 0 {
				gap = -gap
			}
			pairs = append(pairs, scored{ref: ri, cand: ci, score: score, lengthGap: gap, candName: cand})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if diff := a.score - b.score; diff > scoreEpsilon || diff < -scoreEpsilon {
			return a.score > b.score
		}
		if a.lengthGap != b.lengthGap {
			return a.lengthGap < b.lengthGap
		}
		if a.candName != b.candName {
			return a.candName < b.candName
		}
		if a.ref != b.ref {
			return a.ref < b.ref
		}
		return a.cand < b.cand
	})

	usedRefs := make(map[int]struct{}, len(references))
	usedCands := make(map[int]struct{}, len(candidates))
	matches := make([]Match, 0, min(len(references), len(candidates)))
	for _, p := range pairs {
		if _, ok := usedRefs[p.ref]; ok {
			continue
		}
		if _, ok := usedCands[p.cand]; ok {
			continue
		}
		usedRefs[p.ref] = struct{}{}
		usedCands[p.cand] = struct{}{}
		matches = append(matches, Match{Reference: p.ref, Candidate: p.cand, Score: p.score})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Reference < matches[j].Reference })
	return matches
}

// UnmatchedReferences returns the reference indices absent from matches.
func UnmatchedReferences(total int, matches []Match) []int {
	used := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		used[m.Reference] = struct{}{}
	}
	out := make([]int, 0, total-len(matches))
	for i := 0; i < total; i++ {
		if _, ok := used[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// UnmatchedCandidates returns the candidate indices absent from matches.
func UnmatchedCandidates(total int, matches []Match) []int {
	used := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		used[m.Candidate] = struct{}{}
	}
	out := make([]int, 0, total-len(matches))
	for i := 0; i < total; i++ {
		if _, ok := used[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}
