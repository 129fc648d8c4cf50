package matcher

import (
	"testing"
)

func TestScoreAcceptsCloseTitles(t *testing.T) {
	got := Score("Episode One: The Beginning", "Episode 001 - The Beginning", Options{})
	if got < DefaultDuplicateThreshold {
		t.Errorf("Score = %v, want >= %v", got, DefaultDuplicateThreshold)
	}
}

func TestScoreRejectsDistantTitles(t *testing.T) {
	got := Score("Episode 1: The Beginning", "Episode 99 - The End", Options{})
	if got >= DefaultDuplicateThreshold {
		t.Errorf("Score = %v, want < %v", got, DefaultDuplicateThreshold)
	}
}

func TestScorePartNumberVeto(t *testing.T) {
	// Raw similarity of these two is far above the threshold; the part
	// tokens must veto the pair regardless.
	got := Score("The Rise of Somebody, Part One", "The Rise of Somebody, Part Two", Options{})
	if got != 0 {
		t.Errorf("Score = %v, want 0 for conflicting part numbers", got)
	}
}

func TestScoreStripsChannelSuffix(t *testing.T) {
	opts := Options{ChannelSuffix: "SHOW NAME"}
	with := Score("Episode One | SHOW NAME", "Episode One", opts)
	without := Score("Episode One", "Episode One", opts)
	if with != without {
		t.Errorf("suffix not stripped: %v vs %v", with, without)
	}
	if with != 1.0 {
		t.Errorf("Score = %v, want 1.0", with)
	}
}

func TestAssignOneToOne(t *testing.T) {
	refs := []string{
		"Episode One: The Beginning",
		"Episode Two: The Middle",
	}
	cands := []string{
		"Episode 002 - The Middle.mp3",
		"Episode 001 - The Beginning.mp3",
	}

	matches := Assign(refs, cands, Options{Threshold: DefaultLinkThreshold})
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Reference != 0 || matches[0].Candidate != 1 {
		t.Errorf("first match = %+v, want ref 0 -> cand 1", matches[0])
	}
	if matches[1].Reference != 1 || matches[1].Candidate != 0 {
		t.Errorf("second match = %+v, want ref 1 -> cand 0", matches[1])
	}
}

func TestAssignCandidateConsumedOnce(t *testing.T) {
	refs := []string{
		"Title, Part 1",
		"Title, Part 1 (rebroadcast)",
	}
	cands := []string{"Title, Part 1"}

	matches := Assign(refs, cands, Options{})
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Reference != 0 {
		t.Errorf("candidate bound to ref %d, want the higher-scoring ref 0", matches[0].Reference)
	}
}

func TestAssignPartNumbersNeverCross(t *testing.T) {
	refs := []string{"Saga of the Founder, Part One", "Saga of the Founder, Part Two"}
	cands := []string{"Saga of the Founder, Part Two", "Saga of the Founder, Part One"}

	matches := Assign(refs, cands, Options{Threshold: DefaultDuplicateThreshold})
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.Reference == 0 && m.Candidate != 1 {
			t.Errorf("Part One bound to %d, want candidate 1", m.Candidate)
		}
		if m.Reference == 1 && m.Candidate != 0 {
			t.Errorf("Part Two bound to %d, want candidate 0", m.Candidate)
		}
	}
}

func TestAssignThresholdFiltersWeakMatches(t *testing.T) {
	refs := []string{"Episode 1: The Beginning"}
	cands := []string{"Episode 99 - The End.mp3"}

	matches := Assign(refs, cands, Options{Threshold: DefaultDuplicateThreshold})
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}

	unmatched := UnmatchedReferences(len(refs), matches)
	if len(unmatched) != 1 || unmatched[0] != 0 {
		t.Errorf("UnmatchedReferences = %v, want [0]", unmatched)
	}
}

func TestAssignTieBreakDeterministic(t *testing.T) {
	// Both candidates score identically against the reference; the
	// lexically smaller name must win every time.
	refs := []string{"the show"}
	cands := []string{"the show b", "the show a"}

	for i := 0; i < 5; i++ {
		matches := Assign(refs, cands, Options{})
		if len(matches) != 1 {
			t.Fatalf("got %d matches, want 1", len(matches))
		}
		if matches[0].Candidate != 1 {
			t.Fatalf("tie-break chose candidate %d, want 1 (lexically smaller)", matches[0].Candidate)
		}
	}
}

func TestAssignTieBreakPrefersClosestLength(t *testing.T) {
	// Both candidates score exactly 0.5 against the reference
	// (LCS 3 of 12 total runes vs LCS 2 of 8); the shorter candidate
	// sits closer to the reference length and must win.
	refs := []string{"abcd"}
	cands := []string{"abcxxxxx", "abxy"}

	matches := Assign(refs, cands, Options{})
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Candidate != 1 {
		t.Errorf("chose candidate %d, want 1 (closest length)", matches[0].Candidate)
	}
}

func TestAssignEmptyInputs(t *testing.T) {
	if got := Assign(nil, []string{"a"}, Options{}); got != nil {
		t.Errorf("Assign(nil refs) = %v, want nil", got)
	}
	if got := Assign([]string{"a"}, nil, Options{}); got != nil {
		t.Errorf("Assign(nil cands) = %v, want nil", got)
	}
}

func TestUnmatchedCandidates(t *testing.T) {
	matches := []Match{{Reference: 0, Candidate: 2, Score: 1}}
	got := UnmatchedCandidates(3, matches)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("UnmatchedCandidates = %v, want [0 1]", got)
	}
}
