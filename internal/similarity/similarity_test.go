package similarity

import (
	"math"
	"testing"
)

func TestLCSLength(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"classic", "ABCD", "ACDE", 3},
		{"empty left", "", "x", 0},
		{"empty right", "x", "", 0},
		{"both empty", "", "", 0},
		{"identical", "episode", "episode", 7},
		{"disjoint", "abc", "xyz", 0},
		{"unicode", "héllo", "hèllo", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LCSLength(tt.a, tt.b); got != tt.want {
				t.Errorf("LCSLength(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioIdentity(t *testing.T) {
	for _, s := range []string{"a", "episode one", "Part Two: The Return"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"episode one the beginning", "episode 001 - the beginning"},
		{"abc", "xyz"},
		{"", "something"},
	}
	for _, p := range pairs {
		ab := Ratio(p[0], p[1])
		ba := Ratio(p[1], p[0])
		if ab != ba {
			t.Errorf("Ratio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatioEmpty(t *testing.T) {
	if got := Ratio("", "anything"); got != 0 {
		t.Errorf("Ratio(empty, x) = %v, want 0", got)
	}
	if got := Ratio("anything", ""); got != 0 {
		t.Errorf("Ratio(x, empty) = %v, want 0", got)
	}
}

func TestRatioBounds(t *testing.T) {
	a := "Episode One: The Beginning"
	b := "Episode 99 - The End"
	got := Ratio(a, b)
	if got < 0 || got > 1 {
		t.Fatalf("Ratio out of bounds: %v", got)
	}
}

func TestRatioCloseTitles(t *testing.T) {
	a := Normalize("Episode One: The Beginning")
	b := Normalize("Episode 001 - The Beginning")
	if got := Ratio(a, b); got < 0.80 {
		t.Errorf("Ratio(%q, %q) = %v, want >= 0.80", a, b, got)
	}
}

func TestRatioDistantTitles(t *testing.T) {
	a := Normalize("Episode 1: The Beginning")
	b := Normalize("Episode 99 - The End")
	if got := Ratio(a, b); got >= 0.80 {
		t.Errorf("Ratio(%q, %q) = %v, want < 0.80", a, b, got)
	}
}

func TestRatioKnownValue(t *testing.T) {
	// LCS("ABCD", "ACDE") = 3, so the ratio is 2*3/8.
	want := 0.75
	if got := Ratio("ABCD", "ACDE"); math.Abs(got-want) > 1e-9 {
		t.Errorf("Ratio(ABCD, ACDE) = %v, want %v", got, want)
	}
}
