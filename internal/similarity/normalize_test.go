package similarity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase", "Episode ONE", "episode one"},
		{"collapse whitespace", "a   b\t c", "a b c"},
		{"trim", "  padded  ", "padded"},
		{"fullwidth colon", "Part One： The Start", "part one: the start"},
		{"fullwidth pipe", "Title ｜ extra", "title | extra"},
		{"fullwidth question", "Who？", "who?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Episode One: The Beginning",
		"  MIXED   Case ： title ",
		"already normalized",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestStripChannelSuffix(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		channel string
		want    string
	}{
		{"ascii pipe", "Episode One | SHOW NAME", "SHOW NAME", "Episode One"},
		{"case insensitive", "Episode One | show name", "SHOW NAME", "Episode One"},
		{"fullwidth pipe", "Episode One ｜ SHOW NAME", "SHOW NAME", "Episode One"},
		{"no suffix", "Episode One", "SHOW NAME", "Episode One"},
		{"suffix mid-title kept", "SHOW NAME | Episode One", "SHOW NAME", "SHOW NAME | Episode One"},
		{"empty channel", "Episode One | SHOW NAME", "", "Episode One | SHOW NAME"},
		{"channel only", "SHOW NAME", "SHOW NAME", "SHOW NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripChannelSuffix(tt.in, tt.channel); got != tt.want {
				t.Errorf("StripChannelSuffix(%q, %q) = %q, want %q", tt.in, tt.channel, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := NormalizeTitle("Episode  One ｜ SHOW NAME", "SHOW NAME")
	if got != "episode one" {
		t.Errorf("NormalizeTitle = %q, want %q", got, "episode one")
	}
}
