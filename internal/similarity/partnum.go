package similarity

import (
	"regexp"
	"strconv"
	"strings"
)

var partWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var partPattern = regexp.MustCompile(`(?i)\b(?:part|pt)\.?\s*(one|two|three|four|five|six|seven|eight|nine|ten|\d+)\b`)

// ExtractPartNumber recognizes part markers such as "Part One", "Part 2",
// or "Pt. 3" anywhere in the text and returns the part as an integer.
// Returns ok == false when no part marker is present.
func ExtractPartNumber(text string) (int, bool) {
	m := partPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	token := strings.ToLower(m[1])
	if n, ok := partWords[token]; ok {
		return n, true
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PartsConflict reports whether two texts both carry part numbers that
// disagree. Titles that differ only in their part token are near-identical
// textually, so a raw similarity score cannot separate them; a conflict
// vetoes any match regardless of score.
func PartsConflict(a, b string) bool {
	pa, okA := ExtractPartNumber(a)
	if !okA {
		return false
	}
	pb, okB := ExtractPartNumber(b)
	if !okB {
		return false
	}
	return pa != pb
}
