package similarity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// punctuationFolder maps fullwidth punctuation, common in titles copied
// from video platforms, to the ASCII forms used in filenames.
var punctuationFolder = strings.NewReplacer(
	"：", ":", // ：
	"？", "?", // ？
	"｜", "|", // ｜
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize folds fullwidth punctuation to ASCII, lowercases the text,
// collapses whitespace runs to single spaces, and trims. It is total and
// idempotent: Normalize("") == "".
func Normalize(text string) string {
	text = punctuationFolder.Replace(text)
	text = lowerCaser.String(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// StripChannelSuffix removes a trailing "| <channel>" marker from a title.
// The channel comparison is case-insensitive and both ASCII and fullwidth
// pipe separators are recognized. Returns the input unchanged when no
// suffix is present or channel is empty.
func StripChannelSuffix(text, channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return text
	}
	trimmed := strings.TrimRight(text, " \t")
	if len(trimmed) <= len(channel) {
		return text
	}
	if !strings.EqualFold(trimmed[len(trimmed)-len(channel):], channel) {
		return text
	}
	rest := strings.TrimRight(trimmed[:len(trimmed)-len(channel)], " \t")
	if rest == "" {
		return text
	}
	sep, size := utf8.DecodeLastRuneInString(rest)
	if sep != '|' && sep != '｜' {
		return text
	}
	return strings.TrimRight(rest[:len(rest)-size], " \t")
}

// NormalizeTitle strips the channel suffix and then normalizes.
func NormalizeTitle(text, channel string) string {
	return Normalize(StripChannelSuffix(text, channel))
}
