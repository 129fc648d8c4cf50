package transfer

import (
	"regexp"
	"strconv"
	"strings"
)

// progressPattern matches yt-dlp's --newline progress output, e.g.
// "[download]  42.3% of 12.34MiB at 1.2MiB/s ETA 00:07".
var progressPattern = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)

// ParseProgressLine extracts the completion percentage from one line of
// yt-dlp output. It returns false for lines that carry no percentage.
func ParseProgressLine(line string) (float64, bool) {
	match := progressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}
