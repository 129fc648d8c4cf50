package batch

import (
	"fmt"
	"os"
	"strings"
)

// ReverseLines returns the lines of a list file in opposite order,
// dropping a single trailing empty line so the file round-trips cleanly.
func ReverseLines(lines []string) []string {
	reversed := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		reversed = append(reversed, lines[i])
	}
	return reversed
}

// ReverseFile rewrites a list file in the opposite order. When outputPath
// is empty the input is rewritten in place.
func ReverseFile(inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read list file: %w", err)
	}

	content := strings.TrimSuffix(string(data), "\n")
	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
	}
	reversed := ReverseLines(lines)

	target := outputPath
	if target == "" {
		target = inputPath
	}
	var b strings.Builder
	for _, line := range reversed {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(target, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("write list file: %w", err)
	}
	return len(reversed), nil
}
