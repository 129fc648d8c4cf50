// Package batch implements the offline matching tool: it pairs a flat
// directory listing against a playlist title dump using the same scoring
// core as the daemon, then turns the resulting report into renames,
// shell scripts, or ordering map files.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// ListedFile is one audio file recovered from a directory listing.
type ListedFile struct {
	// Name is the bare filename.
	Name string
	// Path is the full path when the listing carried one, else the name.
	Path string
}

var listingPathPattern = regexp.MustCompile(`(?i)/\S.*\.(?:mp3|m4a|m4b|ogg|opus|flac|wav)\b`)

var audioExtPattern = regexp.MustCompile(`(?i)\.(?:mp3|m4a|m4b|ogg|opus|flac|wav)$`)

// ParseFileListing reads a directory listing, either ls -l style lines
// containing full paths (with backslash-escaped spaces) or one bare
// filename per line, and returns the audio files it names.
func ParseFileListing(r io.Reader) ([]ListedFile, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var files []ListedFile
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if match := listingPathPattern.FindString(line); match != "" {
			fullPath := strings.ReplaceAll(match, `\`, "")
			files = append(files, ListedFile{Name: path.Base(fullPath), Path: fullPath})
			continue
		}
		if audioExtPattern.MatchString(line) {
			files = append(files, ListedFile{Name: path.Base(line), Path: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	return files, nil
}

// ParsePlaylistTitles reads a JSON array of title strings. Entries named
// "Private video" or "Deleted video" are dropped, matching what playlist
// dumps contain for unavailable items.
func ParsePlaylistTitles(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode playlist json: %w", err)
	}

	titles := make([]string, 0, len(raw))
	for _, title := range raw {
		title = strings.TrimSpace(title)
		if title == "" || title == "Private video" || title == "Deleted video" {
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}
