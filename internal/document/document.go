// Package document models a text file with a delimited front-matter block.
//
// The rewrite contract is byte-faithful: every pre-existing line is preserved
// verbatim and in order, so the block is handled as a raw line sequence rather
// than a decoded YAML mapping. YAML-level validation lives in internal/inspect.
package document

import (
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// Marker is the front-matter delimiter line.
const Marker = "---"

// Document is a parsed front-matter file: the opening marker at line 0, the
// header lines, the closing marker, and the opaque body after it.
type Document struct {
	lines []string
	end   int // index of the closing marker line
}

// Parse splits raw bytes into lines and locates the front-matter block.
// The first line must be the marker and the block must be closed; otherwise
// the document is malformed and the returned error wraps
// apperr.ErrMalformedDocument.
func Parse(data []byte) (*Document, error) {
	lines := strings.Split(string(data), "\n")
	if !isMarker(lines[0]) {
		return nil, fmt.Errorf("document: first line is not the %q marker: %w", Marker, apperr.ErrMalformedDocument)
	}
	for i := 1; i < len(lines); i++ {
		if isMarker(lines[i]) {
			return &Document{lines: lines, end: i}, nil
		}
	}
	return nil, fmt.Errorf("document: unclosed front matter block: %w", apperr.ErrMalformedDocument)
}

// isMarker reports whether line is a delimiter. A single trailing \r is
// tolerated so CRLF files parse; content lines keep their bytes untouched.
func isMarker(line string) bool {
	return strings.TrimSuffix(line, "\r") == Marker
}

// HasKey reports whether the front-matter block contains a top-level key.
// The scan is shallow: a line inside the block starting with "key:" at
// column 0. Indented (nested) occurrences do not count.
func (d *Document) HasKey(key string) bool {
	prefix := key + ":"
	for _, line := range d.lines[1:d.end] {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Keys returns the top-level front-matter keys in order of appearance.
func (d *Document) Keys() []string {
	var out []string
	for _, line := range d.lines[1:d.end] {
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' || line[0] == '-' {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		out = append(out, strings.TrimSpace(line[:idx]))
	}
	return out
}

// InsertAfterMarker splices insert immediately after the opening marker, so
// the inserted lines become lines 1..len(insert). Every subsequent line keeps
// its content and relative order.
func (d *Document) InsertAfterMarker(insert []string) {
	if len(insert) == 0 {
		return
	}
	merged := make([]string, 0, len(d.lines)+len(insert))
	merged = append(merged, d.lines[0])
	merged = append(merged, insert...)
	merged = append(merged, d.lines[1:]...)
	d.lines = merged
	d.end += len(insert)
}

// FrontMatter returns a copy of the raw header lines between the markers.
func (d *Document) FrontMatter() []string {
	return append([]string(nil), d.lines[1:d.end]...)
}

// Body returns everything after the closing marker, joined back with \n.
func (d *Document) Body() string {
	if d.end+1 >= len(d.lines) {
		return ""
	}
	return strings.Join(d.lines[d.end+1:], "\n")
}

// Bytes re-serializes the document. Without insertions this round-trips the
// parsed input byte-for-byte.
func (d *Document) Bytes() []byte {
	return []byte(strings.Join(d.lines, "\n"))
}
