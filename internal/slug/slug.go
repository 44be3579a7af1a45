// Package slug derives URL-safe identifiers from document filenames.
package slug

import (
	"path/filepath"
	"regexp"
	"strings"

	goslug "github.com/goliatone/go-slug"
)

// datePrefixRe matches the YYYY-MM-DD- style prefix that dated post
// filenames carry. Any digit runs qualify; the match is best effort.
var datePrefixRe = regexp.MustCompile(`^[0-9]+-[0-9]+-[0-9]+-`)

// Derive computes a document's slug from its filename: the base name with the
// leading date prefix and the file extension stripped. Pure and deterministic.
// Filenames without a date prefix pass through unstripped.
func Derive(filename string) string {
	base := filepath.Base(filename)
	base = datePrefixRe.ReplaceAllString(base, "")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Normalize applies the canonical URL-safe normalization rules.
func Normalize(value string) (string, error) {
	return goslug.Normalize(value)
}

// IsValid reports whether value already satisfies the canonical slug rules.
func IsValid(value string) bool {
	return goslug.IsValid(value)
}
