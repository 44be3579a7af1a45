// Package inspect reports on the health of a vault without modifying it.
package inspect

import (
	"bytes"
	"context"
	"fmt"

	"github.com/adrg/frontmatter"

	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/slug"
	"github.com/starford/raido/internal/storage"
)

// Issue names one problem found in one document.
type Issue struct {
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

// Summary is the result of a vault inspection. Issues are documents a
// rewrite run would skip; Warnings are advisory (a derived slug that
// fails the canonical rules still produces a working redirect line).
type Summary struct {
	Total     int     `json:"total"`
	WithField int     `json:"with_field"`
	Missing   int     `json:"missing"`
	Issues    []Issue `json:"issues,omitempty"`
	Warnings  []Issue `json:"warnings,omitempty"`
}

// Clean reports whether the vault has no blocking issues.
func (s *Summary) Clean() bool {
	return len(s.Issues) == 0
}

// Vault parses every matching document, validates its front-matter YAML,
// and takes a census of the given field. The vault is never written to.
func Vault(ctx context.Context, store storage.Provider, pattern, field string) (*Summary, error) {
	paths, err := store.List(pattern)
	if err != nil {
		return nil, fmt.Errorf("inspect: enumerate vault: %w", err)
	}

	sum := &Summary{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("inspect: canceled: %w", err)
		}
		sum.Total++

		data, err := store.Read(path)
		if err != nil {
			sum.Issues = append(sum.Issues, Issue{Path: path, Problem: err.Error()})
			continue
		}
		doc, err := document.Parse(data)
		if err != nil {
			sum.Issues = append(sum.Issues, Issue{Path: path, Problem: err.Error()})
			continue
		}

		// The line scan above only checks shape; make sure the block is
		// also parseable YAML, since downstream site generators will
		// feed it to a real parser.
		var meta map[string]any
		if _, err := frontmatter.Parse(bytes.NewReader(data), &meta); err != nil {
			sum.Issues = append(sum.Issues, Issue{Path: path, Problem: fmt.Sprintf("invalid yaml: %v", err)})
		}

		if field != "" {
			if doc.HasKey(field) {
				sum.WithField++
			} else {
				sum.Missing++
			}
		}

		if s := slug.Derive(path); !slug.IsValid(s) {
			sum.Warnings = append(sum.Warnings, Issue{
				Path:    path,
				Problem: fmt.Sprintf("derived slug %q fails canonical slug rules", s),
			})
		}
	}
	return sum, nil
}

// DocumentReport describes a single parsed document.
type DocumentReport struct {
	Path             string   `json:"path"`
	Slug             string   `json:"slug"`
	SlugValid        bool     `json:"slug_valid"`
	Keys             []string `json:"keys"`
	Field            string   `json:"field,omitempty"`
	HasField         bool     `json:"has_field"`
	YAMLValid        bool     `json:"yaml_valid"`
	FrontMatterLines int      `json:"front_matter_lines"`
}

// Describe inspects one document's raw bytes.
func Describe(path string, data []byte, field string) (*DocumentReport, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("inspect: %s: %w", path, err)
	}

	var meta map[string]any
	_, yamlErr := frontmatter.Parse(bytes.NewReader(data), &meta)

	s := slug.Derive(path)
	report := &DocumentReport{
		Path:             path,
		Slug:             s,
		SlugValid:        slug.IsValid(s),
		Keys:             doc.Keys(),
		Field:            field,
		YAMLValid:        yamlErr == nil,
		FrontMatterLines: len(doc.FrontMatter()),
	}
	if field != "" {
		report.HasField = doc.HasKey(field)
	}
	return report, nil
}
