// Package rules loads declarative front-matter migrations from YAML.
//
// A rule file names one or more header blocks to insert:
//
//	rules:
//	  - field: redirect_to
//	    lines:
//	      - "redirect_to:"
//	      - "  - https://example.com/{{slug}}"
//
// {{slug}} is the only template variable; builders stay pure functions of
// the document slug.
package rules

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/rewrite"
	"github.com/starford/raido/pkg/config"
)

// slugVar is the template placeholder replaced with the document slug.
const slugVar = "{{slug}}"

// DefaultField is the header key the builtin redirect rule establishes.
const DefaultField = "redirect_to"

// Rule declares one header block to insert.
type Rule struct {
	Field string   `yaml:"field"`
	Lines []string `yaml:"lines"`
}

// Validate validates a single rule. The first line must establish the
// declared field, otherwise the idempotence check would guard one key
// while the insertion introduces another.
func (r *Rule) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Field, validation.Required),
		validation.Field(&r.Lines, validation.Required),
	); err != nil {
		return err
	}
	prefix := r.Field + ":"
	if !strings.HasPrefix(r.Lines[0], prefix) {
		return fmt.Errorf("first line must start with %q, got %q", prefix, r.Lines[0])
	}
	return nil
}

// Insertion compiles the rule into the engine's form, expanding {{slug}}
// in every line.
func (r *Rule) Insertion() rewrite.Insertion {
	lines := make([]string, len(r.Lines))
	copy(lines, r.Lines)
	return rewrite.Insertion{
		Field: r.Field,
		Build: func(slug string) []string {
			out := make([]string, len(lines))
			for i, l := range lines {
				out[i] = strings.ReplaceAll(l, slugVar, slug)
			}
			return out
		},
	}
}

// Set is a validated collection of rules, applied in file order.
type Set struct {
	Rules []Rule `yaml:"rules"`
}

// Validate validates the set and every rule in it.
func (s *Set) Validate() error {
	if len(s.Rules) == 0 {
		return fmt.Errorf("no rules defined")
	}
	for i := range s.Rules {
		if err := s.Rules[i].Validate(); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, s.Rules[i].Field, err)
		}
	}
	return nil
}

// Insertions compiles every rule in order.
func (s *Set) Insertions() []rewrite.Insertion {
	out := make([]rewrite.Insertion, len(s.Rules))
	for i := range s.Rules {
		out[i] = s.Rules[i].Insertion()
	}
	return out
}

// Load reads and validates a rule file.
func Load(path string) (*Set, error) {
	var s Set
	if err := config.Load(path, &s); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return &s, nil
}

// Parse reads and validates an in-memory rule document. The MCP surface
// receives rule sets inline rather than as files.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := config.LoadBytes(data, &s); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return &s, nil
}

// Redirect returns the builtin rule: a redirect list entry pointing at
// baseURL/<slug>. An empty field defaults to redirect_to.
func Redirect(baseURL, field string) rewrite.Insertion {
	if field == "" {
		field = DefaultField
	}
	base := strings.TrimRight(baseURL, "/")
	return rewrite.Insertion{
		Field: field,
		Build: func(slug string) []string {
			return []string{field + ":", "  - " + base + "/" + slug}
		},
	}
}
