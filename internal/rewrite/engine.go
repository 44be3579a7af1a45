// Package rewrite implements the batch front-matter rewrite over a vault.
//
// A run enumerates matching documents in lexicographic path order, derives
// each document's slug from its filename, and splices builder-produced
// header lines immediately after the opening marker. Documents that
// already carry the target field are left untouched, so a run is
// idempotent. Per-file errors skip only that file; the batch continues.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/slug"
	"github.com/starford/raido/internal/storage"
)

// FieldBuilder maps a document slug to the literal header lines to insert.
// Builders must be pure: the same slug always yields the same lines.
type FieldBuilder func(slug string) []string

// Insertion pairs a field builder with the top-level key it establishes.
// The key drives the idempotence check.
type Insertion struct {
	Field string
	Build FieldBuilder
}

// Options tune a batch run.
type Options struct {
	Pattern       string // glob for candidate files, default "*.md"
	DryRun        bool   // report outcomes without writing anything
	Backup        bool   // copy originals to <path>.bak before overwriting
	NormalizeSlug bool   // normalize derived slugs before building fields
}

// Engine applies insertions across a vault.
type Engine struct {
	store  storage.Provider
	logger *slog.Logger
	opts   Options
}

// New creates an Engine over the given vault store.
func New(store storage.Provider, logger *slog.Logger, opts Options) *Engine {
	if opts.Pattern == "" {
		opts.Pattern = "*.md"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger, opts: opts}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// RewriteAll applies insertions to every matching document in the vault.
// Per-file errors are recorded on the report and do not stop the batch;
// only a failed enumeration or a canceled context aborts the run. The
// context is checked between files, never mid-write.
func (e *Engine) RewriteAll(ctx context.Context, insertions []Insertion) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Root:      e.store.Root(),
		Pattern:   e.opts.Pattern,
		DryRun:    e.opts.DryRun,
		StartedAt: time.Now().UTC(),
	}

	paths, err := e.store.List(e.opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rewrite: enumerate vault: %w", err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, fmt.Errorf("rewrite: run canceled: %w", err)
		}
		report.Outcomes = append(report.Outcomes, e.RewriteFile(ctx, path, insertions))
	}
	report.FinishedAt = time.Now().UTC()

	e.logger.Info("rewrite: run finished",
		slog.String("run_id", report.RunID),
		slog.Int("rewritten", report.Rewritten()),
		slog.Int("unchanged", report.Unchanged()),
		slog.Int("failed", report.Failed()),
	)
	return report, nil
}

// RewriteFile applies insertions to a single document. Watch mode and the
// MCP tools call this directly; RewriteAll calls it per enumerated path.
func (e *Engine) RewriteFile(ctx context.Context, path string, insertions []Insertion) Outcome {
	if err := ctx.Err(); err != nil {
		return e.fail(path, "", fmt.Errorf("canceled: %w", err))
	}

	data, err := e.store.Read(path)
	if err != nil {
		return e.fail(path, "", fmt.Errorf("read: %w", err))
	}
	before := checksum.Sum(data)

	doc, err := document.Parse(data)
	if err != nil {
		return e.fail(path, before, err)
	}

	s := slug.Derive(path)
	if e.opts.NormalizeSlug {
		normalized, err := slug.Normalize(s)
		if err != nil {
			return e.fail(path, before, fmt.Errorf("normalize slug %q: %w", s, err))
		}
		s = normalized
	}

	var insert []string
	var present []string
	for _, ins := range insertions {
		if doc.HasKey(ins.Field) {
			present = append(present, ins.Field)
			continue
		}
		insert = append(insert, ins.Build(s)...)
	}
	if len(insert) == 0 {
		detail := "nothing to insert"
		if len(present) > 0 {
			detail = strings.Join(present, ", ") + " present"
		}
		return Outcome{
			Path:           path,
			Status:         StatusUnchanged,
			Detail:         detail,
			ChecksumBefore: before,
			ChecksumAfter:  before,
		}
	}

	doc.InsertAfterMarker(insert)
	updated := doc.Bytes()
	after := checksum.Sum(updated)

	if !e.opts.DryRun {
		if e.opts.Backup {
			if err := e.store.Backup(path); err != nil {
				return e.fail(path, before, fmt.Errorf("backup: %w", err))
			}
		}
		if err := e.store.Write(path, updated); err != nil {
			return e.fail(path, before, fmt.Errorf("write: %w", err))
		}
	}

	e.logger.Debug("rewrite: document rewritten",
		slog.String("path", path),
		slog.String("slug", s),
		slog.Bool("dry_run", e.opts.DryRun),
	)
	return Outcome{
		Path:           path,
		Status:         StatusRewritten,
		Inserted:       insert,
		ChecksumBefore: before,
		ChecksumAfter:  after,
	}
}

func (e *Engine) fail(path, before string, err error) Outcome {
	e.logger.Debug("rewrite: document skipped",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	return Outcome{
		Path:           path,
		Status:         StatusFailed,
		Detail:         err.Error(),
		ChecksumBefore: before,
	}
}
