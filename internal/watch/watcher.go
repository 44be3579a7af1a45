// Package watch keeps a vault rewritten as documents change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/rewrite"
	"github.com/starford/raido/internal/storage"
)

// OutcomeCallback is called after each watcher-driven rewrite attempt.
type OutcomeCallback func(o rewrite.Outcome)

// StatsSnapshot is a point-in-time view of the watch counters.
type StatsSnapshot struct {
	Rewritten int `json:"rewritten"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Watcher rewrites matching documents as they are created or modified.
//
// A rewritten file re-triggers the watcher once; the second pass sees the
// field already present and records an unchanged outcome, so the loop
// terminates. Backup files and in-flight temp files are ignored.
type Watcher struct {
	engine     *rewrite.Engine
	store      storage.Provider
	insertions []rewrite.Insertion
	logger     *slog.Logger
	onOutcome  OutcomeCallback

	mu        sync.Mutex
	rewritten int
	unchanged int
	failed    int
}

// New creates a Watcher. cb may be nil.
func New(engine *rewrite.Engine, store storage.Provider, insertions []rewrite.Insertion, logger *slog.Logger, cb OutcomeCallback) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		engine:     engine,
		store:      store,
		insertions: insertions,
		logger:     logger,
		onOutcome:  cb,
	}
}

// Stats returns the current counters.
func (w *Watcher) Stats() StatsSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return StatsSnapshot{Rewritten: w.rewritten, Unchanged: w.unchanged, Failed: w.failed}
}

func (w *Watcher) record(o rewrite.Outcome) {
	w.mu.Lock()
	switch o.Status {
	case rewrite.StatusRewritten:
		w.rewritten++
	case rewrite.StatusUnchanged:
		w.unchanged++
	case rewrite.StatusFailed:
		w.failed++
	}
	w.mu.Unlock()

	if w.onOutcome != nil {
		w.onOutcome(o)
	}
}

// ignored filters out the files the rewrite pipeline itself produces.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".bak")
}

// Run starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. New directories created at
// runtime are automatically added to the watch list.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.store.Root()
	if err := addDirsRecursive(fw, root); err != nil {
		return err
	}

	pattern := w.engine.Options().Pattern
	w.logger.Info("watcher: started",
		slog.String("root", root),
		slog.String("pattern", pattern))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, absPath); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						w.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Rewrite any matching files already in the new directory.
					w.rewriteNewDir(ctx, root, absPath, pattern)
					continue
				}
			}

			if ignored(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !storage.Match(pattern, rel) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				o := w.engine.RewriteFile(ctx, rel, w.insertions)
				w.logger.Debug("watcher: processed",
					slog.String("path", rel),
					slog.String("status", string(o.Status)))
				w.record(o)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Nothing to undo; the tool holds no per-file state.
				w.logger.Debug("watcher: file gone", slog.String("path", rel))
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// rewriteNewDir rewrites any matching files found in a newly created
// directory, since their individual create events may have fired before
// the directory was watched.
func (w *Watcher) rewriteNewDir(ctx context.Context, root, dirPath, pattern string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || ignored(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !storage.Match(pattern, rel) {
			return nil
		}
		o := w.engine.RewriteFile(ctx, rel, w.insertions)
		w.logger.Debug("watcher: processed from new dir",
			slog.String("path", rel),
			slog.String("status", string(o.Status)))
		w.record(o)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
