// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/inspect"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/render"
	"github.com/starford/raido/internal/rewrite"
	"github.com/starford/raido/internal/rules"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/watch"
)

func newApplication(opts ...Option) (*application, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.logger == nil {
		// Logs go to stderr; stdout carries the per-file report lines.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	slog.SetDefault(app.logger)

	return app, nil
}

// buildInsertions resolves the configured rule source. Returns an empty
// slice when no source is configured; callers that need one report the
// error so the MCP server can still accept rules inline per call.
func buildInsertions(cfg *Config) ([]rewrite.Insertion, error) {
	switch {
	case cfg.Rewrite.Rules != "":
		set, err := rules.Load(cfg.Rewrite.Rules)
		if err != nil {
			return nil, err
		}
		return set.Insertions(), nil
	case cfg.Rewrite.BaseURL != "":
		return []rewrite.Insertion{rules.Redirect(cfg.Rewrite.BaseURL, cfg.Rewrite.Field)}, nil
	default:
		return nil, nil
	}
}

func newEngine(app *application, store storage.Provider, dryRun bool) *rewrite.Engine {
	cfg := app.config
	return rewrite.New(store, app.logger, rewrite.Options{
		Pattern:       cfg.Vault.Pattern,
		DryRun:        dryRun,
		Backup:        cfg.Rewrite.Backup,
		NormalizeSlug: cfg.Rewrite.NormalizeSlugs,
	})
}

// RunBatch executes a single rewrite pass over the vault and prints the
// per-file report on stdout. With dryRun nothing is written; showDiff
// additionally prints the lines each document would receive.
func RunBatch(ctx context.Context, dryRun, showDiff bool, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	insertions, err := buildInsertions(cfg)
	if err != nil {
		return err
	}
	if len(insertions) == 0 {
		return fmt.Errorf("rewrite: a rule source is required: set base_url or rules")
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	engine := newEngine(app, store, dryRun)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("pattern", cfg.Vault.Pattern),
		slog.Bool("dry_run", dryRun),
		slog.String("log_level", cfg.App.LogLevel.String()))

	report, err := engine.RewriteAll(ctx, insertions)
	if err != nil {
		if report != nil && len(report.Outcomes) > 0 {
			printReport(app.stdout, report, showDiff)
		}
		return err
	}

	if cfg.Journal.Enabled() {
		if err := recordRun(cfg.Journal.Path, report); err != nil {
			logger.Warn("journal: record failed", slog.String("error", err.Error()))
		}
	}

	printReport(app.stdout, report, showDiff)

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(report.Outcomes))
	}
	return nil
}

func recordRun(path string, report *rewrite.Report) error {
	db, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.RecordRun(report)
}

// printReport writes the per-file lines, the failure block and the summary
// line. Output order follows the report, which follows the lexicographic
// file order of the run.
func printReport(w io.Writer, report *rewrite.Report, showDiff bool) {
	for _, o := range report.Outcomes {
		switch o.Status {
		case rewrite.StatusRewritten:
			if report.DryRun {
				fmt.Fprintf(w, "would rewrite %s\n", o.Path)
				if showDiff {
					for _, line := range o.Inserted {
						fmt.Fprintf(w, "  + %s\n", line)
					}
				}
			} else {
				fmt.Fprintf(w, "rewrote %s\n", o.Path)
			}
		case rewrite.StatusUnchanged:
			fmt.Fprintf(w, "unchanged %s (%s)\n", o.Path, o.Detail)
		}
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintln(w, "skipped with errors:")
		for _, o := range failures {
			fmt.Fprintf(w, "  %s: %s\n", o.Path, o.Detail)
		}
	}

	fmt.Fprintf(w, "%d rewritten, %d unchanged, %d failed (%d files)\n",
		report.Rewritten(), report.Unchanged(), report.Failed(), len(report.Outcomes))
}

// RunCheck inspects the vault without modifying anything: YAML validity,
// slug warnings and a field-presence census. Returns an error when any
// document has a blocking issue.
func RunCheck(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	sum, err := inspect.Vault(ctx, store, cfg.Vault.Pattern, cfg.Rewrite.Field)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "checked %d documents: %d with %s, %d missing\n",
		sum.Total, sum.WithField, cfg.Rewrite.Field, sum.Missing)
	if len(sum.Warnings) > 0 {
		fmt.Fprintln(app.stdout, "warnings:")
		for _, it := range sum.Warnings {
			fmt.Fprintf(app.stdout, "  %s: %s\n", it.Path, it.Problem)
		}
	}
	if len(sum.Issues) > 0 {
		fmt.Fprintln(app.stdout, "issues:")
		for _, it := range sum.Issues {
			fmt.Fprintf(app.stdout, "  %s: %s\n", it.Path, it.Problem)
		}
	}

	if !sum.Clean() {
		return fmt.Errorf("check: %d document(s) with issues", len(sum.Issues))
	}
	return nil
}

// RunWatch starts the continuous mode: an fsnotify watcher rewrites
// matching documents as they appear or change. With serveHTTP the status
// API and SSE event stream are served on the configured port.
func RunWatch(ctx context.Context, serveHTTP bool, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	insertions, err := buildInsertions(cfg)
	if err != nil {
		return err
	}
	if len(insertions) == 0 {
		return fmt.Errorf("rewrite: a rule source is required: set base_url or rules")
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	engine := newEngine(app, store, false)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("pattern", cfg.Vault.Pattern),
		slog.Bool("http", serveHTTP),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Journal is read by the status API and never written in watch mode;
	// per-event outcomes do not form runs.
	var rec journal.Recorder
	if cfg.Journal.Enabled() {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer db.Close()
		rec = db
	}

	var broker *sse.Broker
	var onOutcome watch.OutcomeCallback
	if serveHTTP {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
		onOutcome = func(o rewrite.Outcome) {
			broker.PublishOutcome(string(o.Status), o.Path)
		}
	}

	watcher := watch.New(engine, store, insertions, logger, onOutcome)

	// Signal shutdown must also stop the watcher, which only watches ctx.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gCtx)
	})

	var httpServer *http.Server
	if serveHTTP {
		handler := api.NewHandler(cfg.Vault.Path, cfg.Vault.Pattern, watcher.Stats, rec)
		apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

		// Build chi router.
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		// Health check endpoints (unauthenticated).
		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		// Mount API routes under /api.
		r.Mount("/api", apiRouter)

		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		if httpServer != nil {
			logger.Info("Shutting down server...")

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

// RunHistory prints recent journal runs, or the per-file outcomes of a
// single run when runID is non-empty.
func RunHistory(_ context.Context, runID string, limit int, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	if !cfg.Journal.Enabled() {
		return fmt.Errorf("journal: no journal configured")
	}
	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	if runID != "" {
		files, err := db.RunFiles(runID)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("journal: run %s not found", runID)
		}
		for _, f := range files {
			if f.Detail != "" {
				fmt.Fprintf(app.stdout, "%s %s (%s)\n", f.Status, f.Path, f.Detail)
			} else {
				fmt.Fprintf(app.stdout, "%s %s\n", f.Status, f.Path)
			}
		}
		return nil
	}

	runs, err := db.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(app.stdout, "no recorded runs")
		return nil
	}
	for _, run := range runs {
		mode := "apply"
		if run.DryRun {
			mode = "plan"
		}
		fmt.Fprintf(app.stdout, "%s  %s  %s  %d rewritten, %d unchanged, %d failed\n",
			run.ID, run.StartedAt.Format(time.RFC3339), mode,
			run.Rewritten, run.Unchanged, run.Failed)
	}
	return nil
}

// RunPreview renders one document's Markdown body to HTML on stdout.
func RunPreview(_ context.Context, path string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(app.config.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	data, err := store.Read(path)
	if err != nil {
		return err
	}
	doc, err := document.Parse(data)
	if err != nil {
		return fmt.Errorf("preview %s: %w", path, err)
	}

	html, err := render.Render([]byte(doc.Body()))
	if err != nil {
		return err
	}
	_, err = app.stdout.Write(html)
	return err
}

// RunMCP serves the MCP tools on stdio. Logs go to stderr so the protocol
// stream on stdout stays clean.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	// A configured rule source is optional here; the migration tools
	// accept rule sets inline per call.
	insertions, err := buildInsertions(cfg)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var rec journal.Recorder
	if cfg.Journal.Enabled() {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer db.Close()
		rec = db
	}

	srv := mcpserver.New(store, app.logger, rewrite.Options{
		Pattern:       cfg.Vault.Pattern,
		Backup:        cfg.Rewrite.Backup,
		NormalizeSlug: cfg.Rewrite.NormalizeSlugs,
	}, insertions, rec)

	app.logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
