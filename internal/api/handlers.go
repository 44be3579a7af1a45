package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/watch"
)

// StatsFunc supplies the current watch counters.
type StatsFunc func() watch.StatsSnapshot

// Handler holds status route handlers.
type Handler struct {
	root      string
	pattern   string
	startedAt time.Time
	stats     StatsFunc
	journal   journal.Recorder // nil when no journal is attached
}

// NewHandler creates a new Handler. rec may be nil.
func NewHandler(root, pattern string, stats StatsFunc, rec journal.Recorder) *Handler {
	return &Handler{
		root:      root,
		pattern:   pattern,
		startedAt: time.Now(),
		stats:     stats,
		journal:   rec,
	}
}

// Status handles GET /status.
//
//	@Summary		Current watch configuration and counters
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Root:          h.root,
		Pattern:       h.pattern,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Stats:         h.stats(),
	})
}

// Runs handles GET /runs.
//
//	@Summary		List recent journal runs, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum runs to return"
//	@Success		200		{object}	RunsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no journal attached"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.journal.RecentRuns(limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	resp := RunsResponse{Runs: make([]RunSummary, 0, len(rows))}
	for _, row := range rows {
		resp.Runs = append(resp.Runs, toRunSummary(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RunFiles handles GET /runs/{id}.
//
//	@Summary		Per-file outcomes of one run
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		string	true	"Run ID"
//	@Success		200	{object}	RunFilesResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id} [get]
func (h *Handler) RunFiles(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no journal attached"))
		return
	}
	runID := chi.URLParam(r, "id")
	rows, err := h.journal.RunFiles(runID)
	if err != nil {
		slog.Error("run files failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("run not found"))
		return
	}
	resp := RunFilesResponse{RunID: runID, Files: make([]RunFileItem, 0, len(rows))}
	for _, row := range rows {
		resp.Files = append(resp.Files, toRunFileItem(row))
	}
	writeJSON(w, http.StatusOK, resp)
}
