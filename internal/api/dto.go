package api

import (
	"time"

	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/watch"
)

// StatusResponse describes the running watch.
type StatusResponse struct {
	Root          string              `json:"root"`
	Pattern       string              `json:"pattern"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Stats         watch.StatsSnapshot `json:"stats"`
}

// RunSummary is one journal run in a list response.
type RunSummary struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Pattern    string    `json:"pattern"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rewritten  int       `json:"rewritten"`
	Unchanged  int       `json:"unchanged"`
	Failed     int       `json:"failed"`
}

// RunsResponse wraps run listings.
type RunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunFileItem is one per-file outcome of a run.
type RunFileItem struct {
	Path           string `json:"path"`
	Status         string `json:"status"`
	Detail         string `json:"detail,omitempty"`
	ChecksumBefore string `json:"checksum_before,omitempty"`
	ChecksumAfter  string `json:"checksum_after,omitempty"`
}

// RunFilesResponse wraps a single run's outcomes.
type RunFilesResponse struct {
	RunID string        `json:"run_id"`
	Files []RunFileItem `json:"files"`
}

func toRunSummary(r journal.RunRow) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Root:       r.Root,
		Pattern:    r.Pattern,
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Rewritten:  r.Rewritten,
		Unchanged:  r.Unchanged,
		Failed:     r.Failed,
	}
}

func toRunFileItem(f journal.FileRow) RunFileItem {
	return RunFileItem{
		Path:           f.Path,
		Status:         f.Status,
		Detail:         f.Detail,
		ChecksumBefore: f.ChecksumBefore,
		ChecksumAfter:  f.ChecksumAfter,
	}
}
