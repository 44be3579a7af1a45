package journal

import (
	"fmt"
	"time"

	"github.com/starford/raido/internal/rewrite"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID         string
	Root       string
	Pattern    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Rewritten  int
	Unchanged  int
	Failed     int
}

// FileRow represents a row in the run_files table.
type FileRow struct {
	RunID          string
	Path           string
	Status         string
	Detail         string
	ChecksumBefore string
	ChecksumAfter  string
}

// RecordRun persists a run and its per-file outcomes within a transaction.
func (db *DB) RecordRun(report *rewrite.Report) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, root, pattern, dry_run, started_at, finished_at, rewritten, unchanged, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.RunID, report.Root, report.Pattern, report.DryRun,
		report.StartedAt, report.FinishedAt,
		report.Rewritten(), report.Unchanged(), report.Failed())
	if err != nil {
		return fmt.Errorf("journal: insert run: %w", err)
	}

	if len(report.Outcomes) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO run_files (run_id, path, status, detail, checksum_before, checksum_after)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("journal: prepare outcome insert: %w", err)
		}
		defer stmt.Close()
		for _, o := range report.Outcomes {
			if _, err := stmt.Exec(report.RunID, o.Path, string(o.Status), o.Detail, o.ChecksumBefore, o.ChecksumAfter); err != nil {
				return fmt.Errorf("journal: insert outcome: %w", err)
			}
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, root, pattern, dry_run, started_at, finished_at, rewritten, unchanged, failed
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Root, &r.Pattern, &r.DryRun, &r.StartedAt, &r.FinishedAt, &r.Rewritten, &r.Unchanged, &r.Failed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunFiles returns the per-file outcomes of one run in path order.
func (db *DB) RunFiles(runID string) ([]FileRow, error) {
	rows, err := db.conn.Query(`
		SELECT run_id, path, status, detail, checksum_before, checksum_after
		FROM run_files WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: run files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.RunID, &f.Path, &f.Status, &f.Detail, &f.ChecksumBefore, &f.ChecksumAfter); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
