package journal

import (
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/rewrite"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(id string) *rewrite.Report {
	started := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return &rewrite.Report{
		RunID:      id,
		Root:       "/vault",
		Pattern:    "*.md",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Outcomes: []rewrite.Outcome{
			{Path: "a.md", Status: rewrite.StatusRewritten, ChecksumBefore: "aaa", ChecksumAfter: "bbb"},
			{Path: "b.md", Status: rewrite.StatusUnchanged, Detail: "redirect_to present"},
			{Path: "c.md", Status: rewrite.StatusFailed, Detail: "document: first line is not the \"---\" marker"},
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM run_files`).Scan(&count); err != nil {
		t.Fatalf("run_files table missing: %v", err)
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	db := testDB(t)
	if err := db.RecordRun(sampleReport("run-1")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" || r.Root != "/vault" || r.Pattern != "*.md" {
		t.Errorf("run = %+v", r)
	}
	if r.Rewritten != 1 || r.Unchanged != 1 || r.Failed != 1 {
		t.Errorf("counters = %d/%d/%d", r.Rewritten, r.Unchanged, r.Failed)
	}

	files, err := db.RunFiles("run-1")
	if err != nil {
		t.Fatalf("RunFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3", len(files))
	}
	if files[0].Path != "a.md" || files[0].Status != "rewritten" || files[0].ChecksumAfter != "bbb" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[2].Path != "c.md" || files[2].Detail == "" {
		t.Errorf("files[2] = %+v", files[2])
	}
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	db := testDB(t)
	older := sampleReport("run-old")
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	if err := db.RecordRun(older); err != nil {
		t.Fatalf("RecordRun old: %v", err)
	}
	if err := db.RecordRun(sampleReport("run-new")); err != nil {
		t.Fatalf("RecordRun new: %v", err)
	}

	runs, err := db.RecentRuns(1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-new" {
		t.Errorf("runs = %+v, want only run-new", runs)
	}
}

func TestRunFiles_UnknownRun(t *testing.T) {
	db := testDB(t)
	files, err := db.RunFiles("missing")
	if err != nil {
		t.Fatalf("RunFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %+v, want empty", files)
	}
}
