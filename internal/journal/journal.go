package journal

import "github.com/starford/raido/internal/rewrite"

// Recorder defines the interface for run-history persistence.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Recorder interface {
	RecordRun(report *rewrite.Report) error
	RecentRuns(limit int) ([]RunRow, error)
	RunFiles(runID string) ([]FileRow, error)
	Close() error
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)
