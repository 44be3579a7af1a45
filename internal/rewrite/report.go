package rewrite

import "time"

// Status classifies what happened to a single document.
type Status string

const (
	StatusRewritten Status = "rewritten"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Outcome records the result of processing one document.
type Outcome struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	// Detail carries the skip reason for unchanged documents and the
	// error text for failed ones.
	Detail string `json:"detail,omitempty"`
	// Inserted holds the header lines that were (or, on a dry run,
	// would be) spliced in.
	Inserted       []string `json:"inserted,omitempty"`
	ChecksumBefore string   `json:"checksum_before,omitempty"`
	ChecksumAfter  string   `json:"checksum_after,omitempty"`
}

// Report aggregates the outcomes of one batch run.
type Report struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	Pattern    string    `json:"pattern"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (r *Report) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Rewritten returns how many documents were rewritten.
func (r *Report) Rewritten() int { return r.count(StatusRewritten) }

// Unchanged returns how many documents already carried their fields.
func (r *Report) Unchanged() int { return r.count(StatusUnchanged) }

// Failed returns how many documents were skipped with an error.
func (r *Report) Failed() int { return r.count(StatusFailed) }

// Failures returns the failed outcomes in path order.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
