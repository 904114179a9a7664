package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeWritten means the merged playlist replaced the local file.
	OutcomeWritten Outcome = "written"
	// OutcomeUnchanged means the merged playlist matched the local file byte for byte.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeDryRun means the merged playlist was computed but not written.
	OutcomeDryRun Outcome = "dry_run"
	// OutcomeFailed means the run aborted and the local file was left untouched.
	OutcomeFailed Outcome = "failed"
)

// Report accumulates the facts of one run.
type Report struct {
	ID         string
	DryRun     bool
	Outcome    Outcome
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time

	Upstream   int
	Local      int
	Discovered int
	Merged     int
	// Skipped counts metadata blocks that could not be resolved, across all parsed inputs.
	Skipped int

	Added     []string
	Updated   []string
	Preserved []string

	// Diff holds the line diff of a dry run.
	Diff string
}

func newReport(dryRun bool, now time.Time) *Report {
	return &Report{
		ID:        uuid.NewString(),
		DryRun:    dryRun,
		StartedAt: now,
		Added:     make([]string, 0),
		Updated:   make([]string, 0),
		Preserved: make([]string, 0),
	}
}

func (r *Report) finish(err error, now time.Time) {
	r.FinishedAt = now

	if err != nil {
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	}
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without error.
func (r *Report) Succeeded() bool {
	return r.Outcome != OutcomeFailed && !r.FinishedAt.IsZero()
}
