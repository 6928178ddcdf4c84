package domain

import (
	"time"

	"github.com/strogmv/apiblocks/internal/runtime"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunPassed   RunStatus = "passed"
	RunFailed   RunStatus = "failed"
	RunErrored  RunStatus = "errored"
	RunCanceled RunStatus = "canceled"
)

// StatusFor maps a failure kind onto a run status. Assertion failures fail
// the run; every other kind is an error of the run itself.
func StatusFor(kind runtime.Kind) RunStatus {
	switch kind {
	case runtime.KindNone:
		return RunPassed
	case runtime.KindAssertionFailure:
		return RunFailed
	case runtime.KindCanceled:
		return RunCanceled
	default:
		return RunErrored
	}
}

// Run is the persisted record of one execution of a compiled program.
type Run struct {
	ID          string         `json:"id"`
	ProgramHash string         `json:"programHash"`
	ProgramName string         `json:"programName"`
	Status      RunStatus      `json:"status"`
	Failure     *RunFailure    `json:"failure,omitempty"`
	Steps       int            `json:"steps"`
	Lines       []runtime.Line `json:"lines"`
	Calls       []CallSummary  `json:"calls"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

type RunFailure struct {
	Kind    runtime.Kind `json:"kind"`
	Index   int          `json:"index"`
	BlockID string       `json:"blockId,omitempty"`
	Op      string       `json:"op,omitempty"`
	Message string       `json:"message"`
}

// CallSummary is one HTTP call made by a run.
type CallSummary struct {
	BlockID    string `json:"blockId"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     int    `json:"status,omitempty"`
	DurationMS int64  `json:"durationMs"`
	Curl       string `json:"curl"`
	Error      string `json:"error,omitempty"`
}
