package domain

import (
	"time"

	"github.com/strogmv/apiblocks/internal/runtime"
)

type RunStarted struct {
	RunID       string    `json:"runId"`
	ProgramHash string    `json:"programHash"`
	ProgramName string    `json:"programName"`
	StartedAt   time.Time `json:"startedAt"`
}

type RunObserved struct {
	RunID string       `json:"runId"`
	Line  runtime.Line `json:"line"`
}

type RunFinished struct {
	RunID       string       `json:"runId"`
	ProgramHash string       `json:"programHash"`
	Status      RunStatus    `json:"status"`
	FailureKind runtime.Kind `json:"failureKind,omitempty"`
	DurationMS  int64        `json:"durationMs"`
}
