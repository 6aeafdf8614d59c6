// Package stage executes one pipeline stage as a subprocess and turns the
// outcome into data.
//
// A stage command never raises: whatever happens (non-zero exit, timeout,
// unstartable binary), the executor captures it in a Result and returns.
// The only errors Execute propagates are artifact-store consistency
// violations, which indicate a bug in the orchestration itself rather than
// a failing stage.
package stage

import (
	"time"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/spec"
)

// Status is the outcome of one stage execution.
type Status string

const (
	// StatusSucceeded means the command exited zero and declared outputs
	// were collected.
	StatusSucceeded Status = "succeeded"

	// StatusFailed means the command exited non-zero, timed out, or
	// could not start. The stage's failure policy decides what happens
	// to the rest of the variant.
	StatusFailed Status = "failed"

	// StatusCancelled means the stage never started because the run was
	// cancelled first.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result is the execution record of one stage within one variant.
// Failure is data: a failed command produces a Result, not an error.
type Result struct {
	Stage     string         `json:"stage"`
	Status    Status         `json:"status"`
	Policy    spec.Policy    `json:"policy"`
	ExitCode  int            `json:"exit_code"`
	Artifacts []artifact.Ref `json:"artifacts,omitempty"`
	Output    string         `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// Failed reports whether the stage failed.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Cancelled builds the result recorded for a stage that was skipped
// because the run was cancelled before it started.
func Cancelled(st spec.Stage, at time.Time) Result {
	return Result{
		Stage:     st.Name,
		Status:    StatusCancelled,
		Policy:    st.Policy,
		ExitCode:  -1,
		Error:     "stage skipped: run cancelled",
		StartedAt: at,
	}
}
