// Package variant holds the execution record of one pipeline variant and
// the runner that drives it through its stages.
//
// A Run is single-writer by construction: only the runner that owns it
// appends results and advances its state, and the mutating methods are
// unexported so no other package can touch a run mid-flight. Once a run
// reaches a terminal state it is frozen; any further mutation attempt is
// a consistency violation, not an error to handle.
package variant

import (
	"time"

	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
)

// State is a variant run's position in its lifecycle.
//
// Transitions are monotone:
//
//	PENDING → RUNNING → {SUCCEEDED, SOFT_FAILED, HARD_FAILED, CANCELLED}
//	PENDING → CANCELLED
//
// Terminal states never change.
type State string

const (
	// StatePending means the variant has been created but not dispatched.
	StatePending State = "PENDING"

	// StateRunning means the variant's stages are executing.
	StateRunning State = "RUNNING"

	// StateSucceeded means every stage succeeded.
	StateSucceeded State = "SUCCEEDED"

	// StateSoftFailed means at least one soft-policy stage failed and no
	// hard-policy stage did. The variant ran to the end of its stage list.
	StateSoftFailed State = "SOFT_FAILED"

	// StateHardFailed means a hard-policy stage failed, aborting the
	// variant's remaining stages.
	StateHardFailed State = "HARD_FAILED"

	// StateCancelled means the run was cancelled before the variant
	// finished; stages that never started are recorded as cancelled.
	StateCancelled State = "CANCELLED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateSoftFailed, StateHardFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// allowedTransition validates a single state machine step.
func allowedTransition(from, to State) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateCancelled
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// Run is one variant's execution record: its config, the ordered results
// of the stages that ran, and its state. Runs are created by the
// orchestrator, mutated only by their own runner, and frozen once
// terminal.
type Run struct {
	Variant    spec.Variant   `json:"variant"`
	State      State          `json:"state"`
	Stages     []stage.Result `json:"stages"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// NewRun creates a pending run for the variant.
func NewRun(v spec.Variant) *Run {
	return &Run{Variant: v, State: StatePending}
}

// ID returns the variant's stable identifier.
func (r *Run) ID() string {
	return r.Variant.ID()
}

// Duration returns how long the run took, zero until it is terminal.
func (r *Run) Duration() time.Duration {
	if !r.State.Terminal() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result returns the recorded result for the named stage.
func (r *Run) Result(stageName string) (stage.Result, bool) {
	for _, res := range r.Stages {
		if res.Stage == stageName {
			return res, true
		}
	}
	return stage.Result{}, false
}

// transition advances the state machine. A step out of a terminal state
// or any other disallowed step is a consistency violation.
func (r *Run) transition(to State) error {
	if r.State.Terminal() {
		return errors.NewConsistencyError(
			"state change on terminal run ("+r.State.String()+" → "+to.String()+")",
			errors.ErrVariantTerminal).
			WithVariant(r.ID()).
			WithOp("transition")
	}
	if !allowedTransition(r.State, to) {
		return errors.NewConsistencyError(
			"disallowed state change ("+r.State.String()+" → "+to.String()+")",
			errors.ErrInvalidTransition).
			WithVariant(r.ID()).
			WithOp("transition")
	}

	r.State = to
	switch {
	case to == StateRunning:
		r.StartedAt = time.Now()
	case to.Terminal():
		r.FinishedAt = time.Now()
	}
	return nil
}

// appendResult records one stage result. Appending to a terminal run is
// a consistency violation.
func (r *Run) appendResult(res stage.Result) error {
	if r.State.Terminal() {
		return errors.NewConsistencyError(
			"stage result appended to terminal run", errors.ErrVariantTerminal).
			WithVariant(r.ID()).
			WithOp("append")
	}
	r.Stages = append(r.Stages, res)
	return nil
}
