package variant

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
)

// Executor runs a single stage. Satisfied by stage.Executor; faked in
// tests.
type Executor interface {
	Execute(ctx context.Context, st spec.Stage, vctx stage.Context) (stage.Result, error)
}

// Runner drives one variant through its ordered stage list.
//
// Stage failures never escape: a hard failure terminates the variant as
// HARD_FAILED with its remaining stages unrecorded, a soft failure is
// recorded and the loop continues. Run-level cancellation lets the stage
// in flight finish under its own timeout, then records every not-yet-
// started stage as cancelled. The only errors Run returns are consistency
// violations, which must abort the whole orchestration.
type Runner struct {
	executor Executor
	bus      *event.Bus
	log      *logging.Logger
	runID    string
	workDir  string
}

// NewRunner creates a runner. workDir is the parent under which each
// variant gets its private scratch directory.
func NewRunner(executor Executor, bus *event.Bus, log *logging.Logger, runID, workDir string) *Runner {
	return &Runner{
		executor: executor,
		bus:      bus,
		log:      log,
		runID:    runID,
		workDir:  workDir,
	}
}

// Run executes the stage list for the given run. index is the variant's
// dispatch position, carried on the started event for display ordering.
func (r *Runner) Run(ctx context.Context, run *Run, stages []spec.Stage, index int) error {
	variantID := run.ID()
	log := r.log.WithVariant(variantID)

	if err := run.transition(StateRunning); err != nil {
		return err
	}
	r.bus.Publish(event.NewVariantStartedEvent(variantID, index, paramMap(run.Variant)))
	log.Info("variant started", "index", index, "stages", len(stages))

	vctx, err := r.prepareDirs(run.Variant)
	if err != nil {
		return err
	}

	// The stage in flight must finish cleanly even when the run is
	// cancelled, so it executes under a context detached from the run's
	// cancellation. Its own timeout still applies. Cancellation is
	// honored between stages.
	stageCtx := context.WithoutCancel(ctx)

	var hardFailed, softFailed, cancelled bool
	for i, st := range stages {
		if hardFailed {
			break
		}
		if ctx.Err() != nil {
			cancelled = true
			res := stage.Cancelled(st, time.Now())
			if err := run.appendResult(res); err != nil {
				return err
			}
			r.publishStageFinished(variantID, res)
			continue
		}

		r.bus.Publish(event.NewStageStartedEvent(variantID, st.Name, i, len(stages)))

		res, err := r.executor.Execute(stageCtx, st, vctx)
		if err != nil {
			return err
		}
		if err := run.appendResult(res); err != nil {
			return err
		}
		r.publishStageFinished(variantID, res)

		if res.Failed() {
			switch st.Policy {
			case spec.PolicyHard:
				hardFailed = true
				log.Warn("hard stage failure, aborting variant", "stage", st.Name)
			default:
				softFailed = true
				log.Warn("soft stage failure, continuing", "stage", st.Name)
			}
		}
	}

	final := StateSucceeded
	switch {
	case hardFailed:
		final = StateHardFailed
	case cancelled:
		final = StateCancelled
	case softFailed:
		final = StateSoftFailed
	}
	if err := run.transition(final); err != nil {
		return err
	}

	r.bus.Publish(event.NewVariantFinishedEvent(variantID, final.String(), run.Duration()))
	log.Info("variant finished", "state", final.String(), "duration", run.Duration().String())
	return nil
}

// prepareDirs creates the variant's scratch and output directories.
func (r *Runner) prepareDirs(v spec.Variant) (stage.Context, error) {
	scratch := filepath.Join(r.workDir, v.ID())
	out := filepath.Join(scratch, "outputs")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return stage.Context{}, errors.Wrap(err, "create variant scratch dir")
	}
	return stage.Context{
		RunID:      r.runID,
		Variant:    v,
		ScratchDir: scratch,
		OutputDir:  out,
	}, nil
}

func (r *Runner) publishStageFinished(variantID string, res stage.Result) {
	r.bus.Publish(event.NewStageFinishedEvent(
		variantID,
		res.Stage,
		event.StageStatus(res.Status),
		res.Policy.String(),
		res.ExitCode,
		len(res.Artifacts),
		res.Duration,
		res.Error,
	))
}

// paramMap flattens a variant's ordered params for event payloads.
func paramMap(v spec.Variant) map[string]string {
	m := make(map[string]string, len(v.Params))
	for _, p := range v.Params {
		m[p.Key] = p.Value
	}
	return m
}
