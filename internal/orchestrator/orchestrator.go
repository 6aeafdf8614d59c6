// Package orchestrator runs one sweep end to end: it expands the
// pipeline's variants into run records, dispatches a runner per
// variant with bounded parallelism, gates on the completion barrier,
// and aggregates exactly one report once every variant is terminal.
//
// The barrier's release condition is "all terminal", never "all
// succeeded": hard failures, soft failures, and cancellations all
// count toward release, and the report is built whatever the mix.
// Only a consistency violation aborts the run before aggregation.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/report"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
	"github.com/sweeplab/sweep/internal/variant"
)

// DefaultMaxParallel bounds concurrently running variants when the
// configuration does not say otherwise.
const DefaultMaxParallel = 4

// Options configures one orchestration run.
type Options struct {
	// RunID identifies the run; generated when empty.
	RunID string

	// MaxParallel caps concurrently running variants. Zero or
	// negative falls back to DefaultMaxParallel.
	MaxParallel int

	// WorkDir is the scratch root holding per-variant stage
	// directories. Empty falls back to a run-scoped directory under
	// the system temp dir.
	WorkDir string

	// ManifestDir, when set, receives run.json after aggregation.
	ManifestDir string

	// SpecDigest is recorded in the manifest so an offline
	// re-aggregation can detect a mismatched spec file.
	SpecDigest string

	// Report configures aggregation. OrderBy is always taken from the
	// pipeline's order_by declaration; an empty Title falls back to
	// the pipeline name.
	Report report.Options

	// Executor overrides the stage executor. Tests use this to swap
	// in a fake; nil builds the real subprocess executor.
	Executor variant.Executor
}

// Outcome is the result of a completed orchestration run. Variant
// failures are data here, not errors.
type Outcome struct {
	RunID    string
	Runs     []*variant.Run // dispatch order
	Report   *report.Report
	Manifest *Manifest
	Duration time.Duration
}

// Success reports whether the run finished clean. Soft failures count
// as clean unless strict is set; hard failures and cancellations
// never do.
func (o *Outcome) Success(strict bool) bool {
	for _, run := range o.Runs {
		switch run.State {
		case variant.StateSucceeded:
		case variant.StateSoftFailed:
			if strict {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Orchestrator drives one run of one pipeline.
type Orchestrator struct {
	pipeline *spec.Pipeline
	store    artifact.Store
	bus      *event.Bus
	log      *logging.Logger
	opts     Options
}

// New creates an Orchestrator for a validated pipeline.
func New(p *spec.Pipeline, store artifact.Store, bus *event.Bus, log *logging.Logger, opts Options) *Orchestrator {
	if opts.RunID == "" {
		opts.RunID = "run-" + uuid.NewString()[:8]
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "sweep", opts.RunID)
	}
	opts.Report.OrderBy = p.OrderBy
	if opts.Report.Title == "" {
		opts.Report.Title = p.Name
	}
	return &Orchestrator{
		pipeline: p,
		store:    store,
		bus:      bus,
		log:      log,
		opts:     opts,
	}
}

// RunID returns the identifier the run will execute under.
func (o *Orchestrator) RunID() string {
	return o.opts.RunID
}

// Run executes every variant and returns the aggregated outcome.
//
// The returned error is reserved for orchestration-level failures:
// consistency violations escaping a runner, aggregation failures, and
// manifest IO. Cancelling ctx stops dispatch of further stages; each
// in-flight stage finishes on its own terms, the affected variants
// end CANCELLED, and the run still aggregates and returns normally.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	runID := o.opts.RunID
	log := o.log.WithRun(runID)

	log.Info("run starting",
		"pipeline", o.pipeline.Name,
		"variants", len(o.pipeline.Variants),
		"stages", len(o.pipeline.Stages),
		"max_parallel", o.opts.MaxParallel)
	o.bus.Publish(event.NewRunStartedEvent(runID, o.pipeline.Name, len(o.pipeline.Variants), o.opts.MaxParallel))

	runs := make([]*variant.Run, len(o.pipeline.Variants))
	ids := make([]string, len(o.pipeline.Variants))
	for i, v := range o.pipeline.Variants {
		runs[i] = variant.NewRun(v)
		ids[i] = runs[i].ID()
	}
	barrier := NewBarrier(ids)

	executor := o.opts.Executor
	if executor == nil {
		executor = stage.NewExecutor(o.store, log)
	}
	runner := variant.NewRunner(executor, o.bus, log, runID, o.opts.WorkDir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.MaxParallel)
	for i, run := range runs {
		g.Go(func() error {
			err := runner.Run(gctx, run, o.pipeline.Stages, i)
			if merr := barrier.Mark(run.ID()); err == nil {
				err = merr
			}
			return err
		})
	}

	// Every dispatch path marks the barrier, error or not, so release
	// is guaranteed once the goroutines drain; the wait must not be
	// interrupted by the same cancellation the runners are absorbing.
	if err := barrier.Wait(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	if err := g.Wait(); err != nil {
		log.Error("run aborted before aggregation", "error", err)
		return nil, err
	}

	succeeded, soft, hard, cancelled := countStates(runs)
	log.Info("all variants terminal",
		"succeeded", succeeded,
		"soft_failed", soft,
		"hard_failed", hard,
		"cancelled", cancelled)

	// The store is frozen now: every writer is terminal.
	agg := report.NewAggregator(o.store, log, o.opts.Report)
	rep, err := agg.Aggregate(runID, runs)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate run")
	}

	incomplete := 0
	for _, sec := range rep.Sections {
		if sec.Incomplete {
			incomplete++
		}
	}
	o.bus.Publish(event.NewReportReadyEvent(runID, len(rep.Rows), incomplete))

	duration := time.Since(start)
	o.bus.Publish(event.NewRunFinishedEvent(runID, succeeded, soft, hard, cancelled, duration))
	log.Info("run finished", "duration", duration)

	man := &Manifest{
		RunID:      runID,
		Pipeline:   o.pipeline.Name,
		SpecDigest: o.opts.SpecDigest,
		Report:     o.opts.Report,
		StartedAt:  start.UTC(),
		FinishedAt: start.Add(duration).UTC(),
		Runs:       runs,
	}
	if o.opts.ManifestDir != "" {
		if err := man.Write(o.opts.ManifestDir); err != nil {
			return nil, err
		}
	}

	return &Outcome{
		RunID:    runID,
		Runs:     runs,
		Report:   rep,
		Manifest: man,
		Duration: duration,
	}, nil
}

func countStates(runs []*variant.Run) (succeeded, soft, hard, cancelled int) {
	for _, run := range runs {
		switch run.State {
		case variant.StateSucceeded:
			succeeded++
		case variant.StateSoftFailed:
			soft++
		case variant.StateHardFailed:
			hard++
		case variant.StateCancelled:
			cancelled++
		}
	}
	return succeeded, soft, hard, cancelled
}
