package variant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
)

// fakeExecutor returns scripted results per stage and records the order
// stages were executed in.
type fakeExecutor struct {
	fail     map[string]bool  // stages that report failure
	errStage string           // stage whose execution raises an error
	err      error
	onStage  func(ctx context.Context, name string)
	executed []string
}

func (f *fakeExecutor) Execute(ctx context.Context, st spec.Stage, _ stage.Context) (stage.Result, error) {
	f.executed = append(f.executed, st.Name)
	if f.onStage != nil {
		f.onStage(ctx, st.Name)
	}
	if st.Name == f.errStage {
		return stage.Result{}, f.err
	}

	res := stage.Result{
		Stage:    st.Name,
		Status:   stage.StatusSucceeded,
		Policy:   st.Policy,
		Duration: time.Millisecond,
	}
	if f.fail[st.Name] {
		res.Status = stage.StatusFailed
		res.ExitCode = 1
		res.Error = "stage error [stage=" + st.Name + "]: command exited non-zero"
	}
	return res, nil
}

func hardStage(name string) spec.Stage {
	return spec.Stage{Name: name, Command: []string{"true"}, Policy: spec.PolicyHard}
}

func softStage(name string) spec.Stage {
	return spec.Stage{Name: name, Command: []string{"true"}, Policy: spec.PolicySoft}
}

func newTestRunner(t *testing.T, exec Executor, bus *event.Bus) *Runner {
	t.Helper()
	if bus == nil {
		bus = event.NewBus()
	}
	return NewRunner(exec, bus, logging.NopLogger(), "run-test", t.TempDir())
}

func TestRunnerAllSucceed(t *testing.T) {
	exec := &fakeExecutor{}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	stages := []spec.Stage{hardStage("poison"), hardStage("train"), softStage("validate")}
	if err := r.Run(context.Background(), run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateSucceeded {
		t.Errorf("State = %q, want SUCCEEDED", run.State)
	}
	want := []string{"poison", "train", "validate"}
	if diff := cmp.Diff(want, exec.executed); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
	if len(run.Stages) != 3 {
		t.Errorf("recorded %d results, want 3", len(run.Stages))
	}
}

func TestRunnerHardFailureAborts(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"train": true}}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	stages := []spec.Stage{hardStage("poison"), hardStage("train"), softStage("validate"), softStage("plots")}
	if err := r.Run(context.Background(), run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateHardFailed {
		t.Errorf("State = %q, want HARD_FAILED", run.State)
	}
	want := []string{"poison", "train"}
	if diff := cmp.Diff(want, exec.executed); diff != "" {
		t.Errorf("stages after a hard failure were executed (-want +got):\n%s", diff)
	}
	// Only executed stages are recorded; the aborted tail is absent.
	if len(run.Stages) != 2 {
		t.Errorf("recorded %d results, want 2", len(run.Stages))
	}
}

func TestRunnerSoftFailureContinues(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"validate": true}}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	stages := []spec.Stage{hardStage("train"), softStage("validate"), softStage("plots")}
	if err := r.Run(context.Background(), run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateSoftFailed {
		t.Errorf("State = %q, want SOFT_FAILED", run.State)
	}
	want := []string{"train", "validate", "plots"}
	if diff := cmp.Diff(want, exec.executed); diff != "" {
		t.Errorf("soft failure stopped the variant (-want +got):\n%s", diff)
	}

	res, ok := run.Result("validate")
	if !ok || !res.Failed() {
		t.Errorf("validate result = (%+v, %v), want recorded failure", res, ok)
	}
}

func TestRunnerHardBeatsSoft(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"validate": true, "train": true}}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	// validate soft-fails first, then train hard-fails.
	stages := []spec.Stage{softStage("validate"), hardStage("train"), softStage("plots")}
	if err := r.Run(context.Background(), run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateHardFailed {
		t.Errorf("State = %q, want HARD_FAILED", run.State)
	}
	if len(exec.executed) != 2 {
		t.Errorf("executed %v, want to stop after train", exec.executed)
	}
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	var inflightCtxErr error
	exec := &fakeExecutor{
		onStage: func(stageCtx context.Context, name string) {
			if name != "train" {
				return
			}
			close(started)
			<-release
			// The in-flight stage keeps a live context even though the
			// run has been cancelled by now.
			inflightCtxErr = stageCtx.Err()
		},
	}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	go func() {
		<-started
		cancel()
		close(release)
	}()

	stages := []spec.Stage{hardStage("poison"), hardStage("train"), softStage("validate"), softStage("plots")}
	if err := r.Run(ctx, run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateCancelled {
		t.Errorf("State = %q, want CANCELLED", run.State)
	}
	if inflightCtxErr != nil {
		t.Errorf("in-flight stage context was cancelled: %v", inflightCtxErr)
	}

	// poison and train ran, validate and plots were skipped as cancelled.
	want := []string{"poison", "train"}
	if diff := cmp.Diff(want, exec.executed); diff != "" {
		t.Errorf("executed stages mismatch (-want +got):\n%s", diff)
	}
	if len(run.Stages) != 4 {
		t.Fatalf("recorded %d results, want all 4", len(run.Stages))
	}
	for _, name := range []string{"validate", "plots"} {
		res, ok := run.Result(name)
		if !ok || res.Status != stage.StatusCancelled {
			t.Errorf("%s result = (%+v, %v), want cancelled", name, res, ok)
		}
	}
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	stages := []spec.Stage{hardStage("poison"), hardStage("train")}
	if err := r.Run(ctx, run, stages, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.State != StateCancelled {
		t.Errorf("State = %q, want CANCELLED", run.State)
	}
	if len(exec.executed) != 0 {
		t.Errorf("executed %v, want none", exec.executed)
	}
	if len(run.Stages) != 2 {
		t.Errorf("recorded %d results, want both stages cancelled", len(run.Stages))
	}
}

func TestRunnerConsistencyErrorEscapes(t *testing.T) {
	exec := &fakeExecutor{
		errStage: "train",
		err: errors.NewConsistencyError("double write", errors.ErrKeyConflict).
			WithVariant("sev-10").WithKey("metrics.json").WithOp("put"),
	}
	r := newTestRunner(t, exec, nil)
	run := NewRun(testVariant())

	err := r.Run(context.Background(), run, []spec.Stage{hardStage("train")}, 0)
	if err == nil {
		t.Fatal("consistency violation should escape")
	}
	if !errors.IsFatal(err) {
		t.Errorf("escaped error should be fatal, got %v", err)
	}
}

func TestRunnerEventSequence(t *testing.T) {
	bus := event.NewBus()
	var types []string
	bus.Subscribe("*", func(e event.Event) {
		types = append(types, e.EventType())
	})

	exec := &fakeExecutor{}
	r := newTestRunner(t, exec, bus)
	run := NewRun(testVariant())

	stages := []spec.Stage{hardStage("train"), softStage("plots")}
	if err := r.Run(context.Background(), run, stages, 3); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"variant.started",
		"stage.started", "stage.finished",
		"stage.started", "stage.finished",
		"variant.finished",
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerCreatesScratchDirs(t *testing.T) {
	exec := &fakeExecutor{}
	bus := event.NewBus()
	workDir := t.TempDir()
	r := NewRunner(exec, bus, logging.NopLogger(), "run-test", workDir)
	run := NewRun(testVariant())

	if err := r.Run(context.Background(), run, []spec.Stage{hardStage("train")}, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	outDir := filepath.Join(workDir, "sev-10", "outputs")
	if _, err := os.Stat(outDir); err != nil {
		t.Errorf("output dir not created: %v", err)
	}
}
