package stage

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/spec"
)

// outputTailLimit bounds how much captured command output is kept in a
// Result. Full output belongs in the stage's own files, not in the run
// record.
const outputTailLimit = 4096

// Context is the variant-side input to a stage execution: which variant
// is running and where its private directories live.
type Context struct {
	// RunID identifies the orchestration run.
	RunID string

	// Variant is the owning variant. Its params are exported to the
	// command as SWEEP_VARIANT_* environment variables.
	Variant spec.Variant

	// ScratchDir is the variant's private working directory. Commands
	// run with this as their cwd, and files left here are visible to
	// the variant's later stages.
	ScratchDir string

	// OutputDir is the directory stage commands drop declared outputs
	// into (exported as SWEEP_OUTPUT_DIR). Declared output globs are
	// matched against paths relative to it.
	OutputDir string
}

// CommandRunner abstracts subprocess execution for testability.
type CommandRunner interface {
	// Run executes the command in dir with the given environment and
	// returns combined output, the exit code, and the raw execution
	// error. The exit code is -1 when the command did not run to an
	// exit (unstartable, killed).
	Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, int, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.CombinedOutput()

	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	return out, code, err
}

// Executor runs stage commands and collects their declared outputs into
// the artifact store.
type Executor struct {
	store  artifact.Store
	log    *logging.Logger
	runner CommandRunner
}

// NewExecutor creates an executor that runs real subprocesses.
func NewExecutor(store artifact.Store, log *logging.Logger) *Executor {
	return NewExecutorWithRunner(store, log, execRunner{})
}

// NewExecutorWithRunner creates an executor with a custom command runner.
func NewExecutorWithRunner(store artifact.Store, log *logging.Logger, runner CommandRunner) *Executor {
	return &Executor{store: store, log: log, runner: runner}
}

// Execute runs one stage for one variant and returns its Result.
//
// Command failures of any kind land in the Result; the returned error is
// reserved for consistency violations raised while writing collected
// outputs into the store (a double write is a bug in the run, not a stage
// failure, and must abort the orchestration).
func (e *Executor) Execute(ctx context.Context, st spec.Stage, vctx Context) (Result, error) {
	variantID := vctx.Variant.ID()
	log := e.log.WithVariant(variantID).WithStage(st.Name)

	stageCtx := ctx
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, st.Timeout.Std())
		defer cancel()
	}

	log.Debug("running stage command",
		"command", strings.Join(st.Command, " "),
		"timeout", st.Timeout.Std().String(),
	)

	start := time.Now()
	out, code, runErr := e.runner.Run(stageCtx, vctx.ScratchDir, environ(st, vctx), st.Command[0], st.Command[1:]...)
	res := Result{
		Stage:     st.Name,
		Status:    StatusSucceeded,
		Policy:    st.Policy,
		ExitCode:  code,
		Output:    tail(out),
		StartedAt: start,
		Duration:  time.Since(start),
	}

	if runErr != nil {
		res.Status = StatusFailed
		res.Error = failureDetail(st, variantID, code, res.Output, stageCtx, runErr).Error()
		log.Warn("stage failed", "exit_code", code, "error", res.Error)
		return res, nil
	}

	refs, err := e.collect(st, vctx)
	if err != nil {
		return res, err
	}
	res.Artifacts = refs

	log.Debug("stage succeeded", "artifacts", len(refs), "duration", res.Duration.String())
	return res, nil
}

// failureDetail classifies a command failure into a StageError.
func failureDetail(st spec.Stage, variantID string, code int, output string, stageCtx context.Context, runErr error) *errors.StageError {
	var se *errors.StageError
	switch {
	case stageCtx.Err() == context.DeadlineExceeded:
		se = errors.NewStageError(
			"stage timed out after "+st.Timeout.Std().String(), errors.ErrStageTimeout)
	case code >= 0:
		se = errors.NewStageError("command exited non-zero", errors.ErrStageFailed)
	default:
		se = errors.NewStageError("command could not run: "+runErr.Error(), errors.ErrStageFailed)
	}
	return se.
		WithVariant(variantID).
		WithStage(st.Name).
		WithExitCode(code).
		WithOutput(output)
}

// collect walks the variant's output directory and stores every file
// matching one of the stage's declared output patterns. The artifact key
// is the file's path relative to the output dir, with separators mapped
// to '-' so it stays a single namespace-level key. A pattern matching
// nothing collects nothing; missing outputs surface later as absent
// artifacts in the report, not as stage failures.
func (e *Executor) collect(st spec.Stage, vctx Context) ([]artifact.Ref, error) {
	if len(st.Outputs) == 0 {
		return nil, nil
	}

	globs := make([]glob.Glob, 0, len(st.Outputs))
	for _, pattern := range st.Outputs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.NewSpecError(
				"invalid output pattern "+pattern, err).WithStage(st.Name)
		}
		globs = append(globs, g)
	}

	variantID := vctx.Variant.ID()
	var refs []artifact.Ref
	err := filepath.WalkDir(vctx.OutputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(vctx.OutputDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matched := false
		for _, g := range globs {
			if g.Match(rel) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "read stage output")
		}
		key := strings.ReplaceAll(rel, "/", "-")
		ref, err := e.store.Put(variantID, key, data)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// environ builds the command environment: the process environment plus
// the run, variant, and stage exports.
func environ(st spec.Stage, vctx Context) []string {
	env := os.Environ()
	env = append(env,
		"SWEEP_RUN_ID="+vctx.RunID,
		"SWEEP_VARIANT_ID="+vctx.Variant.ID(),
		"SWEEP_STAGE="+st.Name,
		"SWEEP_SCRATCH_DIR="+vctx.ScratchDir,
		"SWEEP_OUTPUT_DIR="+vctx.OutputDir,
	)
	for _, p := range vctx.Variant.Params {
		env = append(env, "SWEEP_VARIANT_"+envKey(p.Key)+"="+p.Value)
	}
	for k, v := range st.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// envKey maps a param key to an environment variable suffix: uppercased,
// with anything outside [A-Z0-9] replaced by '_'.
func envKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
}

// tail returns the trimmed last chunk of combined command output.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) <= outputTailLimit {
		return s
	}
	return s[len(s)-outputTailLimit:]
}
