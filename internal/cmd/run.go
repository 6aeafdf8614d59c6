package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/config"
	"github.com/sweeplab/sweep/internal/display"
	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/orchestrator"
	"github.com/sweeplab/sweep/internal/publish"
	"github.com/sweeplab/sweep/internal/report"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/tui"
	"github.com/sweeplab/sweep/internal/variant"
)

// A run directory holds everything one run leaves behind:
//
//	<runs>/<run-id>/
//	    run.json      manifest for offline re-aggregation
//	    run.log       structured run log
//	    artifacts/    artifact store root (fs tree or artifacts.db)
const artifactsDirName = "artifacts"

// ErrRunFailed marks a run that completed but did not succeed: a variant
// hard-failed or was cancelled, or soft-failed under --strict. main maps
// it to exit code 1; any other error from Execute exits 2.
var ErrRunFailed = errors.New("run failed")

var runCmd = &cobra.Command{
	Use:   "run [spec-file]",
	Short: "Run a pipeline across all its variants",
	Long: `Run every variant of a pipeline spec with bounded parallelism.

Each variant executes the spec's stages in order inside its own scratch
directory, and declared stage outputs are collected into the variant's
artifact namespace. When every variant has reached a terminal state the
run aggregates one report covering all of them and publishes it to the
configured sink.

Interrupting a run (Ctrl+C) stops dispatch of further stages; in-flight
stages finish on their own and the affected variants are recorded as
cancelled. The report is still produced.

Examples:
  # Run a sweep and print the report
  sweep run --spec sweep.yaml

  # Watch progress in the live dashboard
  sweep run --spec sweep.yaml --tui

  # Treat soft failures as run failures
  sweep run --spec sweep.yaml --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runSpecPath    string
	runStrict      bool
	runTUI         bool
	runMaxParallel int
	runRunsDir     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSpecPath, "spec", "s", "", "Pipeline spec file (required)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail the run on soft stage failures")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the live dashboard while the run executes")
	runCmd.Flags().IntVarP(&runMaxParallel, "max-parallel", "p", 0, "Max concurrent variants (default: from config)")
	runCmd.Flags().StringVar(&runRunsDir, "runs-dir", "", "Directory to create the run under (default: from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runSpecPath == "" && len(args) > 0 {
		runSpecPath = args[0]
	}
	if runSpecPath == "" {
		return fmt.Errorf("a pipeline spec is required: sweep run --spec <file>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if runMaxParallel > 0 {
		cfg.Orchestrator.MaxParallel = runMaxParallel
	}
	if runRunsDir != "" {
		cfg.Artifacts.Dir = runRunsDir
	}

	p, err := spec.Load(runSpecPath)
	if err != nil {
		return err
	}
	// Config stage timeout backstops stages the spec leaves unbounded.
	if cfg.Orchestrator.StageTimeout > 0 {
		for i := range p.Stages {
			if p.Stages[i].Timeout == 0 {
				p.Stages[i].Timeout = spec.Duration(cfg.Orchestrator.StageTimeout)
			}
		}
	}
	var digest string
	if data, err := os.ReadFile(runSpecPath); err == nil {
		digest = orchestrator.DigestSpec(data)
	}

	// Build the publisher up front so a misconfigured sink fails before
	// the sweep runs, not after.
	target := cfg.Publish.Path
	if cfg.Publish.Sink == publish.SinkCommand {
		target = cfg.Publish.Command
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	runID := newRunID()
	runDir := filepath.Join(cfg.Artifacts.ResolveDir(cwd), runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	log, err := logging.NewRotatingLogger(runDir, cfg.Logging.Level, cfg.Logging.Format, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	pub, err := publish.New(cfg.Publish.Sink, target, cfg.Publish.Args, log)
	if err != nil {
		return err
	}

	artifactRoot := filepath.Join(runDir, artifactsDirName)
	store, err := artifact.Open(cfg.Artifacts.Backend, artifactRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := event.NewBus()

	// The fs backend exposes variant namespaces as plain directories;
	// watch them for writes that bypass the store.
	var mon *artifact.Monitor
	if cfg.Artifacts.Backend == artifact.BackendFS {
		mon, err = artifact.NewMonitor(artifactRoot, bus, log)
		if err != nil {
			log.Warn("artifact monitor unavailable", "error", err)
		} else {
			bus.Subscribe("variant.finished", func(ev event.Event) {
				if fin, ok := ev.(event.VariantFinishedEvent); ok {
					mon.MarkTerminal(fin.VariantID)
				}
			})
			mon.Start()
			defer mon.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	useTUI := runTUI && interactive
	if runTUI && !interactive {
		fmt.Fprintln(os.Stderr, "warning: stdout is not a terminal, running without the dashboard")
	}

	orch := orchestrator.New(p, store, bus, log, orchestrator.Options{
		RunID:       runID,
		MaxParallel: cfg.Orchestrator.MaxParallel,
		ManifestDir: runDir,
		SpecDigest:  digest,
		Report: report.Options{
			Title:       cfg.Report.Title,
			MetricKey:   cfg.Report.MetricKey,
			MetricField: cfg.Report.MetricField,
		},
	})

	var app *tui.App
	if useTUI {
		// Created before dispatch so no event slips past the dashboard.
		app = tui.New(bus, p, runID)
	} else {
		fmt.Printf("Running %s: %d variants, %d in parallel (run %s)\n",
			p.Name, len(p.Variants), cfg.Orchestrator.MaxParallel, runID)
		bus.Subscribe("variant.finished", func(ev event.Event) {
			if fin, ok := ev.(event.VariantFinishedEvent); ok {
				fmt.Printf("  %s  %s (%s)\n",
					display.StateBadge(variant.State(fin.State)),
					fin.VariantID,
					fin.Duration.Round(time.Millisecond))
			}
		})
	}

	var outcome *orchestrator.Outcome
	var g errgroup.Group
	g.Go(func() error {
		out, err := orch.Run(runCtx)
		if err != nil && app != nil {
			// No run.finished event arrives on this path; close the
			// dashboard so the error can surface.
			app.Quit()
		}
		outcome = out
		return err
	})

	if app != nil {
		if err := app.Run(); err != nil {
			log.Warn("dashboard failed", "error", err)
		}
		// The dashboard exiting before the run finished means the user
		// quit; after a finished run this cancel is a no-op.
		cancel()
	}

	if err := g.Wait(); err != nil {
		return err
	}

	rep := outcome.Report
	fmt.Println()
	fmt.Print(report.RenderText(rep))
	fmt.Println()
	succeeded, soft, hard, cancelled := rep.Counts()
	if interactive {
		fmt.Println(display.Summary(succeeded, soft, hard, cancelled))
	} else {
		fmt.Printf("%d succeeded, %d soft-failed, %d hard-failed, %d cancelled\n",
			succeeded, soft, hard, cancelled)
	}
	fmt.Printf("Run directory: %s\n", runDir)

	if mon != nil {
		for _, b := range mon.Breaches() {
			fmt.Fprintf(os.Stderr, "warning: write into terminal namespace %s: %s\n", b.VariantID, b.Path)
		}
	}

	// Publishing happens even when the run context was cancelled: the
	// report exists and delivery is fire-and-forget.
	res := pub.Publish(context.WithoutCancel(ctx), rep)
	var errMsg string
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	bus.Publish(event.NewPublishFinishedEvent(res.Sink, res.Target, !res.Failed(), errMsg, res.Duration))
	if res.Failed() {
		fmt.Fprintf(os.Stderr, "warning: publish via %s failed: %v\n", res.Sink, res.Err)
	}

	if !outcome.Success(runStrict) {
		return ErrRunFailed
	}
	return nil
}

// newRunID returns a fresh run identifier. The timestamp prefix keeps
// run directories listing in start order; the suffix keeps two runs
// started in the same second apart.
func newRunID() string {
	return time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
