package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/orchestrator"
	"github.com/sweeplab/sweep/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-aggregate the report for a finished run",
	Long: `Rebuild the report for a finished run from its run directory.

The run directory is the one "sweep run" created: it holds the run
manifest (run.json) and the artifact store the stages wrote into.
Re-aggregating the same directory always produces the same report.

Runs recorded with the mem artifact backend leave nothing on disk and
cannot be re-aggregated.

Examples:
  # Print the report for a run
  sweep report --run runs/20260825-143021-a1b2c3d4

  # Render markdown and write it to a file
  sweep report --run runs/20260825-143021-a1b2c3d4 --format markdown -o report.md`,
	RunE: runReport,
}

var (
	reportRunDir string
	reportFormat string
	reportOutput string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportRunDir, "run", "r", "", "Run directory to re-aggregate (required)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "Output format (text/markdown)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportRunDir == "" {
		return fmt.Errorf("--run is required: the run directory containing %s", orchestrator.ManifestFileName)
	}

	man, err := orchestrator.LoadManifest(reportRunDir)
	if err != nil {
		return err
	}

	store, err := openRunStore(reportRunDir)
	if err != nil {
		return err
	}
	defer store.Close()

	agg := report.NewAggregator(store, logging.NopLogger(), man.Report)
	rep, err := agg.Aggregate(man.RunID, man.Runs)
	if err != nil {
		return err
	}

	out, err := renderReport(rep, reportFormat)
	if err != nil {
		return err
	}

	if reportOutput != "" {
		if err := os.WriteFile(reportOutput, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOutput)
		return nil
	}

	fmt.Print(out)
	return nil
}

// renderReport renders a report in the named format.
func renderReport(rep *report.Report, format string) (string, error) {
	switch format {
	case "text":
		return report.RenderText(rep), nil
	case "markdown", "md":
		return report.RenderMarkdown(rep), nil
	default:
		return "", fmt.Errorf("unknown report format %q (valid: text, markdown)", format)
	}
}

// openRunStore opens the artifact store a finished run left behind,
// detecting the backend from what is on disk.
func openRunStore(runDir string) (artifact.Store, error) {
	root := filepath.Join(runDir, artifactsDirName)
	if _, err := os.Stat(filepath.Join(root, artifact.SQLiteFileName)); err == nil {
		return artifact.Open(artifact.BackendSQLite, root)
	}
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return artifact.Open(artifact.BackendFS, root)
	}
	return nil, fmt.Errorf("no artifact data under %s (mem-backend runs cannot be re-aggregated)", root)
}
