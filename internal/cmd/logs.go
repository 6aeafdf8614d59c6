package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeplab/sweep/internal/display"
	"github.com/sweeplab/sweep/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and filter a run's logs",
	Long: `View and filter the structured log of a run.

Log entries carry the run, variant, and stage they came from, so the
interleaved output of a parallel sweep can be narrowed down after the
fact.

Examples:
  # Show the last 50 entries of a run
  sweep logs --run runs/20260825-143021-a1b2c3d4

  # Everything one variant's train stage logged
  sweep logs --run runs/20260825-143021-a1b2c3d4 --variant sev-10 --stage train -n 0

  # Warnings and errors only
  sweep logs --run runs/20260825-143021-a1b2c3d4 --level warn

  # Export the filtered entries as CSV
  sweep logs --run runs/20260825-143021-a1b2c3d4 --level error --export errors.csv --format csv`,
	RunE: runLogs,
}

var (
	logsRunDir   string
	logsTail     int
	logsLevel    string
	logsVariant  string
	logsStage    string
	logsContains string
	logsSince    string
	logsExport   string
	logsFormat   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsRunDir, "run", "r", "", "Run directory to read logs from (required)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsVariant, "variant", "", "Filter to one variant's entries")
	logsCmd.Flags().StringVar(&logsStage, "stage", "", "Filter to one stage's entries")
	logsCmd.Flags().StringVar(&logsContains, "contains", "", "Filter to messages containing a substring")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries newer than a duration ago (e.g. 1h, 30m)")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write entries to a file instead of stdout")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Export format (text/json/csv)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsRunDir == "" {
		return fmt.Errorf("--run is required: the run directory containing %s", logging.LogFileName)
	}

	entries, err := logging.AggregateLogs(logsRunDir)
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:           logsLevel,
		VariantID:       logsVariant,
		Stage:           logsStage,
		MessageContains: logsContains,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}
	entries = logging.FilterLogs(entries, filter)

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Printf("Wrote %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No matching log entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Println(formatLogEntry(e))
	}
	return nil
}

// formatLogEntry renders one parsed entry as a terminal line.
func formatLogEntry(e logging.LogEntry) string {
	var sb strings.Builder

	sb.WriteString(display.Muted.Render("[" + e.Timestamp.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(display.LevelStyle(e.Level).Render("[" + strings.ToUpper(e.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if e.VariantID != "" {
		sb.WriteString(display.Muted.Render(" variant=" + e.VariantID))
	}
	if e.Stage != "" {
		sb.WriteString(display.Muted.Render(" stage=" + e.Stage))
	}
	for key, value := range e.Attrs {
		sb.WriteString(display.Muted.Render(fmt.Sprintf(" %s=%v", key, value)))
	}

	return sb.String()
}
