package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// fallbackTitle heads reports whose options carried no title.
const fallbackTitle = "sweep report"

type renderMode int

const (
	modeText renderMode = iota
	modeMarkdown
)

// RenderText renders the report as a fixed-width terminal table
// followed by one detail block per variant. Output is plain text with
// no colour so identical reports render to identical bytes.
func RenderText(r *Report) string {
	var b strings.Builder

	b.WriteString(titleOf(r))
	if r.RunID != "" {
		fmt.Fprintf(&b, "  (run %s)", r.RunID)
	}
	b.WriteString("\n\n")
	b.WriteString(summaryTable(r, modeText))
	b.WriteString("\n")

	for _, sec := range r.Sections {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s: %s", sec.VariantID, sec.State)
		if sec.Incomplete {
			b.WriteString(" (incomplete)")
		}
		b.WriteString("\n")
		for _, st := range sec.Stages {
			fmt.Fprintf(&b, "  %-12s %-10s %s", st.Stage, st.Status, formatDuration(st.Duration))
			if st.Error != "" {
				b.WriteString("  " + st.Error)
			}
			b.WriteString("\n")
		}
		if len(sec.Artifacts) > 0 {
			b.WriteString("  artifacts: " + strings.Join(artifactKeys(sec), ", ") + "\n")
		}
	}
	return b.String()
}

// RenderMarkdown renders the report as GitHub-flavoured Markdown: the
// summary table up front, then one collapsible details block per
// variant with its stage table, artifact keys, and the captured
// output of any failed stage.
func RenderMarkdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# " + titleOf(r) + "\n\n")
	if r.RunID != "" {
		succeeded, soft, hard, cancelled := r.Counts()
		fmt.Fprintf(&b, "Run `%s`: %d succeeded, %d soft-failed, %d hard-failed, %d cancelled.\n\n",
			r.RunID, succeeded, soft, hard, cancelled)
	}
	b.WriteString(summaryTable(r, modeMarkdown))
	b.WriteString("\n")

	for _, sec := range r.Sections {
		b.WriteString("\n<details>\n<summary>")
		fmt.Fprintf(&b, "<code>%s</code>: %s", sec.VariantID, sec.State)
		if sec.Incomplete {
			b.WriteString(" (incomplete)")
		}
		b.WriteString("</summary>\n\n")

		b.WriteString("| Stage | Status | Duration | Detail |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, st := range sec.Stages {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				st.Stage, st.Status, formatDuration(st.Duration), mdCell(st.Error))
		}

		if len(sec.Artifacts) > 0 {
			keys := artifactKeys(sec)
			for i, k := range keys {
				keys[i] = "`" + k + "`"
			}
			b.WriteString("\nArtifacts: " + strings.Join(keys, ", ") + "\n")
		}

		for _, st := range sec.Stages {
			if st.Failed() && st.Output != "" {
				fmt.Fprintf(&b, "\nOutput of `%s`:\n\n```\n%s\n```\n", st.Stage, st.Output)
			}
		}
		b.WriteString("\n</details>\n")
	}
	return b.String()
}

func summaryTable(r *Report, mode renderMode) string {
	w := table.NewWriter()
	if mode == modeText {
		w.SetStyle(table.StyleLight)
	}
	w.AppendHeader(table.Row{"Variant", "Params", "State", metricHeader(r)})
	for _, row := range r.Rows {
		w.AppendRow(table.Row{row.VariantID, formatParams(row.Params), row.State.String(), row.Metric.String()})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	if mode == modeMarkdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func titleOf(r *Report) string {
	if r.Title != "" {
		return r.Title
	}
	return fallbackTitle
}

func metricHeader(r *Report) string {
	if r.MetricField != "" {
		return r.MetricField
	}
	return "metric"
}

func artifactKeys(sec Section) []string {
	keys := make([]string, 0, len(sec.Artifacts))
	for _, ref := range sec.Artifacts {
		keys = append(keys, ref.Key)
	}
	return keys
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

// mdCell makes a string safe for a single markdown table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
