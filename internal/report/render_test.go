package report

import (
	"strings"
	"testing"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
	"github.com/sweeplab/sweep/internal/variant"
)

func sampleReport() *Report {
	return &Report{
		RunID:       "run-1",
		Title:       "severity sweep",
		MetricField: "accuracy",
		Rows: []SummaryRow{
			{
				VariantID: "sev-0",
				Params:    sevParams("0"),
				State:     variant.StateSucceeded,
				Metric:    Metric{Value: 0.99, Present: true},
			},
			{
				VariantID: "sev-50",
				Params:    sevParams("50"),
				State:     variant.StateHardFailed,
				Metric:    Metric{},
			},
		},
		Sections: []Section{
			{
				VariantID: "sev-0",
				State:     variant.StateSucceeded,
				Stages:    []stage.Result{stageOK("poison"), stageOK("train")},
				Artifacts: []artifact.Ref{{Variant: "sev-0", Key: "metrics.json"}},
			},
			{
				VariantID:  "sev-50",
				State:      variant.StateHardFailed,
				Incomplete: true,
				Stages:     []stage.Result{stageFail("poison", spec.PolicyHard)},
			},
		},
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleReport())

	for _, want := range []string{
		"severity sweep  (run run-1)",
		"sev-0",
		"sev=50",
		"SUCCEEDED",
		"HARD_FAILED",
		"0.99",
		"sev-50: HARD_FAILED (incomplete)",
		"artifacts: metrics.json",
		"command exited non-zero",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	// Row order follows the report, summary before sections.
	if strings.Index(out, "sev-0") > strings.Index(out, "sev-50") {
		t.Error("sev-0 should render before sev-50")
	}
}

func TestRenderTextAbsentMetric(t *testing.T) {
	out := RenderText(sampleReport())
	if !strings.Contains(out, "-") {
		t.Errorf("absent metric should render a placeholder:\n%s", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(sampleReport())

	for _, want := range []string{
		"# severity sweep",
		"Run `run-1`: 1 succeeded, 0 soft-failed, 1 hard-failed, 0 cancelled.",
		"<details>",
		"</details>",
		"<summary><code>sev-0</code>: SUCCEEDED</summary>",
		"<summary><code>sev-50</code>: HARD_FAILED (incomplete)</summary>",
		"| Stage | Status | Duration | Detail |",
		"Artifacts: `metrics.json`",
		"Output of `poison`:",
		"Traceback: assertion failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}

	if got := strings.Count(out, "<details>"); got != 2 {
		t.Errorf("got %d details blocks, want 2", got)
	}
}

func TestRenderMarkdownEscapesCells(t *testing.T) {
	rep := sampleReport()
	rep.Sections[1].Stages[0].Error = "bad | pipe\nnewline"

	out := RenderMarkdown(rep)
	if !strings.Contains(out, `bad \| pipe newline`) {
		t.Errorf("cell not escaped:\n%s", out)
	}
}

func TestRenderDeterministic(t *testing.T) {
	rep := sampleReport()

	if RenderText(rep) != RenderText(rep) {
		t.Error("text rendering differs between calls for the same report")
	}
	if RenderMarkdown(rep) != RenderMarkdown(rep) {
		t.Error("markdown rendering differs between calls for the same report")
	}
}

func TestRenderFallbackTitle(t *testing.T) {
	rep := sampleReport()
	rep.Title = ""

	if out := RenderText(rep); !strings.Contains(out, fallbackTitle) {
		t.Errorf("text output missing fallback title:\n%s", out)
	}
	if out := RenderMarkdown(rep); !strings.Contains(out, "# "+fallbackTitle) {
		t.Errorf("markdown output missing fallback title:\n%s", out)
	}
}

func TestMetricString(t *testing.T) {
	tests := []struct {
		metric Metric
		want   string
	}{
		{Metric{}, "-"},
		{Metric{Value: 0.93, Present: true}, "0.93"},
		{Metric{Value: 1, Present: true}, "1"},
		{Metric{Value: 0.123456789, Present: true}, "0.123456789"},
	}
	for _, tt := range tests {
		if got := tt.metric.String(); got != tt.want {
			t.Errorf("Metric%+v.String() = %q, want %q", tt.metric, got, tt.want)
		}
	}
}
