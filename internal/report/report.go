// Package report builds the consolidated run report. The aggregator
// consumes every variant's run record and the frozen artifact store
// after the completion barrier has released, so it only ever sees
// terminal states and a store that no longer changes. Aggregation is
// deterministic: the same runs and store contents produce the same
// Report, and the renderers produce byte-identical output for the
// same Report.
package report

import (
	"strconv"
	"strings"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/stage"
	"github.com/sweeplab/sweep/internal/variant"
)

// Metric is a key metric extracted from a variant's metric artifact.
// Present is false when the artifact, the field, or a numeric value
// was missing; an absent metric is rendered as a placeholder, never
// treated as an error.
type Metric struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

func (m Metric) String() string {
	if !m.Present {
		return "-"
	}
	return strconv.FormatFloat(m.Value, 'g', -1, 64)
}

// SummaryRow is one line of the report's summary table. The table
// holds exactly one row per dispatched variant, whatever its outcome.
type SummaryRow struct {
	VariantID string        `json:"variant_id"`
	Params    []spec.Param  `json:"params"`
	State     variant.State `json:"state"`
	Metric    Metric        `json:"metric"`
}

// Section is the per-variant detail block: the recorded stage results
// and the artifact keys the variant wrote. Incomplete marks variants
// that stopped before running every stage (hard failure or
// cancellation); their sections appear in the report like any other
// rather than being dropped.
type Section struct {
	VariantID  string         `json:"variant_id"`
	State      variant.State  `json:"state"`
	Incomplete bool           `json:"incomplete"`
	Stages     []stage.Result `json:"stages"`
	Artifacts  []artifact.Ref `json:"artifacts"`
}

// Report is the consolidated outcome of one orchestration run. It is
// built exactly once per run, after every variant is terminal, and is
// immutable from then on.
type Report struct {
	RunID       string       `json:"run_id"`
	Title       string       `json:"title"`
	MetricField string       `json:"metric_field"`
	Rows        []SummaryRow `json:"rows"`
	Sections    []Section    `json:"sections"`
}

// Counts returns the number of variants in each terminal state.
func (r *Report) Counts() (succeeded, softFailed, hardFailed, cancelled int) {
	for _, row := range r.Rows {
		switch row.State {
		case variant.StateSucceeded:
			succeeded++
		case variant.StateSoftFailed:
			softFailed++
		case variant.StateHardFailed:
			hardFailed++
		case variant.StateCancelled:
			cancelled++
		}
	}
	return succeeded, softFailed, hardFailed, cancelled
}

// AllSucceeded reports whether every variant finished SUCCEEDED.
func (r *Report) AllSucceeded() bool {
	for _, row := range r.Rows {
		if row.State != variant.StateSucceeded {
			return false
		}
	}
	return true
}

// formatParams renders a variant's params as "key=value" pairs in
// declaration order.
func formatParams(params []spec.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, " ")
}
