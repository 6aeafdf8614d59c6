package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/sweeplab/sweep/internal/artifact"
	"github.com/sweeplab/sweep/internal/errors"
	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/variant"
)

// Defaults for the key-metric artifact. Stages that want their number
// in the summary table write a JSON object under this key with the
// metric as a top-level field.
const (
	DefaultMetricKey   = "metrics.json"
	DefaultMetricField = "accuracy"
)

// Options configures aggregation. The zero value is usable; empty
// fields fall back to the defaults above. Options are recorded in the
// run manifest so an offline re-aggregation reproduces the report
// byte for byte.
type Options struct {
	// Title heads the rendered report. Empty falls back to a generic
	// title at render time.
	Title string `json:"title,omitempty"`

	// MetricKey is the artifact key read from each variant namespace.
	MetricKey string `json:"metric_key"`

	// MetricField is the top-level JSON field extracted from the
	// metric artifact.
	MetricField string `json:"metric_field"`

	// OrderBy names the variant param whose numeric value orders the
	// summary rows ascending. Empty keeps dispatch order.
	OrderBy string `json:"order_by,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.MetricKey == "" {
		o.MetricKey = DefaultMetricKey
	}
	if o.MetricField == "" {
		o.MetricField = DefaultMetricField
	}
	return o
}

// Aggregator builds one Report from a set of terminal variant runs
// and the store they wrote into.
type Aggregator struct {
	store artifact.Store
	log   *logging.Logger
	opts  Options
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store artifact.Store, log *logging.Logger, opts Options) *Aggregator {
	return &Aggregator{
		store: store,
		log:   log,
		opts:  opts.withDefaults(),
	}
}

// Aggregate builds the Report: exactly one summary row and one detail
// section per run, ordered by the ascending numeric order_by param
// when configured, else by the given dispatch order. Missing metric
// artifacts and missing stage outputs are data, not errors; only a
// store access failure aborts aggregation.
func (a *Aggregator) Aggregate(runID string, runs []*variant.Run) (*Report, error) {
	rep := &Report{
		RunID:       runID,
		Title:       a.opts.Title,
		MetricField: a.opts.MetricField,
		Rows:        make([]SummaryRow, 0, len(runs)),
		Sections:    make([]Section, 0, len(runs)),
	}

	for _, run := range a.orderRuns(runs) {
		metric, err := a.metric(run.ID())
		if err != nil {
			return nil, fmt.Errorf("read metric for %s: %w", run.ID(), err)
		}
		rep.Rows = append(rep.Rows, SummaryRow{
			VariantID: run.ID(),
			Params:    slices.Clone(run.Variant.Params),
			State:     run.State,
			Metric:    metric,
		})

		sec, err := a.section(run)
		if err != nil {
			return nil, fmt.Errorf("build section for %s: %w", run.ID(), err)
		}
		rep.Sections = append(rep.Sections, sec)
	}
	return rep, nil
}

// orderRuns returns the runs in report order without mutating the
// input slice. The sort is stable so variants with equal order values
// keep their dispatch order.
func (a *Aggregator) orderRuns(runs []*variant.Run) []*variant.Run {
	ordered := slices.Clone(runs)
	if a.opts.OrderBy == "" {
		return ordered
	}
	key := a.opts.OrderBy
	slices.SortStableFunc(ordered, func(x, y *variant.Run) int {
		xv, xok := x.Variant.OrderValue(key)
		yv, yok := y.Variant.OrderValue(key)
		switch {
		case !xok && !yok:
			return 0
		case !xok:
			return 1
		case !yok:
			return -1
		}
		return cmp.Compare(xv, yv)
	})
	return ordered
}

// metric reads the variant's metric artifact and extracts the
// configured field. Every absence case collapses to a non-present
// Metric: no artifact, unparseable JSON, missing field, non-numeric
// value.
func (a *Aggregator) metric(variantID string) (Metric, error) {
	data, err := a.store.Get(variantID, a.opts.MetricKey)
	if err != nil {
		if errors.Is(err, errors.ErrArtifactNotFound) {
			return Metric{}, nil
		}
		return Metric{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		a.log.Warn("metric artifact is not valid JSON",
			"variant", variantID, "key", a.opts.MetricKey)
		return Metric{}, nil
	}

	v, ok := toFloat(fields[a.opts.MetricField])
	if !ok {
		return Metric{}, nil
	}
	return Metric{Value: v, Present: true}, nil
}

func (a *Aggregator) section(run *variant.Run) (Section, error) {
	refs, err := a.store.List(run.ID())
	if err != nil {
		return Section{}, err
	}
	return Section{
		VariantID:  run.ID(),
		State:      run.State,
		Incomplete: run.State == variant.StateHardFailed || run.State == variant.StateCancelled,
		Stages:     slices.Clone(run.Stages),
		Artifacts:  refs,
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
