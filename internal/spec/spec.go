// Package spec defines the pipeline spec model and its YAML loader.
//
// A pipeline spec declares the variant matrix and the ordered stage list
// that every variant executes. Specs are plain YAML documents:
//
//	name: severity-sweep
//	order_by: sev
//	defaults:
//	  stage_timeout: 10m
//	variants:
//	  - sev: "0"
//	  - sev: "10"
//	stages:
//	  - name: train
//	    command: ["python", "train.py"]
//	    policy: hard
//	    outputs: ["metrics.json", "*.ckpt"]
//
// Load parses and validates a spec file in one step; Parse works on raw
// bytes for callers that already hold the document (and want to hash it).
package spec

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeplab/sweep/internal/errors"
)

// -----------------------------------------------------------------------------
// Failure Policy
// -----------------------------------------------------------------------------

// Policy controls how a stage failure affects the rest of its variant.
type Policy string

const (
	// PolicyHard aborts the remaining stages of the variant. The variant
	// terminates as HARD_FAILED regardless of earlier successes.
	PolicyHard Policy = "hard"

	// PolicySoft records the failure and continues with the next stage.
	// A variant whose only failures are soft terminates as SOFT_FAILED.
	PolicySoft Policy = "soft"
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	return string(p)
}

// Valid reports whether the policy is one of the known values.
func (p Policy) Valid() bool {
	return p == PolicyHard || p == PolicySoft
}

// -----------------------------------------------------------------------------
// Variants
// -----------------------------------------------------------------------------

// Param is one key/value pair of a variant's configuration.
// Values are kept as strings exactly as written in the spec file.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Variant is one parameterized instance of the pipeline. Its params keep
// the order they have in the spec file, and its identity is the ID derived
// from them. Two variants with the same params are the same variant.
type Variant struct {
	Params []Param `json:"params"`
}

// UnmarshalYAML decodes a variant from a YAML mapping, preserving the
// key order of the document. Values must be scalars.
func (v *Variant) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("variant must be a mapping of params, got %s", nodeKind(value.Kind))
	}
	params := make([]Param, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		val := value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("variant param %q: value must be a scalar", key.Value)
		}
		params = append(params, Param{Key: key.Value, Value: val.Value})
	}
	v.Params = params
	return nil
}

// ID returns the variant's stable identifier: the params joined as
// "key-value" slugs in declaration order (e.g. {sev: 10} → "sev-10").
// The ID doubles as the variant's artifact namespace and directory name.
func (v Variant) ID() string {
	parts := make([]string, 0, len(v.Params))
	for _, p := range v.Params {
		parts = append(parts, slug(p.Key)+"-"+slug(p.Value))
	}
	return strings.Join(parts, "-")
}

// Get returns the value of the named param and whether it is present.
func (v Variant) Get(key string) (string, bool) {
	for _, p := range v.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// OrderValue returns the named param parsed as a float for ordering.
// The second return is false when the param is absent or non-numeric.
func (v Variant) OrderValue(key string) (float64, bool) {
	raw, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// slug maps a param key or value to a filesystem-safe fragment:
// lowercased, with anything outside [a-z0-9._] replaced by '-'.
func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, s)
}

// nodeKind names a YAML node kind for error messages.
func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Stages
// -----------------------------------------------------------------------------

// Duration wraps time.Duration for YAML decoding of values like "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML decodes a duration string in time.ParseDuration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\" or \"5m\"")
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Stage is one named unit of work within a variant's pipeline.
type Stage struct {
	// Name identifies the stage within the pipeline. Stage names are
	// unique per pipeline and show up in logs, results, and reports.
	Name string `yaml:"name"`

	// Command is the argv to execute, program first. The command runs
	// once per variant with the variant's params in its environment.
	Command []string `yaml:"command"`

	// Policy is the failure policy, "hard" (default) or "soft".
	Policy Policy `yaml:"policy,omitempty"`

	// Outputs lists glob patterns, relative to the stage's scratch
	// directory, naming the artifacts the stage is expected to produce.
	Outputs []string `yaml:"outputs,omitempty"`

	// Timeout bounds a single execution of this stage. Zero means the
	// pipeline default applies (filled in during Parse).
	Timeout Duration `yaml:"timeout,omitempty"`

	// Env holds extra environment variables for the stage command.
	Env map[string]string `yaml:"env,omitempty"`
}

// -----------------------------------------------------------------------------
// Pipeline
// -----------------------------------------------------------------------------

// Defaults holds pipeline-wide default settings.
type Defaults struct {
	// StageTimeout applies to every stage that does not set its own.
	StageTimeout Duration `yaml:"stage_timeout,omitempty"`
}

// Pipeline is a parsed pipeline spec: the variant matrix plus the ordered
// stage list every variant executes.
type Pipeline struct {
	// Name is the pipeline's display name, used in reports and logs.
	Name string `yaml:"name"`

	// OrderBy optionally names a numeric param used to order report rows.
	// When empty, rows keep dispatch order.
	OrderBy string `yaml:"order_by,omitempty"`

	// Defaults holds pipeline-wide defaults.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Variants is the variant matrix, in file order. Dispatch order
	// follows this order.
	Variants []Variant `yaml:"variants"`

	// Stages is the ordered stage list. Every variant runs these
	// stages strictly in sequence.
	Stages []Stage `yaml:"stages"`
}

// Load reads, parses, and validates a pipeline spec file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSpecError("reading spec file", err).WithPath(path)
	}
	p, err := Parse(data)
	if err != nil {
		var se *errors.SpecError
		if errors.As(err, &se) && se.Path == "" {
			se.WithPath(path)
		}
		return nil, err
	}
	return p, nil
}

// Parse decodes a pipeline spec document, applies defaults, and validates
// it. The returned pipeline is ready to execute.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.NewSpecError("parsing spec document", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// applyDefaults fills in omitted per-stage settings from pipeline defaults.
func (p *Pipeline) applyDefaults() {
	for i := range p.Stages {
		if p.Stages[i].Policy == "" {
			p.Stages[i].Policy = PolicyHard
		}
		if p.Stages[i].Timeout == 0 {
			p.Stages[i].Timeout = p.Defaults.StageTimeout
		}
	}
}

// VariantIDs returns the IDs of all variants in dispatch order.
func (p *Pipeline) VariantIDs() []string {
	ids := make([]string, len(p.Variants))
	for i, v := range p.Variants {
		ids[i] = v.ID()
	}
	return ids
}
