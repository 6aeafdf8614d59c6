package spec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/sweeplab/sweep/internal/errors"
)

// Validate checks the pipeline for structural problems. It returns the
// first problem found as a SpecError carrying the offending variant or
// stage, or nil when the pipeline is well-formed.
//
// Checked, in order: pipeline name, the variant matrix (nonempty, every
// variant has params, IDs unique), the stage list (nonempty, names unique,
// commands nonempty, policies known, output globs compilable), and the
// order_by declaration (every variant defines it with a numeric value).
func (p *Pipeline) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewSpecError("pipeline name is required", errors.ErrSpecInvalid)
	}

	if err := p.validateVariants(); err != nil {
		return err
	}
	if err := p.validateStages(); err != nil {
		return err
	}
	return p.validateOrderBy()
}

func (p *Pipeline) validateVariants() error {
	if len(p.Variants) == 0 {
		return errors.NewSpecError("variants list is empty", errors.ErrNoVariants)
	}

	seen := make(map[string]bool, len(p.Variants))
	for i, v := range p.Variants {
		if len(v.Params) == 0 {
			return errors.NewSpecError(
				fmt.Sprintf("variant %d has no params", i+1), errors.ErrSpecInvalid)
		}
		id := v.ID()
		if seen[id] {
			return errors.NewSpecError(
				fmt.Sprintf("variant %q declared more than once", id),
				errors.ErrDuplicateVariant).WithVariant(id)
		}
		seen[id] = true
	}
	return nil
}

func (p *Pipeline) validateStages() error {
	if len(p.Stages) == 0 {
		return errors.NewSpecError("stages list is empty", errors.ErrSpecInvalid)
	}

	seen := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if strings.TrimSpace(s.Name) == "" {
			return errors.NewSpecError(
				fmt.Sprintf("stage %d has no name", i+1), errors.ErrSpecInvalid)
		}
		if seen[s.Name] {
			return errors.NewSpecError(
				fmt.Sprintf("stage %q declared more than once", s.Name),
				errors.ErrDuplicateStage).WithStage(s.Name)
		}
		seen[s.Name] = true

		if len(s.Command) == 0 || strings.TrimSpace(s.Command[0]) == "" {
			return errors.NewSpecError(
				"command is required", errors.ErrEmptyCommand).WithStage(s.Name)
		}
		if !s.Policy.Valid() {
			return errors.NewSpecError(
				fmt.Sprintf("unknown failure policy %q (valid: hard, soft)", s.Policy),
				errors.ErrSpecInvalid).WithStage(s.Name)
		}
		for _, pattern := range s.Outputs {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return errors.NewSpecError(
					fmt.Sprintf("invalid output pattern %q", pattern),
					err).WithStage(s.Name)
			}
		}
	}
	return nil
}

func (p *Pipeline) validateOrderBy() error {
	if p.OrderBy == "" {
		return nil
	}
	for _, v := range p.Variants {
		raw, ok := v.Get(p.OrderBy)
		if !ok {
			return errors.NewSpecError(
				fmt.Sprintf("order_by param %q is not set", p.OrderBy),
				errors.ErrSpecInvalid).WithVariant(v.ID())
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return errors.NewSpecError(
				fmt.Sprintf("order_by param %q is not numeric: %q", p.OrderBy, raw),
				errors.ErrSpecInvalid).WithVariant(v.ID())
		}
	}
	return nil
}
