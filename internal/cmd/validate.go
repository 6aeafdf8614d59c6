package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sweeplab/sweep/internal/spec"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec-file>",
	Short: "Validate a pipeline spec without running it",
	Long: `Validate a pipeline spec file and print a short summary.

The checks are the same ones "sweep run" performs before launching:
YAML structure, duplicate variant IDs, stage names, policies, and the
order_by param. The command exits non-zero if the spec is invalid.

Examples:
  sweep validate sweep.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := spec.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: OK\n", args[0])
	fmt.Printf("  pipeline: %s\n", p.Name)
	fmt.Printf("  variants: %d\n", len(p.Variants))
	fmt.Printf("  stages:   %d", len(p.Stages))
	for i, st := range p.Stages {
		if i == 0 {
			fmt.Printf(" (")
		} else {
			fmt.Printf(" -> ")
		}
		fmt.Printf("%s", st.Name)
		if st.Policy == spec.PolicySoft {
			fmt.Printf(" [soft]")
		}
	}
	if len(p.Stages) > 0 {
		fmt.Printf(")")
	}
	fmt.Println()
	if p.OrderBy != "" {
		fmt.Printf("  order_by: %s\n", p.OrderBy)
	}

	return nil
}
