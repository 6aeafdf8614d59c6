// Package cmd implements the sweep command line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sweeplab/sweep/internal/config"
	"github.com/sweeplab/sweep/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run parameter sweeps as parallel variant pipelines",
	Long: `Sweep executes a pipeline of stages across many parameter variants in
parallel, collects the artifacts each stage produces into an isolated
per-variant namespace, and aggregates the results into a single report.

A hard stage failure stops its variant; a soft stage failure is recorded
and the variant carries on. The report always covers every variant,
including the ones that failed.`,
	SilenceUsage: true,
}

// Execute runs the root command. Errors propagate to main, which maps
// them to exit codes.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the process exit code: 1 when the
// run itself failed, 2 for everything internal (invalid spec or config,
// consistency violations, IO).
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrRunFailed):
		return 1
	default:
		return 2
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/sweep/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/sweep")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SWEEP")
	// Replace dots with underscores for nested keys in env vars
	// e.g., SWEEP_ORCHESTRATOR_MAX_PARALLEL for orchestrator.max_parallel
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
