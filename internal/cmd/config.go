package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sweeplab/sweep/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify sweep configuration",
	Long: `View or modify sweep configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  sweep config set orchestrator.max_parallel 8
  sweep config set artifacts.backend sqlite
  sweep config set publish.sink file

Valid keys:
  orchestrator.max_parallel  - Max variants running at once
  orchestrator.stage_timeout - Default stage timeout (e.g. 90s, 5m; 0 = unbounded)
  artifacts.backend          - Artifact store backend
                               Options: fs, sqlite, mem
  artifacts.dir              - Directory runs are created under
  report.metric_key          - Artifact key holding each variant's metrics
  report.metric_field        - Field extracted for the summary table
  report.title               - Report title (default: pipeline name)
  publish.sink               - Report sink. Options: stdout, file, command
  publish.path               - Destination path for the file sink
  publish.command            - Command for the command sink
  logging.level              - debug, info, warn, or error
  logging.format             - json or text
  logging.max_size_mb        - Rotate run.log beyond this size
  logging.max_backups        - Rotated files to keep`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at $XDG_CONFIG_HOME/sweep/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("orchestrator:")
	fmt.Printf("  max_parallel: %d\n", cfg.Orchestrator.MaxParallel)
	fmt.Printf("  stage_timeout: %s\n", cfg.Orchestrator.StageTimeout)

	fmt.Println("artifacts:")
	fmt.Printf("  backend: %s\n", cfg.Artifacts.Backend)
	dir := cfg.Artifacts.Dir
	if dir == "" {
		dir = "(default: ./runs)"
	}
	fmt.Printf("  dir: %s\n", dir)

	fmt.Println("report:")
	fmt.Printf("  metric_key: %s\n", cfg.Report.MetricKey)
	fmt.Printf("  metric_field: %s\n", cfg.Report.MetricField)
	title := cfg.Report.Title
	if title == "" {
		title = "(default: pipeline name)"
	}
	fmt.Printf("  title: %s\n", title)

	fmt.Println("publish:")
	fmt.Printf("  sink: %s\n", cfg.Publish.Sink)
	if cfg.Publish.Path != "" {
		fmt.Printf("  path: %s\n", cfg.Publish.Path)
	}
	if cfg.Publish.Command != "" {
		fmt.Printf("  command: %s\n", cfg.Publish.Command)
		if len(cfg.Publish.Args) > 0 {
			fmt.Printf("  args: %s\n", strings.Join(cfg.Publish.Args, " "))
		}
	}

	fmt.Println("logging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("  format: %s\n", cfg.Logging.Format)
	fmt.Printf("  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Printf("  max_backups: %d\n", cfg.Logging.MaxBackups)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"orchestrator.max_parallel":  "int",
		"orchestrator.stage_timeout": "duration",
		"artifacts.backend":          "string",
		"artifacts.dir":              "string",
		"report.metric_key":          "string",
		"report.metric_field":        "string",
		"report.title":               "string",
		"publish.sink":               "string",
		"publish.path":               "string",
		"publish.command":            "string",
		"logging.level":              "string",
		"logging.format":             "string",
		"logging.max_size_mb":        "int",
		"logging.max_backups":        "int",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'sweep config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		if err := checkConfigValue(key, value); err != nil {
			return err
		}
		typedValue = value
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	case "duration":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid value for %s: expected a duration like 90s or 5m", key)
		}
		typedValue = value
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	fmt.Printf("Config saved to %s\n", configFile)

	return nil
}

// checkConfigValue rejects values outside a key's allowed list.
func checkConfigValue(key, value string) error {
	lists := map[string][]string{
		"artifacts.backend": config.ValidBackends(),
		"publish.sink":      config.ValidSinks(),
		"logging.level":     config.ValidLogLevels(),
		"logging.format":    config.ValidLogFormats(),
	}
	allowed, ok := lists[key]
	if !ok {
		return nil
	}
	if !slices.Contains(allowed, strings.ToLower(value)) {
		return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
			key, value, strings.Join(allowed, ", "))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'sweep config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# Sweep configuration

# Orchestration settings
orchestrator:
  # Maximum number of variants running at once
  max_parallel: 4
  # Default timeout per stage (0 = unbounded); stages can override this
  stage_timeout: 0s

# Artifact storage
artifacts:
  # Backend: fs, sqlite, or mem (mem runs cannot be re-aggregated)
  backend: fs
  # Directory runs are created under (default: ./runs)
  # dir: ~/sweep-runs

# Report settings
report:
  # Artifact key holding each variant's metrics document
  metric_key: metrics.json
  # Field extracted from the metrics document for the summary table
  metric_field: accuracy
  # Report title (default: the pipeline name)
  # title: Nightly robustness sweep

# Report delivery
publish:
  # Sink: stdout, file, or command
  sink: stdout
  # path: reports/latest.md   (file sink destination)
  # command: gh               (command sink; the report arrives on stdin)
  # args: ["pr", "comment", "--body-file", "-"]

# Logging
logging:
  # debug, info, warn, or error
  level: info
  # json or text
  format: json
  # Rotate run.log beyond this size, keeping max_backups rotated files
  max_size_mb: 10
  max_backups: 3
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println("Edit this file to customize sweep's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Printf("  2. $HOME/.config/sweep/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Println("\nEnvironment variables: SWEEP_* (e.g., SWEEP_ORCHESTRATOR_MAX_PARALLEL)")

	return nil
}
