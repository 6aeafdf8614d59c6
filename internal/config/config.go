package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete sweep configuration
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Artifacts    ArtifactsConfig    `mapstructure:"artifacts"`
	Report       ReportConfig       `mapstructure:"report"`
	Publish      PublishConfig      `mapstructure:"publish"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// OrchestratorConfig controls variant dispatch
type OrchestratorConfig struct {
	// MaxParallel caps how many variants run concurrently (default: 4)
	MaxParallel int `mapstructure:"max_parallel"`
	// StageTimeout applies to stages that set no timeout of their own and
	// whose pipeline sets no default. Zero means no timeout.
	// Accepts duration strings like "90s" or "5m".
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
}

// ArtifactsConfig controls where runs and their artifacts are stored
type ArtifactsConfig struct {
	// Backend is the artifact store backend: "fs", "sqlite", or "mem"
	// (default: "fs"). The mem backend keeps artifacts in memory only;
	// such runs cannot be re-aggregated with `sweep report`.
	Backend string `mapstructure:"backend"`
	// Dir is the directory run directories are created under.
	// If empty, defaults to "runs" relative to the working directory.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
}

// ReportConfig controls aggregation and rendering
type ReportConfig struct {
	// MetricKey is the artifact key holding each variant's metrics
	// (default: "metrics.json")
	MetricKey string `mapstructure:"metric_key"`
	// MetricField is the field extracted from the metric artifact
	// (default: "accuracy")
	MetricField string `mapstructure:"metric_field"`
	// Title overrides the pipeline name as the report title
	Title string `mapstructure:"title"`
}

// PublishConfig controls where the finished report goes
type PublishConfig struct {
	// Sink is the publish destination type: "stdout", "file", or "command"
	// (default: "stdout")
	Sink string `mapstructure:"sink"`
	// Path is the output file for the file sink
	Path string `mapstructure:"path"`
	// Command is the program the command sink pipes the report into
	Command string `mapstructure:"command"`
	// Args are extra arguments for the command sink
	Args []string `mapstructure:"args"`
}

// LoggingConfig controls run log output
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is the log format: "json" or "text" (default: "json")
	Format string `mapstructure:"format"`
	// MaxSizeMB is the maximum run log size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// ResolveDir returns the resolved runs directory path.
// If Dir is empty, it returns the default path relative to baseDir.
// If Dir starts with ~, it expands to the user's home directory.
// If Dir is a relative path, it's resolved relative to baseDir.
func (a *ArtifactsConfig) ResolveDir(baseDir string) string {
	if a.Dir == "" {
		return filepath.Join(baseDir, "runs")
	}

	path := a.Dir

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxParallel:  4,
			StageTimeout: 0, // No cap unless the pipeline or a stage sets one
		},
		Artifacts: ArtifactsConfig{
			Backend: "fs",
			Dir:     "", // Empty means use default: ./runs
		},
		Report: ReportConfig{
			MetricKey:   "metrics.json",
			MetricField: "accuracy",
			Title:       "", // Empty means use the pipeline name
		},
		Publish: PublishConfig{
			Sink:    "stdout",
			Path:    "",
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Orchestrator defaults
	viper.SetDefault("orchestrator.max_parallel", defaults.Orchestrator.MaxParallel)
	viper.SetDefault("orchestrator.stage_timeout", defaults.Orchestrator.StageTimeout)

	// Artifact store defaults
	viper.SetDefault("artifacts.backend", defaults.Artifacts.Backend)
	viper.SetDefault("artifacts.dir", defaults.Artifacts.Dir)

	// Report defaults
	viper.SetDefault("report.metric_key", defaults.Report.MetricKey)
	viper.SetDefault("report.metric_field", defaults.Report.MetricField)
	viper.SetDefault("report.title", defaults.Report.Title)

	// Publish defaults
	viper.SetDefault("publish.sink", defaults.Publish.Sink)
	viper.SetDefault("publish.path", defaults.Publish.Path)
	viper.SetDefault("publish.command", defaults.Publish.Command)
	viper.SetDefault("publish.args", defaults.Publish.Args)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sweep")
	}
	// Fall back to ~/.config/sweep
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sweep"
	}
	return filepath.Join(home, ".config", "sweep")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
