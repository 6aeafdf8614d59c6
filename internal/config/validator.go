package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "orchestrator.max_parallel")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidBackends returns the list of valid artifact store backends
func ValidBackends() []string {
	return []string{"fs", "sqlite", "mem"}
}

// ValidSinks returns the list of valid publish sinks
func ValidSinks() []string {
	return []string{"stdout", "file", "command"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"json", "text"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateOrchestrator()...)
	errors = append(errors, c.validateArtifacts()...)
	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validatePublish()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateOrchestrator validates the OrchestratorConfig
func (c *Config) validateOrchestrator() []ValidationError {
	var errors []ValidationError

	if c.Orchestrator.MaxParallel < 1 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.max_parallel",
			Value:   c.Orchestrator.MaxParallel,
			Message: "must be at least 1",
		})
	}

	// Reasonable upper bound: each variant is a subprocess chain
	const maxParallelLimit = 256
	if c.Orchestrator.MaxParallel > maxParallelLimit {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.max_parallel",
			Value:   c.Orchestrator.MaxParallel,
			Message: fmt.Sprintf("exceeds maximum of %d", maxParallelLimit),
		})
	}

	if c.Orchestrator.StageTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.stage_timeout",
			Value:   c.Orchestrator.StageTimeout,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateArtifacts validates the ArtifactsConfig
func (c *Config) validateArtifacts() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), c.Artifacts.Backend) {
		errors = append(errors, ValidationError{
			Field:   "artifacts.backend",
			Value:   c.Artifacts.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	return errors
}

// validateReport validates the ReportConfig
func (c *Config) validateReport() []ValidationError {
	var errors []ValidationError

	// Metric keys double as artifact keys, which become file names in the
	// fs backend. Path separators would break namespace isolation.
	if strings.ContainsAny(c.Report.MetricKey, `/\`) {
		errors = append(errors, ValidationError{
			Field:   "report.metric_key",
			Value:   c.Report.MetricKey,
			Message: "must not contain path separators",
		})
	}

	return errors
}

// validatePublish validates the PublishConfig
func (c *Config) validatePublish() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidSinks(), c.Publish.Sink) {
		errors = append(errors, ValidationError{
			Field:   "publish.sink",
			Value:   c.Publish.Sink,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSinks(), ", ")),
		})
	}

	if c.Publish.Sink == "file" && c.Publish.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "publish.path",
			Value:   c.Publish.Path,
			Message: "required when publish.sink is \"file\"",
		})
	}

	if c.Publish.Sink == "command" && c.Publish.Command == "" {
		errors = append(errors, ValidationError{
			Field:   "publish.command",
			Value:   c.Publish.Command,
			Message: "required when publish.sink is \"command\"",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
