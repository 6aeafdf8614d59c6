package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

// fieldsOf collects the Field values of a validation result.
func fieldsOf(errs []ValidationError) []string {
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	return fields
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "max_parallel zero",
			mutate:    func(c *Config) { c.Orchestrator.MaxParallel = 0 },
			wantField: "orchestrator.max_parallel",
		},
		{
			name:      "max_parallel negative",
			mutate:    func(c *Config) { c.Orchestrator.MaxParallel = -2 },
			wantField: "orchestrator.max_parallel",
		},
		{
			name:      "max_parallel above limit",
			mutate:    func(c *Config) { c.Orchestrator.MaxParallel = 1000 },
			wantField: "orchestrator.max_parallel",
		},
		{
			name:      "negative stage timeout",
			mutate:    func(c *Config) { c.Orchestrator.StageTimeout = -time.Second },
			wantField: "orchestrator.stage_timeout",
		},
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.Artifacts.Backend = "s3" },
			wantField: "artifacts.backend",
		},
		{
			name:      "empty backend",
			mutate:    func(c *Config) { c.Artifacts.Backend = "" },
			wantField: "artifacts.backend",
		},
		{
			name:      "metric key with path separator",
			mutate:    func(c *Config) { c.Report.MetricKey = "../metrics.json" },
			wantField: "report.metric_key",
		},
		{
			name:      "unknown sink",
			mutate:    func(c *Config) { c.Publish.Sink = "slack" },
			wantField: "publish.sink",
		},
		{
			name:      "file sink without path",
			mutate:    func(c *Config) { c.Publish.Sink = "file" },
			wantField: "publish.path",
		},
		{
			name:      "command sink without command",
			mutate:    func(c *Config) { c.Publish.Sink = "command" },
			wantField: "publish.command",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Logging.Level = "trace" },
			wantField: "logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Logging.Format = "xml" },
			wantField: "logging.format",
		},
		{
			name:      "negative max size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = -1 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "negative max backups",
			mutate:    func(c *Config) { c.Logging.MaxBackups = -1 },
			wantField: "logging.max_backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatalf("Validate() found no errors, want one on %s", tt.wantField)
			}
			found := false
			for _, f := range fieldsOf(errs) {
				if f == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors on %v, want %s", fieldsOf(errs), tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_AcceptsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"defaults", func(c *Config) {}},
		{"mem backend", func(c *Config) { c.Artifacts.Backend = "mem" }},
		{"sqlite backend", func(c *Config) { c.Artifacts.Backend = "sqlite" }},
		{"file sink with path", func(c *Config) {
			c.Publish.Sink = "file"
			c.Publish.Path = "out/report.md"
		}},
		{"command sink with command", func(c *Config) {
			c.Publish.Sink = "command"
			c.Publish.Command = "tee"
		}},
		{"uppercase log level", func(c *Config) { c.Logging.Level = "DEBUG" }},
		{"stage timeout set", func(c *Config) { c.Orchestrator.StageTimeout = 5 * time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			if errs := cfg.Validate(); len(errs) != 0 {
				t.Errorf("Validate() = %v, want no errors", ValidationErrors(errs))
			}
		})
	}
}

func TestValidLists(t *testing.T) {
	if got := ValidBackends(); len(got) != 3 {
		t.Errorf("ValidBackends() = %v, want fs, sqlite, mem", got)
	}
	if got := ValidSinks(); len(got) != 3 {
		t.Errorf("ValidSinks() = %v, want stdout, file, command", got)
	}
	if got := ValidLogLevels(); len(got) != 4 {
		t.Errorf("ValidLogLevels() = %v, want debug, info, warn, error", got)
	}
	if got := ValidLogFormats(); len(got) != 2 {
		t.Errorf("ValidLogFormats() = %v, want json, text", got)
	}
}
