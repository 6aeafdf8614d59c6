// Package logging provides structured logging for sweep runs.
//
// This package wraps Go's log/slog to provide JSON or text formatted logs
// with attribute propagation for debugging and post-hoc analysis. It is
// designed to help troubleshoot multi-variant runs by providing structured,
// filterable logs that can be analyzed after the fact.
//
// # Features
//
//   - JSON or text structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Attribute propagation (run ID, variant ID, stage)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for a run directory:
//
//	logger, err := logging.NewLogger("/path/to/run", "INFO", "json")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	// Log messages at various levels
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("stage completed", "duration_ms", 150)
//	logger.Warn("soft failure", "stage", "validate")
//	logger.Error("stage failed", "error", err.Error())
//
// # Attribute Propagation
//
// Create child loggers with persistent attributes:
//
//	// Add run context
//	runLogger := logger.WithRun("run-abc123")
//
//	// Add variant context
//	variantLogger := runLogger.WithVariant("sev-10")
//
//	// Add stage context
//	stageLogger := variantLogger.WithStage("train")
//
//	// All logs from stageLogger will include run_id, variant_id, and stage
//	stageLogger.Info("artifact stored", "key", "metrics")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"artifact stored","run_id":"run-abc123","variant_id":"sev-10","stage":"train","key":"metrics"}
//
// # Log Rotation
//
// For long runs, use log rotation to prevent unbounded growth:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10,    // Rotate when file exceeds 10MB
//	    MaxBackups: 3,     // Keep 3 backup files
//	    Compress:   true,  // Gzip compress rotated files
//	}
//
//	logger, err := logging.NewRotatingLogger("/path/to/run", "INFO", "json", config)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// Rotated files are named: run.log.1, run.log.2, etc., where .1 is the
// most recent backup. When compression is enabled, rotated files become
// run.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NopLogger()
//	    // Use logger in tests without creating files
//	}
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after a run:
//
//	// Load all logs from a run directory
//	entries, err := logging.AggregateLogs("/path/to/run")
//	if err != nil {
//	    return err
//	}
//
//	// Filter logs by various criteria
//	filter := logging.LogFilter{
//	    Level:     "WARN",     // Minimum level
//	    VariantID: "sev-10",   // Specific variant
//	    Stage:     "validate", // Specific stage
//	    StartTime: time.Now().Add(-1 * time.Hour),  // Last hour
//	}
//	filtered := logging.FilterLogs(entries, filter)
//
//	// Export to various formats
//	logging.ExportLogEntries(filtered, "errors.json", "json")
//	logging.ExportLogEntries(filtered, "errors.txt", "text")
//	logging.ExportLogEntries(filtered, "errors.csv", "csv")
//
// # Log Levels
//
// The package defines four log levels:
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
//
// # Configuration
//
// The logging system is typically configured via sweep's config file:
//
//	logging:
//	  level: info
//	  format: json
//	  max_size_mb: 10
//	  max_backups: 3
//
// See the sweep README for complete configuration documentation.
package logging
