// Package errors provides centralized error definitions and error handling utilities
// for the sweep codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - StageError: errors raised while executing a pipeline stage
//   - ConsistencyError: violations of artifact store or state machine invariants
//   - PublishError: errors raised while publishing a report
//   - SpecError: errors related to pipeline spec loading and validation
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewStageError("command exited non-zero", errors.ErrStageFailed)
//
//	// Semantic error
//	err := errors.NewNotFoundError("artifact", "metrics")
//
//	// With context wrapping
//	err := errors.NewStageError("timed out", baseErr).WithVariant("sev-10").WithStage("train")
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrKeyConflict) { ... }
//
//	// Check for error types
//	var consErr *errors.ConsistencyError
//	if errors.As(err, &consErr) { ... }
//
//	// Use classification helpers
//	if errors.IsRetryable(err) { ... }
//	if errors.IsFatal(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Fatal: errors that must abort the whole run rather than a single variant
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Artifact store sentinel errors
var (
	// ErrKeyConflict indicates a second write to an artifact key that was
	// already written in the same variant namespace.
	ErrKeyConflict = New("artifact key already written")
	// ErrArtifactNotFound indicates that an artifact key has not been written.
	ErrArtifactNotFound = New("artifact not found")
	// ErrUnknownVariant indicates an access to a namespace that was never registered.
	ErrUnknownVariant = New("unknown variant namespace")
	// ErrStoreClosed indicates an operation on a store that has been closed.
	ErrStoreClosed = New("artifact store closed")
)

// Variant lifecycle sentinel errors
var (
	// ErrVariantTerminal indicates a mutation attempted after a variant
	// reached a terminal state.
	ErrVariantTerminal = New("variant already terminal")
	// ErrInvalidTransition indicates a state transition the lifecycle does not allow.
	ErrInvalidTransition = New("invalid state transition")
	// ErrVariantNotFound indicates that a variant could not be found.
	ErrVariantNotFound = New("variant not found")
)

// Stage execution sentinel errors
var (
	// ErrStageFailed indicates that a stage command exited unsuccessfully.
	ErrStageFailed = New("stage failed")
	// ErrStageTimeout indicates that a stage exceeded its time budget.
	ErrStageTimeout = New("stage timed out")
	// ErrEmptyCommand indicates a stage with no command to execute.
	ErrEmptyCommand = New("stage command is empty")
)

// Spec sentinel errors
var (
	// ErrSpecInvalid indicates that a pipeline spec failed validation.
	ErrSpecInvalid = New("pipeline spec is invalid")
	// ErrNoVariants indicates a pipeline spec with an empty variant list.
	ErrNoVariants = New("pipeline spec has no variants")
	// ErrDuplicateVariant indicates two variants resolving to the same ID.
	ErrDuplicateVariant = New("duplicate variant id")
	// ErrDuplicateStage indicates two stages sharing a name within a pipeline.
	ErrDuplicateStage = New("duplicate stage name")
)

// Publish sentinel errors
var (
	// ErrPublishFailed indicates that a report could not be delivered to its sink.
	ErrPublishFailed = New("publish failed")
	// ErrUnknownSink indicates a publish sink name that is not configured.
	ErrUnknownSink = New("unknown publish sink")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// SweepError is the base interface for all sweep errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type SweepError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// StageError represents errors raised while executing a pipeline stage.
// A StageError is recorded in the stage's result; it never aborts the
// run on its own.
//
// Example:
//
//	err := errors.NewStageError("command exited non-zero", errors.ErrStageFailed)
//	err = err.WithVariant("sev-10").WithStage("train").WithExitCode(2)
//	fmt.Println(err) // "stage error [variant=sev-10, stage=train, exit=2]: command exited non-zero: stage failed"
type StageError struct {
	baseError
	VariantID string
	Stage     string
	ExitCode  int
	Output    string // Tail of captured command output
}

// NewStageError creates a new StageError.
func NewStageError(message string, cause error) *StageError {
	return &StageError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		ExitCode: -1, // -1 indicates not set
	}
}

// WithVariant adds a variant ID to the error context.
func (e *StageError) WithVariant(id string) *StageError {
	e.VariantID = id
	return e
}

// WithStage adds a stage name to the error context.
func (e *StageError) WithStage(stage string) *StageError {
	e.Stage = stage
	return e
}

// WithExitCode adds the command exit code to the error context.
func (e *StageError) WithExitCode(code int) *StageError {
	e.ExitCode = code
	return e
}

// WithOutput adds the tail of the captured command output to the error context.
func (e *StageError) WithOutput(output string) *StageError {
	e.Output = output
	return e
}

// WithSeverity sets the error severity.
func (e *StageError) WithSeverity(s Severity) *StageError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StageError) WithRetryable(r bool) *StageError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *StageError) Error() string {
	var parts []string
	if e.VariantID != "" {
		parts = append(parts, fmt.Sprintf("variant=%s", e.VariantID))
	}
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := "stage error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("stage error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\ncommand output: %s", msg, e.Output)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *StageError) Is(target error) bool {
	if _, ok := target.(*StageError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ConsistencyError represents a violation of the artifact store or state
// machine invariants: a double write to an artifact key, a write into a
// terminal variant's namespace, or a disallowed state transition. These
// indicate a bug in the orchestrator itself, so they are fatal to the
// whole run and must never be absorbed into a variant result.
//
// Example:
//
//	err := errors.NewConsistencyError("double write", errors.ErrKeyConflict)
//	err = err.WithVariant("sev-10").WithKey("metrics").WithOp("put")
type ConsistencyError struct {
	baseError
	VariantID string
	Key       string
	Op        string // Operation that tripped the invariant, e.g. "put", "transition"
}

// NewConsistencyError creates a new ConsistencyError.
func NewConsistencyError(message string, cause error) *ConsistencyError {
	return &ConsistencyError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithVariant adds a variant ID to the error context.
func (e *ConsistencyError) WithVariant(id string) *ConsistencyError {
	e.VariantID = id
	return e
}

// WithKey adds an artifact key to the error context.
func (e *ConsistencyError) WithKey(key string) *ConsistencyError {
	e.Key = key
	return e
}

// WithOp adds the violating operation to the error context.
func (e *ConsistencyError) WithOp(op string) *ConsistencyError {
	e.Op = op
	return e
}

// Error returns the formatted error message.
func (e *ConsistencyError) Error() string {
	var parts []string
	if e.VariantID != "" {
		parts = append(parts, fmt.Sprintf("variant=%s", e.VariantID))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	prefix := "consistency violation"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("consistency violation [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ConsistencyError) Is(target error) bool {
	if _, ok := target.(*ConsistencyError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PublishError represents errors raised while publishing a report to a
// sink. Publishing is best-effort, so these never change the outcome of
// a run.
//
// Example:
//
//	err := errors.NewPublishError("write failed", baseErr)
//	err = err.WithSink("file").WithDestination("/tmp/report.md")
type PublishError struct {
	baseError
	Sink        string
	Destination string
}

// NewPublishError creates a new PublishError.
func NewPublishError(message string, cause error) *PublishError {
	return &PublishError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true, // Sinks are external, a retry may succeed
			userFacing: true,
		},
	}
}

// WithSink adds the sink name to the error context.
func (e *PublishError) WithSink(sink string) *PublishError {
	e.Sink = sink
	return e
}

// WithDestination adds the sink destination to the error context.
func (e *PublishError) WithDestination(dest string) *PublishError {
	e.Destination = dest
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *PublishError) WithRetryable(r bool) *PublishError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *PublishError) Error() string {
	var parts []string
	if e.Sink != "" {
		parts = append(parts, fmt.Sprintf("sink=%s", e.Sink))
	}
	if e.Destination != "" {
		parts = append(parts, fmt.Sprintf("dest=%s", e.Destination))
	}

	prefix := "publish error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("publish error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PublishError) Is(target error) bool {
	if _, ok := target.(*PublishError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SpecError represents errors related to pipeline spec loading and validation.
//
// Example:
//
//	err := errors.NewSpecError("unknown policy", errors.ErrSpecInvalid)
//	err = err.WithPath("pipeline.yaml").WithVariant("sev-10").WithStage("train")
type SpecError struct {
	baseError
	Path    string
	Variant string
	Stage   string
}

// NewSpecError creates a new SpecError.
func NewSpecError(message string, cause error) *SpecError {
	return &SpecError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithPath adds the spec file path to the error context.
func (e *SpecError) WithPath(path string) *SpecError {
	e.Path = path
	return e
}

// WithVariant adds a variant ID to the error context.
func (e *SpecError) WithVariant(id string) *SpecError {
	e.Variant = id
	return e
}

// WithStage adds a stage name to the error context.
func (e *SpecError) WithStage(stage string) *SpecError {
	e.Stage = stage
	return e
}

// Error returns the formatted error message.
func (e *SpecError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Variant != "" {
		parts = append(parts, fmt.Sprintf("variant=%s", e.Variant))
	}
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}

	prefix := "spec error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("spec error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SpecError) Is(target error) bool {
	if _, ok := target.(*SpecError); ok {
		return true
	}
	if errors.Is(target, ErrSpecInvalid) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("artifact", "metrics")
//	fmt.Println(err) // "artifact 'metrics' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("run", "run-abc123")
//	fmt.Println(err) // "run 'run-abc123' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("variant id cannot be empty")
//	err = err.WithField("variants[0].id").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for stage to finish", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for stage to finish (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true, // Timeouts are generally retryable
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// WithRetryable sets whether the error is retryable (default true for timeouts).
func (e *TimeoutError) WithRetryable(r bool) *TimeoutError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing SweepError with IsRetryable() returning true
//   - TimeoutError instances
//   - Errors wrapping ErrTimeout
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements SweepError
	var sweepErr SweepError
	if As(err, &sweepErr) {
		return sweepErr.IsRetryable()
	}

	// Check for known retryable sentinel errors
	if Is(err, ErrTimeout) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing SweepError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, AlreadyExistsError, ValidationError, TimeoutError)
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    displayToUser(err.Error())
//	} else {
//	    displayToUser("An internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements SweepError
	var sweepErr SweepError
	if As(err, &sweepErr) {
		return sweepErr.IsUserFacing()
	}

	// Semantic errors are always user-facing
	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	if As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout) {
		return true
	}

	return false
}

// IsFatal returns true if the error must abort the entire run rather than
// a single variant. Consistency violations are the only fatal class: they
// mean the orchestrator's own invariants were broken and any report built
// from the store would be untrustworthy.
//
// Example:
//
//	if errors.IsFatal(err) {
//	    return err // escalate, do not aggregate
//	}
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var consErr *ConsistencyError
	return As(err, &consErr)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement SweepError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    alertOnCall(err)
//	case errors.SeverityError:
//	    log.Error("error occurred", "err", err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// Check if error implements SweepError
	var sweepErr SweepError
	if As(err, &sweepErr) {
		return sweepErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// IsDomainError returns true if the error is a domain-specific error
// (StageError, ConsistencyError, PublishError, or SpecError).
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var stageErr *StageError
	var consErr *ConsistencyError
	var publishErr *PublishError
	var specErr *SpecError

	return As(err, &stageErr) || As(err, &consErr) ||
		As(err, &publishErr) || As(err, &specErr)
}

// IsSemanticError returns true if the error is a semantic error
// (NotFoundError, AlreadyExistsError, ValidationError, or TimeoutError).
func IsSemanticError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	return As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this preserves the SweepError interface.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to collect outputs")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to run stage %s", stageName)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
