package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// StageError Tests
// -----------------------------------------------------------------------------

func TestNewStageError(t *testing.T) {
	cause := ErrStageFailed
	err := NewStageError("command exited non-zero", cause)

	if err.message != "command exited non-zero" {
		t.Errorf("message = %q, want %q", err.message, "command exited non-zero")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
	if err.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 (unset)", err.ExitCode)
	}
}

func TestStageError_WithMethods(t *testing.T) {
	err := NewStageError("test", nil).
		WithVariant("sev-10").
		WithStage("train").
		WithExitCode(2).
		WithSeverity(SeverityCritical).
		WithRetryable(true)

	if err.VariantID != "sev-10" {
		t.Errorf("VariantID = %q, want %q", err.VariantID, "sev-10")
	}
	if err.Stage != "train" {
		t.Errorf("Stage = %q, want %q", err.Stage, "train")
	}
	if err.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", err.ExitCode)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestStageError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StageError
		want string
	}{
		{
			name: "basic error",
			err:  NewStageError("test error", nil),
			want: "stage error: test error",
		},
		{
			name: "with cause",
			err:  NewStageError("test error", ErrStageFailed),
			want: "stage error: test error: stage failed",
		},
		{
			name: "with variant and stage",
			err:  NewStageError("test error", nil).WithVariant("sev-10").WithStage("train"),
			want: "stage error [variant=sev-10, stage=train]: test error",
		},
		{
			name: "with exit code and cause",
			err:  NewStageError("test error", ErrStageFailed).WithVariant("sev-0").WithExitCode(1),
			want: "stage error [variant=sev-0, exit=1]: test error: stage failed",
		},
		{
			name: "with output",
			err:  NewStageError("test error", nil).WithOutput("traceback here"),
			want: "stage error: test error\ncommand output: traceback here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStageError_Is(t *testing.T) {
	err := NewStageError("test", ErrStageFailed).WithVariant("sev-10")

	// Should match StageError type
	if !Is(err, &StageError{}) {
		t.Error("Is(StageError{}) = false, want true")
	}

	// Should match wrapped sentinel
	if !Is(err, ErrStageFailed) {
		t.Error("Is(ErrStageFailed) = false, want true")
	}

	// Should not match unrelated sentinel
	if Is(err, ErrKeyConflict) {
		t.Error("Is(ErrKeyConflict) = true, want false")
	}
}

func TestStageError_Unwrap(t *testing.T) {
	cause := ErrStageTimeout
	err := NewStageError("timed out", cause)

	if got := errors.Unwrap(err); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

// -----------------------------------------------------------------------------
// ConsistencyError Tests
// -----------------------------------------------------------------------------

func TestNewConsistencyError(t *testing.T) {
	err := NewConsistencyError("double write", ErrKeyConflict)

	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestConsistencyError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConsistencyError
		want string
	}{
		{
			name: "basic error",
			err:  NewConsistencyError("double write", nil),
			want: "consistency violation: double write",
		},
		{
			name: "with cause",
			err:  NewConsistencyError("double write", ErrKeyConflict),
			want: "consistency violation: double write: artifact key already written",
		},
		{
			name: "with full context",
			err: NewConsistencyError("double write", ErrKeyConflict).
				WithVariant("sev-10").WithKey("metrics").WithOp("put"),
			want: "consistency violation [variant=sev-10, key=metrics, op=put]: double write: artifact key already written",
		},
		{
			name: "post-terminal mutation",
			err: NewConsistencyError("write after terminal state", ErrVariantTerminal).
				WithVariant("sev-50").WithOp("put"),
			want: "consistency violation [variant=sev-50, op=put]: write after terminal state: variant already terminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsistencyError_Is(t *testing.T) {
	err := NewConsistencyError("double write", ErrKeyConflict).WithKey("metrics")

	if !Is(err, &ConsistencyError{}) {
		t.Error("Is(ConsistencyError{}) = false, want true")
	}
	if !Is(err, ErrKeyConflict) {
		t.Error("Is(ErrKeyConflict) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// PublishError Tests
// -----------------------------------------------------------------------------

func TestNewPublishError(t *testing.T) {
	err := NewPublishError("write failed", nil)

	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestPublishError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PublishError
		want string
	}{
		{
			name: "basic error",
			err:  NewPublishError("write failed", nil),
			want: "publish error: write failed",
		},
		{
			name: "with sink and destination",
			err: NewPublishError("write failed", nil).
				WithSink("file").WithDestination("/tmp/report.md"),
			want: "publish error [sink=file, dest=/tmp/report.md]: write failed",
		},
		{
			name: "with cause",
			err:  NewPublishError("command failed", ErrPublishFailed).WithSink("command"),
			want: "publish error [sink=command]: command failed: publish failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SpecError Tests
// -----------------------------------------------------------------------------

func TestSpecError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SpecError
		want string
	}{
		{
			name: "basic error",
			err:  NewSpecError("unknown policy", nil),
			want: "spec error: unknown policy",
		},
		{
			name: "with path and cause",
			err:  NewSpecError("unknown policy", ErrSpecInvalid).WithPath("pipeline.yaml"),
			want: "spec error [path=pipeline.yaml]: unknown policy: pipeline spec is invalid",
		},
		{
			name: "with variant and stage",
			err: NewSpecError("unknown policy", nil).
				WithVariant("sev-10").WithStage("train"),
			want: "spec error [variant=sev-10, stage=train]: unknown policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpecError_Is(t *testing.T) {
	err := NewSpecError("bad stage", nil).WithStage("train")

	// SpecError matches ErrSpecInvalid even without an explicit cause
	if !Is(err, ErrSpecInvalid) {
		t.Error("Is(ErrSpecInvalid) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("artifact", "metrics")

	want := "artifact 'metrics' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if err.ResourceType != "artifact" {
		t.Errorf("ResourceType = %q, want %q", err.ResourceType, "artifact")
	}
	if err.ResourceID != "metrics" {
		t.Errorf("ResourceID = %q, want %q", err.ResourceID, "metrics")
	}

	withCause := NewNotFoundError("variant", "sev-10").WithCause(ErrVariantNotFound)
	wantCause := "variant 'sev-10' not found: variant not found"
	if got := withCause.Error(); got != wantCause {
		t.Errorf("Error() = %q, want %q", got, wantCause)
	}
	if !Is(withCause, ErrVariantNotFound) {
		t.Error("Is(ErrVariantNotFound) = false, want true")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("run", "run-abc123")

	want := "run 'run-abc123' already exists"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !Is(err, &AlreadyExistsError{}) {
		t.Error("Is(AlreadyExistsError{}) = false, want true")
	}
}

func TestValidationError(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		err := NewValidationError("variant id cannot be empty")

		want := "validation error: variant id cannot be empty"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("with field and value", func(t *testing.T) {
		err := NewValidationError("must be positive").
			WithField("max_parallel").
			WithValue(-1)

		want := "validation error [field=max_parallel, value=-1]: must be positive"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("matches ErrInvalidInput", func(t *testing.T) {
		err := NewValidationError("bad input")
		if !Is(err, ErrInvalidInput) {
			t.Error("Is(ErrInvalidInput) = false, want true")
		}
	})
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for stage to finish", 30*time.Second)

	want := "timeout error: waiting for stage to finish (timeout: 30s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true for timeouts")
	}

	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("plain"), false},
		{"timeout error", NewTimeoutError("op", time.Second), true},
		{"wrapped ErrTimeout", fmt.Errorf("wrapped: %w", ErrTimeout), true},
		{"stage error default", NewStageError("failed", nil), false},
		{"stage error retryable", NewStageError("failed", nil).WithRetryable(true), true},
		{"publish error", NewPublishError("failed", nil), true},
		{"consistency error", NewConsistencyError("double write", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("plain"), false},
		{"stage error", NewStageError("failed", nil), true},
		{"consistency error", NewConsistencyError("double write", nil), true},
		{"validation error", NewValidationError("bad"), true},
		{"not found error", NewNotFoundError("artifact", "x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("plain"), false},
		{"stage error", NewStageError("failed", ErrStageFailed), false},
		{"publish error", NewPublishError("failed", nil), false},
		{"consistency error", NewConsistencyError("double write", ErrKeyConflict), true},
		{
			"wrapped consistency error",
			fmt.Errorf("run aborted: %w", NewConsistencyError("double write", nil)),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil error", nil, SeverityDebug},
		{"plain error", errors.New("plain"), SeverityError},
		{"stage error", NewStageError("failed", nil), SeverityError},
		{"consistency error", NewConsistencyError("double write", nil), SeverityCritical},
		{"publish error", NewPublishError("failed", nil), SeverityWarning},
		{"validation error", NewValidationError("bad"), SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(NewStageError("x", nil)) {
		t.Error("IsDomainError(StageError) = false, want true")
	}
	if !IsDomainError(NewConsistencyError("x", nil)) {
		t.Error("IsDomainError(ConsistencyError) = false, want true")
	}
	if !IsDomainError(NewPublishError("x", nil)) {
		t.Error("IsDomainError(PublishError) = false, want true")
	}
	if !IsDomainError(NewSpecError("x", nil)) {
		t.Error("IsDomainError(SpecError) = false, want true")
	}
	if IsDomainError(NewValidationError("x")) {
		t.Error("IsDomainError(ValidationError) = true, want false")
	}
	if IsDomainError(nil) {
		t.Error("IsDomainError(nil) = true, want false")
	}
}

func TestIsSemanticError(t *testing.T) {
	if !IsSemanticError(NewNotFoundError("a", "b")) {
		t.Error("IsSemanticError(NotFoundError) = false, want true")
	}
	if !IsSemanticError(NewValidationError("x")) {
		t.Error("IsSemanticError(ValidationError) = false, want true")
	}
	if IsSemanticError(NewStageError("x", nil)) {
		t.Error("IsSemanticError(StageError) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		base := ErrKeyConflict
		err := Wrap(base, "failed to store artifact")

		want := "failed to store artifact: artifact key already written"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !Is(err, ErrKeyConflict) {
			t.Error("wrapped error should match sentinel")
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if err := Wrap(nil, "context"); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})
}

func TestWrapf(t *testing.T) {
	t.Run("wraps with format", func(t *testing.T) {
		base := ErrStageFailed
		err := Wrapf(base, "failed to run stage %s", "train")

		want := "failed to run stage train: stage failed"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if err := Wrapf(nil, "context %d", 1); err != nil {
			t.Errorf("Wrapf(nil) = %v, want nil", err)
		}
	})
}

// -----------------------------------------------------------------------------
// Interface Compliance
// -----------------------------------------------------------------------------

func TestSweepErrorInterface(t *testing.T) {
	// All domain errors must implement SweepError
	var _ SweepError = (*StageError)(nil)
	var _ SweepError = (*ConsistencyError)(nil)
	var _ SweepError = (*PublishError)(nil)
	var _ SweepError = (*SpecError)(nil)
	var _ SweepError = (*NotFoundError)(nil)
	var _ SweepError = (*AlreadyExistsError)(nil)
	var _ SweepError = (*ValidationError)(nil)
	var _ SweepError = (*TimeoutError)(nil)
}
