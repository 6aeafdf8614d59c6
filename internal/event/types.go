package event

import (
	"time"
)

// Event is the interface all events must implement.
type Event interface {
	// EventType returns a string identifying the type of event.
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common event functionality.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

// EventType returns the event type string.
func (e baseEvent) EventType() string {
	return e.eventType
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a base event with the current timestamp.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// RunStartedEvent is emitted when a run begins dispatching variants.
type RunStartedEvent struct {
	baseEvent
	RunID        string
	Pipeline     string
	VariantCount int
	MaxParallel  int
}

// NewRunStartedEvent creates a new RunStartedEvent.
func NewRunStartedEvent(runID, pipeline string, variantCount, maxParallel int) RunStartedEvent {
	return RunStartedEvent{
		baseEvent:    newBaseEvent("run.started"),
		RunID:        runID,
		Pipeline:     pipeline,
		VariantCount: variantCount,
		MaxParallel:  maxParallel,
	}
}

// RunFinishedEvent is emitted after every variant has reached a terminal
// state and the report has been built.
type RunFinishedEvent struct {
	baseEvent
	RunID      string
	Succeeded  int
	SoftFailed int
	HardFailed int
	Cancelled  int
	Duration   time.Duration
}

// NewRunFinishedEvent creates a new RunFinishedEvent.
func NewRunFinishedEvent(runID string, succeeded, softFailed, hardFailed, cancelled int, duration time.Duration) RunFinishedEvent {
	return RunFinishedEvent{
		baseEvent:  newBaseEvent("run.finished"),
		RunID:      runID,
		Succeeded:  succeeded,
		SoftFailed: softFailed,
		HardFailed: hardFailed,
		Cancelled:  cancelled,
		Duration:   duration,
	}
}

// VariantStartedEvent is emitted when a variant pipeline begins execution.
type VariantStartedEvent struct {
	baseEvent
	VariantID string
	Index     int // Dispatch order position, 0-based
	Params    map[string]string
}

// NewVariantStartedEvent creates a new VariantStartedEvent.
func NewVariantStartedEvent(variantID string, index int, params map[string]string) VariantStartedEvent {
	return VariantStartedEvent{
		baseEvent: newBaseEvent("variant.started"),
		VariantID: variantID,
		Index:     index,
		Params:    params,
	}
}

// VariantFinishedEvent is emitted when a variant reaches a terminal state.
type VariantFinishedEvent struct {
	baseEvent
	VariantID string
	State     string // Terminal state name: SUCCEEDED, SOFT_FAILED, HARD_FAILED, CANCELLED
	Duration  time.Duration
}

// NewVariantFinishedEvent creates a new VariantFinishedEvent.
func NewVariantFinishedEvent(variantID, state string, duration time.Duration) VariantFinishedEvent {
	return VariantFinishedEvent{
		baseEvent: newBaseEvent("variant.finished"),
		VariantID: variantID,
		State:     state,
		Duration:  duration,
	}
}

// StageStartedEvent is emitted when a stage begins executing inside a variant.
type StageStartedEvent struct {
	baseEvent
	VariantID string
	Stage     string
	Index     int // Position within the variant's stage list, 0-based
	Total     int // Total number of stages in the variant
}

// NewStageStartedEvent creates a new StageStartedEvent.
func NewStageStartedEvent(variantID, stage string, index, total int) StageStartedEvent {
	return StageStartedEvent{
		baseEvent: newBaseEvent("stage.started"),
		VariantID: variantID,
		Stage:     stage,
		Index:     index,
		Total:     total,
	}
}

// StageStatus identifies how a stage finished.
type StageStatus string

const (
	// StageSucceeded means the stage command exited zero.
	StageSucceeded StageStatus = "succeeded"
	// StageFailed means the stage command exited non-zero or timed out.
	StageFailed StageStatus = "failed"
	// StageCancelled means the stage never ran because the variant was cancelled.
	StageCancelled StageStatus = "cancelled"
)

// StageFinishedEvent is emitted when a stage finishes, succeeds or not.
type StageFinishedEvent struct {
	baseEvent
	VariantID string
	Stage     string
	Status    StageStatus
	Policy    string // "hard" or "soft"
	ExitCode  int
	Artifacts int // Number of artifacts the stage stored
	Duration  time.Duration
	Error     string // Error detail when Status is StageFailed
}

// NewStageFinishedEvent creates a new StageFinishedEvent.
func NewStageFinishedEvent(variantID, stage string, status StageStatus, policy string, exitCode, artifacts int, duration time.Duration, errMsg string) StageFinishedEvent {
	return StageFinishedEvent{
		baseEvent: newBaseEvent("stage.finished"),
		VariantID: variantID,
		Stage:     stage,
		Status:    status,
		Policy:    policy,
		ExitCode:  exitCode,
		Artifacts: artifacts,
		Duration:  duration,
		Error:     errMsg,
	}
}

// ArtifactStoredEvent is emitted when an artifact is written into a
// variant's namespace.
type ArtifactStoredEvent struct {
	baseEvent
	VariantID string
	Key       string
	Size      int64
}

// NewArtifactStoredEvent creates a new ArtifactStoredEvent.
func NewArtifactStoredEvent(variantID, key string, size int64) ArtifactStoredEvent {
	return ArtifactStoredEvent{
		baseEvent: newBaseEvent("artifact.stored"),
		VariantID: variantID,
		Key:       key,
		Size:      size,
	}
}

// ReportReadyEvent is emitted once the aggregator has produced the report.
type ReportReadyEvent struct {
	baseEvent
	RunID      string
	Rows       int // Summary rows, one per variant
	Incomplete int // Rows whose variant stopped before running every stage
}

// NewReportReadyEvent creates a new ReportReadyEvent.
func NewReportReadyEvent(runID string, rows, incomplete int) ReportReadyEvent {
	return ReportReadyEvent{
		baseEvent:  newBaseEvent("report.ready"),
		RunID:      runID,
		Rows:       rows,
		Incomplete: incomplete,
	}
}

// PublishFinishedEvent is emitted after a publish attempt, successful or not.
type PublishFinishedEvent struct {
	baseEvent
	Sink        string
	Destination string
	Success     bool
	Error       string // Error detail when Success is false
	Duration    time.Duration
}

// NewPublishFinishedEvent creates a new PublishFinishedEvent.
func NewPublishFinishedEvent(sink, destination string, success bool, errMsg string, duration time.Duration) PublishFinishedEvent {
	return PublishFinishedEvent{
		baseEvent:   newBaseEvent("publish.finished"),
		Sink:        sink,
		Destination: destination,
		Success:     success,
		Error:       errMsg,
		Duration:    duration,
	}
}

// IsolationBreachEvent is emitted by the artifact monitor when a file
// appears under a namespace whose variant is already terminal. It is a
// diagnostic signal; the store's own checks are the enforcement point.
type IsolationBreachEvent struct {
	baseEvent
	VariantID string
	Path      string
}

// NewIsolationBreachEvent creates a new IsolationBreachEvent.
func NewIsolationBreachEvent(variantID, path string) IsolationBreachEvent {
	return IsolationBreachEvent{
		baseEvent: newBaseEvent("isolation.breach"),
		VariantID: variantID,
		Path:      path,
	}
}
