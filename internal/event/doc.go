// Package event provides a pub-sub event bus for decoupled inter-component
// communication in sweep.
//
// This package enables loose coupling between the orchestrator, variant
// runners, the TUI, and the publisher by allowing them to communicate
// through events rather than direct method calls. Components can publish
// events without knowing who will receive them, and subscribe to events
// without knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// The package defines several categories of events:
//
// Run Lifecycle:
//   - [RunStartedEvent]: Emitted when a run begins dispatching variants
//   - [RunFinishedEvent]: Emitted after all variants are terminal and the report is built
//
// Variant Lifecycle:
//   - [VariantStartedEvent]: Emitted when a variant pipeline begins execution
//   - [VariantFinishedEvent]: Emitted when a variant reaches a terminal state
//
// Stage Lifecycle:
//   - [StageStartedEvent]: Emitted when a stage begins executing
//   - [StageFinishedEvent]: Emitted when a stage finishes, succeeds or not
//
// Artifacts and Reporting:
//   - [ArtifactStoredEvent]: Emitted when an artifact is written
//   - [IsolationBreachEvent]: Emitted when a file appears in a terminal variant's namespace
//   - [ReportReadyEvent]: Emitted once the aggregator has produced the report
//   - [PublishFinishedEvent]: Emitted after a publish attempt
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("variant.finished", func(e event.Event) {
//	    finished := e.(event.VariantFinishedEvent)
//	    log.Printf("Variant %s finished as %s", finished.VariantID, finished.State)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Publish events
//	bus.Publish(event.NewVariantStartedEvent("sev-10", 2, nil))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("stage.finished", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - run.started, run.finished
//   - variant.started, variant.finished
//   - stage.started, stage.finished
//   - artifact.stored
//   - isolation.breach
//   - report.ready
//   - publish.finished
package event
