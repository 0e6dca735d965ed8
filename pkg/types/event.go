package types

import "time"

// RunEventType defines the type of event emitted while a run executes.
type RunEventType string

const (
	EventTypeAppend  RunEventType = "append"  // EventTypeAppend indicates a leaf line was added to the run log.
	EventTypePush    RunEventType = "push"    // EventTypePush indicates a named context was entered.
	EventTypePop     RunEventType = "pop"     // EventTypePop indicates a named context was exited.
	EventTypeFailure RunEventType = "failure" // EventTypeFailure indicates a step faulted.
)

// RunEvent represents a record emitted in real time during a run, independent
// of the log tree that is assembled for the final report.
type RunEvent struct {
	// Time is when the event was emitted.
	Time time.Time

	// Error holds the failure for failure events.
	Error error

	// Type indicates the kind of event.
	Type RunEventType

	// Kind is the log severity ("context", "info", "warn", "error").
	Kind string

	// Message is the log text or context label.
	Message string

	// Indent is the nesting depth at which the event happened.
	Indent int
}

// NewAppendEvent creates a leaf log event.
func NewAppendEvent(kind, message string, indent int) RunEvent {
	return RunEvent{
		Type:    EventTypeAppend,
		Kind:    kind,
		Message: message,
		Indent:  indent,
		Time:    time.Now(),
	}
}

// NewPushEvent creates a context-enter event.
func NewPushEvent(label string, indent int) RunEvent {
	return RunEvent{
		Type:    EventTypePush,
		Kind:    "context",
		Message: label,
		Indent:  indent,
		Time:    time.Now(),
	}
}

// NewPopEvent creates a context-exit event.
func NewPopEvent(label string, indent int) RunEvent {
	return RunEvent{
		Type:    EventTypePop,
		Kind:    "context",
		Message: label,
		Indent:  indent,
		Time:    time.Now(),
	}
}

// NewFailureEvent creates a failure event.
func NewFailureEvent(err error, indent int) RunEvent {
	return RunEvent{
		Type:    EventTypeFailure,
		Kind:    "error",
		Message: err.Error(),
		Error:   err,
		Indent:  indent,
		Time:    time.Now(),
	}
}

// IsFailure reports whether the event carries a failure.
func (e RunEvent) IsFailure() bool {
	return e.Type == EventTypeFailure
}
