package config

import (
	"fmt"
	"time"

	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/types"
)

const (
	// DefaultWait is the total time a wait step polls before timing out.
	DefaultWait = 10 * time.Second

	// DefaultInterval is the pause between two polls of a wait step.
	DefaultInterval = 250 * time.Millisecond
)

// LoggingAction receives each rendered log line as it is produced, together
// with its indent level.
type LoggingAction func(text string, indent int)

// FailureAction receives the failure and the complete log tree when a run
// ends in error.
type FailureAction func(err error, log logtree.Log)

// EventSink receives structured run events in real time.
type EventSink func(event types.RunEvent)

// Settings is the recognised configuration surface of a run.
type Settings struct {
	// Wait is the default total wait duration for polling steps.
	Wait time.Duration `yaml:"wait" json:"wait"`

	// Interval is the default pause between polls.
	Interval time.Duration `yaml:"interval" json:"interval"`

	// QuitOnFinish releases the session when the run ends. The session is
	// owned by the caller otherwise.
	QuitOnFinish bool `yaml:"quit_on_finish" json:"quit_on_finish"`

	LoggingAction LoggingAction `yaml:"-" json:"-"`
	FailureAction FailureAction `yaml:"-" json:"-"`
	LogStream     EventSink     `yaml:"-" json:"-"`
	ErrorStream   EventSink     `yaml:"-" json:"-"`
}

// DefaultSettings returns settings with default durations and no sinks.
func DefaultSettings() Settings {
	return Settings{
		Wait:     DefaultWait,
		Interval: DefaultInterval,
	}
}

// WithDefaults fills zero durations with their defaults.
func (s Settings) WithDefaults() Settings {
	if s.Wait <= 0 {
		s.Wait = DefaultWait
	}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	return s
}

// Validate validates the settings.
func (s Settings) Validate() error {
	if s.Wait < 0 {
		return fmt.Errorf("wait must not be negative, got %v", s.Wait)
	}
	if s.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %v", s.Interval)
	}
	if s.Wait > 0 && s.Interval > s.Wait {
		return fmt.Errorf("interval (%v) must not exceed wait (%v)", s.Interval, s.Wait)
	}
	return nil
}

// Log forwards a rendered line to the logging action, if any.
func (s Settings) Log(text string, indent int) {
	if s.LoggingAction != nil {
		s.LoggingAction(text, indent)
	}
}

// Emit forwards an event to the log stream, and failure events also to the
// error stream.
func (s Settings) Emit(event types.RunEvent) {
	if s.LogStream != nil {
		s.LogStream(event)
	}
	if event.IsFailure() && s.ErrorStream != nil {
		s.ErrorStream(event)
	}
}

// Fail forwards a terminal failure to the failure action, if any.
func (s Settings) Fail(err error, log logtree.Log) {
	if s.FailureAction != nil {
		s.FailureAction(err, log)
	}
}
