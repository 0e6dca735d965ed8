// Package state holds the immutable run state threaded through every step.
package state

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/types"
)

// State is a snapshot of a run. It is a value: every update returns a new
// State and never writes into memory reachable from another one.
type State struct {
	session  driver.Session
	config   map[string]string
	errs     []*Failure
	log      logtree.Log
	settings config.Settings
	depth    int
}

// New returns an empty state with the given settings.
func New(settings config.Settings) State {
	return State{settings: settings.WithDefaults()}
}

// Session returns the session handle, which may be nil.
func (s State) Session() driver.Session { return s.session }

// Settings returns the run settings.
func (s State) Settings() config.Settings { return s.settings }

// Log returns the log accumulated at the current scope.
func (s State) Log() logtree.Log { return s.log }

// Depth returns the current context nesting depth.
func (s State) Depth() int { return s.depth }

// Config returns the configuration value for key.
func (s State) Config(key string) (string, bool) {
	v, ok := s.config[key]
	return v, ok
}

// ConfigMap returns a copy of the configuration mapping.
func (s State) ConfigMap() map[string]string {
	return maps.Clone(s.config)
}

// Failed reports whether the state carries any error.
func (s State) Failed() bool { return len(s.errs) > 0 }

// Errors returns a copy of the ordered error records.
func (s State) Errors() []*Failure { return slices.Clone(s.errs) }

// Err returns nil, the single failure, or all failures joined in order.
func (s State) Err() error {
	switch len(s.errs) {
	case 0:
		return nil
	case 1:
		return s.errs[0]
	default:
		errs := make([]error, len(s.errs))
		for i, f := range s.errs {
			errs[i] = f
		}
		return errors.Join(errs...)
	}
}

// WithSession returns a copy holding session.
func (s State) WithSession(session driver.Session) State {
	s.session = session
	return s
}

// WithSettings returns a copy holding settings.
func (s State) WithSettings(settings config.Settings) State {
	s.settings = settings.WithDefaults()
	return s
}

// WithConfig returns a copy with key set to value.
func (s State) WithConfig(key, value string) State {
	next := make(map[string]string, len(s.config)+1)
	maps.Copy(next, s.config)
	next[key] = value
	s.config = next
	return s
}

// WithLog returns a copy holding log.
func (s State) WithLog(log logtree.Log) State {
	s.log = log
	return s
}

// WithErrors returns a copy whose error records are replaced by errs.
func (s State) WithErrors(errs []*Failure) State {
	s.errs = slices.Clone(errs)
	return s
}

// ClearErrors returns a copy with no error records.
func (s State) ClearErrors() State {
	s.errs = nil
	return s
}

// Append adds a leaf to the log and emits it.
func (s State) Append(kind logtree.Kind, message string) State {
	s.log = s.log.Append(kind, message)
	s.settings.Log(logtree.FormatLine(kind, message, 0), s.depth)
	s.settings.Emit(types.NewAppendEvent(kind.String(), message, s.depth))
	return s
}

// Fail records failures, logs them as error leaves and emits them.
func (s State) Fail(failures ...*Failure) State {
	for _, f := range failures {
		if f == nil {
			continue
		}
		s = s.Append(logtree.KindError, f.Error())
		s.errs = append(slices.Clip(s.errs), f)
		s.settings.Emit(types.NewFailureEvent(f, s.depth))
	}
	return s
}

// Push enters a context: it emits the label and returns the state in which
// the scope's steps run, with an empty log one level deeper.
func (s State) Push(label string) State {
	s.settings.Log(label, s.depth)
	s.settings.Emit(types.NewPushEvent(label, s.depth))
	s.log = logtree.Empty(s.depth + 1)
	s.depth++
	return s
}

// Pop leaves a context entered from outer. The inner log is nested under
// label in outer's log and every failure raised inside gains label as its
// outermost breadcrumb.
func (s State) Pop(outer State, label string) State {
	inner := s.log
	s.depth = outer.depth
	s.log = outer.log.Nest(label, inner)
	if len(s.errs) > 0 {
		crumbed := make([]*Failure, len(s.errs))
		for i, f := range s.errs {
			crumbed[i] = f.WithCrumb(label)
		}
		s.errs = crumbed
	}
	s.settings.Emit(types.NewPopEvent(label, s.depth))
	return s
}

// Release quits the session when the settings ask for it. The returned state
// no longer holds the session.
func (s State) Release(ctx context.Context) (State, error) {
	if !s.settings.QuitOnFinish || s.session == nil {
		return s, nil
	}
	err := s.session.Quit(ctx)
	s.session = nil
	return s, err
}
