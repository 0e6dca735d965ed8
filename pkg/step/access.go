package step

import (
	"context"
	"errors"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
)

// ErrNoSession is the cause of failures raised by steps that need a browser
// session when the run has none.
var ErrNoSession = errors.New("no browser session")

// Get returns the current state.
func Get() Step[state.State] {
	return func(_ context.Context, s state.State, _ NoEnv) (state.State, state.State) {
		return s, s
	}
}

// Modify replaces the state with fn's result.
func Modify(fn func(state.State) state.State) Step[Unit] {
	return guard(func(_ context.Context, s state.State, _ NoEnv) (state.State, Unit) {
		return fn(s), Unit{}
	})
}

// Settings returns the run's settings.
func Settings() Step[config.Settings] {
	return Map(Get(), state.State.Settings)
}

// Config returns a config value, failing when key is unset.
func Config(key string) Step[string] {
	return guard(func(_ context.Context, s state.State, _ NoEnv) (state.State, string) {
		v, ok := s.Config(key)
		if !ok {
			return s.Fail(state.Assertion("config key %q is not set", key)), ""
		}
		return s, v
	})
}

// ConfigOr returns a config value, or def when key is unset.
func ConfigOr(key, def string) Step[string] {
	return Map(Get(), func(s state.State) string {
		if v, ok := s.Config(key); ok {
			return v
		}
		return def
	})
}

// SetConfig stores a config value for later steps.
func SetConfig(key, value string) Step[Unit] {
	return Modify(func(s state.State) state.State { return s.WithConfig(key, value) })
}

// Session returns the run's browser session.
func Session() Step[driver.Session] {
	return guard(func(_ context.Context, s state.State, _ NoEnv) (state.State, driver.Session) {
		if s.Session() == nil {
			return s.Fail(state.Capability("session", ErrNoSession)), nil
		}
		return s, s.Session()
	})
}

// Effect performs a call against the outside world. An error from fn faults
// the run; failures pass through unchanged and other errors become
// capability failures labelled label.
func Effect[A any](label string, fn func(ctx context.Context, s state.State) (A, error)) Step[A] {
	return guard(func(ctx context.Context, s state.State, _ NoEnv) (state.State, A) {
		v, err := fn(ctx, s)
		if err != nil {
			var zero A
			return s.Fail(state.FromError(label, err)), zero
		}
		return s, v
	})
}

// WithSession is Effect for calls that need the browser session.
func WithSession[A any](label string, fn func(ctx context.Context, session driver.Session) (A, error)) Step[A] {
	return Effect(label, func(ctx context.Context, s state.State) (A, error) {
		if s.Session() == nil {
			var zero A
			return zero, ErrNoSession
		}
		return fn(ctx, s.Session())
	})
}
