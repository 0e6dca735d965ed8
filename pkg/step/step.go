package step

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/state"
)

// Action is a computation reading an environment of type E and producing a
// value of type A while threading the run state.
type Action[E, A any] func(ctx context.Context, s state.State, env E) (state.State, A)

// NoEnv is the environment of actions that read none.
type NoEnv struct{}

// Step is an Action without an environment.
type Step[A any] = Action[NoEnv, A]

// Unit is the value of actions run only for their effect.
type Unit struct{}

// Run executes the action from s.
func (a Action[E, A]) Run(ctx context.Context, s state.State, env E) (state.State, A) {
	return a(ctx, s, env)
}

// Or is shorthand for step.Or(a, other).
func (a Action[E, A]) Or(other Action[E, A]) Action[E, A] {
	return Or(a, other)
}

// In is shorthand for step.Context(label, a).
func (a Action[E, A]) In(label string) Action[E, A] {
	return Context(label, a)
}

// guard skips fn entirely when the incoming state has already faulted.
func guard[E, A any](fn Action[E, A]) Action[E, A] {
	return func(ctx context.Context, s state.State, env E) (state.State, A) {
		if s.Failed() {
			var zero A
			return s, zero
		}
		return fn(ctx, s, env)
	}
}

// Pure returns v without touching the state.
func Pure[A any](v A) Step[A] {
	return func(_ context.Context, s state.State, _ NoEnv) (state.State, A) {
		return s, v
	}
}

// Done is Pure(Unit{}).
func Done() Step[Unit] {
	return Pure(Unit{})
}

// Fail faults the state with an assertion failure.
func Fail[A any](message string) Step[A] {
	return FailWith[A](state.Assertion("%s", message))
}

// Failf faults the state with a formatted assertion failure.
func Failf[A any](format string, args ...any) Step[A] {
	return FailWith[A](state.Assertion(format, args...))
}

// FailWith faults the state with f.
func FailWith[A any](f *state.Failure) Step[A] {
	return guard(func(_ context.Context, s state.State, _ NoEnv) (state.State, A) {
		var zero A
		return s.Fail(f), zero
	})
}

// Map applies fn to the value of a.
func Map[E, A, B any](a Action[E, A], fn func(A) B) Action[E, B] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, B) {
		next, v := a(ctx, s, env)
		if next.Failed() {
			var zero B
			return next, zero
		}
		return next, fn(v)
	})
}

// Bind runs a, then the action fn builds from its value. fn is not called
// when a faults.
func Bind[E, A, B any](a Action[E, A], fn func(A) Action[E, B]) Action[E, B] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, B) {
		next, v := a(ctx, s, env)
		if next.Failed() {
			var zero B
			return next, zero
		}
		return fn(v)(ctx, next, env)
	})
}

// Then runs a, then b, keeping b's value.
func Then[E, A, B any](a Action[E, A], b Action[E, B]) Action[E, B] {
	return Bind(a, func(A) Action[E, B] { return b })
}

// Before runs a, then b, keeping a's value.
func Before[E, A, B any](a Action[E, A], b Action[E, B]) Action[E, A] {
	return Bind(a, func(v A) Action[E, A] {
		return Map(b, func(B) A { return v })
	})
}

// Discard drops the value of a.
func Discard[E, A any](a Action[E, A]) Action[E, Unit] {
	return Map(a, func(A) Unit { return Unit{} })
}

// Or runs lhs; if it faults, rhs runs from the state lhs started from, so
// anything lhs did to the state is dropped. If both fault the state carries
// lhs's failures followed by rhs's.
func Or[E, A any](lhs, rhs Action[E, A]) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		left, v := lhs(ctx, s, env)
		if !left.Failed() {
			return left, v
		}
		right, w := rhs(ctx, s, env)
		if !right.Failed() {
			return right, w
		}
		errs := append(left.Errors(), right.Errors()...)
		return right.WithErrors(errs), w
	})
}

// FirstOf tries each alternative in order with Or.
func FirstOf[E, A any](first Action[E, A], rest ...Action[E, A]) Action[E, A] {
	out := first
	for _, alt := range rest {
		out = Or(out, alt)
	}
	return out
}

// Recover runs a; if it faults, handler builds an action from the failures
// that runs from the state a started from.
func Recover[E, A any](a Action[E, A], handler func([]*state.Failure) Action[E, A]) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		next, v := a(ctx, s, env)
		if !next.Failed() {
			return next, v
		}
		return handler(next.Errors())(ctx, s, env)
	})
}

// Attempted is the outcome of Attempt.
type Attempted[A any] struct {
	Value    A
	Failures []*state.Failure
}

// OK reports whether the attempt succeeded.
func (r Attempted[A]) OK() bool { return len(r.Failures) == 0 }

// Err returns the attempt's failures as an error, or nil.
func (r Attempted[A]) Err() error {
	switch len(r.Failures) {
	case 0:
		return nil
	case 1:
		return r.Failures[0]
	default:
		return state.Aggregate(fmt.Sprintf("%d failures", len(r.Failures)), r.Failures)
	}
}

// Attempt runs a and never faults: failures are returned as a value and the
// state rolls back to where a started.
func Attempt[E, A any](a Action[E, A]) Action[E, Attempted[A]] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, Attempted[A]) {
		next, v := a(ctx, s, env)
		if next.Failed() {
			return s, Attempted[A]{Failures: next.Errors()}
		}
		return next, Attempted[A]{Value: v}
	})
}

// When runs a only if cond holds.
func When[E any](cond bool, a Action[E, Unit]) Action[E, Unit] {
	if cond {
		return a
	}
	return func(_ context.Context, s state.State, _ E) (state.State, Unit) {
		return s, Unit{}
	}
}

// Ensure faults with an assertion failure when check rejects the value of a.
// check returns the failure message, or "" to accept.
func Ensure[E, A any](a Action[E, A], check func(A) string) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		next, v := a(ctx, s, env)
		if next.Failed() {
			return next, v
		}
		if msg := check(v); msg != "" {
			var zero A
			return next.Fail(state.Assertion("%s", msg)), zero
		}
		return next, v
	})
}

// Silent runs a without streaming its log lines or events to the settings'
// sinks. The log tree still records them.
func Silent[E, A any](a Action[E, A]) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		settings := s.Settings()
		quiet := settings
		quiet.LoggingAction = nil
		quiet.LogStream = nil
		quiet.ErrorStream = nil
		out, v := a(ctx, s.WithSettings(quiet), env)
		return out.WithSettings(settings), v
	})
}
