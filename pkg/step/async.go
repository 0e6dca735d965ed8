package step

import (
	"context"
	"errors"

	"github.com/entrhq/stepwise/pkg/state"
)

// Outcome is the result delivered by a Future.
type Outcome[A any] struct {
	Value A
	Err   error
}

// Future delivers exactly one Outcome.
type Future[A any] <-chan Outcome[A]

// Go runs fn on its own goroutine and returns a Future for its result.
func Go[A any](ctx context.Context, fn func(context.Context) (A, error)) Future[A] {
	ch := make(chan Outcome[A], 1)
	go func() {
		v, err := fn(ctx)
		ch <- Outcome[A]{Value: v, Err: err}
	}()
	return ch
}

// Resolved returns a Future that is already complete.
func Resolved[A any](v A, err error) Future[A] {
	ch := make(chan Outcome[A], 1)
	ch <- Outcome[A]{Value: v, Err: err}
	return ch
}

var errFutureClosed = errors.New("future closed without a result")

// Await starts an asynchronous call and suspends the run until it completes.
// A failed call, or a cancelled context, faults the run with a failure
// labelled label.
func Await[A any](label string, start func(ctx context.Context, s state.State) Future[A]) Step[A] {
	return guard(func(ctx context.Context, s state.State, _ NoEnv) (state.State, A) {
		var zero A
		select {
		case o, ok := <-start(ctx, s):
			if !ok {
				return s.Fail(state.Capability(label, errFutureClosed)), zero
			}
			if o.Err != nil {
				return s.Fail(state.FromError(label, o.Err)), zero
			}
			return s, o.Value
		case <-ctx.Done():
			return s.Fail(state.Capability(label, ctx.Err())), zero
		}
	})
}
