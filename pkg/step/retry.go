package step

import (
	"context"
	"time"

	"github.com/entrhq/stepwise/pkg/state"
)

// TimeoutFunc builds the failure raised when WaitUntilWith gives up. last is
// the value of the final attempt.
type TimeoutFunc[A any] func(last A, elapsed time.Duration) *state.Failure

// WaitUntil repeats a while continueIf holds for its value, sleeping interval
// between attempts, and fails with a timeout failure once timeout has
// elapsed. A failing attempt stops the loop at once. A zero interval or
// timeout falls back to the run's settings.
func WaitUntil[E, A any](a Action[E, A], continueIf func(A) bool, interval, timeout time.Duration) Action[E, A] {
	return WaitUntilWith(a, continueIf, interval, timeout, nil)
}

// WaitUntilWith is WaitUntil with a custom timeout failure.
func WaitUntilWith[E, A any](a Action[E, A], continueIf func(A) bool, interval, timeout time.Duration, onTimeout TimeoutFunc[A]) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		var zero A
		every, limit := interval, timeout
		if every <= 0 {
			every = s.Settings().Interval
		}
		if limit <= 0 {
			limit = s.Settings().Wait
		}

		start := time.Now()
		for {
			next, v := a(ctx, s, env)
			if next.Failed() || !continueIf(v) {
				return next, v
			}
			s = next

			elapsed := time.Since(start)
			if elapsed >= limit {
				f := state.Timeout("timed out after %s", limit)
				if onTimeout != nil {
					f = onTimeout(v, elapsed)
				}
				return s.Fail(f), zero
			}
			if err := sleep(ctx, min(every, limit-elapsed)); err != nil {
				return s.Fail(state.Capability("wait interrupted", err)), zero
			}
		}
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DoWhile repeats a while continueIf holds, at most maxCount times, and
// returns the last value. It never sleeps. a always runs at least once, so a
// maxCount below one counts as one.
func DoWhile[E, A any](a Action[E, A], continueIf func(A) bool, maxCount int) Action[E, A] {
	return doWhile(a, continueIf, maxCount, "")
}

// DoWhileOrFail is DoWhile that fails with message when the count runs out
// and continueIf still holds. The same one-attempt minimum applies.
func DoWhileOrFail[E, A any](a Action[E, A], continueIf func(A) bool, maxCount int, message string) Action[E, A] {
	if message == "" {
		message = "condition still held after maximum attempts"
	}
	return doWhile(a, continueIf, maxCount, message)
}

func doWhile[E, A any](a Action[E, A], continueIf func(A) bool, maxCount int, message string) Action[E, A] {
	attempts := max(maxCount, 1)
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		var last A
		for i := 0; i < attempts; i++ {
			var v A
			s, v = a(ctx, s, env)
			if s.Failed() || !continueIf(v) {
				return s, v
			}
			last = v
		}
		if message != "" {
			var zero A
			return s.Fail(state.Assertion("%s (%d attempts)", message, attempts)), zero
		}
		return s, last
	})
}
