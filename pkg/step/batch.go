package step

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

// Sequence runs actions in order and stops at the first failure. The value is
// every result in order, or nil when one faulted.
func Sequence[E, A any](actions ...Action[E, A]) Action[E, []A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, []A) {
		out := make([]A, 0, len(actions))
		for _, a := range actions {
			var v A
			s, v = a(ctx, s, env)
			if s.Failed() {
				return s, nil
			}
			out = append(out, v)
		}
		return s, out
	})
}

// Traverse applies fn to every item and runs the resulting actions with
// Sequence.
func Traverse[E, T, A any](items []T, fn func(T) Action[E, A]) Action[E, []A] {
	actions := make([]Action[E, A], len(items))
	for i, item := range items {
		actions[i] = fn(item)
	}
	return Sequence(actions...)
}

// Collect runs every action even when earlier ones fault. Each action starts
// from the previous one's state with its errors cleared and logs into its own
// scope, which is merged into the caller's log afterwards. If any action
// faulted, the run ends in a single aggregate failure listing each member
// failure in order; the value always has one slot per action, zero where the
// action faulted.
func Collect[E, A any](actions ...Action[E, A]) Action[E, []A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, []A) {
		out := make([]A, len(actions))
		log := s.Log()
		var failures []*state.Failure
		failed := 0
		for i, a := range actions {
			next, v := a(ctx, s.WithLog(logtree.Empty(s.Depth())), env)
			log = log.Merge(next.Log())
			if next.Failed() {
				failures = append(failures, next.Errors()...)
				failed++
				next = next.ClearErrors()
			} else {
				out[i] = v
			}
			s = next
		}
		s = s.WithLog(log)
		if failed > 0 {
			msg := fmt.Sprintf("%d of %d steps failed", failed, len(actions))
			s = s.Fail(state.Aggregate(msg, failures))
		}
		return s, out
	})
}
