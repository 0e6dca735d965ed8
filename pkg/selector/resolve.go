package selector

import (
	"time"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// Finder performs element queries for a handle type.
type Finder[H any] interface {
	Find(by driver.By) step.Step[[]H]
	FindWithin(parent H, by driver.By) step.Step[[]H]
}

// current is the result set threaded through resolution. A nil set means
// nothing has been queried yet.
type current[H any] struct {
	set []H
	ok  bool
}

// Resolve returns the step that runs sel against f. Operations run left to
// right. Resolving the identity selector yields an empty set.
func Resolve[H any](sel Selector[H], f Finder[H]) step.Step[[]H] {
	acc := step.Pure(current[H]{})
	for _, op := range sel.ops {
		acc = step.Bind(acc, func(cur current[H]) step.Step[current[H]] {
			return apply(op, cur, f)
		})
	}
	return step.Map(acc, func(cur current[H]) []H {
		if cur.set == nil {
			return []H{}
		}
		return cur.set
	})
}

func apply[H any](op Op[H], cur current[H], f Finder[H]) step.Step[current[H]] {
	if op.Kind != OpCriterion && !cur.ok {
		return step.FailWith[current[H]](state.Resolution("%s cannot run standalone: nothing was selected before it", op))
	}

	switch op.Kind {
	case OpCriterion:
		if !cur.ok {
			return step.Map(f.Find(op.By), found[H])
		}
		within := step.Traverse(cur.set, func(parent H) step.Step[[]H] {
			return f.FindWithin(parent, op.By)
		})
		return step.Map(within, func(groups [][]H) current[H] {
			var union []H
			for _, g := range groups {
				union = append(union, g...)
			}
			return found(union)
		})

	case OpFilter:
		return step.Then(op.Predicate(cur.set), step.Pure(cur))

	case OpWait:
		check := step.Attempt(step.Silent(op.Predicate(cur.set)))
		waited := step.WaitUntilWith(check,
			func(r step.Attempted[step.Unit]) bool { return !r.OK() },
			op.Interval, op.Timeout,
			func(last step.Attempted[step.Unit], elapsed time.Duration) *state.Failure {
				f := state.Timeout("timed out after %s waiting for %s", elapsed.Round(time.Millisecond), op.Description)
				if err := last.Err(); err != nil {
					f.Message += ": " + err.Error()
				}
				return f
			})
		return step.Then(waited, step.Pure(cur))

	case OpIndex:
		if op.Index < 0 || op.Index >= len(cur.set) {
			return step.FailWith[current[H]](state.Resolution(
				"no element at index %d: %d element(s) matched", op.Index, len(cur.set)))
		}
		return step.Pure(found([]H{cur.set[op.Index]}))

	default:
		return step.Failf[current[H]]("unknown selector operation %s", op.Kind)
	}
}

func found[H any](set []H) current[H] {
	if set == nil {
		set = []H{}
	}
	return current[H]{set: set, ok: true}
}

// Found is an optional element.
type Found[H any] struct {
	Elem H
	OK   bool
}

// ExactlyOne resolves sel and fails unless exactly one element matched.
func ExactlyOne[H any](sel Selector[H], f Finder[H]) step.Step[H] {
	return step.Bind(Resolve(sel, f), func(set []H) step.Step[H] {
		if len(set) != 1 {
			return step.FailWith[H](state.Resolution("expected exactly one element for %s, found %d", sel, len(set)))
		}
		return step.Pure(set[0])
	})
}

// FirstOrFail resolves sel and returns the first match, failing when there
// is none.
func FirstOrFail[H any](sel Selector[H], f Finder[H]) step.Step[H] {
	return step.Bind(Resolve(sel, f), func(set []H) step.Step[H] {
		if len(set) == 0 {
			return step.FailWith[H](state.Resolution("no element found for %s", sel))
		}
		return step.Pure(set[0])
	})
}

// FirstOrNone resolves sel and returns the first match if there is one. Only
// failures of the resolution itself fault the run.
func FirstOrNone[H any](sel Selector[H], f Finder[H]) step.Step[Found[H]] {
	return step.Map(Resolve(sel, f), func(set []H) Found[H] {
		if len(set) == 0 {
			return Found[H]{}
		}
		return Found[H]{Elem: set[0], OK: true}
	})
}
