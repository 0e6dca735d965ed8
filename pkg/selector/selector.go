// Package selector is a composable, lazily resolved description of how to
// locate elements. A Selector is an ordered list of operations; nothing is
// queried until Resolve turns it into a step. The package is generic over
// the element handle type so every backend shares one algebra.
package selector

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/step"
)

// OpKind identifies the variant of an Op.
type OpKind int

const (
	// OpCriterion queries elements by a locator.
	OpCriterion OpKind = iota
	// OpFilter checks the current set once.
	OpFilter
	// OpWait checks the current set until it passes or times out.
	OpWait
	// OpIndex narrows the current set to one element.
	OpIndex
)

func (k OpKind) String() string {
	switch k {
	case OpCriterion:
		return "criterion"
	case OpFilter:
		return "filter"
	case OpWait:
		return "wait"
	case OpIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Predicate checks a result set. It faults when the set is rejected and
// leaves the set untouched otherwise.
type Predicate[H any] func(set []H) step.Step[step.Unit]

// Op is one operation of a Selector.
type Op[H any] struct {
	Kind        OpKind
	By          driver.By
	Predicate   Predicate[H]
	Description string
	Interval    time.Duration
	Timeout     time.Duration
	Index       int
}

// Criterion queries elements matching by. Applied after other operations it
// searches within every element of the current set.
func Criterion[H any](by driver.By) Op[H] {
	return Op[H]{Kind: OpCriterion, By: by, Description: by.String()}
}

// Filter checks the current set with pred.
func Filter[H any](pred Predicate[H], desc string) Op[H] {
	return Op[H]{Kind: OpFilter, Predicate: pred, Description: desc}
}

// Wait retries pred against the current set. Zero durations use the run's
// settings.
func Wait[H any](pred Predicate[H], desc string, interval, timeout time.Duration) Op[H] {
	return Op[H]{Kind: OpWait, Predicate: pred, Description: desc, Interval: interval, Timeout: timeout}
}

// Index selects the element at a zero-based position of the current set.
func Index[H any](i int, desc string) Op[H] {
	if desc == "" {
		desc = fmt.Sprintf("[%d]", i)
	}
	return Op[H]{Kind: OpIndex, Index: i, Description: desc}
}

func (o Op[H]) String() string {
	switch o.Kind {
	case OpCriterion, OpIndex:
		return o.Description
	default:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Description)
	}
}

// Selector is an immutable, ordered list of operations. The zero value is the
// identity selector.
type Selector[H any] struct {
	ops []Op[H]
}

// New returns a selector running ops in order.
func New[H any](ops ...Op[H]) Selector[H] {
	return Selector[H]{ops: slices.Clone(ops)}
}

// Identity returns the selector with no operations.
func Identity[H any]() Selector[H] {
	return Selector[H]{}
}

// Concat joins selectors left to right.
func Concat[H any](sels ...Selector[H]) Selector[H] {
	out := Identity[H]()
	for _, s := range sels {
		out = out.Plus(s)
	}
	return out
}

// Plus returns the selector running s and then other.
func (s Selector[H]) Plus(other Selector[H]) Selector[H] {
	return s.With(other.ops...)
}

// With returns the selector with ops appended.
func (s Selector[H]) With(ops ...Op[H]) Selector[H] {
	if len(ops) == 0 {
		return s
	}
	return Selector[H]{ops: append(slices.Clip(s.ops), ops...)}
}

// Find appends a criterion.
func (s Selector[H]) Find(by driver.By) Selector[H] {
	return s.With(Criterion[H](by))
}

// Filter appends a filter.
func (s Selector[H]) Filter(pred Predicate[H], desc string) Selector[H] {
	return s.With(Filter(pred, desc))
}

// Wait appends a wait.
func (s Selector[H]) Wait(pred Predicate[H], desc string, interval, timeout time.Duration) Selector[H] {
	return s.With(Wait(pred, desc, interval, timeout))
}

// Index appends an index selection.
func (s Selector[H]) Index(i int) Selector[H] {
	return s.With(Index[H](i, ""))
}

// Ops returns a copy of the operations.
func (s Selector[H]) Ops() []Op[H] {
	return slices.Clone(s.ops)
}

// Len returns the number of operations.
func (s Selector[H]) Len() int {
	return len(s.ops)
}

// IsIdentity reports whether the selector has no operations.
func (s Selector[H]) IsIdentity() bool {
	return len(s.ops) == 0
}

func (s Selector[H]) String() string {
	if len(s.ops) == 0 {
		return "identity"
	}
	parts := make([]string, len(s.ops))
	for i, o := range s.ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, " > ")
}
