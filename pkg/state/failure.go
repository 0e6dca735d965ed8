package state

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a step faulted.
type FailureKind int

const (
	// KindAssertion is an explicit failure raised by a step.
	KindAssertion FailureKind = iota
	// KindCapability is an error returned by the browser driver.
	KindCapability
	// KindTimeout is a wait that exceeded its total duration.
	KindTimeout
	// KindResolution is a selector that matched the wrong number of
	// elements, an index out of range, or a step with no preceding query.
	KindResolution
	// KindAggregate holds the failures of a Collect.
	KindAggregate
)

// String returns the kind name.
func (k FailureKind) String() string {
	switch k {
	case KindAssertion:
		return "assertion"
	case KindCapability:
		return "capability"
	case KindTimeout:
		return "timeout"
	case KindResolution:
		return "resolution"
	case KindAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// BreadcrumbSeparator joins context labels in a failure message.
const BreadcrumbSeparator = " → "

// Failure is a single error record of a run.
type Failure struct {
	Kind    FailureKind
	Message string

	// Cause is the underlying error for capability failures.
	Cause error

	// Crumbs are the labels of the enclosing contexts, outermost first.
	Crumbs []string

	// Nested holds the member failures of an aggregate.
	Nested []*Failure
}

// NewFailure creates a failure of the given kind.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// Assertion creates an assertion failure.
func Assertion(format string, args ...any) *Failure {
	return NewFailure(KindAssertion, fmt.Sprintf(format, args...))
}

// Capability wraps a driver error with a descriptive label.
func Capability(label string, cause error) *Failure {
	return &Failure{Kind: KindCapability, Message: label, Cause: cause}
}

// Timeout creates a timeout failure.
func Timeout(format string, args ...any) *Failure {
	return NewFailure(KindTimeout, fmt.Sprintf(format, args...))
}

// Resolution creates a resolution failure.
func Resolution(format string, args ...any) *Failure {
	return NewFailure(KindResolution, fmt.Sprintf(format, args...))
}

// Aggregate combines failures into one, preserving order.
func Aggregate(message string, failures []*Failure) *Failure {
	return &Failure{Kind: KindAggregate, Message: message, Nested: failures}
}

// FromError converts an arbitrary error into a failure. Failures are returned
// as-is; anything else becomes a capability failure labelled label.
func FromError(label string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return Capability(label, err)
}

// Error renders `message[: cause][ (A → B → C)]`. Aggregates render their
// members in order after the message.
func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Message)
	if f.Cause != nil {
		if f.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(f.Cause.Error())
	}
	if len(f.Nested) > 0 {
		parts := make([]string, len(f.Nested))
		for i, n := range f.Nested {
			parts[i] = n.Error()
		}
		if f.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(strings.Join(parts, "; "))
	}
	if len(f.Crumbs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(f.Crumbs, BreadcrumbSeparator))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes the cause and nested failures to errors.Is and errors.As.
func (f *Failure) Unwrap() []error {
	var errs []error
	if f.Cause != nil {
		errs = append(errs, f.Cause)
	}
	for _, n := range f.Nested {
		errs = append(errs, n)
	}
	return errs
}

// WithCrumb returns a copy with label prepended to the breadcrumb.
func (f *Failure) WithCrumb(label string) *Failure {
	c := *f
	c.Crumbs = append([]string{label}, f.Crumbs...)
	return &c
}

// Is matches another failure of the same kind and message, ignoring crumbs.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && t.Message == f.Message
}

// KindOf returns the kind of the first failure in err's chain.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// IsTimeout reports whether err is or wraps a timeout failure.
func IsTimeout(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindTimeout
}
