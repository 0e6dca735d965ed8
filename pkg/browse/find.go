package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/selector"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// Selector locates elements of the run's session.
type Selector = selector.Selector[driver.Element]

// Predicate checks a set of elements.
type Predicate = selector.Predicate[driver.Element]

// sessionFinder queries the session held by the run state.
type sessionFinder struct{}

func (sessionFinder) Find(by driver.By) step.Step[[]driver.Element] {
	return find(by, nil)
}

func (sessionFinder) FindWithin(parent driver.Element, by driver.By) step.Step[[]driver.Element] {
	return find(by, parent)
}

func find(by driver.By, within driver.Element) step.Step[[]driver.Element] {
	return step.WithSession("find "+by.String(), func(ctx context.Context, s driver.Session) ([]driver.Element, error) {
		if err := by.Valid(); err != nil {
			return nil, err
		}
		return s.FindElements(ctx, by, within)
	})
}

// Finder is the element finder used by every selector in this package.
var Finder selector.Finder[driver.Element] = sessionFinder{}

// Locate returns a selector for elements matching by.
func Locate(by driver.By) Selector {
	return selector.New(selector.Criterion[driver.Element](by))
}

// CSS selects by CSS selector.
func CSS(sel string) Selector { return Locate(driver.ByCSS(sel)) }

// XPath selects by XPath expression.
func XPath(expr string) Selector { return Locate(driver.ByXPath(expr)) }

// ID selects by element id.
func ID(id string) Selector { return Locate(driver.ByID(id)) }

// Name selects by name attribute.
func Name(name string) Selector { return Locate(driver.ByName(name)) }

// Tag selects by tag name.
func Tag(tag string) Selector { return Locate(driver.ByTagName(tag)) }

// Class selects by class name.
func Class(class string) Selector { return Locate(driver.ByClassName(class)) }

// LinkText selects links whose text equals text.
func LinkText(text string) Selector { return Locate(driver.ByLinkText(text)) }

// PartialLinkText selects links whose text contains text.
func PartialLinkText(text string) Selector { return Locate(driver.ByPartialLinkText(text)) }

// At narrows the current set to the element at index i.
func At(i int) Selector {
	return selector.New(selector.Index[driver.Element](i, ""))
}

// every checks each element of a set with probe. probe returns a reason when
// the element is rejected.
func every(label string, probe func(ctx context.Context, el driver.Element) (string, error)) Predicate {
	return func(set []driver.Element) step.Step[step.Unit] {
		return step.Effect(label, func(ctx context.Context, _ state.State) (step.Unit, error) {
			for i, el := range set {
				reason, err := probe(ctx, el)
				if err != nil {
					return step.Unit{}, err
				}
				if reason != "" {
					return step.Unit{}, state.Assertion("element %d of %d %s", i+1, len(set), reason)
				}
			}
			return step.Unit{}, nil
		})
	}
}

func displayed(ctx context.Context, el driver.Element) (string, error) {
	ok, err := el.Displayed(ctx)
	if err != nil || ok {
		return "", err
	}
	return "is not displayed", nil
}

func enabled(ctx context.Context, el driver.Element) (string, error) {
	ok, err := el.Enabled(ctx)
	if err != nil || ok {
		return "", err
	}
	return "is not enabled", nil
}

// Displayed requires every element of the current set to be displayed.
func Displayed() Selector {
	return selector.New(selector.Filter(every("check displayed", displayed), "displayed"))
}

// Enabled requires every element of the current set to be enabled.
func Enabled() Selector {
	return selector.New(selector.Filter(every("check enabled", enabled), "enabled"))
}

// HasText requires the text of every element of the current set to contain
// text.
func HasText(text string) Selector {
	pred := every("check text", func(ctx context.Context, el driver.Element) (string, error) {
		got, err := el.Text(ctx)
		if err != nil || strings.Contains(got, text) {
			return "", err
		}
		return fmt.Sprintf("has text %q, not containing %q", got, text), nil
	})
	return selector.New(selector.Filter(pred, fmt.Sprintf("has text %q", text)))
}

// Count requires the current set to have exactly n elements.
func Count(n int) Selector {
	pred := func(set []driver.Element) step.Step[step.Unit] {
		if len(set) != n {
			return step.Failf[step.Unit]("expected %d element(s), found %d", n, len(set))
		}
		return step.Done()
	}
	return selector.New(selector.Filter(pred, fmt.Sprintf("count %d", n)))
}

// WaitDisplayed waits until every element of the current set is displayed.
// Zero durations use the run's settings.
func WaitDisplayed(interval, timeout time.Duration) Selector {
	return selector.New(selector.Wait(every("check displayed", displayed), "displayed", interval, timeout))
}

// WaitEnabled waits until every element of the current set is enabled.
func WaitEnabled(interval, timeout time.Duration) Selector {
	return selector.New(selector.Wait(every("check enabled", enabled), "enabled", interval, timeout))
}

// All resolves sel to every matching element.
func All(sel Selector) step.Step[[]driver.Element] {
	return selector.Resolve(sel, Finder)
}

// One resolves sel to exactly one element.
func One(sel Selector) step.Step[driver.Element] {
	return selector.ExactlyOne(sel, Finder)
}

// First resolves sel to its first match, failing when nothing matches.
func First(sel Selector) step.Step[driver.Element] {
	return selector.FirstOrFail(sel, Finder)
}

// FirstOrNone resolves sel to its first match, if any.
func FirstOrNone(sel Selector) step.Step[selector.Found[driver.Element]] {
	return selector.FirstOrNone(sel, Finder)
}

// Exists reports whether sel matches anything.
func Exists(sel Selector) step.Step[bool] {
	return step.Map(FirstOrNone(sel), func(f selector.Found[driver.Element]) bool { return f.OK })
}

// WaitCount re-resolves sel until it matches exactly n elements.
func WaitCount(sel Selector, n int, interval, timeout time.Duration) step.Step[[]driver.Element] {
	return step.WaitUntilWith(All(sel),
		func(set []driver.Element) bool { return len(set) != n },
		interval, timeout,
		func(last []driver.Element, elapsed time.Duration) *state.Failure {
			return state.Timeout("timed out after %s waiting for %d element(s) matching %s, found %d",
				elapsed.Round(time.Millisecond), n, sel, len(last))
		})
}

// WaitFor re-resolves sel until it matches at least one element and returns
// the first.
func WaitFor(sel Selector, interval, timeout time.Duration) step.Step[driver.Element] {
	waited := step.WaitUntilWith(All(sel),
		func(set []driver.Element) bool { return len(set) == 0 },
		interval, timeout,
		func(_ []driver.Element, elapsed time.Duration) *state.Failure {
			return state.Timeout("timed out after %s waiting for %s", elapsed.Round(time.Millisecond), sel)
		})
	return step.Map(waited, func(set []driver.Element) driver.Element { return set[0] })
}
