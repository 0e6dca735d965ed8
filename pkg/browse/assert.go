package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// AssertTextEquals fails unless the text of the first element matching sel
// equals want.
func AssertTextEquals(sel Selector, want string) step.Step[step.Unit] {
	return checkText(sel, want, "equal", func(got string) bool { return got == want })
}

// AssertTextContains fails unless the text of the first element matching sel
// contains want.
func AssertTextContains(sel Selector, want string) step.Step[step.Unit] {
	return checkText(sel, want, "contain", func(got string) bool { return strings.Contains(got, want) })
}

func checkText(sel Selector, want, verb string, ok func(string) bool) step.Step[step.Unit] {
	return step.Bind(Text(sel), func(got string) step.Step[step.Unit] {
		if !ok(got) {
			return step.Failf[step.Unit]("expected text of %s to %s %q, got %q", sel, verb, want, got)
		}
		return step.Infof("text of %s is %q", sel, got)
	})
}

// AssertCount fails unless sel matches exactly n elements.
func AssertCount(sel Selector, n int) step.Step[step.Unit] {
	return step.Bind(All(sel), func(set []driver.Element) step.Step[step.Unit] {
		if len(set) != n {
			return step.Failf[step.Unit]("expected %d element(s) matching %s, found %d", n, sel, len(set))
		}
		return step.Infof("%s matched %d element(s)", sel, n)
	})
}

// AssertDisplayed fails unless the first element matching sel is displayed.
func AssertDisplayed(sel Selector) step.Step[step.Unit] {
	shown := onElement(sel, "check displayed", func(ctx context.Context, el driver.Element) (bool, error) {
		return el.Displayed(ctx)
	})
	return step.Bind(shown, func(ok bool) step.Step[step.Unit] {
		if !ok {
			return step.Failf[step.Unit]("expected %s to be displayed", sel)
		}
		return step.Infof("%s is displayed", sel)
	})
}

// compileURL compiles a URL glob. '*' matches any run of characters,
// including '/'.
func compileURL(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, state.Assertion("invalid url pattern %q: %v", pattern, err)
	}
	return g, nil
}

// AssertURLMatches fails unless the current URL matches the glob pattern.
func AssertURLMatches(pattern string) step.Step[step.Unit] {
	g, err := compileURL(pattern)
	if err != nil {
		return step.FailWith[step.Unit](state.FromError("url pattern", err))
	}
	return step.Bind(CurrentURL(), func(url string) step.Step[step.Unit] {
		if !g.Match(url) {
			return step.Failf[step.Unit]("expected url to match %q, got %q", pattern, url)
		}
		return step.Infof("url %s matches %s", url, pattern)
	})
}

// WaitForURL polls the current URL until it matches the glob pattern and
// returns it.
func WaitForURL(pattern string, interval, timeout time.Duration) step.Step[string] {
	g, err := compileURL(pattern)
	if err != nil {
		return step.FailWith[string](state.FromError("url pattern", err))
	}
	return step.WaitUntilWith(CurrentURL(),
		func(url string) bool { return !g.Match(url) },
		interval, timeout,
		func(last string, elapsed time.Duration) *state.Failure {
			return state.Timeout("timed out after %s waiting for url to match %q, last was %q",
				elapsed.Round(time.Millisecond), pattern, last)
		})
}

// AssertAttribute fails unless an attribute of the first element matching
// sel equals want.
func AssertAttribute(sel Selector, name, want string) step.Step[step.Unit] {
	return step.Bind(Attribute(sel, name), func(got string) step.Step[step.Unit] {
		if got != want {
			return step.FailWith[step.Unit](state.Assertion(
				"expected attribute %s of %s to be %q, got %q", name, sel, want, got))
		}
		return step.Info(fmt.Sprintf("attribute %s of %s is %q", name, sel, got))
	})
}
