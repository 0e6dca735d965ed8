package browse

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// Navigate loads url in the session.
func Navigate(url string) step.Step[step.Unit] {
	return step.Then(
		step.WithSession("navigate to "+url, func(ctx context.Context, s driver.Session) (step.Unit, error) {
			return step.Unit{}, s.Navigate(ctx, url)
		}),
		step.Infof("navigated to %s", url),
	)
}

// CurrentURL returns the URL of the current page.
func CurrentURL() step.Step[string] {
	return step.WithSession("current url", func(ctx context.Context, s driver.Session) (string, error) {
		return s.CurrentURL(ctx)
	})
}

// SetWindowSize resizes the browser viewport.
func SetWindowSize(width, height int) step.Step[step.Unit] {
	label := fmt.Sprintf("resize window to %dx%d", width, height)
	return step.Then(
		step.WithSession(label, func(ctx context.Context, s driver.Session) (step.Unit, error) {
			return step.Unit{}, s.SetWindowSize(ctx, width, height)
		}),
		step.Info(label),
	)
}

// ExecuteScript evaluates script in the page and returns its result.
func ExecuteScript(script string) step.Step[any] {
	return step.WithSession("execute script", func(ctx context.Context, s driver.Session) (any, error) {
		return s.ExecuteScript(ctx, script)
	})
}

// Quit closes the session and removes it from the run.
func Quit() step.Step[step.Unit] {
	quit := step.WithSession("quit session", func(ctx context.Context, s driver.Session) (step.Unit, error) {
		return step.Unit{}, s.Quit(ctx)
	})
	return step.Then(quit, step.Modify(func(s state.State) state.State {
		return s.WithSession(nil).Append(logtree.KindInfo, "session closed")
	}))
}

// onElement resolves sel to its first match and runs fn against it.
func onElement[A any](sel Selector, verb string, fn func(ctx context.Context, el driver.Element) (A, error)) step.Step[A] {
	label := verb + " " + sel.String()
	return step.Bind(First(sel), func(el driver.Element) step.Step[A] {
		return step.Effect(label, func(ctx context.Context, _ state.State) (A, error) {
			return fn(ctx, el)
		})
	})
}

// Click clicks the first element matching sel.
func Click(sel Selector) step.Step[step.Unit] {
	return step.Before(
		onElement(sel, "click", func(ctx context.Context, el driver.Element) (step.Unit, error) {
			return step.Unit{}, el.Click(ctx)
		}),
		step.Infof("clicked %s", sel),
	)
}

// Type sends text to the first element matching sel.
func Type(sel Selector, text string) step.Step[step.Unit] {
	return step.Before(
		onElement(sel, "type into", func(ctx context.Context, el driver.Element) (step.Unit, error) {
			return step.Unit{}, el.SendKeys(ctx, text)
		}),
		step.Infof("typed %q into %s", text, sel),
	)
}

// Clear empties the first element matching sel.
func Clear(sel Selector) step.Step[step.Unit] {
	return step.Before(
		onElement(sel, "clear", func(ctx context.Context, el driver.Element) (step.Unit, error) {
			return step.Unit{}, el.Clear(ctx)
		}),
		step.Infof("cleared %s", sel),
	)
}

// Text returns the visible text of the first element matching sel.
func Text(sel Selector) step.Step[string] {
	return onElement(sel, "read text of", func(ctx context.Context, el driver.Element) (string, error) {
		return el.Text(ctx)
	})
}

// Attribute returns an attribute of the first element matching sel, failing
// when the attribute is absent.
func Attribute(sel Selector, name string) step.Step[string] {
	return onElement(sel, "read attribute "+name+" of", func(ctx context.Context, el driver.Element) (string, error) {
		v, ok, err := el.Attribute(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", state.Assertion("attribute %q is not present on %s", name, sel)
		}
		return v, nil
	})
}

// Style returns the computed value of a CSS property of the first element
// matching sel.
func Style(sel Selector, property string) step.Step[string] {
	return onElement(sel, "read style "+property+" of", func(ctx context.Context, el driver.Element) (string, error) {
		return el.Style(ctx, property)
	})
}
