package pwdriver

import (
	"context"
	"fmt"

	pw "github.com/playwright-community/playwright-go"

	"github.com/entrhq/stepwise/pkg/driver"
)

// Element is a driver.Element over a Playwright element handle.
type Element struct {
	handle pw.ElementHandle
}

var _ driver.Element = (*Element)(nil)

// Handle returns the underlying element handle.
func (e *Element) Handle() pw.ElementHandle { return e.handle }

func evalString(ctx context.Context, e *Element, expr string, arg ...any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.handle.Evaluate(expr, arg...)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), nil
	}
	return s, nil
}

// ID returns the element's id attribute. Playwright has no stable element
// identity, so elements without an id report an error.
func (e *Element) ID(ctx context.Context) (string, error) {
	id, err := evalString(ctx, e, "el => el.id")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("element has no id: %w", driver.ErrUnsupported)
	}
	return id, nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return evalString(ctx, e, "el => el.tagName.toLowerCase()")
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.handle.InnerText()
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, err := e.handle.Evaluate(`(el, name) => {
		if (name === "value" && "value" in el) return el.value;
		return el.hasAttribute(name) ? el.getAttribute(name) : null;
	}`, name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return fmt.Sprint(v), true, nil
}

func (e *Element) Style(ctx context.Context, property string) (string, error) {
	return evalString(ctx, e, "(el, p) => getComputedStyle(el).getPropertyValue(p)", property)
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.handle.Click()
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.handle.Type(text)
}

func (e *Element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.handle.Fill("")
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.handle.IsEnabled()
}

func (e *Element) Selected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.handle.Evaluate("el => !!(el.checked || el.selected)")
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.handle.IsVisible()
}

func (e *Element) box(ctx context.Context) (*pw.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.handle.BoundingBox()
}

func (e *Element) Location(ctx context.Context) (driver.Point, error) {
	r, err := e.box(ctx)
	if err != nil || r == nil {
		return driver.Point{}, err
	}
	return driver.Point{X: int(r.X), Y: int(r.Y)}, nil
}

func (e *Element) Size(ctx context.Context) (driver.Size, error) {
	r, err := e.box(ctx)
	if err != nil || r == nil {
		return driver.Size{}, err
	}
	return driver.Size{Width: int(r.Width), Height: int(r.Height)}, nil
}
