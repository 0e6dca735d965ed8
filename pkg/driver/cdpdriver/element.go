package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/stepwise/pkg/driver"
)

// Element is a driver.Element over a DOM node of the session's tab.
type Element struct {
	session *Session
	node    *cdp.Node
}

var _ driver.Element = (*Element)(nil)

// Node returns the underlying DOM node.
func (e *Element) Node() *cdp.Node { return e.node }

// call runs fn with this bound to the element and decodes its result into
// out, if out is non-nil.
func (e *Element) call(ctx context.Context, fn string, out any) error {
	return e.session.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ID returns the backend node id, which is stable for the node's lifetime.
func (e *Element) ID(context.Context) (string, error) {
	return strconv.FormatInt(int64(e.node.BackendNodeID), 10), nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	var tag string
	err := e.call(ctx, `function() { return this.tagName.toLowerCase(); }`, &tag)
	return tag, err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, `function() { return this.innerText || ""; }`, &text)
	return text, err
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	n := jsString(name)
	var v *string
	err := e.call(ctx, fmt.Sprintf(`function() {
		if (%[1]s === "value" && "value" in this) return String(this.value);
		return this.hasAttribute(%[1]s) ? this.getAttribute(%[1]s) : null;
	}`, n), &v)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *Element) Style(ctx context.Context, property string) (string, error) {
	var v string
	err := e.call(ctx, fmt.Sprintf(`function() { return getComputedStyle(this).getPropertyValue(%s); }`, jsString(property)), &v)
	return v, err
}

func (e *Element) Click(ctx context.Context) error {
	return e.session.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.session.run(ctx, chromedp.SendKeys([]cdp.NodeID{e.node.NodeID}, text, chromedp.ByNodeID))
}

func (e *Element) Clear(ctx context.Context) error {
	return e.call(ctx, `function() {
		this.value = "";
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
	}`, nil)
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	var v bool
	err := e.call(ctx, `function() { return !this.disabled; }`, &v)
	return v, err
}

func (e *Element) Selected(ctx context.Context) (bool, error) {
	var v bool
	err := e.call(ctx, `function() { return !!(this.checked || this.selected); }`, &v)
	return v, err
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	var v bool
	err := e.call(ctx, `function() {
		const s = getComputedStyle(this);
		const r = this.getBoundingClientRect();
		return s.display !== "none" && s.visibility !== "hidden" && r.width > 0 && r.height > 0;
	}`, &v)
	return v, err
}

type rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (e *Element) box(ctx context.Context) (rect, error) {
	var r rect
	err := e.call(ctx, `function() {
		const r = this.getBoundingClientRect();
		return {x: r.x + window.scrollX, y: r.y + window.scrollY, width: r.width, height: r.height};
	}`, &r)
	return r, err
}

func (e *Element) Location(ctx context.Context) (driver.Point, error) {
	r, err := e.box(ctx)
	return driver.Point{X: int(r.X), Y: int(r.Y)}, err
}

func (e *Element) Size(ctx context.Context) (driver.Size, error) {
	r, err := e.box(ctx)
	return driver.Size{Width: int(r.Width), Height: int(r.Height)}, err
}
