package drivertest

import (
	"context"
	"errors"

	"github.com/entrhq/stepwise/pkg/driver"
)

// Element is the fake's driver.Element.
type Element struct {
	session *Session
	node    *Node
}

// Node returns the node behind the handle.
func (e *Element) Node() *Node { return e.node }

func (e *Element) ID(context.Context) (string, error) {
	if err := e.session.live(e.node); err != nil {
		return "", err
	}
	if e.node.IDErr != nil {
		return "", e.node.IDErr
	}
	return e.node.handle, nil
}

func (e *Element) TagName(context.Context) (string, error) {
	if err := e.session.live(e.node); err != nil {
		return "", err
	}
	return e.node.Tag, nil
}

func (e *Element) Text(context.Context) (string, error) {
	if err := e.session.live(e.node); err != nil {
		return "", err
	}
	return e.node.visibleText(), nil
}

func (e *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	if err := e.session.live(e.node); err != nil {
		return "", false, err
	}
	v, ok := e.node.attr(name)
	return v, ok, nil
}

func (e *Element) Style(_ context.Context, property string) (string, error) {
	if err := e.session.live(e.node); err != nil {
		return "", err
	}
	if v, ok := e.node.Styles[property]; ok {
		return v, nil
	}
	if property == "display" {
		if e.node.Hidden {
			return "none", nil
		}
		return "block", nil
	}
	return "", nil
}

func (e *Element) Click(context.Context) error {
	if err := e.interactable(); err != nil {
		return err
	}
	e.session.record("click %s", e.describe())
	if e.node.Tag == "input" && e.node.Attrs["type"] == "checkbox" {
		e.node.Checked = !e.node.Checked
	}
	if e.node.OnClick != nil {
		e.node.OnClick(e.session)
	}
	return nil
}

func (e *Element) SendKeys(_ context.Context, text string) error {
	if err := e.interactable(); err != nil {
		return err
	}
	e.session.record("type %s %s", e.describe(), text)
	e.node.Value += text
	return nil
}

func (e *Element) Clear(context.Context) error {
	if err := e.interactable(); err != nil {
		return err
	}
	e.session.record("clear %s", e.describe())
	e.node.Value = ""
	return nil
}

func (e *Element) Enabled(context.Context) (bool, error) {
	if err := e.session.live(e.node); err != nil {
		return false, err
	}
	return !e.node.Disabled, nil
}

func (e *Element) Selected(context.Context) (bool, error) {
	if err := e.session.live(e.node); err != nil {
		return false, err
	}
	return e.node.Checked, nil
}

func (e *Element) Displayed(context.Context) (bool, error) {
	if err := e.session.live(e.node); err != nil {
		return false, err
	}
	return e.node.displayed(), nil
}

func (e *Element) Location(context.Context) (driver.Point, error) {
	if err := e.session.live(e.node); err != nil {
		return driver.Point{}, err
	}
	return e.node.Location, nil
}

func (e *Element) Size(context.Context) (driver.Size, error) {
	if err := e.session.live(e.node); err != nil {
		return driver.Size{}, err
	}
	return e.node.Size, nil
}

func (e *Element) interactable() error {
	if err := e.session.live(e.node); err != nil {
		return err
	}
	if e.node.Disabled || !e.node.displayed() {
		return errors.New("element not interactable")
	}
	return nil
}

func (e *Element) describe() string {
	switch {
	case e.node.ID != "":
		return "#" + e.node.ID
	case e.node.Name != "":
		return e.node.Tag + "[name=" + e.node.Name + "]"
	default:
		return e.node.Tag
	}
}
