// Package driver defines the capability a live browser session must provide
// to the step engine. Concrete drivers live in subpackages (pwdriver for
// Playwright, cdpdriver for chromedp); drivertest provides an in-memory fake
// for tests.
package driver

import (
	"context"
	"errors"
)

// ErrNoAlert is returned by alert operations when no dialog is open.
var ErrNoAlert = errors.New("no alert present")

// ErrUnsupported is returned when a driver cannot honour a request, such as a
// locator strategy it has no engine for.
var ErrUnsupported = errors.New("unsupported by driver")

// Session is the capability required from a live browser session.
// Implementations are not required to be safe for concurrent use; the engine
// never issues two calls at once.
type Session interface {
	// FindElements returns matches for by in document order. When within is
	// non-nil the search is scoped to its descendants.
	FindElements(ctx context.Context, by By, within Element) ([]Element, error)

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	SetWindowSize(ctx context.Context, width, height int) error
	ExecuteScript(ctx context.Context, script string) (any, error)

	AlertPresent(ctx context.Context) (bool, error)
	AlertText(ctx context.Context) (string, error)
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	AlertSendKeys(ctx context.Context, text string) error

	// Quit releases the browser behind the session.
	Quit(ctx context.Context) error
}

// Element is a live handle to a DOM element.
type Element interface {
	// ID returns a driver-assigned identity for the element. Drivers that
	// expose none may return an error; callers treat identity as best effort.
	ID(ctx context.Context) (string, error)

	TagName(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Style(ctx context.Context, property string) (string, error)

	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error

	Enabled(ctx context.Context) (bool, error)
	Selected(ctx context.Context) (bool, error)
	Displayed(ctx context.Context) (bool, error)
	Location(ctx context.Context) (Point, error)
	Size(ctx context.Context) (Size, error)
}

// Point is a position in CSS pixels relative to the top-left of the page.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Size is an extent in CSS pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}
