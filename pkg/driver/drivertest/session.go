// Package drivertest provides an in-memory driver.Session for tests.
//
// The fake keeps a small DOM of Nodes, a current URL, a window size and at
// most one open alert. Tests can register pages per URL, script results,
// and hooks that run before each element query to simulate content that
// appears over time.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/stepwise/pkg/driver"
)

// ErrSessionClosed is returned by every call after Quit.
var ErrSessionClosed = errors.New("session closed")

// ErrStale is returned when a handle refers to a node no longer in the page.
var ErrStale = errors.New("stale element reference")

// Session is an in-memory driver.Session. It is not safe for concurrent use.
type Session struct {
	document *Node
	url      string
	pages    map[string]*Node
	width    int
	height   int

	alert      *string
	alertInput string

	// Scripts maps script source to the value ExecuteScript returns.
	Scripts map[string]any

	// BeforeFind runs before each FindElements call with the 1-based call
	// number, and may mutate the document.
	BeforeFind func(call int)

	// FindErr, when set, is returned by FindElements.
	FindErr error

	// Calls records every capability call in order, e.g. "click #go".
	Calls []string

	findCalls int
	handles   int
	quitted   bool
}

// NewSession creates a session showing an empty document at about:blank.
func NewSession(children ...*Node) *Session {
	return &Session{
		document: Elem("html", children...),
		url:      "about:blank",
		pages:    map[string]*Node{},
		Scripts:  map[string]any{},
		width:    1280,
		height:   720,
	}
}

// Document returns the root of the current page.
func (s *Session) Document() *Node { return s.document }

// SetDocument replaces the current page content.
func (s *Session) SetDocument(children ...*Node) {
	s.document = Elem("html", children...)
}

// AddPage registers the document shown after navigating to url.
func (s *Session) AddPage(url string, children ...*Node) {
	s.pages[url] = Elem("html", children...)
}

// OpenAlert opens a dialog with the given text.
func (s *Session) OpenAlert(text string) {
	s.alert = &text
	s.alertInput = ""
}

// AlertInput returns the keys sent to the last prompt.
func (s *Session) AlertInput() string { return s.alertInput }

// WindowSize returns the last size set.
func (s *Session) WindowSize() (int, int) { return s.width, s.height }

// FindCalls returns how many times FindElements ran.
func (s *Session) FindCalls() int { return s.findCalls }

// Quitted reports whether Quit was called.
func (s *Session) Quitted() bool { return s.quitted }

func (s *Session) record(format string, args ...any) {
	s.Calls = append(s.Calls, fmt.Sprintf(format, args...))
}

func (s *Session) check() error {
	if s.quitted {
		return ErrSessionClosed
	}
	return nil
}

// FindElements implements driver.Session.
func (s *Session) FindElements(_ context.Context, by driver.By, within driver.Element) ([]driver.Element, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.findCalls++
	if s.BeforeFind != nil {
		s.BeforeFind(s.findCalls)
	}
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	scope := s.document
	if within != nil {
		el, ok := within.(*Element)
		if !ok {
			return nil, fmt.Errorf("foreign element handle %T", within)
		}
		if err := s.live(el.node); err != nil {
			return nil, err
		}
		scope = el.node
	}

	match, err := matcher(by)
	if err != nil {
		return nil, err
	}
	var out []driver.Element
	for _, n := range scope.descendants() {
		if match(n, scope) {
			out = append(out, s.wrap(n))
		}
	}
	s.record("find %s", by)
	return out, nil
}

func (s *Session) wrap(n *Node) *Element {
	if n.handle == "" {
		s.handles++
		n.handle = fmt.Sprintf("element-%d", s.handles)
	}
	return &Element{session: s, node: n}
}

func (s *Session) live(n *Node) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.document.contains(n) {
		return ErrStale
	}
	return nil
}

// Navigate implements driver.Session.
func (s *Session) Navigate(_ context.Context, url string) error {
	if err := s.check(); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("cannot navigate to empty url")
	}
	s.url = url
	if page, ok := s.pages[url]; ok {
		s.document = page
	}
	s.record("navigate %s", url)
	return nil
}

// SetURL changes the current URL without loading a page, as a redirect or
// client-side route change would.
func (s *Session) SetURL(url string) { s.url = url }

// CurrentURL implements driver.Session.
func (s *Session) CurrentURL(context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.url, nil
}

// SetWindowSize implements driver.Session.
func (s *Session) SetWindowSize(_ context.Context, width, height int) error {
	if err := s.check(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", width, height)
	}
	s.width, s.height = width, height
	s.record("resize %dx%d", width, height)
	return nil
}

// ExecuteScript implements driver.Session.
func (s *Session) ExecuteScript(_ context.Context, script string) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.record("script %s", script)
	v, ok := s.Scripts[script]
	if !ok {
		return nil, fmt.Errorf("script %q: %w", script, driver.ErrUnsupported)
	}
	if err, isErr := v.(error); isErr {
		return nil, err
	}
	return v, nil
}

// AlertPresent implements driver.Session.
func (s *Session) AlertPresent(context.Context) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.alert != nil, nil
}

// AlertText implements driver.Session.
func (s *Session) AlertText(context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	if s.alert == nil {
		return "", driver.ErrNoAlert
	}
	return *s.alert, nil
}

// AcceptAlert implements driver.Session.
func (s *Session) AcceptAlert(context.Context) error {
	return s.closeAlert("accept")
}

// DismissAlert implements driver.Session.
func (s *Session) DismissAlert(context.Context) error {
	return s.closeAlert("dismiss")
}

func (s *Session) closeAlert(verb string) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.alert == nil {
		return driver.ErrNoAlert
	}
	s.record("%s alert %s", verb, *s.alert)
	s.alert = nil
	return nil
}

// AlertSendKeys implements driver.Session.
func (s *Session) AlertSendKeys(_ context.Context, text string) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.alert == nil {
		return driver.ErrNoAlert
	}
	s.alertInput += text
	return nil
}

// Quit implements driver.Session.
func (s *Session) Quit(context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	s.quitted = true
	s.record("quit")
	return nil
}
