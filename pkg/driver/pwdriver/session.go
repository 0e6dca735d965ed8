package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pw "github.com/playwright-community/playwright-go"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/logging"
)

// Session is a driver.Session over one Playwright page.
type Session struct {
	browser pw.Browser
	context pw.BrowserContext
	page    pw.Page
	log     *logging.Logger

	mu         sync.Mutex
	dialog     pw.Dialog
	promptText string
	closed     bool
	onClose    func(*Session)
}

var _ driver.Session = (*Session)(nil)

func newSession(browser pw.Browser, bctx pw.BrowserContext, page pw.Page, log *logging.Logger) *Session {
	s := &Session{browser: browser, context: bctx, page: page, log: log}
	// A page with a dialog listener keeps dialogs open until they are
	// accepted or dismissed.
	page.OnDialog(func(d pw.Dialog) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dialog = d
		s.promptText = ""
		s.log.Debugf("dialog opened: %s", d.Message())
	})
	return s
}

// Page returns the underlying page.
func (s *Session) Page() pw.Page { return s.page }

func (s *Session) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	return nil
}

// FindElements implements driver.Session.
func (s *Session) FindElements(ctx context.Context, by driver.By, within driver.Element) ([]driver.Element, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	sel, err := translate(by)
	if err != nil {
		return nil, err
	}

	var handles []pw.ElementHandle
	if within != nil {
		parent, ok := within.(*Element)
		if !ok {
			return nil, fmt.Errorf("foreign element handle %T", within)
		}
		handles, err = parent.handle.QuerySelectorAll(sel)
	} else {
		handles, err = s.page.QuerySelectorAll(sel)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}

	out := make([]driver.Element, len(handles))
	for i, h := range handles {
		out[i] = &Element{handle: h}
	}
	s.log.Debugf("find %s: %d match(es)", by, len(out))
	return out, nil
}

// Navigate implements driver.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.log.Infof("navigated to %s", s.page.URL())
	return nil
}

// CurrentURL implements driver.Session.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

// SetWindowSize implements driver.Session.
func (s *Session) SetWindowSize(ctx context.Context, width, height int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.page.SetViewportSize(width, height)
}

// ExecuteScript implements driver.Session. Scripts written as function
// bodies ("return ...") are wrapped in a function.
func (s *Session) ExecuteScript(ctx context.Context, script string) (any, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	expr := script
	if strings.HasPrefix(strings.TrimSpace(script), "return ") {
		expr = "() => { " + script + " }"
	}
	return s.page.Evaluate(expr)
}

func (s *Session) openDialog(ctx context.Context) (pw.Dialog, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog == nil {
		return nil, driver.ErrNoAlert
	}
	return s.dialog, nil
}

// AlertPresent implements driver.Session.
func (s *Session) AlertPresent(ctx context.Context) (bool, error) {
	_, err := s.openDialog(ctx)
	if errors.Is(err, driver.ErrNoAlert) {
		return false, nil
	}
	return err == nil, err
}

// AlertText implements driver.Session.
func (s *Session) AlertText(ctx context.Context) (string, error) {
	d, err := s.openDialog(ctx)
	if err != nil {
		return "", err
	}
	return d.Message(), nil
}

// AcceptAlert implements driver.Session. Text sent with AlertSendKeys is
// submitted as the prompt value.
func (s *Session) AcceptAlert(ctx context.Context) error {
	d, err := s.openDialog(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	text := s.promptText
	s.dialog = nil
	s.mu.Unlock()
	if text != "" {
		return d.Accept(text)
	}
	return d.Accept()
}

// DismissAlert implements driver.Session.
func (s *Session) DismissAlert(ctx context.Context) error {
	d, err := s.openDialog(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dialog = nil
	s.mu.Unlock()
	return d.Dismiss()
}

// AlertSendKeys implements driver.Session.
func (s *Session) AlertSendKeys(ctx context.Context, text string) error {
	if _, err := s.openDialog(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptText += text
	return nil
}

// Quit implements driver.Session.
func (s *Session) Quit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.close()
}

func (s *Session) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	err := errors.Join(s.page.Close(), s.context.Close(), s.browser.Close())
	if onClose != nil {
		onClose(s)
	}
	s.log.Infof("session closed")
	return err
}
