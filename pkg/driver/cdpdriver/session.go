// Package cdpdriver implements driver.Session on the Chrome DevTools
// Protocol through chromedp.
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/logging"
)

// Options configures a locally launched browser.
type Options struct {
	Headless bool
	Width    int
	Height   int

	// ExecPath overrides the Chrome binary chromedp looks up.
	ExecPath string
}

// Session is a driver.Session over one Chrome tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	log         *logging.Logger

	mu         sync.Mutex
	dialog     *page.EventJavascriptDialogOpening
	promptText string
	closed     bool
}

var _ driver.Session = (*Session)(nil)

// Launch starts Chrome and opens a tab. The browser lives until Quit or
// until ctx is cancelled.
func Launch(ctx context.Context, opts Options, log *logging.Logger) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	return start(allocCtx, allocCancel, log)
}

// Attach connects to a running browser's DevTools websocket and opens a tab.
func Attach(ctx context.Context, wsURL string, log *logging.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, wsURL)
	return start(allocCtx, allocCancel, log)
}

func start(allocCtx context.Context, allocCancel context.CancelFunc, log *logging.Logger) (*Session, error) {
	if log == nil {
		log = logging.Nop()
	}
	tabCtx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel, log: log}

	chromedp.ListenTarget(tabCtx, s.onEvent)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	log.Infof("chrome tab attached")
	return s, nil
}

func (s *Session) onEvent(ev any) {
	switch e := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		s.mu.Lock()
		s.dialog = e
		s.promptText = ""
		s.mu.Unlock()
		s.log.Debugf("dialog opened: %s", e.Message)
	case *page.EventJavascriptDialogClosed:
		s.mu.Lock()
		s.dialog = nil
		s.mu.Unlock()
	}
}

// run executes actions on the tab, abandoning them if ctx is cancelled.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errors.New("session closed")
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// FindElements implements driver.Session.
func (s *Session) FindElements(ctx context.Context, by driver.By, within driver.Element) ([]driver.Element, error) {
	q, err := compile(by)
	if err != nil {
		return nil, err
	}

	opts := []chromedp.QueryOption{q.option, chromedp.AtLeast(0)}
	if within != nil {
		parent, ok := within.(*Element)
		if !ok {
			return nil, fmt.Errorf("foreign element handle %T", within)
		}
		if by.Strategy == driver.StrategyXPath {
			return nil, fmt.Errorf("%s within an element: %w", by, driver.ErrUnsupported)
		}
		opts = append(opts, chromedp.FromNode(parent.node))
	}

	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(q.selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", by, err)
	}

	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		el := &Element{session: s, node: n}
		if q.linkText != nil {
			text, err := el.Text(ctx)
			if err != nil {
				return nil, err
			}
			if !q.linkText(strings.TrimSpace(text)) {
				continue
			}
		}
		out = append(out, el)
	}
	s.log.Debugf("find %s: %d match(es)", by, len(out))
	return out, nil
}

// Navigate implements driver.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.log.Infof("navigated to %s", url)
	return nil
}

// CurrentURL implements driver.Session.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

// SetWindowSize implements driver.Session.
func (s *Session) SetWindowSize(ctx context.Context, width, height int) error {
	return s.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// ExecuteScript implements driver.Session. Scripts written as function
// bodies ("return ...") are wrapped in a function and called.
func (s *Session) ExecuteScript(ctx context.Context, script string) (any, error) {
	expr := script
	if strings.HasPrefix(strings.TrimSpace(script), "return ") {
		expr = "(() => { " + script + " })()"
	}
	var out any
	if err := s.run(ctx, chromedp.Evaluate(expr, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) openDialog(ctx context.Context) (*page.EventJavascriptDialogOpening, error) {
	if err := ctx.Err(); err != nil {
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
	return d.Message, nil
}

func (s *Session) closeDialog(ctx context.Context, accept bool) error {
	if _, err := s.openDialog(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	text := s.promptText
	s.mu.Unlock()

	handle := page.HandleJavaScriptDialog(accept)
	if accept && text != "" {
		handle = handle.WithPromptText(text)
	}
	if err := s.run(ctx, handle); err != nil {
		return err
	}
	s.mu.Lock()
	s.dialog = nil
	s.mu.Unlock()
	return nil
}

// AcceptAlert implements driver.Session. Text sent with AlertSendKeys is
// submitted as the prompt value.
func (s *Session) AcceptAlert(ctx context.Context) error {
	return s.closeDialog(ctx, true)
}

// DismissAlert implements driver.Session.
func (s *Session) DismissAlert(ctx context.Context) error {
	return s.closeDialog(ctx, false)
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

// Quit implements driver.Session. It closes the tab and, for launched
// browsers, the browser process.
func (s *Session) Quit(context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	s.log.Infof("session closed")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
