// Package pwdriver implements driver.Session on Playwright.
package pwdriver

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/entrhq/stepwise/pkg/logging"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30 * time.Second
	DefaultMaxSessions    = 5
)

// Options configures a browser session.
type Options struct {
	// Headless runs the browser without a window.
	Headless bool

	// Width and Height set the initial viewport.
	Width  int
	Height int

	// Timeout is Playwright's default timeout for page operations.
	Timeout time.Duration

	// RemoteURL connects to a running Playwright server instead of
	// launching Chromium locally.
	RemoteURL string
}

// Manager owns the Playwright driver process and the sessions launched from
// it.
type Manager struct {
	mu          sync.Mutex
	playwright  *pw.Playwright
	sessions    map[*Session]struct{}
	maxSessions int
	initialized bool
	log         *logging.Logger
}

// NewManager creates a manager. log may be nil.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		sessions:    make(map[*Session]struct{}),
		maxSessions: DefaultMaxSessions,
		log:         log,
	}
}

// Initialize installs the Playwright driver and browsers if needed and
// starts the driver. It must be called before Launch.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	opts := &pw.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := pw.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	p, err := pw.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = p
	m.initialized = true
	m.log.Infof("playwright started")
	return nil
}

// Launch opens a browser, a context and a page.
func (m *Manager) Launch(opts Options) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, errors.New("playwright manager not initialized")
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultViewportWidth, DefaultViewportHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var browser pw.Browser
	var err error
	if opts.RemoteURL != "" {
		browser, err = m.playwright.Chromium.Connect(opts.RemoteURL)
	} else {
		browser, err = m.playwright.Chromium.Launch(pw.BrowserTypeLaunchOptions{
			Headless: &opts.Headless,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(pw.BrowserNewContextOptions{
		Viewport: &pw.Size{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	s := newSession(browser, bctx, page, m.log)
	s.onClose = m.forget
	m.sessions[s] = struct{}{}
	m.log.Infof("launched chromium (headless=%t, viewport=%dx%d)", opts.Headless, opts.Width, opts.Height)
	return s, nil
}

func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s)
}

// Sessions returns the number of open sessions.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *Manager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// Shutdown closes every session and stops Playwright.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.initialized = false
	}
	return errors.Join(errs...)
}
