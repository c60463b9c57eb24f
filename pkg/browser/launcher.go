package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures the browser.
type LaunchOptions struct {
	Headless       bool
	SlowMo         time.Duration
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration // page load timeout
	ActionTimeout  time.Duration // playwright default timeout for element operations
	SkipInstall    bool          // browsers are preinstalled, don't run playwright.Install
}

// Launcher owns the playwright driver and the browser process; each session it opens is an
// isolated browser context with its own cookies and storage.
type Launcher struct {
	opts    LaunchOptions
	log     Logger
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewLauncher makes a launcher. Call Start before opening sessions.
func NewLauncher(opts LaunchOptions, log Logger) *Launcher {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 90 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 20 * time.Second
	}
	return &Launcher{opts: opts, log: log}
}

// Start installs (unless skipped) and runs playwright, then launches chromium.
func (l *Launcher) Start() error {
	if !l.opts.SkipInstall {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("run playwright: %w", err)
	}
	l.pw = pw

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(l.opts.Headless)}
	if l.opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(l.opts.SlowMo.Milliseconds()))
	}
	if !l.opts.Headless && l.opts.ViewportWidth == 0 {
		launch.Args = []string{"--start-maximized"}
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		l.pw = nil
		return fmt.Errorf("launch browser: %w", err)
	}
	l.browser = b
	l.log.Debug("browser launched, headless=%v", l.opts.Headless)
	return nil
}

// NewSession opens a fresh browser context with one page.
func (l *Launcher) NewSession() (Session, error) {
	if l.browser == nil {
		return nil, errors.New("launcher is not started")
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if l.opts.ViewportWidth > 0 && l.opts.ViewportHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: l.opts.ViewportWidth, Height: l.opts.ViewportHeight}
	} else if !l.opts.Headless {
		ctxOpts.NoViewport = playwright.Bool(true)
	}

	bctx, err := l.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.SetDefaultNavigationTimeout(float64(l.opts.NavTimeout.Milliseconds()))
	page.SetDefaultTimeout(float64(l.opts.ActionTimeout.Milliseconds()))

	return &pwSession{bctx: bctx, page: &pwPage{bctx: bctx, page: page, navWait: l.opts.NavTimeout}}, nil
}

// Stop closes the browser and the driver, ignoring errors.
func (l *Launcher) Stop() {
	if l.browser != nil {
		if err := l.browser.Close(); err != nil {
			l.log.Debug("close browser: %v", err)
		}
		l.browser = nil
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			l.log.Debug("stop playwright: %v", err)
		}
		l.pw = nil
	}
}

type pwSession struct {
	bctx playwright.BrowserContext
	page *pwPage
}

func (s *pwSession) Page() Page { return s.page }

// Close closes every tab of the session and its context.
func (s *pwSession) Close() error {
	if err := s.bctx.Close(); err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}
	return nil
}
