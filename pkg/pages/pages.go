// Package pages holds the page objects of the ticketing application. Each screen declares its
// locator sets and exposes the navigation and form steps the flows are built from.
package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
)

// Logger is what page objects trace and record through.
type Logger interface {
	browser.Logger
	Step(name string, fn func() error) error
	Record(rel, line string) error
	Path(elem ...string) string
}

// Waits are the element timeouts page objects use.
type Waits struct {
	Default time.Duration // elements a step cannot do without
	Short   time.Duration // controls that follow an earlier step of the same screen
	Probe   time.Duration // optional controls and menu candidates
	Blink   time.Duration // markers checked in passing
	Settle  time.Duration // pause for a results grid to redraw
	Beat    time.Duration // pause for a modal or row to render
}

// DefaultWaits returns the timeouts used against the real application.
func DefaultWaits() Waits {
	return Waits{
		Default: 20 * time.Second,
		Short:   10 * time.Second,
		Probe:   3 * time.Second,
		Blink:   time.Second,
		Settle:  2 * time.Second,
		Beat:    500 * time.Millisecond,
	}
}

// Env carries what every page object works with.
type Env struct {
	Actions *browser.Actions
	Log     Logger
	Waits   Waits
}

// NotFound404 matches the server's "404 Not Found" page.
var NotFound404 = locator.New("404 marker",
	locator.XPath("//*[contains(text(),'404') and contains(text(),'Not Found')]"),
	locator.XPath("//*[contains(text(),'404 Not Found')]"),
)

// NotAuthorized matches the application's access denied page.
var NotAuthorized = locator.New("not authorized marker",
	locator.XPath("//*[contains(text(),'Not Authorized') or contains(text(),'not authorized')]"),
	locator.XPath("//*[contains(text(),'403') and contains(text(),'Forbidden')]"),
)

// optional logs the failure of a step the flow can live without. It only returns an error when ctx
// is done, so cancellation still stops the flow.
func (e Env) optional(ctx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", what, ctx.Err())
	}
	e.Log.Debug("%s skipped: %v", what, err)
	return nil
}

// notFound reports whether the current page is a 404 page.
func (e Env) notFound(ctx context.Context) bool {
	return e.Actions.Exists(ctx, NotFound404, e.Waits.Blink)
}

// notAuthorized reports whether the current page denies access.
func (e Env) notAuthorized(ctx context.Context) bool {
	return e.Actions.Exists(ctx, NotAuthorized, e.Waits.Blink)
}

// waitVisible resolves the set and waits until the element is visible.
func (e Env) waitVisible(ctx context.Context, set locator.Set, timeout time.Duration) (browser.Element, error) {
	started := time.Now()
	el, err := e.Actions.Find(ctx, set, timeout)
	if err != nil {
		return nil, err
	}
	err = e.Actions.WaitUntil(ctx, set.String()+" visible", max(timeout-time.Since(started), 0), func() bool {
		visible, err := el.IsVisible()
		return err == nil && visible
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// screenshot saves the current viewport at rel inside the logs directory and returns the full path.
func (e Env) screenshot(rel string) (string, error) {
	path := e.Log.Path(rel)
	if err := e.Actions.Page().Screenshot(path); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", rel, err)
	}
	e.Log.Print("screenshot saved: %s", path)
	return path, nil
}
