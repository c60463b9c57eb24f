package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// secretMask replaces typed secrets in logs.
const secretMask = "***"

// clickLevels names the interaction precedence levels, in order.
var clickLevels = []string{"native click", "pointer click", "script click"}

// Timing holds the waits used by Actions.
type Timing struct {
	NativeClick  time.Duration // actionability timeout for a native click
	PointerPause time.Duration // pause between pointer move and click
	FrameProbe   time.Duration // top-level timeout before escalating into frames
	PerFrame     time.Duration // timeout per frame during escalation
	ReadySettle  time.Duration // extra pause after the page reports ready
}

// DefaultTiming returns the waits the suite uses when settings leave them unset.
func DefaultTiming() Timing {
	return Timing{
		NativeClick:  2 * time.Second,
		PointerPause: 100 * time.Millisecond,
		FrameProbe:   3 * time.Second,
		PerFrame:     6 * time.Second,
		ReadySettle:  time.Second,
	}
}

// Actions performs clicks, typing and page helpers on top of the resolver.
type Actions struct {
	page   Page
	res    *Resolver
	log    Logger
	timing Timing
}

// NewActions makes Actions for a page.
func NewActions(page Page, res *Resolver, log Logger, timing Timing) *Actions {
	return &Actions{page: page, res: res, log: log, timing: timing}
}

// Page returns the driven page.
func (a *Actions) Page() Page { return a.page }

// Find resolves a set in the top-level document.
func (a *Actions) Find(ctx context.Context, set locator.Set, timeout time.Duration) (Element, error) {
	return a.res.Resolve(ctx, a.page.Main(), set, timeout)
}

// FindAnywhere resolves a set in the top-level document or any frame. Each frame is polled for
// perFrame, capped by Timing.PerFrame; zero means Timing.PerFrame.
func (a *Actions) FindAnywhere(ctx context.Context, set locator.Set, perFrame time.Duration) (Element, error) {
	return a.res.ResolveAnywhere(ctx, a.page, set, a.timing.FrameProbe, a.frameWait(perFrame))
}

func (a *Actions) frameWait(perFrame time.Duration) time.Duration {
	limit := a.timing.PerFrame
	if perFrame <= 0 || (limit > 0 && perFrame > limit) {
		return limit
	}
	return perFrame
}

// Exists reports whether the set matches in the top-level document within timeout.
func (a *Actions) Exists(ctx context.Context, set locator.Set, timeout time.Duration) bool {
	return a.res.Exists(ctx, a.page.Main(), set, timeout)
}

// Click resolves the set, scrolls the element to the viewport center and clicks it, falling back
// from native click to pointer click to script click. Returns ErrUnclickable only if all fail.
func (a *Actions) Click(ctx context.Context, set locator.Set, timeout time.Duration) error {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return err
	}
	return a.ClickElement(set.String(), el)
}

// ClickAnywhere is Click with scope escalation into frames.
func (a *Actions) ClickAnywhere(ctx context.Context, set locator.Set, perFrame time.Duration) error {
	el, err := a.FindAnywhere(ctx, set, perFrame)
	if err != nil {
		return err
	}
	return a.ClickElement(set.String(), el)
}

// ClickElement runs the interaction precedence chain on an already resolved element.
func (a *Actions) ClickElement(target string, el Element) error {
	if err := el.ScrollIntoView(); err != nil {
		a.log.Debug("scroll %s into view: %v", target, err)
	}
	a.log.Print("clicking %s", target)

	cands := []candidate[struct{}]{
		{name: clickLevels[0], try: func() (struct{}, error) { return struct{}{}, el.Click(a.timing.NativeClick) }},
		{name: clickLevels[1], try: func() (struct{}, error) { return struct{}{}, el.PointerClick(a.timing.PointerPause) }},
		{name: clickLevels[2], try: func() (struct{}, error) { return struct{}{}, el.ScriptClick() }},
	}
	_, idx, errs := firstOK(cands, func(name string, err error) {
		a.log.Print("%s failed on %s, falling back: %v", name, target, err)
	})
	if idx < 0 {
		return &ClickError{Target: target, Errs: errs}
	}
	a.log.Print("clicked %s via %s", target, clickLevels[idx])
	return nil
}

// ClickFirst tries groups of sets until one of them clicks. Returns true on the first success.
func (a *Actions) ClickFirst(ctx context.Context, sets []locator.Set, timeoutEach time.Duration) bool {
	for _, set := range sets {
		if err := a.Click(ctx, set, timeoutEach); err != nil {
			a.log.Debug("click-first: %s skipped: %v", set, err)
			continue
		}
		return true
	}
	return false
}

// Type resolves the set, scrolls it into view, optionally clears it and types text key by key
// so input and change listeners on the page fire.
func (a *Actions) Type(ctx context.Context, set locator.Set, text string, timeout time.Duration, clearFirst bool) error {
	return a.typeInto(ctx, set, text, text, timeout, clearFirst)
}

// TypeSecret is Type with the value masked in logs.
func (a *Actions) TypeSecret(ctx context.Context, set locator.Set, text string, timeout time.Duration, clearFirst bool) error {
	return a.typeInto(ctx, set, text, secretMask, timeout, clearFirst)
}

func (a *Actions) typeInto(ctx context.Context, set locator.Set, text, shown string, timeout time.Duration, clearFirst bool) error {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		a.log.Debug("scroll %s into view: %v", set, err)
	}
	if clearFirst {
		if err := el.Clear(); err != nil {
			return fmt.Errorf("clear %s: %w", set, err)
		}
	}
	a.log.Print("typing '%s' into %s", shown, set)
	if err := el.TypeText(text); err != nil {
		return fmt.Errorf("type into %s: %w", set, err)
	}
	return nil
}

// SetValue assigns the value by script and fires input and change events. It is the last resort for
// inputs that refuse key input; the element is looked up in the document and then in frames.
func (a *Actions) SetValue(ctx context.Context, set locator.Set, value string, perFrame time.Duration) error {
	el, err := a.FindAnywhere(ctx, set, perFrame)
	if err != nil {
		return err
	}
	a.log.Print("setting value of %s by script", set)
	if err := el.SetValue(value); err != nil {
		return fmt.Errorf("set value of %s: %w", set, err)
	}
	return nil
}

// Press sends a single key to the element.
func (a *Actions) Press(ctx context.Context, set locator.Set, key string, timeout time.Duration) error {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return err
	}
	if err := el.Press(key); err != nil {
		return fmt.Errorf("press %s on %s: %w", key, set, err)
	}
	return nil
}

// Text returns the trimmed visible text of the element.
func (a *Actions) Text(ctx context.Context, set locator.Set, timeout time.Duration) (string, error) {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", set, err)
	}
	return strings.TrimSpace(text), nil
}

// TextOrBlank is Text that reports any failure as an empty string.
func (a *Actions) TextOrBlank(ctx context.Context, set locator.Set, timeout time.Duration) string {
	text, err := a.Text(ctx, set, timeout)
	if err != nil {
		a.log.Debug("text of %s unavailable: %v", set, err)
		return ""
	}
	return text
}

// EnsureChecked clicks a checkbox unless it is already checked.
func (a *Actions) EnsureChecked(ctx context.Context, set locator.Set, timeout time.Duration) error {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return err
	}
	checked, err := el.IsChecked()
	if err != nil {
		return fmt.Errorf("read state of %s: %w", set, err)
	}
	if checked {
		a.log.Debug("%s already checked", set)
		return nil
	}
	return a.ClickElement(set.String(), el)
}

// SelectByLabel picks the option with the given visible text in a select element.
func (a *Actions) SelectByLabel(ctx context.Context, set locator.Set, label string, timeout time.Duration) error {
	el, err := a.Find(ctx, set, timeout)
	if err != nil {
		return err
	}
	a.log.Print("selecting '%s' in %s", label, set)
	if err := el.SelectByLabel(label); err != nil {
		return fmt.Errorf("select %q in %s: %w", label, set, err)
	}
	return nil
}

// WaitUntil polls cond at the resolver interval until it holds or timeout elapses.
func (a *Actions) WaitUntil(ctx context.Context, what string, timeout time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("wait for %s: timed out after %s", what, timeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", what, ctx.Err())
		case <-time.After(min(a.res.pollInterval, remaining)):
		}
	}
}

// WaitGone waits until the element is no longer visible or detached.
func (a *Actions) WaitGone(ctx context.Context, el Element, what string, timeout time.Duration) error {
	return a.WaitUntil(ctx, what+" to disappear", timeout, func() bool {
		visible, err := el.IsVisible()
		return err != nil || !visible
	})
}

// WaitURLContains waits until the page URL contains fragment.
func (a *Actions) WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error {
	return a.WaitUntil(ctx, "url containing "+fragment, timeout, func() bool {
		return strings.Contains(strings.ToLower(a.page.URL()), strings.ToLower(fragment))
	})
}

const readyScript = `() => document.readyState === 'complete' && (!window.jQuery || window.jQuery.active === 0)`

// WaitReady waits until the document is complete and no jQuery requests are in flight, then settles.
func (a *Actions) WaitReady(ctx context.Context, timeout time.Duration) error {
	a.log.Debug("waiting for page ready state")
	err := a.WaitUntil(ctx, "page ready", timeout, func() bool {
		res, err := a.page.Evaluate(readyScript)
		if err != nil {
			return false
		}
		ready, ok := res.(bool)
		return ok && ready
	})
	if err != nil {
		return err
	}
	if err := Sleep(ctx, a.timing.ReadySettle); err != nil {
		return err
	}
	a.log.Debug("page ready state confirmed")
	return nil
}

// Refresh reloads the current page.
func (a *Actions) Refresh() error {
	a.log.Print("refreshing page")
	if err := a.page.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// ScrollToBottom scrolls the window to the end of the document.
func (a *Actions) ScrollToBottom() error {
	a.log.Print("scrolling to bottom")
	if _, err := a.page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return nil
}

// Sleep pauses for d unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// IsNotFound reports whether err is an exhausted resolution in any scope.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotFoundAnywhere)
}
