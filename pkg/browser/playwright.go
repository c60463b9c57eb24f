package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// pwPage adapts a playwright page (and its browser context, for tab switching) to Page.
type pwPage struct {
	bctx    playwright.BrowserContext
	page    playwright.Page
	navWait time.Duration
}

func (p *pwPage) Main() Scope {
	return &pwScope{frame: p.page.MainFrame(), page: p.page, name: "top document"}
}

// Frames walks the frame tree depth-first so frames come out in document order.
func (p *pwPage) Frames() []Scope {
	var res []Scope
	var walk func(f playwright.Frame, path string)
	walk = func(f playwright.Frame, path string) {
		for i, child := range f.ChildFrames() {
			if child.IsDetached() {
				continue
			}
			childPath := fmt.Sprintf("%s%d", path, i)
			name := "frame #" + childPath
			if n := child.Name(); n != "" {
				name += " (" + n + ")"
			}
			res = append(res, &pwScope{frame: child, page: p.page, name: name})
			walk(child, childPath+".")
		}
	}
	walk(p.page.MainFrame(), "")
	return res
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(p.navWait.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Reload() error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		Timeout: playwright.Float(float64(p.navWait.Milliseconds())),
	})
	return err
}

func (p *pwPage) Evaluate(script string, args ...any) (any, error) {
	return p.page.Evaluate(script, args...)
}

// Screenshot writes a PNG of the viewport, creating parent directories.
func (p *pwPage) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if _, err := p.page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return nil
}

// SwitchToLatestTab makes the most recently opened tab of the session current.
func (p *pwPage) SwitchToLatestTab() error {
	pages := p.bctx.Pages()
	if len(pages) == 0 {
		return errors.New("no open tabs")
	}
	last := pages[len(pages)-1]
	if err := last.BringToFront(); err != nil {
		return fmt.Errorf("bring tab to front: %w", err)
	}
	p.page = last
	return nil
}

// pwScope evaluates locators inside one frame.
type pwScope struct {
	frame playwright.Frame
	page  playwright.Page
	name  string
}

func (s *pwScope) Name() string { return s.name }

func (s *pwScope) Query(loc locator.Locator) (Element, error) {
	sel, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	h, err := s.frame.QuerySelector(sel)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil //nolint:nilnil // absence is not an error while polling
	}
	return &pwElement{h: h, page: s.page}, nil
}

// pwElement adapts an element handle; page is kept for pointer input.
type pwElement struct {
	h    playwright.ElementHandle
	page playwright.Page
}

func (e *pwElement) ScrollIntoView() error {
	_, err := e.h.Evaluate(`el => el.scrollIntoView({block: 'center', inline: 'center'})`)
	return err
}

func (e *pwElement) Click(timeout time.Duration) error {
	return e.h.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// PointerClick moves the mouse to the element center, pauses and clicks there.
func (e *pwElement) PointerClick(pause time.Duration) error {
	box, err := e.h.BoundingBox()
	if err != nil {
		return fmt.Errorf("bounding box: %w", err)
	}
	if box == nil {
		return errors.New("element has no layout box")
	}
	x, y := box.X+box.Width/2, box.Y+box.Height/2
	if err := e.page.Mouse().Move(x, y); err != nil {
		return fmt.Errorf("move pointer: %w", err)
	}
	time.Sleep(pause)
	return e.page.Mouse().Click(x, y)
}

func (e *pwElement) ScriptClick() error {
	_, err := e.h.Evaluate(`el => el.click()`)
	return err
}

func (e *pwElement) Clear() error {
	return e.h.Fill("")
}

func (e *pwElement) TypeText(text string) error {
	if err := e.h.Focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	return e.page.Keyboard().Type(text)
}

const setValueScript = `(el, v) => {
	el.value = v;
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	el.blur();
}`

func (e *pwElement) SetValue(value string) error {
	_, err := e.h.Evaluate(setValueScript, value)
	return err
}

func (e *pwElement) Press(key string) error { return e.h.Press(key) }

func (e *pwElement) Text() (string, error) { return e.h.InnerText() }

func (e *pwElement) IsChecked() (bool, error) { return e.h.IsChecked() }

func (e *pwElement) IsVisible() (bool, error) { return e.h.IsVisible() }

func (e *pwElement) SelectByLabel(label string) error {
	_, err := e.h.SelectOption(playwright.SelectOptionValues{Labels: playwright.StringSlice(label)})
	return err
}
