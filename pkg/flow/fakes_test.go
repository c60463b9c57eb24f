package flow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
	"github.com/cityledger/ticketsuite/pkg/pages"
)

// fakePage is a permissive application page: every locator matches an element unless marked missing.
type fakePage struct {
	url      string
	missing  map[string]bool
	elements map[string]*fakeElement
	onClick  map[string]func()
	visited  []string
	shots     []string
	shotErr   error
	reloadErr error
}

func newFakePage() *fakePage {
	p := &fakePage{missing: map[string]bool{}, elements: map[string]*fakeElement{}, onClick: map[string]func(){}}
	p.without(pages.NotFound404, pages.NotAuthorized)
	return p
}

func (p *fakePage) without(sets ...locator.Set) {
	for _, s := range sets {
		for _, l := range s.Locators {
			p.missing[l.String()] = true
		}
	}
}

func (p *fakePage) with(sets ...locator.Set) {
	for _, s := range sets {
		for _, l := range s.Locators {
			delete(p.missing, l.String())
		}
	}
}

func (p *fakePage) element(key string) *fakeElement {
	el, ok := p.elements[key]
	if !ok {
		el = &fakeElement{page: p, key: key}
		p.elements[key] = el
	}
	return el
}

// each applies fn to the elements of every locator in the set.
func (p *fakePage) each(set locator.Set, fn func(el *fakeElement)) {
	for _, l := range set.Locators {
		fn(p.element(l.String()))
	}
}

func (p *fakePage) setText(set locator.Set, text string) {
	p.each(set, func(el *fakeElement) { el.text = text })
}

func (p *fakePage) whenClicked(set locator.Set, fn func()) {
	for _, l := range set.Locators {
		p.onClick[l.String()] = fn
	}
}

// typed returns what was typed into the first locator of the set that got input.
func (p *fakePage) typed(set locator.Set) string {
	for _, l := range set.Locators {
		if el, ok := p.elements[l.String()]; ok && (el.typed != "" || el.value != "") {
			return el.typed + el.value
		}
	}
	return ""
}

func (p *fakePage) Name() string { return "top document" }

func (p *fakePage) Query(loc locator.Locator) (browser.Element, error) {
	if p.missing[loc.String()] {
		return nil, nil //nolint:nilnil // absent
	}
	return p.element(loc.String()), nil
}

func (p *fakePage) Main() browser.Scope      { return p }
func (p *fakePage) Frames() []browser.Scope  { return nil }
func (p *fakePage) URL() string              { return p.url }
func (p *fakePage) Reload() error            { return p.reloadErr }
func (p *fakePage) SwitchToLatestTab() error { return nil }

func (p *fakePage) Goto(url string) error {
	p.visited = append(p.visited, url)
	p.url = url
	return nil
}

func (p *fakePage) Evaluate(string, ...any) (any, error) { return true, nil }

func (p *fakePage) Screenshot(path string) error {
	if p.shotErr != nil {
		return p.shotErr
	}
	p.shots = append(p.shots, path)
	return nil
}

type fakeElement struct {
	page   *fakePage
	key    string
	text   string
	hidden bool
	typed  string
	value  string
	clicks int
}

func (e *fakeElement) click() {
	e.clicks++
	if fn := e.page.onClick[e.key]; fn != nil {
		fn()
	}
}

func (e *fakeElement) ScrollIntoView() error            { return nil }
func (e *fakeElement) Click(time.Duration) error        { e.click(); return nil }
func (e *fakeElement) PointerClick(time.Duration) error { e.click(); return nil }
func (e *fakeElement) ScriptClick() error               { e.click(); return nil }
func (e *fakeElement) Clear() error                     { e.typed = ""; return nil }
func (e *fakeElement) TypeText(text string) error       { e.typed += text; return nil }
func (e *fakeElement) SetValue(value string) error      { e.value = value; return nil }
func (e *fakeElement) Press(string) error               { return nil }
func (e *fakeElement) Text() (string, error)            { return e.text, nil }
func (e *fakeElement) IsChecked() (bool, error)         { return false, nil }
func (e *fakeElement) IsVisible() (bool, error)         { return !e.hidden, nil }
func (e *fakeElement) SelectByLabel(label string) error { e.value = label; return nil }

// fakeSession wraps a page and counts closes.
type fakeSession struct {
	page     browser.Page
	closed   int
	closeErr error
}

func (s *fakeSession) Page() browser.Page { return s.page }
func (s *fakeSession) Close() error       { s.closed++; return s.closeErr }

// fakeOpener hands out sessions over fresh pages made by newPage.
type fakeOpener struct {
	newPage  func() browser.Page
	err      error
	sessions []*fakeSession
}

func (o *fakeOpener) NewSession() (browser.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	var page browser.Page = newFakePage()
	if o.newPage != nil {
		page = o.newPage()
	}
	s := &fakeSession{page: page}
	o.sessions = append(o.sessions, s)
	return s, nil
}

// closingOpener makes every session of opener fail to close with err.
type closingOpener struct {
	opener *fakeOpener
	err    error
}

func (o closingOpener) NewSession() (browser.Session, error) {
	s, err := o.opener.NewSession()
	if err != nil {
		return nil, err
	}
	s.(*fakeSession).closeErr = o.err
	return s, nil
}

// fakeLog collects everything the flows log.
type fakeLog struct {
	prints  []string
	debugs  []string
	warns   []string
	steps   []string
	results []string
	records map[string][]string
}

func newFakeLog() *fakeLog { return &fakeLog{records: map[string][]string{}} }

func (l *fakeLog) Print(format string, args ...any) { l.prints = append(l.prints, fmt.Sprintf(format, args...)) }
func (l *fakeLog) Debug(format string, args ...any) { l.debugs = append(l.debugs, fmt.Sprintf(format, args...)) }
func (l *fakeLog) Warn(format string, args ...any)  { l.warns = append(l.warns, fmt.Sprintf(format, args...)) }

func (l *fakeLog) Step(name string, fn func() error) error {
	l.steps = append(l.steps, name)
	return fn()
}

func (l *fakeLog) Result(name string, err error) {
	if err != nil {
		l.results = append(l.results, "FAIL "+name)
		return
	}
	l.results = append(l.results, "SUCCESS "+name)
}

func (l *fakeLog) Record(rel, line string) error {
	if rel == "" {
		return errors.New("empty record name")
	}
	l.records[rel] = append(l.records[rel], line)
	return nil
}

func (l *fakeLog) Path(elem ...string) string {
	return filepath.Join(append([]string{"logs"}, elem...)...)
}

func (l *fakeLog) warned() string { return strings.Join(l.warns, "\n") }

func testOptions() Options {
	return Options{
		Timing: browser.Timing{
			NativeClick:  time.Millisecond,
			PointerPause: time.Millisecond,
			FrameProbe:   5 * time.Millisecond,
			PerFrame:     5 * time.Millisecond,
		},
		PollInterval: 2 * time.Millisecond,
		Waits: pages.Waits{
			Default: 40 * time.Millisecond,
			Short:   30 * time.Millisecond,
			Probe:   10 * time.Millisecond,
			Blink:   5 * time.Millisecond,
			Settle:  time.Millisecond,
			Beat:    time.Millisecond,
		},
	}
}
