package pages

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
)

// fakeScope answers queries from an element table keyed by locator string.
type fakeScope struct {
	name     string
	elements map[string]*fakeElement
}

func newFakeScope(name string) *fakeScope {
	return &fakeScope{name: name, elements: map[string]*fakeElement{}}
}

func (s *fakeScope) Name() string { return s.name }

func (s *fakeScope) Query(loc locator.Locator) (browser.Element, error) {
	el, ok := s.elements[loc.String()]
	if !ok || el.detached {
		return nil, nil //nolint:nilnil // absent
	}
	return el, nil
}

// fakeSite is a page of the ticketing application with a main scope and frames.
type fakeSite struct {
	url     string
	main    *fakeScope
	frames  []*fakeScope
	visited []string
	onGoto  func(url string)
	gotoErr error
	scripts []string
	shots   []string
	reloads int
	tabs    int
}

func newFakeSite(url string) *fakeSite {
	return &fakeSite{url: url, main: newFakeScope("top document")}
}

// add puts an element for the set's locator at index idx (default 0) into the main scope.
func (s *fakeSite) add(set locator.Set, el *fakeElement, idx ...int) *fakeElement {
	i := 0
	if len(idx) > 0 {
		i = idx[0]
	}
	if el == nil {
		el = &fakeElement{}
	}
	el.name = set.String()
	s.main.elements[set.Locators[i].String()] = el
	return el
}

func (s *fakeSite) remove(set locator.Set) {
	for _, l := range set.Locators {
		delete(s.main.elements, l.String())
	}
}

func (s *fakeSite) Main() browser.Scope { return s.main }

func (s *fakeSite) Frames() []browser.Scope {
	res := make([]browser.Scope, 0, len(s.frames))
	for _, f := range s.frames {
		res = append(res, f)
	}
	return res
}

func (s *fakeSite) Goto(url string) error {
	s.visited = append(s.visited, url)
	if s.gotoErr != nil {
		return s.gotoErr
	}
	s.url = url
	if s.onGoto != nil {
		s.onGoto(url)
	}
	return nil
}

func (s *fakeSite) URL() string   { return s.url }
func (s *fakeSite) Reload() error { s.reloads++; return nil }

func (s *fakeSite) Evaluate(script string, _ ...any) (any, error) {
	s.scripts = append(s.scripts, script)
	return true, nil
}

func (s *fakeSite) Screenshot(path string) error { s.shots = append(s.shots, path); return nil }
func (s *fakeSite) SwitchToLatestTab() error     { s.tabs++; return nil }

// fakeElement records interactions. hidden makes it invisible, detached removes it from queries.
type fakeElement struct {
	name     string
	text     string
	checked  bool
	hidden   bool
	detached bool

	clickErr, typeErr, selectErr error
	onClick                      func()

	calls []string
	typed string
	value string
}

func (e *fakeElement) record(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *fakeElement) clicks() int {
	n := 0
	for _, c := range e.calls {
		if strings.HasSuffix(c, "click") {
			n++
		}
	}
	return n
}

func (e *fakeElement) ScrollIntoView() error { return nil }

func (e *fakeElement) Click(time.Duration) error {
	e.record("click")
	if e.clickErr != nil {
		return e.clickErr
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) PointerClick(time.Duration) error {
	e.record("pointer click")
	return e.clickErr
}

func (e *fakeElement) ScriptClick() error {
	e.record("script click")
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Clear() error { e.record("clear"); e.typed = ""; return nil }

func (e *fakeElement) TypeText(text string) error {
	e.record("type %s", text)
	if e.typeErr != nil {
		return e.typeErr
	}
	e.typed += text
	return nil
}

func (e *fakeElement) SetValue(value string) error { e.record("set %s", value); e.value = value; return nil }
func (e *fakeElement) Press(key string) error      { e.record("press %s", key); return nil }
func (e *fakeElement) Text() (string, error)       { return e.text, nil }
func (e *fakeElement) IsChecked() (bool, error)    { return e.checked, nil }
func (e *fakeElement) IsVisible() (bool, error)    { return !e.hidden, nil }

func (e *fakeElement) SelectByLabel(label string) error {
	e.record("select %s", label)
	return e.selectErr
}

// fakeLog collects log lines, steps and records.
type fakeLog struct {
	dir string

	mu      sync.Mutex
	prints  []string
	debugs  []string
	steps   []string
	records map[string][]string
}

func newFakeLog(dir string) *fakeLog {
	return &fakeLog{dir: dir, records: map[string][]string{}}
}

func (l *fakeLog) Print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prints = append(l.prints, fmt.Sprintf(format, args...))
}

func (l *fakeLog) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *fakeLog) Step(name string, fn func() error) error {
	l.mu.Lock()
	l.steps = append(l.steps, name)
	l.mu.Unlock()
	return fn()
}

func (l *fakeLog) Record(rel, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rel] = append(l.records[rel], line)
	return nil
}

func (l *fakeLog) Path(elem ...string) string {
	return filepath.Join(append([]string{l.dir}, elem...)...)
}

func (l *fakeLog) printed() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.prints, "\n")
}

// testWaits keeps missing elements cheap.
func testWaits() Waits {
	return Waits{
		Default: 40 * time.Millisecond,
		Short:   30 * time.Millisecond,
		Probe:   10 * time.Millisecond,
		Blink:   5 * time.Millisecond,
		Settle:  time.Millisecond,
		Beat:    time.Millisecond,
	}
}

func newTestEnv(t *testing.T, site *fakeSite) (Env, *fakeLog) {
	t.Helper()
	log := newFakeLog("logs")
	res := browser.NewResolver(log, 2*time.Millisecond)
	timing := browser.Timing{
		NativeClick:  time.Millisecond,
		PointerPause: time.Millisecond,
		FrameProbe:   5 * time.Millisecond,
		PerFrame:     5 * time.Millisecond,
	}
	return Env{Actions: browser.NewActions(site, res, log, timing), Log: log, Waits: testWaits()}, log
}
