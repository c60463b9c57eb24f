package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// fakeScope answers queries from a fixed element table keyed by locator string.
type fakeScope struct {
	name     string
	elements map[string]*fakeElement
	errs     map[string]error     // query errors per locator
	appearAt map[string]time.Time // element becomes present only after this time

	mu      sync.Mutex
	queries []string
}

func newFakeScope(name string) *fakeScope {
	return &fakeScope{
		name:     name,
		elements: map[string]*fakeElement{},
		errs:     map[string]error{},
		appearAt: map[string]time.Time{},
	}
}

func (s *fakeScope) with(loc locator.Locator, el *fakeElement) *fakeScope {
	s.elements[loc.String()] = el
	return s
}

func (s *fakeScope) Name() string { return s.name }

func (s *fakeScope) Query(loc locator.Locator) (Element, error) {
	s.mu.Lock()
	s.queries = append(s.queries, loc.String())
	s.mu.Unlock()

	key := loc.String()
	if err, ok := s.errs[key]; ok {
		return nil, err
	}
	el, ok := s.elements[key]
	if !ok {
		return nil, nil
	}
	if at, ok := s.appearAt[key]; ok && time.Now().Before(at) {
		return nil, nil
	}
	return el, nil
}

func (s *fakeScope) queried() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, len(s.queries))
	copy(res, s.queries)
	return res
}

// distinct returns queried locators without consecutive repeats from polling.
func (s *fakeScope) distinct() []string {
	var res []string
	for _, q := range s.queried() {
		if len(res) == 0 || res[len(res)-1] != q {
			res = append(res, q)
		}
	}
	return res
}

// fakeDoc is a document with a main scope and frames.
type fakeDoc struct {
	main        *fakeScope
	frames      []*fakeScope
	framesCalls int
}

func (d *fakeDoc) Main() Scope { return d.main }

func (d *fakeDoc) Frames() []Scope {
	d.framesCalls++
	res := make([]Scope, 0, len(d.frames))
	for _, f := range d.frames {
		res = append(res, f)
	}
	return res
}

// fakeElement records interactions; the *Err fields make the matching call fail.
type fakeElement struct {
	id string

	clickErr, pointerErr, scriptErr, scrollErr error
	clearErr, typeErr, setErr, pressErr        error
	text                                       string
	checked                                    bool
	visible                                    bool
	selectErr                                  error

	calls []string
	typed string
	value string
}

func (e *fakeElement) record(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *fakeElement) ScrollIntoView() error { e.record("scroll"); return e.scrollErr }

func (e *fakeElement) Click(timeout time.Duration) error {
	e.record("click")
	return e.clickErr
}

func (e *fakeElement) PointerClick(pause time.Duration) error {
	e.record("pointer")
	return e.pointerErr
}

func (e *fakeElement) ScriptClick() error { e.record("script"); return e.scriptErr }

func (e *fakeElement) Clear() error {
	e.record("clear")
	if e.clearErr == nil {
		e.typed = ""
	}
	return e.clearErr
}

func (e *fakeElement) TypeText(text string) error {
	e.record("type %s", text)
	if e.typeErr == nil {
		e.typed += text
	}
	return e.typeErr
}

func (e *fakeElement) SetValue(value string) error {
	e.record("set %s", value)
	e.value = value
	return e.setErr
}

func (e *fakeElement) Press(key string) error { e.record("press %s", key); return e.pressErr }

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) IsChecked() (bool, error) { return e.checked, nil }

func (e *fakeElement) IsVisible() (bool, error) { return e.visible, nil }

func (e *fakeElement) SelectByLabel(label string) error {
	e.record("select %s", label)
	return e.selectErr
}

// fakePage wraps fakeDoc with page operations.
type fakePage struct {
	*fakeDoc
	url       string
	evalRes   any
	evalErr   error
	reloads   int
	scripts   []string
	shots     []string
	switchErr error
}

func (p *fakePage) Goto(url string) error { p.url = url; return nil }
func (p *fakePage) URL() string           { return p.url }
func (p *fakePage) Reload() error         { p.reloads++; return nil }

func (p *fakePage) Evaluate(script string, _ ...any) (any, error) {
	p.scripts = append(p.scripts, script)
	return p.evalRes, p.evalErr
}

func (p *fakePage) Screenshot(path string) error { p.shots = append(p.shots, path); return nil }
func (p *fakePage) SwitchToLatestTab() error     { return p.switchErr }

// logRecorder collects log lines.
type logRecorder struct {
	mu     sync.Mutex
	prints []string
	debugs []string
}

func (l *logRecorder) Print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prints = append(l.prints, fmt.Sprintf(format, args...))
}

func (l *logRecorder) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

var errIntercepted = errors.New("element click intercepted")
