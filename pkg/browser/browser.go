// Package browser resolves locator sets against a live page and performs clicks and typing with
// interaction fallbacks. The playwright-go adapter in this package is the production implementation
// of the Page, Scope and Element abstractions; tests substitute fakes.
package browser

import (
	"time"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// Logger is the logging context injected into the resolver and actions.
type Logger interface {
	Print(format string, args ...any) // step trace
	Debug(format string, args ...any) // full debug trace
}

// Element is a resolved DOM element.
type Element interface {
	ScrollIntoView() error
	Click(timeout time.Duration) error // native click with actionability checks
	PointerClick(pause time.Duration) error
	ScriptClick() error
	Clear() error
	TypeText(text string) error // discrete key input
	SetValue(value string) error
	Press(key string) error
	Text() (string, error)
	IsChecked() (bool, error)
	IsVisible() (bool, error)
	SelectByLabel(label string) error
}

// Scope is a document or frame context a locator is evaluated against.
type Scope interface {
	Name() string
	// Query returns the first element matching loc, or nil with no error when nothing matches.
	Query(loc locator.Locator) (Element, error)
}

// Document exposes the top-level scope and the embedded frames of a page.
type Document interface {
	Main() Scope
	// Frames returns embedded frames in document order, excluding the top-level document.
	Frames() []Scope
}

// Page is the browser tab a flow drives.
type Page interface {
	Document
	Goto(url string) error
	URL() string
	Reload() error
	Evaluate(script string, args ...any) (any, error)
	Screenshot(path string) error
	SwitchToLatestTab() error
}

// Session is one isolated browser session owning a single page.
type Session interface {
	Page() Page
	Close() error
}
