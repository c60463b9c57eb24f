package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// resolution and interaction failures.
var (
	ErrNotFound         = errors.New("element not found")
	ErrNotFoundAnywhere = errors.New("element not found in document or any frame")
	ErrUnclickable      = errors.New("element not clickable")
)

// ResolveError describes an exhausted resolution. It matches its Kind and the last
// underlying failure with errors.Is.
type ResolveError struct {
	Kind   error
	Set    locator.Set
	Scopes []string
	Err    error
}

func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("%v: %s in %s", e.Kind, e.Set, strings.Join(e.Scopes, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying failure.
func (e *ResolveError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ClickError is returned when every interaction level failed for an element.
type ClickError struct {
	Target string
	Errs   []error // one per attempted level, in precedence order
}

func (e *ClickError) Error() string {
	parts := make([]string, 0, len(e.Errs))
	for i, err := range e.Errs {
		parts = append(parts, fmt.Sprintf("%s: %v", clickLevels[i], err))
	}
	return fmt.Sprintf("%v: %s (%s)", ErrUnclickable, e.Target, strings.Join(parts, "; "))
}

// Unwrap matches ErrUnclickable and every level failure.
func (e *ClickError) Unwrap() []error {
	return append([]error{ErrUnclickable}, e.Errs...)
}
