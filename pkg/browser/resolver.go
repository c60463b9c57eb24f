package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// DefaultPollInterval is the fixed interval between presence probes.
const DefaultPollInterval = 250 * time.Millisecond

// Resolver turns a locator set plus a scope into an element handle.
type Resolver struct {
	log          Logger
	pollInterval time.Duration
}

// NewResolver makes a resolver polling at the given interval (DefaultPollInterval if not positive).
func NewResolver(log Logger, pollInterval time.Duration) *Resolver {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Resolver{log: log, pollInterval: pollInterval}
}

// Resolve tries each locator of the set in order against scope, polling every locator until it is
// present or timeout elapses. The first match wins and later locators are never queried.
// Returns a *ResolveError matching ErrNotFound when all locators time out.
func (r *Resolver) Resolve(ctx context.Context, scope Scope, set locator.Set, timeout time.Duration) (Element, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	cands := make([]candidate[Element], 0, len(set.Locators))
	for _, loc := range set.Locators {
		cands = append(cands, candidate[Element]{
			name: loc.String(),
			try:  func() (Element, error) { return r.poll(ctx, scope, loc, timeout) },
		})
	}

	el, idx, errs := firstOK(cands, func(name string, err error) {
		r.log.Debug("resolve %s: %s failed in %s: %v", set, name, scope.Name(), err)
	})
	if idx < 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("resolve %s: %w", set, ctxErr)
		}
		return nil, &ResolveError{Kind: ErrNotFound, Set: set, Scopes: []string{scope.Name()}, Err: lastErr(errs)}
	}

	r.log.Debug("resolve %s: matched %s in %s", set, set.Locators[idx], scope.Name())
	return el, nil
}

// ResolveAnywhere resolves in the top-level document first, then in every embedded frame in
// document order. The top-level document is tried once, with topTimeout; each frame gets
// frameTimeout. Returns a *ResolveError matching ErrNotFoundAnywhere when every scope is exhausted.
func (r *Resolver) ResolveAnywhere(ctx context.Context, doc Document, set locator.Set, topTimeout, frameTimeout time.Duration) (Element, error) {
	top := doc.Main()
	el, err := r.Resolve(ctx, top, set, topTimeout)
	if err == nil {
		return el, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	frames := doc.Frames()
	r.log.Print("scanning %d frame(s) for %s", len(frames), set)

	cands := make([]candidate[Element], 0, len(frames))
	for _, f := range frames {
		cands = append(cands, candidate[Element]{
			name: f.Name(),
			try:  func() (Element, error) { return r.Resolve(ctx, f, set, frameTimeout) },
		})
	}

	el, idx, errs := firstOK(cands, func(name string, err error) {
		r.log.Debug("not in frame %s (%v)", name, err)
	})
	if idx >= 0 {
		r.log.Print("found %s inside frame #%d (%s)", set, idx, frames[idx].Name())
		return el, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("resolve %s: %w", set, ctxErr)
	}

	scopes := []string{top.Name()}
	for _, f := range frames {
		scopes = append(scopes, f.Name())
	}
	last := err
	if len(errs) > 0 {
		last = errs[len(errs)-1]
	}
	var re *ResolveError
	if errors.As(last, &re) {
		last = re.Err
	}
	return nil, &ResolveError{Kind: ErrNotFoundAnywhere, Set: set, Scopes: scopes, Err: last}
}

// Exists reports whether any locator of the set matches within timeout.
func (r *Resolver) Exists(ctx context.Context, scope Scope, set locator.Set, timeout time.Duration) bool {
	_, err := r.Resolve(ctx, scope, set, timeout)
	return err == nil
}

// poll probes scope for loc at a fixed interval until the element is present or timeout elapses.
// a non-positive timeout performs exactly one lookup.
func (r *Resolver) poll(ctx context.Context, scope Scope, loc locator.Locator, timeout time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	var queryErr error
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		el, err := scope.Query(loc)
		if err == nil && el != nil {
			return el, nil
		}
		if err != nil {
			queryErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(min(r.pollInterval, remaining)):
		}
	}

	if queryErr != nil {
		return nil, fmt.Errorf("%s not present within %s: %w", loc, timeout, queryErr)
	}
	return nil, fmt.Errorf("%s not present within %s", loc, timeout)
}
