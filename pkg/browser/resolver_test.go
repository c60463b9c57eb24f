package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

const testPoll = 10 * time.Millisecond

func TestResolver_Resolve(t *testing.T) {
	t.Run("first match short-circuits", func(t *testing.T) {
		el := &fakeElement{id: "btn"}
		scope := newFakeScope("top").with(locator.ID("loginButton"), el).with(locator.XPath("//input"), &fakeElement{})
		r := NewResolver(&logRecorder{}, testPoll)

		got, err := r.Resolve(context.Background(), scope, locator.New("login", locator.ID("loginButton"), locator.XPath("//input")), time.Second)
		require.NoError(t, err)
		assert.Same(t, el, got)
		assert.Equal(t, []string{"id=loginButton"}, scope.queried(), "later locators must not be queried")
	})

	t.Run("falls through to second locator after timeout", func(t *testing.T) {
		el := &fakeElement{id: "foo"}
		scope := newFakeScope("top").with(locator.XPath("//div[@id='foo']"), el)
		r := NewResolver(&logRecorder{}, testPoll)
		set := locator.New("foo", locator.ID("foo"), locator.XPath("//div[@id='foo']"))

		start := time.Now()
		got, err := r.Resolve(context.Background(), scope, set, 100*time.Millisecond)
		elapsed := time.Since(start)
		require.NoError(t, err)
		assert.Same(t, el, got)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond, "first locator should use its whole timeout")
		assert.Equal(t, []string{"id=foo", "xpath=//div[@id='foo']"}, scope.distinct())
		assert.Greater(t, len(scope.queried()), 2, "first locator should be polled repeatedly")
	})

	t.Run("element appearing during polling is found", func(t *testing.T) {
		el := &fakeElement{}
		scope := newFakeScope("top").with(locator.ID("late"), el)
		scope.appearAt["id=late"] = time.Now().Add(50 * time.Millisecond)
		r := NewResolver(&logRecorder{}, testPoll)

		got, err := r.Resolve(context.Background(), scope, locator.New("late", locator.ID("late")), time.Second)
		require.NoError(t, err)
		assert.Same(t, el, got)
	})

	t.Run("not found after about the timeout", func(t *testing.T) {
		scope := newFakeScope("top")
		r := NewResolver(&logRecorder{}, 20*time.Millisecond)

		start := time.Now()
		_, err := r.Resolve(context.Background(), scope, locator.New("ghost", locator.ID("ghost")), 200*time.Millisecond)
		elapsed := time.Since(start)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrNotFoundAnywhere))
		assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond, "must not fail immediately")
		assert.Less(t, elapsed, 600*time.Millisecond, "must not wait much past the timeout")

		var re *ResolveError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, []string{"top"}, re.Scopes)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("zero timeout probes once", func(t *testing.T) {
		scope := newFakeScope("top")
		r := NewResolver(&logRecorder{}, testPoll)

		_, err := r.Resolve(context.Background(), scope, locator.New("x", locator.ID("a"), locator.ID("b")), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, []string{"id=a", "id=b"}, scope.queried())
	})

	t.Run("carries last underlying failure", func(t *testing.T) {
		badXPath := errors.New("invalid xpath")
		scope := newFakeScope("top")
		scope.errs["xpath=//div["] = badXPath
		r := NewResolver(&logRecorder{}, testPoll)

		_, err := r.Resolve(context.Background(), scope, locator.New("x", locator.ID("a"), locator.XPath("//div[")), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(err, badXPath))
	})

	t.Run("empty set is rejected", func(t *testing.T) {
		r := NewResolver(&logRecorder{}, testPoll)
		_, err := r.Resolve(context.Background(), newFakeScope("top"), locator.New("empty"), time.Second)
		require.Error(t, err)
		assert.True(t, errors.Is(err, locator.ErrEmptySet))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("canceled context stops polling", func(t *testing.T) {
		scope := newFakeScope("top")
		r := NewResolver(&logRecorder{}, testPoll)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := r.Resolve(ctx, scope, locator.New("x", locator.ID("a"), locator.ID("b")), 5*time.Second)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("logs the matching locator", func(t *testing.T) {
		log := &logRecorder{}
		scope := newFakeScope("top").with(locator.CSS("i.fa-database"), &fakeElement{})
		r := NewResolver(log, testPoll)

		_, err := r.Resolve(context.Background(), scope, locator.New("db icon", locator.XPath("//i"), locator.CSS("i.fa-database")), 0)
		require.NoError(t, err)
		assert.Contains(t, log.debugs[len(log.debugs)-1], "db icon: matched css selector=i.fa-database in top")
	})
}

func TestResolver_ResolveAnywhere(t *testing.T) {
	set := locator.New("confirm", locator.ID("confirm"))

	t.Run("found in top document", func(t *testing.T) {
		el := &fakeElement{}
		doc := &fakeDoc{main: newFakeScope("top").with(locator.ID("confirm"), el)}
		r := NewResolver(&logRecorder{}, testPoll)

		got, err := r.ResolveAnywhere(context.Background(), doc, set, 0, 0)
		require.NoError(t, err)
		assert.Same(t, el, got)
		assert.Equal(t, 0, doc.framesCalls, "frames must not be enumerated when top matches")
	})

	t.Run("frames visited in order, top once", func(t *testing.T) {
		el := &fakeElement{}
		f0, f1, f2 := newFakeScope("frame #0"), newFakeScope("frame #1").with(locator.ID("confirm"), el), newFakeScope("frame #2")
		doc := &fakeDoc{main: newFakeScope("top"), frames: []*fakeScope{f0, f1, f2}}
		log := &logRecorder{}
		r := NewResolver(log, testPoll)

		got, err := r.ResolveAnywhere(context.Background(), doc, set, 0, 0)
		require.NoError(t, err)
		assert.Same(t, el, got)
		assert.Len(t, doc.main.queried(), 1, "top document visited once")
		assert.Len(t, f0.queried(), 1)
		assert.Len(t, f1.queried(), 1)
		assert.Empty(t, f2.queried(), "frames after the match are not visited")
		assert.Contains(t, log.prints, "found confirm inside frame #1 (frame #1)")
	})

	t.Run("not found anywhere", func(t *testing.T) {
		f0, f1 := newFakeScope("frame #0"), newFakeScope("frame #1")
		doc := &fakeDoc{main: newFakeScope("top"), frames: []*fakeScope{f0, f1}}
		r := NewResolver(&logRecorder{}, testPoll)

		_, err := r.ResolveAnywhere(context.Background(), doc, set, 0, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFoundAnywhere))
		assert.False(t, errors.Is(err, ErrNotFound))

		var re *ResolveError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, []string{"top", "frame #0", "frame #1"}, re.Scopes)
		assert.Len(t, doc.main.queried(), 1)
	})

	t.Run("no frames", func(t *testing.T) {
		doc := &fakeDoc{main: newFakeScope("top")}
		r := NewResolver(&logRecorder{}, testPoll)

		_, err := r.ResolveAnywhere(context.Background(), doc, set, 0, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFoundAnywhere))
	})

	t.Run("invalid set is not escalated", func(t *testing.T) {
		doc := &fakeDoc{main: newFakeScope("top"), frames: []*fakeScope{newFakeScope("frame #0")}}
		r := NewResolver(&logRecorder{}, testPoll)

		_, err := r.ResolveAnywhere(context.Background(), doc, locator.New("empty"), 0, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, locator.ErrEmptySet))
		assert.Equal(t, 0, doc.framesCalls)
	})
}

func TestResolver_Exists(t *testing.T) {
	scope := newFakeScope("top").with(locator.ID("here"), &fakeElement{})
	r := NewResolver(&logRecorder{}, testPoll)

	assert.True(t, r.Exists(context.Background(), scope, locator.New("here", locator.ID("here")), 0))
	assert.False(t, r.Exists(context.Background(), scope, locator.New("gone", locator.ID("gone")), 0))
}

func TestNewResolver_DefaultInterval(t *testing.T) {
	r := NewResolver(&logRecorder{}, 0)
	assert.Equal(t, DefaultPollInterval, r.pollInterval)
}
