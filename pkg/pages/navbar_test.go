package pages

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://lyons.example.gov"

func TestNavBar_OpenDataSearch(t *testing.T) {
	t.Run("falls back to the menu label", func(t *testing.T) {
		site := newFakeSite(baseURL + "/home")
		env, log := newTestEnv(t, site)
		toggle := site.add(NavToggle, nil)
		label := site.add(DataMenuLabel, nil)
		site.add(SearchMenuLink, &fakeElement{onClick: func() { site.url = baseURL + "/data/search" }})

		require.NoError(t, NewNavBar(env).OpenDataSearch(context.Background()))
		assert.Equal(t, 1, toggle.clicks())
		assert.Equal(t, 1, label.clicks())
		assert.Equal(t, []string{"Open Data search"}, log.steps)
	})

	t.Run("same url routing is tolerated", func(t *testing.T) {
		site := newFakeSite(baseURL + "/home")
		env, log := newTestEnv(t, site)
		site.add(DataMenuAnchor, nil)
		site.add(SearchMenuLink, nil, 1)

		require.NoError(t, NewNavBar(env).OpenDataSearch(context.Background()))
		assert.Contains(t, strings.Join(log.debugs, "\n"), "wait for data url skipped")
		assert.Contains(t, strings.Join(log.debugs, "\n"), "expand navbar skipped")
	})

	t.Run("missing search link fails", func(t *testing.T) {
		site := newFakeSite(baseURL + "/home")
		env, _ := newTestEnv(t, site)
		site.add(DataMenuAnchor, nil)

		err := NewNavBar(env).OpenDataSearch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open search")
	})

	t.Run("missing data menu fails", func(t *testing.T) {
		site := newFakeSite(baseURL + "/home")
		env, _ := newTestEnv(t, site)

		err := NewNavBar(env).OpenDataSearch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open data menu")
	})
}

func TestNavBar_OpenDataSearchFromIcon(t *testing.T) {
	site := newFakeSite(baseURL + "/home")
	env, _ := newTestEnv(t, site)
	icon := site.add(DatabaseIcon, nil, 1)
	search := site.add(SearchAnchor, nil)

	require.NoError(t, NewNavBar(env).OpenDataSearchFromIcon(context.Background()))
	assert.Equal(t, 1, icon.clicks())
	assert.Equal(t, 1, search.clicks())
}

func TestNavBar_BackToDataSearch(t *testing.T) {
	t.Run("data label is optional", func(t *testing.T) {
		site := newFakeSite(baseURL + "/finance/index")
		env, _ := newTestEnv(t, site)
		site.add(SearchAnchor, &fakeElement{onClick: func() { site.url = baseURL + "/data/search" }})

		require.NoError(t, NewNavBar(env).BackToDataSearch(context.Background()))
	})

	t.Run("url must reach data", func(t *testing.T) {
		site := newFakeSite(baseURL + "/finance/index")
		env, _ := newTestEnv(t, site)
		site.add(DataLabel, nil)
		site.add(SearchAnchor, nil)

		err := NewNavBar(env).BackToDataSearch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reach data search")
	})
}

func TestNavBar_GoToFinance(t *testing.T) {
	ctx := context.Background()

	t.Run("menu click", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, _ := newTestEnv(t, site)
		label := site.add(FinanceLabel, &fakeElement{onClick: func() { site.url = baseURL + "/finance/index" }})

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, label.clicks())
		assert.Empty(t, site.visited, "no direct url needed")
	})

	t.Run("script click inside a frame", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, log := newTestEnv(t, site)
		frame := newFakeScope("frame #0")
		anchor := &fakeElement{onClick: func() { site.url = baseURL + "/finance/home" }}
		frame.elements[FinanceAnchor.Locators[2].String()] = anchor
		site.frames = []*fakeScope{frame}

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"script click"}, anchor.calls)
		assert.Contains(t, log.printed(), "clicked finance anchor via script click")
		assert.Empty(t, site.visited)
	})

	t.Run("direct url skips 404 pages", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, _ := newTestEnv(t, site)
		site.onGoto = func(url string) {
			site.remove(NotFound404)
			if strings.HasSuffix(url, "/finance/index") {
				site.add(NotFound404, nil)
			}
		}

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL+"/")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{baseURL + "/finance/index", baseURL + "/finance/home"}, site.visited)
	})

	t.Run("menu leading to 404 falls back to direct urls", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, log := newTestEnv(t, site)
		site.add(FinanceLink, &fakeElement{onClick: func() {
			site.url = baseURL + "/reports"
			site.add(NotFound404, nil, 1)
		}})
		site.onGoto = func(string) { site.remove(NotFound404) }

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{baseURL + "/finance/index"}, site.visited)
		assert.Contains(t, log.printed(), "finance menu led to a 404 page")
	})

	t.Run("every url is 404", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, log := newTestEnv(t, site)
		site.onGoto = func(string) { site.add(NotFound404, nil) }

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, site.visited, len(financePaths))
		assert.Contains(t, log.printed(), "finance section not reachable")
	})

	t.Run("not authorized stops the fallback", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, _ := newTestEnv(t, site)
		site.onGoto = func(string) { site.add(NotAuthorized, nil) }

		ok, err := NewNavBar(env).GoToFinance(ctx, baseURL)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, site.visited, 1)
	})

	t.Run("canceled context", func(t *testing.T) {
		site := newFakeSite(baseURL + "/data/search")
		env, _ := newTestEnv(t, site)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		ok, err := NewNavBar(env).GoToFinance(cctx, baseURL)
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
		assert.Empty(t, site.visited)
	})
}

func TestNavBar_RequireFinance(t *testing.T) {
	site := newFakeSite(baseURL + "/data/search")
	env, _ := newTestEnv(t, site)
	site.onGoto = func(string) { site.add(NotFound404, nil) }

	err := NewNavBar(env).RequireFinance(context.Background(), baseURL)
	require.ErrorIs(t, err, ErrFinanceUnreachable)

	site2 := newFakeSite(baseURL + "/data/search")
	env2, _ := newTestEnv(t, site2)
	require.NoError(t, NewNavBar(env2).RequireFinance(context.Background(), baseURL))
}
