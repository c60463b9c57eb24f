package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// navigation bar
var (
	NavToggle      = locator.New("navbar toggle", locator.XPath("//a[@id='navbar_toggle_anchor']/i"))
	DataMenuAnchor = locator.New("data menu", locator.XPath("//li[@id='data_nav']/a"))
	DataMenuLabel  = locator.New("data menu label", locator.XPath("//li[@id='data_nav']/a/span"))
	DataLabel      = locator.New("data label", locator.XPath("//span[normalize-space()='Data']"))
	SearchMenuLink = locator.New("search link", locator.LinkText("Search"), locator.PartialLinkText("Search"))
	SearchAnchor   = locator.New("search anchor", locator.XPath("//a[normalize-space()='Search']"))

	FinanceLabelFirst = locator.New("first finance label", locator.XPath("(//span[normalize-space()='Finance'])[1]"))
	FinanceLabel      = locator.New("finance label", locator.XPath("//span[normalize-space()='Finance']"))
	FinanceLink       = locator.New("finance link", locator.XPath("//a[contains(text(),'Finance')]"))
	FinanceAnchor     = locator.New("finance anchor",
		locator.XPath("//li[.//span[normalize-space()='Finance']]//a"),
		locator.XPath("//a[contains(@href,'finance') and (normalize-space()='Finance' or .//span[normalize-space()='Finance'])]"),
		locator.CSS("a[href*='finance']"),
	)
)

// financePaths are tried in order when the Finance menu can't be used.
var financePaths = []string{"/finance/index", "/finance/home", "/finance", "/finance/transactions"}

// NavBar moves between the application's main sections.
type NavBar struct {
	env Env
}

// NewNavBar makes the navigation bar page object.
func NewNavBar(env Env) *NavBar {
	return &NavBar{env: env}
}

// OpenDataSearch opens Data, then Search, through the collapsible navigation bar.
func (n *NavBar) OpenDataSearch(ctx context.Context) error {
	return n.env.Log.Step("Open Data search", func() error {
		act, w := n.env.Actions, n.env.Waits
		if err := n.expand(ctx); err != nil {
			return err
		}
		if err := act.Click(ctx, DataMenuAnchor, w.Default); err != nil {
			n.env.Log.Debug("data menu anchor not clickable, trying its label: %v", err)
			if err := act.Click(ctx, DataMenuLabel, w.Default); err != nil {
				return fmt.Errorf("open data menu: %w", err)
			}
		}
		if err := act.Click(ctx, SearchMenuLink, w.Default); err != nil {
			return fmt.Errorf("open search: %w", err)
		}
		// some deployments route search inside the same url
		return n.env.optional(ctx, "wait for data url", act.WaitURLContains(ctx, "/data", w.Default))
	})
}

// OpenDataSearchFromIcon opens Data search through the database icon and the Search link.
func (n *NavBar) OpenDataSearchFromIcon(ctx context.Context) error {
	return n.env.Log.Step("Open Data search from icon", func() error {
		act, w := n.env.Actions, n.env.Waits
		if err := act.Click(ctx, DatabaseIcon, w.Default); err != nil {
			return fmt.Errorf("open data: %w", err)
		}
		if err := act.Click(ctx, SearchAnchor, w.Default); err != nil {
			return fmt.Errorf("open search: %w", err)
		}
		return nil
	})
}

// BackToDataSearch returns from Finance to Data search.
func (n *NavBar) BackToDataSearch(ctx context.Context) error {
	return n.env.Log.Step("Go back to Data search from Finance", func() error {
		act, w := n.env.Actions, n.env.Waits
		if err := n.env.optional(ctx, "open data menu", act.Click(ctx, DataLabel, w.Probe)); err != nil {
			return err
		}
		if err := act.Click(ctx, SearchAnchor, w.Default); err != nil {
			return fmt.Errorf("open search: %w", err)
		}
		if err := act.WaitURLContains(ctx, "/data", w.Default); err != nil {
			return fmt.Errorf("reach data search: %w", err)
		}
		return nil
	})
}

// GoToFinance opens the Finance section. It tries the menu entries in the document, then inside
// frames, and finally the known Finance urls under baseURL. Returns false when Finance could not be
// reached or access is denied; the error is set only when ctx ends.
func (n *NavBar) GoToFinance(ctx context.Context, baseURL string) (bool, error) {
	var reached bool
	err := n.env.Log.Step("Open Finance with url fallback", func() error {
		var err error
		reached, err = n.goToFinance(ctx, baseURL)
		if err != nil {
			return err
		}
		if !reached {
			n.env.Log.Print("finance section not reachable from %s", n.env.Actions.Page().URL())
		}
		return nil
	})
	return reached, err
}

func (n *NavBar) goToFinance(ctx context.Context, baseURL string) (bool, error) {
	act, w := n.env.Actions, n.env.Waits
	if err := n.expand(ctx); err != nil {
		return false, err
	}

	clicked := act.ClickFirst(ctx, []locator.Set{FinanceLabelFirst, FinanceLabel, FinanceLink, FinanceAnchor}, w.Probe)
	if !clicked {
		clicked = n.scriptClickInFrames(ctx, FinanceLabelFirst) || n.scriptClickInFrames(ctx, FinanceAnchor)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if clicked {
		err := act.WaitUntil(ctx, "finance route or 404 page", w.Default, func() bool {
			return n.onFinance() || act.Exists(ctx, NotFound404, 0)
		})
		if err := n.env.optional(ctx, "wait for finance route", err); err != nil {
			return false, err
		}
		if n.env.notFound(ctx) {
			n.env.Log.Print("finance menu led to a 404 page")
			clicked = false
		}
	}

	if clicked && n.onFinance() {
		return !n.env.notAuthorized(ctx), nil
	}

	base := strings.TrimRight(baseURL, "/")
	for _, path := range financePaths {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		target := base + path
		n.env.Log.Print("direct url fallback: %s", target)
		if err := act.Page().Goto(target); err != nil {
			n.env.Log.Debug("open %s: %v", target, err)
			continue
		}
		if n.env.notAuthorized(ctx) {
			n.env.Log.Print("not authorized at %s", target)
			return false, nil
		}
		if n.env.notFound(ctx) {
			continue
		}
		if n.onFinance() {
			return true, nil
		}
	}
	return false, ctx.Err()
}

// expand opens the collapsed navigation bar if it has a toggle.
func (n *NavBar) expand(ctx context.Context) error {
	return n.env.optional(ctx, "expand navbar", n.env.Actions.Click(ctx, NavToggle, n.env.Waits.Probe))
}

// scriptClickInFrames finds the set in the document or any frame and clicks it by script.
func (n *NavBar) scriptClickInFrames(ctx context.Context, set locator.Set) bool {
	el, err := n.env.Actions.FindAnywhere(ctx, set, n.env.Waits.Probe)
	if err != nil {
		n.env.Log.Debug("%s not found in frames: %v", set, err)
		return false
	}
	if err := el.ScriptClick(); err != nil {
		n.env.Log.Debug("script click on %s: %v", set, err)
		return false
	}
	n.env.Log.Print("clicked %s via script click", set)
	return true
}

func (n *NavBar) onFinance() bool {
	return strings.Contains(strings.ToLower(n.env.Actions.Page().URL()), "/finance")
}

// ErrFinanceUnreachable is returned by RequireFinance when neither the menu nor a direct url works.
var ErrFinanceUnreachable = errors.New("finance section unreachable")

// RequireFinance is GoToFinance for flows that cannot continue without the Finance section.
func (n *NavBar) RequireFinance(ctx context.Context, baseURL string) error {
	ok, err := n.GoToFinance(ctx, baseURL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFinanceUnreachable
	}
	return nil
}
