package pages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
)

// Finance screen
var (
	FinanceIcon         = locator.New("finance icon", locator.XPath("//i[@class='fa fa-money']"))
	LocalFilter         = locator.New("local filter", locator.XPath("//input[@value='local']"))
	PaidByCashFilter    = locator.New("paid by cash filter", locator.XPath("//input[@value='paid by cash']"))
	FinanceSearchBox    = locator.New("finance search box", locator.XPath("//input[@type='search']"))
	FinanceSearchButton = locator.New("finance search button",
		locator.ID("searchCitation"), locator.XPath("//button[@id='searchCitation']"))
)

// Finance drives the Finance screen.
type Finance struct {
	env Env
}

// NewFinance makes the Finance page object.
func NewFinance(env Env) *Finance {
	return &Finance{env: env}
}

// OpenAndSearch opens Finance from the menu, applies the local and paid by cash filters, searches
// for the ticket and saves a screenshot of the results. Returns the screenshot path.
func (f *Finance) OpenAndSearch(ctx context.Context, ticketID string) (string, error) {
	var shot string
	err := f.env.Log.Step("Open Finance, filter, search and screenshot", func() error {
		act, w := f.env.Actions, f.env.Waits
		if err := act.Click(ctx, FinanceLabel, w.Default); err != nil {
			f.env.Log.Debug("finance label not clickable, trying the link: %v", err)
			if err := act.Click(ctx, FinanceLink, w.Default); err != nil {
				return fmt.Errorf("open finance: %w", err)
			}
		}
		if err := act.WaitReady(ctx, w.Default); err != nil {
			return fmt.Errorf("wait for finance: %w", err)
		}
		if err := act.Click(ctx, LocalFilter, w.Default); err != nil {
			return fmt.Errorf("apply local filter: %w", err)
		}
		if err := act.Click(ctx, PaidByCashFilter, w.Default); err != nil {
			return fmt.Errorf("apply paid by cash filter: %w", err)
		}
		if err := f.search(ctx, ticketID); err != nil {
			return err
		}
		var err error
		shot, err = f.env.screenshot(filepath.Join("screenshots", "finance_"+ticketID+".png"))
		return err
	})
	return shot, err
}

// OpenFromIconAndSearch opens Finance through the money icon, makes sure the local filter is on and
// searches for the ticket.
func (f *Finance) OpenFromIconAndSearch(ctx context.Context, ticketID string) error {
	return f.env.Log.Step("Open Finance, filter and search", func() error {
		act, w := f.env.Actions, f.env.Waits
		if err := act.Click(ctx, FinanceIcon, w.Default); err != nil {
			return fmt.Errorf("open finance menu: %w", err)
		}
		if err := act.Click(ctx, FinanceLink, w.Default); err != nil {
			return fmt.Errorf("open finance: %w", err)
		}
		if err := f.env.optional(ctx, "local filter", act.EnsureChecked(ctx, LocalFilter, w.Short)); err != nil {
			return err
		}
		return f.search(ctx, ticketID)
	})
}

// search types the ticket into the search box, runs the search and lets the grid redraw.
func (f *Finance) search(ctx context.Context, ticketID string) error {
	act, w := f.env.Actions, f.env.Waits
	if err := act.Type(ctx, FinanceSearchBox, ticketID, w.Short, true); err != nil {
		return fmt.Errorf("enter ticket: %w", err)
	}
	if err := act.Click(ctx, FinanceSearchButton, w.Default); err != nil {
		return fmt.Errorf("run finance search: %w", err)
	}
	return browser.Sleep(ctx, w.Settle)
}
