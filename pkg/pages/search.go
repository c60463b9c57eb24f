package pages

import (
	"context"
	"fmt"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// Data search screen
var (
	DateRangeFilter = locator.New("date range filter",
		locator.ID("filter-date_range"), locator.XPath("//input[@id='filter-date_range']"))
	DateClearButton = locator.New("date clear button", locator.XPath("//button[normalize-space()='Clear']"))
	SerialFilter    = locator.New("serial number filter", locator.ID("filter-serial_number"))
	SearchButton    = locator.New("search button",
		locator.ID("btn-search-primary"), locator.XPath("//button[@id='btn-search-primary']"))
	TableSearchBox = locator.New("table search box", locator.XPath("//input[@type='search']"))
	OfficerCell    = locator.New("officer cell",
		locator.XPath("//div[@class='col-xs-12 res-table-officer-name text-important']"))
	PaymentAction = locator.New("payment action",
		locator.LinkText("Payment"), locator.XPath("//a[normalize-space()='Payment']"))
)

// TicketRow matches the results row of a ticket; rows carry the ticket id as their id.
func TicketRow(ticketID string) locator.Set {
	return locator.New("row "+ticketID, locator.XPathf("//tr[@id=%s]", ticketID))
}

// TicketRowActions matches the action dropdown of a ticket row.
func TicketRowActions(ticketID string) locator.Set {
	return locator.New("row actions "+ticketID, locator.XPathf("//tr[@id=%s]/td[8]//div/div[2]/span", ticketID))
}

// Search drives the Data search screen.
type Search struct {
	env Env
}

// NewSearch makes the Data search page object.
func NewSearch(env Env) *Search {
	return &Search{env: env}
}

// ApplyFiltersAndSearch opens the date range picker, types the serial number when given and runs the
// search. Without a search button, pressEnter submits from the serial field instead.
func (s *Search) ApplyFiltersAndSearch(ctx context.Context, serial string, pressEnter bool) error {
	return s.env.Log.Step("Apply filters and search", func() error {
		act, w := s.env.Actions, s.env.Waits
		if err := s.env.optional(ctx, "open date range", act.Click(ctx, DateRangeFilter, w.Probe)); err != nil {
			return err
		}
		if serial != "" {
			if err := act.Type(ctx, SerialFilter, serial, w.Default, true); err != nil {
				return fmt.Errorf("enter serial number: %w", err)
			}
		}
		err := act.Click(ctx, SearchButton, w.Default)
		if err == nil {
			return nil
		}
		if !pressEnter {
			return fmt.Errorf("run search: %w", err)
		}
		s.env.Log.Debug("search button not clickable, pressing enter: %v", err)
		if err := act.Press(ctx, SerialFilter, "Enter", w.Probe); err != nil {
			return fmt.Errorf("submit search: %w", err)
		}
		return nil
	})
}

// SearchTicket clears the date range, types the ticket into the table search box and waits for results.
func (s *Search) SearchTicket(ctx context.Context, ticketID string) error {
	return s.env.Log.Step("Search ticket on Data search", func() error {
		act, w := s.env.Actions, s.env.Waits
		err := act.Click(ctx, DateRangeFilter, w.Probe)
		if err == nil {
			err = act.Click(ctx, DateClearButton, w.Probe)
		}
		if err := s.env.optional(ctx, "clear date range", err); err != nil {
			return err
		}
		if err := act.Type(ctx, TableSearchBox, ticketID, w.Short, true); err != nil {
			return fmt.Errorf("enter ticket: %w", err)
		}
		if err := act.Click(ctx, SearchButton, w.Default); err != nil {
			return fmt.Errorf("run search: %w", err)
		}
		if _, err := act.Find(ctx, OfficerCell, w.Short); err != nil {
			return fmt.Errorf("wait for results: %w", err)
		}
		return nil
	})
}

// OpenTicketActions waits for the ticket row and opens its action dropdown.
func (s *Search) OpenTicketActions(ctx context.Context, ticketID string) error {
	return s.env.Log.Step("Open ticket row", func() error {
		act, w := s.env.Actions, s.env.Waits
		if _, err := act.Find(ctx, TicketRow(ticketID), w.Default); err != nil {
			return fmt.Errorf("find ticket %s: %w", ticketID, err)
		}
		if err := act.Click(ctx, TicketRowActions(ticketID), w.Default); err != nil {
			return fmt.Errorf("open actions of %s: %w", ticketID, err)
		}
		return nil
	})
}

// ChoosePayment picks Payment from the open row actions.
func (s *Search) ChoosePayment(ctx context.Context) error {
	return s.env.Log.Step("Choose Payment from row actions", func() error {
		if err := s.env.Actions.Click(ctx, PaymentAction, s.env.Waits.Default); err != nil {
			return fmt.Errorf("choose payment: %w", err)
		}
		return nil
	})
}

// RequireTicketRow fails unless the ticket row shows up within the default wait.
func (s *Search) RequireTicketRow(ctx context.Context, ticketID string) error {
	if _, err := s.env.Actions.Find(ctx, TicketRow(ticketID), s.env.Waits.Default); err != nil {
		return fmt.Errorf("ticket %s not in results: %w", ticketID, err)
	}
	return nil
}

// RefreshResults reruns the search with the button, with enter in the serial field, or by reloading
// the page, whichever works first.
func (s *Search) RefreshResults(ctx context.Context) error {
	return s.env.Log.Step("Refresh search results", func() error {
		act, w := s.env.Actions, s.env.Waits
		err := act.Click(ctx, SearchButton, w.Default)
		if err == nil {
			return nil
		}
		s.env.Log.Debug("search button not clickable, pressing enter: %v", err)
		if err = act.Press(ctx, SerialFilter, "Enter", w.Blink); err == nil {
			return nil
		}
		s.env.Log.Debug("serial field unavailable, reloading: %v", err)
		return act.Refresh()
	})
}
