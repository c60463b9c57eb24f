package pages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
)

// first row of the Finance payment history table
var (
	RowTicketNumber = locator.New("ticket number", locator.CSS(
		"body > div:nth-child(4) > div:nth-child(2) > div:nth-child(11) > div:nth-child(1) > div:nth-child(3) > "+
			"div:nth-child(1) > div:nth-child(2) > div:nth-child(1) > table:nth-child(4) > tbody:nth-child(2) > "+
			"tr:nth-child(1) > td:nth-child(1)"),
		locator.XPath("//tbody/tr[1]/td[1]"))
	RowDate         = locator.New("date", firstRowCell(2), locator.XPath("//tbody/tr[1]/td[2]"))
	RowTicketStatus = locator.New("ticket status", firstRowCell(5), locator.XPath("//tbody/tr[1]/td[5]"))
	RowOriginalFine = locator.New("original fine", firstRowCell(6), locator.XPath("//tbody/tr[1]/td[6]"))
	RowAmountPaid   = locator.New("amount paid", firstRowCell(7), locator.XPath("//tbody/tr[1]/td[7]"))
	RowAmountOwed   = locator.New("amount owed", locator.XPath("//tbody/tr[1]/td[8]"))

	StatusPaidByCash = locator.New("paid by cash badge", locator.XPath("//span[normalize-space()='paid by cash']"))
	StatusUnpaid     = locator.New("unpaid badge", locator.XPath("//span[@class='label label-danger']"))
	StatusColumn     = locator.New("payment status cell", locator.XPath("//tbody/tr[1]/td[11]/span[1]"))
)

// FinanceTableLog is the default file first rows are appended to, relative to the logs directory.
const FinanceTableLog = "finance_table.log"

// firstRowCell is the absolute path of a first row cell in the payment history table.
func firstRowCell(col int) locator.Locator {
	return locator.XPath(fmt.Sprintf("//body[1]/div[2]/div[1]/div[2]/div[1]/div[3]/div[1]/div[2]/div[1]/table[1]/tbody[1]/tr[1]/td[%d]", col))
}

// FinanceRow is the first row of the payment history table.
type FinanceRow struct {
	TicketNumber  string
	Date          string
	TicketStatus  string
	OriginalFine  string
	AmountPaid    string
	AmountOwed    string
	PaymentStatus string
}

// Line formats the row as the pipe separated line written to the table log.
func (r FinanceRow) Line() string {
	return strings.Join([]string{r.TicketNumber, r.Date, r.TicketStatus, r.OriginalFine,
		r.AmountPaid, r.AmountOwed, r.PaymentStatus}, " | ")
}

// FinanceTable reads the Finance payment history table.
type FinanceTable struct {
	env Env
}

// NewFinanceTable makes the Finance table page object.
func NewFinanceTable(env Env) *FinanceTable {
	return &FinanceTable{env: env}
}

// ApplyFilter optionally turns the local filter on, then searches the table for the ticket.
// Tables that filter while typing have no search button; that is not an error.
func (t *FinanceTable) ApplyFilter(ctx context.Context, ticketID string, ensureLocal bool) error {
	return t.env.Log.Step("Apply Finance table filter", func() error {
		act, w := t.env.Actions, t.env.Waits
		if ensureLocal {
			if err := t.env.optional(ctx, "local filter", act.EnsureChecked(ctx, LocalFilter, w.Probe)); err != nil {
				return err
			}
		}
		if err := act.Type(ctx, FinanceSearchBox, ticketID, w.Short, true); err != nil {
			return fmt.Errorf("enter ticket: %w", err)
		}
		if err := t.env.optional(ctx, "finance search button", act.Click(ctx, FinanceSearchButton, w.Probe)); err != nil {
			return err
		}
		return browser.Sleep(ctx, w.Beat)
	})
}

// LogFirstRow reads the first table row and appends its line to table_log/<logName>.
// Cells that can't be read are left blank.
func (t *FinanceTable) LogFirstRow(ctx context.Context, logName string) (FinanceRow, error) {
	var row FinanceRow
	err := t.env.Log.Step("Read first Finance row and append log line", func() error {
		act, w := t.env.Actions, t.env.Waits
		row = FinanceRow{
			TicketNumber: act.TextOrBlank(ctx, RowTicketNumber, w.Probe),
			Date:         act.TextOrBlank(ctx, RowDate, w.Probe),
			TicketStatus: act.TextOrBlank(ctx, RowTicketStatus, w.Probe),
			OriginalFine: act.TextOrBlank(ctx, RowOriginalFine, w.Probe),
			AmountPaid:   act.TextOrBlank(ctx, RowAmountPaid, w.Probe),
			AmountOwed:   act.TextOrBlank(ctx, RowAmountOwed, w.Probe),
		}
		row.PaymentStatus = t.paymentStatus(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := t.env.Log.Record(filepath.Join("table_log", logName), row.Line()); err != nil {
			return fmt.Errorf("record finance row: %w", err)
		}
		t.env.Log.Print("[TABLE] %s", row.Line())
		return nil
	})
	return row, err
}

// paymentStatus reads the status badge; the first badge kind present wins.
func (t *FinanceTable) paymentStatus(ctx context.Context) string {
	act, w := t.env.Actions, t.env.Waits
	switch {
	case act.Exists(ctx, StatusPaidByCash, w.Blink):
		return "paid by cash"
	case act.Exists(ctx, StatusUnpaid, w.Blink):
		return "unpaid"
	default:
		return act.TextOrBlank(ctx, StatusColumn, w.Blink)
	}
}
