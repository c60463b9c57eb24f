package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cityledger/ticketsuite/pkg/pages"
)

// errors of flow checks.
var (
	ErrMissingData     = errors.New("missing client data")
	ErrNoAdjustment    = errors.New("latest finance action is not an adjustment")
	ErrRowMismatch     = errors.New("finance row does not match ticket")
	ErrTicketNotListed = errors.New("ticket not listed after payment")
)

// tolerate logs a failed optional step as a warning and lets the flow go on, unless ctx is done.
func (j job) tolerate(ctx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", what, ctxErr)
	}
	j.log.Warn("%s failed, continuing: %v", what, err)
	return nil
}

func (j job) login(ctx context.Context) error {
	return pages.NewLogin(j.env, j.client.LoginURL()).OpenAndLogin(ctx, j.client.Username, j.client.Password)
}

// paymentFlow adds a payment to the client's ticket, checks the ledger and voids the payment again.
func paymentFlow(ctx context.Context, j job) error {
	c := j.client
	if c.FineAmount == "" {
		return fmt.Errorf("%w: fine_amount", ErrMissingData)
	}

	nav := pages.NewNavBar(j.env)
	search := pages.NewSearch(j.env)
	pay := pages.NewPayment(j.env)

	if err := j.login(ctx); err != nil {
		return err
	}
	if err := nav.OpenDataSearch(ctx); err != nil {
		return err
	}
	if err := search.ApplyFiltersAndSearch(ctx, "", false); err != nil {
		return err
	}
	if err := search.OpenTicketActions(ctx, c.TicketID); err != nil {
		return err
	}
	if err := search.ChoosePayment(ctx); err != nil {
		return err
	}
	if err := pay.OpenNew(ctx); err != nil {
		return err
	}
	if err := pay.Fill(ctx, c.PaymentType, c.FineAmount, c.PayeeEmail); err != nil {
		return err
	}
	if err := pay.Submit(ctx); err != nil {
		return err
	}
	if err := pay.ConfirmSubmitted(ctx); err != nil {
		return err
	}

	// ledger evidence is best effort, the void below is what matters
	if err := j.tolerate(ctx, "finance evidence", financeEvidence(ctx, j, nav)); err != nil {
		return err
	}
	if err := j.tolerate(ctx, "back to data search", nav.BackToDataSearch(ctx)); err != nil {
		return err
	}

	if err := search.ApplyFiltersAndSearch(ctx, "", false); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.log.Warn("re-search failed, refreshing results instead: %v", err)
		if err := search.RefreshResults(ctx); err != nil {
			return fmt.Errorf("refresh results: %w", err)
		}
	}
	if err := search.RequireTicketRow(ctx, c.TicketID); err != nil {
		return fmt.Errorf("%w: %w", ErrTicketNotListed, err)
	}
	if err := search.OpenTicketActions(ctx, c.TicketID); err != nil {
		return err
	}
	return pay.VoidLatest(ctx, c.VoidReason)
}

// financeEvidence opens Finance and saves a screenshot of the ticket's ledger.
func financeEvidence(ctx context.Context, j job, nav *pages.NavBar) error {
	ok, err := nav.GoToFinance(ctx, j.client.BaseURL)
	if err != nil {
		return err
	}
	if !ok {
		return pages.ErrFinanceUnreachable
	}
	_, err = pages.NewFinance(j.env).OpenAndSearch(ctx, j.client.TicketID)
	return err
}

// adjustmentFlow adds an adjustment to the client's ticket and checks Finance shows it as the latest action.
func adjustmentFlow(ctx context.Context, j job) error {
	c := j.client
	var missing []string
	if c.AdjustmentAmount == "" {
		missing = append(missing, "amount")
	}
	if c.AdjustmentReason == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingData, strings.Join(missing, ", "))
	}

	search := pages.NewSearch(j.env)
	adj := pages.NewAdjustment(j.env)

	if err := j.login(ctx); err != nil {
		return err
	}
	if err := pages.NewNavBar(j.env).OpenDataSearchFromIcon(ctx); err != nil {
		return err
	}
	if err := search.SearchTicket(ctx, c.TicketID); err != nil {
		return err
	}
	if err := search.OpenTicketActions(ctx, c.TicketID); err != nil {
		return err
	}
	if err := adj.OpenPayment(ctx); err != nil {
		return err
	}
	if err := adj.Add(ctx, c.AdjustmentAmount, c.AdjustmentReason); err != nil {
		return err
	}
	if err := adj.CloseTicket(ctx); err != nil {
		return err
	}
	if err := pages.NewFinance(j.env).OpenFromIconAndSearch(ctx, c.TicketID); err != nil {
		return err
	}
	latest, err := adj.CaptureEvidence(ctx, c.TicketID)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(latest), "adjustment") {
		return fmt.Errorf("%w: %q", ErrNoAdjustment, latest)
	}
	return nil
}

// financeLogFlow appends the first Finance row of the client's ticket to the table log.
func financeLogFlow(ctx context.Context, j job) error {
	c := j.client
	if err := j.login(ctx); err != nil {
		return err
	}
	if err := pages.NewNavBar(j.env).RequireFinance(ctx, c.BaseURL); err != nil {
		return err
	}
	table := pages.NewFinanceTable(j.env)
	if err := table.ApplyFilter(ctx, c.TicketID, true); err != nil {
		return err
	}
	row, err := table.LogFirstRow(ctx, pages.FinanceTableLog)
	if err != nil {
		return err
	}
	if !strings.Contains(row.Line(), c.TicketID) {
		return fmt.Errorf("%w %s: %s", ErrRowMismatch, c.TicketID, row.Line())
	}
	return nil
}
