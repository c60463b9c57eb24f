package pages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// adjustment modal and Finance status
var (
	AddAdjustmentButton = locator.New("add adjustment button", locator.XPath("//button[@id='add_adjustment']"))
	AdjustmentAmount    = locator.New("adjustment amount",
		locator.ID("adjustment_amount"), locator.XPath("//input[@id='adjustment_amount']"))
	AdjustmentReason = locator.New("adjustment reason",
		locator.ID("adjustment_reason"), locator.XPath("//input[@id='adjustment_reason']"))
	ConfirmAdjustmentButton = locator.New("confirm adjustment button",
		locator.ID("confirm_adjustment"), locator.XPath("//button[@id='confirm_adjustment']"))
	AdjustmentSuccessDialog = locator.New("adjustment success dialog",
		locator.XPath("//div[contains(.,'Success') and contains(.,'Adjustment has been submitted')]"))
	DialogOKButton = locator.New("dialog OK button",
		locator.XPath("//button[normalize-space()='OK']"), locator.CSS(".sweet-alert .confirm"))
	SweetAlert        = locator.New("sweet alert", locator.CSS(".sweet-alert"))
	CloseTicketView   = locator.New("close ticket view", locator.XPath("//button[@id='ticket_view_close_top']"))
	FinanceStatusCell = locator.New("finance status cell",
		locator.XPath("//tbody/tr[1]/td[11]/span[1]"),
		locator.XPath("(//span[@class='label label-primary'][normalize-space()='adjustment'])[1]"),
	)
)

// LatestActionLog is where the latest Finance action of adjusted tickets is recorded, relative to
// the logs directory.
var LatestActionLog = filepath.Join("adjustment_logs", "latest_action.log")

// fireReasonEvents makes the modal validate the typed reason.
const fireReasonEvents = `() => {
	const el = document.getElementById('adjustment_reason');
	if (!el) { return false; }
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	el.blur();
	return true;
}`

// Adjustment adds adjustments from the payment panel and collects Finance evidence for them.
type Adjustment struct {
	env Env
}

// NewAdjustment makes the adjustment page object.
func NewAdjustment(env Env) *Adjustment {
	return &Adjustment{env: env}
}

// OpenPayment picks Payment from the open row actions.
func (a *Adjustment) OpenPayment(ctx context.Context) error {
	return a.env.Log.Step("Open Payment panel from row actions", func() error {
		if err := a.env.Actions.Click(ctx, PaymentAction, a.env.Waits.Default); err != nil {
			return fmt.Errorf("open payment panel: %w", err)
		}
		return nil
	})
}

// Add opens the adjustment modal, enters amount and reason, confirms and closes the success dialog.
// A missing success dialog fails the step.
func (a *Adjustment) Add(ctx context.Context, amount, reason string) error {
	return a.env.Log.Step("Add adjustment", func() error {
		act, w := a.env.Actions, a.env.Waits
		if err := act.Click(ctx, AddAdjustmentButton, w.Default); err != nil {
			return fmt.Errorf("open adjustment modal: %w", err)
		}
		for _, set := range []locator.Set{AdjustmentAmount, AdjustmentReason} {
			if _, err := a.env.waitVisible(ctx, set, w.Default); err != nil {
				return fmt.Errorf("adjustment modal did not open: %w", err)
			}
		}

		if err := act.Type(ctx, AdjustmentAmount, amount, w.Default, true); err != nil {
			return fmt.Errorf("enter adjustment amount: %w", err)
		}
		if err := act.Type(ctx, AdjustmentReason, reason, w.Short, true); err != nil {
			return fmt.Errorf("enter adjustment reason: %w", err)
		}
		if _, err := act.Page().Evaluate(fireReasonEvents); err != nil {
			a.env.Log.Debug("fire reason events: %v", err)
		}

		if err := act.Click(ctx, ConfirmAdjustmentButton, w.Default); err != nil {
			return fmt.Errorf("confirm adjustment: %w", err)
		}
		if _, err := a.env.waitVisible(ctx, AdjustmentSuccessDialog, w.Default); err != nil {
			return fmt.Errorf("adjustment failed, no success dialog after confirming: %w", err)
		}
		if err := act.Click(ctx, DialogOKButton, w.Probe); err != nil {
			return fmt.Errorf("close success dialog: %w", err)
		}
		if alert, err := act.Find(ctx, SweetAlert, 0); err == nil {
			if err := act.WaitGone(ctx, alert, "success dialog", w.Default); err != nil {
				return err
			}
		}
		a.env.Log.Print("adjustment of %s submitted", amount)
		return nil
	})
}

// CloseTicket closes the ticket view.
func (a *Adjustment) CloseTicket(ctx context.Context) error {
	return a.env.Log.Step("Close ticket view", func() error {
		if err := a.env.Actions.Click(ctx, CloseTicketView, a.env.Waits.Default); err != nil {
			return fmt.Errorf("close ticket view: %w", err)
		}
		return nil
	})
}

// CaptureEvidence reads the latest Finance action of the ticket, saves a screenshot and records the
// action in the latest action log. Returns the action text, blank when the status cell is missing.
func (a *Adjustment) CaptureEvidence(ctx context.Context, ticketID string) (string, error) {
	var latest string
	err := a.env.Log.Step("Capture Finance evidence and log latest action", func() error {
		latest = a.env.Actions.TextOrBlank(ctx, FinanceStatusCell, a.env.Waits.Probe)
		if _, err := a.env.screenshot(filepath.Join("adjustment_screenshots", "finance_"+ticketID+".png")); err != nil {
			return err
		}
		if err := a.env.Log.Record(LatestActionLog, fmt.Sprintf("Ticket %s, latest finance action: %s", ticketID, latest)); err != nil {
			return fmt.Errorf("record latest action: %w", err)
		}
		a.env.Log.Print("latest finance action of %s: %q", ticketID, latest)
		return nil
	})
	return latest, err
}
