package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/locator"
)

// payment panel
var (
	NewPaymentButton = locator.New("new payment button",
		locator.ID("new_payment"),
		locator.XPath("//button[@id='new_payment']"),
		locator.XPath("//button[contains(.,'New Payment') or contains(.,'Submit a Payment')]"),
	)
	PaymentTypeSelect = locator.New("payment type",
		locator.ID("payment_type"), locator.XPath("//select[@id='payment_type']"))
	PaymentAmountField = locator.New("payment amount",
		locator.ID("paymentAmount"), locator.XPath("//input[@id='paymentAmount']"))
	PayeeEmailField = locator.New("payee email",
		locator.ID("payee_email"), locator.XPath("//input[@id='payee_email']"))
	SubmitPaymentButton = locator.New("submit payment button",
		locator.ID("submitPayment"),
		locator.XPath("//button[@id='submitPayment']"),
		locator.XPath("//button[contains(.,'Submit Payment') or @name='submitPayment']"),
	)

	OpenModal = locator.New("open modal",
		locator.XPath("//div[contains(@class,'modal') and contains(@class,'show')]"))
	ModalConfirmButton = locator.New("modal confirm button",
		locator.XPath("(//div[contains(@class,'modal') and contains(@class,'show')]//button[normalize-space()='Confirm'])[1]"),
		locator.XPath("(//button[normalize-space()='Confirm'])[1]"),
		locator.XPath("(//button[normalize-space()='Cancel']/following::button[1])[1]"),
	)
	ModalCloseButton = locator.New("modal close button",
		locator.ID("close_modal"), locator.XPath("//button[@id='close_modal']"))

	PaymentSubmittedDialog = locator.New("payment submitted dialog",
		locator.CSS(".sweet-alert"),
		locator.CSS(".swal2-container"),
		locator.CSS(".swal2-popup"),
		locator.XPath("//div[contains(@class,'modal') and contains(., 'Payment submitted')]"),
	)
	PaymentSubmittedOK = locator.New("payment submitted OK",
		locator.CSS(".sweet-alert .confirm"),
		locator.CSS(".confirm"),
		locator.CSS(".swal2-popup button.swal2-confirm"),
		locator.XPath("//div[contains(@class,'swal2-popup')]//button[normalize-space()='OK']"),
		locator.XPath("//button[normalize-space()='OK']"),
	)
	PaymentSuccessMarker = locator.New("payment success marker",
		locator.XPath("//*[contains(@class,'alert') and contains(.,'Payment')]"),
		locator.XPath("//*[contains(@class,'toast') and contains(.,'Payment')]"),
		locator.XPath("//*[contains(@class,'alert-success')]"),
	)

	VoidPaymentButton = locator.New("void payment button",
		locator.CSS("button.void_payment_button"),
		locator.XPath("//button[contains(@class,'void_payment_button')]"),
		locator.XPath("//button[normalize-space()='x']"),
		locator.XPath("//button[starts-with(@id,'ticket_id_')]"),
	)
	VoidReasonField = locator.New("void reason",
		locator.ID("void_payment_reason"), locator.XPath("//input[@id='void_payment_reason']"))
	ConfirmVoidButton = locator.New("confirm void button",
		locator.ID("confirm_void_payment"), locator.XPath("//button[@id='confirm_void_payment']"))
)

// Payment drives the payment panel of a ticket.
type Payment struct {
	env Env
}

// NewPayment makes the payment panel page object.
func NewPayment(env Env) *Payment {
	return &Payment{env: env}
}

// OpenNew opens the new payment form.
func (p *Payment) OpenNew(ctx context.Context) error {
	return p.env.Log.Step("Open New Payment modal", func() error {
		if err := p.env.Actions.Click(ctx, NewPaymentButton, p.env.Waits.Default); err != nil {
			return fmt.Errorf("open new payment: %w", err)
		}
		return nil
	})
}

// Fill selects the payment type by its visible label and types amount and payee email.
func (p *Payment) Fill(ctx context.Context, paymentType, amount, email string) error {
	return p.env.Log.Step("Fill payment form", func() error {
		act, w := p.env.Actions, p.env.Waits
		if err := act.SelectByLabel(ctx, PaymentTypeSelect, paymentType, w.Default); err != nil {
			return fmt.Errorf("choose payment type: %w", err)
		}
		if err := act.Type(ctx, PaymentAmountField, amount, w.Default, true); err != nil {
			return fmt.Errorf("enter amount: %w", err)
		}
		if err := act.Type(ctx, PayeeEmailField, email, w.Default, true); err != nil {
			return fmt.Errorf("enter payee email: %w", err)
		}
		return nil
	})
}

// Submit clicks Submit Payment. When a confirmation modal opens it is confirmed and closed, otherwise
// a success marker or the submit button going away is awaited.
func (p *Payment) Submit(ctx context.Context) error {
	return p.env.Log.Step("Submit payment", func() error {
		act, w := p.env.Actions, p.env.Waits
		if err := act.Click(ctx, SubmitPaymentButton, w.Default); err != nil {
			return fmt.Errorf("submit payment: %w", err)
		}

		modal, err := act.Find(ctx, OpenModal, w.Probe)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.env.Log.Debug("no confirmation modal: %v", err)
			return p.awaitSubmitted(ctx)
		}
		return p.confirmModal(ctx, modal)
	})
}

func (p *Payment) confirmModal(ctx context.Context, modal browser.Element) error {
	act, w := p.env.Actions, p.env.Waits
	if err := modal.ScrollIntoView(); err != nil {
		p.env.Log.Debug("scroll modal into view: %v", err)
	}

	btn, err := act.Find(ctx, ModalConfirmButton, w.Short)
	if err != nil {
		if btn, err = act.FindAnywhere(ctx, ModalConfirmButton, w.Probe); err != nil {
			return fmt.Errorf("find modal confirm: %w", err)
		}
	}
	if err := act.ClickElement(ModalConfirmButton.String(), btn); err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}

	if err := p.env.optional(ctx, "wait for modal to close", act.WaitGone(ctx, modal, "confirmation modal", w.Default)); err != nil {
		return err
	}
	return p.env.optional(ctx, "close modal", act.Click(ctx, ModalCloseButton, w.Probe))
}

// awaitSubmitted waits for a success marker and for the submit button to go away. Both are optional;
// some deployments show neither.
func (p *Payment) awaitSubmitted(ctx context.Context) error {
	act, w := p.env.Actions, p.env.Waits
	if _, err := act.Find(ctx, PaymentSuccessMarker, w.Probe); err != nil {
		if err := p.env.optional(ctx, "success marker", err); err != nil {
			return err
		}
	}
	submit, err := act.Find(ctx, SubmitPaymentButton, w.Blink)
	if err != nil {
		return p.env.optional(ctx, "submit button state", err)
	}
	return p.env.optional(ctx, "submit button to go away", act.WaitGone(ctx, submit, "submit button", w.Default))
}

// ConfirmSubmitted closes the "payment submitted" dialog in the document or any frame. A dialog that
// never shows up is not an error; some environments dismiss it on their own.
func (p *Payment) ConfirmSubmitted(ctx context.Context) error {
	return p.env.Log.Step("Close payment submitted dialog", func() error {
		act, w := p.env.Actions, p.env.Waits
		dlg, err := p.findDialog(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.env.Log.Print("no payment submitted dialog, assuming it closed by itself")
			return nil
		}
		if err := dlg.ScrollIntoView(); err != nil {
			p.env.Log.Debug("scroll dialog into view: %v", err)
		}

		ok, err := act.FindAnywhere(ctx, PaymentSubmittedOK, w.Probe)
		if err != nil {
			return p.env.optional(ctx, "dialog OK button", err)
		}
		if err := p.env.optional(ctx, "click dialog OK", act.ClickElement(PaymentSubmittedOK.String(), ok)); err != nil {
			return err
		}
		return p.env.optional(ctx, "wait for dialog to close", act.WaitGone(ctx, dlg, "payment submitted dialog", w.Default))
	})
}

// findDialog looks for the submitted dialog until the short wait runs out.
func (p *Payment) findDialog(ctx context.Context) (browser.Element, error) {
	act, w := p.env.Actions, p.env.Waits
	deadline := time.Now().Add(w.Short)
	for {
		dlg, err := act.FindAnywhere(ctx, PaymentSubmittedDialog, w.Blink)
		if err == nil {
			return dlg, nil
		}
		if time.Now().After(deadline) || !browser.IsNotFound(err) {
			return nil, err
		}
		if err := browser.Sleep(ctx, w.Beat); err != nil {
			return nil, err
		}
	}
}

// ErrNoVoidButton is returned when the payment panel offers nothing to void.
var ErrNoVoidButton = errors.New("void button not found on payment panel")

// VoidLatest voids the newest payment: it clicks the void button of the latest row, gives the reason
// and confirms. Reason and confirm fall back to script assignment and script click.
func (p *Payment) VoidLatest(ctx context.Context, reason string) error {
	return p.env.Log.Step("Void latest payment", func() error {
		act, w := p.env.Actions, p.env.Waits
		if err := p.env.optional(ctx, "scroll to payments", act.ScrollToBottom()); err != nil {
			return err
		}
		if err := act.ClickAnywhere(ctx, VoidPaymentButton, w.Probe); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrNoVoidButton, err)
		}
		if err := browser.Sleep(ctx, w.Beat); err != nil {
			return err
		}

		if err := act.Type(ctx, VoidReasonField, reason, w.Default, true); err != nil {
			p.env.Log.Debug("void reason not typeable, assigning by script: %v", err)
			if err := act.SetValue(ctx, VoidReasonField, reason, w.Probe); err != nil {
				return fmt.Errorf("enter void reason: %w", err)
			}
		}

		if err := act.Click(ctx, ConfirmVoidButton, w.Default); err != nil {
			p.env.Log.Debug("confirm void not clickable, clicking by script: %v", err)
			btn, err := act.FindAnywhere(ctx, ConfirmVoidButton, w.Probe)
			if err != nil {
				return fmt.Errorf("find confirm void: %w", err)
			}
			if err := btn.ScriptClick(); err != nil {
				return fmt.Errorf("confirm void: %w", err)
			}
		}
		return browser.Sleep(ctx, w.Beat)
	})
}
