// Package invoice provides Invoices and Payments.
//
// amount_paid and balance_due are always derived from the persisted lines
// and payments by Recompute; the status follows the balance once issued.
package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/lineitem"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusIssued        Status = "ISSUED"
	StatusPartiallyPaid Status = "PART_PAID"
	StatusPaid          Status = "PAID"
	StatusCancelled     Status = "CANCELLED"
)

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCheck    PaymentMethod = "CHECK"
	MethodOther    PaymentMethod = "OTHER"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCheck, MethodOther:
		return true
	}
	return false
}

// Invoice bills a customer, optionally for an order.
type Invoice struct {
	entity.Document

	// OrderID is cleared when the order is deleted
	OrderID    *id.ID `db:"order_id" json:"orderId,omitempty"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	Status     Status `db:"status" json:"status"`
	Currency   string `db:"currency" json:"currency"`

	IssueDate time.Time  `db:"issue_date" json:"issueDate"`
	DueDate   *time.Time `db:"due_date" json:"dueDate,omitempty"`

	lineitem.Totals
	AmountPaid types.Money `db:"amount_paid" json:"amountPaid"`
	BalanceDue types.Money `db:"balance_due" json:"balanceDue"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a billed product or service.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	Position  int   `db:"position" json:"position"`

	lineitem.Line
}

// Payment is money received against an invoice.
type Payment struct {
	ID         id.ID         `db:"id" json:"id"`
	InvoiceID  id.ID         `db:"invoice_id" json:"invoiceId"`
	Amount     types.Money   `db:"amount" json:"amount"`
	Method     PaymentMethod `db:"method" json:"method"`
	Reference  string        `db:"reference" json:"reference,omitempty"`
	ReceivedAt time.Time     `db:"received_at" json:"receivedAt"`
	Notes      string        `db:"notes" json:"notes,omitempty"`
	CreatedBy  string        `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// NewInvoice creates a draft invoice issued today.
func NewInvoice(customerID id.ID, currency string) *Invoice {
	return &Invoice{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Status:     StatusDraft,
		Currency:   currency,
		IssueDate:  time.Now().UTC().Truncate(24 * time.Hour),
		Lines:      make([]Line, 0),
	}
}

// SetLines replaces the table part. Call Recompute afterwards.
func (inv *Invoice) SetLines(lines []lineitem.Line) {
	inv.Lines = make([]Line, 0, len(lines))
	for i, l := range lines {
		inv.Lines = append(inv.Lines, Line{
			ID:        id.New(),
			InvoiceID: inv.ID,
			Position:  i + 1,
			Line:      l,
		})
	}
}

// Recompute re-sums lines and payments, sets the balance and, unless the
// invoice is a draft or cancelled, derives the status from the amount paid.
// It only mutates inv; the caller persists once.
func (inv *Invoice) Recompute(payments []Payment) {
	priced := make([]lineitem.Line, len(inv.Lines))
	for i := range inv.Lines {
		priced[i] = inv.Lines[i].Line
	}
	inv.Totals = lineitem.Sum(priced)

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	inv.AmountPaid = types.RoundMoney(paid)
	inv.BalanceDue = types.RoundMoney(inv.Total.Sub(inv.AmountPaid))

	if inv.Status == StatusDraft || inv.Status == StatusCancelled {
		return
	}
	switch {
	case !inv.AmountPaid.IsPositive():
		inv.Status = StatusIssued
	case inv.AmountPaid.LessThan(inv.Total):
		inv.Status = StatusPartiallyPaid
	default:
		inv.Status = StatusPaid
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if inv.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.IssueDate) {
		return apperror.NewValidation("due date is before issue date").
			WithDetail("field", "dueDate")
	}
	for i := range inv.Lines {
		if err := inv.Lines[i].Validate(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Issue moves a draft invoice to ISSUED.
func (inv *Invoice) Issue() error {
	if inv.Status != StatusDraft {
		return apperror.NewBusinessRule(apperror.CodeInvoiceNotDraft, "only draft invoices can be issued").
			WithDetail("status", string(inv.Status))
	}
	inv.Status = StatusIssued
	inv.Touch()
	return nil
}

// Cancel cancels any invoice that is not paid.
func (inv *Invoice) Cancel() error {
	switch inv.Status {
	case StatusPaid:
		return apperror.NewBusinessRule(apperror.CodeInvoicePaid, "paid invoices cannot be cancelled")
	case StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeInvoiceAlreadyCancelled, "invoice is already cancelled")
	}
	inv.Status = StatusCancelled
	inv.Touch()
	return nil
}

// CheckPayment validates amount against an invoice recomputed from fresh
// payments. Drafts accept payments; Recompute keeps them in DRAFT.
func (inv *Invoice) CheckPayment(amount types.Money) error {
	if inv.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeInvoiceCancelled, "invoice is cancelled")
	}
	if !amount.IsPositive() {
		return apperror.NewBusinessRule(apperror.CodeNonPositiveAmount, "payment amount must be positive").
			WithDetail("amount", amount.String())
	}
	if amount.GreaterThan(inv.BalanceDue) {
		return apperror.NewBusinessRule(apperror.CodeExceedsBalance, "payment exceeds the balance due").
			WithDetail("amount", amount.String()).
			WithDetail("balanceDue", inv.BalanceDue.String())
	}
	return nil
}
