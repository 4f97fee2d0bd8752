// Package quote provides sales Quotes and their conversion to orders.
package quote

import (
	"context"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/lineitem"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

// Quote is a priced offer to a customer.
type Quote struct {
	entity.Document

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	SalesPoint string `db:"sales_point" json:"salesPoint,omitempty"`
	Status     Status `db:"status" json:"status"`
	Currency   string `db:"currency" json:"currency"`

	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`
	SentAt     *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	DecidedAt  *time.Time `db:"decided_at" json:"decidedAt,omitempty"`

	lineitem.Totals

	Lines []Line `db:"-" json:"lines"`
}

// Line is a quoted product.
type Line struct {
	ID       id.ID `db:"id" json:"id"`
	QuoteID  id.ID `db:"quote_id" json:"quoteId"`
	Position int   `db:"position" json:"position"`

	lineitem.Line
}

// NewQuote creates a draft quote.
func NewQuote(customerID id.ID, currency string) *Quote {
	return &Quote{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Status:     StatusDraft,
		Currency:   currency,
		Lines:      make([]Line, 0),
	}
}

// SetLines replaces the table part and re-sums totals.
func (q *Quote) SetLines(lines []lineitem.Line) {
	q.Lines = make([]Line, 0, len(lines))
	for i, l := range lines {
		q.Lines = append(q.Lines, Line{
			ID:       id.New(),
			QuoteID:  q.ID,
			Position: i + 1,
			Line:     l,
		})
	}
	q.RecomputeTotals()
}

// RecomputeTotals re-sums header totals from the current lines.
func (q *Quote) RecomputeTotals() {
	priced := make([]lineitem.Line, len(q.Lines))
	for i := range q.Lines {
		priced[i] = q.Lines[i].Line
	}
	q.Totals = lineitem.Sum(priced)
}

// PricedLines returns the lines without quote bookkeeping.
func (q *Quote) PricedLines() []lineitem.Line {
	priced := make([]lineitem.Line, len(q.Lines))
	for i := range q.Lines {
		priced[i] = q.Lines[i].Line
	}
	return priced
}

// Validate implements entity.Validatable.
func (q *Quote) Validate(ctx context.Context) error {
	if id.IsNil(q.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if q.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	for i := range q.Lines {
		if err := q.Lines[i].Validate(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func invalidStatus(q *Quote, action string) error {
	return apperror.NewBusinessRule(apperror.CodeInvalidQuoteStatus, "quote cannot be "+action+" in its current status").
		WithDetail("status", string(q.Status))
}

// CanModify checks that the quote is still a draft.
func (q *Quote) CanModify() error {
	if q.Status != StatusDraft {
		return invalidStatus(q, "modified")
	}
	return nil
}

// MarkSent moves a draft to SENT.
func (q *Quote) MarkSent(now time.Time) error {
	if q.Status != StatusDraft {
		return invalidStatus(q, "sent")
	}
	q.Status = StatusSent
	q.SentAt = &now
	q.Touch()
	return nil
}

// Accept records the customer's acceptance of a sent quote.
func (q *Quote) Accept(now time.Time) error {
	if q.Status != StatusSent {
		return invalidStatus(q, "accepted")
	}
	q.Status = StatusAccepted
	q.DecidedAt = &now
	q.Touch()
	return nil
}

// Reject records the customer's refusal of a sent quote.
func (q *Quote) Reject(now time.Time) error {
	if q.Status != StatusSent {
		return invalidStatus(q, "rejected")
	}
	q.Status = StatusRejected
	q.DecidedAt = &now
	q.Touch()
	return nil
}

// Expire marks the quote expired from any status.
func (q *Quote) Expire() {
	q.Status = StatusExpired
	q.Touch()
}

// CanConvert checks that the quote may become an order.
func (q *Quote) CanConvert() error {
	switch q.Status {
	case StatusSent, StatusAccepted:
		return nil
	}
	return invalidStatus(q, "converted")
}

// ConversionNotes renders the notes of the order created from q.
func (q *Quote) ConversionNotes() string {
	if q.Notes == "" {
		return "From quote " + q.Code
	}
	return "From quote " + q.Code + ": " + q.Notes
}
