// Package dto provides Data Transfer Objects for API requests/responses.
// Responses reuse the JSON shape of the domain models; this package holds
// request payloads and the few composite responses.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/lineitem"
)

// LineRequest is one priced line of an order, invoice or quote.
// Unset price and tax rate fall back to the product's defaults.
type LineRequest struct {
	ProductID   *id.ID           `json:"productId"`
	Description string           `json:"description"`
	Quantity    types.Quantity   `json:"quantity"`
	UnitPrice   *types.Money     `json:"unitPrice"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
}

// ToLineInputs maps request lines to domain inputs. A nil slice stays nil.
func ToLineInputs(lines []LineRequest) []lineitem.Input {
	if lines == nil {
		return nil
	}
	out := make([]lineitem.Input, len(lines))
	for i, l := range lines {
		out[i] = lineitem.Input{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		}
	}
	return out
}

// DateOnly accepts "2006-01-02" as well as RFC 3339 timestamps.
type DateOnly struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns the time or nil when d is nil or zero.
func (d *DateOnly) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

// ErrorResponse documents the error body rendered by middleware.ErrorHandler.
type ErrorResponse struct {
	Code          string         `json:"code"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Retryable     bool           `json:"retryable,omitempty"`
	NonIdempotent bool           `json:"non_idempotent,omitempty"`
}
