// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strings"
)

// DocumentType identifies an independently numbered document series.
type DocumentType string

const (
	DocOrder         DocumentType = "order"
	DocDeliveryNote  DocumentType = "delivery_note"
	DocInvoice       DocumentType = "invoice"
	DocQuote         DocumentType = "quote"
	DocPurchaseOrder DocumentType = "purchase_order"
	DocCustomer      DocumentType = "customer"
)

// DefaultPadWidth is the zero-padded width of the numeric part (ORD000001).
const DefaultPadWidth = 6

// Config holds numbering configuration for one series.
type Config struct {
	// Prefix added to all numbers (e.g., "ORD", "INV")
	Prefix string

	// PadWidth is the minimum number width
	PadWidth int
}

var defaultPrefixes = map[DocumentType]string{
	DocOrder:         "ORD",
	DocDeliveryNote:  "BL",
	DocInvoice:       "INV",
	DocQuote:         "QTE",
	DocPurchaseOrder: "PO",
	DocCustomer:      "CUS",
}

// ConfigFor returns the numbering config of a document type.
// Unknown types fall back to the upper-cased type name as prefix.
func ConfigFor(docType DocumentType) Config {
	prefix, ok := defaultPrefixes[docType]
	if !ok {
		prefix = strings.ToUpper(string(docType))
	}
	return Config{Prefix: prefix, PadWidth: DefaultPadWidth}
}

// Format renders seq as PREFIX + zero-padded number.
func Format(cfg Config, seq int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = DefaultPadWidth
	}
	return fmt.Sprintf("%s%0*d", cfg.Prefix, width, seq)
}
