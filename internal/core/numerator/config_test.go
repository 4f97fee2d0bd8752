package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		docType DocumentType
		seq     int64
		want    string
	}{
		{DocOrder, 1, "ORD000001"},
		{DocDeliveryNote, 42, "BL000042"},
		{DocInvoice, 999999, "INV999999"},
		{DocQuote, 1000000, "QTE1000000"},
		{DocPurchaseOrder, 7, "PO000007"},
		{DocumentType("credit_note"), 3, "CREDIT_NOTE000003"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(ConfigFor(tt.docType), tt.seq))
		})
	}
}
