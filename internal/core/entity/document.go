package entity

// Document is the header shared by Orders, DeliveryNotes, Invoices, Quotes
// and PurchaseOrders.
type Document struct {
	BaseEntity

	// Code is the human-readable number (ORD000001); unique per document type.
	Code string `db:"code" json:"code"`

	// Seq is the numeric part of Code.
	Seq int64 `db:"seq" json:"seq"`

	Notes     string `db:"notes" json:"notes,omitempty"`
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{BaseEntity: NewBaseEntity()}
}

// AssignCode stores a generated code. An already coded document keeps its code.
func (d *Document) AssignCode(code string, seq int64) {
	if d.Code != "" {
		return
	}
	d.Code = code
	d.Seq = seq
}
