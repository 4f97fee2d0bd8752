// Package purchase provides supplier purchase orders whose receipt feeds the
// stock ledger.
package purchase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusConfirmed Status = "confirmed"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	entity.Document

	SupplierName string `db:"supplier_name" json:"supplierName"`
	Status       Status `db:"status" json:"status"`

	OrderDate            time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Items []Item `db:"-" json:"items"`
}

// Item is an ordered product and its receipt progress.
type Item struct {
	ID              id.ID          `db:"id" json:"id"`
	PurchaseOrderID id.ID          `db:"purchase_order_id" json:"purchaseOrderId"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	ReceivedQty     types.Quantity `db:"received_qty" json:"receivedQty"`
}

// Remaining returns the quantity still to receive.
func (it *Item) Remaining() types.Quantity {
	return it.Quantity.Sub(it.ReceivedQty)
}

// LineTotal is quantity × unit price rounded to cents.
func (it *Item) LineTotal() types.Money {
	return types.RoundMoney(it.Quantity.Mul(it.UnitPrice))
}

// ItemInput is one requested item of a new purchase order.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// Receipt is a partial receipt of one item.
type Receipt struct {
	ItemID   id.ID
	Quantity types.Quantity
}

// NewPurchaseOrder creates a draft purchase order dated today.
func NewPurchaseOrder(supplier string) *PurchaseOrder {
	return &PurchaseOrder{
		Document:     entity.NewDocument(),
		SupplierName: strings.TrimSpace(supplier),
		Status:       StatusDraft,
		OrderDate:    time.Now().UTC().Truncate(24 * time.Hour),
		TotalAmount:  decimal.Zero,
		Items:        make([]Item, 0),
	}
}

// SetItems replaces the items and recomputes the total.
func (po *PurchaseOrder) SetItems(inputs []ItemInput) {
	po.Items = make([]Item, 0, len(inputs))
	for _, in := range inputs {
		po.Items = append(po.Items, Item{
			ID:              id.New(),
			PurchaseOrderID: po.ID,
			ProductID:       in.ProductID,
			Quantity:        types.RoundQuantity(in.Quantity),
			UnitPrice:       types.RoundMoney(in.UnitPrice),
			ReceivedQty:     decimal.Zero,
		})
	}
	po.RecomputeTotal()
}

// RecomputeTotal re-sums the item totals.
func (po *PurchaseOrder) RecomputeTotal() {
	totals := make([]types.Money, len(po.Items))
	for i := range po.Items {
		totals[i] = po.Items[i].LineTotal()
	}
	po.TotalAmount = types.SumMoney(totals...)
}

// FindItem returns the item with itemID, or nil.
func (po *PurchaseOrder) FindItem(itemID id.ID) *Item {
	for i := range po.Items {
		if po.Items[i].ID == itemID {
			return &po.Items[i]
		}
	}
	return nil
}

// FullyReceived reports whether nothing remains to receive.
func (po *PurchaseOrder) FullyReceived() bool {
	for i := range po.Items {
		if po.Items[i].Remaining().IsPositive() {
			return false
		}
	}
	return true
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(_ context.Context) error {
	if po.SupplierName == "" {
		return apperror.NewValidation("supplier name is required").
			WithDetail("field", "supplierName")
	}
	if len(po.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i := range po.Items {
		it := &po.Items[i]
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("item", i+1).WithDetail("field", "productId")
		}
		if !it.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("item", i+1).WithDetail("field", "quantity")
		}
		if it.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("item", i+1).WithDetail("field", "unitPrice")
		}
	}
	return nil
}

func invalidStatus(po *PurchaseOrder, action string) error {
	return apperror.NewBusinessRule(apperror.CodeInvalidPOStatus, "purchase order cannot be "+action+" in its current status").
		WithDetail("status", string(po.Status))
}

// MarkSent moves a draft to sent.
func (po *PurchaseOrder) MarkSent() error {
	if po.Status != StatusDraft {
		return invalidStatus(po, "sent")
	}
	po.Status = StatusSent
	po.Touch()
	return nil
}

// Confirm moves a draft or sent order to confirmed.
func (po *PurchaseOrder) Confirm() error {
	switch po.Status {
	case StatusDraft, StatusSent:
		po.Status = StatusConfirmed
		po.Touch()
		return nil
	}
	return invalidStatus(po, "confirmed")
}

// CanReceive checks the receipt guards.
func (po *PurchaseOrder) CanReceive() error {
	switch po.Status {
	case StatusReceived:
		return apperror.NewBusinessRule(apperror.CodePOAlreadyReceived, "purchase order already received")
	case StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodePOCancelled, "purchase order is cancelled")
	}
	return nil
}

// Cancel cancels an order that has not been received.
func (po *PurchaseOrder) Cancel() error {
	switch po.Status {
	case StatusReceived:
		return apperror.NewBusinessRule(apperror.CodePOAlreadyReceived, "received purchase order cannot be cancelled")
	case StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodePOCancelled, "purchase order is already cancelled")
	}
	po.Status = StatusCancelled
	po.Touch()
	return nil
}

// markReceived closes the order with the given delivery date.
func (po *PurchaseOrder) markReceived(at time.Time) {
	po.Status = StatusReceived
	po.ActualDeliveryDate = &at
	po.Touch()
}

// PlanReceipts resolves partial receipts against the items. Non-positive
// quantities are skipped and quantities above the remainder are clamped.
func (po *PurchaseOrder) PlanReceipts(receipts []Receipt) ([]Receipt, error) {
	if len(receipts) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	planned := make([]Receipt, 0, len(receipts))
	for _, r := range receipts {
		it := po.FindItem(r.ItemID)
		if it == nil {
			return nil, apperror.NewBusinessRule(apperror.CodeLineNotOnOrder, "item does not belong to this purchase order").
				WithDetail("itemId", r.ItemID.String())
		}
		qty := types.RoundQuantity(r.Quantity)
		if !qty.IsPositive() {
			continue
		}
		qty = types.MinQuantity(qty, it.Remaining())
		if !qty.IsPositive() {
			continue
		}
		planned = append(planned, Receipt{ItemID: it.ID, Quantity: qty})
	}
	return planned, nil
}
