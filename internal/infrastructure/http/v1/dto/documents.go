package dto

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/documents/quote"
)

// --- Order ---

// CreateOrderRequest for creating draft orders.
type CreateOrderRequest struct {
	CustomerID           id.ID         `json:"customerId" binding:"required"`
	Currency             string        `json:"currency"`
	SalesPoint           string        `json:"salesPoint"`
	ExpectedDeliveryDate *DateOnly     `json:"expectedDeliveryDate"`
	Notes                string        `json:"notes"`
	Lines                []LineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r CreateOrderRequest) ToInput() order.CreateInput {
	return order.CreateInput{
		CustomerID:           r.CustomerID,
		Currency:             r.Currency,
		SalesPoint:           r.SalesPoint,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate.Ptr(),
		Notes:                r.Notes,
		Lines:                ToLineInputs(r.Lines),
	}
}

// UpdateOrderRequest edits a draft order. Omitted lines keep the current lines.
type UpdateOrderRequest struct {
	Currency             *string       `json:"currency"`
	SalesPoint           *string       `json:"salesPoint"`
	ExpectedDeliveryDate *DateOnly     `json:"expectedDeliveryDate"`
	Notes                *string       `json:"notes"`
	Lines                []LineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r UpdateOrderRequest) ToInput() order.UpdateInput {
	return order.UpdateInput{
		Currency:             r.Currency,
		SalesPoint:           r.SalesPoint,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate.Ptr(),
		Notes:                r.Notes,
		Lines:                ToLineInputs(r.Lines),
	}
}

// --- Delivery note ---

// DeliveryLineRequest picks a quantity of one order line.
type DeliveryLineRequest struct {
	OrderLineID id.ID          `json:"orderLineId" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
}

// CreateDeliveryRequest for creating draft delivery notes.
type CreateDeliveryRequest struct {
	OrderID id.ID                 `json:"orderId" binding:"required"`
	Notes   string                `json:"notes"`
	Lines   []DeliveryLineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r CreateDeliveryRequest) ToInput() delivery.CreateInput {
	return delivery.CreateInput{
		OrderID: r.OrderID,
		Notes:   r.Notes,
		Lines:   ToDeliveryLines(r.Lines),
	}
}

// AddDeliveryLinesRequest appends lines to a draft note.
type AddDeliveryLinesRequest struct {
	Lines []DeliveryLineRequest `json:"lines" binding:"required,min=1"`
}

// ToDeliveryLines maps request lines to domain inputs.
func ToDeliveryLines(lines []DeliveryLineRequest) []delivery.LineInput {
	out := make([]delivery.LineInput, len(lines))
	for i, l := range lines {
		out[i] = delivery.LineInput{OrderLineID: l.OrderLineID, Quantity: l.Quantity}
	}
	return out
}

// --- Invoice ---

// CreateInvoiceRequest for creating standalone draft invoices.
type CreateInvoiceRequest struct {
	CustomerID id.ID         `json:"customerId" binding:"required"`
	Currency   string        `json:"currency"`
	IssueDate  *DateOnly     `json:"issueDate"`
	DueDate    *DateOnly     `json:"dueDate"`
	Notes      string        `json:"notes"`
	Lines      []LineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r CreateInvoiceRequest) ToInput() invoice.CreateInput {
	return invoice.CreateInput{
		CustomerID: r.CustomerID,
		Currency:   r.Currency,
		IssueDate:  r.IssueDate.Ptr(),
		DueDate:    r.DueDate.Ptr(),
		Notes:      r.Notes,
		Lines:      ToLineInputs(r.Lines),
	}
}

// InvoiceFromOrderRequest bills a confirmed order.
type InvoiceFromOrderRequest struct {
	OrderID id.ID `json:"orderId" binding:"required"`
}

// PaymentRequest records a payment against an issued invoice.
type PaymentRequest struct {
	Amount     types.Money           `json:"amount"`
	Method     invoice.PaymentMethod `json:"method" binding:"required"`
	Reference  string                `json:"reference"`
	ReceivedAt *DateOnly             `json:"receivedAt"`
	Notes      string                `json:"notes"`
}

// ToInput maps the request to the service input.
func (r PaymentRequest) ToInput() invoice.PaymentInput {
	return invoice.PaymentInput{
		Amount:     r.Amount,
		Method:     r.Method,
		Reference:  r.Reference,
		ReceivedAt: r.ReceivedAt.Ptr(),
		Notes:      r.Notes,
	}
}

// PaymentResponse is the recorded payment and the recomputed invoice.
type PaymentResponse struct {
	Payment *invoice.Payment `json:"payment"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// --- Quote ---

// CreateQuoteRequest for creating draft quotes.
type CreateQuoteRequest struct {
	CustomerID id.ID         `json:"customerId" binding:"required"`
	Currency   string        `json:"currency"`
	SalesPoint string        `json:"salesPoint"`
	ValidUntil *DateOnly     `json:"validUntil"`
	Notes      string        `json:"notes"`
	Lines      []LineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r CreateQuoteRequest) ToInput() quote.CreateInput {
	return quote.CreateInput{
		CustomerID: r.CustomerID,
		Currency:   r.Currency,
		SalesPoint: r.SalesPoint,
		ValidUntil: r.ValidUntil.Ptr(),
		Notes:      r.Notes,
		Lines:      ToLineInputs(r.Lines),
	}
}

// UpdateQuoteRequest edits a draft quote.
type UpdateQuoteRequest struct {
	SalesPoint *string       `json:"salesPoint"`
	ValidUntil *DateOnly     `json:"validUntil"`
	Notes      *string       `json:"notes"`
	Lines      []LineRequest `json:"lines"`
}

// ToInput maps the request to the service input.
func (r UpdateQuoteRequest) ToInput() quote.UpdateInput {
	return quote.UpdateInput{
		SalesPoint: r.SalesPoint,
		ValidUntil: r.ValidUntil.Ptr(),
		Notes:      r.Notes,
		Lines:      ToLineInputs(r.Lines),
	}
}

// --- Purchase order ---

// PurchaseItemRequest is one item of a purchase order.
type PurchaseItemRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// CreatePurchaseOrderRequest for creating draft purchase orders.
type CreatePurchaseOrderRequest struct {
	SupplierName         string                `json:"supplierName" binding:"required"`
	ExpectedDeliveryDate *DateOnly             `json:"expectedDeliveryDate"`
	Notes                string                `json:"notes"`
	Items                []PurchaseItemRequest `json:"items" binding:"required,min=1"`
}

// ToInput maps the request to the service input.
func (r CreatePurchaseOrderRequest) ToInput() purchase.CreateInput {
	items := make([]purchase.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = purchase.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return purchase.CreateInput{
		SupplierName:         r.SupplierName,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate.Ptr(),
		Notes:                r.Notes,
		Items:                items,
	}
}

// ReceivePurchaseOrderRequest receives every outstanding item.
type ReceivePurchaseOrderRequest struct {
	DeliveredAt *DateOnly `json:"deliveredAt"`
}

// ReceiptRequest receives part of one item.
type ReceiptRequest struct {
	ItemID   id.ID          `json:"itemId" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

// ReceivePartialRequest receives part of several items.
type ReceivePartialRequest struct {
	Receipts []ReceiptRequest `json:"receipts" binding:"required,min=1"`
}

// ToReceipts maps the request to domain receipts.
func (r ReceivePartialRequest) ToReceipts() []purchase.Receipt {
	out := make([]purchase.Receipt, len(r.Receipts))
	for i, rc := range r.Receipts {
		out[i] = purchase.Receipt{ItemID: rc.ItemID, Quantity: rc.Quantity}
	}
	return out
}
