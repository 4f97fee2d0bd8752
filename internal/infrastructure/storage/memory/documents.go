package memory

import (
	"context"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/documents/quote"
)

// --- Orders ---

// OrderRepo implements order.Repository.
type OrderRepo struct {
	store *Store
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates an order repository.
func NewOrderRepo(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func (r *OrderRepo) Create(_ context.Context, o *order.Order) error {
	return r.store.write(func(d *dataset) error {
		row := *o
		row.Lines = nil
		d.orders.put(o.ID, row)
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, orderID id.ID) (*order.Order, error) {
	var (
		o  order.Order
		ok bool
	)
	r.store.read(func(d *dataset) { o, ok = d.orders.get(orderID) })
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return &o, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepo) Update(_ context.Context, o *order.Order) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.orders.get(o.ID)
		if !ok {
			return apperror.NewNotFound("order", o.ID.String())
		}
		next, err := checkVersion("order", o.ID, stored.Version, o.Version)
		if err != nil {
			return err
		}
		o.Version = next
		row := *o
		row.Lines = nil
		d.orders.put(o.ID, row)
		return nil
	})
}

func (r *OrderRepo) GetLines(_ context.Context, orderID id.ID) ([]order.Line, error) {
	var lines []order.Line
	r.store.read(func(d *dataset) { lines = append(make([]order.Line, 0), d.orderLines[orderID]...) })
	return lines, nil
}

func (r *OrderRepo) GetLinesForUpdate(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	return r.GetLines(ctx, orderID)
}

func (r *OrderRepo) SaveLines(_ context.Context, orderID id.ID, lines []order.Line) error {
	return r.store.write(func(d *dataset) error {
		d.orderLines[orderID] = append([]order.Line(nil), lines...)
		return nil
	})
}

func (r *OrderRepo) UpdateDeliveredQty(_ context.Context, lineID id.ID, qty types.Quantity) error {
	return r.store.write(func(d *dataset) error {
		for orderID, lines := range d.orderLines {
			for i := range lines {
				if lines[i].ID == lineID {
					updated := append([]order.Line(nil), lines...)
					updated[i].DeliveredQty = qty
					d.orderLines[orderID] = updated
					return nil
				}
			}
		}
		return apperror.NewNotFound("order line", lineID.String())
	})
}

func (r *OrderRepo) CountActiveDeliveries(_ context.Context, orderID id.ID) (int, error) {
	n := 0
	r.store.read(func(d *dataset) {
		for _, note := range d.deliveries.rows {
			if note.OrderID == orderID && note.Status != delivery.StatusCancelled {
				n++
			}
		}
	})
	return n, nil
}

func (r *OrderRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*order.Order], error) {
	var rows []order.Order
	r.store.read(func(d *dataset) { rows = d.orders.values() })
	return list(rows, filter, func(o order.Order) docView {
		return docView{code: o.Code, status: string(o.Status), customerID: &o.CustomerID, createdAt: o.CreatedAt}
	}), nil
}

// --- Delivery notes ---

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	store *Store
}

var _ delivery.Repository = (*DeliveryRepo)(nil)

// NewDeliveryRepo creates a delivery note repository.
func NewDeliveryRepo(store *Store) *DeliveryRepo {
	return &DeliveryRepo{store: store}
}

func (r *DeliveryRepo) Create(_ context.Context, n *delivery.DeliveryNote) error {
	return r.store.write(func(d *dataset) error {
		if _, ok := d.orders.get(n.OrderID); !ok {
			return apperror.NewNotFound("order", n.OrderID.String())
		}
		row := *n
		row.Lines = nil
		d.deliveries.put(n.ID, row)
		return nil
	})
}

func (r *DeliveryRepo) GetByID(_ context.Context, noteID id.ID) (*delivery.DeliveryNote, error) {
	var (
		n  delivery.DeliveryNote
		ok bool
	)
	r.store.read(func(d *dataset) { n, ok = d.deliveries.get(noteID) })
	if !ok {
		return nil, apperror.NewNotFound("delivery note", noteID.String())
	}
	return &n, nil
}

func (r *DeliveryRepo) GetForUpdate(ctx context.Context, noteID id.ID) (*delivery.DeliveryNote, error) {
	return r.GetByID(ctx, noteID)
}

func (r *DeliveryRepo) Update(_ context.Context, n *delivery.DeliveryNote) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.deliveries.get(n.ID)
		if !ok {
			return apperror.NewNotFound("delivery note", n.ID.String())
		}
		next, err := checkVersion("delivery note", n.ID, stored.Version, n.Version)
		if err != nil {
			return err
		}
		n.Version = next
		row := *n
		row.Lines = nil
		d.deliveries.put(n.ID, row)
		return nil
	})
}

func (r *DeliveryRepo) GetLines(_ context.Context, noteID id.ID) ([]delivery.Line, error) {
	var lines []delivery.Line
	r.store.read(func(d *dataset) { lines = append(make([]delivery.Line, 0), d.deliveryLines[noteID]...) })
	return lines, nil
}

func (r *DeliveryRepo) SaveLines(_ context.Context, noteID id.ID, lines []delivery.Line) error {
	return r.store.write(func(d *dataset) error {
		d.deliveryLines[noteID] = append([]delivery.Line(nil), lines...)
		return nil
	})
}

func (r *DeliveryRepo) List(_ context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.DeliveryNote], error) {
	var rows []delivery.DeliveryNote
	r.store.read(func(d *dataset) {
		for _, n := range d.deliveries.values() {
			if filter.OrderID == nil || n.OrderID == *filter.OrderID {
				rows = append(rows, n)
			}
		}
	})
	return list(rows, filter.ListFilter, func(n delivery.DeliveryNote) docView {
		return docView{code: n.Code, status: string(n.Status), createdAt: n.CreatedAt}
	}), nil
}

// --- Invoices ---

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	store *Store
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates an invoice repository.
func NewInvoiceRepo(store *Store) *InvoiceRepo {
	return &InvoiceRepo{store: store}
}

func (r *InvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	return r.store.write(func(d *dataset) error {
		row := *inv
		row.Lines = nil
		d.invoices.put(inv.ID, row)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	var (
		inv invoice.Invoice
		ok  bool
	)
	r.store.read(func(d *dataset) { inv, ok = d.invoices.get(invoiceID) })
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return &inv, nil
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *InvoiceRepo) Update(_ context.Context, inv *invoice.Invoice) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.invoices.get(inv.ID)
		if !ok {
			return apperror.NewNotFound("invoice", inv.ID.String())
		}
		next, err := checkVersion("invoice", inv.ID, stored.Version, inv.Version)
		if err != nil {
			return err
		}
		inv.Version = next
		row := *inv
		row.Lines = nil
		d.invoices.put(inv.ID, row)
		return nil
	})
}

func (r *InvoiceRepo) GetLines(_ context.Context, invoiceID id.ID) ([]invoice.Line, error) {
	var lines []invoice.Line
	r.store.read(func(d *dataset) { lines = append(make([]invoice.Line, 0), d.invoiceLines[invoiceID]...) })
	return lines, nil
}

func (r *InvoiceRepo) SaveLines(_ context.Context, invoiceID id.ID, lines []invoice.Line) error {
	return r.store.write(func(d *dataset) error {
		d.invoiceLines[invoiceID] = append([]invoice.Line(nil), lines...)
		return nil
	})
}

func (r *InvoiceRepo) GetPayments(_ context.Context, invoiceID id.ID) ([]invoice.Payment, error) {
	out := make([]invoice.Payment, 0)
	r.store.read(func(d *dataset) {
		for _, p := range d.payments.values() {
			if p.InvoiceID == invoiceID {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (r *InvoiceRepo) CreatePayment(_ context.Context, p *invoice.Payment) error {
	return r.store.write(func(d *dataset) error {
		if _, ok := d.invoices.get(p.InvoiceID); !ok {
			return apperror.NewNotFound("invoice", p.InvoiceID.String())
		}
		d.payments.put(p.ID, *p)
		return nil
	})
}

func (r *InvoiceRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	var rows []invoice.Invoice
	r.store.read(func(d *dataset) { rows = d.invoices.values() })
	return list(rows, filter, func(inv invoice.Invoice) docView {
		return docView{code: inv.Code, status: string(inv.Status), customerID: &inv.CustomerID, createdAt: inv.CreatedAt}
	}), nil
}

// --- Quotes ---

// QuoteRepo implements quote.Repository.
type QuoteRepo struct {
	store *Store
}

var _ quote.Repository = (*QuoteRepo)(nil)

// NewQuoteRepo creates a quote repository.
func NewQuoteRepo(store *Store) *QuoteRepo {
	return &QuoteRepo{store: store}
}

func (r *QuoteRepo) Create(_ context.Context, q *quote.Quote) error {
	return r.store.write(func(d *dataset) error {
		row := *q
		row.Lines = nil
		d.quotes.put(q.ID, row)
		return nil
	})
}

func (r *QuoteRepo) GetByID(_ context.Context, quoteID id.ID) (*quote.Quote, error) {
	var (
		q  quote.Quote
		ok bool
	)
	r.store.read(func(d *dataset) { q, ok = d.quotes.get(quoteID) })
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID.String())
	}
	return &q, nil
}

func (r *QuoteRepo) GetForUpdate(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	return r.GetByID(ctx, quoteID)
}

func (r *QuoteRepo) Update(_ context.Context, q *quote.Quote) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.quotes.get(q.ID)
		if !ok {
			return apperror.NewNotFound("quote", q.ID.String())
		}
		next, err := checkVersion("quote", q.ID, stored.Version, q.Version)
		if err != nil {
			return err
		}
		q.Version = next
		row := *q
		row.Lines = nil
		d.quotes.put(q.ID, row)
		return nil
	})
}

func (r *QuoteRepo) GetLines(_ context.Context, quoteID id.ID) ([]quote.Line, error) {
	var lines []quote.Line
	r.store.read(func(d *dataset) { lines = append(make([]quote.Line, 0), d.quoteLines[quoteID]...) })
	return lines, nil
}

func (r *QuoteRepo) SaveLines(_ context.Context, quoteID id.ID, lines []quote.Line) error {
	return r.store.write(func(d *dataset) error {
		d.quoteLines[quoteID] = append([]quote.Line(nil), lines...)
		return nil
	})
}

func (r *QuoteRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*quote.Quote], error) {
	var rows []quote.Quote
	r.store.read(func(d *dataset) { rows = d.quotes.values() })
	return list(rows, filter, func(q quote.Quote) docView {
		return docView{code: q.Code, status: string(q.Status), customerID: &q.CustomerID, createdAt: q.CreatedAt}
	}), nil
}

// --- Purchase orders ---

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	store *Store
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a purchase order repository.
func NewPurchaseRepo(store *Store) *PurchaseRepo {
	return &PurchaseRepo{store: store}
}

func (r *PurchaseRepo) Create(_ context.Context, po *purchase.PurchaseOrder) error {
	return r.store.write(func(d *dataset) error {
		row := *po
		row.Items = nil
		d.purchaseOrders.put(po.ID, row)
		return nil
	})
}

func (r *PurchaseRepo) GetByID(_ context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	var (
		po purchase.PurchaseOrder
		ok bool
	)
	r.store.read(func(d *dataset) { po, ok = d.purchaseOrders.get(poID) })
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID.String())
	}
	return &po, nil
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	return r.GetByID(ctx, poID)
}

func (r *PurchaseRepo) Update(_ context.Context, po *purchase.PurchaseOrder) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.purchaseOrders.get(po.ID)
		if !ok {
			return apperror.NewNotFound("purchase order", po.ID.String())
		}
		next, err := checkVersion("purchase order", po.ID, stored.Version, po.Version)
		if err != nil {
			return err
		}
		po.Version = next
		row := *po
		row.Items = nil
		d.purchaseOrders.put(po.ID, row)
		return nil
	})
}

func (r *PurchaseRepo) GetItems(_ context.Context, poID id.ID) ([]purchase.Item, error) {
	var items []purchase.Item
	r.store.read(func(d *dataset) { items = append(make([]purchase.Item, 0), d.purchaseItems[poID]...) })
	return items, nil
}

func (r *PurchaseRepo) SaveItems(_ context.Context, poID id.ID, items []purchase.Item) error {
	return r.store.write(func(d *dataset) error {
		d.purchaseItems[poID] = append([]purchase.Item(nil), items...)
		return nil
	})
}

func (r *PurchaseRepo) UpdateReceivedQty(_ context.Context, itemID id.ID, qty types.Quantity) error {
	return r.store.write(func(d *dataset) error {
		for poID, items := range d.purchaseItems {
			for i := range items {
				if items[i].ID == itemID {
					updated := append([]purchase.Item(nil), items...)
					updated[i].ReceivedQty = qty
					d.purchaseItems[poID] = updated
					return nil
				}
			}
		}
		return apperror.NewNotFound("purchase order item", itemID.String())
	})
}

func (r *PurchaseRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*purchase.PurchaseOrder], error) {
	var rows []purchase.PurchaseOrder
	r.store.read(func(d *dataset) { rows = d.purchaseOrders.values() })
	return list(rows, filter, func(po purchase.PurchaseOrder) docView {
		return docView{code: po.Code, name: po.SupplierName, status: string(po.Status), createdAt: po.CreatedAt}
	}), nil
}
