// Package memory provides in-memory implementations of every repository and
// of tx.Manager. Transactions are serialized and roll back by restoring a
// snapshot, so a failed operation leaves no trace.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/documents/quote"
	"erpcore/internal/domain/registers/stock"
)

// table keeps rows by id in insertion order.
type table[T any] struct {
	rows  map[id.ID]T
	order []id.ID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[id.ID]T)}
}

func (t *table[T]) get(key id.ID) (T, bool) {
	v, ok := t.rows[key]
	return v, ok
}

func (t *table[T]) put(key id.ID, v T) {
	if _, ok := t.rows[key]; !ok {
		t.order = append(t.order, key)
	}
	t.rows[key] = v
}

func (t *table[T]) remove(key id.ID) {
	if _, ok := t.rows[key]; !ok {
		return
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[T]) values() []T {
	out := make([]T, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{
		rows:  make(map[id.ID]T, len(t.rows)),
		order: append([]id.ID(nil), t.order...),
	}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

// children keeps the table part of a parent row.
type children[T any] map[id.ID][]T

func (c children[T]) clone() children[T] {
	out := make(children[T], len(c))
	for k, v := range c {
		out[k] = append([]T(nil), v...)
	}
	return out
}

type dataset struct {
	products  *table[product.Product]
	customers *table[customer.Customer]
	contacts  *table[customer.Contact]
	movements *table[stock.Movement]

	orders     *table[order.Order]
	orderLines children[order.Line]

	deliveries    *table[delivery.DeliveryNote]
	deliveryLines children[delivery.Line]

	invoices     *table[invoice.Invoice]
	invoiceLines children[invoice.Line]
	payments     *table[invoice.Payment]

	quotes     *table[quote.Quote]
	quoteLines children[quote.Line]

	purchaseOrders *table[purchase.PurchaseOrder]
	purchaseItems  children[purchase.Item]

	counters map[numerator.DocumentType]int64
	events   []domain.Event
}

func newDataset() *dataset {
	return &dataset{
		products:       newTable[product.Product](),
		customers:      newTable[customer.Customer](),
		contacts:       newTable[customer.Contact](),
		movements:      newTable[stock.Movement](),
		orders:         newTable[order.Order](),
		orderLines:     make(children[order.Line]),
		deliveries:     newTable[delivery.DeliveryNote](),
		deliveryLines:  make(children[delivery.Line]),
		invoices:       newTable[invoice.Invoice](),
		invoiceLines:   make(children[invoice.Line]),
		payments:       newTable[invoice.Payment](),
		quotes:         newTable[quote.Quote](),
		quoteLines:     make(children[quote.Line]),
		purchaseOrders: newTable[purchase.PurchaseOrder](),
		purchaseItems:  make(children[purchase.Item]),
		counters:       make(map[numerator.DocumentType]int64),
	}
}

func (d *dataset) clone() *dataset {
	counters := make(map[numerator.DocumentType]int64, len(d.counters))
	for k, v := range d.counters {
		counters[k] = v
	}
	return &dataset{
		products:       d.products.clone(),
		customers:      d.customers.clone(),
		contacts:       d.contacts.clone(),
		movements:      d.movements.clone(),
		orders:         d.orders.clone(),
		orderLines:     d.orderLines.clone(),
		deliveries:     d.deliveries.clone(),
		deliveryLines:  d.deliveryLines.clone(),
		invoices:       d.invoices.clone(),
		invoiceLines:   d.invoiceLines.clone(),
		payments:       d.payments.clone(),
		quotes:         d.quotes.clone(),
		quoteLines:     d.quoteLines.clone(),
		purchaseOrders: d.purchaseOrders.clone(),
		purchaseItems:  d.purchaseItems.clone(),
		counters:       counters,
		events:         append([]domain.Event(nil), d.events...),
	}
}

// Store holds all in-memory tables.
type Store struct {
	// txMu serializes transactions; it stands in for row locks.
	txMu sync.Mutex

	mu   sync.RWMutex
	data *dataset
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) read(fn func(d *dataset)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// TxManager implements tx.Manager over a Store.
type TxManager struct {
	store *Store
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

type txKey struct{}

// RunInTransaction runs fn exclusively. On error or panic every write made
// by fn is discarded. Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	m.store.mu.RLock()
	snapshot := m.store.data.clone()
	m.store.mu.RUnlock()

	rollback := func() {
		m.store.mu.Lock()
		m.store.data = snapshot
		m.store.mu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
	}
	return err
}

// docView is what list filters look at.
type docView struct {
	code       string
	name       string
	status     string
	customerID *id.ID
	createdAt  time.Time
}

func (v docView) matches(f domain.ListFilter) bool {
	if f.Status != "" && !strings.EqualFold(v.status, f.Status) {
		return false
	}
	if f.CustomerID != nil && (v.customerID == nil || *v.customerID != *f.CustomerID) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(v.code), q) && !strings.Contains(strings.ToLower(v.name), q) {
			return false
		}
	}
	return true
}

// list filters, sorts and pages rows; view projects a row for filtering.
func list[T any](rows []T, filter domain.ListFilter, view func(T) docView) domain.ListResult[*T] {
	filter.Normalize()

	matched := make([]*T, 0, len(rows))
	for i := range rows {
		if view(rows[i]).matches(filter) {
			matched = append(matched, &rows[i])
		}
	}

	switch strings.TrimSpace(filter.OrderBy) {
	case "code":
		sort.SliceStable(matched, func(i, j int) bool { return view(*matched[i]).code < view(*matched[j]).code })
	case "-code":
		sort.SliceStable(matched, func(i, j int) bool { return view(*matched[i]).code > view(*matched[j]).code })
	case "created_at":
		sort.SliceStable(matched, func(i, j int) bool {
			return view(*matched[i]).createdAt.Before(view(*matched[j]).createdAt)
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return view(*matched[i]).createdAt.After(view(*matched[j]).createdAt)
		})
	}
	return domain.Page(matched, filter)
}

// checkVersion enforces optimistic locking and returns the next version.
func checkVersion(entityName string, key id.ID, stored, incoming int) (int, error) {
	if stored != incoming {
		return 0, apperror.NewConcurrentModification(entityName, key.String())
	}
	return incoming + 1, nil
}
