package memory

import (
	"context"
	"strings"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	store *Store
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a product repository.
func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) Create(_ context.Context, p *product.Product) error {
	return r.store.write(func(d *dataset) error {
		for _, other := range d.products.rows {
			if strings.EqualFold(other.Reference, p.Reference) {
				return apperror.NewDuplicate("product", "reference", p.Reference)
			}
		}
		d.products.put(p.ID, *p)
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.store.read(func(d *dataset) { p, ok = d.products.get(productID) })
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *ProductRepo) GetByReference(_ context.Context, reference string) (*product.Product, error) {
	var found *product.Product
	r.store.read(func(d *dataset) {
		for _, p := range d.products.values() {
			if strings.EqualFold(p.Reference, reference) {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("product", reference)
	}
	return found, nil
}

func (r *ProductRepo) Update(_ context.Context, p *product.Product) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.products.get(p.ID)
		if !ok {
			return apperror.NewNotFound("product", p.ID.String())
		}
		next, err := checkVersion("product", p.ID, stored.Version, p.Version)
		if err != nil {
			return err
		}
		for _, other := range d.products.rows {
			if other.ID != p.ID && strings.EqualFold(other.Reference, p.Reference) {
				return apperror.NewDuplicate("product", "reference", p.Reference)
			}
		}
		p.Version = next
		d.products.put(p.ID, *p)
		return nil
	})
}

func (r *ProductRepo) SetStock(_ context.Context, productID id.ID, qty types.Quantity) error {
	return r.store.write(func(d *dataset) error {
		p, ok := d.products.get(productID)
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		p.StockQty = qty
		p.Touch()
		d.products.put(productID, p)
		return nil
	})
}

func (r *ProductRepo) Delete(_ context.Context, productID id.ID) error {
	return r.store.write(func(d *dataset) error {
		if _, ok := d.products.get(productID); !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		d.products.remove(productID)
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	var rows []product.Product
	r.store.read(func(d *dataset) { rows = d.products.values() })
	return list(rows, filter, productView), nil
}

func (r *ProductRepo) ListLowStock(_ context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	var rows []product.Product
	r.store.read(func(d *dataset) {
		for _, p := range d.products.values() {
			if p.IsLowStock() {
				rows = append(rows, p)
			}
		}
	})
	return list(rows, filter, productView), nil
}

// IsReferenced reports whether any document line or movement names the product.
func (r *ProductRepo) IsReferenced(_ context.Context, productID id.ID) (bool, error) {
	var found bool
	r.store.read(func(d *dataset) {
		found = productReferenced(d, productID)
	})
	return found, nil
}

func productReferenced(d *dataset, productID id.ID) bool {
	is := func(pid *id.ID) bool { return pid != nil && *pid == productID }
	for _, m := range d.movements.rows {
		if m.ProductID == productID {
			return true
		}
	}
	for _, lines := range d.orderLines {
		for _, l := range lines {
			if is(l.ProductID) {
				return true
			}
		}
	}
	for _, lines := range d.invoiceLines {
		for _, l := range lines {
			if is(l.ProductID) {
				return true
			}
		}
	}
	for _, lines := range d.quoteLines {
		for _, l := range lines {
			if is(l.ProductID) {
				return true
			}
		}
	}
	for _, items := range d.purchaseItems {
		for _, it := range items {
			if it.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func productView(p product.Product) docView {
	return docView{code: p.Reference, name: p.Name, createdAt: p.CreatedAt}
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	store *Store
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(store *Store) *CustomerRepo {
	return &CustomerRepo{store: store}
}

func (r *CustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	return r.store.write(func(d *dataset) error {
		d.customers.put(c.ID, *c)
		return nil
	})
}

func (r *CustomerRepo) GetByID(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	var (
		c  customer.Customer
		ok bool
	)
	r.store.read(func(d *dataset) { c, ok = d.customers.get(customerID) })
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	return &c, nil
}

func (r *CustomerRepo) GetForUpdate(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	return r.GetByID(ctx, customerID)
}

func (r *CustomerRepo) Update(_ context.Context, c *customer.Customer) error {
	return r.store.write(func(d *dataset) error {
		stored, ok := d.customers.get(c.ID)
		if !ok {
			return apperror.NewNotFound("customer", c.ID.String())
		}
		next, err := checkVersion("customer", c.ID, stored.Version, c.Version)
		if err != nil {
			return err
		}
		c.Version = next
		d.customers.put(c.ID, *c)
		return nil
	})
}

// Delete removes the customer together with its contacts.
func (r *CustomerRepo) Delete(_ context.Context, customerID id.ID) error {
	return r.store.write(func(d *dataset) error {
		if _, ok := d.customers.get(customerID); !ok {
			return apperror.NewNotFound("customer", customerID.String())
		}
		for _, ct := range d.contacts.values() {
			if ct.CustomerID == customerID {
				d.contacts.remove(ct.ID)
			}
		}
		d.customers.remove(customerID)
		return nil
	})
}

func (r *CustomerRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	var rows []customer.Customer
	r.store.read(func(d *dataset) { rows = d.customers.values() })
	return list(rows, filter, func(c customer.Customer) docView {
		return docView{code: c.Code, name: c.Name, createdAt: c.CreatedAt}
	}), nil
}

// IsReferenced reports whether an order, invoice or quote names the customer.
func (r *CustomerRepo) IsReferenced(_ context.Context, customerID id.ID) (bool, error) {
	var found bool
	r.store.read(func(d *dataset) {
		for _, o := range d.orders.rows {
			if o.CustomerID == customerID {
				found = true
				return
			}
		}
		for _, inv := range d.invoices.rows {
			if inv.CustomerID == customerID {
				found = true
				return
			}
		}
		for _, q := range d.quotes.rows {
			if q.CustomerID == customerID {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *CustomerRepo) ListContacts(_ context.Context, customerID id.ID) ([]customer.Contact, error) {
	out := make([]customer.Contact, 0)
	r.store.read(func(d *dataset) {
		for _, ct := range d.contacts.values() {
			if ct.CustomerID == customerID {
				out = append(out, ct)
			}
		}
	})
	return out, nil
}

func (r *CustomerRepo) CreateContact(_ context.Context, contact *customer.Contact) error {
	return r.store.write(func(d *dataset) error {
		if _, ok := d.customers.get(contact.CustomerID); !ok {
			return apperror.NewNotFound("customer", contact.CustomerID.String())
		}
		d.contacts.put(contact.ID, *contact)
		return nil
	})
}

func (r *CustomerRepo) ReassignContacts(_ context.Context, fromID, toID id.ID, clearPrimary bool) error {
	return r.store.write(func(d *dataset) error {
		for _, ct := range d.contacts.values() {
			if ct.CustomerID != fromID {
				continue
			}
			ct.CustomerID = toID
			if clearPrimary {
				ct.IsPrimary = false
			}
			d.contacts.put(ct.ID, ct)
		}
		return nil
	})
}
