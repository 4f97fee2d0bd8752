package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	customersTable = "customers"
	contactsTable  = "customer_contacts"
)

var customerReferences = []string{"orders", "invoices", "quotes"}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
	contactCols []string
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			customersTable, domain.AggregateCustomer,
			postgres.ExtractDBColumns[customer.Customer](),
			[]string{"name", "code", "email"},
			func() *customer.Customer { return &customer.Customer{} },
		),
		contactCols: postgres.ExtractDBColumns[customer.Contact](),
	}
}

// IsReferenced reports whether an order, invoice or quote names the customer.
func (r *CustomerRepo) IsReferenced(ctx context.Context, customerID id.ID) (bool, error) {
	for _, table := range customerReferences {
		found, err := r.Exists(ctx, table, squirrel.Eq{"customer_id": customerID})
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// ListContacts returns the contacts of a customer, primary first.
func (r *CustomerRepo) ListContacts(ctx context.Context, customerID id.ID) ([]customer.Contact, error) {
	sql, args, err := r.Builder().
		Select(r.contactCols...).
		From(contactsTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("is_primary DESC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list contacts: %w", err)
	}

	contacts := make([]customer.Contact, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &contacts, sql, args...); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// CreateContact inserts a contact. The partial unique index on
// (customer_id) WHERE is_primary rejects a second primary contact.
func (r *CustomerRepo) CreateContact(ctx context.Context, contact *customer.Contact) error {
	sql, args, err := r.Builder().
		Insert(contactsTable).
		Columns(r.contactCols...).
		Values(postgres.StructValues(contact, r.contactCols)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert contact: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert contact: %w", postgres.TranslateError(err))
	}
	return nil
}

// ReassignContacts moves the contacts of fromID to toID.
func (r *CustomerRepo) ReassignContacts(ctx context.Context, fromID, toID id.ID, clearPrimary bool) error {
	q := r.Builder().
		Update(contactsTable).
		Set("customer_id", toID).
		Where(squirrel.Eq{"customer_id": fromID})
	if clearPrimary {
		q = q.Set("is_primary", false)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build reassign contacts: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("reassign contacts: %w", postgres.TranslateError(err))
	}
	return nil
}
