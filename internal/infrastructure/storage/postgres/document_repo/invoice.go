package document_repo

import (
	"context"
	"fmt"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceLinesTable = "invoice_lines"
	paymentsTable     = "payments"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
	paymentCols []string
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable, domain.AggregateInvoice,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
		paymentCols: postgres.ExtractDBColumns[invoice.Payment](),
	}
}

func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.Line, error) {
	return selectChildren[invoice.Line](ctx, r.txm, invoiceLinesTable, "invoice_id", invoiceID, "ORDER BY position")
}

func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.Line) error {
	return replaceChildren(ctx, r.txm, invoiceLinesTable, "invoice_id", invoiceID, lines)
}

// GetPayments returns the payments of an invoice in the order received.
func (r *InvoiceRepo) GetPayments(ctx context.Context, invoiceID id.ID) ([]invoice.Payment, error) {
	return selectChildren[invoice.Payment](ctx, r.txm, paymentsTable, "invoice_id", invoiceID, "ORDER BY received_at, created_at")
}

// CreatePayment inserts a payment. Payments are never updated.
func (r *InvoiceRepo) CreatePayment(ctx context.Context, p *invoice.Payment) error {
	sql, args, err := r.Builder().
		Insert(paymentsTable).
		Columns(r.paymentCols...).
		Values(postgres.StructValues(p, r.paymentCols)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", postgres.TranslateError(err))
	}
	return nil
}
