package invoice

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// Repository defines operations for invoices and their payments.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error

	GetLines(ctx context.Context, invoiceID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, invoiceID id.ID, lines []Line) error

	GetPayments(ctx context.Context, invoiceID id.ID) ([]Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error)
}
