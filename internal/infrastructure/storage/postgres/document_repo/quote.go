package document_repo

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/quote"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	quotesTable     = "quotes"
	quoteLinesTable = "quote_lines"
)

// QuoteRepo implements quote.Repository.
type QuoteRepo struct {
	*BaseDocumentRepo[*quote.Quote]
}

var _ quote.Repository = (*QuoteRepo)(nil)

// NewQuoteRepo creates a new quote repository.
func NewQuoteRepo(txm *postgres.TxManager) *QuoteRepo {
	return &QuoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			quotesTable, domain.AggregateQuote,
			postgres.ExtractDBColumns[quote.Quote](),
			func() *quote.Quote { return &quote.Quote{} },
		),
	}
}

func (r *QuoteRepo) GetLines(ctx context.Context, quoteID id.ID) ([]quote.Line, error) {
	return selectChildren[quote.Line](ctx, r.txm, quoteLinesTable, "quote_id", quoteID, "ORDER BY position")
}

func (r *QuoteRepo) SaveLines(ctx context.Context, quoteID id.ID, lines []quote.Line) error {
	return replaceChildren(ctx, r.txm, quoteLinesTable, "quote_id", quoteID, lines)
}
