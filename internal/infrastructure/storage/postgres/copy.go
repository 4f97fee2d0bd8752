package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyStructs bulk-inserts rows with the COPY protocol. Columns come from
// the "db" tags of T. It must run inside a transaction.
func CopyStructs[T any](ctx context.Context, txm *TxManager, table string, rows []T) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := txm.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("copy into %s requires transaction context", table)
	}

	columns := ExtractDBColumns[T]()
	values := make([][]any, len(rows))
	for i := range rows {
		values[i] = StructValues(&rows[i], columns)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(values))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}
