// Package numerator provides the PostgreSQL implementation of document
// numbering. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"erpcore/internal/core/apperror"
	corenumerator "erpcore/internal/core/numerator"
	"erpcore/internal/infrastructure/storage/postgres"
)

// Querier is the subset of pgx.Tx used here.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service draws numbers from sys_sequences with an UPSERT ... RETURNING.
// The counter row stays locked until the surrounding transaction ends, so
// concurrent documents of one type are serialized and a rollback gives the
// number back.
type Service struct {
	txQuerier func(ctx context.Context) (Querier, bool)
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a generator bound to the transactions of txm.
func New(txm *postgres.TxManager) *Service {
	return &Service{txQuerier: func(ctx context.Context) (Querier, bool) {
		tx := txm.GetTx(ctx)
		if tx == nil {
			return nil, false
		}
		return tx, true
	}}
}

func (s *Service) querier(ctx context.Context) (Querier, error) {
	q, ok := s.txQuerier(ctx)
	if !ok {
		return nil, apperror.NewInternal(fmt.Errorf("numerator requires a transaction"))
	}
	return q, nil
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, docType corenumerator.DocumentType) (string, int64, error) {
	q, err := s.querier(ctx)
	if err != nil {
		return "", 0, err
	}

	var seq int64
	err = q.QueryRow(ctx, `
		INSERT INTO sys_sequences (doc_type, current_val)
		VALUES ($1, 1)
		ON CONFLICT (doc_type) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, string(docType)).Scan(&seq)
	if err != nil {
		return "", 0, fmt.Errorf("next %s number: %w", docType, err)
	}

	return corenumerator.Format(corenumerator.ConfigFor(docType), seq), seq, nil
}

// SetCurrent implements corenumerator.Generator.
func (s *Service) SetCurrent(ctx context.Context, docType corenumerator.DocumentType, value int64) error {
	if value < 0 {
		return apperror.NewValidation("sequence value cannot be negative").
			WithDetail("value", value)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return err
	}

	var stored int64
	err = q.QueryRow(ctx, `
		INSERT INTO sys_sequences (doc_type, current_val)
		VALUES ($1, $2)
		ON CONFLICT (doc_type) DO UPDATE SET current_val = EXCLUDED.current_val
		RETURNING current_val
	`, string(docType), value).Scan(&stored)
	if err != nil {
		return fmt.Errorf("set %s sequence: %w", docType, err)
	}
	return nil
}
