package numerator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	corenumerator "erpcore/internal/core/numerator"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

// counterDB mimics sys_sequences for the two statements the service issues.
type counterDB struct {
	counters map[string]int64
	sql      []string
}

func (db *counterDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.sql = append(db.sql, sql)
	key := args[0].(string)
	if strings.Contains(sql, "EXCLUDED.current_val") {
		db.counters[key] = args[1].(int64)
	} else {
		db.counters[key]++
	}
	return fakeRow{val: db.counters[key]}
}

func newTestService(q Querier) *Service {
	return &Service{txQuerier: func(context.Context) (Querier, bool) { return q, q != nil }}
}

func TestNext_FormatsPerSeries(t *testing.T) {
	db := &counterDB{counters: map[string]int64{}}
	svc := newTestService(db)
	ctx := context.Background()

	code, seq, err := svc.Next(ctx, corenumerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000001", code)
	assert.EqualValues(t, 1, seq)

	code, _, err = svc.Next(ctx, corenumerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000002", code)

	code, _, err = svc.Next(ctx, corenumerator.DocDeliveryNote)
	require.NoError(t, err)
	assert.Equal(t, "BL000001", code)

	require.NoError(t, svc.SetCurrent(ctx, corenumerator.DocInvoice, 41))
	code, _, err = svc.Next(ctx, corenumerator.DocInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV000042", code)
}

func TestNext_RequiresTransaction(t *testing.T) {
	svc := newTestService(nil)

	_, _, err := svc.Next(context.Background(), corenumerator.DocOrder)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)
}

func TestNext_WrapsDriverError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(querierFunc(func() pgx.Row { return fakeRow{err: boom} }))

	_, _, err := svc.Next(context.Background(), corenumerator.DocQuote)
	assert.ErrorIs(t, err, boom)
}

func TestSetCurrent_RejectsNegative(t *testing.T) {
	svc := newTestService(&counterDB{counters: map[string]int64{}})
	err := svc.SetCurrent(context.Background(), corenumerator.DocOrder, -1)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

type querierFunc func() pgx.Row

func (f querierFunc) QueryRow(context.Context, string, ...any) pgx.Row { return f() }
