package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/numerator"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/product"
)

func TestRunInTransaction_RollsBackEverything(t *testing.T) {
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)
	gen := NewNumerator(store)
	events := NewEventLog(store)
	ctx := context.Background()

	boom := errors.New("boom")
	p := product.NewProduct("Chair", "CHAIR")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		code, _, err := gen.Next(ctx, numerator.DocOrder)
		require.NoError(t, err)
		assert.Equal(t, "ORD000001", code)
		require.NoError(t, products.Create(ctx, p))
		require.NoError(t, events.Publish(ctx, domain.Event{AggregateID: p.ID, EventType: "product.created"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = products.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, events.Events())

	code, _, err := gen.Next(ctx, numerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000001", code, "a rolled back number is handed out again")
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)
	ctx := context.Background()

	p := product.NewProduct("Chair", "CHAIR")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return products.Create(ctx, p)
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = products.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRunInTransaction_PanicRestores(t *testing.T) {
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)
	ctx := context.Background()

	p := product.NewProduct("Chair", "CHAIR")
	assert.Panics(t, func() {
		_ = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = products.Create(ctx, p)
			panic("kaboom")
		})
	})

	_, err := products.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	// the lock was released
	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return products.Create(ctx, p)
	}))
}

func TestUpdate_OptimisticVersion(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	ctx := context.Background()

	p := product.NewProduct("Chair", "CHAIR")
	require.NoError(t, products.Create(ctx, p))

	first, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)

	first.Name = "Armchair"
	require.NoError(t, products.Update(ctx, first))

	second.Name = "Stool"
	err = products.Update(ctx, second)
	assert.True(t, apperror.IsConcurrentModification(err))

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Armchair", got.Name)
}

func TestList_FilterSortPage(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	ctx := context.Background()

	for _, ref := range []string{"B-2", "A-1", "C-3"} {
		require.NoError(t, products.Create(ctx, product.NewProduct("Item "+ref, ref)))
	}

	filter := domain.DefaultListFilter()
	filter.OrderBy = "code"
	filter.Limit = 2
	res, err := products.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "A-1", res.Items[0].Reference)
	assert.Equal(t, "B-2", res.Items[1].Reference)

	filter = domain.DefaultListFilter()
	filter.Search = "c-3"
	res, err = products.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "C-3", res.Items[0].Reference)
}
