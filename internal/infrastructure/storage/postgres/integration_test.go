//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"erpcore/internal/app"
	"erpcore/internal/config"
	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
	"erpcore/internal/domain/registers/stock"
	"erpcore/internal/infrastructure/migration"
	"erpcore/internal/infrastructure/storage/postgres"
)

const migrationsPath = "../../../../migrations"

func setup(t *testing.T) (*app.Postgres, context.Context) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("erpcore_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.Open(dsn, migrationsPath)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	cfg := &config.Config{
		Database:    config.DatabaseConfig{URL: dsn, MaxConns: 30, StatementTimeout: 10 * time.Second, LockTimeout: 5 * time.Second},
		Idempotency: config.IdempotencyConfig{Enabled: true, TTL: time.Hour},
		Sales:       config.SalesConfig{DefaultCurrency: "EUR"},
	}
	pg, err := app.NewPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-it", Email: "it@example.com"})
	return pg, ctx
}

func TestIntegration(t *testing.T) {
	pg, ctx := setup(t)

	t.Run("concurrent code generation yields unique gapless codes", func(t *testing.T) {
		const n = 20
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = pg.Customers.Create(ctx, customer.NewCustomer(fmt.Sprintf("Customer %02d", i)))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		list, err := pg.Customers.List(ctx, domain.ListFilter{OrderBy: "code", Limit: 100})
		require.NoError(t, err)
		require.Len(t, list.Items, n)
		for i, c := range list.Items {
			assert.Equal(t, fmt.Sprintf("CUS%06d", i+1), c.Code)
		}
	})

	t.Run("concurrent stock decrement never goes negative", func(t *testing.T) {
		p := product.NewProduct("Bolt", "BOLT-IT")
		p.UnitPrice = types.MustMoney("1.00")
		require.NoError(t, pg.Products.Create(ctx, p))
		_, err := pg.Stock.Record(ctx, stock.Entry{ProductID: p.ID, Type: stock.MovementIn, Quantity: types.MustQuantity("10")})
		require.NoError(t, err)

		const n = 15
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = pg.Stock.Record(ctx, stock.Entry{ProductID: p.ID, Type: stock.MovementOut, Quantity: types.MustQuantity("1")})
			}(i)
		}
		wg.Wait()

		var ok, short int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case apperror.HasCode(err, apperror.CodeInsufficientStock):
				short++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 10, ok)
		assert.Equal(t, 5, short)

		reloaded, err := pg.Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.StockQty.IsZero(), "stock %s", reloaded.StockQty)

		movements, err := pg.Stock.ListMovements(ctx, stock.MovementFilter{ProductID: &p.ID, ListFilter: domain.ListFilter{Limit: 50}})
		require.NoError(t, err)
		assert.Equal(t, int64(11), movements.TotalCount)
	})

	t.Run("order to cash", func(t *testing.T) {
		c := customer.NewCustomer("Cash Flow SARL")
		require.NoError(t, pg.Customers.Create(ctx, c))

		p := product.NewProduct("Desk", "DESK-IT")
		p.UnitPrice = types.MustMoney("500.00")
		require.NoError(t, pg.Products.Create(ctx, p))
		_, err := pg.Stock.Record(ctx, stock.Entry{ProductID: p.ID, Type: stock.MovementIn, Quantity: types.MustQuantity("5")})
		require.NoError(t, err)

		o, err := pg.Orders.Create(ctx, order.CreateInput{
			CustomerID: c.ID,
			Lines:      []lineitem.Input{{ProductID: &p.ID, Quantity: types.MustQuantity("2")}},
		})
		require.NoError(t, err)
		assert.Equal(t, "ORD000001", o.Code)
		o, err = pg.Orders.Confirm(ctx, o.ID)
		require.NoError(t, err)

		d, err := pg.Deliveries.Create(ctx, delivery.CreateInput{
			OrderID: o.ID,
			Lines:   []delivery.LineInput{{OrderLineID: o.Lines[0].ID, Quantity: types.MustQuantity("2")}},
		})
		require.NoError(t, err)
		_, err = pg.Deliveries.MarkDelivered(ctx, d.ID)
		require.NoError(t, err)

		o, err = pg.Orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, o.Status)

		reloaded, err := pg.Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "3", reloaded.StockQty.String())

		inv, err := pg.Invoices.CreateFromOrder(ctx, o.ID)
		require.NoError(t, err)
		inv, err = pg.Invoices.Issue(ctx, inv.ID)
		require.NoError(t, err)

		_, inv, err = pg.Invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: inv.BalanceDue, Method: invoice.MethodTransfer})
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, inv.Status)
		assert.True(t, inv.BalanceDue.IsZero())

		_, _, err = pg.Invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{Amount: types.MustMoney("0.01"), Method: invoice.MethodCash})
		assert.True(t, apperror.HasCode(err, apperror.CodeExceedsBalance))

		history, err := pg.Audit.History(ctx, domain.AggregateOrder, o.ID, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, history)
	})

	t.Run("rolled back transaction releases the drawn code", func(t *testing.T) {
		before, err := pg.Customers.List(ctx, domain.ListFilter{Limit: 1})
		require.NoError(t, err)

		bad := customer.NewCustomer("Bad Mail")
		bad.Email = "not-an-email"
		require.Error(t, pg.Customers.Create(ctx, bad))

		good := customer.NewCustomer("Good Mail")
		require.NoError(t, pg.Customers.Create(ctx, good))
		assert.Equal(t, fmt.Sprintf("CUS%06d", before.TotalCount+1), good.Code)
	})

	t.Run("outbox relay publishes pending events", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string]int{}
		relay := postgres.NewOutboxRelay(pg.Pool, 500, postgres.OutboxHandlerFunc(func(_ context.Context, msg *postgres.OutboxMessage) error {
			mu.Lock()
			seen[msg.EventType]++
			mu.Unlock()
			return nil
		}))

		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Positive(t, n)
		assert.Positive(t, seen["order.confirmed"])

		n, err = relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("idempotency key replays the stored response", func(t *testing.T) {
		replay, err := pg.Idempotency.AcquireKey(ctx, "key-1", "u-it", "payments.create", "hash-a")
		require.NoError(t, err)
		assert.Nil(t, replay)

		require.NoError(t, pg.Idempotency.CompleteKey(ctx, "key-1", 201, "application/json", []byte(`{"ok":true}`)))

		replay, err = pg.Idempotency.AcquireKey(ctx, "key-1", "u-it", "payments.create", "hash-a")
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.Equal(t, 201, replay.StatusCode)
		assert.JSONEq(t, `{"ok":true}`, string(replay.Body))

		_, err = pg.Idempotency.AcquireKey(ctx, "key-1", "u-it", "payments.create", "hash-b")
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})
}
