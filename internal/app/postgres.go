package app

import (
	"context"
	"fmt"

	"erpcore/internal/config"
	"erpcore/internal/infrastructure/numerator"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/internal/infrastructure/storage/postgres/catalog_repo"
	"erpcore/internal/infrastructure/storage/postgres/document_repo"
	"erpcore/internal/infrastructure/storage/postgres/register_repo"
)

// Postgres is a service graph over PostgreSQL. Domain events go to the
// outbox and the audit trail in the same transaction as the change.
type Postgres struct {
	*Services

	Pool        *postgres.Pool
	Tx          *postgres.TxManager
	Audit       *postgres.AuditService
	Idempotency *postgres.IdempotencyStore
}

// NewPostgres connects to the database and builds the services.
func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txOpts.LockTimeout = cfg.Database.LockTimeout

	p, err := NewPostgresFromPool(pool, txOpts, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresFromPool builds the services over an existing pool.
func NewPostgresFromPool(pool *postgres.Pool, txOpts postgres.TxOptions, cfg *config.Config) (*Postgres, error) {
	txm := postgres.NewTxManager(pool, txOpts)

	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		return nil, fmt.Errorf("create audit service: %w", err)
	}
	events := postgres.NewEventSink(postgres.NewOutboxPublisher(txm), audit)

	svc := NewServices(Config{
		Repos: Repositories{
			Products:   catalog_repo.NewProductRepo(txm),
			Customers:  catalog_repo.NewCustomerRepo(txm),
			Stock:      register_repo.NewStockRepo(txm),
			Orders:     document_repo.NewOrderRepo(txm),
			Deliveries: document_repo.NewDeliveryNoteRepo(txm),
			Invoices:   document_repo.NewInvoiceRepo(txm),
			Quotes:     document_repo.NewQuoteRepo(txm),
			Purchases:  document_repo.NewPurchaseOrderRepo(txm),
		},
		TxManager:       txm,
		Numerator:       numerator.New(txm),
		Events:          events,
		DefaultCurrency: cfg.Sales.DefaultCurrency,
	})

	return &Postgres{
		Services:    svc,
		Pool:        pool,
		Tx:          txm,
		Audit:       audit,
		Idempotency: postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL),
	}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.Pool.Close()
}
