// Package main is the entry point for the erpcore background worker.
// It relays domain events from the outbox and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"erpcore/internal/config"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalw("worker requires the postgres storage driver", "driver", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting erpcore worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = 5
	poolCfg.ApplicationName = "erpcore-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool, postgres.DefaultTxOptions())
	worker := &Worker{
		relay:       postgres.NewOutboxRelay(pool, cfg.Worker.BatchSize, postgres.LogHandler),
		idempotency: postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL),
		cfg:         cfg.Worker,
		log:         log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and runs hourly housekeeping.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	cfg         config.WorkerConfig
	log         *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	pollInterval := w.cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drainOutbox processes batches until the outbox has no ready messages.
func (w *Worker) drainOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox relay failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("published outbox batch", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	if w.cfg.OutboxRetention <= 0 {
		return
	}
	if n, err := w.relay.PurgePublished(ctx, w.cfg.OutboxRetention); err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}
