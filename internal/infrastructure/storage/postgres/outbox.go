package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const maxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "order", "invoice"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "order.confirmed"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes domain events to sys_outbox in the caller's transaction.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements domain.EventPublisher. It must run inside a transaction
// so the event commits or rolls back with the state change.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := eventPayload(event)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

func eventPayload(event domain.Event) ([]byte, error) {
	body := map[string]any{"data": event.Payload}
	if event.ToStatus != "" {
		body["fromStatus"] = event.FromStatus
		body["toStatus"] = event.ToStatus
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return b, nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// LogHandler writes each event to the log. It is the default sink of
// cmd/worker until a broker is configured.
var LogHandler = OutboxHandlerFunc(func(ctx context.Context, msg *OutboxMessage) error {
	logger.Info(ctx, "domain event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload))
	return nil
})

// OutboxRelay reads pending messages and hands them to a handler.
type OutboxRelay struct {
	pool      *pgxpool.Pool
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(pool *Pool, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{pool: pool.Pool, batchSize: batchSize, handler: handler}
}

// ProcessBatch fetches and processes pending messages in one transaction.
// Rows are claimed with SKIP LOCKED so several workers can run side by side.
// Returns the number of published messages.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin relay transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var messages []*OutboxMessage
	err = pgxscan.Select(ctx, tx, &messages, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
		       retry_count, last_error, next_retry_at, created_at, published_at
		FROM sys_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, OutboxStatusPending, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox messages: %w", err)
	}

	processed := 0
	for _, msg := range messages {
		if herr := r.handler.Handle(ctx, msg); herr != nil {
			logger.Warn(ctx, "outbox handler failed", "id", msg.ID, "event_type", msg.EventType, "error", herr)
			status := OutboxStatusPending
			if msg.RetryCount+1 >= maxOutboxRetries {
				status = OutboxStatusFailed
			}
			_, err := tx.Exec(ctx, `
				UPDATE sys_outbox
				SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2, status = $3
				WHERE id = $4
			`, herr.Error(), time.Now().UTC().Add(time.Duration(msg.RetryCount+1)*time.Minute), status, msg.ID)
			if err != nil {
				return processed, fmt.Errorf("update failed message: %w", err)
			}
			continue
		}

		if _, err := tx.Exec(ctx, `
			UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3
		`, OutboxStatusPublished, time.Now().UTC(), msg.ID); err != nil {
			return processed, fmt.Errorf("mark message published: %w", err)
		}
		processed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit relay transaction: %w", err)
	}
	return processed, nil
}

// PurgePublished deletes published messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
