package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 8 * 1024

// AuditEntry is one status transition of a document.
type AuditEntry struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	EventType          string          `db:"event_type"`
	FromStatus         string          `db:"from_status"`
	ToStatus           string          `db:"to_status"`
	UserID             string          `db:"user_id"`
	UserEmail          string          `db:"user_email"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditService records status transitions in sys_audit.
// Snapshots above the threshold are stored zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// prepare fills defaults and compresses a large snapshot.
func (s *AuditService) prepare(ctx context.Context, entry *AuditEntry) {
	if user := appctx.GetUser(ctx); user != nil {
		if entry.UserID == "" {
			entry.UserID = user.UserID
		}
		if entry.UserEmail == "" {
			entry.UserEmail = user.Email
		}
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Snapshot) > s.compressThreshold {
		entry.SnapshotCompressed = s.encoder.EncodeAll(entry.Snapshot, nil)
		entry.Snapshot = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

// Log records an audit entry in the current transaction.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	s.prepare(ctx, &entry)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, event_type, from_status, to_status,
			user_id, user_email, snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.EventType, entry.FromStatus, entry.ToStatus,
		entry.UserID, entry.UserEmail, entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// LogTransition records a lifecycle event. Events without a target status
// are ignored.
func (s *AuditService) LogTransition(ctx context.Context, event domain.Event) error {
	if event.ToStatus == "" {
		return nil
	}
	snapshot, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: event.AggregateType,
		EntityID:   event.AggregateID,
		EventType:  event.EventType,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Snapshot:   snapshot,
	})
}

// History returns the transitions of an entity, newest first.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, `
		SELECT id, entity_type, entity_id, event_type, from_status, to_status,
		       user_id, user_email, snapshot, snapshot_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	for i := range entries {
		if err := s.decompress(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *AuditService) decompress(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.SnapshotCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(e.SnapshotCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	e.Snapshot = raw
	e.SnapshotCompressed = nil
	return nil
}

// EventSink publishes to the outbox and audits transitions, both in the
// caller's transaction.
type EventSink struct {
	outbox *OutboxPublisher
	audit  *AuditService
}

var _ domain.EventPublisher = (*EventSink)(nil)

// NewEventSink creates the publisher used by services on Postgres.
func NewEventSink(outbox *OutboxPublisher, audit *AuditService) *EventSink {
	return &EventSink{outbox: outbox, audit: audit}
}

// Publish implements domain.EventPublisher.
func (s *EventSink) Publish(ctx context.Context, event domain.Event) error {
	if err := s.outbox.Publish(ctx, event); err != nil {
		return err
	}
	if s.audit == nil {
		return nil
	}
	return s.audit.LogTransition(ctx, event)
}
