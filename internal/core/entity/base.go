package entity

import (
	"context"
	"time"

	"erpcore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Versioned is implemented by entities under optimistic locking.
type Versioned interface {
	GetVersion() int
	SetVersion(v int)
}

// BaseEntity contains common fields for all persisted entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// GetVersion implements Versioned.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// Touch bumps UpdatedAt. The version is advanced by the repository on save.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}
