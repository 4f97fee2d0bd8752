package domain

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/pkg/logger"
)

// CatalogEntity is a persisted, self-validating reference entity.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
}

// CatalogRepository defines CRUD operations for catalog entities.
type CatalogRepository[T CatalogEntity] interface {
	// Create inserts a new entity
	Create(ctx context.Context, entity T) error

	// GetByID retrieves entity by ID
	GetByID(ctx context.Context, id id.ID) (T, error)

	// Update modifies existing entity (with optimistic locking)
	Update(ctx context.Context, entity T) error

	// Delete physically removes the entity
	Delete(ctx context.Context, id id.ID) error

	// List retrieves entities with filtering and pagination
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// IsReferenced reports whether documents or movements still point at the entity
	IsReferenced(ctx context.Context, id id.ID) (bool, error)
}

// CatalogService provides the shared CRUD flow for catalog entities:
// validate, run hooks, write in a transaction, publish an event.
type CatalogService[T CatalogEntity] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	events    EventPublisher
	hooks     *HookRegistry[T]

	// entityName for error messages and event aggregate type
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T CatalogEntity] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Events     EventPublisher
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogEntity](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	events := cfg.Events
	if events == nil {
		events = NopPublisher{}
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		events:     events,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// TxManager exposes the transaction manager to embedding services.
func (s *CatalogService[T]) TxManager() tx.Manager {
	return s.txManager
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	return err
}

// Create creates a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   entity.GetID(),
			EventType:     s.entityName + ".created",
			Payload:       entity,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" created", "id", entity.GetID())
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID)
	}
	return entity, nil
}

// Update updates an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, entity); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   entity.GetID(),
			EventType:     s.entityName + ".updated",
			Payload:       entity,
		})
	})
}

// Delete removes an entity that nothing references.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
			return err
		}

		referenced, err := s.repo.IsReferenced(ctx, entityID)
		if err != nil {
			return fmt.Errorf("check %s references: %w", s.entityName, err)
		}
		if referenced {
			return apperror.NewReferenced(s.entityName, entityID.String())
		}

		if err := s.repo.Delete(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   entityID,
			EventType:     s.entityName + ".deleted",
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" deleted", "id", entityID)
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
