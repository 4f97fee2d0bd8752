package customer

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
	"erpcore/pkg/logger"
)

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo      Repository
	numerator numerator.Generator
	events    domain.EventPublisher
}

// NewService creates a new Customer service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	gen numerator.Generator,
	events domain.EventPublisher,
) *Service {
	if events == nil {
		events = domain.NopPublisher{}
	}
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		Events:     events,
		EntityName: domain.AggregateCustomer,
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
		events:         events,
	}

	base.Hooks().OnBeforeCreate(svc.assignCode)

	return svc
}

// assignCode runs inside the create transaction so a rollback releases the number.
func (s *Service) assignCode(ctx context.Context, c *Customer) error {
	if c.Code != "" {
		return nil
	}
	code, _, err := s.numerator.Next(ctx, numerator.DocCustomer)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	c.Code = code
	return nil
}

// AddContact attaches a contact. A second primary contact is rejected.
func (s *Service) AddContact(ctx context.Context, contact *Contact) error {
	if err := contact.Validate(ctx); err != nil {
		return err
	}

	return s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, contact.CustomerID); err != nil {
			return err
		}
		if contact.IsPrimary {
			contacts, err := s.repo.ListContacts(ctx, contact.CustomerID)
			if err != nil {
				return fmt.Errorf("list contacts: %w", err)
			}
			if hasPrimary(contacts) {
				return apperror.NewValidation("customer already has a primary contact").
					WithDetail("field", "isPrimary")
			}
		}
		if err := s.repo.CreateContact(ctx, contact); err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
		return nil
	})
}

// ListContacts returns the contacts of a customer.
func (s *Service) ListContacts(ctx context.Context, customerID id.ID) ([]Contact, error) {
	if _, err := s.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListContacts(ctx, customerID)
}

// MergeRequest describes a duplicate merge: source is folded into target.
type MergeRequest struct {
	SourceID id.ID
	TargetID id.ID
	Fields   FieldPolicy
}

// Merge folds source into target and deletes source.
//
// Contacts move to the target. Orders, invoices and quotes are not
// reassigned: a source that documents still reference is rejected with
// CUSTOMER_REFERENCED.
func (s *Service) Merge(ctx context.Context, req MergeRequest) (*Customer, error) {
	if req.SourceID == req.TargetID {
		return nil, apperror.NewValidation("source and target must differ").
			WithDetail("field", "sourceId")
	}
	if err := req.Fields.Validate(); err != nil {
		return nil, err
	}

	var target *Customer
	err := s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		source, tgt, err := s.lockPair(ctx, req.SourceID, req.TargetID)
		if err != nil {
			return err
		}

		referenced, err := s.repo.IsReferenced(ctx, source.ID)
		if err != nil {
			return fmt.Errorf("check customer references: %w", err)
		}
		if referenced {
			return apperror.NewBusinessRule(apperror.CodeCustomerReferenced,
				"source customer is referenced by orders, invoices or quotes").
				WithDetail("customerId", source.ID.String())
		}

		absorb(tgt, source, req.Fields)

		targetContacts, err := s.repo.ListContacts(ctx, tgt.ID)
		if err != nil {
			return fmt.Errorf("list contacts: %w", err)
		}
		if err := s.repo.ReassignContacts(ctx, source.ID, tgt.ID, hasPrimary(targetContacts)); err != nil {
			return fmt.Errorf("reassign contacts: %w", err)
		}

		if err := s.repo.Delete(ctx, source.ID); err != nil {
			return fmt.Errorf("delete source customer: %w", err)
		}
		tgt.Touch()
		if err := s.repo.Update(ctx, tgt); err != nil {
			return fmt.Errorf("update target customer: %w", err)
		}

		target = tgt
		return s.events.Publish(ctx, domain.Event{
			AggregateType: domain.AggregateCustomer,
			AggregateID:   tgt.ID,
			EventType:     "customer.merged",
			Payload: map[string]string{
				"sourceId": source.ID.String(),
				"targetId": tgt.ID.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "customers merged", "source", req.SourceID, "target", target.ID, "code", target.Code)
	return target, nil
}

// lockPair locks both customers in id order.
func (s *Service) lockPair(ctx context.Context, sourceID, targetID id.ID) (*Customer, *Customer, error) {
	first, second := sourceID, targetID
	if id.Less(targetID, sourceID) {
		first, second = targetID, sourceID
	}

	locked := make(map[id.ID]*Customer, 2)
	for _, cid := range []id.ID{first, second} {
		c, err := s.repo.GetForUpdate(ctx, cid)
		if err != nil {
			return nil, nil, err
		}
		locked[cid] = c
	}
	return locked[sourceID], locked[targetID], nil
}

func hasPrimary(contacts []Contact) bool {
	for _, c := range contacts {
		if c.IsPrimary {
			return true
		}
	}
	return false
}
