package inventory

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Mutator is the slice of the ledger coordinator this service needs.
// Kept as an interface to avoid the inventory package depending on the
// ledger package (which already depends on inventory).
type Mutator interface {
	ApplyInternalUse(ctx context.Context, tenantID tenant.ID, itemID id.ID, quantity int64, reason string) error
	ApplyAdjustment(ctx context.Context, tenantID tenant.ID, itemID id.ID, delta int64, reason string) error
	ReverseEntry(ctx context.Context, tenantID tenant.ID, entryID id.ID) error
}

// Service provides the item-facing operations: internal use, stock
// adjustments, reversal of either, and the sticky status overrides.
type Service struct {
	repo      Repository
	mutator   Mutator
	txManager tx.Manager
}

// NewService creates an inventory service.
func NewService(repo Repository, mutator Mutator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		mutator:   mutator,
		txManager: txManager,
	}
}

// Create registers a new item. The quantity here is the opening stock; all
// later changes go through ledger-producing operations.
func (s *Service) Create(ctx context.Context, item *Item) (*Item, error) {
	if id.IsNil(item.ID) {
		item.ID = id.New()
	}
	item.ApplyQuantityDelta(0) // derive level and total value from opening stock
	item.CreatedAt = item.UpdatedAt
	item.Version = 1

	if err := item.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	logger.Info(ctx, "item created", "item_id", item.ID, "sku", item.SKU)
	return item, nil
}

// Get retrieves an item scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID tenant.ID, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, tenantID, itemID)
}

// List retrieves items with filtering and pagination.
func (s *Service) List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Item, error) {
	return s.repo.List(ctx, tenantID, f)
}

// RecordInternalUse consumes stock for internal purposes (free-text reason).
func (s *Service) RecordInternalUse(ctx context.Context, tenantID tenant.ID, itemID id.ID, quantity int64, reason string) error {
	if quantity <= 0 {
		return apperror.NewInvalidQuantity(quantity)
	}
	return s.mutator.ApplyInternalUse(ctx, tenantID, itemID, quantity, reason)
}

// RecordAdjustment applies a signed stock adjustment with a reason tag.
func (s *Service) RecordAdjustment(ctx context.Context, tenantID tenant.ID, itemID id.ID, delta int64, reason string) error {
	if delta == 0 {
		return apperror.NewInvalidQuantity(0)
	}
	return s.mutator.ApplyAdjustment(ctx, tenantID, itemID, delta, reason)
}

// DeleteEntry reverses an internal-use or adjustment record.
func (s *Service) DeleteEntry(ctx context.Context, tenantID tenant.ID, entryID id.ID) error {
	return s.mutator.ReverseEntry(ctx, tenantID, entryID)
}

// SetOverride marks an item on-order or discontinued. The computed stock
// level keeps tracking quantity underneath, but mutations will not move the
// visible status (and therefore never alert) until the override is cleared.
func (s *Service) SetOverride(ctx context.Context, tenantID tenant.ID, itemID id.ID, o Override) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, tenantID, itemID)
		if err != nil {
			return err
		}
		if err := item.SetOverride(o); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		logger.Info(ctx, "status override set", "item_id", itemID, "override", o)
		return nil
	})
}

// ClearOverride removes the sticky status; the derived level shows again.
func (s *Service) ClearOverride(ctx context.Context, tenantID tenant.ID, itemID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, tenantID, itemID)
		if err != nil {
			return err
		}
		item.ClearOverride()
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		logger.Info(ctx, "status override cleared", "item_id", itemID)
		return nil
	})
}
