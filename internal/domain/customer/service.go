package customer

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/ledger"
)

// Repository defines storage operations for customers, tenant-scoped.
type Repository interface {
	Create(ctx context.Context, c *Customer) error

	GetByID(ctx context.Context, tenantID tenant.ID, customerID id.ID) (*Customer, error)

	// GetForUpdate locks the row; balance updates are read-modify-write.
	GetForUpdate(ctx context.Context, tenantID tenant.ID, customerID id.ID) (*Customer, error)

	Update(ctx context.Context, c *Customer) error

	List(ctx context.Context, tenantID tenant.ID, search string, limit, offset int) ([]*Customer, error)
}

// Service applies balance deltas inside the caller's transaction.
// It is the ledger coordinator's BalanceApplier.
type Service struct {
	repo Repository
}

// NewService creates a customer balance service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ ledger.BalanceApplier = (*Service)(nil)

// ApplyDelta loads the customer under lock, folds the delta in (clamping
// the receivable at zero) and persists. Must run inside a transaction.
func (s *Service) ApplyDelta(ctx context.Context, tenantID tenant.ID, customerID id.ID, d ledger.CustomerDelta) error {
	c, err := s.repo.GetForUpdate(ctx, tenantID, customerID)
	if err != nil {
		return err
	}

	c.applyDelta(d.SpentDelta, d.BalanceDelta, d.SaleAt)

	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// Get retrieves a customer scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID tenant.ID, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, tenantID, customerID)
}

// Create registers a new customer with zeroed purchase totals.
func (s *Service) Create(ctx context.Context, c *Customer) (*Customer, error) {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// List retrieves customers for a tenant.
func (s *Service) List(ctx context.Context, tenantID tenant.ID, search string, limit, offset int) ([]*Customer, error) {
	return s.repo.List(ctx, tenantID, search, limit, offset)
}
