package purchase

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
	"stockledger/pkg/numerator"
)

// OrderPrefix is the display prefix for purchase order numbers.
const OrderPrefix = "PO"

// Repository defines storage operations for purchase orders, tenant-scoped.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*Order, error)
	GetForUpdate(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*Order, error)
	UpdateHeader(ctx context.Context, order *Order) error
	List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Order, error)
}

// ListFilter narrows and pages order listings.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// Coordinator is the slice of the ledger coordinator used on completion.
// Receipts for all lines land in one batch write.
type Coordinator interface {
	ApplyBatch(ctx context.Context, ms []ledger.Mutation) ([]*ledger.Result, error)
}

// Numerator allocates order numbers.
type Numerator interface {
	Next(ctx context.Context, tenantID tenant.ID, cfg numerator.Config) (string, error)
}

// Service provides purchase order lifecycle operations.
type Service struct {
	repo        Repository
	coordinator Coordinator
	numerator   Numerator
	txManager   tx.Manager
}

// NewService creates a purchase order service.
func NewService(repo Repository, coordinator Coordinator, num Numerator, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		coordinator: coordinator,
		numerator:   num,
		txManager:   txManager,
	}
}

// Create records a new order in Pending state with an allocated number.
func (s *Service) Create(ctx context.Context, tenantID tenant.ID, order *Order) error {
	now := time.Now().UTC()
	order.ID = id.New()
	order.TenantID = tenantID
	order.Status = StatusPending
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Lines {
		order.Lines[i].ID = id.New()
		order.Lines[i].OrderID = order.ID
	}
	order.RecalculateTotal()

	if err := order.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.Next(ctx, tenantID, numerator.DefaultConfig(OrderPrefix))
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		order.OrderNumber = number

		return s.repo.Create(ctx, order)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"lines", len(order.Lines),
	)
	return nil
}

// Get retrieves an order with lines, scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, tenantID, orderID)
}

// List retrieves orders for a tenant.
func (s *Service) List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Order, error) {
	return s.repo.List(ctx, tenantID, f)
}

// SetStatus moves the order through the state machine. Completing an order
// receives every line into stock atomically with the status change;
// receiving is an increase, so it never emits low/out-of-stock alerts —
// an item still below its minimum after the receipt stays low-stock
// silently.
func (s *Service) SetStatus(ctx context.Context, tenantID tenant.ID, orderID id.ID, to Status) (*Order, error) {
	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		if err := order.Transition(to); err != nil {
			return err
		}

		if to == StatusCompleted {
			mutations := make([]ledger.Mutation, 0, len(order.Lines))
			for _, line := range order.Lines {
				mutations = append(mutations, ledger.Mutation{
					TenantID:      tenantID,
					ItemID:        line.ItemID,
					Kind:          ledger.KindPurchaseReceipt,
					QuantityDelta: line.Quantity,
					ReferenceID:   order.ID,
				})
			}
			if _, err := s.coordinator.ApplyBatch(ctx, mutations); err != nil {
				return err
			}
		}

		return s.repo.UpdateHeader(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order status changed",
		"order_id", orderID,
		"status", to,
	)
	return order, nil
}
