package sales

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Repository defines storage operations for sales, tenant-scoped.
type Repository interface {
	// Create inserts the sale header and its lines.
	Create(ctx context.Context, sale *Sale) error

	// GetByID retrieves a sale with lines.
	GetByID(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*Sale, error)

	// GetForUpdate retrieves a sale with lines under a header row lock.
	GetForUpdate(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*Sale, error)

	// UpdateHeader persists totals, payment fields and the derived status.
	UpdateHeader(ctx context.Context, sale *Sale) error

	// UpdateLineReturned persists a line's accumulated returned quantity.
	UpdateLineReturned(ctx context.Context, tenantID tenant.ID, lineID id.ID, returnedQuantity int64) error

	// Delete removes the sale and its lines.
	Delete(ctx context.Context, tenantID tenant.ID, saleID id.ID) error

	// List retrieves sales for a tenant, newest first.
	List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Sale, error)
}

// ListFilter narrows and pages sale listings.
type ListFilter struct {
	CustomerID    *id.ID
	PaymentStatus *PaymentStatus
	FromDate      *time.Time
	ToDate        *time.Time
	Limit         int
	Offset        int
}
