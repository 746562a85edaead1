package inventory

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Repository defines storage operations for inventory items.
// Every lookup predicate includes the tenant id: scoping is enforced by
// query filter, and a wrong-tenant id behaves exactly like a missing row.
type Repository interface {
	// Create inserts a new item. SKU uniqueness is per tenant.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item scoped to the tenant.
	GetByID(ctx context.Context, tenantID tenant.ID, itemID id.ID) (*Item, error)

	// GetForUpdate retrieves an item with a row lock. Called inside a
	// transaction before any quantity mutation so concurrent mutations of
	// the same item serialize instead of interleaving.
	GetForUpdate(ctx context.Context, tenantID tenant.ID, itemID id.ID) (*Item, error)

	// Update persists a mutated item with optimistic version check.
	Update(ctx context.Context, item *Item) error

	// GetBySKU retrieves an item by SKU (unique per tenant).
	GetBySKU(ctx context.Context, tenantID tenant.ID, sku string) (*Item, error)

	// List retrieves items for a tenant with filtering and pagination.
	List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Item, error)
}

// ListFilter narrows and pages item listings.
type ListFilter struct {
	StockLevel *StockLevel
	Override   *Override
	Search     string // matches name or SKU
	Limit      int
	Offset     int
}
