package ledger

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Repository defines storage operations for ledger entries.
// Entries are append-only; Delete exists solely for the reversible kinds
// and is always paired with a compensating item mutation in the same
// transaction.
type Repository interface {
	// Create appends one entry. Must run inside the mutation's transaction.
	Create(ctx context.Context, entry *Entry) error

	// CreateBatch appends entries for a multi-line document in one shot.
	CreateBatch(ctx context.Context, entries []*Entry) error

	// GetByID retrieves an entry scoped to the tenant.
	GetByID(ctx context.Context, tenantID tenant.ID, entryID id.ID) (*Entry, error)

	// Delete removes a reversible entry. The caller reverses the quantity
	// delta in the same transaction.
	Delete(ctx context.Context, tenantID tenant.ID, entryID id.ID) error

	// ListByItem returns movement history for an item, newest first.
	ListByItem(ctx context.Context, tenantID tenant.ID, itemID id.ID, f HistoryFilter) ([]*Entry, error)

	// ListByReference returns all entries created by one document.
	ListByReference(ctx context.Context, tenantID tenant.ID, refID id.ID) ([]*Entry, error)
}

// HistoryFilter narrows and pages movement history.
type HistoryFilter struct {
	Kind     *Kind
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
