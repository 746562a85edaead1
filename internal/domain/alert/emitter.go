// Package alert provides stock threshold notifications.
package alert

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/inventory"
)

// Kind is the notification kind consumed by the notifications feed.
type Kind string

const (
	KindLowStock   Kind = "low_stock"
	KindOutOfStock Kind = "out_of_stock"
)

// Notification is one alert record. The feed that renders these is a
// separate component; this package only guarantees the record exists iff
// the mutation that produced it committed.
type Notification struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	Kind     Kind   `db:"kind" json:"kind"`
	Title    string `db:"title" json:"title"`
	Message  string `db:"message" json:"message"`
	Priority string `db:"priority" json:"priority"`
	Link     string `db:"link" json:"link"`

	RelatedItemID id.ID `db:"related_item_id" json:"relatedItemId"`

	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListUnread(ctx context.Context, tenantID tenant.ID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, tenantID tenant.ID, notificationID id.ID) error
}

// Emitter creates stock notifications from status transitions. It runs
// inside the mutation's transaction, so a persistence failure here aborts
// the whole mutation instead of committing stock changes without their alert.
type Emitter struct {
	repo Repository
}

// NewEmitter creates an alert emitter.
func NewEmitter(repo Repository) *Emitter {
	return &Emitter{repo: repo}
}

// Emit persists exactly one notification for the item's final status.
func (e *Emitter) Emit(ctx context.Context, item *inventory.Item, severity inventory.AlertSeverity) error {
	n := &Notification{
		ID:            id.New(),
		TenantID:      item.TenantID,
		RelatedItemID: item.ID,
		Priority:      string(severity),
		Link:          fmt.Sprintf("/inventory/%s", item.ID),
		CreatedAt:     time.Now().UTC(),
	}

	switch severity {
	case inventory.SeverityCritical:
		n.Kind = KindOutOfStock
		n.Title = "Out of stock"
		n.Message = fmt.Sprintf("%s (%s) is out of stock", item.Name, item.SKU)
	default:
		n.Kind = KindLowStock
		n.Title = "Low stock"
		n.Message = fmt.Sprintf("%s (%s) is low on stock: %d left (minimum %d)",
			item.Name, item.SKU, item.Quantity, item.MinStockLevel)
	}

	return e.repo.Create(ctx, n)
}
