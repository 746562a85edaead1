// Package inventory provides the inventory item aggregate and the stock
// status derivation rules.
package inventory

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
)

// StockLevel is the computed stock state, derived from quantity and the
// minimum stock threshold. It is never set directly by callers.
type StockLevel string

const (
	LevelInStock    StockLevel = "in-stock"
	LevelLowStock   StockLevel = "low-stock"
	LevelOutOfStock StockLevel = "out-of-stock"
)

// Override is an externally controlled status that masks the computed
// stock level until explicitly cleared. Stock mutations never touch it.
type Override string

const (
	OverrideNone         Override = ""
	OverrideOnOrder      Override = "on-order"
	OverrideDiscontinued Override = "discontinued"
)

// Status is the user-visible status: the override when present, the
// computed stock level otherwise. The historical schema stored all five
// values in one enum; they are kept as two orthogonal fields here because
// on-order and discontinued are externally controlled while the rest are
// computed.
type Status string

// Item is the mutable inventory aggregate. Quantity is mutated exclusively
// through ledger-producing operations; the ledger entry and the item update
// always commit or abort together.
type Item struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`

	Quantity      int64       `db:"quantity" json:"quantity"`
	Price         types.Money `db:"price" json:"price"`
	CostPrice     types.Money `db:"cost_price" json:"costPrice"`
	MinStockLevel int64       `db:"min_stock_level" json:"minStockLevel"`
	MaxStockLevel int64       `db:"max_stock_level" json:"maxStockLevel"`

	StockLevel StockLevel `db:"stock_level" json:"stockLevel"`
	Override   Override   `db:"status_override" json:"statusOverride,omitempty"`

	// TotalValue = quantity × price, recomputed on every mutation.
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Status returns the user-visible status.
func (i *Item) Status() Status {
	if i.Override != OverrideNone {
		return Status(i.Override)
	}
	return Status(i.StockLevel)
}

// ApplyQuantityDelta mutates the quantity and recomputes the derived
// fields. The caller has already validated availability; a negative result
// here is a programming error, not a business rule check.
func (i *Item) ApplyQuantityDelta(delta int64) {
	i.Quantity += delta
	i.StockLevel = DeriveLevel(i.Quantity, i.MinStockLevel)
	i.TotalValue = i.Price.Mul(types.NewMoneyFromInt(i.Quantity))
	i.UpdatedAt = time.Now().UTC()
}

// SetOverride applies a sticky status. Stock mutations will keep updating
// the computed level underneath, but the override wins in Status() until
// cleared.
func (i *Item) SetOverride(o Override) error {
	switch o {
	case OverrideOnOrder, OverrideDiscontinued:
		i.Override = o
		i.UpdatedAt = time.Now().UTC()
		return nil
	default:
		return apperror.NewValidation("unknown status override").WithDetail("override", string(o))
	}
}

// ClearOverride drops the sticky status; the computed level shows again.
func (i *Item) ClearOverride() {
	i.Override = OverrideNone
	i.StockLevel = DeriveLevel(i.Quantity, i.MinStockLevel)
	i.UpdatedAt = time.Now().UTC()
}

// Validate implements basic invariants.
func (i *Item) Validate(ctx context.Context) error {
	if i.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if i.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if i.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if i.MinStockLevel < 0 || i.MaxStockLevel < 0 {
		return apperror.NewValidation("stock thresholds cannot be negative")
	}
	return nil
}
