// Package ledger provides the append-only stock ledger and the transaction
// coordinator that keeps ledger entries, inventory state, alerts and
// customer balances mutually consistent.
package ledger

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/inventory"
)

// Kind tags the concrete variant of a ledger entry.
type Kind string

const (
	KindSale            Kind = "sale"
	KindReturn          Kind = "return"
	KindInternalUse     Kind = "internal_use"
	KindAdjustment      Kind = "adjustment"
	KindPurchaseReceipt Kind = "purchase_receipt"
)

// AdjustmentReason classifies stock adjustments.
type AdjustmentReason string

const (
	ReasonDamaged   AdjustmentReason = "damaged"
	ReasonExpired   AdjustmentReason = "expired"
	ReasonLost      AdjustmentReason = "lost"
	ReasonShrinkage AdjustmentReason = "shrinkage"
	ReasonOther     AdjustmentReason = "other"
)

// ValidAdjustmentReason reports whether r is a known reason tag.
func ValidAdjustmentReason(r AdjustmentReason) bool {
	switch r {
	case ReasonDamaged, ReasonExpired, ReasonLost, ReasonShrinkage, ReasonOther:
		return true
	}
	return false
}

// Entry is one immutable record of a quantity-changing event. The item
// name, SKU, unit and prices are snapshots taken at write time: if the
// catalog item is later renamed or deleted, history still reads correctly.
// Entries are never updated; internal-use and adjustment entries may be
// deleted, which reverses their quantity delta on the item.
type Entry struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`
	ItemID   id.ID     `db:"item_id" json:"itemId"`

	Kind Kind `db:"kind" json:"kind"`

	// Quantity is the signed stock delta: receipts and returns are
	// positive, sales, internal use and outgoing adjustments negative.
	Quantity int64 `db:"quantity" json:"quantity"`

	// Snapshot fields, copied from the item before the mutation.
	ItemName  string      `db:"item_name" json:"itemName"`
	ItemSKU   string      `db:"item_sku" json:"itemSku"`
	Unit      string      `db:"unit" json:"unit"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`

	// TotalValueImpact = quantity × unit price (unit cost for internal use
	// and adjustments, where no sale price applies).
	TotalValueImpact types.Money `db:"total_value_impact" json:"totalValueImpact"`

	// Reason is the adjustment reason tag, or free text for internal use.
	Reason string `db:"reason" json:"reason,omitempty"`

	// ReferenceID links the entry to its originating document (sale,
	// purchase order) when one exists.
	ReferenceID id.ID `db:"reference_id" json:"referenceId,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// newEntry builds an entry from the pre-mutation item snapshot.
func newEntry(item *inventory.Item, kind Kind, quantityDelta int64, reason string, refID id.ID, createdBy string) *Entry {
	unitValue := item.Price
	if kind == KindInternalUse || kind == KindAdjustment {
		unitValue = item.CostPrice
	}

	return &Entry{
		ID:               id.New(),
		TenantID:         item.TenantID,
		ItemID:           item.ID,
		Kind:             kind,
		Quantity:         quantityDelta,
		ItemName:         item.Name,
		ItemSKU:          item.SKU,
		Unit:             item.Unit,
		UnitPrice:        item.Price,
		UnitCost:         item.CostPrice,
		TotalValueImpact: unitValue.Mul(types.NewMoneyFromInt(quantityDelta)),
		Reason:           reason,
		ReferenceID:      refID,
		CreatedBy:        createdBy,
		CreatedAt:        time.Now().UTC(),
	}
}

// Reversible reports whether deleting this entry is supported. Only
// internal-use records and adjustments can be deleted; sale and return
// history is reversed through the sale aggregate instead.
func (e *Entry) Reversible() bool {
	return e.Kind == KindInternalUse || e.Kind == KindAdjustment
}

// validateDelta rejects zero deltas up front; direction checks live with
// the operations themselves.
func validateDelta(delta int64) error {
	if delta == 0 {
		return apperror.NewInvalidQuantity(0)
	}
	return nil
}
