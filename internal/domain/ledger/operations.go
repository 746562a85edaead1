package ledger

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Convenience wrappers for the single-item operations. These are what the
// inventory service calls; the sales and purchase flows build Mutations
// directly because they carry document references and customer deltas.

// ApplyInternalUse consumes stock for internal purposes.
func (c *Coordinator) ApplyInternalUse(ctx context.Context, tenantID tenant.ID, itemID id.ID, quantity int64, reason string) error {
	if quantity <= 0 {
		return apperror.NewInvalidQuantity(quantity)
	}
	_, err := c.Apply(ctx, Mutation{
		TenantID:      tenantID,
		ItemID:        itemID,
		Kind:          KindInternalUse,
		QuantityDelta: -quantity,
		Reason:        reason,
	})
	return err
}

// ApplyAdjustment applies a signed stock adjustment with a reason tag.
func (c *Coordinator) ApplyAdjustment(ctx context.Context, tenantID tenant.ID, itemID id.ID, delta int64, reason string) error {
	if !ValidAdjustmentReason(AdjustmentReason(reason)) {
		return apperror.NewValidation("unknown adjustment reason").WithDetail("reason", reason)
	}
	_, err := c.Apply(ctx, Mutation{
		TenantID:      tenantID,
		ItemID:        itemID,
		Kind:          KindAdjustment,
		QuantityDelta: delta,
		Reason:        reason,
	})
	return err
}

// ReverseEntry deletes a reversible entry, undoing its quantity delta.
func (c *Coordinator) ReverseEntry(ctx context.Context, tenantID tenant.ID, entryID id.ID) error {
	return c.Reverse(ctx, tenantID, entryID)
}
