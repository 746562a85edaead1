package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/inventory"
	"stockledger/pkg/logger"
)

// AlertEmitter persists a stock notification. Emission happens inside the
// mutation's transaction: the alert is part of the atomic unit, so an
// emitter failure rolls the whole mutation back rather than leaving an
// unannounced threshold crossing.
type AlertEmitter interface {
	Emit(ctx context.Context, item *inventory.Item, severity inventory.AlertSeverity) error
}

// CustomerDelta is the balance adjustment applied in lock-step with a
// ledger mutation when a customer is linked.
type CustomerDelta struct {
	// SpentDelta adjusts totalSpent (negative for returns).
	SpentDelta types.Money
	// BalanceDelta adjusts currentBalance; the applier clamps the result
	// at zero.
	BalanceDelta types.Money
	// SaleAt updates lastSaleDate when set.
	SaleAt *time.Time
}

// BalanceApplier mutates a customer's running totals inside the caller's
// transaction.
type BalanceApplier interface {
	ApplyDelta(ctx context.Context, tenantID tenant.ID, customerID id.ID, d CustomerDelta) error
}

// Auditor records who changed what, inside the same transaction.
type Auditor interface {
	LogChange(ctx context.Context, tenantID tenant.ID, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Mutation is one quantity-changing request against a single item.
type Mutation struct {
	TenantID tenant.ID
	ItemID   id.ID
	Kind     Kind

	// QuantityDelta is signed: positive restocks, negative consumes.
	QuantityDelta int64

	// Reason tags adjustments and internal use.
	Reason string

	// ReferenceID links the entry to its originating document.
	ReferenceID id.ID

	// CustomerID plus Customer apply a balance adjustment atomically with
	// the stock mutation. Both empty for unlinked operations.
	CustomerID id.ID
	Customer   *CustomerDelta
}

// Result reports what one mutation did.
type Result struct {
	Entry      *Entry
	Item       *inventory.Item
	Transition inventory.Transition
	Alerted    bool
}

// Coordinator wraps a ledger mutation, the inventory update, alert emission
// and the dependent customer balance update in one atomic unit. Any failure
// in any step aborts the transaction; no partial state is ever observable.
type Coordinator struct {
	txManager tx.Manager
	items     inventory.Repository
	entries   Repository
	alerts    AlertEmitter
	balances  BalanceApplier
	auditor   Auditor
}

// NewCoordinator creates a transaction coordinator.
// auditor may be nil (tests); alerts and balances are required.
func NewCoordinator(
	txManager tx.Manager,
	items inventory.Repository,
	entries Repository,
	alerts AlertEmitter,
	balances BalanceApplier,
	auditor Auditor,
) *Coordinator {
	return &Coordinator{
		txManager: txManager,
		items:     items,
		entries:   entries,
		alerts:    alerts,
		balances:  balances,
		auditor:   auditor,
	}
}

// Apply executes one mutation atomically. When called inside an existing
// transaction (a return folded into a sale update) the ambient transaction
// is reused, so the document and its mutation commit or abort as one.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) (*Result, error) {
	if err := validateDelta(m.QuantityDelta); err != nil {
		return nil, err
	}

	var res *Result
	err := c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.applyLocked(ctx, m)
		if err != nil {
			return err
		}
		if err := c.entries.Create(ctx, res.Entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ledger mutation applied",
		"kind", m.Kind,
		"item_id", m.ItemID,
		"delta", m.QuantityDelta,
		"status", res.Item.Status(),
		"alerted", res.Alerted,
	)
	return res, nil
}

// ApplyBatch executes a document's mutations as one atomic unit. Items are
// locked and mutated one by one, then all ledger entries are appended in a
// single batch write, which takes the COPY fast path on multi-line
// documents. Any failing mutation aborts the whole batch.
func (c *Coordinator) ApplyBatch(ctx context.Context, ms []Mutation) ([]*Result, error) {
	for _, m := range ms {
		if err := validateDelta(m.QuantityDelta); err != nil {
			return nil, err
		}
	}

	var results []*Result
	err := c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		results = results[:0]
		entries := make([]*Entry, 0, len(ms))
		for _, m := range ms {
			res, err := c.applyLocked(ctx, m)
			if err != nil {
				return err
			}
			results = append(results, res)
			entries = append(entries, res.Entry)
		}
		if err := c.entries.CreateBatch(ctx, entries); err != nil {
			return fmt.Errorf("create ledger entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ledger batch applied", "mutations", len(results))
	return results, nil
}

// applyLocked runs the coordinator steps short of persisting the entry,
// which the caller appends singly or batched. Must be called inside a
// transaction.
func (c *Coordinator) applyLocked(ctx context.Context, m Mutation) (*Result, error) {
	// Row lock serializes concurrent mutations of the same item; combined
	// with repeatable-read isolation this rules out lost updates on quantity.
	item, err := c.items.GetForUpdate(ctx, m.TenantID, m.ItemID)
	if err != nil {
		return nil, err
	}

	if m.QuantityDelta < 0 {
		requested := -m.QuantityDelta
		if item.Quantity < requested {
			return nil, apperror.NewInsufficientStock(item.ID.String(), item.Quantity, requested)
		}
	}

	// Snapshot fields are captured before the mutation so the entry
	// reflects the item as it was at operation time.
	entry := newEntry(item, m.Kind, m.QuantityDelta, m.Reason, m.ReferenceID, appctx.GetUserID(ctx))

	oldStatus := item.Status()
	oldQuantity := item.Quantity
	item.ApplyQuantityDelta(m.QuantityDelta)
	transition := inventory.Transition{From: oldStatus, To: item.Status()}

	if err := c.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	alerted := false
	if severity, ok := transition.ShouldAlert(m.QuantityDelta); ok {
		if err := c.alerts.Emit(ctx, item, severity); err != nil {
			return nil, fmt.Errorf("emit alert: %w", err)
		}
		alerted = true
	}

	if !id.IsNil(m.CustomerID) && m.Customer != nil {
		if err := c.balances.ApplyDelta(ctx, m.TenantID, m.CustomerID, *m.Customer); err != nil {
			return nil, fmt.Errorf("apply customer delta: %w", err)
		}
	}

	if c.auditor != nil {
		changes := map[string]any{
			"kind":            string(m.Kind),
			"quantity_delta":  m.QuantityDelta,
			"quantity_before": oldQuantity,
			"quantity_after":  item.Quantity,
			"status_before":   string(oldStatus),
			"status_after":    string(item.Status()),
		}
		if err := c.auditor.LogChange(ctx, m.TenantID, "InventoryItem", item.ID, "mutate", changes); err != nil {
			return nil, fmt.Errorf("audit mutation: %w", err)
		}
	}

	return &Result{
		Entry:      entry,
		Item:       item,
		Transition: transition,
		Alerted:    alerted,
	}, nil
}

// Reverse deletes a reversible ledger entry and undoes its quantity delta
// on the item, atomically. Status is recomputed; restocking reversals never
// alert, and a reversal that re-consumes stock is validated and alerted
// like any other decrement.
func (c *Coordinator) Reverse(ctx context.Context, tenantID tenant.ID, entryID id.ID) error {
	return c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := c.entries.GetByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}

		if !entry.Reversible() {
			return apperror.NewInvalidState("LedgerEntry", string(entry.Kind), "deleted")
		}

		item, err := c.items.GetForUpdate(ctx, tenantID, entry.ItemID)
		if err != nil {
			return err
		}

		reversal := -entry.Quantity
		if reversal < 0 && item.Quantity < -reversal {
			return apperror.NewInsufficientStock(item.ID.String(), item.Quantity, -reversal)
		}

		oldQuantity := item.Quantity
		oldStatus := item.Status()
		item.ApplyQuantityDelta(reversal)
		transition := inventory.Transition{From: oldStatus, To: item.Status()}

		if err := c.items.Update(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if err := c.entries.Delete(ctx, tenantID, entryID); err != nil {
			return fmt.Errorf("delete ledger entry: %w", err)
		}

		if severity, ok := transition.ShouldAlert(reversal); ok {
			if err := c.alerts.Emit(ctx, item, severity); err != nil {
				return fmt.Errorf("emit alert: %w", err)
			}
		}

		if c.auditor != nil {
			changes := map[string]any{
				"kind":            string(entry.Kind),
				"quantity_delta":  reversal,
				"quantity_before": oldQuantity,
				"quantity_after":  item.Quantity,
			}
			if err := c.auditor.LogChange(ctx, tenantID, "LedgerEntry", entryID, "reverse", changes); err != nil {
				return fmt.Errorf("audit reversal: %w", err)
			}
		}

		logger.Info(ctx, "ledger entry reversed",
			"entry_id", entryID,
			"item_id", item.ID,
			"delta", reversal,
		)
		return nil
	})
}
