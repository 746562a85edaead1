// Package purchase provides purchase orders and their state machine.
package purchase

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
)

// Status is the purchase order state. Pending → Ordered → Shipped →
// Completed, with Cancelled reachable from any non-terminal state.
// Completed and Cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOrdered   Status = "ordered"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed moves. Terminal states have no entries.
var transitions = map[Status][]Status{
	StatusPending: {StatusOrdered, StatusCancelled},
	StatusOrdered: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Order is a purchase order. Only the Completed transition has a side
// effect: each line's quantity is received into its inventory item.
type Order struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	// OrderNumber is the unique display id (PO-00001).
	OrderNumber string `db:"order_number" json:"orderNumber"`

	Supplier string `db:"supplier" json:"supplier,omitempty"`
	Status   Status `db:"status" json:"status"`

	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`

	// ReceivedDate is stamped when the order completes.
	ReceivedDate *time.Time `db:"received_date" json:"receivedDate,omitempty"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Lines []OrderLine `db:"-" json:"lines"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OrderLine is one ordered item.
type OrderLine struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	ItemID  id.ID `db:"item_id" json:"itemId"`

	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// Transition moves the order to the requested status, rejecting illegal
// moves. Side effects (stock receipt on completion) are the service's job.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return apperror.NewInvalidState("PurchaseOrder", string(o.Status), string(to))
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if to == StatusCompleted {
		now := time.Now().UTC()
		o.ReceivedDate = &now
	}
	return nil
}

// RecalculateTotal recomputes totalAmount from the lines.
func (o *Order) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range o.Lines {
		total = total.Add(line.UnitPrice.Mul(types.NewMoneyFromInt(line.Quantity)))
	}
	o.TotalAmount = total
}

// Validate checks order invariants.
func (o *Order) Validate(ctx context.Context) error {
	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}
	for i, line := range o.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("item is required").WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewInvalidQuantity(line.Quantity).WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").WithDetail("lineNo", i+1)
		}
	}
	return nil
}
