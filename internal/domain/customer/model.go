// Package customer provides the customer aggregate and the balance updater
// mutated in lock-step with sale lifecycle events.
package customer

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
)

// Customer carries the running totals the sales flow maintains.
type Customer struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email,omitempty"`
	Phone string `db:"phone" json:"phone,omitempty"`

	// TotalSpent accumulates sale totals, reduced by returns.
	TotalSpent types.Money `db:"total_spent" json:"totalSpent"`

	// CurrentBalance is the outstanding receivable. Never negative: every
	// adjustment clamps at zero, absorbing over-payments rather than
	// recording a credit.
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`

	LastSaleDate *time.Time `db:"last_sale_date" json:"lastSaleDate,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks basic invariants.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if c.TotalSpent.IsNegative() || c.CurrentBalance.IsNegative() {
		return apperror.NewValidation("customer totals cannot be negative")
	}
	return nil
}

// applyDelta folds a spend/balance adjustment into the totals.
func (c *Customer) applyDelta(spentDelta, balanceDelta types.Money, saleAt *time.Time) {
	c.TotalSpent = types.ClampNonNegative(c.TotalSpent.Add(spentDelta))
	c.CurrentBalance = types.ClampNonNegative(c.CurrentBalance.Add(balanceDelta))
	if saleAt != nil {
		c.LastSaleDate = saleAt
	}
	c.UpdatedAt = time.Now().UTC()
}
