// Package sales provides the sale aggregate: creation, payments, returns
// and deletion, each kept consistent with the stock ledger and customer
// balances.
package sales

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
)

// PaymentStatus is derived from amountPaid vs totalAmount, never stored
// authoritatively by callers.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPending PaymentStatus = "pending"
)

// Sale is the aggregate of ledger-producing sale lines.
type Sale struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	// ReceiptNumber is the unique display id (S-00001), allocated from the
	// per-tenant counter at creation.
	ReceiptNumber string `db:"receipt_number" json:"receiptNumber"`

	// CustomerID links the sale to a customer whose balance moves in
	// lock-step. Nil for walk-in sales.
	CustomerID id.ID `db:"customer_id" json:"customerId,omitempty"`

	Tax      types.Money `db:"tax" json:"tax"`
	Discount types.Money `db:"discount" json:"discount"`

	// TotalAmount = sum(lines) + tax - discount. Recomputed by the
	// service, never trusted from input.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	AmountPaid    types.Money   `db:"amount_paid" json:"amountPaid"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	Items []Line `db:"-" json:"items"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Line is one sold item. Price and cost are snapshots copied from the
// inventory item at sale time so later catalog edits do not rewrite
// history.
type Line struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	ItemName string `db:"item_name" json:"itemName"`
	ItemSKU  string `db:"item_sku" json:"itemSku"`

	Quantity  int64       `db:"quantity" json:"quantity"`
	Price     types.Money `db:"price" json:"price"`
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// PackagingDeposit is the optional refundable deposit charged with
	// the line.
	PackagingDeposit types.Money `db:"packaging_deposit" json:"packagingDeposit,omitempty"`

	// ReturnedQuantity accumulates across partial returns. Each return is
	// validated against Quantity - ReturnedQuantity, so repeated partial
	// returns can never exceed what was sold.
	ReturnedQuantity int64 `db:"returned_quantity" json:"returnedQuantity"`
}

// LineValue is the sale value of the line (price × quantity + deposit).
func (l *Line) LineValue() types.Money {
	return l.Price.Mul(types.NewMoneyFromInt(l.Quantity)).Add(l.PackagingDeposit)
}

// ReturnableQuantity is what is still eligible for return.
func (l *Line) ReturnableQuantity() int64 {
	return l.Quantity - l.ReturnedQuantity
}

// RecalculateTotals recomputes totalAmount and the payment status.
func (s *Sale) RecalculateTotals() {
	total := types.ZeroMoney()
	for i := range s.Items {
		total = total.Add(s.Items[i].LineValue())
	}
	s.TotalAmount = total.Add(s.Tax).Sub(s.Discount)
	s.RefreshPaymentStatus()
}

// RefreshPaymentStatus re-derives paymentStatus from the amounts.
func (s *Sale) RefreshPaymentStatus() {
	switch {
	case s.AmountPaid.GreaterThanOrEqual(s.TotalAmount):
		s.PaymentStatus = PaymentPaid
	case s.AmountPaid.IsPositive():
		s.PaymentStatus = PaymentPartial
	default:
		s.PaymentStatus = PaymentPending
	}
	s.UpdatedAt = time.Now().UTC()
}

// Outstanding is the unpaid remainder, floored at zero.
func (s *Sale) Outstanding() types.Money {
	return types.ClampNonNegative(s.TotalAmount.Sub(s.AmountPaid))
}

// Validate checks aggregate invariants before persistence.
func (s *Sale) Validate(ctx context.Context) error {
	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "items")
	}
	for i, line := range s.Items {
		if line.Quantity <= 0 {
			return apperror.NewInvalidQuantity(line.Quantity).WithDetail("lineNo", i+1)
		}
		if line.Price.IsNegative() {
			return apperror.NewValidation("price cannot be negative").WithDetail("lineNo", i+1)
		}
	}
	if s.Tax.IsNegative() || s.Discount.IsNegative() {
		return apperror.NewValidation("tax and discount cannot be negative")
	}
	if s.TotalAmount.IsNegative() {
		return apperror.NewValidation("discount cannot exceed line total plus tax").
			WithDetail("field", "discount")
	}
	if s.AmountPaid.IsNegative() {
		return apperror.NewValidation("amount paid cannot be negative")
	}
	return nil
}
