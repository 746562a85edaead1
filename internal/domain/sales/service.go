package sales

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
	"stockledger/pkg/numerator"
)

// Coordinator is the slice of the ledger coordinator the sales flow uses.
// Multi-line documents go through ApplyBatch so all entries land in one
// batch write.
type Coordinator interface {
	Apply(ctx context.Context, m ledger.Mutation) (*ledger.Result, error)
	ApplyBatch(ctx context.Context, ms []ledger.Mutation) ([]*ledger.Result, error)
}

// Numerator allocates receipt numbers.
type Numerator interface {
	Next(ctx context.Context, tenantID tenant.ID, cfg numerator.Config) (string, error)
}

// ReceiptPrefix is the display prefix for sale receipt numbers.
const ReceiptPrefix = "S"

// CreateInput is the inbound shape for a new sale.
type CreateInput struct {
	CustomerID id.ID // optional
	Items      []CreateLineInput
	Tax        types.Money
	Discount   types.Money
	AmountPaid types.Money
}

// CreateLineInput is one requested line. Price and cost come from the
// inventory item at sale time; callers only say what and how much.
type CreateLineInput struct {
	ItemID           id.ID
	Quantity         int64
	PackagingDeposit types.Money
}

// Service provides sale lifecycle operations. Every operation that moves
// stock or money runs as one transaction: the ledger mutations, the sale
// document and the customer balance commit or abort together.
type Service struct {
	repo        Repository
	coordinator Coordinator
	balances    ledger.BalanceApplier
	numerator   Numerator
	txManager   tx.Manager
}

// NewService creates a sales service.
func NewService(
	repo Repository,
	coordinator Coordinator,
	balances ledger.BalanceApplier,
	num Numerator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		coordinator: coordinator,
		balances:    balances,
		numerator:   num,
		txManager:   txManager,
	}
}

// Create records a sale: decrements stock per line (rejecting the whole
// sale if any line lacks stock), snapshots prices, allocates the receipt
// number and applies the customer's balance delta, all in one transaction.
func (s *Service) Create(ctx context.Context, tenantID tenant.ID, in CreateInput) (*Sale, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("at least one line is required").WithDetail("field", "items")
	}

	now := time.Now().UTC()
	sale := &Sale{
		ID:         id.New(),
		TenantID:   tenantID,
		CustomerID: in.CustomerID,
		Tax:        in.Tax,
		Discount:   in.Discount,
		AmountPaid: in.AmountPaid,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.Next(ctx, tenantID, numerator.DefaultConfig(ReceiptPrefix))
		if err != nil {
			return fmt.Errorf("generate receipt number: %w", err)
		}
		sale.ReceiptNumber = number

		mutations := make([]ledger.Mutation, 0, len(in.Items))
		for i, lineIn := range in.Items {
			if lineIn.Quantity <= 0 {
				return apperror.NewInvalidQuantity(lineIn.Quantity).WithDetail("lineNo", i+1)
			}
			mutations = append(mutations, ledger.Mutation{
				TenantID:      tenantID,
				ItemID:        lineIn.ItemID,
				Kind:          ledger.KindSale,
				QuantityDelta: -lineIn.Quantity,
				ReferenceID:   sale.ID,
			})
		}

		results, err := s.coordinator.ApplyBatch(ctx, mutations)
		if err != nil {
			return err
		}

		for i, lineIn := range in.Items {
			// Snapshots come from the ledger entry, i.e. the item state
			// before this sale touched it.
			sale.Items = append(sale.Items, Line{
				ID:               id.New(),
				SaleID:           sale.ID,
				ItemID:           lineIn.ItemID,
				ItemName:         results[i].Entry.ItemName,
				ItemSKU:          results[i].Entry.ItemSKU,
				Quantity:         lineIn.Quantity,
				Price:            results[i].Entry.UnitPrice,
				CostPrice:        results[i].Entry.UnitCost,
				PackagingDeposit: lineIn.PackagingDeposit,
			})
		}

		sale.RecalculateTotals()
		if err := sale.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		if !id.IsNil(sale.CustomerID) {
			saleAt := sale.CreatedAt
			return s.balances.ApplyDelta(ctx, tenantID, sale.CustomerID, ledger.CustomerDelta{
				SpentDelta:   sale.TotalAmount,
				BalanceDelta: sale.Outstanding(),
				SaleAt:       &saleAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"sale_id", sale.ID,
		"receipt_number", sale.ReceiptNumber,
		"total", sale.TotalAmount,
		"lines", len(sale.Items),
	)
	return sale, nil
}

// Get retrieves a sale with lines, scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, tenantID, saleID)
}

// List retrieves sales for a tenant.
func (s *Service) List(ctx context.Context, tenantID tenant.ID, f ListFilter) ([]*Sale, error) {
	return s.repo.List(ctx, tenantID, f)
}

// RecordPayment increments amountPaid and reduces the customer's
// outstanding balance by the same amount (clamped at zero).
func (s *Service) RecordPayment(ctx context.Context, tenantID tenant.ID, saleID id.ID, amount types.Money) (*Sale, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").WithDetail("amount", amount)
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		sale.AmountPaid = sale.AmountPaid.Add(amount)
		sale.RefreshPaymentStatus()

		if err := s.repo.UpdateHeader(ctx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		if !id.IsNil(sale.CustomerID) {
			return s.balances.ApplyDelta(ctx, tenantID, sale.CustomerID, ledger.CustomerDelta{
				BalanceDelta: amount.Neg(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"sale_id", saleID,
		"amount", amount,
		"payment_status", sale.PaymentStatus,
	)
	return sale, nil
}

// ProcessReturn re-adds quantity for one line, validated against what is
// still returnable (cumulative across partial returns), reduces the sale's
// totals and reverses the customer's share — one atomic unit. Restocking
// never emits alerts.
func (s *Service) ProcessReturn(ctx context.Context, tenantID tenant.ID, saleID, lineID id.ID, quantity int64) (*Sale, error) {
	if quantity <= 0 {
		return nil, apperror.NewInvalidQuantity(quantity)
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		line := sale.findLine(lineID)
		if line == nil {
			return apperror.NewNotFound("sale line", lineID.String())
		}
		if quantity > line.ReturnableQuantity() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"return exceeds remaining sold quantity").
				WithDetail("requested", quantity).
				WithDetail("returnable", line.ReturnableQuantity())
		}

		returnValue := line.Price.Mul(types.NewMoneyFromInt(quantity))

		outstandingBefore := sale.Outstanding()
		sale.TotalAmount = types.ClampNonNegative(sale.TotalAmount.Sub(returnValue))
		sale.AmountPaid = types.ClampNonNegative(sale.AmountPaid.Sub(returnValue))
		sale.RefreshPaymentStatus()

		var customerDelta *ledger.CustomerDelta
		if !id.IsNil(sale.CustomerID) {
			customerDelta = &ledger.CustomerDelta{
				SpentDelta:   returnValue.Neg(),
				BalanceDelta: sale.Outstanding().Sub(outstandingBefore),
			}
		}

		if _, err := s.coordinator.Apply(ctx, ledger.Mutation{
			TenantID:      tenantID,
			ItemID:        line.ItemID,
			Kind:          ledger.KindReturn,
			QuantityDelta: quantity,
			ReferenceID:   sale.ID,
			CustomerID:    sale.CustomerID,
			Customer:      customerDelta,
		}); err != nil {
			return err
		}

		line.ReturnedQuantity += quantity
		if err := s.repo.UpdateLineReturned(ctx, tenantID, line.ID, line.ReturnedQuantity); err != nil {
			return fmt.Errorf("update line: %w", err)
		}
		if err := s.repo.UpdateHeader(ctx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return processed",
		"sale_id", saleID,
		"line_id", lineID,
		"quantity", quantity,
	)
	return sale, nil
}

// Delete fully undoes a sale: every line's remaining quantity is restocked
// through reversal ledger entries (history stays append-only), the
// customer's totals are reduced by what is left of the sale, and the sale
// document is removed — all atomically.
func (s *Service) Delete(ctx context.Context, tenantID tenant.ID, saleID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		var mutations []ledger.Mutation
		for i := range sale.Items {
			line := &sale.Items[i]
			remaining := line.ReturnableQuantity()
			if remaining <= 0 {
				continue
			}
			mutations = append(mutations, ledger.Mutation{
				TenantID:      tenantID,
				ItemID:        line.ItemID,
				Kind:          ledger.KindReturn,
				QuantityDelta: remaining,
				ReferenceID:   sale.ID,
				Reason:        "sale deleted",
			})
		}
		if len(mutations) > 0 {
			if _, err := s.coordinator.ApplyBatch(ctx, mutations); err != nil {
				return err
			}
		}

		if !id.IsNil(sale.CustomerID) {
			if err := s.balances.ApplyDelta(ctx, tenantID, sale.CustomerID, ledger.CustomerDelta{
				SpentDelta:   sale.TotalAmount.Neg(),
				BalanceDelta: sale.Outstanding().Neg(),
			}); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, tenantID, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "sale_id", saleID)
	return nil
}

func (s *Sale) findLine(lineID id.ID) *Line {
	for i := range s.Items {
		if s.Items[i].ID == lineID {
			return &s.Items[i]
		}
	}
	return nil
}
