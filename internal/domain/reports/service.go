// Package reports provides read-only rollups over the ledger and
// inventory tables. These views sit outside the mutation path; the
// coordinator guarantees the tables they read are mutually consistent
// after every commit.
package reports

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
)

// StockSummary is the inventory rollup.
type StockSummary struct {
	TotalItems      int         `json:"totalItems"`
	InStockItems    int         `json:"inStockItems"`
	LowStockItems   int         `json:"lowStockItems"`
	OutOfStockItems int         `json:"outOfStockItems"`
	TotalStockValue types.Money `json:"totalStockValue"`
}

// AdjustmentTotal groups adjustment impact by reason.
type AdjustmentTotal struct {
	Reason      string      `json:"reason"`
	Quantity    int64       `json:"quantity"`
	ValueImpact types.Money `json:"valueImpact"`
}

// SalesTotals is the period sales rollup.
type SalesTotals struct {
	SaleCount   int         `json:"saleCount"`
	TotalAmount types.Money `json:"totalAmount"`
	AmountPaid  types.Money `json:"amountPaid"`
	Outstanding types.Money `json:"outstanding"`
}

// Repository defines the report queries.
type Repository interface {
	GetStockSummary(ctx context.Context, tenantID tenant.ID) (StockSummary, error)
	GetAdjustmentTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]AdjustmentTotal, error)
	GetSalesTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) (SalesTotals, error)
}

// Service runs report queries inside read-only transactions so each report
// observes one consistent snapshot.
type Service struct {
	repo      Repository
	entries   ledger.Repository
	txManager tx.ReadOnlyManager
}

// NewService creates a reports service.
func NewService(repo Repository, entries ledger.Repository, txManager tx.ReadOnlyManager) *Service {
	return &Service{
		repo:      repo,
		entries:   entries,
		txManager: txManager,
	}
}

// StockSummary returns the current inventory rollup.
func (s *Service) StockSummary(ctx context.Context, tenantID tenant.ID) (StockSummary, error) {
	var out StockSummary
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.GetStockSummary(ctx, tenantID)
		return err
	})
	return out, err
}

// AdjustmentTotals returns adjustment impact grouped by reason for a period.
func (s *Service) AdjustmentTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]AdjustmentTotal, error) {
	var out []AdjustmentTotal
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.GetAdjustmentTotals(ctx, tenantID, from, to)
		return err
	})
	return out, err
}

// SalesTotals returns the sales rollup for a period.
func (s *Service) SalesTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) (SalesTotals, error) {
	var out SalesTotals
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.GetSalesTotals(ctx, tenantID, from, to)
		return err
	})
	return out, err
}

// ItemMovements returns the movement history for one item.
func (s *Service) ItemMovements(ctx context.Context, tenantID tenant.ID, itemID id.ID, f ledger.HistoryFilter) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.entries.ListByItem(ctx, tenantID, itemID, f)
		return err
	})
	return out, err
}
