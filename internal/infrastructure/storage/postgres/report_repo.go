package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reports"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository with aggregate SQL over the
// inventory, ledger and sales tables.
type ReportRepo struct {
	txManager *TxManager
}

// NewReportRepo creates a report repository.
func NewReportRepo(txManager *TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// GetStockSummary returns per-status item counts and total stock value.
func (r *ReportRepo) GetStockSummary(ctx context.Context, tenantID tenant.ID) (reports.StockSummary, error) {
	query := `
		SELECT
			COUNT(*) AS total_items,
			COUNT(*) FILTER (WHERE stock_level = 'in-stock') AS in_stock_items,
			COUNT(*) FILTER (WHERE stock_level = 'low-stock') AS low_stock_items,
			COUNT(*) FILTER (WHERE stock_level = 'out-of-stock') AS out_of_stock_items,
			COALESCE(SUM(total_value), 0) AS total_stock_value
		FROM items
		WHERE tenant_id = $1
	`

	var row struct {
		TotalItems      int         `db:"total_items"`
		InStockItems    int         `db:"in_stock_items"`
		LowStockItems   int         `db:"low_stock_items"`
		OutOfStockItems int         `db:"out_of_stock_items"`
		TotalStockValue types.Money `db:"total_stock_value"`
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, query, tenantID); err != nil {
		return reports.StockSummary{}, fmt.Errorf("stock summary: %w", err)
	}

	return reports.StockSummary{
		TotalItems:      row.TotalItems,
		InStockItems:    row.InStockItems,
		LowStockItems:   row.LowStockItems,
		OutOfStockItems: row.OutOfStockItems,
		TotalStockValue: row.TotalStockValue,
	}, nil
}

// GetAdjustmentTotals groups adjustment and internal-use impact by reason
// for a period.
func (r *ReportRepo) GetAdjustmentTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]reports.AdjustmentTotal, error) {
	query := `
		SELECT
			reason,
			SUM(quantity) AS quantity,
			COALESCE(SUM(total_value_impact), 0) AS value_impact
		FROM ledger_entries
		WHERE tenant_id = $1
		  AND kind IN ('adjustment', 'internal_use')
		  AND created_at >= $2
		  AND created_at <= $3
		GROUP BY reason
		ORDER BY reason
	`

	var rows []struct {
		Reason      string      `db:"reason"`
		Quantity    int64       `db:"quantity"`
		ValueImpact types.Money `db:"value_impact"`
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("adjustment totals: %w", err)
	}

	out := make([]reports.AdjustmentTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, reports.AdjustmentTotal{
			Reason:      row.Reason,
			Quantity:    row.Quantity,
			ValueImpact: row.ValueImpact,
		})
	}
	return out, nil
}

// GetSalesTotals returns the sales rollup for a period.
func (r *ReportRepo) GetSalesTotals(ctx context.Context, tenantID tenant.ID, from, to time.Time) (reports.SalesTotals, error) {
	query := `
		SELECT
			COUNT(*) AS sale_count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(amount_paid), 0) AS amount_paid,
			COALESCE(SUM(GREATEST(total_amount - amount_paid, 0)), 0) AS outstanding
		FROM sales
		WHERE tenant_id = $1
		  AND created_at >= $2
		  AND created_at <= $3
	`

	var row struct {
		SaleCount   int         `db:"sale_count"`
		TotalAmount types.Money `db:"total_amount"`
		AmountPaid  types.Money `db:"amount_paid"`
		Outstanding types.Money `db:"outstanding"`
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, query, tenantID, from, to); err != nil {
		return reports.SalesTotals{}, fmt.Errorf("sales totals: %w", err)
	}

	return reports.SalesTotals{
		SaleCount:   row.SaleCount,
		TotalAmount: row.TotalAmount,
		AmountPaid:  row.AmountPaid,
		Outstanding: row.Outstanding,
	}, nil
}
