package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/sales"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo is the PostgreSQL implementation of sales.Repository.
// Headers and lines live in separate tables; reads always return the
// assembled aggregate.
type SaleRepo struct {
	txManager  *TxManager
	headerCols []string
	lineCols   []string
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txManager *TxManager) *SaleRepo {
	return &SaleRepo{
		txManager:  txManager,
		headerCols: ExtractDBColumns[sales.Sale](),
		lineCols:   ExtractDBColumns[sales.Line](),
	}
}

// Create inserts the sale header and its lines. Must run inside the sale
// transaction so the header, lines and ledger entries commit together.
func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Insert(salesTable).
		SetMap(StructToMap(sale))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert sale: %w", err))
	}

	return r.insertLines(ctx, sale.Items)
}

func (r *SaleRepo) insertLines(ctx context.Context, lines []sales.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := builder().Insert(saleLinesTable).Columns(r.lineCols...)
	for i := range lines {
		data := StructToMap(&lines[i])
		vals := make([]any, len(r.lineCols))
		for j, col := range r.lineCols {
			vals[j] = data[col]
		}
		q = q.Values(vals...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert sale lines: %w", err))
	}
	return nil
}

// GetByID retrieves a sale with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*sales.Sale, error) {
	return r.get(ctx, tenantID, saleID, false)
}

// GetForUpdate retrieves a sale with its lines under a header row lock.
// Payments, returns and deletion all serialize on this lock.
func (r *SaleRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*sales.Sale, error) {
	return r.get(ctx, tenantID, saleID, true)
}

func (r *SaleRepo) get(ctx context.Context, tenantID tenant.ID, saleID id.ID, forUpdate bool) (*sales.Sale, error) {
	q := builder().
		Select(r.headerCols...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID, "tenant_id": tenantID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(salesTable, saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	lines, err := r.getLines(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = lines
	return &sale, nil
}

func (r *SaleRepo) getLines(ctx context.Context, saleID id.ID) ([]sales.Line, error) {
	q := builder().
		Select(r.lineCols...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("item_name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []sales.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}

// UpdateHeader persists totals, payment fields and the derived status with
// an optimistic version check.
func (r *SaleRepo) UpdateHeader(ctx context.Context, sale *sales.Sale) error {
	data := StructToMap(sale)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")

	q := builder().
		Update(salesTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":        sale.ID,
			"tenant_id": sale.TenantID,
			"version":   sale.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("update sale: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewTransactionConflict(
			fmt.Errorf("sale %s modified concurrently", sale.ID))
	}

	sale.Version++
	return nil
}

// UpdateLineReturned persists a line's accumulated returned quantity. The
// tenant check goes through the owning sale.
func (r *SaleRepo) UpdateLineReturned(ctx context.Context, tenantID tenant.ID, lineID id.ID, returnedQuantity int64) error {
	q := builder().
		Update(saleLinesTable).
		Set("returned_quantity", returnedQuantity).
		Where(squirrel.Eq{"id": lineID}).
		Where(squirrel.Expr(
			"sale_id IN (SELECT id FROM "+salesTable+" WHERE tenant_id = ?)", tenantID))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("update sale line: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(saleLinesTable, lineID.String())
	}
	return nil
}

// Delete removes the sale and its lines.
func (r *SaleRepo) Delete(ctx context.Context, tenantID tenant.ID, saleID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteLines := "DELETE FROM " + saleLinesTable + " WHERE sale_id = $1"
	if _, err := querier.Exec(ctx, deleteLines, saleID); err != nil {
		return TranslateError(fmt.Errorf("delete sale lines: %w", err))
	}

	q := builder().
		Delete(salesTable).
		Where(squirrel.Eq{"id": saleID, "tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("delete sale: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(salesTable, saleID.String())
	}
	return nil
}

// List retrieves sales for a tenant, newest first. Lines are not loaded;
// listings only need headers.
func (r *SaleRepo) List(ctx context.Context, tenantID tenant.ID, f sales.ListFilter) ([]*sales.Sale, error) {
	q := builder().
		Select(r.headerCols...).
		From(salesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if f.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if f.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *f.PaymentStatus})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}

	q = q.OrderBy("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*sales.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return out, nil
}
