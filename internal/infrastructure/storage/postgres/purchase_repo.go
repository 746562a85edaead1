package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/purchase"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderLinesTable = "purchase_order_lines"
)

var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo is the PostgreSQL implementation of purchase.Repository.
type PurchaseRepo struct {
	txManager  *TxManager
	headerCols []string
	lineCols   []string
}

// NewPurchaseRepo creates a purchase order repository.
func NewPurchaseRepo(txManager *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager:  txManager,
		headerCols: ExtractDBColumns[purchase.Order](),
		lineCols:   ExtractDBColumns[purchase.OrderLine](),
	}
}

// Create inserts the order header and its lines.
func (r *PurchaseRepo) Create(ctx context.Context, order *purchase.Order) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Insert(purchaseOrdersTable).
		SetMap(StructToMap(order))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert purchase order: %w", err))
	}

	if len(order.Lines) == 0 {
		return nil
	}

	lq := builder().Insert(purchaseOrderLinesTable).Columns(r.lineCols...)
	for i := range order.Lines {
		data := StructToMap(&order.Lines[i])
		vals := make([]any, len(r.lineCols))
		for j, col := range r.lineCols {
			vals[j] = data[col]
		}
		lq = lq.Values(vals...)
	}

	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert purchase order lines: %w", err))
	}
	return nil
}

// GetByID retrieves an order with its lines.
func (r *PurchaseRepo) GetByID(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*purchase.Order, error) {
	return r.get(ctx, tenantID, orderID, false)
}

// GetForUpdate retrieves an order with its lines under a header row lock.
// Status transitions serialize on this lock, so a completed or cancelled
// order cannot be transitioned twice.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*purchase.Order, error) {
	return r.get(ctx, tenantID, orderID, true)
}

func (r *PurchaseRepo) get(ctx context.Context, tenantID tenant.ID, orderID id.ID, forUpdate bool) (*purchase.Order, error) {
	q := builder().
		Select(r.headerCols...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": orderID, "tenant_id": tenantID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(purchaseOrdersTable, orderID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	lq := builder().
		Select(r.lineCols...).
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"order_id": orderID})

	sql, args, err = lq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &order.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase order lines: %w", err)
	}
	return &order, nil
}

// UpdateHeader persists the order status and dates with an optimistic
// version check. Lines are immutable after creation.
func (r *PurchaseRepo) UpdateHeader(ctx context.Context, order *purchase.Order) error {
	data := StructToMap(order)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")

	q := builder().
		Update(purchaseOrdersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":        order.ID,
			"tenant_id": order.TenantID,
			"version":   order.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("update purchase order: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewTransactionConflict(
			fmt.Errorf("purchase order %s modified concurrently", order.ID))
	}

	order.Version++
	return nil
}

// List retrieves orders for a tenant, newest first. Headers only.
func (r *PurchaseRepo) List(ctx context.Context, tenantID tenant.ID, f purchase.ListFilter) ([]*purchase.Order, error) {
	q := builder().
		Select(r.headerCols...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
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

	var orders []*purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return orders, nil
}
