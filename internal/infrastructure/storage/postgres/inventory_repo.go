package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/inventory"
)

const itemsTable = "items"

// Compile-time check.
var _ inventory.Repository = (*InventoryRepo)(nil)

// InventoryRepo is the PostgreSQL implementation of inventory.Repository.
// Every predicate carries tenant_id; a wrong-tenant id reads as not found.
type InventoryRepo struct {
	txManager *TxManager
	columns   []string
}

// NewInventoryRepo creates an inventory repository.
func NewInventoryRepo(txManager *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		columns:   ExtractDBColumns[inventory.Item](),
	}
}

func (r *InventoryRepo) baseSelect(tenantID tenant.ID) squirrel.SelectBuilder {
	return builder().
		Select(r.columns...).
		From(itemsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// Create inserts a new item. A duplicate SKU surfaces as DUPLICATE_ENTRY
// via the unique (tenant_id, sku) index.
func (r *InventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	q := builder().
		Insert(itemsTable).
		SetMap(StructToMap(item))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert item: %w", err))
	}
	return nil
}

// GetByID retrieves an item scoped to the tenant.
func (r *InventoryRepo) GetByID(ctx context.Context, tenantID tenant.ID, itemID id.ID) (*inventory.Item, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	return r.getOne(ctx, q, itemID.String())
}

// GetForUpdate retrieves an item with a row lock. Concurrent mutations of
// the same item queue on this lock instead of interleaving.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, itemID id.ID) (*inventory.Item, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q, itemID.String())
}

// GetBySKU retrieves an item by SKU (unique per tenant).
func (r *InventoryRepo) GetBySKU(ctx context.Context, tenantID tenant.ID, sku string) (*inventory.Item, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1)

	return r.getOne(ctx, q, sku)
}

func (r *InventoryRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*inventory.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(itemsTable, key)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// Update persists a mutated item with an optimistic version check. Zero
// rows affected means another transaction got there first.
func (r *InventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	data := StructToMap(item)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")

	q := builder().
		Update(itemsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":        item.ID,
			"tenant_id": item.TenantID,
			"version":   item.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("update item: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewTransactionConflict(
			fmt.Errorf("item %s modified concurrently", item.ID))
	}

	item.Version++
	return nil
}

// List retrieves items for a tenant with filtering and pagination.
func (r *InventoryRepo) List(ctx context.Context, tenantID tenant.ID, f inventory.ListFilter) ([]*inventory.Item, error) {
	q := r.baseSelect(tenantID)

	if f.StockLevel != nil {
		q = q.Where(squirrel.Eq{"stock_level": *f.StockLevel})
	}
	if f.Override != nil {
		q = q.Where(squirrel.Eq{"status_override": *f.Override})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}

	q = q.OrderBy("name ASC")
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

	var items []*inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}
