package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/customer"
)

const customersTable = "customers"

var _ customer.Repository = (*CustomerRepo)(nil)

// CustomerRepo is the PostgreSQL implementation of customer.Repository.
type CustomerRepo struct {
	txManager *TxManager
	columns   []string
}

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(txManager *TxManager) *CustomerRepo {
	return &CustomerRepo{
		txManager: txManager,
		columns:   ExtractDBColumns[customer.Customer](),
	}
}

func (r *CustomerRepo) baseSelect(tenantID tenant.ID) squirrel.SelectBuilder {
	return builder().
		Select(r.columns...).
		From(customersTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// Create inserts a new customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := builder().
		Insert(customersTable).
		SetMap(StructToMap(c))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert customer: %w", err))
	}
	return nil
}

// GetByID retrieves a customer scoped to the tenant.
func (r *CustomerRepo) GetByID(ctx context.Context, tenantID tenant.ID, customerID id.ID) (*customer.Customer, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": customerID}).
		Limit(1)

	return r.getOne(ctx, q, customerID)
}

// GetForUpdate retrieves a customer with a row lock for balance updates.
func (r *CustomerRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, customerID id.ID) (*customer.Customer, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": customerID}).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q, customerID)
}

func (r *CustomerRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, customerID id.ID) (*customer.Customer, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(customersTable, customerID.String())
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Update persists a customer with an optimistic version check.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	data := StructToMap(c)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")

	q := builder().
		Update(customersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":        c.ID,
			"tenant_id": c.TenantID,
			"version":   c.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("update customer: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewTransactionConflict(
			fmt.Errorf("customer %s modified concurrently", c.ID))
	}

	c.Version++
	return nil
}

// List retrieves customers for a tenant ordered by name.
func (r *CustomerRepo) List(ctx context.Context, tenantID tenant.ID, search string, limit, offset int) ([]*customer.Customer, error) {
	q := r.baseSelect(tenantID)

	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
		})
	}

	q = q.OrderBy("name ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var customers []*customer.Customer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &customers, sql, args...); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
