package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/ledger"
)

const ledgerEntriesTable = "ledger_entries"

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo is the PostgreSQL implementation of ledger.Repository.
type LedgerRepo struct {
	txManager *TxManager
	columns   []string
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		columns:   ExtractDBColumns[ledger.Entry](),
	}
}

func (r *LedgerRepo) baseSelect(tenantID tenant.ID) squirrel.SelectBuilder {
	return builder().
		Select(r.columns...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// Create appends one entry.
func (r *LedgerRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	q := builder().
		Insert(ledgerEntriesTable).
		SetMap(StructToMap(entry))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert ledger entry: %w", err))
	}
	return nil
}

// CreateBatch appends the entries of a multi-line document. Uses COPY when
// inside a transaction, which is the normal path for document posting.
func (r *LedgerRepo) CreateBatch(ctx context.Context, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			data := StructToMap(e)
			row := make([]any, len(r.columns))
			for i, col := range r.columns {
				row[i] = data[col]
			}
			rows = append(rows, row)
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerEntriesTable, r.columns, rows); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	q := builder().Insert(ledgerEntriesTable).Columns(r.columns...)
	for _, e := range entries {
		data := StructToMap(e)
		vals := make([]any, len(r.columns))
		for i, col := range r.columns {
			vals[i] = data[col]
		}
		q = q.Values(vals...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert ledger entries: %w", err))
	}
	return nil
}

// GetByID retrieves an entry scoped to the tenant.
func (r *LedgerRepo) GetByID(ctx context.Context, tenantID tenant.ID, entryID id.ID) (*ledger.Entry, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entry ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(ledgerEntriesTable, entryID.String())
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return &entry, nil
}

// Delete removes a reversible entry. The caller has already reversed the
// quantity delta in the same transaction.
func (r *LedgerRepo) Delete(ctx context.Context, tenantID tenant.ID, entryID id.ID) error {
	q := builder().
		Delete(ledgerEntriesTable).
		Where(squirrel.Eq{"id": entryID, "tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("delete ledger entry: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(ledgerEntriesTable, entryID.String())
	}
	return nil
}

// ListByItem returns movement history for an item, newest first.
func (r *LedgerRepo) ListByItem(ctx context.Context, tenantID tenant.ID, itemID id.ID, f ledger.HistoryFilter) ([]*ledger.Entry, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"item_id": itemID})

	if f.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *f.Kind})
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

	return r.selectMany(ctx, q)
}

// ListByReference returns all entries created by one document.
func (r *LedgerRepo) ListByReference(ctx context.Context, tenantID tenant.ID, refID id.ID) ([]*ledger.Entry, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"reference_id": refID}).
		OrderBy("created_at ASC")

	return r.selectMany(ctx, q)
}

func (r *LedgerRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*ledger.Entry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}
