package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/alert"
)

const notificationsTable = "notifications"

var _ alert.Repository = (*NotificationRepo)(nil)

// NotificationRepo is the PostgreSQL implementation of alert.Repository.
// Inserts happen inside the stock mutation's transaction, so an alert
// either commits with its mutation or not at all.
type NotificationRepo struct {
	txManager *TxManager
	columns   []string
}

// NewNotificationRepo creates a notification repository.
func NewNotificationRepo(txManager *TxManager) *NotificationRepo {
	return &NotificationRepo{
		txManager: txManager,
		columns:   ExtractDBColumns[alert.Notification](),
	}
}

// Create inserts a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *alert.Notification) error {
	q := builder().
		Insert(notificationsTable).
		SetMap(StructToMap(n))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(fmt.Errorf("insert notification: %w", err))
	}
	return nil
}

// ListUnread returns unread notifications, newest first.
func (r *NotificationRepo) ListUnread(ctx context.Context, tenantID tenant.ID, limit int) ([]*alert.Notification, error) {
	q := builder().
		Select(r.columns...).
		From(notificationsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "read": false}).
		OrderBy("created_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var notifications []*alert.Notification
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &notifications, sql, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, tenantID tenant.ID, notificationID id.ID) error {
	q := builder().
		Update(notificationsTable).
		Set("read", true).
		Where(squirrel.Eq{"id": notificationID, "tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(fmt.Errorf("mark notification read: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(notificationsTable, notificationID.String())
	}
	return nil
}
