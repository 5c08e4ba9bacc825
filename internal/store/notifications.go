package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

const notificationColumns = `id, product_id, batch_number, type, message, created_at, is_read, ignored, last_notified_at`

// ListNotifications returns notifications, newest first. With active set,
// ignored notifications are left out.
func ListNotifications(ctx context.Context, db sqlx.ExtContext, active bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	if active {
		query += ` WHERE ignored = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	notifications := []model.Notification{}
	if err := selectAll(ctx, db, &notifications, query); err != nil {
		return nil, classify("listing notifications", err)
	}
	return notifications, nil
}

// GetNotification returns a notification by ID.
func GetNotification(ctx context.Context, db sqlx.ExtContext, id int64) (*model.Notification, error) {
	n := &model.Notification{}
	err := get(ctx, db, n, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting notification", err)
	}
	return n, nil
}

// CreateNotification stores a new, unread notification for a batch.
func CreateNotification(ctx context.Context, db sqlx.ExtContext, key model.BatchKey, typ model.NotificationType, message string) (int64, error) {
	var id int64
	err := get(ctx, db, &id,
		`INSERT INTO notifications (product_id, batch_number, type, message) VALUES (?, ?, ?, ?) RETURNING id`,
		key.ProductID, key.BatchNumber, typ, message,
	)
	if err != nil {
		return 0, classify("creating notification", err)
	}
	return id, nil
}

// MarkNotificationRead sets is_read on a notification.
func MarkNotificationRead(ctx context.Context, db sqlx.ExtContext, id int64) error {
	return updateNotification(ctx, db, id, "marking notification read",
		`UPDATE notifications SET is_read = TRUE WHERE id = ?`, id)
}

// TouchNotification records that the notification was shown to a user.
func TouchNotification(ctx context.Context, db sqlx.ExtContext, id int64, at time.Time) error {
	return updateNotification(ctx, db, id, "touching notification",
		`UPDATE notifications SET last_notified_at = ? WHERE id = ?`, at.UTC(), id)
}

// IgnoreNotification suppresses a single notification by hand. Like the
// automatic suppression, it is one-way.
func IgnoreNotification(ctx context.Context, db sqlx.ExtContext, id int64) error {
	return updateNotification(ctx, db, id, "ignoring notification",
		`UPDATE notifications SET ignored = TRUE WHERE id = ?`, id)
}

func updateNotification(ctx context.Context, db sqlx.ExtContext, id int64, op, query string, args ...any) error {
	n, err := execCount(ctx, db, query, args...)
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, model.ErrNotFound)
	}
	return nil
}

// SuppressNotifications marks as ignored every active notification of
// rule.Type whose batch currently has rule.BatchStatus, and returns how
// many it marked.
func SuppressNotifications(ctx context.Context, db sqlx.ExtContext, rule model.SuppressionRule) (int64, error) {
	n, err := execCount(ctx, db,
		`UPDATE notifications SET ignored = TRUE
		 WHERE ignored = FALSE AND type = ?
		   AND EXISTS (
		       SELECT 1 FROM batches b
		       WHERE b.product_id = notifications.product_id
		         AND b.batch_number = notifications.batch_number
		         AND b.status = ?
		   )`,
		rule.Type, rule.BatchStatus,
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("suppressing %s notifications", rule.Type), err)
	}
	return n, nil
}

// ListUnnotifiedBatches returns batches with the given status that still
// hold stock and have never had a notification of the given type.
func ListUnnotifiedBatches(ctx context.Context, db sqlx.ExtContext, status model.BatchStatus, typ model.NotificationType) ([]model.Batch, error) {
	batches := []model.Batch{}
	err := selectAll(ctx, db, &batches,
		batchSelect+`
		 WHERE b.status = ? AND b.remaining_quantity > 0
		   AND NOT EXISTS (
		       SELECT 1 FROM notifications n
		       WHERE n.product_id = b.product_id
		         AND n.batch_number = b.batch_number
		         AND n.type = ?
		   )
		 ORDER BY b.expiration_date, b.id`,
		status, typ,
	)
	if err != nil {
		return nil, classify("listing unnotified batches", err)
	}
	return batches, nil
}
