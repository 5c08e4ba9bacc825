package reconcile

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// BatchStore moves every batch matched by a rule to the rule's status
// and reports how many changed.
type BatchStore interface {
	BulkSetStatus(ctx context.Context, rule model.StatusRule) (int64, error)
}

// NotificationStore ignores every active notification matched by a rule
// and reports how many changed.
type NotificationStore interface {
	SuppressMatching(ctx context.Context, rule model.SuppressionRule) (int64, error)
}

// Tx is the view of storage inside one pass.
type Tx interface {
	BatchStore
	NotificationStore
}

// Storage runs fn in a transaction, committing only if fn returns nil.
type Storage interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// SQLStorage adapts a database pool to Storage.
func SQLStorage(db *sqlx.DB) Storage {
	return sqlStorage{db: db}
}

type sqlStorage struct {
	db *sqlx.DB
}

func (s sqlStorage) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(sqlTx{tx: tx})
	})
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t sqlTx) BulkSetStatus(ctx context.Context, rule model.StatusRule) (int64, error) {
	return store.SetBatchStatus(ctx, t.tx, rule)
}

func (t sqlTx) SuppressMatching(ctx context.Context, rule model.SuppressionRule) (int64, error) {
	return store.SuppressNotifications(ctx, t.tx, rule)
}
