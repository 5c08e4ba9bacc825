package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

// LogActivity appends an entry to the activity log.
func LogActivity(ctx context.Context, db sqlx.ExtContext, username, activity string) error {
	_, err := exec(ctx, db,
		`INSERT INTO user_activity (username, activity) VALUES (?, ?)`,
		username, activity,
	)
	if err != nil {
		return classify("logging activity", err)
	}
	return nil
}

// ListActivity returns the most recent activity entries, newest first.
// A limit of 0 or less returns everything.
func ListActivity(ctx context.Context, db sqlx.ExtContext, limit int) ([]model.Activity, error) {
	query := `SELECT id, username, activity, created_at FROM user_activity ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	entries := []model.Activity{}
	if err := selectAll(ctx, db, &entries, query, args...); err != nil {
		return nil, classify("listing activity", err)
	}
	return entries, nil
}
