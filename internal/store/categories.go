package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

// CreateCategory creates a new product category. Names are unique.
func CreateCategory(ctx context.Context, db sqlx.ExtContext, name string) (*model.Category, error) {
	var id int64
	if err := get(ctx, db, &id, `INSERT INTO categories (name) VALUES (?) RETURNING id`, name); err != nil {
		return nil, classify("creating category", err)
	}
	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db sqlx.ExtContext, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := get(ctx, db, c, `SELECT id, name, created_at FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting category", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db sqlx.ExtContext) ([]model.Category, error) {
	categories := []model.Category{}
	if err := selectAll(ctx, db, &categories, `SELECT id, name, created_at FROM categories ORDER BY name`); err != nil {
		return nil, classify("listing categories", err)
	}
	return categories, nil
}
