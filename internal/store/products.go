package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

// productSelect derives stock from the batches that are not expired, so
// it is only as fresh as the last reconciliation.
const productSelect = `SELECT p.id, p.name, p.type, p.category_id, p.status, p.created_at,
	       COALESCE(c.name, '') AS category_name,
	       COALESCE(SUM(CASE WHEN b.status <> 'expired' THEN b.remaining_quantity ELSE 0 END), 0) AS stock
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN batches b ON b.product_id = p.id`

const productGroupBy = ` GROUP BY p.id, p.name, p.type, p.category_id, p.status, p.created_at, c.name`

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name       string
	Type       string
	CategoryID *int64
	Status     string
}

// Validate checks required fields and enumerations.
func (in ProductInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !model.ValidProductType(in.Type) {
		return fmt.Errorf("type must be %q or %q", model.ProductTypeMedicine, model.ProductTypeSupply)
	}
	if in.Status != "" && !model.ValidProductStatus(in.Status) {
		return fmt.Errorf("status must be %q or %q", model.ProductStatusActive, model.ProductStatusInactive)
	}
	return nil
}

// CreateProduct creates a new product.
func CreateProduct(ctx context.Context, db sqlx.ExtContext, in ProductInput) (*model.Product, error) {
	if in.Status == "" {
		in.Status = model.ProductStatusActive
	}

	var id int64
	err := get(ctx, db, &id,
		`INSERT INTO products (name, type, category_id, status) VALUES (?, ?, ?, ?) RETURNING id`,
		in.Name, in.Type, in.CategoryID, in.Status,
	)
	if err != nil {
		return nil, classify("creating product", err)
	}

	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID with its derived stock.
func GetProduct(ctx context.Context, db sqlx.ExtContext, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := get(ctx, db, p, productSelect+` WHERE p.id = ?`+productGroupBy, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting product", err)
	}
	p.StockStatus = stockStatus(p.Stock)
	return p, nil
}

// ListProducts returns products, newest first, optionally filtered by type.
func ListProducts(ctx context.Context, db sqlx.ExtContext, productType string) ([]model.Product, error) {
	query := productSelect
	var args []any
	if productType != "" {
		query += ` WHERE p.type = ?`
		args = append(args, productType)
	}
	query += productGroupBy + ` ORDER BY p.id DESC`

	products := []model.Product{}
	if err := selectAll(ctx, db, &products, query, args...); err != nil {
		return nil, classify("listing products", err)
	}
	for i := range products {
		products[i].StockStatus = stockStatus(products[i].Stock)
	}
	return products, nil
}

// UpdateProduct updates a product's editable fields.
func UpdateProduct(ctx context.Context, db sqlx.ExtContext, id int64, in ProductInput) error {
	if in.Status == "" {
		in.Status = model.ProductStatusActive
	}

	n, err := execCount(ctx, db,
		`UPDATE products SET name = ?, type = ?, category_id = ?, status = ? WHERE id = ?`,
		in.Name, in.Type, in.CategoryID, in.Status, id,
	)
	if err != nil {
		return classify("updating product", err)
	}
	if n == 0 {
		return fmt.Errorf("updating product %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product that has no batches.
func DeleteProduct(ctx context.Context, db *sqlx.DB, id int64) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		var batches int
		if err := get(ctx, tx, &batches, `SELECT COUNT(*) FROM batches WHERE product_id = ?`, id); err != nil {
			return classify("counting product batches", err)
		}
		if batches > 0 {
			return fmt.Errorf("deleting product %d: %w: %d purchases reference it", id, model.ErrConstraintViolation, batches)
		}

		n, err := execCount(ctx, tx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return classify("deleting product", err)
		}
		if n == 0 {
			return fmt.Errorf("deleting product %d: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

func stockStatus(stock int) string {
	if stock > 0 {
		return model.StockStatusInStock
	}
	return model.StockStatusOutOfStock
}
