package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

const orderSelect = `SELECT o.id, o.product_id, o.batch_number, o.quantity, o.customer, o.order_date, o.created_at,
	       COALESCE(p.name, '') AS product_name
	FROM orders o
	LEFT JOIN products p ON p.id = o.product_id`

// OrderInput carries the fields of a stock-out.
type OrderInput struct {
	ProductID   int64
	BatchNumber string
	Quantity    int
	Customer    string
	OrderDate   model.Date
}

// Validate checks required fields.
func (in OrderInput) Validate() error {
	if in.ProductID <= 0 {
		return fmt.Errorf("product_id is required")
	}
	if in.BatchNumber == "" {
		return fmt.Errorf("batch_number is required")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if in.Customer == "" {
		return fmt.Errorf("customer is required")
	}
	if in.OrderDate.IsZero() {
		return fmt.Errorf("order_date is required")
	}
	return nil
}

func (in OrderInput) key() model.BatchKey {
	return model.BatchKey{ProductID: in.ProductID, BatchNumber: in.BatchNumber}
}

// CreateOrder records a stock-out and draws its quantity from the batch
// in a single transaction.
func CreateOrder(ctx context.Context, db *sqlx.DB, in OrderInput) (*model.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := AdjustRemaining(ctx, tx, in.key(), -in.Quantity); err != nil {
			return err
		}

		err := get(ctx, tx, &id,
			`INSERT INTO orders (product_id, batch_number, quantity, customer, order_date)
			 VALUES (?, ?, ?, ?, ?) RETURNING id`,
			in.ProductID, in.BatchNumber, in.Quantity, in.Customer, in.OrderDate,
		)
		if err != nil {
			return classify("recording order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, id)
}

// GetOrder returns an order by ID.
func GetOrder(ctx context.Context, db sqlx.ExtContext, id int64) (*model.Order, error) {
	o := &model.Order{}
	err := get(ctx, db, o, orderSelect+` WHERE o.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting order", err)
	}
	return o, nil
}

// ListOrders returns orders, newest first, optionally filtered by product.
func ListOrders(ctx context.Context, db sqlx.ExtContext, productID int64) ([]model.Order, error) {
	query := orderSelect
	var args []any
	if productID > 0 {
		query += ` WHERE o.product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY o.order_date DESC, o.id DESC`

	orders := []model.Order{}
	if err := selectAll(ctx, db, &orders, query, args...); err != nil {
		return nil, classify("listing orders", err)
	}
	return orders, nil
}

// UpdateOrder edits a stock-out. The old quantity is returned to the old
// batch before the new quantity is drawn from the new batch, so moving an
// order within the same batch only needs the difference to be available.
func UpdateOrder(ctx context.Context, db *sqlx.DB, id int64, in OrderInput) (*model.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		old, err := GetOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("order %d: %w", id, model.ErrNotFound)
		}

		if _, err := AdjustRemaining(ctx, tx, old.Key(), old.Quantity); err != nil {
			return err
		}
		if _, err := AdjustRemaining(ctx, tx, in.key(), -in.Quantity); err != nil {
			return err
		}

		_, err = exec(ctx, tx,
			`UPDATE orders SET product_id = ?, batch_number = ?, quantity = ?, customer = ?, order_date = ?
			 WHERE id = ?`,
			in.ProductID, in.BatchNumber, in.Quantity, in.Customer, in.OrderDate, id,
		)
		if err != nil {
			return classify("updating order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, id)
}

// DeleteOrder removes a stock-out and returns its quantity to the batch.
func DeleteOrder(ctx context.Context, db *sqlx.DB, id int64) (*model.Order, error) {
	var deleted *model.Order
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		old, err := GetOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("order %d: %w", id, model.ErrNotFound)
		}

		if _, err := AdjustRemaining(ctx, tx, old.Key(), old.Quantity); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
			return classify("deleting order", err)
		}
		deleted = old
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
