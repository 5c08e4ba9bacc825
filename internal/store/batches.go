package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

const batchSelect = `SELECT b.id, b.product_id, b.batch_number, b.purchase_quantity, b.remaining_quantity,
	       b.expiration_date, b.status, b.purchase_date, b.supplier, b.created_at, b.updated_at,
	       COALESCE(p.name, '') AS product_name
	FROM batches b
	LEFT JOIN products p ON p.id = b.product_id`

// BatchFilter narrows ListBatches. Zero fields match everything.
type BatchFilter struct {
	ProductID int64
	Status    model.BatchStatus
}

// PurchaseInput carries the fields of a stock-in.
type PurchaseInput struct {
	ProductID        int64
	BatchNumber      string
	PurchaseQuantity int
	ExpirationDate   model.Date
	PurchaseDate     model.Date
	Supplier         string
}

// Validate checks required fields.
func (in PurchaseInput) Validate() error {
	if in.ProductID <= 0 {
		return fmt.Errorf("product_id is required")
	}
	if in.PurchaseQuantity <= 0 {
		return fmt.Errorf("purchase_quantity must be positive")
	}
	if in.ExpirationDate.IsZero() {
		return fmt.Errorf("expiration_date is required")
	}
	return nil
}

// NewBatchNumber returns a short random batch number for purchases
// recorded without one.
func NewBatchNumber() string {
	return "B-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// ListBatches returns batches, most recently purchased first.
func ListBatches(ctx context.Context, db sqlx.ExtContext, f BatchFilter) ([]model.Batch, error) {
	query := batchSelect + ` WHERE 1=1`
	var args []any

	if f.ProductID > 0 {
		query += ` AND b.product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		query += ` AND b.status = ?`
		args = append(args, f.Status)
	}

	query += ` ORDER BY b.purchase_date DESC, b.id DESC`

	batches := []model.Batch{}
	if err := selectAll(ctx, db, &batches, query, args...); err != nil {
		return nil, classify("listing batches", err)
	}
	return batches, nil
}

// GetBatch returns a batch by ID.
func GetBatch(ctx context.Context, db sqlx.ExtContext, id int64) (*model.Batch, error) {
	b := &model.Batch{}
	err := get(ctx, db, b, batchSelect+` WHERE b.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting batch", err)
	}
	return b, nil
}

// GetBatchByKey returns the batch an order or notification refers to.
func GetBatchByKey(ctx context.Context, db sqlx.ExtContext, key model.BatchKey) (*model.Batch, error) {
	b := &model.Batch{}
	err := get(ctx, db, b, batchSelect+` WHERE b.product_id = ? AND b.batch_number = ?`,
		key.ProductID, key.BatchNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting batch", err)
	}
	return b, nil
}

// CreatePurchase records a stock-in. The whole purchase is initially
// remaining and the batch starts in stock; the next reconciliation
// classifies it.
func CreatePurchase(ctx context.Context, db sqlx.ExtContext, in PurchaseInput) (*model.Batch, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.BatchNumber == "" {
		in.BatchNumber = NewBatchNumber()
	}

	product, err := GetProduct(ctx, db, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", in.ProductID, model.ErrNotFound)
	}

	var id int64
	err = get(ctx, db, &id,
		`INSERT INTO batches (product_id, batch_number, purchase_quantity, remaining_quantity,
		                      expiration_date, status, purchase_date, supplier)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		in.ProductID, in.BatchNumber, in.PurchaseQuantity, in.PurchaseQuantity,
		in.ExpirationDate, model.BatchInStock, in.PurchaseDate, in.Supplier,
	)
	if err != nil {
		return nil, classify("creating purchase", err)
	}

	return GetBatch(ctx, db, id)
}

// UpdatePurchase edits a stock-in. The batch number is immutable. The
// remaining quantity is recomputed as the new purchase quantity minus
// everything already ordered from the batch; the edit is rejected if
// that would be negative, or if it moves a batch that has orders to
// another product. Changing the expiration date resets the status to
// in_stock so the next reconciliation classifies the batch afresh.
func UpdatePurchase(ctx context.Context, db *sqlx.DB, id int64, in PurchaseInput) (*model.Batch, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		current, err := GetBatch(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("purchase %d: %w", id, model.ErrNotFound)
		}

		ordered, err := orderedQuantity(ctx, tx, current.Key())
		if err != nil {
			return err
		}
		if ordered > 0 && in.ProductID != current.ProductID {
			return fmt.Errorf("purchase %d: %w: cannot change product of a batch with orders", id, model.ErrConstraintViolation)
		}

		remaining := in.PurchaseQuantity - ordered
		if remaining < 0 {
			return fmt.Errorf("purchase %d: %w: %d already ordered, cannot reduce purchase to %d",
				id, model.ErrConstraintViolation, ordered, in.PurchaseQuantity)
		}

		status := current.Status
		if !in.ExpirationDate.Equal(current.ExpirationDate) {
			status = model.BatchInStock
		}
		purchaseDate := in.PurchaseDate
		if purchaseDate.IsZero() {
			purchaseDate = current.PurchaseDate
		}

		_, err = exec(ctx, tx,
			`UPDATE batches
			 SET product_id = ?, purchase_quantity = ?, remaining_quantity = ?, expiration_date = ?,
			     status = ?, purchase_date = ?, supplier = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			in.ProductID, in.PurchaseQuantity, remaining, in.ExpirationDate,
			status, purchaseDate, in.Supplier, id,
		)
		if err != nil {
			return classify("updating purchase", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetBatch(ctx, db, id)
}

// DeletePurchase removes a stock-in that no order references.
func DeletePurchase(ctx context.Context, db *sqlx.DB, id int64) (*model.Batch, error) {
	var deleted *model.Batch
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		current, err := GetBatch(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("purchase %d: %w", id, model.ErrNotFound)
		}

		var orders int
		if err := get(ctx, tx, &orders,
			`SELECT COUNT(*) FROM orders WHERE product_id = ? AND batch_number = ?`,
			current.ProductID, current.BatchNumber,
		); err != nil {
			return classify("counting batch orders", err)
		}
		if orders > 0 {
			return fmt.Errorf("purchase %d: %w: referenced by %d orders", id, model.ErrConstraintViolation, orders)
		}

		if _, err := exec(ctx, tx, `DELETE FROM batches WHERE id = ?`, id); err != nil {
			return classify("deleting purchase", err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// SetBatchStatus applies one status rule to every batch it matches and
// returns the number of batches that changed status.
func SetBatchStatus(ctx context.Context, db sqlx.ExtContext, rule model.StatusRule) (int64, error) {
	if !rule.Status.Valid() {
		return 0, fmt.Errorf("invalid batch status %q", rule.Status)
	}

	query := `UPDATE batches SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE status <> ?`
	args := []any{rule.Status, rule.Status}

	if rule.After != nil {
		query += ` AND expiration_date > ?`
		args = append(args, *rule.After)
	}
	if rule.Through != nil {
		query += ` AND expiration_date <= ?`
		args = append(args, *rule.Through)
	}
	if len(rule.Unless) > 0 {
		query += ` AND status NOT IN (?)`
		args = append(args, rule.Unless)

		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return 0, fmt.Errorf("expanding status rule: %w", err)
		}
	}

	n, err := execCount(ctx, db, query, args...)
	if err != nil {
		return 0, classify(fmt.Sprintf("setting batch status %s", rule.Status), err)
	}
	return n, nil
}

// AdjustRemaining adds delta to a batch's remaining quantity. The update
// only applies while the result stays within [0, purchase_quantity], so
// concurrent consumers cannot overdraw a batch: the one that would
// breach the bound gets ErrConstraintViolation.
func AdjustRemaining(ctx context.Context, db sqlx.ExtContext, key model.BatchKey, delta int) (*model.Batch, error) {
	var id int64
	err := get(ctx, db, &id,
		`UPDATE batches
		 SET remaining_quantity = remaining_quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE product_id = ? AND batch_number = ?
		   AND remaining_quantity + ? >= 0
		   AND remaining_quantity + ? <= purchase_quantity
		 RETURNING id`,
		delta, key.ProductID, key.BatchNumber, delta, delta,
	)
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := GetBatchByKey(ctx, db, key)
		if getErr != nil {
			return nil, getErr
		}
		if current == nil {
			return nil, fmt.Errorf("batch %s of product %d: %w", key.BatchNumber, key.ProductID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("batch %s of product %d: %w: %d remaining of %d, cannot apply %+d",
			key.BatchNumber, key.ProductID, model.ErrConstraintViolation,
			current.RemainingQuantity, current.PurchaseQuantity, delta)
	}
	if err != nil {
		return nil, classify("adjusting remaining quantity", err)
	}

	return GetBatch(ctx, db, id)
}

func orderedQuantity(ctx context.Context, db sqlx.ExtContext, key model.BatchKey) (int, error) {
	var total int
	err := get(ctx, db, &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM orders WHERE product_id = ? AND batch_number = ?`,
		key.ProductID, key.BatchNumber,
	)
	if err != nil {
		return 0, classify("summing batch orders", err)
	}
	return total, nil
}
