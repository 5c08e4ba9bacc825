package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

// Dashboard computes the stock overview as of today.
func Dashboard(ctx context.Context, db sqlx.ExtContext, today model.Date) (*model.Dashboard, error) {
	d := &model.Dashboard{}
	weekAgo := today.AddDays(-7)

	err := get(ctx, db, d,
		`SELECT
		     COALESCE((SELECT SUM(b.remaining_quantity)
		               FROM batches b JOIN products p ON p.id = b.product_id
		               WHERE p.status = 'active' AND b.status <> 'expired'), 0) AS total_stock,
		     COALESCE((SELECT SUM(CASE WHEN type = 'medicine' THEN 1 ELSE 0 END)
		               FROM products WHERE status = 'active'), 0) AS medicines,
		     COALESCE((SELECT SUM(CASE WHEN type = 'supply' THEN 1 ELSE 0 END)
		               FROM products WHERE status = 'active'), 0) AS supplies,
		     COALESCE((SELECT SUM(CASE WHEN p.type = 'medicine' THEN b.purchase_quantity ELSE 0 END)
		               FROM batches b JOIN products p ON p.id = b.product_id
		               WHERE b.purchase_date >= ?), 0) AS stock_in_medicines,
		     COALESCE((SELECT SUM(CASE WHEN p.type = 'supply' THEN b.purchase_quantity ELSE 0 END)
		               FROM batches b JOIN products p ON p.id = b.product_id
		               WHERE b.purchase_date >= ?), 0) AS stock_in_supplies,
		     COALESCE((SELECT SUM(CASE WHEN p.type = 'medicine' THEN o.quantity ELSE 0 END)
		               FROM orders o JOIN products p ON p.id = o.product_id
		               WHERE o.order_date >= ?), 0) AS stock_out_medicines,
		     COALESCE((SELECT SUM(CASE WHEN p.type = 'supply' THEN o.quantity ELSE 0 END)
		               FROM orders o JOIN products p ON p.id = o.product_id
		               WHERE o.order_date >= ?), 0) AS stock_out_supplies,
		     (SELECT COUNT(*) FROM products p
		      WHERE p.status = 'active'
		        AND NOT EXISTS (SELECT 1 FROM batches b
		                        WHERE b.product_id = p.id AND b.status <> 'expired'
		                          AND b.remaining_quantity > 0)) AS out_of_stock,
		     (SELECT COUNT(*) FROM orders) AS total_orders`,
		weekAgo, weekAgo, weekAgo, weekAgo,
	)
	if err != nil {
		return nil, classify("computing dashboard", err)
	}

	nearExpiry, err := ListBatches(ctx, db, BatchFilter{Status: model.BatchNearExpiry})
	if err != nil {
		return nil, fmt.Errorf("listing near-expiry batches: %w", err)
	}
	sortByExpiration(nearExpiry)
	d.NearExpiry = nearExpiry
	d.NearExpiryCount = len(nearExpiry)

	return d, nil
}

func sortByExpiration(batches []model.Batch) {
	slices.SortStableFunc(batches, func(a, b model.Batch) int {
		return a.ExpirationDate.Time().Compare(b.ExpirationDate.Time())
	})
}
