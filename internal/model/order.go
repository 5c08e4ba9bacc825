package model

import "time"

// Order is a consumption event (a stock-out) against one batch.
type Order struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	BatchNumber string    `json:"batch_number" db:"batch_number"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Customer    string    `json:"customer" db:"customer"`
	OrderDate   Date      `json:"order_date" db:"order_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined fields (not always populated).
	ProductName string `json:"product_name,omitempty" db:"product_name"`
}

// Key returns the batch the order draws from.
func (o Order) Key() BatchKey {
	return BatchKey{ProductID: o.ProductID, BatchNumber: o.BatchNumber}
}
