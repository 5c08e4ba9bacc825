package model

import (
	"slices"
	"time"
)

// BatchStatus is the expiry classification of a batch. It is a cached
// projection of the expiration date and is recomputed on every
// reconciliation pass.
type BatchStatus string

// Batch statuses.
const (
	BatchInStock    BatchStatus = "in_stock"
	BatchNearExpiry BatchStatus = "near_expiry"
	BatchExpired    BatchStatus = "expired"
)

// Valid reports whether s is a known batch status.
func (s BatchStatus) Valid() bool {
	return s == BatchInStock || s == BatchNearExpiry || s == BatchExpired
}

// BatchKey identifies a batch the way orders and notifications refer to it.
type BatchKey struct {
	ProductID   int64  `json:"product_id" db:"product_id"`
	BatchNumber string `json:"batch_number" db:"batch_number"`
}

// Batch is one purchased lot of a product (a stock-in).
type Batch struct {
	ID                int64       `json:"id" db:"id"`
	ProductID         int64       `json:"product_id" db:"product_id"`
	BatchNumber       string      `json:"batch_number" db:"batch_number"`
	PurchaseQuantity  int         `json:"purchase_quantity" db:"purchase_quantity"`
	RemainingQuantity int         `json:"remaining_quantity" db:"remaining_quantity"`
	ExpirationDate    Date        `json:"expiration_date" db:"expiration_date"`
	Status            BatchStatus `json:"status" db:"status"`
	PurchaseDate      Date        `json:"purchase_date" db:"purchase_date"`
	Supplier          string      `json:"supplier" db:"supplier"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`

	// Joined fields (not always populated).
	ProductName string `json:"product_name,omitempty" db:"product_name"`
}

// Key returns the batch's (product, batch number) reference.
func (b Batch) Key() BatchKey {
	return BatchKey{ProductID: b.ProductID, BatchNumber: b.BatchNumber}
}

// StatusRule is one set-based status sweep: every batch whose expiration
// date lies in (After, Through] and whose status is neither Status nor
// one of Unless is moved to Status. A nil bound is open.
type StatusRule struct {
	Status  BatchStatus
	After   *Date
	Through *Date
	Unless  []BatchStatus
}

// Matches reports whether the rule would change b.
func (r StatusRule) Matches(b Batch) bool {
	if b.Status == r.Status || slices.Contains(r.Unless, b.Status) {
		return false
	}
	if r.After != nil && !b.ExpirationDate.After(*r.After) {
		return false
	}
	if r.Through != nil && b.ExpirationDate.After(*r.Through) {
		return false
	}
	return true
}
