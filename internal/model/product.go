package model

import "time"

// Category groups products for browsing.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product is a medicine or supply that is stocked in batches.
type Product struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Type       string    `json:"type" db:"type"`
	CategoryID *int64    `json:"category_id,omitempty" db:"category_id"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Derived on read (not always populated).
	CategoryName string `json:"category_name,omitempty" db:"category_name"`
	Stock        int    `json:"stock" db:"stock"`
	StockStatus  string `json:"stock_status" db:"stock_status"`
}

// Product types.
const (
	ProductTypeMedicine = "medicine"
	ProductTypeSupply   = "supply"
)

// Product statuses.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product stock statuses.
const (
	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// ValidProductType reports whether t is a known product type.
func ValidProductType(t string) bool {
	return t == ProductTypeMedicine || t == ProductTypeSupply
}

// ValidProductStatus reports whether s is a known product status.
func ValidProductStatus(s string) bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}
