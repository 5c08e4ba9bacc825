package model

// Dashboard is the stock overview shown on the landing page. Weekly
// figures count purchases and orders dated today or up to a week back.
type Dashboard struct {
	TotalStock        int     `json:"total_stock" db:"total_stock"`
	Medicines         int     `json:"medicines" db:"medicines"`
	Supplies          int     `json:"supplies" db:"supplies"`
	StockInMedicines  int     `json:"stock_in_medicines" db:"stock_in_medicines"`
	StockInSupplies   int     `json:"stock_in_supplies" db:"stock_in_supplies"`
	StockOutMedicines int     `json:"stock_out_medicines" db:"stock_out_medicines"`
	StockOutSupplies  int     `json:"stock_out_supplies" db:"stock_out_supplies"`
	OutOfStock        int     `json:"out_of_stock" db:"out_of_stock"`
	TotalOrders       int     `json:"total_orders" db:"total_orders"`
	NearExpiryCount   int     `json:"near_expiry_count" db:"-"`
	NearExpiry        []Batch `json:"near_expiry" db:"-"`
}
