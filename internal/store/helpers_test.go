package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

var testToday = model.NewDate(2026, time.October, 19)

func mustProduct(t *testing.T, database *sqlx.DB, name, productType string) *model.Product {
	t.Helper()
	p, err := CreateProduct(context.Background(), database, ProductInput{Name: name, Type: productType})
	if err != nil {
		t.Fatalf("CreateProduct(%q): %v", name, err)
	}
	return p
}

func mustPurchase(t *testing.T, database *sqlx.DB, productID int64, batch string, qty int, expires model.Date) *model.Batch {
	t.Helper()
	b, err := CreatePurchase(context.Background(), database, PurchaseInput{
		ProductID:        productID,
		BatchNumber:      batch,
		PurchaseQuantity: qty,
		ExpirationDate:   expires,
		PurchaseDate:     testToday,
		Supplier:         "Acme Pharma",
	})
	if err != nil {
		t.Fatalf("CreatePurchase(%q): %v", batch, err)
	}
	return b
}

func mustOrder(t *testing.T, database *sqlx.DB, productID int64, batch string, qty int) *model.Order {
	t.Helper()
	o, err := CreateOrder(context.Background(), database, OrderInput{
		ProductID:   productID,
		BatchNumber: batch,
		Quantity:    qty,
		Customer:    "Ward 3",
		OrderDate:   testToday,
	})
	if err != nil {
		t.Fatalf("CreateOrder(%q, %d): %v", batch, qty, err)
	}
	return o
}

func setStatus(t *testing.T, database *sqlx.DB, id int64, status model.BatchStatus) {
	t.Helper()
	if _, err := database.Exec(database.Rebind(`UPDATE batches SET status = ? WHERE id = ?`), status, id); err != nil {
		t.Fatalf("setting batch status: %v", err)
	}
}
