package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/model"
)

func TestCreateOrderDrawsFromBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Aspirin", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "ASP1", 10, testToday.AddDays(60))

	o := mustOrder(t, database, p.ID, "ASP1", 4)
	if o.ProductName != "Aspirin" || o.Quantity != 4 {
		t.Errorf("unexpected order %+v", o)
	}

	b, _ := GetBatchByKey(ctx, database, o.Key())
	if b.RemainingQuantity != 6 {
		t.Errorf("expected remaining 6, got %d", b.RemainingQuantity)
	}
}

func TestCreateOrderOverdrawRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Aspirin", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "ASP1", 3, testToday.AddDays(60))

	_, err := CreateOrder(ctx, database, OrderInput{ProductID: p.ID, BatchNumber: "ASP1", Quantity: 4, Customer: "ER", OrderDate: testToday})
	if !errors.Is(err, model.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	orders, _ := ListOrders(ctx, database, 0)
	if len(orders) != 0 {
		t.Errorf("expected no orders recorded, got %d", len(orders))
	}

	_, err = CreateOrder(ctx, database, OrderInput{ProductID: p.ID, BatchNumber: "MISSING", Quantity: 1, Customer: "ER", OrderDate: testToday})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown batch, got %v", err)
	}
}

func TestUpdateOrderSameBatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Aspirin", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "ASP1", 10, testToday.AddDays(60))
	o := mustOrder(t, database, p.ID, "ASP1", 8)

	// 2 remaining, but the 8 already taken are returned first.
	in := OrderInput{ProductID: p.ID, BatchNumber: "ASP1", Quantity: 10, Customer: "Ward 3", OrderDate: testToday}
	got, err := UpdateOrder(ctx, database, o.ID, in)
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if got.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", got.Quantity)
	}

	b, _ := GetBatchByKey(ctx, database, o.Key())
	if b.RemainingQuantity != 0 {
		t.Errorf("expected remaining 0, got %d", b.RemainingQuantity)
	}
}

func TestUpdateOrderMovesBetweenBatches(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Aspirin", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "OLD", 10, testToday.AddDays(60))
	mustPurchase(t, database, p.ID, "NEW", 10, testToday.AddDays(90))
	o := mustOrder(t, database, p.ID, "OLD", 5)

	in := OrderInput{ProductID: p.ID, BatchNumber: "NEW", Quantity: 3, Customer: "Ward 3", OrderDate: testToday}
	if _, err := UpdateOrder(ctx, database, o.ID, in); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	oldBatch, _ := GetBatchByKey(ctx, database, model.BatchKey{ProductID: p.ID, BatchNumber: "OLD"})
	newBatch, _ := GetBatchByKey(ctx, database, model.BatchKey{ProductID: p.ID, BatchNumber: "NEW"})
	if oldBatch.RemainingQuantity != 10 {
		t.Errorf("expected OLD fully restored, got %d", oldBatch.RemainingQuantity)
	}
	if newBatch.RemainingQuantity != 7 {
		t.Errorf("expected NEW at 7, got %d", newBatch.RemainingQuantity)
	}

	// Too much for the new batch: the whole edit rolls back.
	in.Quantity = 11
	if _, err := UpdateOrder(ctx, database, o.ID, in); !errors.Is(err, model.ErrConstraintViolation) {
		t.Errorf("expected ErrConstraintViolation, got %v", err)
	}
	newBatch, _ = GetBatchByKey(ctx, database, model.BatchKey{ProductID: p.ID, BatchNumber: "NEW"})
	if newBatch.RemainingQuantity != 7 {
		t.Errorf("expected NEW unchanged at 7, got %d", newBatch.RemainingQuantity)
	}
}

func TestDeleteOrderRestoresQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Aspirin", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "ASP1", 10, testToday.AddDays(60))
	o := mustOrder(t, database, p.ID, "ASP1", 6)

	deleted, err := DeleteOrder(ctx, database, o.ID)
	if err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if deleted.ID != o.ID {
		t.Errorf("expected deleted order %d, got %d", o.ID, deleted.ID)
	}

	b, _ := GetBatchByKey(ctx, database, o.Key())
	if b.RemainingQuantity != 10 {
		t.Errorf("expected remaining restored to 10, got %d", b.RemainingQuantity)
	}

	if _, err := DeleteOrder(ctx, database, o.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentOrdersCannotOverdraw(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Morphine", model.ProductTypeMedicine)
	mustPurchase(t, database, p.ID, "M1", 3, testToday.AddDays(60))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := CreateOrder(ctx, database, OrderInput{ProductID: p.ID, BatchNumber: "M1", Quantity: 2, Customer: "ICU", OrderDate: testToday})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrConstraintViolation):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Errorf("expected one success and one rejection, got %d/%d", succeeded, rejected)
	}

	b, _ := GetBatchByKey(ctx, database, model.BatchKey{ProductID: p.ID, BatchNumber: "M1"})
	if b.RemainingQuantity != 1 {
		t.Errorf("expected remaining 1, got %d", b.RemainingQuantity)
	}
}

func TestOrderInputValidate(t *testing.T) {
	valid := OrderInput{ProductID: 1, BatchNumber: "B", Quantity: 1, Customer: "c", OrderDate: testToday}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid input, got %v", err)
	}

	invalid := []OrderInput{
		{BatchNumber: "B", Quantity: 1, Customer: "c", OrderDate: testToday},
		{ProductID: 1, Quantity: 1, Customer: "c", OrderDate: testToday},
		{ProductID: 1, BatchNumber: "B", Quantity: 0, Customer: "c", OrderDate: testToday},
		{ProductID: 1, BatchNumber: "B", Quantity: 1, OrderDate: testToday},
		{ProductID: 1, BatchNumber: "B", Quantity: 1, Customer: "c"},
	}
	for _, in := range invalid {
		if err := in.Validate(); err == nil {
			t.Errorf("expected error for %+v", in)
		}
	}
}
