package notify

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

var today = model.NewDate(2026, time.October, 19)

func newTestJob(t *testing.T) (*Job, *sqlx.DB, *clock.Fake) {
	t.Helper()
	database := db.NewTestDB(t)
	clk := clock.NewFakeDate(today)
	m := metrics.New(prometheus.NewRegistry())
	return &Job{
		DB:         database,
		Reconciler: reconcile.New(reconcile.SQLStorage(database), clk, m),
		Metrics:    m,
	}, database, clk
}

func purchase(t *testing.T, database *sqlx.DB, productID int64, number string, qty, expiresIn int) *model.Batch {
	t.Helper()
	b, err := store.CreatePurchase(context.Background(), database, store.PurchaseInput{
		ProductID:        productID,
		BatchNumber:      number,
		PurchaseQuantity: qty,
		ExpirationDate:   today.AddDays(expiresIn),
		PurchaseDate:     today.AddDays(-60),
	})
	require.NoError(t, err)
	return b
}

func TestRunRaisesOncePerBatchAndType(t *testing.T) {
	job, database, _ := newTestJob(t)
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, database, store.ProductInput{Name: "Insulin", Type: model.ProductTypeMedicine})
	require.NoError(t, err)
	purchase(t, database, p.ID, "EXPIRED", 4, -2)
	purchase(t, database, p.ID, "SOON", 6, 5)
	purchase(t, database, p.ID, "LATER", 8, 40)

	raised, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raised[model.NotifyExpired])
	assert.Equal(t, 1, raised[model.NotifyNearExpiry])

	again, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again[model.NotifyExpired]+again[model.NotifyNearExpiry], "second run must not duplicate")

	notifications, err := store.ListNotifications(ctx, database, true)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestRunSkipsEmptyBatches(t *testing.T) {
	job, database, _ := newTestJob(t)
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, database, store.ProductInput{Name: "Gauze", Type: model.ProductTypeSupply})
	require.NoError(t, err)
	purchase(t, database, p.ID, "USED", 2, 3)
	_, err = store.CreateOrder(ctx, database, store.OrderInput{ProductID: p.ID, BatchNumber: "USED", Quantity: 2, Customer: "OR", OrderDate: today})
	require.NoError(t, err)

	raised, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, raised[model.NotifyNearExpiry])
}

func TestNearExpiryNoticeSupersededOnExpiry(t *testing.T) {
	job, database, clk := newTestJob(t)
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, database, store.ProductInput{Name: "Vaccine", Type: model.ProductTypeMedicine})
	require.NoError(t, err)
	purchase(t, database, p.ID, "V1", 10, 2)

	_, err = job.Run(ctx)
	require.NoError(t, err)

	clk.AdvanceDays(2)
	raised, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raised[model.NotifyExpired])

	active, err := store.ListNotifications(ctx, database, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, model.NotifyExpired, active[0].Type)

	all, err := store.ListNotifications(ctx, database, false)
	require.NoError(t, err)
	assert.Len(t, all, 2, "the near-expiry notice is kept, ignored")
}

func TestMessage(t *testing.T) {
	b := model.Batch{ProductName: "Paracetamol", BatchNumber: "P-1", RemainingQuantity: 12, ExpirationDate: today.AddDays(5)}
	assert.Equal(t, "Paracetamol (batch P-1) expires in 5 days on 2026-10-24; 12 units remaining.",
		Message(b, model.NotifyNearExpiry, today))

	b.ExpirationDate = today.AddDays(1)
	assert.Contains(t, Message(b, model.NotifyNearExpiry, today), "expires tomorrow")

	b.ExpirationDate = today.AddDays(-1)
	assert.Equal(t, "Paracetamol (batch P-1) expired on 2026-10-18; 12 units remaining.",
		Message(b, model.NotifyExpired, today))

	b.ProductName = ""
	b.ProductID = 7
	assert.Contains(t, Message(b, model.NotifyExpired, today), "Product 7")
}

func TestSchedule(t *testing.T) {
	job, _, _ := newTestJob(t)

	_, err := Schedule("not a schedule", job)
	assert.Error(t, err)

	c, err := Schedule(DefaultSchedule, job)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
