package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/model"
)

func TestNotificationLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Vaccine", model.ProductTypeMedicine)
	b := mustPurchase(t, database, p.ID, "V1", 10, testToday.AddDays(3))

	id, err := CreateNotification(ctx, database, b.Key(), model.NotifyNearExpiry, "Vaccine V1 expires soon")
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	n, err := GetNotification(ctx, database, id)
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if n.IsRead || n.Ignored || n.LastNotifiedAt != nil {
		t.Errorf("expected a fresh notification, got %+v", n)
	}

	if err := MarkNotificationRead(ctx, database, id); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	if err := TouchNotification(ctx, database, id, at); err != nil {
		t.Fatalf("TouchNotification: %v", err)
	}

	n, _ = GetNotification(ctx, database, id)
	if !n.IsRead {
		t.Error("expected notification to be read")
	}
	if n.LastNotifiedAt == nil || !n.LastNotifiedAt.Equal(at) {
		t.Errorf("expected last_notified_at %v, got %v", at, n.LastNotifiedAt)
	}

	if err := IgnoreNotification(ctx, database, id); err != nil {
		t.Fatalf("IgnoreNotification: %v", err)
	}
	active, _ := ListNotifications(ctx, database, true)
	if len(active) != 0 {
		t.Errorf("expected no active notifications, got %d", len(active))
	}
	all, _ := ListNotifications(ctx, database, false)
	if len(all) != 1 {
		t.Errorf("expected ignored notification to be kept, got %d", len(all))
	}

	if err := MarkNotificationRead(ctx, database, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSuppressNotifications(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Vaccine", model.ProductTypeMedicine)
	expired := mustPurchase(t, database, p.ID, "EXP", 10, testToday.AddDays(-1))
	near := mustPurchase(t, database, p.ID, "NEAR", 10, testToday.AddDays(3))
	setStatus(t, database, expired.ID, model.BatchExpired)
	setStatus(t, database, near.ID, model.BatchNearExpiry)

	staleNear, _ := CreateNotification(ctx, database, expired.Key(), model.NotifyNearExpiry, "stale")
	currentExpired, _ := CreateNotification(ctx, database, expired.Key(), model.NotifyExpired, "current")
	currentNear, _ := CreateNotification(ctx, database, near.Key(), model.NotifyNearExpiry, "current")

	n, err := SuppressNotifications(ctx, database, model.SuppressionRule{BatchStatus: model.BatchExpired, Type: model.NotifyNearExpiry})
	if err != nil {
		t.Fatalf("SuppressNotifications: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 suppressed, got %d", n)
	}

	n, err = SuppressNotifications(ctx, database, model.SuppressionRule{BatchStatus: model.BatchNearExpiry, Type: model.NotifyExpired})
	if err != nil {
		t.Fatalf("SuppressNotifications: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 suppressed, got %d", n)
	}

	for id, ignored := range map[int64]bool{staleNear: true, currentExpired: false, currentNear: false} {
		got, _ := GetNotification(ctx, database, id)
		if got.Ignored != ignored {
			t.Errorf("notification %q: expected ignored=%v", got.Message, ignored)
		}
	}

	// Already ignored rows are not counted again.
	n, _ = SuppressNotifications(ctx, database, model.SuppressionRule{BatchStatus: model.BatchExpired, Type: model.NotifyNearExpiry})
	if n != 0 {
		t.Errorf("expected second pass to suppress nothing, got %d", n)
	}
}

func TestListUnnotifiedBatches(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := mustProduct(t, database, "Vaccine", model.ProductTypeMedicine)
	notified := mustPurchase(t, database, p.ID, "N1", 10, testToday.AddDays(2))
	fresh := mustPurchase(t, database, p.ID, "N2", 10, testToday.AddDays(3))
	empty := mustPurchase(t, database, p.ID, "N3", 1, testToday.AddDays(4))
	for _, b := range []*model.Batch{notified, fresh, empty} {
		setStatus(t, database, b.ID, model.BatchNearExpiry)
	}
	mustOrder(t, database, p.ID, "N3", 1)
	CreateNotification(ctx, database, notified.Key(), model.NotifyNearExpiry, "already told")

	batches, err := ListUnnotifiedBatches(ctx, database, model.BatchNearExpiry, model.NotifyNearExpiry)
	if err != nil {
		t.Fatalf("ListUnnotifiedBatches: %v", err)
	}
	if len(batches) != 1 || batches[0].BatchNumber != "N2" {
		t.Errorf("expected only N2, got %+v", batches)
	}
}
