// Package notify raises expiry notifications. It is the only writer of
// new notification rows; the reconciler only ever ignores them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// DefaultSchedule runs the raiser at the top of every hour.
const DefaultSchedule = "@hourly"

// runTimeout bounds one scheduled run.
const runTimeout = 2 * time.Minute

// raiseRules pairs each warning status with the notification it raises.
var raiseRules = []struct {
	Status model.BatchStatus
	Type   model.NotificationType
}{
	{model.BatchExpired, model.NotifyExpired},
	{model.BatchNearExpiry, model.NotifyNearExpiry},
}

// Job reconciles, then creates one notification per batch that has
// entered a warning state, still holds stock and has not been warned
// about yet.
type Job struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
	Metrics    *metrics.Metrics
}

// Run performs one pass and returns how many notifications of each type
// it created.
func (j *Job) Run(ctx context.Context) (map[model.NotificationType]int, error) {
	res, err := j.Reconciler.Run(ctx)
	if err != nil {
		j.Metrics.ObserveNotifyRun(nil, err)
		return nil, err
	}

	raised := make(map[model.NotificationType]int, len(raiseRules))
	err = store.WithTx(ctx, j.DB, func(tx *sqlx.Tx) error {
		for _, rule := range raiseRules {
			batches, err := store.ListUnnotifiedBatches(ctx, tx, rule.Status, rule.Type)
			if err != nil {
				return err
			}
			for _, b := range batches {
				if _, err := store.CreateNotification(ctx, tx, b.Key(), rule.Type, Message(b, rule.Type, res.Today)); err != nil {
					return err
				}
				raised[rule.Type]++
			}
		}
		return nil
	})
	if err != nil {
		j.Metrics.ObserveNotifyRun(nil, err)
		return nil, fmt.Errorf("raising notifications: %w", err)
	}

	j.Metrics.ObserveNotifyRun(raised, nil)
	if n := raised[model.NotifyNearExpiry] + raised[model.NotifyExpired]; n > 0 {
		slog.Info("raised expiry notifications",
			"near_expiry", raised[model.NotifyNearExpiry],
			"expired", raised[model.NotifyExpired],
		)
	}
	return raised, nil
}

// Message renders the text of a notification about b.
func Message(b model.Batch, typ model.NotificationType, today model.Date) string {
	name := b.ProductName
	if name == "" {
		name = fmt.Sprintf("Product %d", b.ProductID)
	}

	switch typ {
	case model.NotifyExpired:
		return fmt.Sprintf("%s (batch %s) expired on %s; %d units remaining.",
			name, b.BatchNumber, b.ExpirationDate, b.RemainingQuantity)
	default:
		days := int(b.ExpirationDate.Time().Sub(today.Time()).Hours() / 24)
		when := fmt.Sprintf("in %d days", days)
		if days == 1 {
			when = "tomorrow"
		}
		return fmt.Sprintf("%s (batch %s) expires %s on %s; %d units remaining.",
			name, b.BatchNumber, when, b.ExpirationDate, b.RemainingQuantity)
	}
}

// Schedule starts a cron scheduler that runs job on schedule. Callers stop it
// with Stop.
func Schedule(schedule string, job *Job) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			slog.Error("notification run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid notify schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
