// Package reconcile keeps batch expiry statuses and their notifications
// consistent with the calendar. A pass reclassifies every batch against
// today's date and then ignores notifications that no longer describe
// their batch, all in one transaction.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/model"
)

// NearExpiryDays is the width of the near-expiry window.
const NearExpiryDays = 7

// StatusRules returns the classification sweeps for today, in the order
// they must run. Each later sweep leaves alone batches that an earlier,
// more urgent sweep has claimed.
func StatusRules(today model.Date) []model.StatusRule {
	horizon := today.AddDays(NearExpiryDays)
	return []model.StatusRule{
		{
			Status:  model.BatchExpired,
			Through: &today,
		},
		{
			Status:  model.BatchNearExpiry,
			After:   &today,
			Through: &horizon,
			Unless:  []model.BatchStatus{model.BatchExpired},
		},
		{
			Status: model.BatchInStock,
			After:  &horizon,
			Unless: []model.BatchStatus{model.BatchExpired, model.BatchNearExpiry},
		},
	}
}

// SuppressionRules are applied after classification.
var SuppressionRules = []model.SuppressionRule{
	{BatchStatus: model.BatchExpired, Type: model.NotifyNearExpiry},
	{BatchStatus: model.BatchNearExpiry, Type: model.NotifyExpired},
}

// Result reports what one pass changed.
type Result struct {
	Today        model.Date
	Reclassified map[model.BatchStatus]int64
	Suppressed   int64
}

// Changed reports whether the pass modified anything.
func (r Result) Changed() bool {
	if r.Suppressed > 0 {
		return true
	}
	for _, n := range r.Reclassified {
		if n > 0 {
			return true
		}
	}
	return false
}

// Error is a failed reconciliation pass. Nothing from the pass was
// committed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reconciliation failed: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reconciler runs reconciliation passes.
type Reconciler struct {
	storage Storage
	clock   clock.Clock
	metrics *metrics.Metrics
}

// New returns a Reconciler. m may be nil.
func New(storage Storage, clk clock.Clock, m *metrics.Metrics) *Reconciler {
	return &Reconciler{storage: storage, clock: clk, metrics: m}
}

// Today returns the date passes are evaluated against.
func (r *Reconciler) Today() model.Date {
	return clock.Today(r.clock)
}

// Run performs one pass. On failure it returns a *Error and the stored
// statuses are left as they were.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	today := r.Today()

	var res Result
	err := r.storage.WithinTx(ctx, func(tx Tx) error {
		res = Result{Today: today, Reclassified: make(map[model.BatchStatus]int64, 3)}

		for _, rule := range StatusRules(today) {
			n, err := tx.BulkSetStatus(ctx, rule)
			if err != nil {
				return &Error{Op: fmt.Sprintf("classifying %s batches", rule.Status), Err: err}
			}
			res.Reclassified[rule.Status] = n
		}

		for _, rule := range SuppressionRules {
			n, err := tx.SuppressMatching(ctx, rule)
			if err != nil {
				return &Error{Op: fmt.Sprintf("suppressing %s notifications of %s batches", rule.Type, rule.BatchStatus), Err: err}
			}
			res.Suppressed += n
		}
		return nil
	})
	if err != nil {
		var rErr *Error
		if !errors.As(err, &rErr) {
			rErr = &Error{Op: "transaction", Err: err}
		}
		r.metrics.ObserveReconciliation(time.Since(start), nil, 0, rErr)
		return Result{Today: today}, rErr
	}

	r.metrics.ObserveReconciliation(time.Since(start), res.Reclassified, res.Suppressed, nil)
	if res.Changed() {
		slog.Info("reconciled expiry status",
			"today", today.String(),
			"expired", res.Reclassified[model.BatchExpired],
			"near_expiry", res.Reclassified[model.BatchNearExpiry],
			"in_stock", res.Reclassified[model.BatchInStock],
			"suppressed", res.Suppressed,
		)
	}
	return res, nil
}
