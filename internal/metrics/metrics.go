// Package metrics exposes Prometheus counters for reconciliation, the
// notification raiser and the HTTP API. All methods are safe on a nil
// *Metrics, which records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/lekarna/internal/model"
)

// Low-cardinality failure reasons.
const (
	ReasonConstraint  = "constraint"
	ReasonUnavailable = "unavailable"
	ReasonNotFound    = "not_found"
	ReasonCanceled    = "canceled"
	ReasonUnknown     = "unknown"
)

// Metrics holds the application's collectors.
type Metrics struct {
	reconciliations     *prometheus.CounterVec
	reconcileDuration   prometheus.Histogram
	reclassified        *prometheus.CounterVec
	suppressed          prometheus.Counter
	notifyRuns          *prometheus.CounterVec
	notificationsRaised *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekarna_reconciliations_total",
			Help: "Expiry reconciliation passes by outcome.",
		}, []string{"result", "reason"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lekarna_reconciliation_duration_seconds",
			Help:    "Time spent in one reconciliation pass, including the transaction commit.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		reclassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekarna_batches_reclassified_total",
			Help: "Batches moved to a new expiry status.",
		}, []string{"status"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lekarna_notifications_suppressed_total",
			Help: "Notifications ignored because their batch moved to a different expiry status.",
		}),
		notifyRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekarna_notify_runs_total",
			Help: "Notification raiser runs by outcome.",
		}, []string{"result", "reason"}),
		notificationsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekarna_notifications_raised_total",
			Help: "Notifications created by the raiser.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekarna_http_requests_total",
			Help: "API requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lekarna_http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		m.reconciliations,
		m.reconcileDuration,
		m.reclassified,
		m.suppressed,
		m.notifyRuns,
		m.notificationsRaised,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// ObserveReconciliation records one reconciliation pass. Counts are only
// added for passes that committed.
func (m *Metrics) ObserveReconciliation(elapsed time.Duration, reclassified map[model.BatchStatus]int64, suppressed int64, err error) {
	if m == nil {
		return
	}
	m.reconcileDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.reconciliations.WithLabelValues("error", Reason(err)).Inc()
		return
	}
	m.reconciliations.WithLabelValues("ok", "").Inc()
	for status, n := range reclassified {
		m.reclassified.WithLabelValues(string(status)).Add(float64(n))
	}
	m.suppressed.Add(float64(suppressed))
}

// ObserveNotifyRun records one run of the notification raiser.
func (m *Metrics) ObserveNotifyRun(raised map[model.NotificationType]int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notifyRuns.WithLabelValues("error", Reason(err)).Inc()
		return
	}
	m.notifyRuns.WithLabelValues("ok", "").Inc()
	for typ, n := range raised {
		m.notificationsRaised.WithLabelValues(string(typ)).Add(float64(n))
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Reason maps an error onto a failure reason label.
func Reason(err error) string {
	switch {
	case errors.Is(err, model.ErrConstraintViolation):
		return ReasonConstraint
	case errors.Is(err, model.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		return ReasonUnavailable
	case errors.Is(err, model.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	default:
		return ReasonUnknown
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
// A nil g serves the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
