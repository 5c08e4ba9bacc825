package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lekarna/internal/model"
)

func TestReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"constraint", fmt.Errorf("adjusting: %w", model.ErrConstraintViolation), ReasonConstraint},
		{"unavailable", fmt.Errorf("begin: %w", model.ErrStorageUnavailable), ReasonUnavailable},
		{"deadline", context.DeadlineExceeded, ReasonUnavailable},
		{"not found", model.ErrNotFound, ReasonNotFound},
		{"canceled", context.Canceled, ReasonCanceled},
		{"unknown", errors.New("boom"), ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reason(tc.err))
		})
	}
}

func TestObserveReconciliation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReconciliation(10*time.Millisecond, map[model.BatchStatus]int64{
		model.BatchExpired:    2,
		model.BatchNearExpiry: 1,
	}, 3, nil)
	m.ObserveReconciliation(time.Millisecond, nil, 0, model.ErrStorageUnavailable)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("error", ReasonUnavailable)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reclassified.WithLabelValues(string(model.BatchExpired))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reclassified.WithLabelValues(string(model.BatchNearExpiry))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.suppressed))
}

func TestObserveNotifyRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveNotifyRun(map[model.NotificationType]int{model.NotifyExpired: 4}, nil)
	m.ObserveNotifyRun(nil, model.ErrConstraintViolation)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.notificationsRaised.WithLabelValues(string(model.NotifyExpired))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyRuns.WithLabelValues("error", ReasonConstraint)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReconciliation(time.Second, nil, 0, nil)
		m.ObserveNotifyRun(nil, nil)
		m.ObserveRequest(http.MethodGet, http.StatusOK, time.Second)
	})
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest(http.MethodGet, http.StatusOK, 5*time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `lekarna_http_requests_total{code="200",method="GET"} 1`)
}
