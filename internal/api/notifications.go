package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// NotificationsHandler handles expiry notification endpoints.
type NotificationsHandler struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
	Clock      clock.Clock
}

// List handles GET /api/notifications. Ignored notifications are only
// included with ?all=true.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("all") != "true"

	reconcileForRead(w, r, h.Reconciler)

	notifications, err := store.ListNotifications(r.Context(), h.DB, active)
	if err != nil {
		storeError(w, "notifications", err)
		return
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(id int64) error {
		return store.MarkNotificationRead(r.Context(), h.DB, id)
	})
}

// Touch handles POST /api/notifications/{id}/touch, recording that the
// notification was shown again.
func (h *NotificationsHandler) Touch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(id int64) error {
		return store.TouchNotification(r.Context(), h.DB, id, h.Clock.Now())
	})
}

// Ignore handles POST /api/notifications/{id}/ignore. Ignoring is final.
func (h *NotificationsHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	n := h.update(w, r, func(id int64) error {
		return store.IgnoreNotification(r.Context(), h.DB, id)
	})
	if n != nil {
		logActivity(r, h.DB, "Dismissed %s notification for %s", n.Type, n.BatchNumber)
	}
}

// update applies one change to the notification in the path and writes
// the result. It returns nil if a response with an error was written.
func (h *NotificationsHandler) update(w http.ResponseWriter, r *http.Request, apply func(id int64) error) *model.Notification {
	id, ok := pathID(w, r, "notification")
	if !ok {
		return nil
	}

	if err := apply(id); err != nil {
		storeError(w, "notification", err)
		return nil
	}

	n, err := store.GetNotification(r.Context(), h.DB, id)
	if err != nil || n == nil {
		storeError(w, "notification", err)
		return nil
	}
	jsonResponse(w, http.StatusOK, n)
	return n
}
