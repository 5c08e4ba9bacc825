package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// DashboardHandler serves the stock overview.
type DashboardHandler struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	reconcileForRead(w, r, h.Reconciler)

	d, err := store.Dashboard(r.Context(), h.DB, h.Reconciler.Today())
	if err != nil {
		storeError(w, "dashboard", err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}
