package api

import (
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/store"
)

// defaultActivityLimit caps GET /api/activity without ?limit.
const defaultActivityLimit = 100

// ActivityHandler serves the staff activity log (admin only).
type ActivityHandler struct {
	DB *sqlx.DB
}

// List handles GET /api/activity. ?limit=0 returns the whole log.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := store.ListActivity(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, "activity", err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}
