package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/lekarna/internal/reconcile"
)

// ReconcileHandler runs a reconciliation pass on demand.
type ReconcileHandler struct {
	Reconciler *reconcile.Reconciler
}

type reconcileResponse struct {
	Today        string           `json:"today"`
	Reclassified map[string]int64 `json:"reclassified"`
	Suppressed   int64            `json:"suppressed"`
}

// Run handles POST /api/reconcile. Unlike read paths, a failed pass is
// reported as 503.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reconciler.Run(r.Context())
	if err != nil {
		slog.Error("reconciliation failed", "user", GetClaims(r.Context()).Username, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "reconciliation failed, try again")
		return
	}

	resp := reconcileResponse{
		Today:        res.Today.String(),
		Reclassified: make(map[string]int64, len(res.Reclassified)),
		Suppressed:   res.Suppressed,
	}
	for status, n := range res.Reclassified {
		resp.Reclassified[string(status)] = n
	}
	jsonResponse(w, http.StatusOK, resp)
}
