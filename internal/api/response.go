package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// staleWarning is sent when a read could not reconcile first.
const staleWarning = `199 lekarna "expiry status may be stale"`

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store error onto a response. what names the resource
// in the message. A nil err is a lookup that found nothing.
func storeError(w http.ResponseWriter, what string, err error) {
	switch {
	case err == nil, errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, model.ErrConstraintViolation):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrStorageUnavailable):
		slog.Error("storage unavailable", "resource", what, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "storage unavailable, try again")
	default:
		slog.Error("request failed", "resource", what, "error", err)
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to process %s", what))
	}
}

// reconcileForRead brings expiry statuses up to date before a read. A
// failed pass does not fail the read; the response carries a warning
// instead.
func reconcileForRead(w http.ResponseWriter, r *http.Request, rec *reconcile.Reconciler) {
	if rec == nil {
		return
	}
	if _, err := rec.Run(r.Context()); err != nil {
		slog.Warn("serving possibly stale expiry status", "path", r.URL.Path, "error", err)
		w.Header().Add("Warning", staleWarning)
	}
}

// pathID parses the {id} path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter. Absent means 0.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// logActivity records a staff action. Failures are logged and otherwise
// ignored.
func logActivity(r *http.Request, db sqlx.ExtContext, format string, args ...any) {
	claims := GetClaims(r.Context())
	if claims == nil {
		return
	}
	logActivityAs(r, db, claims.Username, format, args...)
}

func logActivityAs(r *http.Request, db sqlx.ExtContext, username, format string, args ...any) {
	activity := fmt.Sprintf(format, args...)
	if err := store.LogActivity(r.Context(), db, username, activity); err != nil {
		slog.Warn("failed to record activity", "user", username, "activity", activity, "error", err)
	}
}
