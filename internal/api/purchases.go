package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// PurchasesHandler handles stock-in endpoints. A purchase is one batch.
type PurchasesHandler struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
	Clock      clock.Clock
}

type purchaseRequest struct {
	ProductID        int64      `json:"product_id"`
	BatchNumber      string     `json:"batch_number"`
	PurchaseQuantity int        `json:"purchase_quantity"`
	ExpirationDate   model.Date `json:"expiration_date"`
	PurchaseDate     model.Date `json:"purchase_date"`
	Supplier         string     `json:"supplier"`
}

func (req purchaseRequest) input() store.PurchaseInput {
	return store.PurchaseInput{
		ProductID:        req.ProductID,
		BatchNumber:      strings.TrimSpace(req.BatchNumber),
		PurchaseQuantity: req.PurchaseQuantity,
		ExpirationDate:   req.ExpirationDate,
		PurchaseDate:     req.PurchaseDate,
		Supplier:         strings.TrimSpace(req.Supplier),
	}
}

// List handles GET /api/purchases. Optional filters: product_id, status.
func (h *PurchasesHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryID(w, r, "product_id")
	if !ok {
		return
	}
	status := model.BatchStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	batches, err := store.ListBatches(r.Context(), h.DB, store.BatchFilter{ProductID: productID, Status: status})
	if err != nil {
		storeError(w, "purchases", err)
		return
	}
	jsonResponse(w, http.StatusOK, batches)
}

// Get handles GET /api/purchases/{id}.
func (h *PurchasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "purchase")
	if !ok {
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	batch, err := store.GetBatch(r.Context(), h.DB, id)
	if err != nil || batch == nil {
		storeError(w, "purchase", err)
		return
	}
	jsonResponse(w, http.StatusOK, batch)
}

// Create handles POST /api/purchases. The purchase date defaults to today
// and a batch number is generated when none is given.
func (h *PurchasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := req.input()
	if in.PurchaseDate.IsZero() {
		in.PurchaseDate = clock.Today(h.Clock)
	}
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := store.CreatePurchase(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, "purchase", err)
		return
	}

	slog.Info("purchase recorded", "user", GetClaims(r.Context()).Username,
		"product", batch.ProductName, "batch", batch.BatchNumber,
		"quantity", batch.PurchaseQuantity, "expires", batch.ExpirationDate.String())
	logActivity(r, h.DB, "Added purchase of %d x %s (batch %s)", batch.PurchaseQuantity, batch.ProductName, batch.BatchNumber)
	jsonResponse(w, http.StatusCreated, batch)
}

// Update handles PUT /api/purchases/{id}. The batch number cannot change.
func (h *PurchasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "purchase")
	if !ok {
		return
	}

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := store.UpdatePurchase(r.Context(), h.DB, id, in)
	if err != nil || batch == nil {
		storeError(w, "purchase", err)
		return
	}

	slog.Info("purchase updated", "user", GetClaims(r.Context()).Username,
		"product", batch.ProductName, "batch", batch.BatchNumber)
	logActivity(r, h.DB, "Updated purchase of %s (batch %s)", batch.ProductName, batch.BatchNumber)
	jsonResponse(w, http.StatusOK, batch)
}

// Delete handles DELETE /api/purchases/{id}. Purchases with orders cannot
// be deleted.
func (h *PurchasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "purchase")
	if !ok {
		return
	}

	batch, err := store.DeletePurchase(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, "purchase", err)
		return
	}

	slog.Info("purchase deleted", "user", GetClaims(r.Context()).Username,
		"product", batch.ProductName, "batch", batch.BatchNumber)
	logActivity(r, h.DB, "Deleted purchase of %s (batch %s)", batch.ProductName, batch.BatchNumber)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "purchase deleted"})
}
