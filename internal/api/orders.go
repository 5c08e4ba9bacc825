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

// OrdersHandler handles stock-out endpoints. Every write adjusts the
// remaining quantity of the batch it draws from.
type OrdersHandler struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
	Clock      clock.Clock
}

type orderRequest struct {
	ProductID   int64      `json:"product_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	Customer    string     `json:"customer"`
	OrderDate   model.Date `json:"order_date"`
}

// input converts the request, defaulting the order date to today.
func (h *OrdersHandler) input(req orderRequest) store.OrderInput {
	in := store.OrderInput{
		ProductID:   req.ProductID,
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		Quantity:    req.Quantity,
		Customer:    strings.TrimSpace(req.Customer),
		OrderDate:   req.OrderDate,
	}
	if in.OrderDate.IsZero() {
		in.OrderDate = clock.Today(h.Clock)
	}
	return in
}

// List handles GET /api/orders. Optional filter: product_id.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryID(w, r, "product_id")
	if !ok {
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	orders, err := store.ListOrders(r.Context(), h.DB, productID)
	if err != nil {
		storeError(w, "orders", err)
		return
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil || order == nil {
		storeError(w, "order", err)
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := h.input(req)
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := store.CreateOrder(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, "batch", err)
		return
	}

	slog.Info("order recorded", "user", GetClaims(r.Context()).Username,
		"product", order.ProductName, "batch", order.BatchNumber,
		"quantity", order.Quantity, "customer", order.Customer)
	logActivity(r, h.DB, "Added order of %d x %s (batch %s) for %s", order.Quantity, order.ProductName, order.BatchNumber, order.Customer)
	jsonResponse(w, http.StatusCreated, order)
}

// Update handles PUT /api/orders/{id}.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := h.input(req)
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := store.UpdateOrder(r.Context(), h.DB, id, in)
	if err != nil || order == nil {
		storeError(w, "order", err)
		return
	}

	slog.Info("order updated", "user", GetClaims(r.Context()).Username,
		"order", order.ID, "batch", order.BatchNumber, "quantity", order.Quantity)
	logActivity(r, h.DB, "Updated order %d of %s", order.ID, order.ProductName)
	jsonResponse(w, http.StatusOK, order)
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	order, err := store.DeleteOrder(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, "order", err)
		return
	}

	slog.Info("order deleted", "user", GetClaims(r.Context()).Username,
		"order", order.ID, "batch", order.BatchNumber, "quantity", order.Quantity)
	logActivity(r, h.DB, "Deleted order %d of %s", order.ID, order.ProductName)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}
