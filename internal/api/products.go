package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
	"github.com/erazemk/lekarna/internal/store"
)

// ProductsHandler handles product CRUD endpoints.
type ProductsHandler struct {
	DB         *sqlx.DB
	Reconciler *reconcile.Reconciler
}

type productRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	CategoryID *int64 `json:"category_id"`
	Status     string `json:"status"`
}

func (req productRequest) input() store.ProductInput {
	return store.ProductInput{
		Name:       req.Name,
		Type:       req.Type,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	}
}

// List handles GET /api/products. Stock is derived from non-expired
// batches, so statuses are reconciled first.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	productType := r.URL.Query().Get("type")
	if productType != "" && !model.ValidProductType(productType) {
		jsonError(w, http.StatusBadRequest, "invalid type")
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	products, err := store.ListProducts(r.Context(), h.DB, productType)
	if err != nil {
		storeError(w, "products", err)
		return
	}
	jsonResponse(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}. The response includes the
// product's batches.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	reconcileForRead(w, r, h.Reconciler)

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil || product == nil {
		storeError(w, "product", err)
		return
	}

	batches, err := store.ListBatches(r.Context(), h.DB, store.BatchFilter{ProductID: id})
	if err != nil {
		storeError(w, "product batches", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"product": product,
		"batches": batches,
	})
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, "product", err)
		return
	}

	slog.Info("product created", "user", GetClaims(r.Context()).Username, "product", product.Name, "type", product.Type)
	logActivity(r, h.DB, "Added product %s", product.Name)
	jsonResponse(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateProduct(r.Context(), h.DB, id, in); err != nil {
		storeError(w, "product", err)
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil || product == nil {
		storeError(w, "product", err)
		return
	}

	slog.Info("product updated", "user", GetClaims(r.Context()).Username, "product", product.Name)
	logActivity(r, h.DB, "Updated product %s", product.Name)
	jsonResponse(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}. Products with purchases
// cannot be deleted.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil || product == nil {
		storeError(w, "product", err)
		return
	}

	if err := store.DeleteProduct(r.Context(), h.DB, id); err != nil {
		storeError(w, "product", err)
		return
	}

	slog.Info("product deleted", "user", GetClaims(r.Context()).Username, "product", product.Name)
	logActivity(r, h.DB, "Deleted product %s", product.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
