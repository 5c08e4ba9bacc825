package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/store"
)

// CategoriesHandler handles product category endpoints.
type CategoriesHandler struct {
	DB *sqlx.DB
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, "categories", err)
		return
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, name)
	if err != nil {
		storeError(w, "category", err)
		return
	}

	slog.Info("category created", "user", GetClaims(r.Context()).Username, "category", name)
	logActivity(r, h.DB, "Added category %s", name)
	jsonResponse(w, http.StatusCreated, category)
}
