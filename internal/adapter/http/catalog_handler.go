package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/catalog"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type CatalogReader interface {
	interfaces.CatalogService
	ByCategory() []catalog.CategoryGroup
}

type CatalogHandler struct {
	catalog CatalogReader
	menus   interfaces.MenuService
	logger  logger.Logger
}

func NewCatalogHandler(catalog CatalogReader, menus interfaces.MenuService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		menus:   menus,
		logger:  logger,
	}
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Active      *bool           `json:"active"`
}

func (p ProductRequest) toMenuItem(id string) domain.MenuItem {
	return domain.MenuItem{
		ID:          id,
		Name:        strings.TrimSpace(p.Name),
		Price:       p.Price,
		Category:    strings.TrimSpace(p.Category),
		Description: strings.TrimSpace(p.Description),
		ImageURL:    strings.TrimSpace(p.ImageURL),
		IsActive:    p.Active,
	}
}

type GenerateMenuRequest struct {
	Concept string `json:"concept"`
}

type CatalogResponse struct {
	Items      []MenuItemResponse `json:"items"`
	Categories []CategoryResponse `json:"categories"`
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CatalogResponse{
		Items:      toMenuItems(h.catalog.Items()),
		Categories: toCategories(h.catalog.ByCategory()),
	})
}

func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Refresh(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMenuItems(items))
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.catalog.Create(r.Context(), req.toMenuItem(""))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMenuItem(*created))
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	item := req.toMenuItem(chi.URLParam(r, "id"))
	if err := h.catalog.Update(r.Context(), item); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMenuItem(item))
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateMenu always answers with a menu unless the concept is empty
func (h *CatalogHandler) GenerateMenu(w http.ResponseWriter, r *http.Request) {
	var req GenerateMenuRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	items, err := h.menus.Generate(r.Context(), req.Concept)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMenuItems(items))
}

func (h *CatalogHandler) GeneratedMenu(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toMenuItems(h.menus.Last()))
}

// ApproveItem saves one generated item into the catalog
func (h *CatalogHandler) ApproveItem(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.catalog.Approve(r.Context(), req.toMenuItem(""))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMenuItem(*created))
}
