package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// CatalogAdmin defines the catalog methods needed by admin menu handlers.
// Satisfied by *catalog.Service; narrow interface for testability.
type CatalogAdmin interface {
	ListItems(ctx context.Context) ([]model.MenuItem, error)
	CreateItem(ctx context.Context, it model.MenuItem) (model.MenuItem, error)
	UpdateItem(ctx context.Context, id string, it model.MenuItem) (model.MenuItem, error)
	DeleteItem(ctx context.Context, id string) error
	AvailabilityMatrix(ctx context.Context) ([]catalog.AvailabilityRow, error)
	SetAvailability(ctx context.Context, storeID, itemID string, available bool) (model.StoreItemLink, error)
}

// CatalogHandler handles admin menu item and availability endpoints.
type CatalogHandler struct {
	svc CatalogAdmin
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc CatalogAdmin) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// RegisterRoutes registers admin catalog endpoints.
// Expected to be mounted inside the admin subrouter: /admin
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu-items", h.ListItems)
	r.Post("/menu-items", h.CreateItem)
	r.Put("/menu-items/{id}", h.UpdateItem)
	r.Delete("/menu-items/{id}", h.DeleteItem)
	r.Get("/availability", h.Availability)
	r.Put("/stores/{sid}/items/{iid}/availability", h.SetAvailability)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Calories    int    `json:"calories"`
	Carbs       string `json:"carbs"`
	Protein     string `json:"protein"`
	Fat         string `json:"fat"`
	Available   *bool  `json:"available"`
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

type availabilityRowResponse struct {
	Item   menuItemResponse `json:"item"`
	Stores map[string]bool  `json:"stores"`
}

// --- Handlers ---

// ListItems handles GET /admin/menu-items.
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, "list menu items", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// CreateItem handles POST /admin/menu-items.
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}
	created, err := h.svc.CreateItem(r.Context(), item)
	if err != nil {
		writeServiceError(w, "create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(created))
}

// UpdateItem handles PUT /admin/menu-items/{id}.
func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}
	updated, err := h.svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		writeServiceError(w, "update menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(updated))
}

// DeleteItem handles DELETE /admin/menu-items/{id}. The item's store links go
// with it.
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete menu item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability handles GET /admin/availability.
func (h *CatalogHandler) Availability(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.AvailabilityMatrix(r.Context())
	if err != nil {
		writeServiceError(w, "availability matrix", err)
		return
	}
	resp := make([]availabilityRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = availabilityRowResponse{Item: toMenuItemResponse(row.Item), Stores: row.Stores}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetAvailability handles PUT /admin/stores/{sid}/items/{iid}/availability.
func (h *CatalogHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	link, err := h.svc.SetAvailability(r.Context(), chi.URLParam(r, "sid"), chi.URLParam(r, "iid"), req.Available)
	if err != nil {
		writeServiceError(w, "set availability", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// --- Helpers ---

// decodeMenuItem parses a menu item body. Missing nutrition values are zero
// and a missing available flag means true.
func decodeMenuItem(w http.ResponseWriter, r *http.Request) (model.MenuItem, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return model.MenuItem{}, false
	}

	item := model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Calories:    req.Calories,
		Available:   req.Available == nil || *req.Available,
	}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"price", req.Price, &item.Price},
		{"carbs", req.Carbs, &item.Carbs},
		{"protein", req.Protein, &item.Protein},
		{"fat", req.Fat, &item.Fat},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + f.name})
			return model.MenuItem{}, false
		}
		*f.dst = d
	}
	return item, true
}
