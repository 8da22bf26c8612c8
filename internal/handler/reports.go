package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ReportsStore defines the order reads needed by report handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type ReportsStore interface {
	List(ctx context.Context) ([]model.Order, error)
	Stats(ctx context.Context) (service.Stats, error)
	TopItems(ctx context.Context, limit int) ([]service.ItemCount, error)
}

// StoreNamer resolves store ids for the CSV export.
// Satisfied by *catalog.Service; narrow interface for testability.
type StoreNamer interface {
	StoreNames(ctx context.Context) (map[string]string, error)
}

// ReportsHandler handles admin report endpoints.
type ReportsHandler struct {
	store  ReportsStore
	stores StoreNamer
	now    func() time.Time
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore, stores StoreNamer) *ReportsHandler {
	return &ReportsHandler{store: store, stores: stores, now: time.Now}
}

// RegisterRoutes registers report endpoints.
// Expected to be mounted inside the admin subrouter: /admin/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/popular-items", h.PopularItems)
	r.Get("/orders.csv", h.ExportOrders)
}

// --- Response types ---

type statsResponse struct {
	TotalOrders     int    `json:"total_orders"`
	TotalRevenue    string `json:"total_revenue"`
	CompletedOrders int    `json:"completed_orders"`
	PendingOrders   int    `json:"pending_orders"`
}

// --- Handlers ---

// Stats handles GET /admin/reports/stats.
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context())
	if err != nil {
		writeServiceError(w, "order stats", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:     st.TotalOrders,
		TotalRevenue:    st.TotalRevenue.StringFixed(2),
		CompletedOrders: st.CompletedOrders,
		PendingOrders:   st.PendingOrders,
	})
}

// PopularItems handles GET /admin/reports/popular-items?limit=.
func (h *ReportsHandler) PopularItems(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultPopularLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = v
	}
	if limit > 100 {
		limit = 100
	}

	items, err := h.store.TopItems(r.Context(), limit)
	if err != nil {
		writeServiceError(w, "popular items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ExportOrders handles GET /admin/reports/orders.csv.
func (h *ReportsHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		writeServiceError(w, "export orders", err)
		return
	}
	names, err := h.stores.StoreNames(r.Context())
	if err != nil {
		writeServiceError(w, "export orders", err)
		return
	}
	storeName := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return catalog.UnknownStore
	}

	filename := fmt.Sprintf("orders_%s.csv", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := service.WriteCSV(w, orders, storeName); err != nil {
		log.Printf("ERROR: write orders csv: %v", err)
	}
}
