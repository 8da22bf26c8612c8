package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/middleware"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/receipt"
	"github.com/go-chi/chi/v5"
)

// OrderServicer defines the order methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Get(ctx context.Context, id string) (*model.Order, error)
	History(ctx context.Context, studentID string) ([]model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc     OrderServicer
	baseURL string
}

// NewOrderHandler creates a new OrderHandler. baseURL is embedded in receipt
// QR codes.
func NewOrderHandler(svc OrderServicer, baseURL string) *OrderHandler {
	return &OrderHandler{svc: svc, baseURL: baseURL}
}

// RegisterRoutes registers student order endpoints: /orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.History)
	r.Get("/orders/{id}", h.Get)
	r.Get("/orders/{id}/qr", h.QRCode)
}

// RegisterAdminRoutes registers admin order endpoints.
// Expected to be mounted inside the admin subrouter: /admin
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Patch("/orders/{id}/payment-status", h.UpdatePaymentStatus)
}

// --- Request types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// History handles GET /orders: the caller's orders, newest first.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.svc.History(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, "order history", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// QRCode handles GET /orders/{id}/qr and returns a PNG of the pickup token.
func (h *OrderHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	png, err := receipt.QRCode(*order, h.baseURL)
	if err != nil {
		log.Printf("ERROR: render qr for order %s: %v", order.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Printf("ERROR: write qr response: %v", err)
	}
}

// List handles GET /admin/orders?status=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.OrderStatus == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// UpdateStatus handles PATCH /admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// UpdatePaymentStatus handles PATCH /admin/orders/{id}/payment-status.
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, "update payment status", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// --- Helpers ---

// ownedOrder loads the order in the URL. Students only see their own orders;
// someone else's order reads as not found.
func (h *OrderHandler) ownedOrder(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}

	order, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get order", err)
		return nil, false
	}
	if claims.Role != enum.UserRoleAdmin && order.StudentID != claims.UserID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return nil, false
	}
	return order, true
}
