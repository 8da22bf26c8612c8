package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/foodcourt/api/internal/app"
	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/middleware"
	"github.com/foodcourt/api/internal/model"
	"github.com/go-chi/chi/v5"
)

// Dispatcher runs student commands against their session.
// Satisfied by *app.Dispatcher; narrow interface for testability.
type Dispatcher interface {
	Session(ctx context.Context, user model.User) (*app.Session, error)
	State(s *app.Session) app.Result
	Dispatch(ctx context.Context, s *app.Session, cmd app.Command) (app.Result, error)
}

// MenuReader defines the catalog reads needed by the student shop.
// Satisfied by *catalog.Service; narrow interface for testability.
type MenuReader interface {
	Stores(ctx context.Context) ([]model.Store, error)
	Menu(ctx context.Context, storeID string, f catalog.Filter) ([]model.MenuItem, error)
}

// ShopHandler handles store selection, menu browsing, the cart and checkout.
type ShopHandler struct {
	menu MenuReader
	shop Dispatcher
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(menu MenuReader, shop Dispatcher) *ShopHandler {
	return &ShopHandler{menu: menu, shop: shop}
}

// RegisterRoutes registers student endpoints on the given Chi router.
// Expected to be mounted behind Authenticate.
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stores", h.ListStores)
	r.Post("/stores/{sid}/select", h.SelectStore)
	r.Delete("/stores/selected", h.ChangeStore)
	r.Get("/menu", h.Menu)

	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.ClearCart)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{id}", h.SetQuantity)
	r.Post("/cart/items/{id}/increment", h.Increment)
	r.Post("/cart/items/{id}/decrement", h.Decrement)
	r.Delete("/cart/items/{id}", h.RemoveItem)

	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type addItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type menuResponse struct {
	StoreID    string             `json:"store_id"`
	Categories []string           `json:"categories"`
	Items      []menuItemResponse `json:"items"`
}

// --- Handlers ---

// ListStores handles GET /stores.
func (h *ShopHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.menu.Stores(r.Context())
	if err != nil {
		writeServiceError(w, "list stores", err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

// SelectStore handles POST /stores/{sid}/select. The cart is emptied.
func (h *ShopHandler) SelectStore(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "select store", app.SelectStore{StoreID: chi.URLParam(r, "sid")}, http.StatusOK)
}

// ChangeStore handles DELETE /stores/selected. The cart is emptied.
func (h *ShopHandler) ChangeStore(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "change store", app.ChangeStore{}, http.StatusOK)
}

// Menu handles GET /menu?category=&q= for the selected store.
func (h *ShopHandler) Menu(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	storeID := s.StoreID()
	if storeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": app.ErrNoStoreSelected.Error()})
		return
	}

	all, err := h.menu.Menu(r.Context(), storeID, catalog.Filter{})
	if err != nil {
		writeServiceError(w, "load menu", err)
		return
	}
	filter := catalog.Filter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("q"),
	}

	writeJSON(w, http.StatusOK, menuResponse{
		StoreID:    storeID,
		Categories: catalog.Categories(all),
		Items:      toMenuItemResponses(filter.Apply(all)),
	})
}

// GetCart handles GET /cart.
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(h.shop.State(s)))
}

// ClearCart handles DELETE /cart.
func (h *ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "clear cart", app.ClearCart{}, http.StatusOK)
}

// AddItem handles POST /cart/items.
func (h *ShopHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_id is required"})
		return
	}
	h.dispatch(w, r, "add to cart", app.AddToCart{ItemID: req.ItemID, Quantity: req.Quantity}, http.StatusOK)
}

// SetQuantity handles PUT /cart/items/{id}. A quantity of 0 removes the item.
func (h *ShopHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.dispatch(w, r, "set quantity", app.SetQuantity{ItemID: chi.URLParam(r, "id"), Quantity: req.Quantity}, http.StatusOK)
}

// Increment handles POST /cart/items/{id}/increment.
func (h *ShopHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "increment item", app.IncrementItem{ItemID: chi.URLParam(r, "id")}, http.StatusOK)
}

// Decrement handles POST /cart/items/{id}/decrement.
func (h *ShopHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "decrement item", app.DecrementItem{ItemID: chi.URLParam(r, "id")}, http.StatusOK)
}

// RemoveItem handles DELETE /cart/items/{id}.
func (h *ShopHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "remove item", app.RemoveFromCart{ItemID: chi.URLParam(r, "id")}, http.StatusOK)
}

// Checkout handles POST /checkout. The cart is emptied only when the order
// was stored.
func (h *ShopHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "checkout", app.Checkout{}, http.StatusCreated)
}

// --- Helpers ---

func (h *ShopHandler) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}
	s, err := h.shop.Session(r.Context(), userFromClaims(claims))
	if err != nil {
		writeServiceError(w, "load session", err)
		return nil, false
	}
	return s, true
}

func (h *ShopHandler) dispatch(w http.ResponseWriter, r *http.Request, op string, cmd app.Command, status int) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := h.shop.Dispatch(r.Context(), s, cmd)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, status, toCartResponse(res))
}
