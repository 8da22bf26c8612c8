package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/foodcourt/api/internal/cart"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/service"
	"github.com/shopspring/decimal"
)

// Errors returned by Dispatch.
var (
	ErrNoStoreSelected = errors.New("no store selected")
	ErrItemUnavailable = errors.New("item is not available at the selected store")
	ErrUnknownCommand  = errors.New("unknown command")
)

// IsValidationError reports whether err is a user input failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoStoreSelected) ||
		errors.Is(err, ErrItemUnavailable) ||
		errors.Is(err, cart.ErrInvalidQuantity) ||
		service.IsValidationError(err)
}

// Catalog is the catalog lookup the dispatcher needs.
// Satisfied by *catalog.Service; narrow interface for testability.
type Catalog interface {
	Store(ctx context.Context, id string) (model.Store, error)
	Available(ctx context.Context, storeID string) ([]model.MenuItem, error)
}

// OrderPlacer places orders at checkout.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*model.Order, error)
}

// Result is the session state after a command.
type Result struct {
	StoreID   string           `json:"store_id"`
	Items     []model.LineItem `json:"items"`
	Total     decimal.Decimal  `json:"total"`
	ItemCount int              `json:"item_count"`
	Order     *model.Order     `json:"order,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// Dispatcher applies commands to sessions.
type Dispatcher struct {
	catalog  Catalog
	orders   OrderPlacer
	sessions *Sessions
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(catalog Catalog, orders OrderPlacer, sessions *Sessions) *Dispatcher {
	return &Dispatcher{catalog: catalog, orders: orders, sessions: sessions}
}

// Session returns the live session of user.
func (d *Dispatcher) Session(ctx context.Context, user model.User) (*Session, error) {
	return d.sessions.Get(ctx, user)
}

// State returns the current state of s without changing it.
func (d *Dispatcher) State(s *Session) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s)
}

// Dispatch runs cmd against s. Commands on one session run one at a time.
//
// A cart write failure does not fail the command: the in-memory cart keeps
// the change and Result.Warning says it was not saved. A failed session write
// is reported the same way; the previous store stays selected.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, cmd Command) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order *model.Order
	var err error
	switch c := cmd.(type) {
	case SelectStore:
		err = d.selectStore(ctx, s, c.StoreID)
	case ChangeStore:
		err = d.selectStore(ctx, s, "")
	case AddToCart:
		err = d.addToCart(ctx, s, c)
	case SetQuantity:
		err = s.Cart.SetQuantity(ctx, c.ItemID, c.Quantity)
	case IncrementItem:
		if q := s.Cart.Quantity(c.ItemID); q > 0 {
			err = s.Cart.SetQuantity(ctx, c.ItemID, q+1)
		}
	case DecrementItem:
		if q := s.Cart.Quantity(c.ItemID); q > 0 {
			err = s.Cart.SetQuantity(ctx, c.ItemID, q-1)
		}
	case RemoveFromCart:
		err = s.Cart.Remove(ctx, c.ItemID)
	case ClearCart:
		err = s.Cart.Clear(ctx)
	case Checkout:
		order, err = d.checkout(ctx, s)
	case Logout:
		err = d.logout(ctx, s)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	res := snapshot(s)
	res.Order = order
	if w := persistWarning(err); w != "" {
		res.Warning = w
		return res, nil
	}
	return res, err
}

func persistWarning(err error) string {
	switch {
	case errors.Is(err, ErrSessionPersist):
		return ErrSessionPersist.Error()
	case errors.Is(err, cart.ErrPersist):
		return cart.ErrPersist.Error()
	}
	return ""
}

func (d *Dispatcher) selectStore(ctx context.Context, s *Session, storeID string) error {
	if storeID != "" {
		if _, err := d.catalog.Store(ctx, storeID); err != nil {
			return err
		}
	}
	// The cart is emptied before the selection moves, so it never holds
	// lines from another store.
	clearErr := s.Cart.Clear(ctx)
	if clearErr != nil && !errors.Is(clearErr, cart.ErrPersist) {
		return clearErr
	}
	if err := s.setStore(ctx, storeID); err != nil {
		return err
	}
	return clearErr
}

func (d *Dispatcher) addToCart(ctx context.Context, s *Session, c AddToCart) error {
	if s.storeID == "" {
		return ErrNoStoreSelected
	}
	if c.Quantity < 0 {
		return cart.ErrInvalidQuantity
	}
	items, err := d.catalog.Available(ctx, s.storeID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == c.ItemID {
			return s.Cart.Add(ctx, it, c.Quantity)
		}
	}
	return ErrItemUnavailable
}

// checkout clears the cart only after the order is stored.
func (d *Dispatcher) checkout(ctx context.Context, s *Session) (*model.Order, error) {
	user := s.User
	order, err := d.orders.PlaceOrder(ctx, service.PlaceOrderRequest{
		User:    &user,
		StoreID: s.storeID,
		Items:   s.Cart.Items(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Cart.Clear(ctx); err != nil {
		log.Printf("ERROR: clear cart after order %s: %v", order.ID, err)
	}
	return order, nil
}

func (d *Dispatcher) logout(ctx context.Context, s *Session) error {
	s.storeID = ""
	if err := s.Cart.Clear(ctx); err != nil && !errors.Is(err, cart.ErrPersist) {
		return err
	}
	return d.sessions.End(ctx, s.User.ID)
}

func snapshot(s *Session) Result {
	return Result{
		StoreID:   s.storeID,
		Items:     s.Cart.Items(),
		Total:     s.Cart.Total(),
		ItemCount: s.Cart.ItemCount(),
	}
}
