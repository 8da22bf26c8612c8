package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/events"
	"github.com/foodcourt/api/internal/model"
)

// ErrPersist wraps record store failures while placing or updating orders.
var ErrPersist = errors.New("order could not be saved")

// OrderStore is the part of the orders table the service uses.
// Satisfied by *records.Table[model.Order]; narrow interface for testability.
type OrderStore interface {
	All(ctx context.Context) ([]model.Order, error)
	Get(ctx context.Context, id string) (model.Order, error)
	Create(ctx context.Context, o model.Order) (model.Order, error)
	Patch(ctx context.Context, id string, fields map[string]any) (model.Order, error)
}

// PlaceOrderRequest is the checkout input.
type PlaceOrderRequest struct {
	User    *model.User
	StoreID string
	Items   []model.LineItem
}

// OrderService handles order business logic.
type OrderService struct {
	store     OrderStore
	publisher events.Publisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. A nil publisher drops events.
func NewOrderService(store OrderStore, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &OrderService{store: store, publisher: publisher, now: time.Now}
}

// WithClock replaces the clock used for order dates.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// PlaceOrder numbers, assembles and stores a new order.
//
// The number is derived from the orders visible at read time, so two
// concurrent checkouts can receive the same number. There is no retry.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.Order, error) {
	// Preconditions are checked before the orders read.
	if _, err := Assemble(AssembleInput{User: req.User, StoreID: req.StoreID, Items: req.Items, Now: s.now()}); err != nil {
		return nil, err
	}

	existing, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	order, err := Assemble(AssembleInput{
		User:     req.User,
		StoreID:  req.StoreID,
		Items:    req.Items,
		Existing: existing,
		Now:      s.now(),
	})
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.publish(ctx, enum.EventOrderPlaced, created)
	return &created, nil
}

// Get fetches one order.
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// History returns the orders of studentID, newest first.
func (s *OrderService) History(ctx context.Context, studentID string) ([]model.Order, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	out := make([]model.Order, 0, len(all))
	for _, o := range all {
		if o.StudentID == studentID {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	sortNewestFirst(all)
	return all, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, o model.Order) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:      eventType,
		OrderID:   o.ID,
		StudentID: o.StudentID,
		Order:     o,
		At:        s.now().UTC(),
	})
	if err != nil {
		log.Printf("ERROR: publish %s for order %s: %v", eventType, o.ID, err)
	}
}

func sortNewestFirst(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}
