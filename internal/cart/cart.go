// Package cart owns a student's in-progress selection for one store.
//
// Every mutation applies to the in-memory line items first and then writes
// the full cart through the Persister. A failed write is logged and returned
// but the in-memory change stays.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/foodcourt/api/internal/model"
	"github.com/shopspring/decimal"
)

// Errors returned by the cart.
var (
	ErrInvalidQuantity = errors.New("quantity must be >= 1")
	ErrPersist         = errors.New("cart could not be saved")
)

// Persister loads and saves the whole cart.
type Persister interface {
	Load(ctx context.Context) ([]model.LineItem, error)
	Save(ctx context.Context, items []model.LineItem) error
}

// Cart is an ordered set of line items, unique by id.
type Cart struct {
	mu    sync.Mutex
	items []model.LineItem
	store Persister
}

// New creates an empty cart backed by p.
func New(p Persister) *Cart {
	return &Cart{store: p}
}

// Load replaces the in-memory items with the persisted cart. Entries with a
// non-positive quantity are dropped.
func (c *Cart) Load(ctx context.Context) error {
	items, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.items[:0]
	for _, it := range items {
		if it.Quantity > 0 {
			c.items = append(c.items, it)
		}
	}
	return nil
}

// Add increments the quantity of an existing entry or appends a snapshot of
// item. A qty of 0 means 1.
func (c *Cart) Add(ctx context.Context, item model.MenuItem, qty int) error {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity += qty
	} else {
		c.items = append(c.items, model.LineItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: qty,
		})
	}
	return c.save(ctx)
}

// SetQuantity sets the quantity of an entry; qty <= 0 removes it. Unknown ids
// are ignored.
func (c *Cart) SetQuantity(ctx context.Context, id string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return nil
	}
	if qty <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	} else {
		c.items[i].Quantity = qty
	}
	return c.save(ctx)
}

// Remove deletes the entry with id. Removing a missing id is not an error.
func (c *Cart) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	return c.save(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.save(ctx)
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []model.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Quantity returns the quantity of id, or 0 when absent.
func (c *Cart) Quantity(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Total is the sum of price * quantity.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.items)
}

// ItemCount is the sum of quantities, not the number of entries.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Total sums price * quantity over items.
func Total(items []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) index(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// save writes the full cart. Callers hold c.mu.
func (c *Cart) save(ctx context.Context) error {
	snapshot := make([]model.LineItem, len(c.items))
	copy(snapshot, c.items)
	if err := c.store.Save(ctx, snapshot); err != nil {
		log.Printf("ERROR: save cart: %v", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
