package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/records"
	"github.com/google/uuid"
)

// Names returned when a lookup finds no record.
const (
	UnknownStore = "Unknown Store"
	UnknownItem  = "Unknown Item"
)

var (
	ErrItemNameRequired = errors.New("name is required")
	ErrNegativePrice    = errors.New("price must be >= 0")
)

// IsValidationError reports whether err is a menu item validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrItemNameRequired) || errors.Is(err, ErrNegativePrice)
}

// DefaultStores are created by SeedDefaults on an empty stores table.
var DefaultStores = []model.Store{
	{ID: "store-1", Name: "Food Court 1", Description: "Traditional Indian cuisine with rice, curries, and authentic snacks"},
	{ID: "store-2", Name: "Food Court 2", Description: "Diverse menu with chapati, dal, paneer dishes, and South Indian specialties"},
}

// Service reads and writes the catalog tables through a records.Backend.
type Service struct {
	items  *records.Table[model.MenuItem]
	stores *records.Table[model.Store]
	links  *records.Table[model.StoreItemLink]
}

// NewService binds the catalog tables of backend.
func NewService(backend records.Backend) *Service {
	return &Service{
		items:  records.NewTable[model.MenuItem](backend, enum.TableMenuItems),
		stores: records.NewTable[model.Store](backend, enum.TableStores),
		links:  records.NewTable[model.StoreItemLink](backend, enum.TableStoreItems),
	}
}

// Menu returns the filtered, resolved menu of storeID.
func (s *Service) Menu(ctx context.Context, storeID string, f Filter) ([]model.MenuItem, error) {
	items, err := s.Available(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return f.Apply(items), nil
}

// Available returns the resolved, unfiltered menu of storeID.
func (s *Service) Available(ctx context.Context, storeID string) ([]model.MenuItem, error) {
	items, err := s.items.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	links, err := s.links.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store items: %w", err)
	}
	return Resolve(items, links, storeID), nil
}

// Stores lists every store.
func (s *Service) Stores(ctx context.Context) ([]model.Store, error) {
	stores, err := s.stores.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}
	return stores, nil
}

// Store fetches one store.
func (s *Service) Store(ctx context.Context, id string) (model.Store, error) {
	return s.stores.Get(ctx, id)
}

// StoreName returns the store's name, or UnknownStore.
func (s *Service) StoreName(ctx context.Context, id string) string {
	st, err := s.stores.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, records.ErrNotFound) {
			log.Printf("ERROR: lookup store %s: %v", id, err)
		}
		return UnknownStore
	}
	return st.Name
}

// ItemName returns the menu item's name, or UnknownItem.
func (s *Service) ItemName(ctx context.Context, id string) string {
	it, err := s.items.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, records.ErrNotFound) {
			log.Printf("ERROR: lookup menu item %s: %v", id, err)
		}
		return UnknownItem
	}
	return it.Name
}

// StoreNames maps every store id to its name.
func (s *Service) StoreNames(ctx context.Context) (map[string]string, error) {
	stores, err := s.Stores(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(stores))
	for _, st := range stores {
		names[st.ID] = st.Name
	}
	return names, nil
}

// SetAvailability upserts the link between storeID and itemID.
func (s *Service) SetAvailability(ctx context.Context, storeID, itemID string, available bool) (model.StoreItemLink, error) {
	links, err := s.links.All(ctx)
	if err != nil {
		return model.StoreItemLink{}, fmt.Errorf("load store items: %w", err)
	}
	for _, l := range links {
		if l.StoreID == storeID && l.MenuItemID == itemID {
			return s.links.Patch(ctx, l.ID, map[string]any{"available": available})
		}
	}
	return s.links.Create(ctx, model.StoreItemLink{
		ID:         uuid.NewString(),
		StoreID:    storeID,
		MenuItemID: itemID,
		Available:  available,
	})
}

// AvailabilityRow is one menu item with its per-store availability.
type AvailabilityRow struct {
	Item   model.MenuItem  `json:"item"`
	Stores map[string]bool `json:"stores"`
}

// AvailabilityMatrix returns every item with its availability at every store.
func (s *Service) AvailabilityMatrix(ctx context.Context) ([]AvailabilityRow, error) {
	items, err := s.items.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	stores, err := s.Stores(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.links.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store items: %w", err)
	}

	rows := make([]AvailabilityRow, 0, len(items))
	for _, it := range items {
		row := AvailabilityRow{Item: it, Stores: make(map[string]bool, len(stores))}
		for _, st := range stores {
			row.Stores[st.ID] = IsAvailable(links, st.ID, it.ID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListItems returns every menu item sorted by category and name.
func (s *Service) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	items, err := s.items.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	return Filter{}.Apply(items), nil
}

// CreateItem validates and stores a new menu item.
func (s *Service) CreateItem(ctx context.Context, it model.MenuItem) (model.MenuItem, error) {
	if err := validateItem(it); err != nil {
		return model.MenuItem{}, err
	}
	it.ID = uuid.NewString()
	return s.items.Create(ctx, it)
}

// UpdateItem replaces the menu item with id.
func (s *Service) UpdateItem(ctx context.Context, id string, it model.MenuItem) (model.MenuItem, error) {
	if err := validateItem(it); err != nil {
		return model.MenuItem{}, err
	}
	it.ID = id
	return s.items.Update(ctx, id, it)
}

// DeleteItem removes the menu item and every store link pointing at it.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	links, err := s.links.All(ctx)
	if err != nil {
		return fmt.Errorf("load store items: %w", err)
	}
	for _, l := range links {
		if l.MenuItemID != id {
			continue
		}
		if err := s.links.Delete(ctx, l.ID); err != nil && !errors.Is(err, records.ErrNotFound) {
			return err
		}
	}
	return nil
}

// SeedDefaults creates DefaultStores when the stores table is empty.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	_, total, err := s.stores.List(ctx, records.Query{Page: 1, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	if total > 0 {
		return 0, nil
	}
	for _, st := range DefaultStores {
		if _, err := s.stores.Create(ctx, st); err != nil {
			return 0, fmt.Errorf("seed store %s: %w", st.ID, err)
		}
	}
	return len(DefaultStores), nil
}

func validateItem(it model.MenuItem) error {
	if strings.TrimSpace(it.Name) == "" {
		return ErrItemNameRequired
	}
	if it.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
