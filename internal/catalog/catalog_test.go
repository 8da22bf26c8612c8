package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/records"
	"github.com/shopspring/decimal"
)

func menuItem(id, name, category string, available bool) model.MenuItem {
	return model.MenuItem{ID: id, Name: name, Category: category, Price: decimal.NewFromInt(50), Available: available}
}

func link(store, item string, available bool) model.StoreItemLink {
	return model.StoreItemLink{ID: store + "-" + item, StoreID: store, MenuItemID: item, Available: available}
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	items := []model.MenuItem{
		menuItem("a", "Idli", "Breakfast", true),
		menuItem("b", "Dosa", "Breakfast", true),
		menuItem("c", "Biryani", "Rice", false),
		menuItem("d", "Paneer", "Curry", true),
	}
	links := []model.StoreItemLink{
		link("s1", "a", true),
		link("s1", "b", false),
		link("s1", "c", true),
		link("s2", "d", true),
	}

	got := catalog.Resolve(items, links, "s1")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only a, got %+v", got)
	}

	got = catalog.Resolve(items, links, "s2")
	if len(got) != 1 || got[0].ID != "d" {
		t.Fatalf("expected only d, got %+v", got)
	}

	if got := catalog.Resolve(items, nil, "s1"); len(got) != 0 {
		t.Errorf("expected nothing without links, got %d", len(got))
	}
}

func TestIsAvailable(t *testing.T) {
	links := []model.StoreItemLink{link("s1", "a", true), link("s1", "b", false)}

	tests := []struct {
		store, item string
		want        bool
	}{
		{"s1", "a", true},
		{"s1", "b", false},
		{"s1", "missing", false},
		{"s2", "a", false},
	}
	for _, tt := range tests {
		if got := catalog.IsAvailable(links, tt.store, tt.item); got != tt.want {
			t.Errorf("IsAvailable(%s, %s) = %v, want %v", tt.store, tt.item, got, tt.want)
		}
	}
}

func TestFilterApply(t *testing.T) {
	items := []model.MenuItem{
		menuItem("a", "Masala Dosa", "Breakfast", true),
		menuItem("b", "Idli", "Breakfast", true),
		menuItem("c", "Veg Biryani", "Rice", true),
	}

	got := catalog.Filter{Category: enum.CategoryAll}.Apply(items)
	if len(got) != 3 || got[0].Name != "Idli" || got[2].Name != "Veg Biryani" {
		t.Errorf("unexpected order: %+v", got)
	}

	got = catalog.Filter{Category: "rice"}.Apply(items)
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("expected rice only, got %+v", got)
	}

	got = catalog.Filter{Search: "DOSA"}.Apply(items)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected dosa only, got %+v", got)
	}

	got = catalog.Filter{Search: "break"}.Apply(items)
	if len(got) != 2 {
		t.Errorf("expected category search to match 2, got %d", len(got))
	}
}

func TestCategories(t *testing.T) {
	items := []model.MenuItem{
		menuItem("a", "Idli", "Breakfast", true),
		menuItem("b", "Rice", "Rice", true),
		menuItem("c", "Dosa", "Breakfast", true),
	}
	got := catalog.Categories(items)
	if len(got) != 2 || got[0] != "Breakfast" || got[1] != "Rice" {
		t.Errorf("unexpected categories: %v", got)
	}
}

// --- Service ---

func newService(t *testing.T) (*catalog.Service, records.Backend) {
	t.Helper()
	backend := records.NewMemory(enum.Tables...)
	return catalog.NewService(backend), backend
}

func TestSetAvailability_Upserts(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t)
	links := records.NewTable[model.StoreItemLink](backend, enum.TableStoreItems)

	first, err := svc.SetAvailability(ctx, "s1", "a", true)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if first.ID == "" || !first.Available {
		t.Fatalf("unexpected link: %+v", first)
	}

	second, err := svc.SetAvailability(ctx, "s1", "a", false)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected existing link patched, got new id %s", second.ID)
	}

	all, err := links.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Available {
		t.Errorf("expected one unavailable link, got %+v", all)
	}
}

func TestMenu_ResolvesAndFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	idli, err := svc.CreateItem(ctx, menuItem("", "Idli", "Breakfast", true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rice, err := svc.CreateItem(ctx, menuItem("", "Lemon Rice", "Rice", true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetAvailability(ctx, "s1", idli.ID, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.SetAvailability(ctx, "s1", rice.ID, true); err != nil {
		t.Fatalf("set: %v", err)
	}

	menu, err := svc.Menu(ctx, "s1", catalog.Filter{Category: "Rice"})
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(menu) != 1 || menu[0].ID != rice.ID {
		t.Errorf("expected lemon rice only, got %+v", menu)
	}

	menu, err = svc.Menu(ctx, "s2", catalog.Filter{})
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(menu) != 0 {
		t.Errorf("expected empty menu for unlinked store, got %d", len(menu))
	}
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, model.MenuItem{Name: "  "})
	if !errors.Is(err, catalog.ErrItemNameRequired) || !catalog.IsValidationError(err) {
		t.Errorf("expected ErrItemNameRequired, got %v", err)
	}

	_, err = svc.CreateItem(ctx, model.MenuItem{Name: "Idli", Price: decimal.NewFromInt(-1)})
	if !errors.Is(err, catalog.ErrNegativePrice) {
		t.Errorf("expected ErrNegativePrice, got %v", err)
	}
}

func TestDeleteItem_RemovesLinks(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t)
	links := records.NewTable[model.StoreItemLink](backend, enum.TableStoreItems)

	it, _ := svc.CreateItem(ctx, menuItem("", "Idli", "Breakfast", true))
	other, _ := svc.CreateItem(ctx, menuItem("", "Dosa", "Breakfast", true))
	_, _ = svc.SetAvailability(ctx, "s1", it.ID, true)
	_, _ = svc.SetAvailability(ctx, "s2", it.ID, true)
	_, _ = svc.SetAvailability(ctx, "s1", other.ID, true)

	if err := svc.DeleteItem(ctx, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, _ := links.All(ctx)
	if len(all) != 1 || all[0].MenuItemID != other.ID {
		t.Errorf("expected only the other item's link, got %+v", all)
	}

	if err := svc.DeleteItem(ctx, it.ID); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNames_FallBackToSentinels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if got := svc.StoreName(ctx, "store-1"); got != "Food Court 1" {
		t.Errorf("expected Food Court 1, got %q", got)
	}
	if got := svc.StoreName(ctx, "nope"); got != catalog.UnknownStore {
		t.Errorf("expected %q, got %q", catalog.UnknownStore, got)
	}
	if got := svc.ItemName(ctx, "nope"); got != catalog.UnknownItem {
		t.Errorf("expected %q, got %q", catalog.UnknownItem, got)
	}
}

func TestSeedDefaults_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.SeedDefaults(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 seeded, got %d (%v)", n, err)
	}
	n, err = svc.SeedDefaults(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 seeded on rerun, got %d (%v)", n, err)
	}

	stores, _ := svc.Stores(ctx)
	if len(stores) != 2 {
		t.Errorf("expected 2 stores, got %d", len(stores))
	}
}

func TestAvailabilityMatrix(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _ = svc.SeedDefaults(ctx)
	it, _ := svc.CreateItem(ctx, menuItem("", "Idli", "Breakfast", true))
	_, _ = svc.SetAvailability(ctx, "store-2", it.ID, true)

	rows, err := svc.AvailabilityMatrix(ctx)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Stores["store-1"] || !rows[0].Stores["store-2"] {
		t.Errorf("unexpected availability: %v", rows[0].Stores)
	}
}
