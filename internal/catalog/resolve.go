// Package catalog resolves which menu items are purchasable at a store and
// manages menu items, stores and their availability links.
package catalog

import (
	"sort"
	"strings"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
)

// Resolve returns the items purchasable at storeID: the item itself must be
// available and an available link for the store must exist. Input order is
// preserved.
func Resolve(items []model.MenuItem, links []model.StoreItemLink, storeID string) []model.MenuItem {
	linked := make(map[string]bool, len(links))
	for _, l := range links {
		if l.StoreID == storeID && l.Available {
			linked[l.MenuItemID] = true
		}
	}

	out := make([]model.MenuItem, 0, len(items))
	for _, it := range items {
		if it.Available && linked[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// IsAvailable reports whether itemID has an available link at storeID.
// A missing link means unavailable.
func IsAvailable(links []model.StoreItemLink, storeID, itemID string) bool {
	for _, l := range links {
		if l.StoreID == storeID && l.MenuItemID == itemID {
			return l.Available
		}
	}
	return false
}

// Filter narrows a resolved menu.
type Filter struct {
	Category string
	Search   string
}

// Apply keeps items matching the category (empty or "all" keeps everything)
// and whose name or category contains the search term, then sorts by
// category and name.
func (f Filter) Apply(items []model.MenuItem) []model.MenuItem {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]model.MenuItem, 0, len(items))
	for _, it := range items {
		if category != "" && category != enum.CategoryAll && strings.ToLower(it.Category) != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Name), search) &&
			!strings.Contains(strings.ToLower(it.Category), search) {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Categories returns the distinct categories of items in sorted order.
func Categories(items []model.MenuItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Category != "" && !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}
