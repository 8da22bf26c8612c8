package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultPopularLimit is the number of items PopularItems returns by default.
const DefaultPopularLimit = 10

// Stats summarizes a set of orders.
type Stats struct {
	TotalOrders     int             `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	CompletedOrders int             `json:"completed_orders"`
	PendingOrders   int             `json:"pending_orders"`
}

// ComputeStats counts orders and revenue. Completed and pending refer to the
// payment status.
func ComputeStats(orders []model.Order) Stats {
	st := Stats{TotalOrders: len(orders), TotalRevenue: decimal.Zero}
	for _, o := range orders {
		st.TotalRevenue = st.TotalRevenue.Add(o.TotalAmount)
		switch o.PaymentStatus {
		case enum.PaymentStatusCompleted:
			st.CompletedOrders++
		case enum.PaymentStatusPending:
			st.PendingOrders++
		}
	}
	return st
}

// ItemCount is an item name with its total ordered quantity.
type ItemCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// PopularItems sums quantities by item name and returns the top limit,
// highest first. Ties keep name order.
func PopularItems(orders []model.Order, limit int) []ItemCount {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	counts := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			counts[it.Name] += it.Quantity
		}
	}

	out := make([]ItemCount, 0, len(counts))
	for name, qty := range counts {
		out = append(out, ItemCount{Name: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CSVHeader is the first row of the order export.
var CSVHeader = []string{"Order ID", "Student Name", "Store", "Total Amount", "Payment Status", "Order Status", "Date"}

// WriteCSV writes orders as CSV. storeName resolves store ids to names.
func WriteCSV(w io.Writer, orders []model.Order, storeName func(id string) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range orders {
		row := []string{
			o.OrderNumber,
			o.StudentName,
			storeName(o.StoreID),
			o.TotalAmount.StringFixed(2),
			o.PaymentStatus,
			o.OrderStatus,
			o.OrderDate.UTC().Format("2006-01-02 15:04"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Stats computes Stats over every order.
func (s *OrderService) Stats(ctx context.Context) (Stats, error) {
	orders, err := s.store.All(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load orders: %w", err)
	}
	return ComputeStats(orders), nil
}

// TopItems returns the most ordered items across every order.
func (s *OrderService) TopItems(ctx context.Context, limit int) ([]ItemCount, error) {
	orders, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return PopularItems(orders, limit), nil
}
