// Package model holds the typed record schemas for every table of the
// record API.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry. Carts snapshot its price at add-time.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Calories    int             `json:"calories"`
	Carbs       decimal.Decimal `json:"carbs"`
	Protein     decimal.Decimal `json:"protein"`
	Fat         decimal.Decimal `json:"fat"`
	Available   bool            `json:"available"`
}

// Store is a food-court vendor location.
type Store struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StoreItemLink controls whether a menu item is purchasable at a store.
// A missing link is equivalent to Available == false.
type StoreItemLink struct {
	ID         string `json:"id"`
	StoreID    string `json:"store_id"`
	MenuItemID string `json:"menu_item_id"`
	Available  bool   `json:"available"`
}

// LineItem is one cart or order entry. Quantity is always >= 1.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price * quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is created at checkout and never deleted by the student flow.
// OrderStatus and PaymentStatus are the only fields changed afterwards.
type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	StudentID     string          `json:"student_id"`
	StudentName   string          `json:"student_name"`
	StoreID       string          `json:"store_id"`
	Items         []LineItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Token         string          `json:"token"`
	PaymentStatus string          `json:"payment_status"`
	OrderStatus   string          `json:"order_status"`
	OrderDate     time.Time       `json:"order_date"`
}

// User is an account record. Password holds a bcrypt hash.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
