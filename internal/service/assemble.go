package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/foodcourt/api/internal/cart"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/google/uuid"
)

// MaxTokenLength caps the order token in characters.
const MaxTokenLength = 50

// Checkout precondition errors.
var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrMissingStore = errors.New("no store selected")
	ErrMissingUser  = errors.New("no user logged in")
)

// IsValidationError reports whether err is a checkout precondition failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrMissingStore) ||
		errors.Is(err, ErrMissingUser) ||
		errors.Is(err, ErrInvalidStatus)
}

// NextOrderNumber returns the successor of the highest order number in
// existing, zero padded to 4 digits. Numbers that do not start with digits
// count as 0. The sequence saturates at math.MaxInt.
func NextOrderNumber(existing []model.Order) string {
	last := 0
	for _, o := range existing {
		if n := leadingInt(o.OrderNumber); n > last {
			last = n
		}
	}
	if last == math.MaxInt {
		return strconv.Itoa(last)
	}
	return fmt.Sprintf("%04d", last+1)
}

// leadingInt parses the integer prefix of s after leading whitespace, or 0.
// Prefixes too large for an int clamp to math.MaxInt or math.MinInt.
func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// OrderToken builds "<name>-<number>-<item>(<qty>), ..." cut to
// MaxTokenLength characters.
func OrderToken(studentName, orderNumber string, items []model.LineItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s(%d)", it.Name, it.Quantity)
	}
	token := studentName + "-" + orderNumber + "-" + strings.Join(parts, ", ")
	if utf8.RuneCountInString(token) <= MaxTokenLength {
		return token
	}
	return string([]rune(token)[:MaxTokenLength])
}

// AssembleInput is everything checkout needs to build an order.
type AssembleInput struct {
	User     *model.User
	StoreID  string
	Items    []model.LineItem
	Existing []model.Order
	Now      time.Time
}

// Assemble validates the preconditions and builds a new order. It has no
// side effects.
func Assemble(in AssembleInput) (model.Order, error) {
	if in.User == nil || in.User.ID == "" {
		return model.Order{}, ErrMissingUser
	}
	if in.StoreID == "" {
		return model.Order{}, ErrMissingStore
	}
	if len(in.Items) == 0 {
		return model.Order{}, ErrEmptyCart
	}

	items := make([]model.LineItem, len(in.Items))
	copy(items, in.Items)

	number := NextOrderNumber(in.Existing)
	return model.Order{
		ID:            uuid.NewString(),
		OrderNumber:   number,
		StudentID:     in.User.ID,
		StudentName:   in.User.Name,
		StoreID:       in.StoreID,
		Items:         items,
		TotalAmount:   cart.Total(items),
		Token:         OrderToken(in.User.Name, number, items),
		PaymentStatus: enum.PaymentStatusCompleted,
		OrderStatus:   enum.OrderStatusPlaced,
		OrderDate:     in.Now.UTC(),
	}, nil
}
