package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
)

var ErrInvalidStatus = errors.New("invalid status")

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	return statusIndex(s) >= 0
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return s == enum.PaymentStatusPending || s == enum.PaymentStatusCompleted
}

// IsForwardTransition reports whether to comes strictly after from in
// enum.OrderStatusFlow. UpdateStatus does not enforce it; the admin may move
// an order to any status.
func IsForwardTransition(from, to string) bool {
	i, j := statusIndex(from), statusIndex(to)
	return i >= 0 && j > i
}

// NextStatus returns the status following s, or "" at the end of the flow.
func NextStatus(s string) string {
	i := statusIndex(s)
	if i < 0 || i == len(enum.OrderStatusFlow)-1 {
		return ""
	}
	return enum.OrderStatusFlow[i+1]
}

func statusIndex(s string) int {
	for i, st := range enum.OrderStatusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// UpdateStatus sets the order status. Setting the current status is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if !ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: order_status %q", ErrInvalidStatus, status)
	}
	return s.patchField(ctx, id, "order_status", status, enum.EventOrderStatusChanged,
		func(o model.Order) string { return o.OrderStatus })
}

// UpdatePaymentStatus sets the payment status. Setting the current status is
// a no-op.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if !ValidPaymentStatus(status) {
		return nil, fmt.Errorf("%w: payment_status %q", ErrInvalidStatus, status)
	}
	return s.patchField(ctx, id, "payment_status", status, enum.EventPaymentChanged,
		func(o model.Order) string { return o.PaymentStatus })
}

func (s *OrderService) patchField(ctx context.Context, id, field, value, eventType string, current func(model.Order) string) (*model.Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current(o) == value {
		return &o, nil
	}

	updated, err := s.store.Patch(ctx, id, map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.publish(ctx, eventType, updated)
	return &updated, nil
}
