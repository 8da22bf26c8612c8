// Package events carries order change notifications to live subscribers and
// the order event stream.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/foodcourt/api/internal/model"
)

// Event is one order change. StudentID routes it to the owner's live
// connections.
type Event struct {
	Type      string      `json:"type"`
	OrderID   string      `json:"order_id"`
	StudentID string      `json:"student_id"`
	Order     model.Order `json:"order"`
	At        time.Time   `json:"at"`
}

// Publisher delivers events. Publishing is best effort for callers: a failed
// publish never undoes the write that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(ctx context.Context, e Event) error { return nil }
