package records

import (
	"context"
	"encoding/json"
	"fmt"
)

// Table is a typed view over one table of a Backend.
type Table[T any] struct {
	backend Backend
	name    string
}

// NewTable binds a record schema T to a table name.
func NewTable[T any](backend Backend, name string) *Table[T] {
	return &Table[T]{backend: backend, name: name}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// List returns one page of records and the total count.
func (t *Table[T]) List(ctx context.Context, q Query) ([]T, int, error) {
	page, err := t.backend.List(ctx, t.name, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.name, err)
	}
	out := make([]T, 0, len(page.Data))
	for _, raw := range page.Data {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, 0, fmt.Errorf("decode %s record: %w", t.name, err)
		}
		out = append(out, rec)
	}
	return out, page.Total, nil
}

// All walks every page of the table.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	q := Query{Page: 1, Limit: MaxLimit}
	var out []T
	for {
		recs, total, err := t.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if len(recs) == 0 || len(out) >= total {
			return out, nil
		}
		q.Page++
	}
}

// Get fetches a record by id.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	raw, err := t.backend.Get(ctx, t.name, id)
	if err != nil {
		return rec, fmt.Errorf("get %s/%s: %w", t.name, id, err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode %s record: %w", t.name, err)
	}
	return rec, nil
}

// Create stores rec and returns the stored version.
func (t *Table[T]) Create(ctx context.Context, rec T) (T, error) {
	return t.write(ctx, "create", rec, func(b json.RawMessage) (json.RawMessage, error) {
		return t.backend.Create(ctx, t.name, b)
	})
}

// Update replaces the record with id.
func (t *Table[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	return t.write(ctx, "update", rec, func(b json.RawMessage) (json.RawMessage, error) {
		return t.backend.Update(ctx, t.name, id, b)
	})
}

// Patch changes only the given fields of the record with id.
func (t *Table[T]) Patch(ctx context.Context, id string, fields map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("encode %s patch: %w", t.name, err)
	}
	raw, err := t.backend.Patch(ctx, t.name, id, b)
	if err != nil {
		return out, fmt.Errorf("patch %s/%s: %w", t.name, id, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s record: %w", t.name, err)
	}
	return out, nil
}

// Delete removes the record with id.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if err := t.backend.Delete(ctx, t.name, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.name, id, err)
	}
	return nil
}

func (t *Table[T]) write(ctx context.Context, op string, rec T, fn func(json.RawMessage) (json.RawMessage, error)) (T, error) {
	var out T
	b, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode %s record: %w", t.name, err)
	}
	raw, err := fn(b)
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", op, t.name, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s record: %w", t.name, err)
	}
	return out, nil
}
