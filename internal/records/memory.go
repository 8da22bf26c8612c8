package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memTable struct {
	order []string
	rows  map[string]json.RawMessage
}

// Memory is an in-process Backend. Records keep insertion order unless a
// sort is requested.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewMemory creates a backend that serves the given tables.
func NewMemory(tables ...string) *Memory {
	m := &Memory{tables: make(map[string]*memTable, len(tables))}
	for _, name := range tables {
		m.tables[name] = &memTable{rows: make(map[string]json.RawMessage)}
	}
	return m
}

func (m *Memory) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

func (m *Memory) List(ctx context.Context, table string, q Query) (Page, error) {
	q = q.Normalize()

	m.mu.RLock()
	t, err := m.table(table)
	if err != nil {
		m.mu.RUnlock()
		return Page{}, err
	}
	matched := make([]json.RawMessage, 0, len(t.order))
	for _, id := range t.order {
		rec := t.rows[id]
		if MatchesSearch(rec, q.Search) {
			matched = append(matched, rec)
		}
	}
	m.mu.RUnlock()

	SortRecords(matched, q.Sort)

	page := Page{Total: len(matched), Page: q.Page, Limit: q.Limit, Table: table, Data: []json.RawMessage{}}
	start := q.Offset()
	if start < len(matched) {
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Data = matched[start:end]
	}
	return page, nil
}

func (m *Memory) Get(ctx context.Context, table, id string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Create(ctx context.Context, table string, rec json.RawMessage) (json.RawMessage, error) {
	id, err := RecordID(rec)
	if err != nil {
		return nil, err
	}
	rec, id, err = WithID(rec, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	if _, exists := t.rows[id]; exists {
		return nil, ErrConflict
	}
	t.rows[id] = rec
	t.order = append(t.order, id)
	return rec, nil
}

func (m *Memory) Update(ctx context.Context, table, id string, rec json.RawMessage) (json.RawMessage, error) {
	rec, _, err := WithID(rec, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	if _, ok := t.rows[id]; !ok {
		return nil, ErrNotFound
	}
	t.rows[id] = rec
	return rec, nil
}

func (m *Memory) Patch(ctx context.Context, table, id string, fields json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	cur, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	merged, err := MergePatch(cur, fields)
	if err != nil {
		return nil, err
	}
	t.rows[id] = merged
	return merged, nil
}

func (m *Memory) Delete(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}
