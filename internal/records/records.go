// Package records is the narrow client for the generic record-table API.
//
// A Backend moves raw JSON records per table; Table[T] layers a typed schema
// on top of it so callers never handle untyped maps.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Errors returned by backends.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrUnknownTable  = errors.New("unknown table")
	ErrInvalidRecord = errors.New("invalid record")
)

// Query selects a page of records. Sort names a top-level field; a leading
// "-" sorts descending. Search is a case-insensitive substring match over the
// whole record.
type Query struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

// Normalize fills defaults and clamps the limit.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset returns the number of records skipped before this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of a list response.
type Page struct {
	Data  []json.RawMessage `json:"data"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Table string            `json:"table"`
}

// Backend stores JSON records keyed by their "id" field.
type Backend interface {
	List(ctx context.Context, table string, q Query) (Page, error)
	Get(ctx context.Context, table, id string) (json.RawMessage, error)
	Create(ctx context.Context, table string, rec json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, table, id string, rec json.RawMessage) (json.RawMessage, error)
	Patch(ctx context.Context, table, id string, fields json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, table, id string) error
}

// --- Record helpers shared by backends ---

// RecordID extracts the "id" field of a JSON object.
func RecordID(rec json.RawMessage) (string, error) {
	var head struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(rec, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	switch v := head.ID.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%v", v), nil
	}
	return "", fmt.Errorf("%w: id must be a string", ErrInvalidRecord)
}

// WithID returns rec with its "id" field set, generating one when empty.
func WithID(rec json.RawMessage, id string) (json.RawMessage, string, error) {
	obj, err := decodeObject(rec)
	if err != nil {
		return nil, "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	b, _ := json.Marshal(id)
	obj["id"] = b
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return out, id, nil
}

// MergePatch applies the top-level fields of patch onto rec. The id is kept.
func MergePatch(rec, patch json.RawMessage) (json.RawMessage, error) {
	obj, err := decodeObject(rec)
	if err != nil {
		return nil, err
	}
	fields, err := decodeObject(patch)
	if err != nil {
		return nil, err
	}
	id := obj["id"]
	for k, v := range fields {
		obj[k] = v
	}
	if id != nil {
		obj["id"] = id
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return out, nil
}

// MatchesSearch reports whether rec contains search, ignoring case.
func MatchesSearch(rec json.RawMessage, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(string(rec)), strings.ToLower(search))
}

// SortRecords orders recs in place by a top-level field. Numbers compare
// numerically, everything else by its textual value. Records missing the
// field sort first.
func SortRecords(recs []json.RawMessage, spec string) {
	field, desc := ParseSort(spec)
	if field == "" {
		return
	}
	keys := make([]any, len(recs))
	for i, r := range recs {
		keys[i] = fieldValue(r, field)
	}
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		c := compareValues(keys[idx[a]], keys[idx[b]])
		if desc {
			return c > 0
		}
		return c < 0
	})
	sorted := make([]json.RawMessage, len(recs))
	for i, j := range idx {
		sorted[i] = recs[j]
	}
	copy(recs, sorted)
}

// ParseSort splits "-field" into ("field", true).
func ParseSort(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "-") {
		return spec[1:], true
	}
	return spec, false
}

func decodeObject(rec json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(rec))
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: record must be a JSON object", ErrInvalidRecord)
	}
	return obj, nil
}

func fieldValue(rec json.RawMessage, field string) any {
	obj, err := decodeObject(rec)
	if err != nil {
		return nil
	}
	raw, ok := obj[field]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
