// Package database is the Postgres implementation of the record-table
// backend. Every table shares one JSONB "records" relation keyed by
// (table_name, id).
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/foodcourt/api/internal/records"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements records.Backend.
type Store struct {
	db     DBTX
	tables map[string]bool
}

// New creates a Store serving the given tables.
func New(db DBTX, tables ...string) *Store {
	s := &Store{db: db, tables: make(map[string]bool, len(tables))}
	for _, t := range tables {
		s.tables[t] = true
	}
	return s
}

var _ records.Backend = (*Store)(nil)

const (
	countRecords = `SELECT count(*) FROM records
WHERE table_name = $1 AND ($2::text = '' OR data::text ILIKE '%' || $2::text || '%')`

	listRecords = `SELECT data FROM records
WHERE table_name = $1 AND ($2::text = '' OR data::text ILIKE '%' || $2::text || '%')
ORDER BY created_at, id
LIMIT $3 OFFSET $4`

	listRecordsSortAsc = `SELECT data FROM records
WHERE table_name = $1 AND ($2::text = '' OR data::text ILIKE '%' || $2::text || '%')
ORDER BY data -> $5::text ASC NULLS FIRST, created_at, id
LIMIT $3 OFFSET $4`

	listRecordsSortDesc = `SELECT data FROM records
WHERE table_name = $1 AND ($2::text = '' OR data::text ILIKE '%' || $2::text || '%')
ORDER BY data -> $5::text DESC NULLS LAST, created_at, id
LIMIT $3 OFFSET $4`

	getRecord = `SELECT data FROM records WHERE table_name = $1 AND id = $2`

	createRecord = `INSERT INTO records (table_name, id, data)
VALUES ($1, $2, $3::jsonb)
RETURNING data`

	updateRecord = `UPDATE records SET data = $3::jsonb, updated_at = now()
WHERE table_name = $1 AND id = $2
RETURNING data`

	patchRecord = `UPDATE records SET data = data || ($3::jsonb - 'id'), updated_at = now()
WHERE table_name = $1 AND id = $2
RETURNING data`

	deleteRecord = `DELETE FROM records WHERE table_name = $1 AND id = $2`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) checkTable(table string) error {
	if !s.tables[table] {
		return fmt.Errorf("%w: %s", records.ErrUnknownTable, table)
	}
	return nil
}

func (s *Store) List(ctx context.Context, table string, q records.Query) (records.Page, error) {
	if err := s.checkTable(table); err != nil {
		return records.Page{}, err
	}
	q = q.Normalize()
	search := likeEscaper.Replace(q.Search)

	var total int
	if err := s.db.QueryRow(ctx, countRecords, table, search).Scan(&total); err != nil {
		return records.Page{}, fmt.Errorf("count records: %w", err)
	}

	var (
		rows pgx.Rows
		err  error
	)
	field, desc := records.ParseSort(q.Sort)
	switch {
	case field == "":
		rows, err = s.db.Query(ctx, listRecords, table, search, q.Limit, q.Offset())
	case desc:
		rows, err = s.db.Query(ctx, listRecordsSortDesc, table, search, q.Limit, q.Offset(), field)
	default:
		rows, err = s.db.Query(ctx, listRecordsSortAsc, table, search, q.Limit, q.Offset(), field)
	}
	if err != nil {
		return records.Page{}, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	page := records.Page{Total: total, Page: q.Page, Limit: q.Limit, Table: table, Data: []json.RawMessage{}}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return records.Page{}, fmt.Errorf("scan record: %w", err)
		}
		page.Data = append(page.Data, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return records.Page{}, fmt.Errorf("iterate records: %w", err)
	}
	return page, nil
}

func (s *Store) Get(ctx context.Context, table, id string) (json.RawMessage, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	return s.scanOne(s.db.QueryRow(ctx, getRecord, table, id))
}

func (s *Store) Create(ctx context.Context, table string, rec json.RawMessage) (json.RawMessage, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	id, err := records.RecordID(rec)
	if err != nil {
		return nil, err
	}
	rec, id, err = records.WithID(rec, id)
	if err != nil {
		return nil, err
	}
	out, err := s.scanOne(s.db.QueryRow(ctx, createRecord, table, id, string(rec)))
	if isUniqueViolation(err) {
		return nil, records.ErrConflict
	}
	return out, err
}

func (s *Store) Update(ctx context.Context, table, id string, rec json.RawMessage) (json.RawMessage, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	rec, _, err := records.WithID(rec, id)
	if err != nil {
		return nil, err
	}
	return s.scanOne(s.db.QueryRow(ctx, updateRecord, table, id, string(rec)))
}

func (s *Store) Patch(ctx context.Context, table, id string, fields json.RawMessage) (json.RawMessage, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(fields, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: patch must be a JSON object", records.ErrInvalidRecord)
	}
	return s.scanOne(s.db.QueryRow(ctx, patchRecord, table, id, string(fields)))
}

func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, deleteRecord, table, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) scanOne(row pgx.Row) (json.RawMessage, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, records.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

// isUniqueViolation checks for a primary key clash (pgconn error code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "records_pkey"
	}
	return false
}
