package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/records"
	"github.com/go-chi/chi/v5"
)

// TableHandler serves the generic record-table API over a records.Backend.
// Accounts are read-only here and never expose their password hash; they are
// managed through the auth and admin user endpoints.
type TableHandler struct {
	backend records.Backend
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(backend records.Backend) *TableHandler {
	return &TableHandler{backend: backend}
}

// RegisterRoutes registers record endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables/{table}", h.List)
	r.Post("/tables/{table}", h.Create)
	r.Get("/tables/{table}/{id}", h.Get)
	r.Put("/tables/{table}/{id}", h.Update)
	r.Patch("/tables/{table}/{id}", h.Patch)
	r.Delete("/tables/{table}/{id}", h.Delete)
}

// List handles GET /tables/{table}?page=&limit=&search=&sort=.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	q := records.Query{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
	}
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			q.Page = v
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			q.Limit = v
		}
	}
	if q.Limit <= 0 || q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}

	table := chi.URLParam(r, "table")
	page, err := h.backend.List(r.Context(), table, q.Normalize())
	if err != nil {
		writeServiceError(w, "list records", err)
		return
	}
	if page.Data == nil {
		page.Data = []json.RawMessage{}
	}
	for i, rec := range page.Data {
		page.Data[i] = redact(table, rec)
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /tables/{table}/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.backend.Get(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, redact(chi.URLParam(r, "table"), rec))
}

// Create handles POST /tables/{table}. A record without an id gets one.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	if readOnly(w, r) {
		return
	}
	body, ok := readRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.backend.Create(r.Context(), chi.URLParam(r, "table"), body)
	if err != nil {
		writeServiceError(w, "create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /tables/{table}/{id}.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	if readOnly(w, r) {
		return
	}
	body, ok := readRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.backend.Update(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"), body)
	if err != nil {
		writeServiceError(w, "update record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Patch handles PATCH /tables/{table}/{id}.
func (h *TableHandler) Patch(w http.ResponseWriter, r *http.Request) {
	if readOnly(w, r) {
		return
	}
	body, ok := readRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.backend.Patch(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"), body)
	if err != nil {
		writeServiceError(w, "patch record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /tables/{table}/{id}.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if readOnly(w, r) {
		return
	}
	if err := h.backend.Delete(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const (
	maxPageLimit  = 100
	maxRecordSize = 1 << 20
)

// readRecord reads a JSON object body.
func readRecord(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRecordSize))
	if err != nil || !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	return body, true
}

// readOnly rejects writes to the accounts table.
func readOnly(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "table") != enum.TableUsers {
		return false
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "users are managed through /admin/users"})
	return true
}

// redact drops the password hash from account records.
func redact(table string, rec json.RawMessage) json.RawMessage {
	if table != enum.TableUsers {
		return rec
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return rec
	}
	delete(fields, "password")
	out, err := json.Marshal(fields)
	if err != nil {
		return rec
	}
	return out
}
