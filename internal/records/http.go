package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient is a Backend that talks to a remote record-table API mounted at
// <base>/tables. Failed calls are not retried.
type HTTPClient struct {
	base   string
	client *http.Client
}

// NewHTTPClient creates a client for the API at baseURL. A nil httpClient
// gets a traced default.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPClient{base: strings.TrimRight(baseURL, "/"), client: httpClient}
}

func (c *HTTPClient) tableURL(table string, id string) string {
	u := c.base + "/tables/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *HTTPClient) List(ctx context.Context, table string, q Query) (Page, error) {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}

	var page Page
	body, err := c.do(ctx, http.MethodGet, c.tableURL(table, "")+"?"+v.Encode(), nil)
	if err != nil {
		return page, err
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return page, fmt.Errorf("decode page: %w", err)
	}
	if page.Data == nil {
		page.Data = []json.RawMessage{}
	}
	return page, nil
}

func (c *HTTPClient) Get(ctx context.Context, table, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, c.tableURL(table, id), nil)
}

func (c *HTTPClient) Create(ctx context.Context, table string, rec json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.tableURL(table, ""), rec)
}

func (c *HTTPClient) Update(ctx context.Context, table, id string, rec json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, c.tableURL(table, id), rec)
}

func (c *HTTPClient) Patch(ctx context.Context, table, id string, fields json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, c.tableURL(table, id), fields)
}

func (c *HTTPClient) Delete(ctx context.Context, table, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.tableURL(table, id), nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body json.RawMessage) (json.RawMessage, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusNotFound:
		if isUnknownTable(b) {
			return nil, ErrUnknownTable
		}
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrConflict
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, errorMessage(b))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return b, nil
}

func errorMessage(b []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}

func isUnknownTable(b []byte) bool {
	return strings.Contains(errorMessage(b), ErrUnknownTable.Error())
}
