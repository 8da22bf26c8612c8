package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foodcourt/api/internal/auth"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/handler"
	"github.com/foodcourt/api/internal/middleware"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/records"
	"github.com/foodcourt/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- Mock service ---

type mockOrderService struct {
	getFn                 func(ctx context.Context, id string) (*model.Order, error)
	historyFn             func(ctx context.Context, studentID string) ([]model.Order, error)
	listFn                func(ctx context.Context) ([]model.Order, error)
	updateStatusFn        func(ctx context.Context, id, status string) (*model.Order, error)
	updatePaymentStatusFn func(ctx context.Context, id, status string) (*model.Order, error)
}

func (m *mockOrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, records.ErrNotFound
}

func (m *mockOrderService) History(ctx context.Context, studentID string) ([]model.Order, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, studentID)
	}
	return nil, nil
}

func (m *mockOrderService) List(ctx context.Context) ([]model.Order, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockOrderService) UpdatePaymentStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if m.updatePaymentStatusFn != nil {
		return m.updatePaymentStatusFn(ctx, id, status)
	}
	return nil, fmt.Errorf("not implemented")
}

// --- Helpers ---

const testJWTSecret = "test-secret-for-orders"

func setupOrderRouter(svc *mockOrderService) *chi.Mux {
	h := handler.NewOrderHandler(svc, "https://food.campus.edu")
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		h.RegisterAdminRoutes(r)
	})
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	// Generate a real JWT token from claims
	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Name, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Helpers to build test data ---

func studentClaims(id string) *auth.Claims {
	return &auth.Claims{UserID: id, Name: "Ana", Role: enum.UserRoleStudent}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: "admin-1", Name: "Administrator", Role: enum.UserRoleAdmin}
}

func testOrder(id, studentID string) *model.Order {
	return &model.Order{
		ID:          id,
		OrderNumber: "0001",
		StudentID:   studentID,
		StudentName: "Ana",
		StoreID:     "store-1",
		Items: []model.LineItem{
			{ID: "idli", Name: "Idli", Price: decimal.NewFromInt(40), Quantity: 2},
		},
		TotalAmount:   decimal.NewFromInt(80),
		Token:         "Ana-0001-Idli(2)",
		PaymentStatus: enum.PaymentStatusCompleted,
		OrderStatus:   enum.OrderStatusPlaced,
		OrderDate:     time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func ordersByID(orders ...*model.Order) func(ctx context.Context, id string) (*model.Order, error) {
	return func(ctx context.Context, id string) (*model.Order, error) {
		for _, o := range orders {
			if o.ID == id {
				return o, nil
			}
		}
		return nil, records.ErrNotFound
	}
}

// --- History tests ---

func TestOrderHistory_UsesCallerID(t *testing.T) {
	var gotStudent string
	svc := &mockOrderService{
		historyFn: func(ctx context.Context, studentID string) ([]model.Order, error) {
			gotStudent = studentID
			return []model.Order{*testOrder("o-1", studentID)}, nil
		},
	}
	r := setupOrderRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/orders", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotStudent != "stu-1" {
		t.Errorf("history student: got %q, want stu-1", gotStudent)
	}

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("orders: got %d, want 1", len(resp))
	}
	if resp[0]["total_amount"] != "80.00" {
		t.Errorf("total_amount: got %v, want 80.00", resp[0]["total_amount"])
	}
	items := resp[0]["items"].([]interface{})
	if items[0].(map[string]interface{})["subtotal"] != "80.00" {
		t.Errorf("subtotal: got %v, want 80.00", items[0])
	}
}

func TestOrderHistory_Empty(t *testing.T) {
	r := setupOrderRouter(&mockOrderService{})

	rr := doAuthRequest(t, r, "GET", "/orders", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if body := bytes.TrimSpace(rr.Body.Bytes()); string(body) != "[]" {
		t.Errorf("body: got %s, want []", body)
	}
}

// --- Get tests ---

func TestOrderGet_Ownership(t *testing.T) {
	order := testOrder("o-1", "stu-1")
	r := setupOrderRouter(&mockOrderService{getFn: ordersByID(order)})

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"owner", studentClaims("stu-1"), http.StatusOK},
		{"other student", studentClaims("stu-2"), http.StatusNotFound},
		{"admin", adminClaims(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doAuthRequest(t, r, "GET", "/orders/o-1", nil, tt.claims)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	r := setupOrderRouter(&mockOrderService{})

	rr := doAuthRequest(t, r, "GET", "/orders/missing", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderQRCode(t *testing.T) {
	order := testOrder("o-1", "stu-1")
	r := setupOrderRouter(&mockOrderService{getFn: ordersByID(order)})

	rr := doAuthRequest(t, r, "GET", "/orders/o-1/qr", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %q, want image/png", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG body")
	}
}

func TestOrderQRCode_MissingToken(t *testing.T) {
	order := testOrder("o-1", "stu-1")
	order.Token = ""
	r := setupOrderRouter(&mockOrderService{getFn: ordersByID(order)})

	rr := doAuthRequest(t, r, "GET", "/orders/o-1/qr", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

// --- Admin tests ---

func TestAdminOrders_RequiresAdmin(t *testing.T) {
	r := setupOrderRouter(&mockOrderService{})

	rr := doAuthRequest(t, r, "GET", "/admin/orders", nil, studentClaims("stu-1"))
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestAdminOrders_StatusFilter(t *testing.T) {
	placed := testOrder("o-1", "stu-1")
	ready := testOrder("o-2", "stu-2")
	ready.OrderStatus = enum.OrderStatusReady
	svc := &mockOrderService{
		listFn: func(ctx context.Context) ([]model.Order, error) {
			return []model.Order{*ready, *placed}, nil
		},
	}
	r := setupOrderRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/admin/orders", nil, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := len(decodeList(t, rr)); got != 2 {
		t.Errorf("all orders: got %d, want 2", got)
	}

	rr = doAuthRequest(t, r, "GET", "/admin/orders?status=ready", nil, adminClaims())
	resp := decodeList(t, rr)
	if len(resp) != 1 || resp[0]["id"] != "o-2" {
		t.Errorf("ready orders: got %v", resp)
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	var gotID, gotStatus string
	svc := &mockOrderService{
		updateStatusFn: func(ctx context.Context, id, status string) (*model.Order, error) {
			gotID, gotStatus = id, status
			o := testOrder(id, "stu-1")
			o.OrderStatus = status
			return o, nil
		},
	}
	r := setupOrderRouter(svc)

	rr := doAuthRequest(t, r, "PATCH", "/admin/orders/o-1/status", map[string]string{"status": "preparing"}, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotID != "o-1" || gotStatus != "preparing" {
		t.Errorf("update called with %q, %q", gotID, gotStatus)
	}
	if resp := decodeResponse(t, rr); resp["order_status"] != "preparing" {
		t.Errorf("order_status: got %v, want preparing", resp["order_status"])
	}
}

func TestAdminUpdateStatus_Errors(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(ctx context.Context, id, status string) (*model.Order, error) {
			switch {
			case !service.ValidOrderStatus(status):
				return nil, fmt.Errorf("%w: order_status %q", service.ErrInvalidStatus, status)
			case id == "missing":
				return nil, records.ErrNotFound
			case id == "broken":
				return nil, fmt.Errorf("%w: connection refused", service.ErrPersist)
			}
			return testOrder(id, "stu-1"), nil
		},
	}
	r := setupOrderRouter(svc)

	tests := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{"unknown status", "/admin/orders/o-1/status", map[string]string{"status": "eaten"}, http.StatusBadRequest},
		{"empty status", "/admin/orders/o-1/status", map[string]string{}, http.StatusBadRequest},
		{"unknown order", "/admin/orders/missing/status", map[string]string{"status": "ready"}, http.StatusNotFound},
		{"store failure", "/admin/orders/broken/status", map[string]string{"status": "ready"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doAuthRequest(t, r, "PATCH", tt.path, tt.body, adminClaims())
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestAdminUpdatePaymentStatus(t *testing.T) {
	svc := &mockOrderService{
		updatePaymentStatusFn: func(ctx context.Context, id, status string) (*model.Order, error) {
			o := testOrder(id, "stu-1")
			o.PaymentStatus = status
			return o, nil
		},
	}
	r := setupOrderRouter(svc)

	rr := doAuthRequest(t, r, "PATCH", "/admin/orders/o-1/payment-status", map[string]string{"status": "pending"}, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["payment_status"] != "pending" {
		t.Errorf("payment_status: got %v, want pending", resp["payment_status"])
	}
}
