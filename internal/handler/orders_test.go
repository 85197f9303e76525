package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/auth"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
	"github.com/washpoint/api/internal/handler"
	mw "github.com/washpoint/api/internal/middleware"
	"github.com/washpoint/api/internal/service"
	"github.com/washpoint/api/internal/ws"
)

const testSecret = "test-secret"

// mockOrderManager implements handler.OrderManager with configurable
// functions. Unset functions fall back to a minimal happy path.
type mockOrderManager struct {
	createOrderFn   func(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*service.OrderDetail, error)
	getOrderFn      func(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error)
	listOrdersFn    func(ctx context.Context, actor service.Actor, q service.ListOrdersQuery) ([]database.Order, int64, error)
	updateOrderFn   func(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error)
	cancelOrderFn   func(ctx context.Context, actor service.Actor, orderID uuid.UUID, reason string) (*service.OrderDetail, error)
	addItemFn       func(ctx context.Context, actor service.Actor, orderID uuid.UUID, item service.OrderItemRequest) (*service.OrderDetail, error)
	updateItemQtyFn func(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID, qty string) (*service.OrderDetail, error)
	removeItemFn    func(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID) (*service.OrderDetail, error)
	addPaymentFn    func(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PaymentRequest) (database.Payment, error)
	listPaymentsFn  func(ctx context.Context, actor service.Actor, orderID uuid.UUID) ([]database.Payment, error)
	setPickupFn     func(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PickupRequest) (database.PickupDelivery, error)
}

func (m *mockOrderManager) CreateOrder(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*service.OrderDetail, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, actor, req)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) GetOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, actor, orderID)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) ListOrders(ctx context.Context, actor service.Actor, q service.ListOrdersQuery) ([]database.Order, int64, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, actor, q)
	}
	return nil, 0, nil
}

func (m *mockOrderManager) UpdateOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error) {
	if m.updateOrderFn != nil {
		return m.updateOrderFn(ctx, actor, orderID, req)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) CancelOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, reason string) (*service.OrderDetail, error) {
	if m.cancelOrderFn != nil {
		return m.cancelOrderFn(ctx, actor, orderID, reason)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) AddItem(ctx context.Context, actor service.Actor, orderID uuid.UUID, item service.OrderItemRequest) (*service.OrderDetail, error) {
	if m.addItemFn != nil {
		return m.addItemFn(ctx, actor, orderID, item)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) UpdateItemQty(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID, qty string) (*service.OrderDetail, error) {
	if m.updateItemQtyFn != nil {
		return m.updateItemQtyFn(ctx, actor, orderID, itemID, qty)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) RemoveItem(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID) (*service.OrderDetail, error) {
	if m.removeItemFn != nil {
		return m.removeItemFn(ctx, actor, orderID, itemID)
	}
	return sampleDetail(), nil
}

func (m *mockOrderManager) AddPayment(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PaymentRequest) (database.Payment, error) {
	if m.addPaymentFn != nil {
		return m.addPaymentFn(ctx, actor, orderID, req)
	}
	return database.Payment{ID: uuid.New(), OrderID: orderID, Method: req.Method}, nil
}

func (m *mockOrderManager) ListPayments(ctx context.Context, actor service.Actor, orderID uuid.UUID) ([]database.Payment, error) {
	if m.listPaymentsFn != nil {
		return m.listPaymentsFn(ctx, actor, orderID)
	}
	return nil, nil
}

func (m *mockOrderManager) SetPickup(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PickupRequest) (database.PickupDelivery, error) {
	if m.setPickupFn != nil {
		return m.setPickupFn(ctx, actor, orderID, req)
	}
	return database.PickupDelivery{ID: uuid.New(), OrderID: orderID}, nil
}

// mockNotifier captures broadcast events.
type mockNotifier struct {
	events []ws.Event
}

func (m *mockNotifier) BroadcastToOutlet(outletID uuid.UUID, event ws.Event) {
	m.events = append(m.events, event)
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func sampleOrder() database.Order {
	return database.Order{
		ID:            uuid.New(),
		Code:          "HQ-20260301-0001",
		OutletID:      uuid.New(),
		CustomerID:    uuid.New(),
		Status:        enum.OrderStatusPending,
		Subtotal:      makeNumeric("30000.00"),
		Discount:      makeNumeric("0.00"),
		Total:         makeNumeric("30000.00"),
		PaidAmount:    makeNumeric("0.00"),
		PaymentStatus: enum.PaymentStatusUnpaid,
		CreatedBy:     uuid.New(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func sampleDetail() *service.OrderDetail {
	order := sampleOrder()
	return &service.OrderDetail{
		Order:    order,
		Customer: database.Customer{ID: order.CustomerID, Name: "Budi", Phone: "0811111111"},
	}
}

func newOrderRouter(m handler.OrderManager, notifier handler.OrderNotifier) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(testSecret))
		handler.NewOrderHandler(m, notifier).RegisterRoutes(r)
	})
	return r
}

func authedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)

	token, err := auth.GenerateToken(testSecret, uuid.New(), nil, enum.UserRoleSuperadmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

// --- Tests ---

func TestOrders_Unauthenticated(t *testing.T) {
	router := newOrderRouter(&mockOrderManager{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestCreateOrder_Created(t *testing.T) {
	detail := sampleDetail()
	var captured service.CreateOrderRequest
	m := &mockOrderManager{
		createOrderFn: func(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*service.OrderDetail, error) {
			captured = req
			return detail, nil
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(m, notifier)

	payload := map[string]any{
		"outlet_id":   detail.Order.OutletID,
		"customer_id": detail.Order.CustomerID,
		"items": []map[string]any{
			{"service_id": uuid.New(), "qty": "2"},
		},
		"voucher_code": "HEMAT10",
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/orders", payload))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if captured.VoucherCode != "HEMAT10" || len(captured.Items) != 1 || captured.Items[0].Qty != "2" {
		t.Errorf("request not forwarded: %+v", captured)
	}

	var resp struct {
		Code  string `json:"code"`
		Total string `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != detail.Order.Code {
		t.Errorf("code: got %v, want %v", resp.Code, detail.Order.Code)
	}
	if resp.Total != "30000.00" {
		t.Errorf("total: got %v, want 30000.00", resp.Total)
	}

	if len(notifier.events) != 1 || notifier.events[0].Type != ws.EventOrderCreated {
		t.Errorf("expected one order.created event, got %+v", notifier.events)
	}
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	router := newOrderRouter(&mockOrderManager{}, nil)

	req := authedRequest(t, http.MethodPost, "/orders", nil)
	req.Body = http.NoBody
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateOrder_ValidationError(t *testing.T) {
	m := &mockOrderManager{
		createOrderFn: func(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*service.OrderDetail, error) {
			return nil, service.ErrEmptyItems
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/orders", map[string]any{}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if msg := decodeError(t, rr); msg != service.ErrEmptyItems.Error() {
		t.Errorf("error: got %q", msg)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	m := &mockOrderManager{
		getOrderFn: func(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error) {
			return nil, service.ErrOrderNotFound
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/orders/"+uuid.NewString(), nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestGetOrder_Forbidden(t *testing.T) {
	m := &mockOrderManager{
		getOrderFn: func(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error) {
			return nil, service.ErrOutletForbidden
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/orders/"+uuid.NewString(), nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestGetOrder_InvalidID(t *testing.T) {
	router := newOrderRouter(&mockOrderManager{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/orders/not-a-uuid", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestListOrders_PaginationMeta(t *testing.T) {
	var captured service.ListOrdersQuery
	m := &mockOrderManager{
		listOrdersFn: func(ctx context.Context, actor service.Actor, q service.ListOrdersQuery) ([]database.Order, int64, error) {
			captured = q
			return []database.Order{sampleOrder(), sampleOrder()}, 45, nil
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/orders?page=2&limit=20&status=PENDING", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if captured.Limit != 20 || captured.Offset != 20 || captured.Status != "PENDING" {
		t.Errorf("query not forwarded: %+v", captured)
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("data: got %d rows, want 2", len(resp.Data))
	}
	if resp.Meta.Page != 2 || resp.Meta.Total != 45 || resp.Meta.TotalPages != 3 {
		t.Errorf("meta: got %+v", resp.Meta)
	}
}

func TestListOrders_LimitCapped(t *testing.T) {
	var captured service.ListOrdersQuery
	m := &mockOrderManager{
		listOrdersFn: func(ctx context.Context, actor service.Actor, q service.ListOrdersQuery) ([]database.Order, int64, error) {
			captured = q
			return nil, 0, nil
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/orders?limit=500", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if captured.Limit != 100 {
		t.Errorf("limit: got %d, want 100", captured.Limit)
	}
}

func TestUpdateOrder_InvalidTransition(t *testing.T) {
	m := &mockOrderManager{
		updateOrderFn: func(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error) {
			return nil, service.ErrInvalidTransition
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPatch, "/orders/"+uuid.NewString(),
		map[string]any{"status": "WASHING"}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestCancelOrder_EmptyBodyAccepted(t *testing.T) {
	var gotReason string
	m := &mockOrderManager{
		cancelOrderFn: func(ctx context.Context, actor service.Actor, orderID uuid.UUID, reason string) (*service.OrderDetail, error) {
			gotReason = reason
			return sampleDetail(), nil
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(m, notifier)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if gotReason != "" {
		t.Errorf("reason: got %q, want empty", gotReason)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != ws.EventOrderUpdated {
		t.Errorf("expected one order.updated event, got %+v", notifier.events)
	}
}

func TestAddPayment_MethodRequired(t *testing.T) {
	called := false
	m := &mockOrderManager{
		addPaymentFn: func(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PaymentRequest) (database.Payment, error) {
			called = true
			return database.Payment{}, nil
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/orders/"+uuid.NewString()+"/payments",
		map[string]any{"amount": "10000"}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if called {
		t.Error("service must not be called when method is missing")
	}
}

func TestAddPayment_Created(t *testing.T) {
	orderID := uuid.New()
	m := &mockOrderManager{
		addPaymentFn: func(ctx context.Context, actor service.Actor, oid uuid.UUID, req service.PaymentRequest) (database.Payment, error) {
			return database.Payment{
				ID:      uuid.New(),
				OrderID: oid,
				Method:  req.Method,
				Amount:  makeNumeric("10000.00"),
			}, nil
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(m, notifier)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/orders/"+orderID.String()+"/payments",
		map[string]any{"method": enum.PaymentMethodCash, "amount": "10000"}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Amount string `json:"amount"`
		Method string `json:"method"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Method != enum.PaymentMethodCash || resp.Amount != "10000.00" {
		t.Errorf("response: got %+v", resp)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != ws.EventOrderPayment {
		t.Errorf("expected one order.payment event, got %+v", notifier.events)
	}
}

func TestRemoveItem_NotFound(t *testing.T) {
	m := &mockOrderManager{
		removeItemFn: func(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID) (*service.OrderDetail, error) {
			return nil, service.ErrOrderItemNotFound
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodDelete,
		"/orders/"+uuid.NewString()+"/items/"+uuid.NewString(), nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestSetPickup_OK(t *testing.T) {
	orderID := uuid.New()
	var captured service.PickupRequest
	m := &mockOrderManager{
		setPickupFn: func(ctx context.Context, actor service.Actor, oid uuid.UUID, req service.PickupRequest) (database.PickupDelivery, error) {
			captured = req
			return database.PickupDelivery{
				ID:            uuid.New(),
				OrderID:       oid,
				PickupAddress: pgtype.Text{String: *req.PickupAddress, Valid: true},
			}, nil
		},
	}
	router := newOrderRouter(m, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPut, "/orders/"+orderID.String()+"/pickup",
		map[string]any{"pickup_address": "Jl. Melati 1"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if captured.PickupAddress == nil || *captured.PickupAddress != "Jl. Melati 1" {
		t.Errorf("pickup address not forwarded: %+v", captured)
	}
}
