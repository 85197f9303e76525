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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/handler"
)

type mockVoucherStore struct {
	createVoucherFn     func(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error)
	getVoucherFn        func(ctx context.Context, id uuid.UUID) (database.Voucher, error)
	getVoucherByCodeFn  func(ctx context.Context, code string) (database.Voucher, error)
	listVouchersFn      func(ctx context.Context, arg database.ListVouchersParams) ([]database.Voucher, error)
	countVouchersFn     func(ctx context.Context, arg database.ListVouchersParams) (int64, error)
	updateVoucherFn     func(ctx context.Context, arg database.UpdateVoucherParams) (database.Voucher, error)
	deactivateVoucherFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockVoucherStore) CreateVoucher(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error) {
	if m.createVoucherFn != nil {
		return m.createVoucherFn(ctx, arg)
	}
	return database.Voucher{ID: uuid.New(), Code: arg.Code, IsActive: arg.IsActive}, nil
}

func (m *mockVoucherStore) GetVoucher(ctx context.Context, id uuid.UUID) (database.Voucher, error) {
	if m.getVoucherFn != nil {
		return m.getVoucherFn(ctx, id)
	}
	return database.Voucher{}, pgx.ErrNoRows
}

func (m *mockVoucherStore) GetVoucherByCode(ctx context.Context, code string) (database.Voucher, error) {
	if m.getVoucherByCodeFn != nil {
		return m.getVoucherByCodeFn(ctx, code)
	}
	return database.Voucher{}, pgx.ErrNoRows
}

func (m *mockVoucherStore) ListVouchers(ctx context.Context, arg database.ListVouchersParams) ([]database.Voucher, error) {
	if m.listVouchersFn != nil {
		return m.listVouchersFn(ctx, arg)
	}
	return nil, nil
}

func (m *mockVoucherStore) CountVouchers(ctx context.Context, arg database.ListVouchersParams) (int64, error) {
	if m.countVouchersFn != nil {
		return m.countVouchersFn(ctx, arg)
	}
	return 0, nil
}

func (m *mockVoucherStore) UpdateVoucher(ctx context.Context, arg database.UpdateVoucherParams) (database.Voucher, error) {
	if m.updateVoucherFn != nil {
		return m.updateVoucherFn(ctx, arg)
	}
	return database.Voucher{ID: arg.ID, Code: arg.Code}, nil
}

func (m *mockVoucherStore) DeactivateVoucher(ctx context.Context, id uuid.UUID) error {
	if m.deactivateVoucherFn != nil {
		return m.deactivateVoucherFn(ctx, id)
	}
	return nil
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	return httptest.NewRequest(method, target, &buf)
}

func newVoucherRouter(store handler.VoucherStore) chi.Router {
	r := chi.NewRouter()
	h := handler.NewVoucherHandler(store)
	h.RegisterReadRoutes(r)
	h.RegisterAdminRoutes(r)
	return r
}

func TestCreateVoucher_UppercasesCode(t *testing.T) {
	var captured database.CreateVoucherParams
	store := &mockVoucherStore{
		createVoucherFn: func(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error) {
			captured = arg
			return database.Voucher{ID: uuid.New(), Code: arg.Code}, nil
		},
	}
	router := newVoucherRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/vouchers",
		map[string]any{"code": "hemat10", "percent_off": 10}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if captured.Code != "HEMAT10" {
		t.Errorf("code: got %q, want HEMAT10", captured.Code)
	}
}

func TestCreateVoucher_BothDiscountsRejected(t *testing.T) {
	router := newVoucherRouter(&mockVoucherStore{})

	cases := []map[string]any{
		{"code": "X"},                                          // neither
		{"code": "X", "percent_off": 10, "flat_off": "5000"},   // both
		{"percent_off": 10},                                    // missing code
		{"code": "X", "percent_off": 0},                        // out of range
		{"code": "X", "percent_off": 101},                      // out of range
	}
	for i, payload := range cases {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/vouchers", payload))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("case %d: got %d, want 400: %s", i, rr.Code, rr.Body.String())
		}
	}
}

func TestCreateVoucher_DuplicateCode(t *testing.T) {
	store := &mockVoucherStore{
		createVoucherFn: func(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error) {
			return database.Voucher{}, &pgconn.PgError{Code: "23505"}
		},
	}
	router := newVoucherRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/vouchers",
		map[string]any{"code": "DUP", "percent_off": 10}))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rr.Code)
	}
}

func TestVoucherPreview(t *testing.T) {
	store := &mockVoucherStore{
		getVoucherByCodeFn: func(ctx context.Context, code string) (database.Voucher, error) {
			return database.Voucher{
				ID:          uuid.New(),
				Code:        code,
				IsActive:    true,
				PercentOff:  pgtype.Int4{Int32: 10, Valid: true},
				MaxDiscount: makeNumeric("5000.00"),
			}, nil
		},
	}
	router := newVoucherRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/vouchers/code/hemat10/preview?subtotal=100000", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Code     string `json:"code"`
		Subtotal string `json:"subtotal"`
		Discount string `json:"discount"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "HEMAT10" {
		t.Errorf("code: got %q, want HEMAT10", resp.Code)
	}
	if resp.Discount != "5000.00" {
		t.Errorf("discount: got %q, want 5000.00", resp.Discount)
	}
	if resp.Reason != "" {
		t.Errorf("reason should be empty, got %q", resp.Reason)
	}
}

func TestVoucherPreview_ExpiredGivesReason(t *testing.T) {
	store := &mockVoucherStore{
		getVoucherByCodeFn: func(ctx context.Context, code string) (database.Voucher, error) {
			return database.Voucher{
				ID:         uuid.New(),
				Code:       code,
				IsActive:   true,
				PercentOff: pgtype.Int4{Int32: 10, Valid: true},
				EndsAt:     pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true},
			}, nil
		},
	}
	router := newVoucherRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/vouchers/code/OLD/preview?subtotal=50000", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var resp struct {
		Discount string `json:"discount"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Discount != "0.00" || resp.Reason == "" {
		t.Errorf("expected zero discount with a reason, got %+v", resp)
	}
}

func TestVoucherPreview_BadSubtotal(t *testing.T) {
	router := newVoucherRouter(&mockVoucherStore{})

	for _, qs := range []string{"", "subtotal=abc", "subtotal=-5"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/vouchers/code/X/preview?"+qs, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("query %q: got %d, want 400", qs, rr.Code)
		}
	}
}

func TestVoucherPreview_UnknownCode(t *testing.T) {
	router := newVoucherRouter(&mockVoucherStore{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/vouchers/code/NOPE/preview?subtotal=1000", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestDeleteVoucher_NoContent(t *testing.T) {
	deactivated := uuid.Nil
	store := &mockVoucherStore{
		deactivateVoucherFn: func(ctx context.Context, id uuid.UUID) error {
			deactivated = id
			return nil
		},
	}
	router := newVoucherRouter(store)

	id := uuid.New()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/vouchers/"+id.String(), nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rr.Code)
	}
	if deactivated != id {
		t.Errorf("deactivated: got %v, want %v", deactivated, id)
	}
}
