package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/service"
)

// VoucherStore defines the database methods needed by voucher handlers.
type VoucherStore interface {
	CreateVoucher(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error)
	GetVoucher(ctx context.Context, id uuid.UUID) (database.Voucher, error)
	GetVoucherByCode(ctx context.Context, code string) (database.Voucher, error)
	ListVouchers(ctx context.Context, arg database.ListVouchersParams) ([]database.Voucher, error)
	CountVouchers(ctx context.Context, arg database.ListVouchersParams) (int64, error)
	UpdateVoucher(ctx context.Context, arg database.UpdateVoucherParams) (database.Voucher, error)
	DeactivateVoucher(ctx context.Context, id uuid.UUID) error
}

// VoucherHandler handles voucher CRUD and preview endpoints.
type VoucherHandler struct {
	store VoucherStore
}

func NewVoucherHandler(store VoucherStore) *VoucherHandler {
	return &VoucherHandler{store: store}
}

// RegisterReadRoutes registers voucher lookup endpoints (any authenticated user).
func (h *VoucherHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/vouchers", h.List)
	r.Get("/vouchers/{id}", h.Get)
	r.Get("/vouchers/code/{code}/preview", h.Preview)
}

// RegisterAdminRoutes registers voucher write endpoints (SUPERADMIN/ADMIN).
func (h *VoucherHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/vouchers", h.Create)
	r.Put("/vouchers/{id}", h.Update)
	r.Delete("/vouchers/{id}", h.Delete)
}

// --- Request / Response types ---

type voucherRequest struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	PercentOff  *int32     `json:"percent_off"`
	FlatOff     *string    `json:"flat_off"`
	MinSubtotal *string    `json:"min_subtotal"`
	MaxDiscount *string    `json:"max_discount"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	IsActive    *bool      `json:"is_active"`
}

type voucherResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Description *string    `json:"description"`
	PercentOff  *int32     `json:"percent_off"`
	FlatOff     *string    `json:"flat_off"`
	MinSubtotal *string    `json:"min_subtotal"`
	MaxDiscount *string    `json:"max_discount"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type voucherPreviewResponse struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Reason   string `json:"reason,omitempty"`
}

func toVoucherResponse(v database.Voucher) voucherResponse {
	resp := voucherResponse{
		ID:          v.ID,
		Code:        v.Code,
		Description: textPtr(v.Description),
		StartsAt:    timePtr(v.StartsAt),
		EndsAt:      timePtr(v.EndsAt),
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
	if v.PercentOff.Valid {
		resp.PercentOff = &v.PercentOff.Int32
	}
	if v.FlatOff.Valid {
		s := numericToString(v.FlatOff)
		resp.FlatOff = &s
	}
	if v.MinSubtotal.Valid {
		s := numericToString(v.MinSubtotal)
		resp.MinSubtotal = &s
	}
	if v.MaxDiscount.Valid {
		s := numericToString(v.MaxDiscount)
		resp.MaxDiscount = &s
	}
	return resp
}

// voucherParamsFromRequest validates the discount shape: exactly one of
// percent_off and flat_off must be set, matching the DB constraint.
func voucherParamsFromRequest(req voucherRequest) (database.CreateVoucherParams, string) {
	if req.Code == "" {
		return database.CreateVoucherParams{}, "code is required"
	}
	if (req.PercentOff == nil) == (req.FlatOff == nil) {
		return database.CreateVoucherParams{}, "exactly one of percent_off or flat_off is required"
	}

	arg := database.CreateVoucherParams{
		Code:     strings.ToUpper(req.Code),
		IsActive: true,
	}
	if req.Description != "" {
		arg.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if req.PercentOff != nil {
		if *req.PercentOff < 1 || *req.PercentOff > 100 {
			return database.CreateVoucherParams{}, "percent_off must be between 1 and 100"
		}
		arg.PercentOff = pgtype.Int4{Int32: *req.PercentOff, Valid: true}
	}
	if req.FlatOff != nil {
		n, ok := parsePrice(*req.FlatOff)
		if !ok {
			return database.CreateVoucherParams{}, "invalid flat_off"
		}
		arg.FlatOff = n
	}
	if req.MinSubtotal != nil {
		n, ok := parsePrice(*req.MinSubtotal)
		if !ok {
			return database.CreateVoucherParams{}, "invalid min_subtotal"
		}
		arg.MinSubtotal = n
	}
	if req.MaxDiscount != nil {
		n, ok := parsePrice(*req.MaxDiscount)
		if !ok {
			return database.CreateVoucherParams{}, "invalid max_discount"
		}
		arg.MaxDiscount = n
	}
	if req.StartsAt != nil {
		arg.StartsAt = pgtype.Timestamptz{Time: *req.StartsAt, Valid: true}
	}
	if req.EndsAt != nil {
		arg.EndsAt = pgtype.Timestamptz{Time: *req.EndsAt, Valid: true}
	}
	if req.IsActive != nil {
		arg.IsActive = *req.IsActive
	}
	return arg, ""
}

// --- Handlers ---

func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	arg := database.ListVouchersParams{Limit: int32(limit), Offset: int32(offset)}
	if s := r.URL.Query().Get("search"); s != "" {
		arg.Search = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("is_active"); s != "" {
		arg.IsActive = pgtype.Bool{Bool: s == "true", Valid: true}
	}

	vouchers, err := h.store.ListVouchers(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: list vouchers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	total, err := h.store.CountVouchers(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: count vouchers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]voucherResponse, len(vouchers))
	for i, v := range vouchers {
		resp[i] = toVoucherResponse(v)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: resp, Meta: newListMeta(page, limit, total)})
}

func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	voucher, err := h.store.GetVoucher(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: get voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toVoucherResponse(voucher))
}

// Preview evaluates a voucher against a hypothetical subtotal without
// touching any order. Cashiers use it at the counter before committing.
func (h *VoucherHandler) Preview(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))

	subtotal, err := decimal.NewFromString(r.URL.Query().Get("subtotal"))
	if err != nil || subtotal.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subtotal"})
		return
	}

	voucher, err := h.store.GetVoucherByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: preview voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	result := service.EvaluateVoucher(subtotal, voucher, time.Now())
	writeJSON(w, http.StatusOK, voucherPreviewResponse{
		Code:     voucher.Code,
		Subtotal: subtotal.StringFixed(2),
		Discount: result.Discount.StringFixed(2),
		Reason:   result.Reason,
	})
}

func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	arg, msg := voucherParamsFromRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	voucher, err := h.store.CreateVoucher(r.Context(), arg)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: create voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toVoucherResponse(voucher))
}

func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	arg, msg := voucherParamsFromRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	voucher, err := h.store.UpdateVoucher(r.Context(), database.UpdateVoucherParams{
		ID:          id,
		Code:        arg.Code,
		Description: arg.Description,
		PercentOff:  arg.PercentOff,
		FlatOff:     arg.FlatOff,
		MinSubtotal: arg.MinSubtotal,
		MaxDiscount: arg.MaxDiscount,
		StartsAt:    arg.StartsAt,
		EndsAt:      arg.EndsAt,
		IsActive:    arg.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: update voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toVoucherResponse(voucher))
}

// Delete deactivates a voucher. Orders that already reference it keep their
// captured discount.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	if err := h.store.DeactivateVoucher(r.Context(), id); err != nil {
		log.Printf("ERROR: deactivate voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
