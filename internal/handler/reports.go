package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/service"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	GetSalesSummary(ctx context.Context, arg database.ReportFilterParams) (database.SalesSummaryRow, error)
	ListTopServices(ctx context.Context, arg database.TopServicesParams) ([]database.TopServiceRow, error)
}

// ReportHandler serves sales aggregates. All reports are outlet-scoped
// through the same access rules as order listing.
type ReportHandler struct {
	store ReportStore
}

func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/sales", h.SalesSummary)
	r.Get("/reports/top-services", h.TopServices)
}

// --- Response types ---

type salesSummaryResponse struct {
	TotalRevenue   string `json:"total_revenue"`
	TotalPaid      string `json:"total_paid"`
	OrderCount     int64  `json:"order_count"`
	PaidOrderCount int64  `json:"paid_order_count"`
}

type topServiceResponse struct {
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	ServiceType string    `json:"service_type"`
	OutletID    uuid.UUID `json:"outlet_id"`
	TotalSales  string    `json:"total_sales"`
	TotalQty    string    `json:"total_qty"`
}

// --- Handlers ---

func (h *ReportHandler) filterFromRequest(w http.ResponseWriter, r *http.Request) (database.ReportFilterParams, bool) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return database.ReportFilterParams{}, false
	}

	var requested *uuid.UUID
	if s := r.URL.Query().Get("outlet_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
			return database.ReportFilterParams{}, false
		}
		requested = &id
	}
	outletID, err := service.ScopeOutletFilter(actor, requested)
	if err != nil {
		respondServiceError(w, "report filter", err)
		return database.ReportFilterParams{}, false
	}

	var arg database.ReportFilterParams
	if outletID != nil {
		arg.OutletID = pgtype.UUID{Bytes: *outletID, Valid: true}
	}

	from, err := parseTimeParam(r, "date_from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_from"})
		return database.ReportFilterParams{}, false
	}
	if from != nil {
		arg.DateFrom = pgtype.Timestamptz{Time: *from, Valid: true}
	}
	to, err := parseTimeParam(r, "date_to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_to"})
		return database.ReportFilterParams{}, false
	}
	if to != nil {
		arg.DateTo = pgtype.Timestamptz{Time: *to, Valid: true}
	}

	return arg, true
}

func (h *ReportHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.filterFromRequest(w, r)
	if !ok {
		return
	}

	row, err := h.store.GetSalesSummary(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: sales summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, salesSummaryResponse{
		TotalRevenue:   numericToString(row.TotalRevenue),
		TotalPaid:      numericToString(row.TotalPaid),
		OrderCount:     row.OrderCount,
		PaidOrderCount: row.PaidOrderCount,
	})
}

func (h *ReportHandler) TopServices(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.filterFromRequest(w, r)
	if !ok {
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	rows, err := h.store.ListTopServices(r.Context(), database.TopServicesParams{
		ReportFilterParams: arg,
		Limit:              int32(limit),
	})
	if err != nil {
		log.Printf("ERROR: top services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topServiceResponse, len(rows))
	for i, row := range rows {
		resp[i] = topServiceResponse{
			ServiceID:   row.ServiceID,
			ServiceName: row.ServiceName,
			ServiceType: row.ServiceType,
			OutletID:    row.OutletID,
			TotalSales:  numericToString(row.TotalSales),
			TotalQty:    numericToString(row.TotalQty),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
