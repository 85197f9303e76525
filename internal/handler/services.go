package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/service"
)

// ServiceStore defines the database methods needed by service catalog handlers.
type ServiceStore interface {
	CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	ListServices(ctx context.Context, arg database.ListServicesParams) ([]database.Service, error)
	CountServices(ctx context.Context, arg database.ListServicesParams) (int64, error)
	UpdateService(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error)
	DeactivateService(ctx context.Context, id uuid.UUID) error
}

// ServiceHandler handles the laundry service catalog.
type ServiceHandler struct {
	store ServiceStore
}

func NewServiceHandler(store ServiceStore) *ServiceHandler {
	return &ServiceHandler{store: store}
}

func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.List)
	r.Get("/services/{id}", h.Get)
	r.Post("/services", h.Create)
	r.Put("/services/{id}", h.Update)
	r.Delete("/services/{id}", h.Delete)
}

// --- Request / Response types ---

type serviceRequest struct {
	OutletID uuid.UUID `json:"outlet_id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Unit     string    `json:"unit"`
	Price    string    `json:"price"`
	IsActive *bool     `json:"is_active"`
}

type serviceResponse struct {
	ID        uuid.UUID `json:"id"`
	OutletID  uuid.UUID `json:"outlet_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Unit      string    `json:"unit"`
	Price     string    `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toServiceResponse(s database.Service) serviceResponse {
	return serviceResponse{
		ID:        s.ID,
		OutletID:  s.OutletID,
		Name:      s.Name,
		Type:      s.Type,
		Unit:      s.Unit,
		Price:     numericToString(s.Price),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func parsePrice(s string) (pgtype.Numeric, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return pgtype.Numeric{}, false
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, false
	}
	return n, true
}

// --- Handlers ---

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	page, limit, offset := parsePagination(r)

	var requested *uuid.UUID
	if s := r.URL.Query().Get("outlet_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
			return
		}
		requested = &id
	}
	outletID, err := service.ScopeOutletFilter(actor, requested)
	if err != nil {
		respondServiceError(w, "list services", err)
		return
	}

	arg := database.ListServicesParams{Limit: int32(limit), Offset: int32(offset)}
	if outletID != nil {
		arg.OutletID = pgtype.UUID{Bytes: *outletID, Valid: true}
	}
	if t := r.URL.Query().Get("type"); t != "" {
		arg.Type = pgtype.Text{String: t, Valid: true}
	}
	if s := r.URL.Query().Get("is_active"); s != "" {
		arg.IsActive = pgtype.Bool{Bool: s == "true", Valid: true}
	}

	services, err := h.store.ListServices(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: list services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	total, err := h.store.CountServices(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: count services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceResponse, len(services))
	for i, s := range services {
		resp[i] = toServiceResponse(s)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: resp, Meta: newListMeta(page, limit, total)})
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	svc, err := h.store.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := service.AssertOutletAccess(actor, svc.OutletID); err != nil {
		respondServiceError(w, "get service", err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Type == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, type and unit are required"})
		return
	}
	price, ok := parsePrice(req.Price)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	if err := service.AssertOutletAccess(actor, req.OutletID); err != nil {
		respondServiceError(w, "create service", err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	svc, err := h.store.CreateService(r.Context(), database.CreateServiceParams{
		OutletID: req.OutletID,
		Name:     req.Name,
		Type:     req.Type,
		Unit:     req.Unit,
		Price:    price,
		IsActive: isActive,
	})
	if err != nil {
		log.Printf("ERROR: create service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(svc))
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Type == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, type and unit are required"})
		return
	}
	price, ok := parsePrice(req.Price)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	existing, err := h.store.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := service.AssertOutletAccess(actor, existing.OutletID); err != nil {
		respondServiceError(w, "update service", err)
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	svc, err := h.store.UpdateService(r.Context(), database.UpdateServiceParams{
		ID:       id,
		Name:     req.Name,
		Type:     req.Type,
		Unit:     req.Unit,
		Price:    price,
		IsActive: isActive,
	})
	if err != nil {
		log.Printf("ERROR: update service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

// Delete deactivates a service. Historical order items keep referencing it.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	existing, err := h.store.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := service.AssertOutletAccess(actor, existing.OutletID); err != nil {
		respondServiceError(w, "delete service", err)
		return
	}

	if err := h.store.DeactivateService(r.Context(), id); err != nil {
		log.Printf("ERROR: deactivate service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
