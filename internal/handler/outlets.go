package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/database"
)

// OutletStore defines the database methods needed by outlet handlers.
type OutletStore interface {
	CreateOutlet(ctx context.Context, arg database.CreateOutletParams) (database.Outlet, error)
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	ListOutlets(ctx context.Context, arg database.ListOutletsParams) ([]database.Outlet, error)
	CountOutlets(ctx context.Context, search pgtype.Text) (int64, error)
	UpdateOutlet(ctx context.Context, arg database.UpdateOutletParams) (database.Outlet, error)
	DeleteOutlet(ctx context.Context, id uuid.UUID) error
}

// OutletHandler handles outlet CRUD endpoints.
type OutletHandler struct {
	store OutletStore
}

func NewOutletHandler(store OutletStore) *OutletHandler {
	return &OutletHandler{store: store}
}

// RegisterReadRoutes registers outlet read endpoints (any authenticated user).
func (h *OutletHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/outlets", h.List)
	r.Get("/outlets/{id}", h.Get)
}

// RegisterAdminRoutes registers outlet write endpoints (SUPERADMIN only).
func (h *OutletHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/outlets", h.Create)
	r.Put("/outlets/{id}", h.Update)
	r.Delete("/outlets/{id}", h.Delete)
}

// Outlet codes end up embedded in order codes, so the format is strict.
var outletCodeRe = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// --- Request / Response types ---

type outletRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type outletResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOutletResponse(o database.Outlet) outletResponse {
	return outletResponse{
		ID:        o.ID,
		Code:      o.Code,
		Name:      o.Name,
		Address:   textPtr(o.Address),
		Phone:     textPtr(o.Phone),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// --- Handlers ---

func (h *OutletHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	outlets, err := h.store.ListOutlets(r.Context(), database.ListOutletsParams{
		Search: search,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list outlets: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	total, err := h.store.CountOutlets(r.Context(), search)
	if err != nil {
		log.Printf("ERROR: count outlets: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]outletResponse, len(outlets))
	for i, o := range outlets {
		resp[i] = toOutletResponse(o)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: resp, Meta: newListMeta(page, limit, total)})
}

func (h *OutletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	outlet, err := h.store.GetOutlet(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
			return
		}
		log.Printf("ERROR: get outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOutletResponse(outlet))
}

func (h *OutletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !outletCodeRe.MatchString(req.Code) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code must be 2-10 uppercase letters or digits"})
		return
	}

	var address, phone pgtype.Text
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}
	if req.Phone != "" {
		phone = pgtype.Text{String: req.Phone, Valid: true}
	}

	outlet, err := h.store.CreateOutlet(r.Context(), database.CreateOutletParams{
		Code:    req.Code,
		Name:    req.Name,
		Address: address,
		Phone:   phone,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "outlet code already exists"})
			return
		}
		log.Printf("ERROR: create outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toOutletResponse(outlet))
}

// Update modifies an outlet's name/address/phone. The code is immutable:
// historical order codes embed it.
func (h *OutletHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	var address, phone pgtype.Text
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}
	if req.Phone != "" {
		phone = pgtype.Text{String: req.Phone, Valid: true}
	}

	outlet, err := h.store.UpdateOutlet(r.Context(), database.UpdateOutletParams{
		ID:      id,
		Name:    req.Name,
		Address: address,
		Phone:   phone,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
			return
		}
		log.Printf("ERROR: update outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOutletResponse(outlet))
}

func (h *OutletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	if err := h.store.DeleteOutlet(r.Context(), id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "outlet has orders or staff and cannot be deleted"})
			return
		}
		log.Printf("ERROR: delete outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
