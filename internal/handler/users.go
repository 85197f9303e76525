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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
	"github.com/washpoint/api/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the database methods needed by user management handlers.
type UserStore interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (database.User, error)
	ListUsers(ctx context.Context, arg database.ListUsersParams) ([]database.User, error)
	CountUsers(ctx context.Context, arg database.ListUsersParams) (int64, error)
	UpdateUser(ctx context.Context, arg database.UpdateUserParams) (database.User, error)
}

// UserHandler handles staff account management. SUPERADMIN manages any
// outlet's staff; ADMIN only their own.
type UserHandler struct {
	store UserStore
}

func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
	r.Get("/users/{id}", h.Get)
	r.Put("/users/{id}", h.Update)
}

var validRoles = map[string]bool{
	enum.UserRoleSuperadmin: true,
	enum.UserRoleAdmin:      true,
	enum.UserRoleCashier:    true,
	enum.UserRoleCourier:    true,
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     string     `json:"role"`
	OutletID *uuid.UUID `json:"outlet_id"`
}

type updateUserRequest struct {
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	OutletID *uuid.UUID `json:"outlet_id"`
	IsActive *bool      `json:"is_active"`
}

type staffResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	OutletID  *uuid.UUID `json:"outlet_id"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toStaffResponse(u database.User) staffResponse {
	resp := staffResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.OutletID.Valid {
		id := uuid.UUID(u.OutletID.Bytes)
		resp.OutletID = &id
	}
	return resp
}

// --- Handlers ---

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
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
		respondServiceError(w, "list users", err)
		return
	}

	arg := database.ListUsersParams{Limit: int32(limit), Offset: int32(offset)}
	if outletID != nil {
		arg.OutletID = pgtype.UUID{Bytes: *outletID, Valid: true}
	}
	if role := r.URL.Query().Get("role"); role != "" {
		arg.Role = pgtype.Text{String: role, Valid: true}
	}
	if s := r.URL.Query().Get("search"); s != "" {
		arg.Search = pgtype.Text{String: s, Valid: true}
	}

	users, err := h.store.ListUsers(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	total, err := h.store.CountUsers(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: count users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffResponse, len(users))
	for i, u := range users {
		resp[i] = toStaffResponse(u)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: resp, Meta: newListMeta(page, limit, total)})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if user.OutletID.Valid {
		if err := service.AssertOutletAccess(actor, user.OutletID.Bytes); err != nil {
			respondServiceError(w, "get user", err)
			return
		}
	} else if actor.Role != enum.UserRoleSuperadmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(user))
}

// Create registers a staff account. Only SUPERADMIN may create SUPERADMIN
// accounts or accounts without an outlet binding.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and name are required"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}
	if !validRoles[req.Role] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	if req.Role == enum.UserRoleSuperadmin {
		if actor.Role != enum.UserRoleSuperadmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			return
		}
		if req.OutletID != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "superadmin accounts are not outlet-bound"})
			return
		}
	} else {
		if req.OutletID == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "outlet_id is required for this role"})
			return
		}
		if err := service.AssertOutletAccess(actor, *req.OutletID); err != nil {
			respondServiceError(w, "create user", err)
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	arg := database.CreateUserParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if req.OutletID != nil {
		arg.OutletID = pgtype.UUID{Bytes: *req.OutletID, Valid: true}
	}

	user, err := h.store.CreateUser(r.Context(), arg)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: create user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toStaffResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !validRoles[req.Role] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	existing, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Role promotions to SUPERADMIN and touching existing SUPERADMIN accounts
	// is superadmin-only territory.
	if (existing.Role == enum.UserRoleSuperadmin || req.Role == enum.UserRoleSuperadmin) &&
		actor.Role != enum.UserRoleSuperadmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}
	if existing.OutletID.Valid {
		if err := service.AssertOutletAccess(actor, existing.OutletID.Bytes); err != nil {
			respondServiceError(w, "update user", err)
			return
		}
	}

	arg := database.UpdateUserParams{
		ID:       id,
		Name:     req.Name,
		Role:     req.Role,
		OutletID: existing.OutletID,
		IsActive: existing.IsActive,
	}
	if req.OutletID != nil {
		if err := service.AssertOutletAccess(actor, *req.OutletID); err != nil {
			respondServiceError(w, "update user", err)
			return
		}
		arg.OutletID = pgtype.UUID{Bytes: *req.OutletID, Valid: true}
	}
	if req.IsActive != nil {
		arg.IsActive = *req.IsActive
	}

	user, err := h.store.UpdateUser(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("ERROR: update user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(user))
}
