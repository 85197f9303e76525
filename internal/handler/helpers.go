package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/middleware"
	"github.com/washpoint/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// listMeta is the pagination envelope attached to every list response.
type listMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type listResponse struct {
	Data interface{} `json:"data"`
	Meta listMeta    `json:"meta"`
}

func newListMeta(page, limit int, total int64) listMeta {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return listMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// parsePagination reads ?page= and ?limit= with defaults page=1, limit=20 and
// a hard cap of 100. Malformed or out-of-range values fall back to defaults.
func parsePagination(r *http.Request) (page, limit, offset int) {
	page = 1
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			page = v
		}
	}

	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit, (page - 1) * limit
}

// actorFromRequest lifts the authenticated claims into the service layer's
// Actor. Returns false (and writes 401) when there are no claims.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return service.Actor{}, false
	}
	return service.Actor{ID: claims.UserID, Role: claims.Role, OutletID: claims.OutletID}, true
}

// respondServiceError maps service-layer errors to transport status codes.
// Unclassified errors are logged and become a 500.
func respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case service.IsForbidden(err):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case service.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	return val.(string)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// parseTimeParam reads an RFC3339 (or date-only) query parameter.
func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
