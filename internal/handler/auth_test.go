package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/washpoint/api/internal/auth"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
	"github.com/washpoint/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

const testRefreshSecret = "test-refresh-secret"

type mockAuthStore struct {
	getUserByEmailFn     func(ctx context.Context, email string) (database.User, error)
	getUserFn            func(ctx context.Context, id uuid.UUID) (database.User, error)
	createRefreshTokenFn func(ctx context.Context, arg database.CreateRefreshTokenParams) (database.RefreshToken, error)
	getRefreshTokenFn    func(ctx context.Context, id uuid.UUID) (database.RefreshToken, error)
	revokeRefreshTokenFn func(ctx context.Context, id uuid.UUID, tokenHash string) error
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUser(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) CreateRefreshToken(ctx context.Context, arg database.CreateRefreshTokenParams) (database.RefreshToken, error) {
	if m.createRefreshTokenFn != nil {
		return m.createRefreshTokenFn(ctx, arg)
	}
	return database.RefreshToken{ID: arg.ID, UserID: arg.UserID, TokenHash: arg.TokenHash, ExpiresAt: arg.ExpiresAt}, nil
}

func (m *mockAuthStore) GetRefreshToken(ctx context.Context, id uuid.UUID) (database.RefreshToken, error) {
	if m.getRefreshTokenFn != nil {
		return m.getRefreshTokenFn(ctx, id)
	}
	return database.RefreshToken{}, pgx.ErrNoRows
}

func (m *mockAuthStore) RevokeRefreshToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	if m.revokeRefreshTokenFn != nil {
		return m.revokeRefreshTokenFn(ctx, id, tokenHash)
	}
	return nil
}

func newAuthRouter(store handler.AuthStore) chi.Router {
	r := chi.NewRouter()
	handler.NewAuthHandler(store, testSecret, testRefreshSecret).RegisterRoutes(r)
	return r
}

func activeUser(t *testing.T, password string) database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:           uuid.New(),
		Email:        "kasir@washpoint.local",
		Name:         "Kasir Satu",
		PasswordHash: string(hash),
		Role:         enum.UserRoleCashier,
		OutletID:     pgtype.UUID{Bytes: uuid.New(), Valid: true},
		IsActive:     true,
	}
}

func TestLogin_Success(t *testing.T) {
	user := activeUser(t, "rahasia123")
	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			if email != user.Email {
				return database.User{}, pgx.ErrNoRows
			}
			return user, nil
		},
	}
	router := newAuthRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": user.Email, "password": "rahasia123"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens in the response")
	}
	if resp.User.Email != user.Email || resp.User.Role != enum.UserRoleCashier {
		t.Errorf("user: got %+v", resp.User)
	}

	claims, err := auth.ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user: got %v, want %v", claims.UserID, user.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := activeUser(t, "rahasia123")
	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return user, nil
		},
	}
	router := newAuthRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": user.Email, "password": "salah"}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	router := newAuthRouter(&mockAuthStore{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": "nobody@x", "password": "x"}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "invalid credentials" {
		t.Errorf("unknown email must not leak: got %q", msg)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	user := activeUser(t, "rahasia123")
	user.IsActive = false
	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return user, nil
		},
	}
	router := newAuthRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": user.Email, "password": "rahasia123"}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func refreshFixture(t *testing.T) (database.User, string, database.RefreshToken) {
	t.Helper()
	user := activeUser(t, "rahasia123")
	jti := uuid.New()
	token, expiresAt, err := auth.GenerateRefreshToken(testRefreshSecret, user.ID, jti)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	stored := database.RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: expiresAt,
	}
	return user, token, stored
}

func TestRefresh_RotatesToken(t *testing.T) {
	user, token, stored := refreshFixture(t)

	var revoked uuid.UUID
	store := &mockAuthStore{
		getRefreshTokenFn: func(ctx context.Context, id uuid.UUID) (database.RefreshToken, error) {
			if id == stored.ID {
				return stored, nil
			}
			return database.RefreshToken{}, pgx.ErrNoRows
		},
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return user, nil
		},
		revokeRefreshTokenFn: func(ctx context.Context, id uuid.UUID, tokenHash string) error {
			revoked = id
			return nil
		},
	}
	router := newAuthRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/refresh",
		map[string]any{"refresh_token": token}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if revoked != stored.ID {
		t.Errorf("old token must be revoked: got %v, want %v", revoked, stored.ID)
	}

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RefreshToken == token {
		t.Error("rotation must issue a new refresh token")
	}
}

func TestRefresh_RevokedTokenRejected(t *testing.T) {
	user, token, stored := refreshFixture(t)
	stored.RevokedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}

	store := &mockAuthStore{
		getRefreshTokenFn: func(ctx context.Context, id uuid.UUID) (database.RefreshToken, error) {
			return stored, nil
		},
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return user, nil
		},
	}
	router := newAuthRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/refresh",
		map[string]any{"refresh_token": token}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestRefresh_UnknownJTI(t *testing.T) {
	_, token, _ := refreshFixture(t)
	router := newAuthRouter(&mockAuthStore{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/refresh",
		map[string]any{"refresh_token": token}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestLogout_AlwaysNoContent(t *testing.T) {
	_, token, _ := refreshFixture(t)
	router := newAuthRouter(&mockAuthStore{})

	for _, payload := range []map[string]any{
		{"refresh_token": token},
		{"refresh_token": "garbage"},
		{},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/logout", payload))
		if rr.Code != http.StatusNoContent {
			t.Errorf("payload %v: got %d, want 204", payload, rr.Code)
		}
	}
}
