package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateRefreshTokenParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

const createRefreshToken = `
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, token_hash, expires_at, revoked_at, created_at`

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (RefreshToken, error) {
	var t RefreshToken
	err := q.db.QueryRow(ctx, createRefreshToken, arg.ID, arg.UserID, arg.TokenHash, arg.ExpiresAt).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	return t, err
}

const getRefreshToken = `
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
FROM refresh_tokens WHERE id = $1`

func (q *Queries) GetRefreshToken(ctx context.Context, id uuid.UUID) (RefreshToken, error) {
	var t RefreshToken
	err := q.db.QueryRow(ctx, getRefreshToken, id).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	return t, err
}

const revokeRefreshToken = `
UPDATE refresh_tokens SET revoked_at = now() WHERE id = $1 AND token_hash = $2 AND revoked_at IS NULL`

func (q *Queries) RevokeRefreshToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	_, err := q.db.Exec(ctx, revokeRefreshToken, id, tokenHash)
	return err
}
