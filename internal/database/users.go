package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, name, password_hash, role, outlet_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.OutletID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
	OutletID     pgtype.UUID
	IsActive     bool
}

const createUser = `
INSERT INTO users (email, name, password_hash, role, outlet_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email, arg.Name, arg.PasswordHash, arg.Role, arg.OutletID, arg.IsActive)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

type ListUsersParams struct {
	OutletID pgtype.UUID
	Role     pgtype.Text
	Search   pgtype.Text
	Limit    int32
	Offset   int32
}

const listUsers = `
SELECT ` + userColumns + ` FROM users
WHERE ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::text IS NULL OR role = $2)
  AND ($3::text IS NULL OR name ILIKE '%' || $3 || '%' OR email ILIKE '%' || $3 || '%')
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers,
		arg.OutletID, arg.Role, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const countUsers = `
SELECT COUNT(*) FROM users
WHERE ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::text IS NULL OR role = $2)
  AND ($3::text IS NULL OR name ILIKE '%' || $3 || '%' OR email ILIKE '%' || $3 || '%')`

func (q *Queries) CountUsers(ctx context.Context, arg ListUsersParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countUsers, arg.OutletID, arg.Role, arg.Search).Scan(&total)
	return total, err
}

type UpdateUserParams struct {
	ID       uuid.UUID
	Name     string
	Role     string
	OutletID pgtype.UUID
	IsActive bool
}

const updateUser = `
UPDATE users SET name = $2, role = $3, outlet_id = $4, is_active = $5, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.ID, arg.Name, arg.Role, arg.OutletID, arg.IsActive)
	return scanUser(row)
}
