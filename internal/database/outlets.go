package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const outletColumns = `id, code, name, address, phone, created_at, updated_at`

type CreateOutletParams struct {
	Code    string
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

const createOutlet = `
INSERT INTO outlets (code, name, address, phone)
VALUES ($1, $2, $3, $4)
RETURNING ` + outletColumns

func (q *Queries) CreateOutlet(ctx context.Context, arg CreateOutletParams) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, createOutlet, arg.Code, arg.Name, arg.Address, arg.Phone).
		Scan(&o.ID, &o.Code, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOutlet = `SELECT ` + outletColumns + ` FROM outlets WHERE id = $1`

func (q *Queries) GetOutlet(ctx context.Context, id uuid.UUID) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, getOutlet, id).
		Scan(&o.ID, &o.Code, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type ListOutletsParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

const listOutlets = `
SELECT ` + outletColumns + ` FROM outlets
WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListOutlets(ctx context.Context, arg ListOutletsParams) ([]Outlet, error) {
	rows, err := q.db.Query(ctx, listOutlets, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outlets []Outlet
	for rows.Next() {
		var o Outlet
		if err := rows.Scan(&o.ID, &o.Code, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		outlets = append(outlets, o)
	}
	return outlets, rows.Err()
}

const countOutlets = `
SELECT COUNT(*) FROM outlets
WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')`

func (q *Queries) CountOutlets(ctx context.Context, search pgtype.Text) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countOutlets, search).Scan(&total)
	return total, err
}

type UpdateOutletParams struct {
	ID      uuid.UUID
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

const updateOutlet = `
UPDATE outlets SET name = $2, address = $3, phone = $4, updated_at = now()
WHERE id = $1
RETURNING ` + outletColumns

func (q *Queries) UpdateOutlet(ctx context.Context, arg UpdateOutletParams) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, updateOutlet, arg.ID, arg.Name, arg.Address, arg.Phone).
		Scan(&o.ID, &o.Code, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const deleteOutlet = `DELETE FROM outlets WHERE id = $1`

func (q *Queries) DeleteOutlet(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOutlet, id)
	return err
}
