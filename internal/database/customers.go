package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, name, phone, email, address, created_at, updated_at`

func scanCustomer(row interface{ Scan(dest ...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CreateCustomerParams struct {
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

const createCustomer = `
INSERT INTO customers (name, phone, email, address)
VALUES ($1, $2, $3, $4)
RETURNING ` + customerColumns

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Phone, arg.Email, arg.Address)
	return scanCustomer(row)
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

type ListCustomersParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

const listCustomers = `
SELECT ` + customerColumns + ` FROM customers
WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%'
       OR phone ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

const countCustomers = `
SELECT COUNT(*) FROM customers
WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%'
       OR phone ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`

func (q *Queries) CountCustomers(ctx context.Context, search pgtype.Text) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countCustomers, search).Scan(&total)
	return total, err
}

type UpdateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

const updateCustomer = `
UPDATE customers SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.Name, arg.Phone, arg.Email, arg.Address)
	return scanCustomer(row)
}

const deleteCustomer = `DELETE FROM customers WHERE id = $1`

func (q *Queries) DeleteCustomer(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCustomer, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
