package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePaymentParams struct {
	OrderID uuid.UUID
	Method  string
	Amount  pgtype.Numeric
	Note    pgtype.Text
}

const createPayment = `
INSERT INTO payments (order_id, method, amount, note)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, method, amount, note, created_at`

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Method, arg.Amount, arg.Note).
		Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Note, &p.CreatedAt)
	return p, err
}

const listPaymentsByOrder = `
SELECT id, order_id, method, amount, note, created_at
FROM payments WHERE order_id = $1 ORDER BY created_at`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const sumPaymentsByOrder = `
SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`

func (q *Queries) SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx, sumPaymentsByOrder, orderID).Scan(&total)
	return total, err
}
