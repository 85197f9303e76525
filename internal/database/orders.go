package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, code, outlet_id, customer_id, status, is_express, express_fee,
	voucher_id, subtotal, discount, total, paid_amount, payment_status, notes,
	ready_at, completed_at, canceled_at, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Code, &o.OutletID, &o.CustomerID, &o.Status, &o.IsExpress,
		&o.ExpressFee, &o.VoucherID, &o.Subtotal, &o.Discount, &o.Total,
		&o.PaidAmount, &o.PaymentStatus, &o.Notes, &o.ReadyAt, &o.CompletedAt,
		&o.CanceledAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	Code       string
	OutletID   uuid.UUID
	CustomerID uuid.UUID
	Status     string
	IsExpress  bool
	ExpressFee pgtype.Numeric
	VoucherID  pgtype.UUID
	Subtotal   pgtype.Numeric
	Discount   pgtype.Numeric
	Total      pgtype.Numeric
	Notes      pgtype.Text
	CreatedBy  uuid.UUID
}

const createOrder = `
INSERT INTO orders (code, outlet_id, customer_id, status, is_express, express_fee,
	voucher_id, subtotal, discount, total, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.Code, arg.OutletID, arg.CustomerID, arg.Status, arg.IsExpress,
		arg.ExpressFee, arg.VoucherID, arg.Subtotal, arg.Discount, arg.Total,
		arg.Notes, arg.CreatedBy,
	)
	return scanOrder(row)
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

// GetOrderForUpdate locks the order row (FOR NO KEY UPDATE) so concurrent
// mutations of the same order serialize at the store.
const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR NO KEY UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

type UpdateOrderTotalsParams struct {
	ID            uuid.UUID
	Subtotal      pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	PaidAmount    pgtype.Numeric
	PaymentStatus string
}

const updateOrderTotals = `
UPDATE orders
SET subtotal = $2, discount = $3, total = $4, paid_amount = $5,
	payment_status = $6, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals,
		arg.ID, arg.Subtotal, arg.Discount, arg.Total, arg.PaidAmount, arg.PaymentStatus,
	)
	return scanOrder(row)
}

type UpdateOrderWorkflowParams struct {
	ID          uuid.UUID
	Status      string
	IsExpress   bool
	ExpressFee  pgtype.Numeric
	Notes       pgtype.Text
	ReadyAt     pgtype.Timestamptz
	CompletedAt pgtype.Timestamptz
	CanceledAt  pgtype.Timestamptz
}

const updateOrderWorkflow = `
UPDATE orders
SET status = $2, is_express = $3, express_fee = $4, notes = $5,
	ready_at = $6, completed_at = $7, canceled_at = $8, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderWorkflow(ctx context.Context, arg UpdateOrderWorkflowParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderWorkflow,
		arg.ID, arg.Status, arg.IsExpress, arg.ExpressFee, arg.Notes,
		arg.ReadyAt, arg.CompletedAt, arg.CanceledAt,
	)
	return scanOrder(row)
}

type ListOrdersParams struct {
	OutletID   pgtype.UUID
	CustomerID pgtype.UUID
	Status     pgtype.Text
	DateFrom   pgtype.Timestamptz
	DateTo     pgtype.Timestamptz
	Search     pgtype.Text
	Limit      int32
	Offset     int32
}

const listOrders = `
SELECT o.id, o.code, o.outlet_id, o.customer_id, o.status, o.is_express, o.express_fee,
	o.voucher_id, o.subtotal, o.discount, o.total, o.paid_amount, o.payment_status, o.notes,
	o.ready_at, o.completed_at, o.canceled_at, o.created_by, o.created_at, o.updated_at
FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE ($1::uuid IS NULL OR o.outlet_id = $1)
  AND ($2::uuid IS NULL OR o.customer_id = $2)
  AND ($3::text IS NULL OR o.status = $3)
  AND ($4::timestamptz IS NULL OR o.created_at >= $4)
  AND ($5::timestamptz IS NULL OR o.created_at <= $5)
  AND ($6::text IS NULL OR o.code ILIKE '%' || $6 || '%'
       OR c.name ILIKE '%' || $6 || '%' OR c.phone ILIKE '%' || $6 || '%')
ORDER BY o.created_at DESC
LIMIT $7 OFFSET $8`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.OutletID, arg.CustomerID, arg.Status, arg.DateFrom, arg.DateTo,
		arg.Search, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const countOrders = `
SELECT COUNT(*)
FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE ($1::uuid IS NULL OR o.outlet_id = $1)
  AND ($2::uuid IS NULL OR o.customer_id = $2)
  AND ($3::text IS NULL OR o.status = $3)
  AND ($4::timestamptz IS NULL OR o.created_at >= $4)
  AND ($5::timestamptz IS NULL OR o.created_at <= $5)
  AND ($6::text IS NULL OR o.code ILIKE '%' || $6 || '%'
       OR c.name ILIKE '%' || $6 || '%' OR c.phone ILIKE '%' || $6 || '%')`

func (q *Queries) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countOrders,
		arg.OutletID, arg.CustomerID, arg.Status, arg.DateFrom, arg.DateTo, arg.Search,
	).Scan(&total)
	return total, err
}
