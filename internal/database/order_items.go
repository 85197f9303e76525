package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ServiceID uuid.UUID
	Qty       pgtype.Numeric
	Price     pgtype.Numeric
	LineTotal pgtype.Numeric
}

const createOrderItem = `
INSERT INTO order_items (order_id, service_id, qty, price, line_total)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, service_id, qty, price, line_total, created_at`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ServiceID, arg.Qty, arg.Price, arg.LineTotal,
	).Scan(&i.ID, &i.OrderID, &i.ServiceID, &i.Qty, &i.Price, &i.LineTotal, &i.CreatedAt)
	return i, err
}

const getOrderItem = `
SELECT id, order_id, service_id, qty, price, line_total, created_at
FROM order_items WHERE id = $1`

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, getOrderItem, id).
		Scan(&i.ID, &i.OrderID, &i.ServiceID, &i.Qty, &i.Price, &i.LineTotal, &i.CreatedAt)
	return i, err
}

type UpdateOrderItemQtyParams struct {
	ID        uuid.UUID
	Qty       pgtype.Numeric
	LineTotal pgtype.Numeric
}

const updateOrderItemQty = `
UPDATE order_items SET qty = $2, line_total = $3 WHERE id = $1
RETURNING id, order_id, service_id, qty, price, line_total, created_at`

func (q *Queries) UpdateOrderItemQty(ctx context.Context, arg UpdateOrderItemQtyParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, updateOrderItemQty, arg.ID, arg.Qty, arg.LineTotal).
		Scan(&i.ID, &i.OrderID, &i.ServiceID, &i.Qty, &i.Price, &i.LineTotal, &i.CreatedAt)
	return i, err
}

const deleteOrderItem = `DELETE FROM order_items WHERE id = $1`

func (q *Queries) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItem, id)
	return err
}

const listOrderItemsByOrder = `
SELECT id, order_id, service_id, qty, price, line_total, created_at
FROM order_items WHERE order_id = $1 ORDER BY created_at`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ServiceID, &i.Qty, &i.Price, &i.LineTotal, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// ListOrderItemsWithService joins each item with the service it snapshot
// its price from, for hydrated order responses.
type OrderItemWithService struct {
	OrderItem
	ServiceName string
	ServiceType string
	ServiceUnit string
}

const listOrderItemsWithService = `
SELECT i.id, i.order_id, i.service_id, i.qty, i.price, i.line_total, i.created_at,
	s.name, s.type, s.unit
FROM order_items i
JOIN services s ON s.id = i.service_id
WHERE i.order_id = $1
ORDER BY i.created_at`

func (q *Queries) ListOrderItemsWithService(ctx context.Context, orderID uuid.UUID) ([]OrderItemWithService, error) {
	rows, err := q.db.Query(ctx, listOrderItemsWithService, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItemWithService
	for rows.Next() {
		var i OrderItemWithService
		if err := rows.Scan(
			&i.ID, &i.OrderID, &i.ServiceID, &i.Qty, &i.Price, &i.LineTotal, &i.CreatedAt,
			&i.ServiceName, &i.ServiceType, &i.ServiceUnit,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
