package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UpsertPickupDeliveryParams struct {
	OrderID         uuid.UUID
	PickupAddress   pgtype.Text
	DeliveryAddress pgtype.Text
	ScheduledAt     pgtype.Timestamptz
	CourierID       pgtype.UUID
}

// UpsertPickupDelivery creates or fully replaces the pickup/delivery record
// for an order (one-to-one, create-or-replace semantics).
const upsertPickupDelivery = `
INSERT INTO pickup_deliveries (order_id, pickup_address, delivery_address, scheduled_at, courier_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_id)
DO UPDATE SET pickup_address = $2, delivery_address = $3, scheduled_at = $4,
	courier_id = $5, updated_at = now()
RETURNING id, order_id, pickup_address, delivery_address, scheduled_at, courier_id, created_at, updated_at`

func (q *Queries) UpsertPickupDelivery(ctx context.Context, arg UpsertPickupDeliveryParams) (PickupDelivery, error) {
	var p PickupDelivery
	err := q.db.QueryRow(ctx, upsertPickupDelivery,
		arg.OrderID, arg.PickupAddress, arg.DeliveryAddress, arg.ScheduledAt, arg.CourierID).
		Scan(&p.ID, &p.OrderID, &p.PickupAddress, &p.DeliveryAddress,
			&p.ScheduledAt, &p.CourierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getPickupDeliveryByOrder = `
SELECT id, order_id, pickup_address, delivery_address, scheduled_at, courier_id, created_at, updated_at
FROM pickup_deliveries WHERE order_id = $1`

func (q *Queries) GetPickupDeliveryByOrder(ctx context.Context, orderID uuid.UUID) (PickupDelivery, error) {
	var p PickupDelivery
	err := q.db.QueryRow(ctx, getPickupDeliveryByOrder, orderID).
		Scan(&p.ID, &p.OrderID, &p.PickupAddress, &p.DeliveryAddress,
			&p.ScheduledAt, &p.CourierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
