package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ReportFilterParams struct {
	OutletID pgtype.UUID
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
}

type SalesSummaryRow struct {
	TotalRevenue   pgtype.Numeric
	TotalPaid      pgtype.Numeric
	OrderCount     int64
	PaidOrderCount int64
}

const getSalesSummary = `
SELECT COALESCE(SUM(total), 0),
	COALESCE(SUM(paid_amount), 0),
	COUNT(*),
	COUNT(*) FILTER (WHERE payment_status = 'PAID')
FROM orders
WHERE ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)`

func (q *Queries) GetSalesSummary(ctx context.Context, arg ReportFilterParams) (SalesSummaryRow, error) {
	var r SalesSummaryRow
	err := q.db.QueryRow(ctx, getSalesSummary, arg.OutletID, arg.DateFrom, arg.DateTo).
		Scan(&r.TotalRevenue, &r.TotalPaid, &r.OrderCount, &r.PaidOrderCount)
	return r, err
}

type TopServicesParams struct {
	ReportFilterParams
	Limit int32
}

type TopServiceRow struct {
	ServiceID   uuid.UUID
	ServiceName string
	ServiceType string
	OutletID    uuid.UUID
	TotalSales  pgtype.Numeric
	TotalQty    pgtype.Numeric
}

const listTopServices = `
SELECT s.id, s.name, s.type, s.outlet_id,
	COALESCE(SUM(i.line_total), 0) AS total_sales,
	COALESCE(SUM(i.qty), 0) AS total_qty
FROM order_items i
JOIN orders o ON o.id = i.order_id
JOIN services s ON s.id = i.service_id
WHERE ($1::uuid IS NULL OR o.outlet_id = $1)
  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
  AND ($3::timestamptz IS NULL OR o.created_at <= $3)
GROUP BY s.id, s.name, s.type, s.outlet_id
ORDER BY total_sales DESC
LIMIT $4`

func (q *Queries) ListTopServices(ctx context.Context, arg TopServicesParams) ([]TopServiceRow, error) {
	rows, err := q.db.Query(ctx, listTopServices, arg.OutletID, arg.DateFrom, arg.DateTo, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TopServiceRow
	for rows.Next() {
		var r TopServiceRow
		if err := rows.Scan(&r.ServiceID, &r.ServiceName, &r.ServiceType, &r.OutletID,
			&r.TotalSales, &r.TotalQty); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
