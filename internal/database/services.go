package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const serviceColumns = `id, outlet_id, name, type, unit, price, is_active, created_at, updated_at`

func scanService(row interface{ Scan(dest ...any) error }) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.OutletID, &s.Name, &s.Type, &s.Unit, &s.Price,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type CreateServiceParams struct {
	OutletID uuid.UUID
	Name     string
	Type     string
	Unit     string
	Price    pgtype.Numeric
	IsActive bool
}

const createService = `
INSERT INTO services (outlet_id, name, type, unit, price, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + serviceColumns

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService,
		arg.OutletID, arg.Name, arg.Type, arg.Unit, arg.Price, arg.IsActive)
	return scanService(row)
}

const getService = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	return scanService(q.db.QueryRow(ctx, getService, id))
}

// ListActiveServicesByIDs resolves services for order creation: all requested
// ids that exist, belong to the outlet, and are active. Callers compare the
// returned count against the requested count (bulk-or-nothing contract).
const listActiveServicesByIDs = `
SELECT ` + serviceColumns + ` FROM services
WHERE id = ANY($1::uuid[]) AND outlet_id = $2 AND is_active = true`

func (q *Queries) ListActiveServicesByIDs(ctx context.Context, ids []uuid.UUID, outletID uuid.UUID) ([]Service, error) {
	rows, err := q.db.Query(ctx, listActiveServicesByIDs, ids, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

type ListServicesParams struct {
	OutletID pgtype.UUID
	Type     pgtype.Text
	IsActive pgtype.Bool
	Limit    int32
	Offset   int32
}

const listServices = `
SELECT ` + serviceColumns + ` FROM services
WHERE ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::text IS NULL OR type ILIKE $2)
  AND ($3::boolean IS NULL OR is_active = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

func (q *Queries) ListServices(ctx context.Context, arg ListServicesParams) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices,
		arg.OutletID, arg.Type, arg.IsActive, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

const countServices = `
SELECT COUNT(*) FROM services
WHERE ($1::uuid IS NULL OR outlet_id = $1)
  AND ($2::text IS NULL OR type ILIKE $2)
  AND ($3::boolean IS NULL OR is_active = $3)`

func (q *Queries) CountServices(ctx context.Context, arg ListServicesParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countServices, arg.OutletID, arg.Type, arg.IsActive).Scan(&total)
	return total, err
}

type UpdateServiceParams struct {
	ID       uuid.UUID
	Name     string
	Type     string
	Unit     string
	Price    pgtype.Numeric
	IsActive bool
}

const updateService = `
UPDATE services SET name = $2, type = $3, unit = $4, price = $5, is_active = $6, updated_at = now()
WHERE id = $1
RETURNING ` + serviceColumns

func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, updateService,
		arg.ID, arg.Name, arg.Type, arg.Unit, arg.Price, arg.IsActive)
	return scanService(row)
}

// DeactivateService is the delete operation: services referenced by historical
// order items are never removed, only flagged inactive.
const deactivateService = `
UPDATE services SET is_active = false, updated_at = now() WHERE id = $1`

func (q *Queries) DeactivateService(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deactivateService, id)
	return err
}
