package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const voucherColumns = `id, code, description, percent_off, flat_off, min_subtotal,
	max_discount, starts_at, ends_at, is_active, created_at, updated_at`

func scanVoucher(row interface{ Scan(dest ...any) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Description, &v.PercentOff, &v.FlatOff,
		&v.MinSubtotal, &v.MaxDiscount, &v.StartsAt, &v.EndsAt, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

type CreateVoucherParams struct {
	Code        string
	Description pgtype.Text
	PercentOff  pgtype.Int4
	FlatOff     pgtype.Numeric
	MinSubtotal pgtype.Numeric
	MaxDiscount pgtype.Numeric
	StartsAt    pgtype.Timestamptz
	EndsAt      pgtype.Timestamptz
	IsActive    bool
}

const createVoucher = `
INSERT INTO vouchers (code, description, percent_off, flat_off, min_subtotal,
	max_discount, starts_at, ends_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + voucherColumns

func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, createVoucher,
		arg.Code, arg.Description, arg.PercentOff, arg.FlatOff, arg.MinSubtotal,
		arg.MaxDiscount, arg.StartsAt, arg.EndsAt, arg.IsActive)
	return scanVoucher(row)
}

const getVoucher = `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`

func (q *Queries) GetVoucher(ctx context.Context, id uuid.UUID) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, getVoucher, id))
}

const getVoucherByCode = `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

func (q *Queries) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, getVoucherByCode, code))
}

type ListVouchersParams struct {
	Search   pgtype.Text
	IsActive pgtype.Bool
	Limit    int32
	Offset   int32
}

const listVouchers = `
SELECT ` + voucherColumns + ` FROM vouchers
WHERE ($1::text IS NULL OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
  AND ($2::boolean IS NULL OR is_active = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

func (q *Queries) ListVouchers(ctx context.Context, arg ListVouchersParams) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, listVouchers, arg.Search, arg.IsActive, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

const countVouchers = `
SELECT COUNT(*) FROM vouchers
WHERE ($1::text IS NULL OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
  AND ($2::boolean IS NULL OR is_active = $2)`

func (q *Queries) CountVouchers(ctx context.Context, arg ListVouchersParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countVouchers, arg.Search, arg.IsActive).Scan(&total)
	return total, err
}

type UpdateVoucherParams struct {
	ID          uuid.UUID
	Code        string
	Description pgtype.Text
	PercentOff  pgtype.Int4
	FlatOff     pgtype.Numeric
	MinSubtotal pgtype.Numeric
	MaxDiscount pgtype.Numeric
	StartsAt    pgtype.Timestamptz
	EndsAt      pgtype.Timestamptz
	IsActive    bool
}

const updateVoucher = `
UPDATE vouchers SET code = $2, description = $3, percent_off = $4, flat_off = $5,
	min_subtotal = $6, max_discount = $7, starts_at = $8, ends_at = $9,
	is_active = $10, updated_at = now()
WHERE id = $1
RETURNING ` + voucherColumns

func (q *Queries) UpdateVoucher(ctx context.Context, arg UpdateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, updateVoucher,
		arg.ID, arg.Code, arg.Description, arg.PercentOff, arg.FlatOff,
		arg.MinSubtotal, arg.MaxDiscount, arg.StartsAt, arg.EndsAt, arg.IsActive)
	return scanVoucher(row)
}

// DeactivateVoucher is the delete operation: vouchers referenced by orders
// are never removed, only flagged inactive.
const deactivateVoucher = `
UPDATE vouchers SET is_active = false, updated_at = now() WHERE id = $1`

func (q *Queries) DeactivateVoucher(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deactivateVoucher, id)
	return err
}
