package service

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washpoint/api/internal/database"
)

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func TestEvaluateVoucher(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		subtotal     string
		voucher      database.Voucher
		wantDiscount string
		wantReason   string
	}{
		{
			name:         "inactive",
			subtotal:     "50000",
			voucher:      database.Voucher{IsActive: false, PercentOff: pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "0",
			wantReason:   ReasonVoucherInactive,
		},
		{
			name:     "not started yet",
			subtotal: "50000",
			voucher: database.Voucher{IsActive: true,
				StartsAt:   ts(now.Add(24 * time.Hour)),
				PercentOff: pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "0",
			wantReason:   ReasonVoucherNotStarted,
		},
		{
			name:     "expired",
			subtotal: "50000",
			voucher: database.Voucher{IsActive: true,
				EndsAt:     ts(now.Add(-24 * time.Hour)),
				PercentOff: pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "0",
			wantReason:   ReasonVoucherExpired,
		},
		{
			name:     "subtotal below minimum",
			subtotal: "15000",
			voucher: database.Voucher{IsActive: true,
				MinSubtotal: makeNumeric("20000"),
				PercentOff:  pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "0",
			wantReason:   ReasonSubtotalBelowMinimum,
		},
		{
			name:     "inactive wins over expiry",
			subtotal: "50000",
			voucher: database.Voucher{IsActive: false,
				EndsAt:     ts(now.Add(-24 * time.Hour)),
				PercentOff: pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "0",
			wantReason:   ReasonVoucherInactive,
		},
		{
			name:         "percent off",
			subtotal:     "50000",
			voucher:      database.Voucher{IsActive: true, PercentOff: pgtype.Int4{Int32: 10, Valid: true}},
			wantDiscount: "5000",
		},
		{
			name:         "flat off",
			subtotal:     "50000",
			voucher:      database.Voucher{IsActive: true, FlatOff: makeNumeric("7500")},
			wantDiscount: "7500",
		},
		{
			name:     "percent wins when both set",
			subtotal: "50000",
			voucher: database.Voucher{IsActive: true,
				PercentOff: pgtype.Int4{Int32: 10, Valid: true},
				FlatOff:    makeNumeric("999")},
			wantDiscount: "5000",
		},
		{
			name:     "max discount clamps",
			subtotal: "100000",
			voucher: database.Voucher{IsActive: true,
				PercentOff:  pgtype.Int4{Int32: 10, Valid: true},
				MaxDiscount: makeNumeric("5000")},
			wantDiscount: "5000",
		},
		{
			name:     "cap above computed discount does nothing",
			subtotal: "30000",
			voucher: database.Voucher{IsActive: true,
				PercentOff:  pgtype.Int4{Int32: 10, Valid: true},
				MaxDiscount: makeNumeric("5000")},
			wantDiscount: "3000",
		},
		{
			name:         "no benefit configured",
			subtotal:     "50000",
			voucher:      database.Voucher{IsActive: true},
			wantDiscount: "0",
			wantReason:   ReasonNoDiscount,
		},
		{
			name:         "flat larger than subtotal passes through",
			subtotal:     "5000",
			voucher:      database.Voucher{IsActive: true, FlatOff: makeNumeric("8000")},
			wantDiscount: "8000", // the caller clamps the order total, not the discount
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subtotal, _ := decimal.NewFromString(tc.subtotal)
			got := EvaluateVoucher(subtotal, tc.voucher, now)

			want, _ := decimal.NewFromString(tc.wantDiscount)
			if !got.Discount.Equal(want) {
				t.Errorf("discount: got %v, want %v", got.Discount, want)
			}
			if got.Reason != tc.wantReason {
				t.Errorf("reason: got %q, want %q", got.Reason, tc.wantReason)
			}
		})
	}
}

func TestEvaluateVoucher_BoundaryMinimum(t *testing.T) {
	now := time.Now()
	v := database.Voucher{IsActive: true,
		MinSubtotal: makeNumeric("20000"),
		PercentOff:  pgtype.Int4{Int32: 10, Valid: true}}

	// Exactly at the minimum qualifies.
	got := EvaluateVoucher(decimal.NewFromInt(20000), v, now)
	if !got.Discount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("at minimum: got %v, want 2000", got.Discount)
	}
}
