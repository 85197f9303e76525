package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/washpoint/api/internal/database"
)

// Rejection reasons produced by EvaluateVoucher. At order creation a non-empty
// reason with a zero discount rejects the order; during recalculation the
// reason is informational only.
const (
	ReasonVoucherInactive      = "Voucher inactive"
	ReasonVoucherNotStarted    = "Voucher not started"
	ReasonVoucherExpired       = "Voucher expired"
	ReasonSubtotalBelowMinimum = "Subtotal below minimum"
	ReasonNoDiscount           = "No discount applied"
)

type VoucherResult struct {
	Discount decimal.Decimal
	Reason   string
}

// EvaluateVoucher computes the discount a voucher yields for a subtotal at a
// given instant. Pure: no persistence, no side effects. Rules short-circuit
// in order; percent-off wins over flat-off when both are set; the max
// discount cap clamps last. All arithmetic is exact decimal.
func EvaluateVoucher(subtotal decimal.Decimal, v database.Voucher, now time.Time) VoucherResult {
	if !v.IsActive {
		return VoucherResult{Discount: decimal.Zero, Reason: ReasonVoucherInactive}
	}

	if v.StartsAt.Valid && now.Before(v.StartsAt.Time) {
		return VoucherResult{Discount: decimal.Zero, Reason: ReasonVoucherNotStarted}
	}

	if v.EndsAt.Valid && now.After(v.EndsAt.Time) {
		return VoucherResult{Discount: decimal.Zero, Reason: ReasonVoucherExpired}
	}

	if v.MinSubtotal.Valid && subtotal.LessThan(numericToDecimal(v.MinSubtotal)) {
		return VoucherResult{Discount: decimal.Zero, Reason: ReasonSubtotalBelowMinimum}
	}

	discount := decimal.Zero
	if v.PercentOff.Valid {
		discount = subtotal.Mul(decimal.NewFromInt32(v.PercentOff.Int32)).Div(decimal.NewFromInt(100))
	} else if v.FlatOff.Valid {
		discount = numericToDecimal(v.FlatOff)
	}

	if v.MaxDiscount.Valid {
		if max := numericToDecimal(v.MaxDiscount); discount.GreaterThan(max) {
			discount = max
		}
	}

	if discount.IsZero() {
		return VoucherResult{Discount: decimal.Zero, Reason: ReasonNoDiscount}
	}
	return VoucherResult{Discount: discount}
}
