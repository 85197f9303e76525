package service

import "errors"

// Errors returned by the order service. Handlers map these onto transport
// status codes; the service itself knows nothing about HTTP.
var (
	// Not found
	ErrOrderNotFound     = errors.New("order not found")
	ErrOutletNotFound    = errors.New("outlet not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrVoucherNotFound   = errors.New("voucher not found")
	ErrOrderItemNotFound = errors.New("order item not found")

	// Forbidden
	ErrOutletForbidden       = errors.New("forbidden: outlet mismatch")
	ErrOutletScopeRequired   = errors.New("outlet scope required")
	ErrCourierOutletMismatch = errors.New("courier must belong to the same outlet")

	// Validation
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidAmount        = errors.New("amount must be > 0")
	ErrInvalidExpressFee    = errors.New("invalid express_fee")
	ErrServicesUnavailable  = errors.New("some services are invalid or inactive for this outlet")
	ErrServiceUnavailable   = errors.New("service not available for this outlet")
	ErrOrderNotModifiable   = errors.New("order can no longer be modified")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrVoucherRejected      = errors.New("voucher not applicable")
	ErrExpressFeeNotExpress = errors.New("cannot set express fee for non-express order")
	ErrInvalidCourier       = errors.New("courier must be a valid courier user")
)

// IsNotFound reports whether err is one of the service's not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOutletNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrVoucherNotFound) ||
		errors.Is(err, ErrOrderItemNotFound)
}

// IsForbidden reports whether err is an outlet/role scoping failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrOutletForbidden) ||
		errors.Is(err, ErrOutletScopeRequired) ||
		errors.Is(err, ErrCourierOutletMismatch)
}

// IsValidation reports whether err is a business-rule validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidExpressFee) ||
		errors.Is(err, ErrServicesUnavailable) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrOrderNotModifiable) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrVoucherRejected) ||
		errors.Is(err, ErrExpressFeeNotExpress) ||
		errors.Is(err, ErrInvalidCourier)
}
