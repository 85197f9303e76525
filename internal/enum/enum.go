package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusReceived   = "RECEIVED"
	OrderStatusWashing    = "WASHING"
	OrderStatusDrying     = "DRYING"
	OrderStatusIroning    = "IRONING"
	OrderStatusReady      = "READY"
	OrderStatusDelivering = "DELIVERING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCanceled   = "CANCELED"
)

// Payment status is derived from paid amount vs total; never set directly.
const (
	PaymentStatusUnpaid  = "UNPAID"
	PaymentStatusPartial = "PARTIAL"
	PaymentStatusPaid    = "PAID"
)

const (
	UserRoleSuperadmin = "SUPERADMIN"
	UserRoleAdmin      = "ADMIN"
	UserRoleCashier    = "CASHIER"
	UserRoleCourier    = "COURIER"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodQRIS     = "QRIS"
	PaymentMethodTransfer = "TRANSFER"
)
