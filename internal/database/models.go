package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Outlet struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Address   pgtype.Text
	Phone     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	OutletID     pgtype.UUID
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt pgtype.Timestamptz
	CreatedAt time.Time
}

type Service struct {
	ID        uuid.UUID
	OutletID  uuid.UUID
	Name      string
	Type      string
	Unit      string
	Price     pgtype.Numeric
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Voucher struct {
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
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID            uuid.UUID
	Code          string
	OutletID      uuid.UUID
	CustomerID    uuid.UUID
	Status        string
	IsExpress     bool
	ExpressFee    pgtype.Numeric
	VoucherID     pgtype.UUID
	Subtotal      pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	PaidAmount    pgtype.Numeric
	PaymentStatus string
	Notes         pgtype.Text
	ReadyAt       pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
	CanceledAt    pgtype.Timestamptz
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ServiceID uuid.UUID
	Qty       pgtype.Numeric
	Price     pgtype.Numeric
	LineTotal pgtype.Numeric
	CreatedAt time.Time
}

type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Method    string
	Amount    pgtype.Numeric
	Note      pgtype.Text
	CreatedAt time.Time
}

type OrderSequence struct {
	OutletID uuid.UUID
	DateKey  string
	Seq      int32
}

type PickupDelivery struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	PickupAddress   pgtype.Text
	DeliveryAddress pgtype.Text
	ScheduledAt     pgtype.Timestamptz
	CourierID       pgtype.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
