package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	ListActiveServicesByIDs(ctx context.Context, ids []uuid.UUID, outletID uuid.UUID) ([]database.Service, error)
	GetVoucher(ctx context.Context, id uuid.UUID) (database.Voucher, error)
	GetVoucherByCode(ctx context.Context, code string) (database.Voucher, error)
	GetUser(ctx context.Context, id uuid.UUID) (database.User, error)

	UpsertOrderSequence(ctx context.Context, arg database.UpsertOrderSequenceParams) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	UpdateOrderWorkflow(ctx context.Context, arg database.UpdateOrderWorkflowParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CountOrders(ctx context.Context, arg database.ListOrdersParams) (int64, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	UpdateOrderItemQty(ctx context.Context, arg database.UpdateOrderItemQtyParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemsWithService(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemWithService, error)

	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)

	UpsertPickupDelivery(ctx context.Context, arg database.UpsertPickupDeliveryParams) (database.PickupDelivery, error)
	GetPickupDeliveryByOrder(ctx context.Context, orderID uuid.UUID) (database.PickupDelivery, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), letting the
// service derive store instances bound to its transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService owns the order financial lifecycle: creation, item and
// payment mutations, workflow transitions, and the totals invariant.
type OrderService struct {
	store    OrderStore
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(store OrderStore, pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{store: store, pool: pool, newStore: newStore}
}

// --- Request / result types ---

// OrderItemRequest is a single (service, qty) line. Qty is a decimal string:
// fractional quantities are legal (kilograms).
type OrderItemRequest struct {
	ServiceID uuid.UUID
	Qty       string
}

type CreateOrderRequest struct {
	OutletID    uuid.UUID
	CustomerID  uuid.UUID
	Items       []OrderItemRequest
	VoucherCode string
	IsExpress   bool
	ExpressFee  string // decimal, only honored when IsExpress
	Notes       string
}

type UpdateOrderRequest struct {
	Status      string
	Notes       *string
	IsExpress   *bool
	ExpressFee  *string
	ReadyAt     *time.Time
	CompletedAt *time.Time
}

type PaymentRequest struct {
	Method string
	Amount string
	Note   string
}

type PickupRequest struct {
	PickupAddress   *string
	DeliveryAddress *string
	ScheduledAt     *time.Time
	CourierID       *uuid.UUID
}

type ListOrdersQuery struct {
	OutletID   *uuid.UUID
	CustomerID *uuid.UUID
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
	Limit      int32
	Offset     int32
}

// OrderDetail is a hydrated order: items joined with their service, all
// payments, the customer, and the voucher/pickup records when present.
type OrderDetail struct {
	Order    database.Order
	Items    []database.OrderItemWithService
	Payments []database.Payment
	Customer database.Customer
	Voucher  *database.Voucher
	Pickup   *database.PickupDelivery
}

// --- Queries ---

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := AssertOutletAccess(actor, order.OutletID); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, s.store, order)
}

func (s *OrderService) ListOrders(ctx context.Context, actor Actor, q ListOrdersQuery) ([]database.Order, int64, error) {
	outletID, err := ScopeOutletFilter(actor, q.OutletID)
	if err != nil {
		return nil, 0, err
	}

	arg := database.ListOrdersParams{
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if outletID != nil {
		arg.OutletID = pgtype.UUID{Bytes: *outletID, Valid: true}
	}
	if q.CustomerID != nil {
		arg.CustomerID = pgtype.UUID{Bytes: *q.CustomerID, Valid: true}
	}
	if q.Status != "" {
		if !isValidOrderStatus(q.Status) {
			return nil, 0, ErrInvalidStatus
		}
		arg.Status = pgtype.Text{String: q.Status, Valid: true}
	}
	if q.DateFrom != nil {
		arg.DateFrom = pgtype.Timestamptz{Time: *q.DateFrom, Valid: true}
	}
	if q.DateTo != nil {
		arg.DateTo = pgtype.Timestamptz{Time: *q.DateTo, Valid: true}
	}
	if q.Search != "" {
		arg.Search = pgtype.Text{String: q.Search, Valid: true}
	}

	orders, err := s.store.ListOrders(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.store.CountOrders(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}

// --- Order creation ---

// CreateOrder validates, snapshots prices, applies the voucher, generates the
// order code, and persists order + items in one transaction. Failure at any
// step rolls back the whole thing; partial orders are never visible.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderDetail, error) {
	if err := AssertOutletAccess(actor, req.OutletID); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	qtys := make([]decimal.Decimal, len(req.Items))
	for i, item := range req.Items {
		qty, err := decimal.NewFromString(item.Qty)
		if err != nil || !qty.IsPositive() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		qtys[i] = qty
	}

	expressFee := decimal.Zero
	if req.IsExpress && req.ExpressFee != "" {
		fee, err := decimal.NewFromString(req.ExpressFee)
		if err != nil || fee.IsNegative() {
			return nil, ErrInvalidExpressFee
		}
		expressFee = fee
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	outlet, err := store.GetOutlet(ctx, req.OutletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOutletNotFound
		}
		return nil, fmt.Errorf("get outlet: %w", err)
	}

	customer, err := store.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	// Bulk-or-nothing service resolution: every requested service must exist,
	// belong to the outlet, and be active.
	serviceIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		serviceIDs[i] = item.ServiceID
	}
	services, err := store.ListActiveServicesByIDs(ctx, serviceIDs, req.OutletID)
	if err != nil {
		return nil, fmt.Errorf("resolve services: %w", err)
	}
	if len(services) != len(serviceIDs) {
		return nil, ErrServicesUnavailable
	}
	serviceByID := make(map[uuid.UUID]database.Service, len(services))
	for _, svc := range services {
		serviceByID[svc.ID] = svc
	}

	// Snapshot prices; the item keeps the price it was sold at even if the
	// service price changes later.
	subtotal := decimal.Zero
	lineTotals := make([]decimal.Decimal, len(req.Items))
	prices := make([]decimal.Decimal, len(req.Items))
	for i, item := range req.Items {
		price := numericToDecimal(serviceByID[item.ServiceID].Price)
		prices[i] = price
		lineTotals[i] = price.Mul(qtys[i])
		subtotal = subtotal.Add(lineTotals[i])
	}

	var voucher *database.Voucher
	discount := decimal.Zero
	if req.VoucherCode != "" {
		v, err := store.GetVoucherByCode(ctx, strings.ToUpper(req.VoucherCode))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherNotFound
			}
			return nil, fmt.Errorf("get voucher: %w", err)
		}
		result := EvaluateVoucher(subtotal, v, time.Now())
		// A voucher that contributes nothing rejects order creation outright;
		// an already-attached zero-discount voucher is tolerated on recalc.
		if result.Discount.IsZero() && result.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrVoucherRejected, result.Reason)
		}
		voucher = &v
		discount = result.Discount
	}

	code, err := s.generateOrderCode(ctx, store, req.OutletID, outlet.Code, time.Now())
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(discount).Add(expressFee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	params := database.CreateOrderParams{
		Code:       code,
		OutletID:   req.OutletID,
		CustomerID: req.CustomerID,
		Status:     enum.OrderStatusPending,
		IsExpress:  req.IsExpress,
		Subtotal:   decimalToNumeric(subtotal),
		Discount:   decimalToNumeric(discount),
		Total:      decimalToNumeric(total),
		CreatedBy:  actor.ID,
	}
	if req.IsExpress {
		params.ExpressFee = decimalToNumeric(expressFee)
	}
	if voucher != nil {
		params.VoucherID = pgtype.UUID{Bytes: voucher.ID, Valid: true}
	}
	if req.Notes != "" {
		params.Notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItemWithService, len(req.Items))
	for i, item := range req.Items {
		created, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ServiceID: item.ServiceID,
			Qty:       decimalToNumeric(qtys[i]),
			Price:     decimalToNumeric(prices[i]),
			LineTotal: decimalToNumeric(lineTotals[i]),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		svc := serviceByID[item.ServiceID]
		items[i] = database.OrderItemWithService{
			OrderItem:   created,
			ServiceName: svc.Name,
			ServiceType: svc.Type,
			ServiceUnit: svc.Unit,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderDetail{
		Order:    order,
		Items:    items,
		Customer: customer,
		Voucher:  voucher,
	}, nil
}

// --- Workflow / field updates ---

// UpdateOrder applies a status transition and/or non-status field changes,
// then recalculates totals, all in one transaction.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateOrderRequest) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	arg := database.UpdateOrderWorkflowParams{
		ID:          order.ID,
		Status:      order.Status,
		IsExpress:   order.IsExpress,
		ExpressFee:  order.ExpressFee,
		Notes:       order.Notes,
		ReadyAt:     order.ReadyAt,
		CompletedAt: order.CompletedAt,
		CanceledAt:  order.CanceledAt,
	}

	if req.Status != "" {
		if !isValidOrderStatus(req.Status) {
			return nil, ErrInvalidStatus
		}
		if err := ValidateStatusTransition(order.Status, req.Status); err != nil {
			return nil, err
		}
		arg.Status = req.Status
		switch req.Status {
		case enum.OrderStatusCanceled:
			arg.CanceledAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
		case enum.OrderStatusCompleted:
			completedAt := time.Now()
			if req.CompletedAt != nil {
				completedAt = *req.CompletedAt
			}
			arg.CompletedAt = pgtype.Timestamptz{Time: completedAt, Valid: true}
		}
	}

	if req.Notes != nil {
		arg.Notes = pgtype.Text{String: *req.Notes, Valid: true}
	}

	if req.IsExpress != nil {
		arg.IsExpress = *req.IsExpress
		if !*req.IsExpress {
			// Turning express off clears the fee.
			arg.ExpressFee = pgtype.Numeric{}
		}
	}

	if req.ExpressFee != nil {
		express := order.IsExpress
		if req.IsExpress != nil {
			express = *req.IsExpress
		}
		if !express {
			return nil, ErrExpressFeeNotExpress
		}
		fee, err := decimal.NewFromString(*req.ExpressFee)
		if err != nil || fee.IsNegative() {
			return nil, ErrInvalidExpressFee
		}
		arg.ExpressFee = decimalToNumeric(fee)
	}

	if req.ReadyAt != nil {
		arg.ReadyAt = pgtype.Timestamptz{Time: *req.ReadyAt, Valid: true}
	}
	if req.CompletedAt != nil && req.Status != enum.OrderStatusCompleted {
		arg.CompletedAt = pgtype.Timestamptz{Time: *req.CompletedAt, Valid: true}
	}

	if _, err := store.UpdateOrderWorkflow(ctx, arg); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	// Express fee affects the total, so every update recalculates.
	if err := s.recalculateTotals(ctx, store, order.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, actor, orderID)
}

// CancelOrder is the dedicated cancel operation. Canceling an already
// CANCELED order is a no-op; canceling a COMPLETED order is rejected by the
// transition table.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == enum.OrderStatusCanceled {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return s.GetOrder(ctx, actor, orderID)
	}
	if err := ValidateStatusTransition(order.Status, enum.OrderStatusCanceled); err != nil {
		return nil, err
	}

	arg := database.UpdateOrderWorkflowParams{
		ID:          order.ID,
		Status:      enum.OrderStatusCanceled,
		IsExpress:   order.IsExpress,
		ExpressFee:  order.ExpressFee,
		Notes:       order.Notes,
		ReadyAt:     order.ReadyAt,
		CompletedAt: order.CompletedAt,
		CanceledAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	if reason != "" {
		arg.Notes = pgtype.Text{String: reason, Valid: true}
	}

	if _, err := store.UpdateOrderWorkflow(ctx, arg); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, actor, orderID)
}

// --- Item mutations ---

func (s *OrderService) AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, item OrderItemRequest) (*OrderDetail, error) {
	qty, err := decimal.NewFromString(item.Qty)
	if err != nil || !qty.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockMutableOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	svc, err := store.GetService(ctx, item.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceUnavailable
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	if svc.OutletID != order.OutletID {
		return nil, ErrServiceUnavailable
	}

	price := numericToDecimal(svc.Price)
	if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
		OrderID:   order.ID,
		ServiceID: svc.ID,
		Qty:       decimalToNumeric(qty),
		Price:     decimalToNumeric(price),
		LineTotal: decimalToNumeric(price.Mul(qty)),
	}); err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	if err := s.recalculateTotals(ctx, store, order.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, actor, orderID)
}

func (s *OrderService) UpdateItemQty(ctx context.Context, actor Actor, orderID, itemID uuid.UUID, qtyStr string) (*OrderDetail, error) {
	qty, err := decimal.NewFromString(qtyStr)
	if err != nil || !qty.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockMutableOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item.OrderID != order.ID {
		return nil, ErrOrderItemNotFound
	}

	// Line total reuses the snapshot price, never the live service price.
	price := numericToDecimal(item.Price)
	if _, err := store.UpdateOrderItemQty(ctx, database.UpdateOrderItemQtyParams{
		ID:        item.ID,
		Qty:       decimalToNumeric(qty),
		LineTotal: decimalToNumeric(price.Mul(qty)),
	}); err != nil {
		return nil, fmt.Errorf("update order item: %w", err)
	}

	if err := s.recalculateTotals(ctx, store, order.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, actor, orderID)
}

func (s *OrderService) RemoveItem(ctx context.Context, actor Actor, orderID, itemID uuid.UUID) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockMutableOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item.OrderID != order.ID {
		return nil, ErrOrderItemNotFound
	}

	if err := store.DeleteOrderItem(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("delete order item: %w", err)
	}

	if err := s.recalculateTotals(ctx, store, order.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, actor, orderID)
}

// --- Payments ---

// AddPayment records a payment and rederives the order's payment status.
// Payments are append-only; there is no edit or delete.
func (s *OrderService) AddPayment(ctx context.Context, actor Actor, orderID uuid.UUID, req PaymentRequest) (database.Payment, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return database.Payment{}, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Payment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, actor, orderID)
	if err != nil {
		return database.Payment{}, err
	}

	params := database.CreatePaymentParams{
		OrderID: order.ID,
		Method:  req.Method,
		Amount:  decimalToNumeric(amount),
	}
	if req.Note != "" {
		params.Note = pgtype.Text{String: req.Note, Valid: true}
	}

	payment, err := store.CreatePayment(ctx, params)
	if err != nil {
		return database.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	if err := s.recalculateTotals(ctx, store, order.ID); err != nil {
		return database.Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Payment{}, fmt.Errorf("commit tx: %w", err)
	}

	return payment, nil
}

func (s *OrderService) ListPayments(ctx context.Context, actor Actor, orderID uuid.UUID) ([]database.Payment, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := AssertOutletAccess(actor, order.OutletID); err != nil {
		return nil, err
	}
	return s.store.ListPaymentsByOrder(ctx, orderID)
}

// --- Pickup / delivery ---

// SetPickup creates or replaces the pickup/delivery record for an order.
func (s *OrderService) SetPickup(ctx context.Context, actor Actor, orderID uuid.UUID, req PickupRequest) (database.PickupDelivery, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.PickupDelivery{}, ErrOrderNotFound
		}
		return database.PickupDelivery{}, fmt.Errorf("get order: %w", err)
	}
	if err := AssertOutletAccess(actor, order.OutletID); err != nil {
		return database.PickupDelivery{}, err
	}

	arg := database.UpsertPickupDeliveryParams{OrderID: order.ID}
	if req.PickupAddress != nil {
		arg.PickupAddress = pgtype.Text{String: *req.PickupAddress, Valid: true}
	}
	if req.DeliveryAddress != nil {
		arg.DeliveryAddress = pgtype.Text{String: *req.DeliveryAddress, Valid: true}
	}
	if req.ScheduledAt != nil {
		arg.ScheduledAt = pgtype.Timestamptz{Time: *req.ScheduledAt, Valid: true}
	}
	if req.CourierID != nil {
		courier, err := s.store.GetUser(ctx, *req.CourierID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.PickupDelivery{}, ErrInvalidCourier
			}
			return database.PickupDelivery{}, fmt.Errorf("get courier: %w", err)
		}
		if courier.Role != enum.UserRoleCourier {
			return database.PickupDelivery{}, ErrInvalidCourier
		}
		if !courier.OutletID.Valid || courier.OutletID.Bytes != order.OutletID {
			return database.PickupDelivery{}, ErrCourierOutletMismatch
		}
		arg.CourierID = pgtype.UUID{Bytes: *req.CourierID, Valid: true}
	}

	pickup, err := s.store.UpsertPickupDelivery(ctx, arg)
	if err != nil {
		return database.PickupDelivery{}, fmt.Errorf("upsert pickup: %w", err)
	}
	return pickup, nil
}

// --- Internals ---

// lockOrder fetches the order with a row lock and checks outlet access,
// serializing concurrent mutations of the same order.
func lockOrder(ctx context.Context, store OrderStore, actor Actor, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if err := AssertOutletAccess(actor, order.OutletID); err != nil {
		return database.Order{}, err
	}
	return order, nil
}

// lockMutableOrder additionally rejects orders in a terminal state, before
// any storage mutation happens.
func lockMutableOrder(ctx context.Context, store OrderStore, actor Actor, orderID uuid.UUID) (database.Order, error) {
	order, err := lockOrder(ctx, store, actor, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if IsFinalStatus(order.Status) {
		return database.Order{}, ErrOrderNotModifiable
	}
	return order, nil
}

// generateOrderCode produces {OUTLETCODE}-{YYYYMMDD}-{NNNN} from the atomic
// per-(outlet, day) sequence. Runs inside the caller's transaction so a
// rollback releases the number (gaps are fine, duplicates never).
func (s *OrderService) generateOrderCode(ctx context.Context, store OrderStore, outletID uuid.UUID, outletCode string, date time.Time) (string, error) {
	dateKey := date.Format("20060102")
	seq, err := store.UpsertOrderSequence(ctx, database.UpsertOrderSequenceParams{
		OutletID: outletID,
		DateKey:  dateKey,
	})
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", strings.ToUpper(outletCode), dateKey, seq), nil
}

// recalculateTotals is the single source of truth for the order's derived
// money fields. Every mutation path calls it before committing; calling it
// twice with no intervening mutation is a no-op.
func (s *OrderService) recalculateTotals(ctx context.Context, store OrderStore, orderID uuid.UUID) error {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The mutation just touched this order; its absence is a caller
			// bug and must abort the enclosing transaction.
			return ErrOrderNotFound
		}
		return fmt.Errorf("recalc: get order: %w", err)
	}

	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("recalc: list items: %w", err)
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(numericToDecimal(item.LineTotal))
	}

	discount := decimal.Zero
	if order.VoucherID.Valid {
		voucher, err := store.GetVoucher(ctx, order.VoucherID.Bytes)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoucherNotFound
			}
			return fmt.Errorf("recalc: get voucher: %w", err)
		}
		discount = EvaluateVoucher(subtotal, voucher, time.Now()).Discount
	}

	expressFee := numericToDecimal(order.ExpressFee)
	total := subtotal.Sub(discount).Add(expressFee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	paidNumeric, err := store.SumPaymentsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("recalc: sum payments: %w", err)
	}
	paid := numericToDecimal(paidNumeric)

	if _, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:            orderID,
		Subtotal:      decimalToNumeric(subtotal),
		Discount:      decimalToNumeric(discount),
		Total:         decimalToNumeric(total),
		PaidAmount:    decimalToNumeric(paid),
		PaymentStatus: derivePaymentStatus(paid, total),
	}); err != nil {
		return fmt.Errorf("recalc: update totals: %w", err)
	}
	return nil
}

// derivePaymentStatus classifies cumulative payments against the total due.
// A zero-total order with no payments stays UNPAID; treating zero due as
// satisfied is a business decision deliberately not taken here.
func derivePaymentStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.IsZero():
		return enum.PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return enum.PaymentStatusPaid
	default:
		return enum.PaymentStatusPartial
	}
}

func (s *OrderService) hydrate(ctx context.Context, store OrderStore, order database.Order) (*OrderDetail, error) {
	items, err := store.ListOrderItemsWithService(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	payments, err := store.ListPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	customer, err := store.GetCustomer(ctx, order.CustomerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	detail := &OrderDetail{
		Order:    order,
		Items:    items,
		Payments: payments,
		Customer: customer,
	}

	if order.VoucherID.Valid {
		voucher, err := store.GetVoucher(ctx, order.VoucherID.Bytes)
		if err == nil {
			detail.Voucher = &voucher
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get voucher: %w", err)
		}
	}

	pickup, err := store.GetPickupDeliveryByOrder(ctx, order.ID)
	if err == nil {
		detail.Pickup = &pickup
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get pickup: %w", err)
	}

	return detail, nil
}

// --- Decimal helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
