package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/service"
	"github.com/washpoint/api/internal/ws"
)

// OrderManager is the service surface the order handlers drive.
// Satisfied by *service.OrderService.
type OrderManager interface {
	CreateOrder(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, actor service.Actor, q service.ListOrdersQuery) ([]database.Order, int64, error)
	UpdateOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error)
	CancelOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, reason string) (*service.OrderDetail, error)
	AddItem(ctx context.Context, actor service.Actor, orderID uuid.UUID, item service.OrderItemRequest) (*service.OrderDetail, error)
	UpdateItemQty(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID, qty string) (*service.OrderDetail, error)
	RemoveItem(ctx context.Context, actor service.Actor, orderID, itemID uuid.UUID) (*service.OrderDetail, error)
	AddPayment(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PaymentRequest) (database.Payment, error)
	ListPayments(ctx context.Context, actor service.Actor, orderID uuid.UUID) ([]database.Payment, error)
	SetPickup(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PickupRequest) (database.PickupDelivery, error)
}

// OrderNotifier pushes order events to outlet dashboards. Satisfied by
// *ws.Hub; nil-able in tests via the noop check in notify.
type OrderNotifier interface {
	BroadcastToOutlet(outletID uuid.UUID, event ws.Event)
}

// OrderHandler handles the order lifecycle endpoints.
type OrderHandler struct {
	orders   OrderManager
	notifier OrderNotifier
}

func NewOrderHandler(orders OrderManager, notifier OrderNotifier) *OrderHandler {
	return &OrderHandler{orders: orders, notifier: notifier}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Route("/orders/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Post("/cancel", h.Cancel)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemID}", h.UpdateItem)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Get("/payments", h.ListPayments)
		r.Post("/payments", h.AddPayment)
		r.Put("/pickup", h.SetPickup)
	})
}

// --- Request / Response types ---

type orderItemInput struct {
	ServiceID uuid.UUID `json:"service_id"`
	Qty       string    `json:"qty"`
}

type createOrderRequest struct {
	OutletID    uuid.UUID        `json:"outlet_id"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	Items       []orderItemInput `json:"items"`
	VoucherCode string           `json:"voucher_code"`
	IsExpress   bool             `json:"is_express"`
	ExpressFee  string           `json:"express_fee"`
	Notes       string           `json:"notes"`
}

type updateOrderRequest struct {
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
	IsExpress   *bool      `json:"is_express"`
	ExpressFee  *string    `json:"express_fee"`
	ReadyAt     *time.Time `json:"ready_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type addPaymentRequest struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

type updateItemRequest struct {
	Qty string `json:"qty"`
}

type pickupRequest struct {
	PickupAddress   *string    `json:"pickup_address"`
	DeliveryAddress *string    `json:"delivery_address"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	CourierID       *uuid.UUID `json:"courier_id"`
}

type orderResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	OutletID      uuid.UUID  `json:"outlet_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Status        string     `json:"status"`
	IsExpress     bool       `json:"is_express"`
	ExpressFee    string     `json:"express_fee"`
	VoucherID     *uuid.UUID `json:"voucher_id"`
	Subtotal      string     `json:"subtotal"`
	Discount      string     `json:"discount"`
	Total         string     `json:"total"`
	PaidAmount    string     `json:"paid_amount"`
	PaymentStatus string     `json:"payment_status"`
	Notes         *string    `json:"notes"`
	ReadyAt       *time.Time `json:"ready_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CanceledAt    *time.Time `json:"canceled_at"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	ServiceType string    `json:"service_type"`
	ServiceUnit string    `json:"service_unit"`
	Qty         string    `json:"qty"`
	Price       string    `json:"price"`
	LineTotal   string    `json:"line_total"`
}

type paymentResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Method    string    `json:"method"`
	Amount    string    `json:"amount"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type pickupResponse struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"order_id"`
	PickupAddress   *string    `json:"pickup_address"`
	DeliveryAddress *string    `json:"delivery_address"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	CourierID       *uuid.UUID `json:"courier_id"`
}

type orderDetailResponse struct {
	orderResponse
	Items    []orderItemResponse `json:"items"`
	Payments []paymentResponse   `json:"payments"`
	Customer customerResponse    `json:"customer"`
	Voucher  *voucherResponse    `json:"voucher"`
	Pickup   *pickupResponse     `json:"pickup"`
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Code:          o.Code,
		OutletID:      o.OutletID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		IsExpress:     o.IsExpress,
		ExpressFee:    numericToString(o.ExpressFee),
		Subtotal:      numericToString(o.Subtotal),
		Discount:      numericToString(o.Discount),
		Total:         numericToString(o.Total),
		PaidAmount:    numericToString(o.PaidAmount),
		PaymentStatus: o.PaymentStatus,
		Notes:         textPtr(o.Notes),
		ReadyAt:       timePtr(o.ReadyAt),
		CompletedAt:   timePtr(o.CompletedAt),
		CanceledAt:    timePtr(o.CanceledAt),
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.VoucherID.Valid {
		id := uuid.UUID(o.VoucherID.Bytes)
		resp.VoucherID = &id
	}
	return resp
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Method:    p.Method,
		Amount:    numericToString(p.Amount),
		Note:      textPtr(p.Note),
		CreatedAt: p.CreatedAt,
	}
}

func toPickupResponse(p database.PickupDelivery) pickupResponse {
	resp := pickupResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		PickupAddress:   textPtr(p.PickupAddress),
		DeliveryAddress: textPtr(p.DeliveryAddress),
		ScheduledAt:     timePtr(p.ScheduledAt),
	}
	if p.CourierID.Valid {
		id := uuid.UUID(p.CourierID.Bytes)
		resp.CourierID = &id
	}
	return resp
}

func toOrderDetailResponse(d *service.OrderDetail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: dbOrderToResponse(d.Order),
		Items:         make([]orderItemResponse, len(d.Items)),
		Payments:      make([]paymentResponse, len(d.Payments)),
		Customer:      toCustomerResponse(d.Customer),
	}
	for i, item := range d.Items {
		resp.Items[i] = orderItemResponse{
			ID:          item.ID,
			ServiceID:   item.ServiceID,
			ServiceName: item.ServiceName,
			ServiceType: item.ServiceType,
			ServiceUnit: item.ServiceUnit,
			Qty:         numericToString(item.Qty),
			Price:       numericToString(item.Price),
			LineTotal:   numericToString(item.LineTotal),
		}
	}
	for i, p := range d.Payments {
		resp.Payments[i] = toPaymentResponse(p)
	}
	if d.Voucher != nil {
		v := toVoucherResponse(*d.Voucher)
		resp.Voucher = &v
	}
	if d.Pickup != nil {
		p := toPickupResponse(*d.Pickup)
		resp.Pickup = &p
	}
	return resp
}

// notify broadcasts an order event to the order's outlet room. Best-effort:
// failures to marshal are logged, never surfaced to the client.
func (h *OrderHandler) notify(eventType string, outletID uuid.UUID, payload interface{}) {
	if h.notifier == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.notifier.BroadcastToOutlet(outletID, ws.Event{Type: eventType, Payload: raw})
}

// --- Handlers ---

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	page, limit, offset := parsePagination(r)

	q := service.ListOrdersQuery{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if s := r.URL.Query().Get("outlet_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
			return
		}
		q.OutletID = &id
	}
	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
			return
		}
		q.CustomerID = &id
	}
	var err error
	if q.DateFrom, err = parseTimeParam(r, "date_from"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_from"})
		return
	}
	if q.DateTo, err = parseTimeParam(r, "date_to"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_to"})
		return
	}

	orders, total, err := h.orders.ListOrders(r.Context(), actor, q)
	if err != nil {
		respondServiceError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: resp, Meta: newListMeta(page, limit, total)})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemRequest{ServiceID: item.ServiceID, Qty: item.Qty}
	}

	detail, err := h.orders.CreateOrder(r.Context(), actor, service.CreateOrderRequest{
		OutletID:    req.OutletID,
		CustomerID:  req.CustomerID,
		Items:       items,
		VoucherCode: req.VoucherCode,
		IsExpress:   req.IsExpress,
		ExpressFee:  req.ExpressFee,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(w, "create order", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderCreated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.orders.UpdateOrder(r.Context(), actor, id, service.UpdateOrderRequest{
		Status:      req.Status,
		Notes:       req.Notes,
		IsExpress:   req.IsExpress,
		ExpressFee:  req.ExpressFee,
		ReadyAt:     req.ReadyAt,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		respondServiceError(w, "update order", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderUpdated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req cancelOrderRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	detail, err := h.orders.CancelOrder(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondServiceError(w, "cancel order", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderUpdated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.orders.AddItem(r.Context(), actor, id, service.OrderItemRequest{
		ServiceID: req.ServiceID,
		Qty:       req.Qty,
	})
	if err != nil {
		respondServiceError(w, "add order item", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderUpdated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.orders.UpdateItemQty(r.Context(), actor, id, itemID, req.Qty)
	if err != nil {
		respondServiceError(w, "update order item", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderUpdated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	detail, err := h.orders.RemoveItem(r.Context(), actor, id, itemID)
	if err != nil {
		respondServiceError(w, "remove order item", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.notify(ws.EventOrderUpdated, detail.Order.OutletID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	payments, err := h.orders.ListPayments(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, "list payments", err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Method == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "method is required"})
		return
	}

	payment, err := h.orders.AddPayment(r.Context(), actor, id, service.PaymentRequest{
		Method: req.Method,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		respondServiceError(w, "add payment", err)
		return
	}

	resp := toPaymentResponse(payment)
	if detail, err := h.orders.GetOrder(r.Context(), actor, id); err == nil {
		h.notify(ws.EventOrderPayment, detail.Order.OutletID, toOrderDetailResponse(detail))
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) SetPickup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req pickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	pickup, err := h.orders.SetPickup(r.Context(), actor, id, service.PickupRequest{
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		ScheduledAt:     req.ScheduledAt,
		CourierID:       req.CourierID,
	})
	if err != nil {
		respondServiceError(w, "set pickup", err)
		return
	}

	writeJSON(w, http.StatusOK, toPickupResponse(pickup))
}
