package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/platform/httpx"
	"github.com/qfd-delivery/api/internal/services"
)

// OrderHandlers exposes placement and the order ledger for the current user.
type OrderHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
	orders   services.OrderService
}

const maxOrderBodySize = 8 * 1024

// NewOrderHandlers constructs handlers enforcing Firebase authentication
// before reading or mutating orders.
func NewOrderHandlers(authn *auth.Authenticator, checkout services.CheckoutService, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		authn:    authn,
		checkout: checkout,
		orders:   orders,
	}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/advance", h.advanceOrder)
	r.Get("/{orderID}/tracking", h.trackOrder)
}

type placeOrderRequest struct {
	PaymentMode string `json:"paymentMode"`
}

type orderPayload struct {
	ID          string            `json:"id"`
	Items       []cartItemPayload `json:"items"`
	Quote       quotePayload      `json:"quote"`
	PaymentMode string            `json:"paymentMode"`
	Address     string            `json:"address,omitempty"`
	DistanceKm  int64             `json:"distanceKm"`
	Status      string            `json:"status"`
	PlacedAt    string            `json:"placedAt"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
}

type trackingStepPayload struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.checkout == nil {
		writeCheckoutUnavailable(ctx, w)
		return
	}

	// Payment mode defaults to UPI when the body is omitted.
	var req placeOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		UserID:      identity.UID,
		PaymentMode: services.PaymentMode(strings.ToUpper(strings.TrimSpace(req.PaymentMode))),
	})
	if err != nil {
		h.writePlacementError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.orders == nil {
		writeOrdersUnavailable(ctx, w)
		return
	}

	orders, err := h.orders.ListOrders(ctx, identity.UID)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.orders == nil {
		writeOrdersUnavailable(ctx, w)
		return
	}

	order, err := h.orders.GetOrder(ctx, identity.UID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) advanceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.orders == nil {
		writeOrdersUnavailable(ctx, w)
		return
	}

	order, err := h.orders.AdvanceStatus(ctx, identity.UID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) trackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.orders == nil {
		writeOrdersUnavailable(ctx, w)
		return
	}

	tracking, err := h.orders.TrackOrder(ctx, identity.UID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	steps := make([]trackingStepPayload, 0, len(tracking.Steps))
	for _, step := range tracking.Steps {
		steps = append(steps, trackingStepPayload{
			Status: string(step.Status),
			State:  string(step.State),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"order": buildOrderPayload(tracking.Order),
		"steps": steps,
	})
}

func (h *OrderHandlers) writePlacementError(ctx context.Context, w http.ResponseWriter, err error) {
	if guard, ok := services.IsPlacementGuard(err); ok {
		httpx.WriteError(ctx, w, httpx.
			NewError("placement_rejected", guard.Message, http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"reason": guard.Reason}))
		return
	}

	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		writeCheckoutUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to place order", http.StatusInternalServerError))
	}
}

func (h *OrderHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderDelivered):
		httpx.WriteError(ctx, w, httpx.NewError("order_delivered", "order is already delivered", http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		writeOrdersUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to read orders", http.StatusInternalServerError))
	}
}

func writeOrdersUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
}

func buildOrderPayload(order services.Order) orderPayload {
	items := make([]cartItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return orderPayload{
		ID:          order.ID,
		Items:       items,
		Quote:       buildQuotePayload(order.Quote),
		PaymentMode: string(order.PaymentMode),
		Address:     order.Address,
		DistanceKm:  order.DistanceKm,
		Status:      string(order.Status),
		PlacedAt:    formatTime(order.PlacedAt),
		UpdatedAt:   formatTime(order.UpdatedAt),
	}
}
