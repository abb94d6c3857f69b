package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	domain "github.com/qfd-delivery/api/internal/domain"
	"github.com/qfd-delivery/api/internal/repositories"
)

var (
	errCheckoutCartsRequired    = errors.New("checkout service: cart service is required")
	errCheckoutOrdersRequired   = errors.New("checkout service: order repository is required")
	errCheckoutDeliveryRequired = errors.New("checkout service: delivery repository is required")
	errCheckoutPricerRequired   = errors.New("checkout service: pricing engine is required")
	errCheckoutClockRequired    = errors.New("checkout service: clock is required")
)

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutUnavailable indicates the checkout backend cannot serve the request.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

// Client-facing guard messages, shown verbatim by the app.
const (
	MsgServiceClosed  = "Service Closed! Opens 7 AM."
	MsgMinimumOrder   = "Min ₹80 order required."
	MsgDeliveryRadius = "Delivery up to 10km only."
	MsgSyncLocation   = "Sync GPS Location first."
)

const (
	closingHour            = 21
	minimumOrderSubtotal   = 80
	maxDeliveryRadiusKm    = 10
	defaultSyncDelay       = 1500 * time.Millisecond
	defaultPlacementDelay  = 2000 * time.Millisecond
	simulatedMaxDistanceKm = 12
)

// PlacementGuardError is a rejected placement with its client-facing message.
type PlacementGuardError struct {
	Reason  string
	Message string
}

func (e *PlacementGuardError) Error() string {
	return fmt.Sprintf("checkout service: placement rejected (%s)", e.Reason)
}

// IsPlacementGuard reports whether err is a placement guard rejection.
func IsPlacementGuard(err error) (*PlacementGuardError, bool) {
	var guard *PlacementGuardError
	if errors.As(err, &guard) {
		return guard, true
	}
	return nil, false
}

// CheckoutServiceDeps wires the collaborators for location sync and placement.
type CheckoutServiceDeps struct {
	Carts    CartService
	Orders   repositories.OrderRepository
	Delivery repositories.DeliveryRepository
	Pricer   PricingEngine
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)

	// DistanceResolver simulates the courier distance lookup; the default
	// yields 1-12 km.
	DistanceResolver func() int64
	// OrderIDGenerator mints order codes; the default yields QFD-10000..99999.
	OrderIDGenerator func() string

	// SyncDelay and PlacementDelay model upstream latency. Zero values take
	// the defaults; negative values disable the wait (used by tests).
	SyncDelay      time.Duration
	PlacementDelay time.Duration
}

type checkoutService struct {
	carts    CartService
	orders   repositories.OrderRepository
	delivery repositories.DeliveryRepository
	pricer   PricingEngine
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)

	resolveDistance func() int64
	newOrderID      func() string

	syncDelay      time.Duration
	placementDelay time.Duration
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errCheckoutCartsRequired
	}
	if deps.Orders == nil {
		return nil, errCheckoutOrdersRequired
	}
	if deps.Delivery == nil {
		return nil, errCheckoutDeliveryRequired
	}
	if deps.Pricer == nil {
		return nil, errCheckoutPricerRequired
	}
	if deps.Clock == nil {
		return nil, errCheckoutClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	resolveDistance := deps.DistanceResolver
	if resolveDistance == nil {
		resolveDistance = func() int64 { return rand.Int63n(simulatedMaxDistanceKm) + 1 }
	}

	newOrderID := deps.OrderIDGenerator
	if newOrderID == nil {
		newOrderID = func() string { return fmt.Sprintf("QFD-%d", rand.Intn(90000)+10000) }
	}

	syncDelay := deps.SyncDelay
	if syncDelay == 0 {
		syncDelay = defaultSyncDelay
	}
	placementDelay := deps.PlacementDelay
	if placementDelay == 0 {
		placementDelay = defaultPlacementDelay
	}

	return &checkoutService{
		carts:           deps.Carts,
		orders:          deps.Orders,
		delivery:        deps.Delivery,
		pricer:          deps.Pricer,
		now:             deps.Clock,
		logger:          logger,
		resolveDistance: resolveDistance,
		newOrderID:      newOrderID,
		syncDelay:       syncDelay,
		placementDelay:  placementDelay,
	}, nil
}

// SyncLocation resolves the courier distance for the user. The lookup is
// simulated with a cancellable wait.
func (s *checkoutService) SyncLocation(ctx context.Context, cmd SyncLocationCommand) (DeliveryContext, error) {
	if s == nil || s.delivery == nil {
		return DeliveryContext{}, ErrCheckoutUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return DeliveryContext{}, ErrCheckoutInvalidInput
	}

	if err := wait(ctx, s.syncDelay); err != nil {
		return DeliveryContext{}, err
	}

	distance := s.resolveDistance()
	address := strings.TrimSpace(cmd.Address)
	if address == "" {
		address = fmt.Sprintf("%dkm Linked Delivery", distance)
	}

	dc := DeliveryContext{
		UserID:     uid,
		Address:    address,
		DistanceKm: distance,
		Synced:     true,
		SyncedAt:   s.now().UTC(),
	}
	if err := s.delivery.Save(ctx, dc); err != nil {
		return DeliveryContext{}, ErrCheckoutUnavailable
	}

	s.logger(ctx, "checkout.location_synced", map[string]any{
		"userID":     uid,
		"distanceKm": distance,
	})
	return dc, nil
}

// QuoteCart prices the user's current cart against the synced delivery
// context. Unsynced users are quoted at distance zero.
func (s *checkoutService) QuoteCart(ctx context.Context, userID string) (PriceQuote, error) {
	if s == nil || s.pricer == nil {
		return PriceQuote{}, ErrCheckoutUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return PriceQuote{}, ErrCheckoutInvalidInput
	}

	cart, err := s.carts.GetCart(ctx, uid)
	if err != nil {
		return PriceQuote{}, err
	}

	var distance int64
	if dc, err := s.delivery.Get(ctx, uid); err == nil && dc.Synced {
		distance = dc.DistanceKm
	}

	return s.pricer.Quote(ctx, PriceQuoteCommand{
		Subtotal:   cart.Subtotal(),
		DistanceKm: distance,
		At:         s.now(),
	})
}

// PlaceOrder runs the placement guards in client order, simulates the
// upstream submission, records the order, and clears the cart.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrCheckoutUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return Order{}, ErrCheckoutInvalidInput
	}
	mode := cmd.PaymentMode
	if mode == "" {
		mode = domain.PaymentModeUPI
	}
	if !mode.Valid() {
		return Order{}, ErrCheckoutInvalidInput
	}

	cart, err := s.carts.GetCart(ctx, uid)
	if err != nil {
		return Order{}, err
	}

	dc, dcErr := s.delivery.Get(ctx, uid)
	synced := dcErr == nil && dc.Synced

	now := s.now()
	subtotal := cart.Subtotal()

	if now.Hour() >= closingHour {
		return Order{}, &PlacementGuardError{Reason: "service_closed", Message: MsgServiceClosed}
	}
	if subtotal < minimumOrderSubtotal {
		return Order{}, &PlacementGuardError{Reason: "minimum_order", Message: MsgMinimumOrder}
	}
	if synced && dc.DistanceKm > maxDeliveryRadiusKm {
		return Order{}, &PlacementGuardError{Reason: "delivery_radius", Message: MsgDeliveryRadius}
	}
	if !synced {
		return Order{}, &PlacementGuardError{Reason: "location_unsynced", Message: MsgSyncLocation}
	}

	if err := wait(ctx, s.placementDelay); err != nil {
		return Order{}, err
	}

	quote, err := s.pricer.Quote(ctx, PriceQuoteCommand{
		Subtotal:   subtotal,
		DistanceKm: dc.DistanceKm,
		At:         now,
	})
	if err != nil {
		return Order{}, err
	}

	placedAt := s.now().UTC()
	order := Order{
		ID:          s.newOrderID(),
		UserID:      uid,
		Items:       append([]CartItem(nil), cart.Items...),
		Quote:       quote,
		PaymentMode: mode,
		Address:     dc.Address,
		DistanceKm:  dc.DistanceKm,
		Status:      domain.OrderStatusPlaced,
		PlacedAt:    placedAt,
		UpdatedAt:   placedAt,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		if isRepoConflict(err) {
			// Order code collision; mint a fresh one and retry once.
			order.ID = s.newOrderID()
			if err := s.orders.Insert(ctx, order); err != nil {
				return Order{}, ErrCheckoutUnavailable
			}
		} else {
			return Order{}, ErrCheckoutUnavailable
		}
	}

	if err := s.carts.ClearCart(ctx, uid); err != nil {
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"userID":  uid,
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}

	s.logger(ctx, "checkout.order_placed", map[string]any{
		"userID":  uid,
		"orderID": order.ID,
		"total":   order.Quote.Total,
	})
	return order, nil
}

// wait blocks for d or until the context is cancelled. Negative durations
// return immediately.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
