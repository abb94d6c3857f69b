package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qfd-delivery/api/internal/repositories"
)

var (
	errOrderRepositoryRequired = errors.New("order service: repository is required")
	errOrderClockRequired      = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderUnavailable indicates the order backend cannot serve the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// ErrOrderNotFound indicates the order does not exist or belongs to another user.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderDelivered indicates the order already reached its terminal status.
var ErrOrderDelivered = errors.New("order service: already delivered")

// OrderServiceDeps wires the order repository and clock.
type OrderServiceDeps struct {
	Repository repositories.OrderRepository
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		repo:   deps.Repository,
		now:    func() time.Time { return deps.Clock().UTC() },
		logger: logger,
	}, nil
}

// ListOrders returns the user's orders newest first.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	if s == nil || s.repo == nil {
		return nil, ErrOrderUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return orders, nil
}

// GetOrder loads a single order, enforcing ownership.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (Order, error) {
	if s == nil || s.repo == nil {
		return Order{}, ErrOrderUnavailable
	}

	uid := strings.TrimSpace(userID)
	oid := strings.TrimSpace(orderID)
	if uid == "" || oid == "" {
		return Order{}, ErrOrderInvalidInput
	}

	order, err := s.repo.FindByID(ctx, uid, oid)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return order, nil
}

// AdvanceStatus moves the order one lifecycle stage forward.
func (s *orderService) AdvanceStatus(ctx context.Context, userID, orderID string) (Order, error) {
	if s == nil || s.repo == nil {
		return Order{}, ErrOrderUnavailable
	}

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}

	next, ok := order.Status.Next()
	if !ok {
		return Order{}, ErrOrderDelivered
	}

	order.Status = next
	order.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, order); err != nil {
		return Order{}, s.translateRepoError(err)
	}

	s.logger(ctx, "order.status_advanced", map[string]any{
		"orderID": order.ID,
		"status":  string(order.Status),
	})
	return order, nil
}

// TrackOrder derives the fulfilment timeline for the order.
func (s *orderService) TrackOrder(ctx context.Context, userID, orderID string) (OrderTracking, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return OrderTracking{}, err
	}
	return OrderTracking{Order: order, Steps: order.TrackingSteps()}, nil
}

func (s *orderService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return ErrOrderNotFound
	case isRepoConflict(err), isRepoUnavailable(err):
		return ErrOrderUnavailable
	default:
		return err
	}
}
