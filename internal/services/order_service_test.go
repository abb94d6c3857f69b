package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/qfd-delivery/api/internal/domain"
	"github.com/qfd-delivery/api/internal/repositories/memory"
)

func newTestOrderService(t *testing.T) (OrderService, *memory.OrderRepository) {
	t.Helper()
	repo := memory.NewOrderRepository()
	svc, err := NewOrderService(OrderServiceDeps{Repository: repo, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc, repo
}

func seedOrder(t *testing.T, repo *memory.OrderRepository, id, userID string, status domain.OrderStatus, placedAt time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), domain.Order{
		ID:       id,
		UserID:   userID,
		Status:   status,
		PlacedAt: placedAt,
	})
	if err != nil {
		t.Fatalf("seed order %s: %v", id, err)
	}
}

func TestOrderListNewestFirst(t *testing.T) {
	svc, repo := newTestOrderService(t)
	base := fixedClock()

	seedOrder(t, repo, "QFD-10001", "user-1", domain.OrderStatusPlaced, base)
	seedOrder(t, repo, "QFD-10002", "user-1", domain.OrderStatusPlaced, base.Add(time.Hour))

	orders, err := svc.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "QFD-10002" {
		t.Fatalf("unexpected ordering: %+v", orders)
	}
}

func TestOrderGetEnforcesOwnership(t *testing.T) {
	svc, repo := newTestOrderService(t)
	seedOrder(t, repo, "QFD-10001", "user-2", domain.OrderStatusPlaced, fixedClock())

	_, err := svc.GetOrder(context.Background(), "user-1", "QFD-10001")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestOrderAdvanceStatusForwardOnly(t *testing.T) {
	svc, repo := newTestOrderService(t)
	seedOrder(t, repo, "QFD-10001", "user-1", domain.OrderStatusPlaced, fixedClock())
	ctx := context.Background()

	want := []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusDelivered,
	}
	for _, status := range want {
		order, err := svc.AdvanceStatus(ctx, "user-1", "QFD-10001")
		if err != nil {
			t.Fatalf("AdvanceStatus to %s: %v", status, err)
		}
		if order.Status != status {
			t.Fatalf("status = %s, want %s", order.Status, status)
		}
	}

	if _, err := svc.AdvanceStatus(ctx, "user-1", "QFD-10001"); !errors.Is(err, ErrOrderDelivered) {
		t.Fatalf("expected ErrOrderDelivered past terminal status, got %v", err)
	}
}

func TestOrderTrackingPartitionsSteps(t *testing.T) {
	svc, repo := newTestOrderService(t)
	seedOrder(t, repo, "QFD-10001", "user-1", domain.OrderStatusOutForDelivery, fixedClock())

	tracking, err := svc.TrackOrder(context.Background(), "user-1", "QFD-10001")
	if err != nil {
		t.Fatalf("TrackOrder: %v", err)
	}
	if len(tracking.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(tracking.Steps))
	}

	var done, current, pending int
	for _, step := range tracking.Steps {
		switch step.State {
		case domain.TrackingStepDone:
			done++
		case domain.TrackingStepCurrent:
			current++
		case domain.TrackingStepPending:
			pending++
		}
	}
	if done != 3 || current != 1 || pending != 1 {
		t.Fatalf("step partition done=%d current=%d pending=%d", done, current, pending)
	}
	if tracking.Steps[3].State != domain.TrackingStepCurrent {
		t.Fatalf("Out for Delivery should be current, got %s", tracking.Steps[3].State)
	}
}
