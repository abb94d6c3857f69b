package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/qfd-delivery/api/internal/domain"
)

// OrderRepository keeps placed orders in process memory keyed by order id.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewOrderRepository constructs an empty in-memory order store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

// Insert stores a new order. Reusing an order id is a conflict.
func (r *OrderRepository) Insert(_ context.Context, order domain.Order) error {
	order.ID = strings.TrimSpace(order.ID)
	order.UserID = strings.TrimSpace(order.UserID)
	if order.ID == "" || order.UserID == "" {
		return conflictError("order.Insert", "missing order or user id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return conflictError("order.Insert", "order id already exists")
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// Update replaces a stored order. The order must already exist and belong to
// the same user.
func (r *OrderRepository) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return notFoundError("order.Update", "order not found")
	}
	if existing.UserID != order.UserID {
		return notFoundError("order.Update", "order not found")
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// FindByID returns the order when it exists and belongs to userID.
func (r *OrderRepository) FindByID(_ context.Context, userID, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[strings.TrimSpace(orderID)]
	if !ok || order.UserID != strings.TrimSpace(userID) {
		return domain.Order{}, notFoundError("order.FindByID", "order not found")
	}
	return cloneOrder(order), nil
}

// ListByUser returns the user's orders newest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out, nil
}

func cloneOrder(order domain.Order) domain.Order {
	out := order
	out.Items = append([]domain.CartItem(nil), order.Items...)
	return out
}
