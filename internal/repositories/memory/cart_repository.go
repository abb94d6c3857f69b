package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/qfd-delivery/api/internal/domain"
)

// CartRepository keeps carts in process memory keyed by user id.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

// NewCartRepository constructs an empty in-memory cart store.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// Get returns a deep copy of the stored cart.
func (r *CartRepository) Get(_ context.Context, userID string) (domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, notFoundError("cart.Get", "cart not found")
	}
	return cloneCart(cart), nil
}

// Save replaces the stored cart with a deep copy of the argument.
func (r *CartRepository) Save(_ context.Context, cart domain.Cart) error {
	cart.UserID = strings.TrimSpace(cart.UserID)
	if cart.UserID == "" {
		return conflictError("cart.Save", "missing user id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = cloneCart(cart)
	return nil
}

// Delete drops the stored cart. Deleting a missing cart is a no-op.
func (r *CartRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, strings.TrimSpace(userID))
	return nil
}

func cloneCart(cart domain.Cart) domain.Cart {
	out := cart
	out.Items = append([]domain.CartItem(nil), cart.Items...)
	return out
}
