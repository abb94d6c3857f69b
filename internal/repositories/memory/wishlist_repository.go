package memory

import (
	"context"
	"strings"
	"sync"
)

// WishlistRepository keeps per-user wishlists in process memory. Membership
// order is insertion order.
type WishlistRepository struct {
	mu    sync.Mutex
	lists map[string][]string
}

// NewWishlistRepository constructs an empty in-memory wishlist store.
func NewWishlistRepository() *WishlistRepository {
	return &WishlistRepository{lists: make(map[string][]string)}
}

// List returns the user's wishlisted product ids.
func (r *WishlistRepository) List(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lists[strings.TrimSpace(userID)]...), nil
}

// Toggle flips membership of productID and returns the resulting state.
func (r *WishlistRepository) Toggle(_ context.Context, userID, productID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return false, conflictError("wishlist.Toggle", "missing user or product id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.lists[userID]
	for i, id := range list {
		if id == productID {
			r.lists[userID] = append(list[:i:i], list[i+1:]...)
			return false, nil
		}
	}
	r.lists[userID] = append(list, productID)
	return true, nil
}
