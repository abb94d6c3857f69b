package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/qfd-delivery/api/internal/domain"
)

// DeliveryRepository keeps the synced delivery context per user in memory.
type DeliveryRepository struct {
	mu       sync.Mutex
	contexts map[string]domain.DeliveryContext
}

// NewDeliveryRepository constructs an empty in-memory delivery store.
func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{contexts: make(map[string]domain.DeliveryContext)}
}

// Get returns the stored delivery context for the user.
func (r *DeliveryRepository) Get(_ context.Context, userID string) (domain.DeliveryContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc, ok := r.contexts[strings.TrimSpace(userID)]
	if !ok {
		return domain.DeliveryContext{}, notFoundError("delivery.Get", "delivery context not found")
	}
	return dc, nil
}

// Save replaces the stored delivery context.
func (r *DeliveryRepository) Save(_ context.Context, dc domain.DeliveryContext) error {
	dc.UserID = strings.TrimSpace(dc.UserID)
	if dc.UserID == "" {
		return conflictError("delivery.Save", "missing user id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[dc.UserID] = dc
	return nil
}
