package repositories

import (
	"context"

	"github.com/qfd-delivery/api/internal/domain"
)

// RepositoryError wraps store failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository serves the static product catalog.
type CatalogRepository interface {
	// ListProducts returns products filtered by category and pincode. An empty
	// or "all" category matches every product; an empty pincode matches every
	// pincode.
	ListProducts(ctx context.Context, category, pincode string) ([]domain.Product, error)
	// SearchProducts returns products whose name contains the query,
	// case-insensitively, preserving catalog order.
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	// GetProduct returns a single product. Missing ids yield IsNotFound.
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	// MatchProduct returns the first product whose name contains the term,
	// case-insensitively. Missing matches yield IsNotFound.
	MatchProduct(ctx context.Context, term string) (domain.Product, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListOffers(ctx context.Context) ([]domain.Offer, error)
	ListLanguages(ctx context.Context) ([]domain.Language, error)
	ListDeliverySlots(ctx context.Context) ([]domain.DeliverySlot, error)
}

// CartRepository persists per-user carts. Get on a user without a cart yields
// IsNotFound; services treat that as an empty cart.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// WishlistRepository persists per-user wishlist product ids in insertion order.
type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]string, error)
	// Toggle flips membership of productID and returns the resulting state.
	Toggle(ctx context.Context, userID, productID string) (bool, error)
}

// OrderRepository persists placed orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	// FindByID enforces ownership: an order belonging to another user yields
	// IsNotFound.
	FindByID(ctx context.Context, userID, orderID string) (domain.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// DeliveryRepository persists the synced delivery context per user.
type DeliveryRepository interface {
	Get(ctx context.Context, userID string) (domain.DeliveryContext, error)
	Save(ctx context.Context, dc domain.DeliveryContext) error
}
