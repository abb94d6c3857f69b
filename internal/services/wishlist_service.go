package services

import (
	"context"
	"errors"
	"strings"

	"github.com/qfd-delivery/api/internal/repositories"
)

var (
	errWishlistRepositoryRequired = errors.New("wishlist service: repository is required")
	errWishlistCatalogRequired    = errors.New("wishlist service: catalog is required")
)

// ErrWishlistInvalidInput indicates the caller supplied invalid input.
var ErrWishlistInvalidInput = errors.New("wishlist service: invalid input")

// ErrWishlistUnavailable indicates the wishlist backend cannot serve the request.
var ErrWishlistUnavailable = errors.New("wishlist service: unavailable")

// ErrWishlistUnknownProduct indicates the product id is not in the catalog.
var ErrWishlistUnknownProduct = errors.New("wishlist service: unknown product")

// WishlistServiceDeps wires the wishlist repository and catalog lookup.
type WishlistServiceDeps struct {
	Repository repositories.WishlistRepository
	Catalog    repositories.CatalogRepository
	Logger     func(context.Context, string, map[string]any)
}

type wishlistService struct {
	repo    repositories.WishlistRepository
	catalog repositories.CatalogRepository
	logger  func(context.Context, string, map[string]any)
}

// NewWishlistService constructs a WishlistService enforcing dependency validation.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Repository == nil {
		return nil, errWishlistRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errWishlistCatalogRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &wishlistService{repo: deps.Repository, catalog: deps.Catalog, logger: logger}, nil
}

// List resolves the user's wishlisted ids against the catalog, preserving
// insertion order. Ids that have left the catalog are skipped.
func (s *wishlistService) List(ctx context.Context, userID string) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrWishlistUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrWishlistInvalidInput
	}

	ids, err := s.repo.List(ctx, uid)
	if err != nil {
		return nil, ErrWishlistUnavailable
	}

	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.catalog.GetProduct(ctx, id)
		if err != nil {
			if isRepoNotFound(err) {
				continue
			}
			return nil, ErrWishlistUnavailable
		}
		products = append(products, product)
	}
	return products, nil
}

// Toggle flips wishlist membership and reports the resulting state.
func (s *wishlistService) Toggle(ctx context.Context, cmd ToggleWishlistCommand) (WishlistToggleResult, error) {
	if s == nil || s.repo == nil {
		return WishlistToggleResult{}, ErrWishlistUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" || productID == "" {
		return WishlistToggleResult{}, ErrWishlistInvalidInput
	}

	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		if isRepoNotFound(err) {
			return WishlistToggleResult{}, ErrWishlistUnknownProduct
		}
		return WishlistToggleResult{}, ErrWishlistUnavailable
	}

	wishlisted, err := s.repo.Toggle(ctx, uid, productID)
	if err != nil {
		s.logger(ctx, "wishlist.toggle_failed", map[string]any{
			"userID":    uid,
			"productID": productID,
			"error":     err.Error(),
		})
		return WishlistToggleResult{}, ErrWishlistUnavailable
	}

	return WishlistToggleResult{ProductID: productID, Wishlisted: wishlisted}, nil
}
