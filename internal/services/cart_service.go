package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qfd-delivery/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart backend cannot serve the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartItemNotFound indicates the cart has no line for the product.
var ErrCartItemNotFound = errors.New("cart service: item not found")

// ErrCartUnknownProduct indicates the product id is not in the catalog.
var ErrCartUnknownProduct = errors.New("cart service: unknown product")

// CartServiceDeps wires the cart repository and catalog lookup.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Catalog    repositories.CatalogRepository
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo    repositories.CartRepository
	catalog repositories.CatalogRepository
	now     func() time.Time
	logger  func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:    deps.Repository,
		catalog: deps.Catalog,
		now:     func() time.Time { return deps.Clock().UTC() },
		logger:  logger,
	}, nil
}

// GetCart loads the user's cart; users without a cart get an empty one.
func (s *cartService) GetCart(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return Cart{UserID: uid, Items: []CartItem{}}, nil
		}
		return Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// AddItem adds one unit of the product, merging into an existing line.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" || productID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return Cart{}, ErrCartUnknownProduct
		}
		return Cart{}, s.translateRepoError(err)
	}

	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == product.ID {
			cart.Items[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}

	return s.save(ctx, cart)
}

// AdjustQuantity shifts the line quantity by Delta, never below one. Absent
// lines are left untouched.
func (s *cartService) AdjustQuantity(ctx context.Context, cmd AdjustCartItemCommand) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" || productID == "" || cmd.Delta == 0 {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		quantity := cart.Items[i].Quantity + cmd.Delta
		if quantity < 1 {
			quantity = 1
		}
		cart.Items[i].Quantity = quantity
		found = true
		break
	}
	if !found {
		return cart, nil
	}

	return s.save(ctx, cart)
}

// RemoveItem deletes the line for the product. Removing an absent line is a
// no-op.
func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" || productID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return cart, nil
	}
	cart.Items = items

	return s.save(ctx, cart)
}

// ClearCart empties the user's cart. Clearing an absent cart is a no-op.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}

	if err := s.repo.Delete(ctx, uid); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) save(ctx context.Context, cart Cart) (Cart, error) {
	cart.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger(ctx, "cart.save_failed", map[string]any{
			"userID": cart.UserID,
			"error":  err.Error(),
		})
		return Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

func (s *cartService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return ErrCartItemNotFound
	case isRepoConflict(err), isRepoUnavailable(err):
		return ErrCartUnavailable
	default:
		return err
	}
}
