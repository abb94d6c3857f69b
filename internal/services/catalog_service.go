package services

import (
	"context"
	"errors"
	"strings"

	"github.com/qfd-delivery/api/internal/repositories"
)

var errCatalogRepositoryRequired = errors.New("catalog service: repository is required")

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogUnavailable indicates the catalog backend cannot serve the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

// ErrProductNotFound indicates no catalog product matches the lookup.
var ErrProductNotFound = errors.New("catalog service: product not found")

// CatalogServiceDeps wires the catalog repository.
type CatalogServiceDeps struct {
	Repository repositories.CatalogRepository
	Logger     func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger func(context.Context, string, map[string]any)
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errCatalogRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{repo: deps.Repository, logger: logger}, nil
}

// ListProducts applies the filter; a non-empty query switches to name search.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}

	if query := strings.TrimSpace(filter.Query); query != "" {
		products, err := s.repo.SearchProducts(ctx, query)
		if err != nil {
			return nil, s.translateRepoError(err)
		}
		return products, nil
	}

	products, err := s.repo.ListProducts(ctx, filter.Category, filter.Pincode)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return products, nil
}

// GetProduct looks a product up by id.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if s == nil || s.repo == nil {
		return Product{}, ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, ErrCatalogInvalidInput
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	return product, nil
}

// MatchProduct resolves an item name to the first catalog product containing it.
func (s *catalogService) MatchProduct(ctx context.Context, term string) (Product, error) {
	if s == nil || s.repo == nil {
		return Product{}, ErrCatalogUnavailable
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return Product{}, ErrCatalogInvalidInput
	}

	product, err := s.repo.MatchProduct(ctx, term)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	return product, nil
}

// ListCategories returns the browse categories.
func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return categories, nil
}

// ListOffers returns the storefront slider offers.
func (s *catalogService) ListOffers(ctx context.Context) ([]Offer, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	offers, err := s.repo.ListOffers(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return offers, nil
}

// ListLanguages returns the supported UI languages.
func (s *catalogService) ListLanguages(ctx context.Context) ([]Language, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	languages, err := s.repo.ListLanguages(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return languages, nil
}

// ListDeliverySlots returns the informational delivery windows.
func (s *catalogService) ListDeliverySlots(ctx context.Context) ([]DeliverySlot, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	slots, err := s.repo.ListDeliverySlots(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return slots, nil
}

func (s *catalogService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return ErrProductNotFound
	case isRepoUnavailable(err):
		return ErrCatalogUnavailable
	default:
		return err
	}
}
