package memory

import (
	"context"
	"strings"

	"github.com/qfd-delivery/api/internal/domain"
)

// CatalogRepository serves the static QFD catalog. The dataset is fixed at
// construction; all reads return copies so callers cannot mutate it.
type CatalogRepository struct {
	products   []domain.Product
	categories []domain.Category
	offers     []domain.Offer
	languages  []domain.Language
	slots      []domain.DeliverySlot
}

// NewCatalogRepository seeds the repository with the launch dataset.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products:   seedProducts(),
		categories: seedCategories(),
		offers:     seedOffers(),
		languages:  seedLanguages(),
		slots:      seedDeliverySlots(),
	}
}

// ListProducts filters by category and pincode, preserving catalog order.
func (r *CatalogRepository) ListProducts(_ context.Context, category, pincode string) ([]domain.Product, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	pincode = strings.TrimSpace(pincode)

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if category != "" && category != "all" && p.Category != category {
			continue
		}
		if pincode != "" && p.Pincode != pincode {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// SearchProducts matches the query as a case-insensitive substring of names.
func (r *CatalogRepository) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []domain.Product{}, nil
	}

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProduct looks a product up by id.
func (r *CatalogRepository) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	for _, p := range r.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return domain.Product{}, notFoundError("catalog.GetProduct", "product not found")
}

// MatchProduct returns the first product whose name contains term.
func (r *CatalogRepository) MatchProduct(_ context.Context, term string) (domain.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return domain.Product{}, notFoundError("catalog.MatchProduct", "empty term")
	}
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			return p, nil
		}
	}
	return domain.Product{}, notFoundError("catalog.MatchProduct", "no product matches term")
}

// ListCategories returns the browse categories.
func (r *CatalogRepository) ListCategories(_ context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), r.categories...), nil
}

// ListOffers returns the storefront slider offers.
func (r *CatalogRepository) ListOffers(_ context.Context) ([]domain.Offer, error) {
	return append([]domain.Offer(nil), r.offers...), nil
}

// ListLanguages returns the supported UI languages.
func (r *CatalogRepository) ListLanguages(_ context.Context) ([]domain.Language, error) {
	return append([]domain.Language(nil), r.languages...), nil
}

// ListDeliverySlots returns the informational delivery windows.
func (r *CatalogRepository) ListDeliverySlots(_ context.Context) ([]domain.DeliverySlot, error) {
	return append([]domain.DeliverySlot(nil), r.slots...), nil
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Burgir Supreme", Price: 120, Category: "fastfood", ImageURL: "https://picsum.photos/seed/burger/400/400", Pincode: "800001", ShopName: "Patna Fast Center"},
		{ID: "2", Name: "Sudha Milk 1L", Price: 60, Category: "sudha", ImageURL: "https://picsum.photos/seed/milk/400/400", Pincode: "800001", ShopName: "Daily Dairy"},
		{ID: "3", Name: "Fresh Apples 1kg", Price: 180, Category: "fruit", ImageURL: "https://picsum.photos/seed/apple/400/400", Pincode: "800001", ShopName: "Green Farm"},
		{ID: "4", Name: "Masala Dosa", Price: 90, Category: "fastfood", ImageURL: "https://picsum.photos/seed/dosa/400/400", Pincode: "800001", ShopName: "South Indian Hub"},
		{ID: "5", Name: "Mixed Veggies", Price: 50, Category: "vegitable", ImageURL: "https://picsum.photos/seed/veg/400/400", Pincode: "800001", ShopName: "Sabzi Mandi"},
		{ID: "6", Name: "Dark Chocolate", Price: 150, Category: "treats", ImageURL: "https://picsum.photos/seed/choc/400/400", Pincode: "800001", ShopName: "Sweet Tooth"},
	}
}

func seedCategories() []domain.Category {
	return []domain.Category{
		{ID: "all", Label: "All"},
		{ID: "fastfood", Label: "Fast Food"},
		{ID: "sudha", Label: "Sudha"},
		{ID: "bevegreg", Label: "Beverage"},
		{ID: "vegitable", Label: "Vegetable"},
		{ID: "treats", Label: "Treats"},
		{ID: "fruit", Label: "Fruits"},
	}
}

func seedOffers() []domain.Offer {
	return []domain.Offer{
		{ID: "1", Text: "50% OFF on Fast Food!", Theme: "red"},
		{ID: "2", Text: "Free Delivery for first 5 orders!", Theme: "blue"},
		{ID: "3", Text: "Sudha Milk - Morning Slot Available!", Theme: "green"},
	}
}

func seedLanguages() []domain.Language {
	return []domain.Language{
		{Code: "english", Label: "English"},
		{Code: "hindi", Label: "Hindi"},
		{Code: "mathali", Label: "Mathali"},
		{Code: "bhojpuri", Label: "Bhojpuri"},
		{Code: "malyalam", Label: "Malyalam"},
		{Code: "urdu", Label: "Urdu"},
		{Code: "bangali", Label: "Bangali"},
		{Code: "marathi", Label: "Marathi"},
	}
}

func seedDeliverySlots() []domain.DeliverySlot {
	return []domain.DeliverySlot{
		{ID: "morning", Label: "Morning Slot", Window: "07:00 AM - 10:00 AM"},
		{ID: "evening", Label: "Evening Slot", Window: "04:00 PM - 07:00 PM"},
	}
}
