package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/services"
)

func TestCatalogHandlersListProductsForwardsFilter(t *testing.T) {
	service := &stubCatalogService{
		listProductsFunc: func(ctx context.Context, filter services.ProductFilter) ([]services.Product, error) {
			if filter.Category != "snacks" || filter.Pincode != "416008" || filter.Query != "burgir" {
				t.Fatalf("unexpected filter %#v", filter)
			}
			return []services.Product{
				{ID: "prod-1", Name: "Burgir Supreme", Price: 99, Category: "snacks", ShopName: "Burgir House", Pincode: "416008"},
			}, nil
		},
	}

	handler := NewCatalogHandlers(service)
	router := chi.NewRouter()
	router.Route("/catalog", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products?category=snacks&pincode=416008&q=burgir", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(resp.Products))
	}
	if resp.Products[0].ID != "prod-1" || resp.Products[0].Price != 99 {
		t.Fatalf("unexpected product payload %#v", resp.Products[0])
	}
}

func TestCatalogHandlersGetProductNotFound(t *testing.T) {
	service := &stubCatalogService{
		getProductFunc: func(ctx context.Context, productID string) (services.Product, error) {
			return services.Product{}, services.ErrProductNotFound
		},
	}

	handler := NewCatalogHandlers(service)
	router := chi.NewRouter()
	router.Route("/catalog", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("expected product_not_found error, got %v", body["error"])
	}
}

func TestCatalogHandlersGetProductSuccess(t *testing.T) {
	service := &stubCatalogService{
		getProductFunc: func(ctx context.Context, productID string) (services.Product, error) {
			if productID != "prod-7" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return services.Product{ID: "prod-7", Name: "Milk", Price: 30, Category: "grocery"}, nil
		},
	}

	handler := NewCatalogHandlers(service)
	router := chi.NewRouter()
	router.Route("/catalog", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/prod-7", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp struct {
		Product productPayload `json:"product"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Product.Name != "Milk" {
		t.Fatalf("unexpected product payload %#v", resp.Product)
	}
}

func TestCatalogHandlersListCategories(t *testing.T) {
	service := &stubCatalogService{
		listCategories: func(ctx context.Context) ([]services.Category, error) {
			return []services.Category{
				{ID: "all", Label: "All"},
				{ID: "snacks", Label: "Snacks"},
			}, nil
		},
	}

	handler := NewCatalogHandlers(service)
	router := chi.NewRouter()
	router.Route("/catalog", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/catalog/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp struct {
		Categories []map[string]any `json:"categories"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(resp.Categories))
	}
	if resp.Categories[0]["id"] != "all" {
		t.Fatalf("expected all category first, got %v", resp.Categories[0])
	}
}

func TestCatalogHandlersListDeliverySlots(t *testing.T) {
	service := &stubCatalogService{
		listDeliverySlots: func(ctx context.Context) ([]services.DeliverySlot, error) {
			return []services.DeliverySlot{
				{ID: "morning", Label: "Morning", Window: "7 AM - 10 AM"},
				{ID: "evening", Label: "Evening", Window: "4 PM - 7 PM"},
			}, nil
		},
	}

	handler := NewCatalogHandlers(service)
	router := chi.NewRouter()
	router.Route("/catalog", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/catalog/delivery-slots", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp struct {
		DeliverySlots []map[string]any `json:"deliverySlots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.DeliverySlots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(resp.DeliverySlots))
	}
}

func TestCatalogHandlersServiceUnavailable(t *testing.T) {
	handler := NewCatalogHandlers(nil)
	req := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
	rr := httptest.NewRecorder()
	handler.listProducts(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
