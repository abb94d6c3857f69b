package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/platform/httpx"
	"github.com/qfd-delivery/api/internal/services"
)

// CatalogHandlers exposes the public storefront dataset.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs handlers over the catalog service.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/offers", h.listOffers)
	r.Get("/languages", h.listLanguages)
	r.Get("/delivery-slots", h.listDeliverySlots)
}

type productPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	ImageURL string `json:"imageUrl,omitempty"`
	ShopName string `json:"shopName,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	query := r.URL.Query()
	filter := services.ProductFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Pincode:  strings.TrimSpace(query.Get("pincode")),
		Query:    strings.TrimSpace(query.Get("q")),
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]map[string]any, 0, len(categories))
	for _, category := range categories {
		payload = append(payload, map[string]any{
			"id":       category.ID,
			"label":    category.Label,
			"imageUrl": category.ImageURL,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *CatalogHandlers) listOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	offers, err := h.catalog.ListOffers(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]map[string]any, 0, len(offers))
	for _, offer := range offers {
		payload = append(payload, map[string]any{
			"id":    offer.ID,
			"text":  offer.Text,
			"theme": offer.Theme,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"offers": payload})
}

func (h *CatalogHandlers) listLanguages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	languages, err := h.catalog.ListLanguages(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]map[string]any, 0, len(languages))
	for _, language := range languages {
		payload = append(payload, map[string]any{
			"code":  language.Code,
			"label": language.Label,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"languages": payload})
}

func (h *CatalogHandlers) listDeliverySlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	slots, err := h.catalog.ListDeliverySlots(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]map[string]any, 0, len(slots))
	for _, slot := range slots {
		payload = append(payload, map[string]any{
			"id":     slot.ID,
			"label":  slot.Label,
			"window": slot.Window,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"deliverySlots": payload})
}

func (h *CatalogHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogUnavailable):
		writeCatalogUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalog", http.StatusInternalServerError))
	}
}

func writeCatalogUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
}

func buildProductPayloads(products []services.Product) []productPayload {
	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	return payload
}

func buildProductPayload(product services.Product) productPayload {
	return productPayload{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		ImageURL: product.ImageURL,
		ShopName: product.ShopName,
		Pincode:  product.Pincode,
	}
}
