package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/platform/httpx"
	"github.com/qfd-delivery/api/internal/services"
)

// MeHandlers exposes the authenticated per-user surface: profile, cart,
// wishlist, delivery location, and the live price quote.
type MeHandlers struct {
	authn    *auth.Authenticator
	identity services.IdentityService
	carts    services.CartService
	wishlist services.WishlistService
	checkout services.CheckoutService
}

const maxMeBodySize = 16 * 1024

// NewMeHandlers constructs handlers enforcing Firebase authentication before
// touching user state.
func NewMeHandlers(
	authn *auth.Authenticator,
	identity services.IdentityService,
	carts services.CartService,
	wishlist services.WishlistService,
	checkout services.CheckoutService,
) *MeHandlers {
	return &MeHandlers{
		authn:    authn,
		identity: identity,
		carts:    carts,
		wishlist: wishlist,
		checkout: checkout,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}

	r.Get("/", h.getProfile)

	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/items", h.addCartItem)
	r.Patch("/cart/items/{productID}", h.adjustCartItem)
	r.Delete("/cart/items/{productID}", h.removeCartItem)

	r.Get("/wishlist", h.listWishlist)
	r.Put("/wishlist/{productID}", h.toggleWishlist)

	r.Post("/location/sync", h.syncLocation)
	r.Get("/quote", h.quoteCart)
}

type cartPayload struct {
	UserID    string            `json:"userId"`
	Items     []cartItemPayload `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

type cartItemPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
}

type quotePayload struct {
	Subtotal       int64 `json:"subtotal"`
	DeliveryFee    int64 `json:"deliveryFee"`
	NightSurcharge int64 `json:"nightSurcharge"`
	Total          int64 `json:"total"`
}

type deliveryContextPayload struct {
	Address    string `json:"address"`
	DistanceKm int64  `json:"distanceKm"`
	Synced     bool   `json:"synced"`
	SyncedAt   string `json:"syncedAt,omitempty"`
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	// Prefer the directory record; fall back to token claims when the
	// directory cannot serve.
	if h.identity != nil {
		if profile, err := h.identity.GetProfile(ctx, identity.UID); err == nil {
			writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(profile)})
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"user": userPayload{
		UID:   identity.UID,
		Email: identity.Email,
		Name:  identity.Name,
	}})
}

func (h *MeHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	cart, err := h.carts.GetCart(ctx, identity.UID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *MeHandlers) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	var req addCartItemRequest
	if err := decodeJSONBody(r, maxMeBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		UserID:    identity.UID,
		ProductID: req.ProductID,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

type adjustCartItemRequest struct {
	Delta int64 `json:"delta"`
}

func (h *MeHandlers) adjustCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	var req adjustCartItemRequest
	if err := decodeJSONBody(r, maxMeBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.Delta == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "delta must be non-zero", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.AdjustQuantity(ctx, services.AdjustCartItemCommand{
		UserID:    identity.UID,
		ProductID: chi.URLParam(r, "productID"),
		Delta:     req.Delta,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

func (h *MeHandlers) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	cart, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		UserID:    identity.UID,
		ProductID: chi.URLParam(r, "productID"),
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

func (h *MeHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	if err := h.carts.ClearCart(ctx, identity.UID); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandlers) listWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.wishlist == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
		return
	}

	products, err := h.wishlist.List(ctx, identity.UID)
	if err != nil {
		h.writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func (h *MeHandlers) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.wishlist == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
		return
	}

	result, err := h.wishlist.Toggle(ctx, services.ToggleWishlistCommand{
		UserID:    identity.UID,
		ProductID: chi.URLParam(r, "productID"),
	})
	if err != nil {
		h.writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"productId":  result.ProductID,
		"wishlisted": result.Wishlisted,
	})
}

type syncLocationRequest struct {
	Address string `json:"address"`
}

func (h *MeHandlers) syncLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.checkout == nil {
		writeCheckoutUnavailable(ctx, w)
		return
	}

	// The address hint is optional; the resolver simulates the courier
	// distance either way.
	var req syncLocationRequest
	if err := decodeJSONBody(r, maxMeBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	delivery, err := h.checkout.SyncLocation(ctx, services.SyncLocationCommand{
		UserID:  identity.UID,
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"delivery": buildDeliveryContextPayload(delivery)})
}

func (h *MeHandlers) quoteCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.checkout == nil {
		writeCheckoutUnavailable(ctx, w)
		return
	}

	quote, err := h.checkout.QuoteCart(ctx, identity.UID)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"quote": buildQuotePayload(quote)})
}

func (h *MeHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartUnknownProduct):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "item is not in the cart", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		writeCartUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to update cart", http.StatusInternalServerError))
	}
}

func (h *MeHandlers) writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWishlistUnknownProduct):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrWishlistUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_error", "failed to update wishlist", http.StatusInternalServerError))
	}
}

func (h *MeHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		writeCheckoutUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout", http.StatusInternalServerError))
	}
}

func writeCartUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
}

func writeCheckoutUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
}

func buildCartPayload(cart services.Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return cartPayload{
		UserID:    cart.UserID,
		Items:     items,
		Subtotal:  cart.Subtotal(),
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}

func buildQuotePayload(quote services.PriceQuote) quotePayload {
	return quotePayload{
		Subtotal:       quote.Subtotal,
		DeliveryFee:    quote.DeliveryFee,
		NightSurcharge: quote.NightSurcharge,
		Total:          quote.Total,
	}
}

func buildDeliveryContextPayload(delivery services.DeliveryContext) deliveryContextPayload {
	return deliveryContextPayload{
		Address:    delivery.Address,
		DistanceKm: delivery.DistanceKm,
		Synced:     delivery.Synced,
		SyncedAt:   formatTime(delivery.SyncedAt),
	}
}
