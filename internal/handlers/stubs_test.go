package handlers

import (
	"context"

	"github.com/qfd-delivery/api/internal/services"
)

type stubIdentityService struct {
	registerFunc   func(ctx context.Context, cmd services.RegisterCommand) (services.UserProfile, error)
	signInFunc     func(ctx context.Context, cmd services.SignInCommand) (services.Session, error)
	getProfileFunc func(ctx context.Context, uid string) (services.UserProfile, error)
}

func (s *stubIdentityService) Register(ctx context.Context, cmd services.RegisterCommand) (services.UserProfile, error) {
	if s.registerFunc == nil {
		return services.UserProfile{}, nil
	}
	return s.registerFunc(ctx, cmd)
}

func (s *stubIdentityService) SignIn(ctx context.Context, cmd services.SignInCommand) (services.Session, error) {
	if s.signInFunc == nil {
		return services.Session{}, nil
	}
	return s.signInFunc(ctx, cmd)
}

func (s *stubIdentityService) GetProfile(ctx context.Context, uid string) (services.UserProfile, error) {
	if s.getProfileFunc == nil {
		return services.UserProfile{}, services.ErrIdentityUnavailable
	}
	return s.getProfileFunc(ctx, uid)
}

type stubCatalogService struct {
	listProductsFunc  func(ctx context.Context, filter services.ProductFilter) ([]services.Product, error)
	getProductFunc    func(ctx context.Context, productID string) (services.Product, error)
	matchProductFunc  func(ctx context.Context, term string) (services.Product, error)
	listCategories    func(ctx context.Context) ([]services.Category, error)
	listOffers        func(ctx context.Context) ([]services.Offer, error)
	listLanguages     func(ctx context.Context) ([]services.Language, error)
	listDeliverySlots func(ctx context.Context) ([]services.DeliverySlot, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductFilter) ([]services.Product, error) {
	if s.listProductsFunc == nil {
		return nil, nil
	}
	return s.listProductsFunc(ctx, filter)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	if s.getProductFunc == nil {
		return services.Product{}, services.ErrProductNotFound
	}
	return s.getProductFunc(ctx, productID)
}

func (s *stubCatalogService) MatchProduct(ctx context.Context, term string) (services.Product, error) {
	if s.matchProductFunc == nil {
		return services.Product{}, services.ErrProductNotFound
	}
	return s.matchProductFunc(ctx, term)
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]services.Category, error) {
	if s.listCategories == nil {
		return nil, nil
	}
	return s.listCategories(ctx)
}

func (s *stubCatalogService) ListOffers(ctx context.Context) ([]services.Offer, error) {
	if s.listOffers == nil {
		return nil, nil
	}
	return s.listOffers(ctx)
}

func (s *stubCatalogService) ListLanguages(ctx context.Context) ([]services.Language, error) {
	if s.listLanguages == nil {
		return nil, nil
	}
	return s.listLanguages(ctx)
}

func (s *stubCatalogService) ListDeliverySlots(ctx context.Context) ([]services.DeliverySlot, error) {
	if s.listDeliverySlots == nil {
		return nil, nil
	}
	return s.listDeliverySlots(ctx)
}

type stubCartService struct {
	getCartFunc    func(ctx context.Context, userID string) (services.Cart, error)
	addItemFunc    func(ctx context.Context, cmd services.AddCartItemCommand) (services.Cart, error)
	adjustFunc     func(ctx context.Context, cmd services.AdjustCartItemCommand) (services.Cart, error)
	removeItemFunc func(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error)
	clearCartFunc  func(ctx context.Context, userID string) error
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (services.Cart, error) {
	if s.getCartFunc == nil {
		return services.Cart{}, nil
	}
	return s.getCartFunc(ctx, userID)
}

func (s *stubCartService) AddItem(ctx context.Context, cmd services.AddCartItemCommand) (services.Cart, error) {
	if s.addItemFunc == nil {
		return services.Cart{}, nil
	}
	return s.addItemFunc(ctx, cmd)
}

func (s *stubCartService) AdjustQuantity(ctx context.Context, cmd services.AdjustCartItemCommand) (services.Cart, error) {
	if s.adjustFunc == nil {
		return services.Cart{}, nil
	}
	return s.adjustFunc(ctx, cmd)
}

func (s *stubCartService) RemoveItem(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error) {
	if s.removeItemFunc == nil {
		return services.Cart{}, nil
	}
	return s.removeItemFunc(ctx, cmd)
}

func (s *stubCartService) ClearCart(ctx context.Context, userID string) error {
	if s.clearCartFunc == nil {
		return nil
	}
	return s.clearCartFunc(ctx, userID)
}

type stubWishlistService struct {
	listFunc   func(ctx context.Context, userID string) ([]services.Product, error)
	toggleFunc func(ctx context.Context, cmd services.ToggleWishlistCommand) (services.WishlistToggleResult, error)
}

func (s *stubWishlistService) List(ctx context.Context, userID string) ([]services.Product, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx, userID)
}

func (s *stubWishlistService) Toggle(ctx context.Context, cmd services.ToggleWishlistCommand) (services.WishlistToggleResult, error) {
	if s.toggleFunc == nil {
		return services.WishlistToggleResult{}, nil
	}
	return s.toggleFunc(ctx, cmd)
}

type stubCheckoutService struct {
	syncLocationFunc func(ctx context.Context, cmd services.SyncLocationCommand) (services.DeliveryContext, error)
	quoteCartFunc    func(ctx context.Context, userID string) (services.PriceQuote, error)
	placeOrderFunc   func(ctx context.Context, cmd services.PlaceOrderCommand) (services.Order, error)
}

func (s *stubCheckoutService) SyncLocation(ctx context.Context, cmd services.SyncLocationCommand) (services.DeliveryContext, error) {
	if s.syncLocationFunc == nil {
		return services.DeliveryContext{}, nil
	}
	return s.syncLocationFunc(ctx, cmd)
}

func (s *stubCheckoutService) QuoteCart(ctx context.Context, userID string) (services.PriceQuote, error) {
	if s.quoteCartFunc == nil {
		return services.PriceQuote{}, nil
	}
	return s.quoteCartFunc(ctx, userID)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (services.Order, error) {
	if s.placeOrderFunc == nil {
		return services.Order{}, nil
	}
	return s.placeOrderFunc(ctx, cmd)
}

type stubOrderService struct {
	listOrdersFunc func(ctx context.Context, userID string) ([]services.Order, error)
	getOrderFunc   func(ctx context.Context, userID, orderID string) (services.Order, error)
	advanceFunc    func(ctx context.Context, userID, orderID string) (services.Order, error)
	trackOrderFunc func(ctx context.Context, userID, orderID string) (services.OrderTracking, error)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string) ([]services.Order, error) {
	if s.listOrdersFunc == nil {
		return nil, nil
	}
	return s.listOrdersFunc(ctx, userID)
}

func (s *stubOrderService) GetOrder(ctx context.Context, userID, orderID string) (services.Order, error) {
	if s.getOrderFunc == nil {
		return services.Order{}, services.ErrOrderNotFound
	}
	return s.getOrderFunc(ctx, userID, orderID)
}

func (s *stubOrderService) AdvanceStatus(ctx context.Context, userID, orderID string) (services.Order, error) {
	if s.advanceFunc == nil {
		return services.Order{}, services.ErrOrderNotFound
	}
	return s.advanceFunc(ctx, userID, orderID)
}

func (s *stubOrderService) TrackOrder(ctx context.Context, userID, orderID string) (services.OrderTracking, error) {
	if s.trackOrderFunc == nil {
		return services.OrderTracking{}, services.ErrOrderNotFound
	}
	return s.trackOrderFunc(ctx, userID, orderID)
}

type stubAssistantService struct {
	askFunc         func(ctx context.Context, cmd services.AskAssistantCommand) (services.AssistantReply, error)
	resolveToolFunc func(ctx context.Context, cmd services.AssistantToolCallCommand) (services.AssistantToolResult, error)
}

func (s *stubAssistantService) Ask(ctx context.Context, cmd services.AskAssistantCommand) (services.AssistantReply, error) {
	if s.askFunc == nil {
		return services.AssistantReply{}, nil
	}
	return s.askFunc(ctx, cmd)
}

func (s *stubAssistantService) ResolveToolCall(ctx context.Context, cmd services.AssistantToolCallCommand) (services.AssistantToolResult, error) {
	if s.resolveToolFunc == nil {
		return services.AssistantToolResult{}, nil
	}
	return s.resolveToolFunc(ctx, cmd)
}
