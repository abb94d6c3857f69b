package services

import (
	"context"
	"time"

	domain "github.com/qfd-delivery/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product         = domain.Product
	Category        = domain.Category
	Offer           = domain.Offer
	Language        = domain.Language
	DeliverySlot    = domain.DeliverySlot
	Cart            = domain.Cart
	CartItem        = domain.CartItem
	PriceQuote      = domain.PriceQuote
	DeliveryContext = domain.DeliveryContext
	PaymentMode     = domain.PaymentMode
	Order           = domain.Order
	OrderStatus     = domain.OrderStatus
	TrackingStep    = domain.TrackingStep
	UserProfile     = domain.UserProfile
	AssistantReply  = domain.AssistantReply
)

// ProductFilter narrows catalog listings. Query takes precedence over the
// category/pincode pair when set.
type ProductFilter struct {
	Category string
	Pincode  string
	Query    string
}

// CatalogService serves the static storefront dataset.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	// MatchProduct resolves a spoken or typed item name to the first catalog
	// product containing it, case-insensitively.
	MatchProduct(ctx context.Context, term string) (Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListOffers(ctx context.Context) ([]Offer, error)
	ListLanguages(ctx context.Context) ([]Language, error)
	ListDeliverySlots(ctx context.Context) ([]DeliverySlot, error)
}

// AddCartItemCommand adds one unit of a product to the user's cart.
type AddCartItemCommand struct {
	UserID    string
	ProductID string
}

// AdjustCartItemCommand shifts a line quantity by Delta, clamped at one.
type AdjustCartItemCommand struct {
	UserID    string
	ProductID string
	Delta     int64
}

// RemoveCartItemCommand removes a line outright.
type RemoveCartItemCommand struct {
	UserID    string
	ProductID string
}

// CartService manages the per-user cart ledger.
type CartService interface {
	GetCart(ctx context.Context, userID string) (Cart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error)
	AdjustQuantity(ctx context.Context, cmd AdjustCartItemCommand) (Cart, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// ToggleWishlistCommand flips wishlist membership for a product.
type ToggleWishlistCommand struct {
	UserID    string
	ProductID string
}

// WishlistToggleResult reports the membership state after a toggle.
type WishlistToggleResult struct {
	ProductID  string
	Wishlisted bool
}

// WishlistService manages the per-user wishlist set.
type WishlistService interface {
	List(ctx context.Context, userID string) ([]Product, error)
	Toggle(ctx context.Context, cmd ToggleWishlistCommand) (WishlistToggleResult, error)
}

// PriceQuoteCommand carries the inputs of a delivery quote. A zero At falls
// back to the engine clock.
type PriceQuoteCommand struct {
	Subtotal   int64
	DistanceKm int64
	At         time.Time
}

// PricingEngine produces delivery price breakdowns.
type PricingEngine interface {
	Quote(ctx context.Context, cmd PriceQuoteCommand) (PriceQuote, error)
}

// SyncLocationCommand resolves the courier distance for a user's address.
type SyncLocationCommand struct {
	UserID  string
	Address string
}

// PlaceOrderCommand submits the user's cart as an order.
type PlaceOrderCommand struct {
	UserID      string
	PaymentMode PaymentMode
}

// CheckoutService guards and executes order placement.
type CheckoutService interface {
	SyncLocation(ctx context.Context, cmd SyncLocationCommand) (DeliveryContext, error)
	// QuoteCart prices the current cart against the synced delivery context.
	QuoteCart(ctx context.Context, userID string) (PriceQuote, error)
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error)
}

// OrderTracking pairs an order with its derived timeline.
type OrderTracking struct {
	Order Order
	Steps []TrackingStep
}

// OrderService exposes the order ledger and its status lifecycle.
type OrderService interface {
	ListOrders(ctx context.Context, userID string) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (Order, error)
	// AdvanceStatus moves the order one stage forward. Delivered orders
	// conflict.
	AdvanceStatus(ctx context.Context, userID, orderID string) (Order, error)
	TrackOrder(ctx context.Context, userID, orderID string) (OrderTracking, error)
}

// AskAssistantCommand carries one help-desk question.
type AskAssistantCommand struct {
	UserID   string
	Question string
}

// AssistantToolCallCommand is a tool invocation emitted by the live model.
type AssistantToolCallCommand struct {
	UserID   string
	CallID   string
	Name     string
	ItemName string
}

// AssistantToolResult is the response sent back for a tool call, tagged with
// the originating call id.
type AssistantToolResult struct {
	CallID  string
	Message string
	Added   bool
}

// AssistantService answers help-desk questions and resolves live tool calls.
type AssistantService interface {
	Ask(ctx context.Context, cmd AskAssistantCommand) (AssistantReply, error)
	ResolveToolCall(ctx context.Context, cmd AssistantToolCallCommand) (AssistantToolResult, error)
}

// RegisterCommand creates a new account with the identity provider.
type RegisterCommand struct {
	Email    string
	Password string
	Name     string
}

// SignInCommand exchanges credentials for a session.
type SignInCommand struct {
	Email    string
	Password string
}

// Session is the token bundle returned after a successful sign-in.
type Session struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
	Profile      UserProfile
}

// IdentityService fronts the Firebase identity provider.
type IdentityService interface {
	Register(ctx context.Context, cmd RegisterCommand) (UserProfile, error)
	SignIn(ctx context.Context, cmd SignInCommand) (Session, error)
	GetProfile(ctx context.Context, uid string) (UserProfile, error)
}
