package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/qfd-delivery/api/internal/assistant/live"
	"github.com/qfd-delivery/api/internal/handlers"
	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/platform/config"
	"github.com/qfd-delivery/api/internal/platform/genai"
	"github.com/qfd-delivery/api/internal/platform/requestctx"
	"github.com/qfd-delivery/api/internal/repositories"
	"github.com/qfd-delivery/api/internal/repositories/memory"
	"github.com/qfd-delivery/api/internal/services"
)

var errDialerNotConfigured = errors.New("di: live dialer not configured")

// Repositories bundles the persistence contracts the services depend on.
type Repositories struct {
	Catalog  repositories.CatalogRepository
	Carts    repositories.CartRepository
	Wishlist repositories.WishlistRepository
	Orders   repositories.OrderRepository
	Delivery repositories.DeliveryRepository
}

// NewMemoryRepositories returns the seeded in-memory stores used by the
// local runtime and tests.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Catalog:  memory.NewCatalogRepository(),
		Carts:    memory.NewCartRepository(),
		Wishlist: memory.NewWishlistRepository(),
		Orders:   memory.NewOrderRepository(),
		Delivery: memory.NewDeliveryRepository(),
	}
}

// Services bundles the service-layer contracts handlers rely upon.
type Services struct {
	Identity  services.IdentityService
	Catalog   services.CatalogService
	Carts     services.CartService
	Wishlist  services.WishlistService
	Pricing   services.PricingEngine
	Checkout  services.CheckoutService
	Orders    services.OrderService
	Assistant services.AssistantService
}

// ContainerDeps carries the external clients wired into the service graph.
// Repositories default to the in-memory stores; optional provider clients
// (identity, model) may be nil, degrading the matching surfaces.
type ContainerDeps struct {
	Config       config.Config
	Logger       *zap.Logger
	Repositories *Repositories

	Directory  services.AccountDirectory
	Passwords  *auth.PasswordClient
	HelpDesk   services.HelpDeskClient
	LiveDialer *genai.LiveDialer

	Clock func() time.Time
}

// Container wires repositories, services, and provider clients for runtime use.
type Container struct {
	Config       config.Config
	Repositories Repositories
	Services     Services

	liveDialer *genai.LiveDialer
}

// NewContainer assembles the service graph from the provided dependencies.
func NewContainer(deps ContainerDeps) (*Container, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	repos := NewMemoryRepositories()
	if deps.Repositories != nil {
		repos = *deps.Repositories
	}

	serviceLog := newServiceLogger(logger)

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Repository: repos.Catalog,
		Logger:     serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build catalog service: %w", err)
	}

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Repository: repos.Carts,
		Catalog:    repos.Catalog,
		Clock:      clock,
		Logger:     serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build cart service: %w", err)
	}

	wishlistSvc, err := services.NewWishlistService(services.WishlistServiceDeps{
		Repository: repos.Wishlist,
		Catalog:    repos.Catalog,
		Logger:     serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build wishlist service: %w", err)
	}

	pricingSvc, err := services.NewPricingEngine(services.PricingEngineDeps{
		Clock:  clock,
		Logger: serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build pricing engine: %w", err)
	}

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:    cartSvc,
		Orders:   repos.Orders,
		Delivery: repos.Delivery,
		Pricer:   pricingSvc,
		Clock:    clock,
		Logger:   serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build checkout service: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: repos.Orders,
		Clock:      clock,
		Logger:     serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build order service: %w", err)
	}

	assistantSvc, err := services.NewAssistantService(services.AssistantServiceDeps{
		HelpDesk:  deps.HelpDesk,
		Catalog:   catalogSvc,
		Carts:     cartSvc,
		Sanitizer: bluemonday.StrictPolicy(),
		Logger:    serviceLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build assistant service: %w", err)
	}

	svc := Services{
		Catalog:   catalogSvc,
		Carts:     cartSvc,
		Wishlist:  wishlistSvc,
		Pricing:   pricingSvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Assistant: assistantSvc,
	}

	if deps.Directory != nil {
		var passwords services.PasswordAuthenticator
		if deps.Passwords != nil {
			passwords = &passwordAuthenticator{client: deps.Passwords}
		}
		identitySvc, err := services.NewIdentityService(services.IdentityServiceDeps{
			Directory: deps.Directory,
			Passwords: passwords,
			Logger:    serviceLog,
		})
		if err != nil {
			return nil, fmt.Errorf("build identity service: %w", err)
		}
		svc.Identity = identitySvc
	}

	return &Container{
		Config:       deps.Config,
		Repositories: repos,
		Services:     svc,
		liveDialer:   deps.LiveDialer,
	}, nil
}

// LiveDialer exposes the model-side dialer for the live assistant handler, or
// nil when the model client is not configured.
func (c *Container) LiveDialer() handlers.LiveUpstreamDialer {
	if c == nil || c.liveDialer == nil {
		return nil
	}
	return &liveDialerAdapter{dialer: c.liveDialer}
}

// passwordAuthenticator adapts the Identity Toolkit client to the service
// contract.
type passwordAuthenticator struct {
	client *auth.PasswordClient
}

func (a *passwordAuthenticator) SignInWithPassword(ctx context.Context, email, password string) (services.PasswordSession, error) {
	session, err := a.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return services.PasswordSession{}, err
	}
	return services.PasswordSession{
		UID:          session.UID,
		Email:        session.Email,
		DisplayName:  session.DisplayName,
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}

type liveDialerAdapter struct {
	dialer *genai.LiveDialer
}

func (a *liveDialerAdapter) DialLive(ctx context.Context) (live.Upstream, error) {
	if a == nil || a.dialer == nil {
		return nil, errDialerNotConfigured
	}
	return a.dialer.Dial(ctx)
}

// newServiceLogger routes service-layer events through the request-scoped
// logger when one is present, falling back to the process logger.
func newServiceLogger(base *zap.Logger) func(context.Context, string, map[string]any) {
	return func(ctx context.Context, msg string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() {
			logger = base
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(msg, zapFields...)
	}
}
