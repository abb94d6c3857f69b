package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/qfd-delivery/api/internal/di"
	"github.com/qfd-delivery/api/internal/handlers"
	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/platform/config"
	"github.com/qfd-delivery/api/internal/platform/genai"
	"github.com/qfd-delivery/api/internal/platform/observability"
	"github.com/qfd-delivery/api/internal/platform/secrets"
	"github.com/qfd-delivery/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	var passwordClient *auth.PasswordClient
	if strings.TrimSpace(cfg.Firebase.WebAPIKey) != "" {
		passwordClient, err = auth.NewPasswordClient(cfg.Firebase, auth.WithPasswordLogger(logger.Named("identity")))
		if err != nil {
			logger.Fatal("failed to initialise password client", zap.Error(err))
		}
	} else {
		logger.Warn("identity: web api key not configured; password sign-in disabled")
	}

	var helpDesk services.HelpDeskClient
	var liveDialer *genai.LiveDialer
	if strings.TrimSpace(cfg.GenAI.APIKey) != "" {
		client, err := genai.NewClient(cfg.GenAI, genai.WithClientLogger(logger.Named("genai")))
		if err != nil {
			logger.Fatal("failed to initialise genai client", zap.Error(err))
		}
		helpDesk = client

		liveDialer, err = genai.NewLiveDialer(cfg.GenAI, genai.WithLiveLogger(logger.Named("genai.live")))
		if err != nil {
			logger.Fatal("failed to initialise genai live dialer", zap.Error(err))
		}
	} else {
		logger.Warn("assistant: genai api key not configured; model surfaces degraded")
	}

	container, err := di.NewContainer(di.ContainerDeps{
		Config:     cfg,
		Logger:     logger,
		Directory:  firebaseVerifier,
		Passwords:  passwordClient,
		HelpDesk:   helpDesk,
		LiveDialer: liveDialer,
	})
	if err != nil {
		logger.Fatal("failed to assemble service container", zap.Error(err))
	}

	authHandlers := handlers.NewAuthHandlers(container.Services.Identity)
	catalogHandlers := handlers.NewCatalogHandlers(container.Services.Catalog)
	meHandlers := handlers.NewMeHandlers(
		authenticator,
		container.Services.Identity,
		container.Services.Carts,
		container.Services.Wishlist,
		container.Services.Checkout,
	)
	orderHandlers := handlers.NewOrderHandlers(authenticator, container.Services.Checkout, container.Services.Orders)
	assistantHandlers := handlers.NewAssistantHandlers(authenticator, container.Services.Assistant, container.LiveDialer())

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(envValues, cfg, startedAt)),
	)

	projectID := strings.TrimSpace(cfg.Firebase.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAssistantRoutes(assistantHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("qfd api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}
