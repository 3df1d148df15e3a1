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

	"github.com/forgecart/storefront/internal/engine"
	"github.com/forgecart/storefront/internal/handlers"
	"github.com/forgecart/storefront/internal/platform/auth"
	"github.com/forgecart/storefront/internal/platform/config"
	"github.com/forgecart/storefront/internal/platform/observability"
	"github.com/forgecart/storefront/internal/platform/secrets"
	"github.com/forgecart/storefront/internal/services"
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

	logger := baseLogger.Named("storefront")
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
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	catalog, err := config.LoadStoreCatalog(cfg.Stores.CatalogPath, cfg.Stores.DefaultStoreID)
	if err != nil {
		logger.Fatal("failed to load store catalog", zap.Error(err))
	}

	engineClient, err := engine.NewHTTPClient(engine.HTTPClientConfig{
		BaseURL:     cfg.Engine.BaseURL,
		APIKey:      cfg.Engine.APIKey,
		CallTimeout: cfg.Engine.CallTimeout,
	})
	if err != nil {
		logger.Fatal("failed to initialise engine client", zap.Error(err))
	}

	sessionLogger := logger.Named("session")
	sessionStore, err := services.NewSessionStore(services.SessionStoreDeps{
		Client:           engineClient,
		MaxStoreSessions: cfg.Session.MaxStoreSessions,
		Logger:           eventLogger(sessionLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise session store", zap.Error(err))
	}

	reconciler, err := services.NewReconciler(services.ReconcilerDeps{
		Customers: engineClient,
		Logger:    eventLogger(logger.Named("reconcile")),
	})
	if err != nil {
		logger.Fatal("failed to initialise auth reconciler", zap.Error(err))
	}

	cartLogger := logger.Named("cart")
	projector, err := services.NewProjector(services.ProjectorDeps{
		Client: engineClient,
		Logger: eventLogger(cartLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise basket projector", zap.Error(err))
	}

	totals, err := services.NewTotalsComputer(services.TotalsComputerDeps{
		Client: engineClient,
		Logger: eventLogger(cartLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise totals computer", zap.Error(err))
	}

	resolver, err := services.NewCatalogStoreResolver(catalog, cfg.Stores.Header)
	if err != nil {
		logger.Fatal("failed to initialise store resolver", zap.Error(err))
	}

	codec, err := auth.NewCodec(cfg.Auth.AssertionSecret, "storefront")
	if err != nil {
		logger.Fatal("failed to initialise identity codec", zap.Error(err))
	}

	pipeline, err := handlers.NewPipeline(handlers.PipelineDeps{
		Sessions:       sessionStore,
		Stores:         resolver,
		Reconciler:     reconciler,
		Logout:         services.NewLogoutRedirector(cfg.Server.SiteMount),
		SessionCookie:  cfg.Session.CookieName,
		IdentityCookie: cfg.Auth.AssertionCookie,
	})
	if err != nil {
		logger.Fatal("failed to initialise session pipeline", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		auth.AssertionMiddleware(codec, cfg.Auth.AssertionCookie),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(envValues, startedAt)),
		handlers.WithHealthReadyCheck("engine", func(ctx context.Context) error {
			_, err := engineClient.CustomerForID(ctx, catalog.Default().DefaultCustomerID)
			if errors.Is(err, engine.ErrCustomerNotFound) {
				return nil
			}
			return err
		}),
	)

	cartHandlers := handlers.NewCartHandlers(projector, totals)
	storeHandlers := handlers.NewStoreHandlers(catalog)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCartMiddlewares(pipeline.Middleware()),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithStoreRoutes(storeHandlers.Routes),
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
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// eventLogger adapts a zap logger to the event/fields callback the services
// accept.
func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func buildInfoFromEnv(env map[string]string, started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(env["STOREFRONT_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["STOREFRONT_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(env["STOREFRONT_ENVIRONMENT"])
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

func requiredSecretNames(env map[string]string) []string {
	required := []string{"Auth.AssertionSecret"}
	if ref := strings.TrimSpace(env["STOREFRONT_ENGINE_API_KEY"]); strings.HasPrefix(ref, "secret://") || strings.HasPrefix(ref, "sm://") {
		required = append(required, "Engine.APIKey")
	}
	return required
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
	}
	if project := lookup("STOREFRONT_SECRET_PROJECT_ID"); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	}
	if fallback := lookup("STOREFRONT_SECRET_FALLBACK_FILE"); fallback != "" {
		opts = append(opts, secrets.WithFallbackFile(fallback))
	}
	if credentials := lookup("STOREFRONT_SECRET_CREDENTIALS_FILE"); credentials != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentials)))
	}

	return secrets.NewFetcher(ctx, opts...)
}
