package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/viewcache"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/square"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

const serviceName = "storefront-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Pub/Sub fan-out is optional; without a project only the local Redis views are purged.
	var views *viewcache.Cache
	if cfg.GCP.ProjectID != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		views, err = viewcache.New(redisClient, psClient, logg)
		requireResource(ctx, logg, "view cache", err)
	} else {
		logg.Warn(ctx, "pubsub disabled, view invalidations stay local")
		views, err = viewcache.New(redisClient, nil, logg)
		requireResource(ctx, logg, "view cache", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	gateway, err := buildGateway(ctx, cfg, logg, checkoutMetrics)
	requireResource(ctx, logg, "payment gateway", err)

	addressRepo := address.NewRepository(dbClient.DB())
	shippingRepo := shipping.NewRepository(dbClient.DB())

	addressValidator, err := address.NewValidator(addressRepo)
	requireResource(ctx, logg, "address validator", err)
	availability, err := product.NewAvailabilityValidator(product.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "product validator", err)
	resolver, err := shipping.NewResolver(shippingRepo)
	requireResource(ctx, logg, "shipping resolver", err)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Carts:     cart.NewRepository(dbClient.DB()),
		Addresses: addressValidator,
		Products:  availability,
		Shipping:  resolver,
		Gateway:   gateway,
		Views:     views,
		Counter:   redisClient,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	}, checkoutsvc.Options{
		Currency:         cfg.Checkout.Currency,
		AllowedCountries: cfg.Checkout.Countries(),
		AllowGuest:       cfg.Checkout.AllowGuest,
		BaseURL:          cfg.Checkout.BaseURL,
		DefaultLocale:    cfg.Checkout.DefaultLocale,
		Idempotency:      cfg.Checkout.Idempotency,
	})
	requireResource(ctx, logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"gateway":  cfg.Checkout.GatewayProvider(),
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			checkoutService,
			addressRepo,
			shippingRepo,
			views,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// buildGateway picks the configured provider and wraps it with the breaker and metrics.
func buildGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.CheckoutMetrics) (pkgcheckout.Gateway, error) {
	provider := cfg.Checkout.GatewayProvider()

	var (
		gateway pkgcheckout.Gateway
		env     string
	)
	switch provider {
	case config.GatewayStripe:
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		gateway, err = stripe.NewCheckoutGateway(client, logg)
		if err != nil {
			return nil, err
		}
		env = client.Environment()
	case config.GatewaySquare:
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, err
		}
		gateway, err = square.NewCheckoutGateway(client)
		if err != nil {
			return nil, err
		}
		env = client.Environment()
	default:
		return nil, fmt.Errorf("unsupported gateway %q", provider)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"gateway": provider, "gateway_env": env}), "payment gateway ready")
	gateway = checkoutsvc.WithCircuitBreaker(gateway, checkoutsvc.DefaultBreakerSettings(provider), logg)
	return checkoutsvc.InstrumentGateway(gateway, provider, m, logg), nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
