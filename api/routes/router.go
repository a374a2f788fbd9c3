package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/viewcache"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	checkoutService checkoutsvc.Service,
	addressRepo *address.Repository,
	shippingRepo *shipping.Repository,
	views *viewcache.Cache,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if origins := cfg.App.CORSOrigins; len(origins) > 0 {
		r.Use(middleware.CORS(origins))
	}

	// Nil pointers must not reach the interface parameters below as typed nils.
	var replays middleware.ReplayStore
	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		replays = redisClient
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/shipping-methods", controllers.CheckoutShippingMethods(shippingLister(shippingRepo), logg))
			r.With(middleware.Idempotency(replays, middleware.CheckoutReplayTTL, logg)).
				Post("/sessions", controllers.CheckoutCreateSession(checkoutService, logg))
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/addresses", controllers.AccountAddresses(addressLister(addressRepo), viewStore(views), logg))
		})
	})

	return r
}

func shippingLister(repo *shipping.Repository) controllers.ShippingMethodLister {
	if repo == nil {
		return nil
	}
	return repo
}

func addressLister(repo *address.Repository) controllers.AddressLister {
	if repo == nil {
		return nil
	}
	return repo
}

func viewStore(views *viewcache.Cache) controllers.ViewStore {
	if views == nil {
		return nil
	}
	return views
}
