package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saiembroidery/storefront-backend/api/controllers"
	"github.com/saiembroidery/storefront-backend/api/middleware"
	addresssvc "github.com/saiembroidery/storefront-backend/internal/address"
	"github.com/saiembroidery/storefront-backend/internal/cart"
	"github.com/saiembroidery/storefront-backend/internal/catalog"
	checkoutsvc "github.com/saiembroidery/storefront-backend/internal/checkout"
	orderssvc "github.com/saiembroidery/storefront-backend/internal/orders"
	"github.com/saiembroidery/storefront-backend/pkg/config"
	"github.com/saiembroidery/storefront-backend/pkg/db"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
	"github.com/saiembroidery/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	cartManager *cart.Manager,
	addressService addresssvc.Service,
	ordersService orderssvc.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// the catalog is browsable without signing in
	r.Route("/api/v1/designs", func(r chi.Router) {
		r.Get("/", controllers.ListDesigns(catalogService, logg))
		r.Get("/{designID}", controllers.GetDesign(catalogService, logg))
	})

	// interface values built from a concrete nil would dodge the nil
	// checks downstream
	var sessionStore middleware.SessionStore
	var sessionRevoker controllers.SessionRevoker
	if redisClient != nil {
		sessionStore = redisClient
		sessionRevoker = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionStore, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartManager, logg))
			r.Delete("/", controllers.ClearCart(cartManager, logg))
			r.Post("/items", controllers.AddCartItem(cartManager, logg))
			r.Patch("/items/{lineID}", controllers.UpdateCartItem(cartManager, logg))
			r.Delete("/items/{lineID}", controllers.RemoveCartItem(cartManager, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", controllers.CreateAddress(addressService, logg))
			r.Get("/", controllers.ListAddresses(addressService, logg))
			r.Get("/{addressID}", controllers.GetAddress(addressService, logg))
			r.Put("/{addressID}", controllers.UpdateAddress(addressService, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(addressService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.BeginCheckout(checkoutService, logg))
			r.Post("/complete", controllers.CompleteCheckout(checkoutService, logg))
			r.Post("/dismiss", controllers.DismissCheckout(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			// fulfilment state is driven from the back office, not by shoppers
			r.With(middleware.RequireOperator(logg)).
				Post("/{orderID}/work-status", controllers.MarkOrderWorkStatus(ordersService, logg))
		})

		r.Post("/auth/sign-out", controllers.SignOut(cartManager, sessionRevoker, logg))
	})

	return r
}
