package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saiembroidery/storefront-backend/api/routes"
	addresssvc "github.com/saiembroidery/storefront-backend/internal/address"
	"github.com/saiembroidery/storefront-backend/internal/cart"
	"github.com/saiembroidery/storefront-backend/internal/catalog"
	checkoutsvc "github.com/saiembroidery/storefront-backend/internal/checkout"
	orderssvc "github.com/saiembroidery/storefront-backend/internal/orders"
	"github.com/saiembroidery/storefront-backend/pkg/config"
	"github.com/saiembroidery/storefront-backend/pkg/db"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
	"github.com/saiembroidery/storefront-backend/pkg/metrics"
	"github.com/saiembroidery/storefront-backend/pkg/migrate"
	"github.com/saiembroidery/storefront-backend/pkg/razorpay"
	"github.com/saiembroidery/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var gatewayOpts []razorpay.Option
	if cfg.Razorpay.BaseURL != "" {
		gatewayOpts = append(gatewayOpts, razorpay.WithBaseURL(cfg.Razorpay.BaseURL))
	}
	gatewayClient, err := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, gatewayOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewDesignRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartManager, err := cart.NewManager(cart.NewLineRepository(dbClient.DB()), catalogService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart manager", err)
		os.Exit(1)
	}

	addressService, err := addresssvc.NewService(addresssvc.NewAddressRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(orderssvc.NewOrderRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	orderIDGenerator, err := orderssvc.NewGenerator(ordersService)
	if err != nil {
		logg.Error(context.Background(), "failed to create order id generator", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		cartManager,
		addressService,
		ordersService,
		orderIDGenerator,
		gatewayClient,
		redisClient,
		cfg.Razorpay,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			catalogService,
			cartManager,
			addressService,
			ordersService,
			checkoutService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
