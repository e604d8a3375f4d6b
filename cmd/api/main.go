package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/routes"
	checkoutsvc "github.com/prajjwolcodes/Kin-Bech-sub000/internal/checkout"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payments"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payouts"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/products"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/metrics"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/migrate"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	flowMetrics := metrics.NewOrderFlowMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Tx:          dbClient,
		OrdersRepo:  ordersRepo,
		ProductRepo: products.NewRepository(dbClient.DB()),
		PendingTTL:  cfg.Orders.PendingTTL,
		Metrics:     flowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, orders.NewStockReleaser())
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	gateways, err := buildGateways(cfg.Gateways)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateways", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:          payments.NewRepository(dbClient.DB()),
		Tx:            dbClient,
		Gateways:      gateways,
		ReturnBaseURL: cfg.Gateways.ReturnBaseURL,
		Metrics:       flowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	payoutsService, err := payouts.NewService(payouts.NewRepository(dbClient.DB()), dbClient, flowMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Checkout: checkoutService,
			Orders:   ordersService,
			Payments: paymentsService,
			Payouts:  payoutsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildGateways(cfg config.GatewayConfig) (map[enums.PaymentMethod]payments.Gateway, error) {
	esewa, err := payments.NewEsewaGateway(cfg)
	if err != nil {
		return nil, err
	}
	khalti, err := payments.NewKhaltiGateway(cfg)
	if err != nil {
		return nil, err
	}
	return map[enums.PaymentMethod]payments.Gateway{
		enums.PaymentMethodEsewa:  esewa,
		enums.PaymentMethodKhalti: khalti,
	}, nil
}
