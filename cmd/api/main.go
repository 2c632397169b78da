package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/facturex/backend/api/routes"
	"github.com/facturex/backend/internal/accounts"
	"github.com/facturex/backend/internal/agent"
	"github.com/facturex/backend/internal/invoices"
	"github.com/facturex/backend/internal/movements"
	"github.com/facturex/backend/internal/payments"
	"github.com/facturex/backend/internal/pending"
	"github.com/facturex/backend/internal/rates"
	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db"
	"github.com/facturex/backend/pkg/logger"
	"github.com/facturex/backend/pkg/metrics"
	"github.com/facturex/backend/pkg/migrate"
	"github.com/facturex/backend/pkg/redis"
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
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	gormDB := dbClient.DB()

	ratesService, err := rates.NewService(rates.NewRepository(gormDB), cfg.Ledger)
	if err != nil {
		logg.Error(context.Background(), "failed to create rates service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	movementsService, err := movements.NewService(movements.NewRepository(gormDB), accountsService, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create movements service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(dbClient, transactions.NewRepository(gormDB), movementsService, accountsService, ratesService, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	invoicesService, err := invoices.NewService(invoices.NewRepository(gormDB), ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(dbClient, payments.NewRepository(gormDB), movementsService, accountsService, invoicesService, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	pendingService, err := pending.NewService(dbClient, pending.NewRepository(gormDB), transactionsService, accountsService, cfg.Agent.PendingTTL, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create pending service", err)
		os.Exit(1)
	}

	agentService, err := agent.NewService(pendingService, accountsService, transactionsService, cfg.Agent)
	if err != nil {
		logg.Error(context.Background(), "failed to create agent service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Accounts:     accountsService,
			Movements:    movementsService,
			Transactions: transactionsService,
			Payments:     paymentsService,
			Invoices:     invoicesService,
			Rates:        ratesService,
			Agent:        agentService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
