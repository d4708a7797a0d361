package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/THXNXKXT/qr-studios-sub002/api/routes"
	"github.com/THXNXKXT/qr-studios-sub002/internal/ledger"
	"github.com/THXNXKXT/qr-studios-sub002/internal/notifications"
	"github.com/THXNXKXT/qr-studios-sub002/internal/profile"
	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/config"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/metrics"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/migrate"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	walletRepo := wallet.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	rewardsRepo := rewards.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	profileCache := profile.NewCache(redisClient, cfg.Ledger.ProfileCacheTTL)

	walletService, err := wallet.NewService(wallet.ServiceParams{
		DB:       dbClient,
		Repo:     walletRepo,
		Recorder: ledgerRepo,
		Cache:    profileCache,
		Logger:   logg,
		Metrics:  ledgerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		DB:      dbClient,
		Repo:    ledgerRepo,
		Wallet:  walletRepo,
		Cache:   profileCache,
		Logger:  logg,
		Metrics: ledgerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewardsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	distributor, err := rewards.NewDistributor(rewards.DistributorParams{
		DB:             dbClient,
		Rewards:        rewardsRepo,
		Wallet:         walletRepo,
		Recorder:       ledgerRepo,
		Cache:          profileCache,
		Logger:         logg,
		Metrics:        ledgerMetrics,
		SpinCostPoints: cfg.Ledger.SpinCostPoints,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reward distributor", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	profileService, err := profile.NewService(profile.ServiceParams{
		Wallet:        walletRepo,
		Orders:        ledgerRepo,
		Notifications: notificationsRepo,
		Cache:         profileCache,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Wallet:        walletService,
			Ledger:        ledgerService,
			Rewards:       rewardsService,
			Distributor:   distributor,
			Profile:       profileService,
			Notifications: notificationsService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
