// Command server runs the verdict marketplace API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdictapp/verdict/internal/api"
	billingapi "github.com/verdictapp/verdict/internal/api/billing"
	"github.com/verdictapp/verdict/internal/api/marketplace"
	"github.com/verdictapp/verdict/internal/billing"
	"github.com/verdictapp/verdict/internal/cache"
	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/notify"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/internal/service/account"
	"github.com/verdictapp/verdict/internal/service/earnings"
	"github.com/verdictapp/verdict/internal/service/ledger"
	"github.com/verdictapp/verdict/internal/service/requests"
	"github.com/verdictapp/verdict/internal/service/scheduler"
	"github.com/verdictapp/verdict/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisCache, err := cache.NewRedis(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisCache.Close()

	cacheTTL := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	verdictRepo := repository.NewVerdictRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	billingEventRepo := repository.NewBillingEventRepository(db)

	// Services
	ledgerService := ledger.NewService(profileRepo, transactionRepo, redisCache, log)
	accountService := account.NewService(profileRepo, ledgerService, redisCache, cfg.Credits, cacheTTL, log)
	notifier := notify.NewClient(&cfg.Notifications, log)
	earningsService := earnings.NewService(earningRepo, redisCache, notifier, cfg, cacheTTL, log)
	requestService := requests.NewService(requestRepo, verdictRepo, ledgerService, earningsService, notifier, redisCache, cfg, log)

	var billingHandler *billingapi.Handler
	if cfg.Stripe.Enabled {
		billingService := billing.NewService(&cfg.Stripe, cfg.Packs, billingEventRepo, ledgerService, log)
		billingHandler = billingapi.NewHandler(billingService, accountService, log)
	}

	schedulerService := scheduler.NewService(&cfg.Scheduler, earningsService, transactionRepo, log)
	if err := schedulerService.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerService.Stop()

	marketplaceHandler := marketplace.NewHandler(accountService, requestService, earningsService, log)
	router := api.NewRouter(cfg, marketplaceHandler, billingHandler, db)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}
