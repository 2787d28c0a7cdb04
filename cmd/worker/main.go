package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blockfund/internal/adapter/repo"
	"blockfund/internal/chain"
	"blockfund/internal/infra"
	"blockfund/internal/realtime"
	"blockfund/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.ChainEnabled() {
		logger.Fatal().Msg("worker: CHAIN_RPC_URL is required")
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	client, err := chain.Dial(ctx, cfg.ChainRPCURL, cfg.ChainID, cfg.ContractAddress, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: chain connection failed")
	}
	defer client.Close()

	// Without Redis the API cannot hear about confirmations from here; clients
	// still see them on their next fetch.
	var broker realtime.Broker
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: redis unavailable, change events disabled")
	} else if rdb != nil {
		defer rdb.Close()
		broker = realtime.NewRedisBroker(rdb, logger)
	}

	reconciler := reconcile.New(
		repo.NewPendingDonationRepository(runner),
		repo.NewCampaignRepository(runner),
		client,
		broker,
		logger,
		reconcile.Options{Workers: cfg.ReconcileWorkers, BatchSize: cfg.ReconcileBatchSize},
	)

	if err := run(ctx, reconciler, cfg.ReconcileInterval, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func run(ctx context.Context, r *reconcile.Reconciler, interval time.Duration, logger infra.Logger) error {
	logger.Info().Dur("interval", interval).Msg("worker: started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		result, err := r.Sweep(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("worker: sweep failed")
		} else if result != (reconcile.SweepResult{}) {
			logger.Info().
				Int("confirmed", result.Confirmed).
				Int("pending", result.Pending).
				Int("failed", result.Failed).
				Int("errors", result.Errors).
				Msg("worker: sweep done")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
