package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"blockfund/internal/adapter/repo"
	"blockfund/internal/chain"
	"blockfund/internal/http/handlers"
	httpapi "blockfund/internal/http/httpapi"
	"blockfund/internal/infra"
	"blockfund/internal/infra/geoip"
	"blockfund/internal/infra/google"
	"blockfund/internal/metrics"
	"blockfund/internal/realtime"
	"blockfund/internal/reconcile"
	"blockfund/internal/storage"
	"blockfund/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics.Register()

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	campaigns := repo.NewCampaignRepository(runner)
	profiles := repo.NewProfileRepository(runner)

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	var (
		broker realtime.Broker
		nonces wallet.NonceStore
	)
	if rdb != nil {
		defer rdb.Close()
		broker = realtime.NewRedisBroker(rdb, logger)
		nonces = wallet.NewRedisNonceStore(rdb)
	} else {
		logger.Warn().Msg("REDIS_URL not set, using in-process realtime broker and nonce store")
		broker = realtime.NewMemoryBroker()
		nonces = wallet.NewMemoryNonceStore()
	}

	app := handlers.App{
		Logger:              logger,
		JWTSecret:           cfg.JWTSecret,
		JWTTTL:              cfg.JWTTTL,
		SuperVerifiedDomain: cfg.SuperVerifiedEmail,
		MediaLimits: storage.Limits{
			Default: int64(cfg.MediaMaxMB) << 20,
			Video:   int64(cfg.VideoMaxMB) << 20,
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DB:             dbpool,
		Campaigns:      campaigns,
		Donations:      repo.NewDonationRepository(runner),
		Votes:          repo.NewVoteRepository(runner),
		Profiles:       profiles,
		Wallets:        wallet.NewService(nonces, profiles),
		Broker:         broker,
	}

	// Interface fields stay nil when the chain is disabled.
	if cfg.ChainEnabled() {
		client, err := chain.Dial(ctx, cfg.ChainRPCURL, cfg.ChainID, cfg.ContractAddress, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect chain")
		}
		defer client.Close()
		app.Chain = client
		app.Reconciler = reconcile.New(repo.NewPendingDonationRepository(runner), campaigns, client, broker, logger, reconcile.Options{
			Workers:   cfg.ReconcileWorkers,
			BatchSize: cfg.ReconcileBatchSize,
		})
	} else {
		logger.Warn().Msg("CHAIN_RPC_URL not set, donations and chain reads are disabled")
	}

	if cfg.GoogleClientID != "" {
		app.Google = google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID)
	}

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	app.Store = store
	logger.Info().Str("path", store.BasePath()).Msg("file storage ready")

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	router := httpapi.NewRouter(handlers.NewApp(app), httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
