package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	stripeclient "github.com/stripe/stripe-go/v78/client"

	"pawtraits/server/internal/adapter/repo"
	"pawtraits/server/internal/http/handlers"
	"pawtraits/server/internal/http/httpapi"
	"pawtraits/server/internal/infra"
	"pawtraits/server/internal/infra/geoip"
	"pawtraits/server/internal/portrait"
	"pawtraits/server/internal/providers/dashscope"
	"pawtraits/server/internal/providers/printify"
	"pawtraits/server/internal/providers/replicate"
	"pawtraits/server/internal/providers/vision"
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

	// Order store is optional: without DATABASE_URL the webhook skips
	// record keeping and the admin listing reports it unconfigured.
	var orders handlers.OrderStore
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		orders = repo.NewOrderRepository(pool)
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, continuing without country annotation")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var backend portrait.Backend
	switch cfg.PortraitBackend {
	case "dashscope":
		backend = dashscope.NewClient(dashscope.Options{
			APIKey:     cfg.DashScopeAPIKey,
			BaseURL:    cfg.DashScopeBaseURL,
			Model:      cfg.DashScopeModel,
			HTTPClient: httpClient,
		})
	default:
		backend = replicate.NewClient(replicate.Options{
			APIToken:   cfg.ReplicateAPIToken,
			BaseURL:    cfg.ReplicateBaseURL,
			Version:    cfg.ReplicateVersion,
			HTTPClient: httpClient,
		})
	}
	if !backend.HasCredentials() {
		logger.Warn().Str("backend", backend.Name()).Msg("generation backend credentials missing, requests will fail until configured")
	}

	printifyClient := printify.NewClient(printify.Options{
		APIKey:     cfg.PrintifyAPIKey,
		ShopID:     cfg.PrintifyShopID,
		BaseURL:    cfg.PrintifyBaseURL,
		HTTPClient: httpClient,
	})
	if !printifyClient.HasCredentials() {
		logger.Warn().Msg("printify credentials missing, portraits will not be published")
	}

	visionClient := vision.NewClient(vision.Options{
		APIKey:     cfg.VisionAPIKey,
		BaseURL:    cfg.VisionBaseURL,
		Model:      cfg.VisionModel,
		HTTPClient: httpClient,
	})

	service := portrait.NewService(portrait.ServiceOptions{
		Backend:   backend,
		Runner:    portrait.NewRunner(backend, cfg.PollInterval, cfg.MaxWait, logger),
		Publisher: printify.NewPublisher(printifyClient, logger),
		Describer: visionClient,
		Tuning: portrait.TuningConfig{
			Single: tuningFromEnv(cfg.TuningSingle),
			Multi:  tuningFromEnv(cfg.TuningMulti),
		},
		Logger: logger,
	})

	var stripeAPI *stripeclient.API
	if cfg.StripeSecretKey != "" {
		stripeAPI = &stripeclient.API{}
		stripeAPI.Init(cfg.StripeSecretKey, nil)
	} else {
		logger.Warn().Msg("stripe secret key missing, checkout disabled")
	}

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Portraits: service,
		Stripe:    stripeAPI,
		Printify:  printifyClient,
		Orders:    orders,
	}

	router := httpapi.NewRouter(app, logger, resolver)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("backend", backend.Name()).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func tuningFromEnv(env infra.TuningEnv) portrait.Tuning {
	return portrait.Tuning{
		DenoisingStrength: env.DenoisingStrength,
		GuidanceScale:     env.GuidanceScale,
		ConditioningScale: env.ConditioningScale,
		Width:             env.Width,
		Height:            env.Height,
	}
}
