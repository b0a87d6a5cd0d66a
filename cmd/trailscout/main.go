package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramble-labs/trailscout/app"
	"github.com/ramble-labs/trailscout/internal/clients"
	"github.com/ramble-labs/trailscout/internal/config"
	"github.com/ramble-labs/trailscout/internal/httpapi"
	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/placecache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.TrailsBaseURL == "" {
		logger.Fatal().Msg("TRAILS_API_BASE_URL environment variable must be set.")
	}
	if cfg.PlacesBaseURL == "" {
		logger.Fatal().Msg("PLACES_API_BASE_URL environment variable must be set.")
	}

	// 2. Instantiate the Cache Store
	var store placecache.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		store = placecache.NewRedisStore(redisClient, "", cfg.CacheTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache store initialized")
	} else {
		store = placecache.NewInMemoryStore()
		logger.Info().Msg("In-memory cache store initialized")
	}
	cache := placecache.New(store, cfg.CacheTTL, cfg.CacheMovementKm, logger)

	// 3. Instantiate Provider Clients
	catalog := clients.NewTrailCatalogClient(cfg.TrailsBaseURL, cfg.TrailsAPIKey, logger)
	finder := clients.NewPlaceSearchClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, logger)
	logger.Info().Msg("Provider clients initialized")

	// 4. Instantiate the Enrichment Pipeline
	enricher := enrich.NewEnricher(catalog, finder, cache, cfg.Enrich, logger)
	logger.Info().
		Float64("radius_km", cfg.Enrich.RadiusKm).
		Int("max_results", cfg.Enrich.MaxResults).
		Msg("Enrichment pipeline initialized")

	// 5. Instantiate the Main Application Orchestrator
	application := app.New(enricher, cache, logger)

	// 6. Serve the HTTP API until shutdown
	server := httpapi.NewServer(application, logger)
	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received. Exiting.")
	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
	}
}
