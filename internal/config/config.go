// Package config loads runtime configuration from the environment. A .env
// file in the working directory is merged in for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/placecache"
)

// Config holds the application's runtime settings.
type Config struct {
	HTTPAddr string

	TrailsBaseURL string
	TrailsAPIKey  string
	PlacesBaseURL string
	PlacesAPIKey  string

	// RedisAddr selects the Redis cache store when set; empty keeps the
	// cache in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL        time.Duration
	CacheMovementKm float64

	Enrich enrich.Config
}

// Load reads configuration from the environment, falling back to the
// built-in defaults for anything unset. Presence of the upstream provider
// URLs is the caller's concern; Load only rejects values it cannot parse.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	defaults := enrich.DefaultConfig()

	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		TrailsBaseURL: getEnv("TRAILS_API_BASE_URL", ""),
		TrailsAPIKey:  getEnv("TRAILS_API_KEY", ""),
		PlacesBaseURL: getEnv("PLACES_API_BASE_URL", ""),
		PlacesAPIKey:  getEnv("PLACES_API_KEY", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		Enrich:        defaults,
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", placecache.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.CacheMovementKm, err = getEnvFloat("CACHE_MOVEMENT_KM", placecache.DefaultMovementKm); err != nil {
		return Config{}, err
	}

	if cfg.Enrich.RadiusKm, err = getEnvFloat("DISCOVER_RADIUS_KM", defaults.RadiusKm); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.SearchRadiusKm, err = getEnvFloat("SEARCH_RADIUS_KM", defaults.SearchRadiusKm); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.MaxResults, err = getEnvInt("MAX_RESULTS", defaults.MaxResults); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.RatingTimeout, err = getEnvDuration("RATING_TIMEOUT", defaults.RatingTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.Concurrency, err = getEnvInt("ENRICH_CONCURRENCY", defaults.Concurrency); err != nil {
		return Config{}, err
	}

	if cfg.Enrich.Match.NameWeight, err = getEnvFloat("MATCH_NAME_WEIGHT", defaults.Match.NameWeight); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.Match.CategoryBonus, err = getEnvFloat("MATCH_CATEGORY_BONUS", defaults.Match.CategoryBonus); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.Match.RatedBonus, err = getEnvFloat("MATCH_RATED_BONUS", defaults.Match.RatedBonus); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.Match.RatedThreshold, err = getEnvFloat("MATCH_RATED_THRESHOLD", defaults.Match.RatedThreshold); err != nil {
		return Config{}, err
	}
	if cfg.Enrich.Match.OverallThreshold, err = getEnvFloat("MATCH_OVERALL_THRESHOLD", defaults.Match.OverallThreshold); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
