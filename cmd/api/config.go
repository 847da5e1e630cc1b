package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/ratelimiter"
)

type config struct {
	addr              string
	env               string
	backendURL        string
	country           string
	weather           weatherConfig
	geo               geoConfig
	nearRadius        int
	httpTimeout       time.Duration
	enrichConcurrency int
	refreshCron       string
	rateLimiter       ratelimiter.Config
}

type weatherConfig struct {
	url    string
	apiKey string
}

type geoConfig struct {
	// mode is one of ip, static or none.
	mode    string
	ipURL   string
	static  events.Coordinates
	timeout time.Duration
}

func loadConfig() config {
	return config{
		addr:        envString("ADDR", ":8080"),
		env:         envString("ENV", "development"),
		backendURL:  envString("BACKEND_URL", "http://localhost:8000"),
		country:     strings.ToUpper(envString("DEFAULT_COUNTRY", events.DefaultCountry)),
		nearRadius:  envInt("NEAR_RADIUS", 0),
		httpTimeout: envDuration("HTTP_TIMEOUT", 15*time.Second),
		weather: weatherConfig{
			url:    envString("WEATHER_URL", ""),
			apiKey: os.Getenv("WEATHER_API_KEY"),
		},
		geo: geoConfig{
			mode:  strings.ToLower(envString("GEO_MODE", "ip")),
			ipURL: envString("GEO_IP_URL", ""),
			static: events.Coordinates{
				Latitude:  envFloat("GEO_LAT", events.FallbackCoordinates.Latitude),
				Longitude: envFloat("GEO_LNG", events.FallbackCoordinates.Longitude),
			},
			timeout: envDuration("GEO_TIMEOUT", 5*time.Second),
		},
		enrichConcurrency: envInt("ENRICH_CONCURRENCY", 0),
		refreshCron:       os.Getenv("REFRESH_CRON"),
		rateLimiter:       LoadRateLimiterConfig(),
	}
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: envInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            5 * time.Second,
		Enabled:              envBool("RATE_LIMITER_ENABLED", false),
	}
}

// The logger does not exist yet while config loads, so bad values are reported on stdout.

func envString(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return def
}

func envInt(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, def)
		return def
	}
	return parsed
}

func envFloat(key string, def float64) float64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %v\n", key, def)
		return def
	}
	return parsed
}

func envBool(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %v\n", key, def)
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil || parsed <= 0 {
		fmt.Printf("Invalid %s, defaulting to %s\n", key, def)
		return def
	}
	return parsed
}
