package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"eventconnect/internal/aggregator"
	"eventconnect/internal/backend"
	"eventconnect/internal/details"
	"eventconnect/internal/geolocation"
	"eventconnect/internal/httpclient"
	"eventconnect/internal/manager"
	"eventconnect/internal/mapview"
	"eventconnect/internal/metrics"
	"eventconnect/internal/ratelimiter"
	"eventconnect/internal/weather"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

var version = "0.3.0"

const startupTimeout = 90 * time.Second

//	@title			EventConnect API
//	@description	Event listing, weather enrichment and map state for the EventConnect web client.

//	@BasePath	/v1

func main() {
	// a missing .env is fine, the environment may already be set
	envErr := godotenv.Load()

	cfg := loadConfig()

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Infow("no .env file loaded", "error", envErr.Error())
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	httpClient := httpclient.New(cfg.httpTimeout)

	backendClient := backend.NewClient(cfg.backendURL, httpClient, logger, m)
	enricher := weather.NewClient(cfg.weather.url, cfg.weather.apiKey, httpClient, logger, m)
	agg := aggregator.New(backendClient, enricher, cfg.enrichConcurrency, logger, m)

	resolver := geolocation.NewResolver(
		locationCapability(cfg.geo, httpclient.New(cfg.geo.timeout)),
		logger,
		geolocation.WithTimeout(cfg.geo.timeout),
		geolocation.WithMetrics(m),
	)

	nav := &navigator{}
	maps := mapview.NewFactory()

	mgr := manager.New(agg, resolver, maps, nav, manager.Config{
		Country:    cfg.country,
		NearRadius: cfg.nearRadius,
	}, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	go rateLimiter.Run(ctx)

	app := &application{
		config:      cfg,
		logger:      logger,
		manager:     mgr,
		details:     details.NewLoader(backendClient, maps, nav, logger),
		navigator:   nav,
		rateLimiter: rateLimiter,
		metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	startCtx, startCancel := context.WithTimeout(ctx, startupTimeout)
	if err := mgr.Start(startCtx); err != nil {
		// the map is up; the listing can be retried with a search or refresh
		logger.Warnw("starting without an initial listing", "error", err.Error())
	}
	startCancel()

	scheduler, err := app.scheduleRefresh()
	if err != nil {
		logger.Fatalw("invalid REFRESH_CRON", "spec", cfg.refreshCron, "error", err.Error())
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("listing", expvar.Func(func() any {
		return len(mgr.Events())
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Errorw("server error", "error", err.Error())
	}
}

func locationCapability(cfg geoConfig, client *http.Client) geolocation.Capability {
	switch cfg.mode {
	case "static":
		return geolocation.Static(cfg.static)
	case "none", "off":
		return nil
	default:
		return geolocation.IPLookup{URL: cfg.ipURL, HTTPClient: client}
	}
}
