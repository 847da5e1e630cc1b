package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"eventconnect/internal/details"
	"eventconnect/internal/manager"
	"eventconnect/internal/mapview"
	"eventconnect/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config      config
	logger      *zap.SugaredLogger
	manager     *manager.Manager
	details     *details.Loader
	navigator   *navigator
	rateLimiter ratelimiter.Limiter
	metrics     http.Handler

	// detail is the most recently opened detail page; its markers stay clickable.
	detailMu sync.Mutex
	detail   *details.Page
}

// drawable is a map that can report its state and replay interactions.
type drawable interface {
	Snapshot() mapview.State
	Trigger(h mapview.MarkerHandle, ev mapview.EventType) error
	Has(h mapview.MarkerHandle) bool
}

// navigator records the route a marker listener asks for. Interactions are replayed one at
// a time through capture, so each handler gets the route its own trigger produced.
type navigator struct {
	interaction sync.Mutex

	mu   sync.Mutex
	last string
}

func (n *navigator) Navigate(route string) {
	n.mu.Lock()
	n.last = route
	n.mu.Unlock()
}

// capture runs fire and returns the route navigated to while it ran, if any.
func (n *navigator) capture(fire func() error) (string, error) {
	n.interaction.Lock()
	defer n.interaction.Unlock()

	n.take()
	if err := fire(); err != nil {
		n.take()
		return "", err
	}
	return n.take(), nil
}

func (n *navigator) take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	route := n.last
	n.last = ""
	return route
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		if app.metrics != nil {
			r.Handle("/metrics", app.metrics)
		}

		r.Route("/events", func(r chi.Router) {
			r.Get("/", app.listEventsHandler)
			r.Get("/search", app.searchEventsQueryHandler)
			r.Post("/search", app.searchEventsHandler)
			r.Post("/refresh", app.refreshEventsHandler)
			r.Get("/{eventID}", app.eventDetailsHandler)
		})

		r.Route("/map", func(r chi.Router) {
			r.Get("/", app.mapHandler)
			r.Post("/markers/{markerID}/{action}", app.markerEventHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.manager.Close()
	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
