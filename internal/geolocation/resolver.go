package geolocation

import (
	"context"
	"fmt"
	"time"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/metrics"

	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Second

// Capability is a source of the user's current position.
type Capability interface {
	CurrentPosition(ctx context.Context) (events.Coordinates, error)
}

// Resolver turns a possibly missing or failing capability into a position that is always
// usable. It never returns an error and never blocks past its timeout.
type Resolver struct {
	capability Capability
	fallback   events.Coordinates
	timeout    time.Duration
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics
}

type Option func(*Resolver)

// WithFallback overrides the position used when resolution fails.
func WithFallback(c events.Coordinates) Option {
	return func(r *Resolver) { r.fallback = c }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a Resolver. A nil capability is allowed and always yields the fallback.
func NewResolver(capability Capability, logger *zap.SugaredLogger, opts ...Option) *Resolver {
	r := &Resolver{
		capability: capability,
		fallback:   events.FallbackCoordinates,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type result struct {
	coords events.Coordinates
	err    error
}

// Resolve returns the current position, or the fallback tagged as such.
func (r *Resolver) Resolve(ctx context.Context) events.Position {
	if r.capability == nil {
		return r.fallbackPosition(events.ErrCapabilityUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// buffered so a capability that ignores ctx can still finish and exit
	ch := make(chan result, 1)
	go func() {
		c, err := r.capability.CurrentPosition(ctx)
		ch <- result{coords: c, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return r.fallbackPosition(res.err)
		}
		if !res.coords.Valid() {
			return r.fallbackPosition(fmt.Errorf("position out of range: %s", res.coords))
		}
		r.metrics.Geolocation(string(events.ProvenanceResolved))
		r.logger.Infow("location resolved", "coords", res.coords.String())
		return events.Position{Coordinates: res.coords, Provenance: events.ProvenanceResolved}
	case <-ctx.Done():
		return r.fallbackPosition(ctx.Err())
	}
}

func (r *Resolver) fallbackPosition(err error) events.Position {
	r.metrics.Geolocation(string(events.ProvenanceFallback))
	r.logger.Warnw("using fallback location", "coords", r.fallback.String(), "error", err.Error())
	return events.Position{Coordinates: r.fallback, Provenance: events.ProvenanceFallback}
}
