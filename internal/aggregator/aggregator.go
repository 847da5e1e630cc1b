package aggregator

import (
	"context"
	"time"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher returns the raw events matching criteria.
type Fetcher interface {
	Fetch(ctx context.Context, criteria events.FilterCriteria) ([]events.RawEvent, error)
}

// Enricher annotates a position with a weather summary. It must not fail.
type Enricher interface {
	Enrich(ctx context.Context, coords events.Coordinates) string
}

type Aggregator struct {
	fetcher     Fetcher
	enricher    Enricher
	concurrency int
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
}

// New builds an Aggregator. concurrency caps simultaneous weather lookups; zero or
// less means one lookup per event, all at once.
func New(f Fetcher, e Enricher, concurrency int, logger *zap.SugaredLogger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		fetcher:     f,
		enricher:    e,
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// Aggregate fetches events for criteria and enriches each one concurrently. The result is
// index-aligned with the fetch result regardless of the order lookups complete in.
// Fetch errors are returned unchanged.
func (a *Aggregator) Aggregate(ctx context.Context, criteria events.FilterCriteria) ([]events.EnrichedEvent, error) {
	start := time.Now()
	defer a.metrics.ObserveAggregate(start)

	raw, err := a.fetcher.Fetch(ctx, criteria)
	if err != nil {
		return nil, err
	}

	out := make([]events.EnrichedEvent, len(raw))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, ev := range raw {
		g.Go(func() error {
			// each task owns out[i] and nothing else
			out[i] = events.EnrichedEvent{
				RawEvent: ev,
				Weather:  a.enricher.Enrich(ctx, ev.Venue.Coordinates()),
			}
			return nil
		})
	}
	_ = g.Wait()

	// a cancelled request would otherwise come back as a listing of fallback weather
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Infow("events aggregated", "count", len(out), "elapsed", time.Since(start).Truncate(time.Millisecond))
	return out, nil
}
