package manager

import (
	"context"
	"errors"
	"slices"
	"sync"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/mapview"
	"eventconnect/internal/metrics"
	"eventconnect/internal/render"

	"go.uber.org/zap"
)

var (
	// ErrSuperseded is returned to a request whose result was discarded because a newer
	// request started after it.
	ErrSuperseded     = errors.New("superseded by a newer request")
	ErrNotStarted     = errors.New("event manager not started")
	ErrAlreadyStarted = errors.New("event manager already started")
)

type Aggregator interface {
	Aggregate(ctx context.Context, criteria events.FilterCriteria) ([]events.EnrichedEvent, error)
}

type Locator interface {
	Resolve(ctx context.Context) events.Position
}

type Config struct {
	// Country is sent with every request; defaults to GB.
	Country string
	// NearRadius, in miles, restricts the startup listing around a resolved position.
	NearRadius int
}

// Manager owns the state of one listing page: criteria, current events, position and map.
type Manager struct {
	agg     Aggregator
	locator Locator
	newMap  mapview.Factory
	nav     render.Navigator
	cfg     Config
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	started  bool
	position events.Position
	m        mapview.Map
	renderer *render.Renderer
	criteria events.FilterCriteria
	events   []events.EnrichedEvent
}

func New(agg Aggregator, locator Locator, newMap mapview.Factory, nav render.Navigator, cfg Config, logger *zap.SugaredLogger, m *metrics.Metrics) *Manager {
	if cfg.Country == "" {
		cfg.Country = events.DefaultCountry
	}
	return &Manager{
		agg:     agg,
		locator: locator,
		newMap:  newMap,
		nav:     nav,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Start resolves the position, creates the map around it and loads the default listing.
// The map is usable even when the first listing fails.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	pos := m.locator.Resolve(ctx)
	mp := m.newMap(pos.Coordinates, mapview.ZoomInitial)

	m.mu.Lock()
	m.position = pos
	m.m = mp
	m.renderer = render.New(mp, m.nav, m.logger, m.metrics)
	// Refresh retries these if the first listing fails
	m.criteria = m.defaultCriteria(pos)
	criteria := m.criteria.Clone()
	m.mu.Unlock()

	m.logger.Infow("map initialised", "center", pos.Coordinates.String(), "provenance", pos.Provenance)

	if err := m.run(ctx, &criteria); err != nil {
		m.logger.Errorw("initial listing failed", "error", err.Error())
		return err
	}
	return nil
}

func (m *Manager) defaultCriteria(pos events.Position) events.FilterCriteria {
	c := events.FilterCriteria{Country: m.cfg.Country}
	if pos.Provenance == events.ProvenanceResolved && m.cfg.NearRadius > 0 {
		near := pos.Coordinates
		c.Near = &near
		c.Radius = m.cfg.NearRadius
	}
	return c
}

// Submit validates form and replaces the listing with its results. Invalid forms fail
// with a *events.ValidationError before any request is made.
func (m *Manager) Submit(ctx context.Context, form events.FilterForm) error {
	criteria, err := form.Criteria(m.cfg.Country)
	if err != nil {
		return err
	}
	return m.run(ctx, &criteria)
}

// Refresh reloads the listing for the current criteria. It never displaces a request in
// flight: while one is running it returns ErrSuperseded without fetching.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.run(ctx, nil)
}

// run aggregates criteria and applies the result if no newer request has started since.
// Starting a request cancels the one in flight. A nil criteria is a refresh of the
// current criteria, which yields to any request in flight instead.
func (m *Manager) run(ctx context.Context, criteria *events.FilterCriteria) error {
	m.mu.Lock()
	if m.renderer == nil {
		m.mu.Unlock()
		return ErrNotStarted
	}
	if criteria == nil {
		if m.cancel != nil {
			m.mu.Unlock()
			m.logger.Infow("refresh skipped, a request is in flight")
			return ErrSuperseded
		}
		current := m.criteria.Clone()
		criteria = &current
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.seq++
	seq := m.seq
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	evs, err := m.agg.Aggregate(ctx, *criteria)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.seq || m.renderer == nil {
		m.metrics.StaleResponse()
		m.logger.Infow("discarding stale listing", "seq", seq, "latest", m.seq)
		return ErrSuperseded
	}
	m.cancel = nil
	if err != nil {
		return err
	}

	m.criteria = criteria.Clone()
	m.events = evs
	m.renderer.Render(evs)
	return nil
}

// Close cancels in-flight work and removes every marker. Pending requests end with
// ErrSuperseded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	if m.renderer != nil {
		m.renderer.Clear()
		m.renderer = nil
	}
	m.events = nil
}

func (m *Manager) Events() []events.EnrichedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

func (m *Manager) Cards() []render.Card {
	m.mu.Lock()
	r := m.renderer
	m.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Cards()
}

func (m *Manager) Criteria() events.FilterCriteria {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria.Clone()
}

func (m *Manager) Position() events.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Map returns the listing map, or nil before Start.
func (m *Manager) Map() mapview.Map {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m
}
