package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the event pipeline. A nil *Metrics is valid and
// records nothing, so packages and tests can skip wiring it.
type Metrics struct {
	backendRequests  *prometheus.CounterVec
	weatherLookups   *prometheus.CounterVec
	aggregateSeconds prometheus.Summary
	listingSize      prometheus.Gauge
	staleResponses   prometheus.Counter
	renders          prometheus.Counter
	geolocation      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventconnect",
			Name:      "backend_requests_total",
			Help:      "Requests to the events backend by endpoint and outcome",
		}, []string{"endpoint", "status"}),
		weatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventconnect",
			Name:      "weather_lookups_total",
			Help:      "Weather lookups by outcome (ok or fallback)",
		}, []string{"status"}),
		aggregateSeconds: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "eventconnect",
			Name:      "aggregate_duration_seconds",
			Help:      "Time spent fetching and enriching one listing",
		}),
		listingSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventconnect",
			Name:      "listing_events",
			Help:      "Number of events in the currently rendered listing",
		}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventconnect",
			Name:      "stale_responses_total",
			Help:      "Aggregations discarded because a newer request superseded them",
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventconnect",
			Name:      "renders_total",
			Help:      "Completed list and map renders",
		}),
		geolocation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventconnect",
			Name:      "geolocation_resolutions_total",
			Help:      "Location resolutions by provenance",
		}, []string{"provenance"}),
	}

	reg.MustRegister(
		m.backendRequests, m.weatherLookups, m.aggregateSeconds,
		m.listingSize, m.staleResponses, m.renders, m.geolocation,
	)
	return m
}

func (m *Metrics) BackendRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(endpoint, status).Inc()
}

func (m *Metrics) WeatherLookup(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "fallback"
	}
	m.weatherLookups.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAggregate(start time.Time) {
	if m == nil {
		return
	}
	m.aggregateSeconds.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Rendered(n int) {
	if m == nil {
		return
	}
	m.renders.Inc()
	m.listingSize.Set(float64(n))
}

func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) Geolocation(provenance string) {
	if m == nil {
		return
	}
	m.geolocation.WithLabelValues(provenance).Inc()
}
