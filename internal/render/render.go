package render

import (
	"fmt"
	"strings"
	"sync"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/mapview"
	"eventconnect/internal/metrics"

	"go.uber.org/zap"
)

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Card is the list projection of one event.
type Card struct {
	ID       events.EventID `json:"id"`
	Title    string         `json:"title"`
	Venue    string         `json:"venue"`
	Location string         `json:"location"`
	Date     string         `json:"date"`
	ImageURL string         `json:"image_url"`
	Weather  string         `json:"weather,omitempty"`
	Details  string         `json:"details"`
}

func NewCard(ev events.EnrichedEvent) Card {
	return Card{
		ID:       ev.ID,
		Title:    ev.Name,
		Venue:    ev.Venue.Name,
		Location: joinNonEmpty(", ", ev.Venue.DisplayPostcode(), ev.Venue.Country),
		Date:     ev.Date,
		ImageURL: ev.ImageURL,
		Weather:  ev.Weather,
		Details:  events.DetailRoute(ev.ID),
	}
}

// MarkerTitle is the hover title of an event marker: "name (venue)".
func MarkerTitle(ev events.EnrichedEvent) string {
	return fmt.Sprintf("%s (%s)", ev.Name, ev.Venue.Name)
}

// NewOverlay builds the info window shown while hovering an event marker.
func NewOverlay(ev events.EnrichedEvent) mapview.Overlay {
	lines := []string{ev.Venue.Name, ev.Date}
	if ev.Weather != "" {
		lines = append(lines, "Weather: "+ev.Weather)
	}
	return mapview.Overlay{Title: ev.Name, Lines: lines}
}

// Renderer draws a listing as cards and as map markers and owns every marker it places.
type Renderer struct {
	m      mapview.Map
	nav    Navigator
	logger *zap.SugaredLogger
	metric *metrics.Metrics

	mu      sync.Mutex
	cards   []Card
	handles []mapview.MarkerHandle
	byEvent map[events.EventID]mapview.MarkerHandle
}

func New(m mapview.Map, nav Navigator, logger *zap.SugaredLogger, mt *metrics.Metrics) *Renderer {
	return &Renderer{
		m:       m,
		nav:     nav,
		logger:  logger,
		metric:  mt,
		byEvent: make(map[events.EventID]mapview.MarkerHandle),
	}
}

// Render replaces the cards and markers with evs. Markers from a previous render are
// removed first, so the map never holds more than len(evs) of ours. A non-empty listing
// recenters the map on its first event.
func (r *Renderer) Render(evs []events.EnrichedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()

	cards := make([]Card, 0, len(evs))
	for _, ev := range evs {
		cards = append(cards, NewCard(ev))

		h := r.m.AddMarker(mapview.MarkerOptions{Position: ev.Venue.Coordinates(), Title: MarkerTitle(ev)})
		r.handles = append(r.handles, h)
		r.byEvent[ev.ID] = h

		route := events.DetailRoute(ev.ID)
		overlay := NewOverlay(ev)
		r.listen(h, mapview.Click, func() { r.nav.Navigate(route) })
		r.listen(h, mapview.HoverEnter, func() {
			if err := r.m.OpenInfo(h, overlay); err != nil {
				r.logger.Warnw("open info window", "marker", h, "error", err.Error())
			}
		})
		r.listen(h, mapview.HoverLeave, func() { r.m.CloseInfo(h) })
	}
	r.cards = cards

	if len(evs) > 0 {
		r.m.SetCenter(evs[0].Venue.Coordinates())
		r.m.SetZoom(mapview.ZoomEvent)
	}

	r.metric.Rendered(len(evs))
	r.logger.Infow("listing rendered", "events", len(evs))
}

func (r *Renderer) listen(h mapview.MarkerHandle, ev mapview.EventType, fn mapview.Listener) {
	if err := r.m.AddListener(h, ev, fn); err != nil {
		r.logger.Errorw("attach marker listener", "marker", h, "event", ev, "error", err.Error())
	}
}

// Clear removes every marker and card this renderer owns.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	r.cards = nil
}

func (r *Renderer) clearLocked() {
	for _, h := range r.handles {
		r.m.RemoveMarker(h)
	}
	r.handles = nil
	clear(r.byEvent)
}

func (r *Renderer) Cards() []Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Card, len(r.cards))
	copy(out, r.cards)
	return out
}

// Marker returns the handle of the marker drawn for id.
func (r *Renderer) Marker(id events.EventID) (mapview.MarkerHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byEvent[id]
	return h, ok
}

// MarkerCount is the number of markers currently owned.
func (r *Renderer) MarkerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
