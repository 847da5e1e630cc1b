package details

import (
	"context"
	"fmt"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/mapview"
	"eventconnect/internal/render"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Source interface {
	FetchEvent(ctx context.Context, id events.EventID) (*events.RawEvent, error)
	FetchAttendees(ctx context.Context, id events.EventID) ([]events.AttendeeLocation, error)
}

// Page is one loaded event detail view.
type Page struct {
	Event     events.RawEvent           `json:"event"`
	Attendees []events.AttendeeLocation `json:"attendees"`
	Map       mapview.Map               `json:"-"`
}

// Loader builds detail pages: the event plus a map of where its attendees are.
type Loader struct {
	source Source
	newMap mapview.Factory
	nav    render.Navigator
	logger *zap.SugaredLogger
}

func NewLoader(source Source, newMap mapview.Factory, nav render.Navigator, logger *zap.SugaredLogger) *Loader {
	return &Loader{source: source, newMap: newMap, nav: nav, logger: logger}
}

// Load fetches the event and its attendee locations concurrently. Either failure fails
// the page.
func (l *Loader) Load(ctx context.Context, id events.EventID) (*Page, error) {
	if id == "" {
		return nil, &events.ValidationError{Field: "eventId", Message: "Event id is required."}
	}

	var (
		ev        *events.RawEvent
		attendees []events.AttendeeLocation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ev, err = l.source.FetchEvent(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		attendees, err = l.source.FetchAttendees(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load event %s: %w", id, err)
	}

	page := &Page{Event: *ev, Attendees: attendees, Map: l.attendeeMap(attendees)}
	l.logger.Infow("event details loaded", "event", id, "attendees", len(attendees))
	return page, nil
}

// attendeeMap shows the whole world when nobody is registered, otherwise fits every
// attendee, each marker linking to that user's profile.
func (l *Loader) attendeeMap(attendees []events.AttendeeLocation) mapview.Map {
	points := make([]events.Coordinates, 0, len(attendees))
	for _, a := range attendees {
		points = append(points, a.Coordinates())
	}

	bounds, ok := mapview.NewBounds(points...)
	if !ok {
		return l.newMap(events.Coordinates{}, mapview.ZoomWorld)
	}

	m := l.newMap(bounds.Center(), mapview.ZoomInitial)
	for _, a := range attendees {
		h := m.AddMarker(mapview.MarkerOptions{Position: a.Coordinates(), Title: "User " + a.UserID.String()})
		route := events.ProfileRoute(a.UserID)
		if err := m.AddListener(h, mapview.Click, func() { l.nav.Navigate(route) }); err != nil {
			l.logger.Errorw("attach attendee listener", "user", a.UserID, "error", err.Error())
		}
	}
	m.FitBounds(bounds)
	return m
}
