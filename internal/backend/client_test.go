package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventconnect/internal/domain/events"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), zap.NewNop().Sugar(), nil)
}

func TestFetchSendsQueryAndDecodes(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "eventname": "First", "venue": {"name": "A", "latitude": 51.5, "longitude": -0.1}},
			{"id": "2", "eventname": "Second", "venue": {"name": "B", "latitude": 52, "longitude": -1}}
		]`))
	})

	criteria := events.FilterCriteria{Country: "GB", Location: "London", EventCodes: []string{"LIVE", "CLUB"}}
	evs, err := c.Fetch(context.Background(), criteria)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/events" {
		t.Errorf("expected path /events, got %s", gotPath)
	}
	if gotQuery != "country=GB&eventcode=LIVE%2CCLUB&keyword=London" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(evs) != 2 || evs[0].ID != "1" || evs[1].ID != "2" {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if evs[1].Venue.Coordinates() != (events.Coordinates{Latitude: 52, Longitude: -1}) {
		t.Errorf("unexpected venue coordinates %+v", evs[1].Venue.Coordinates())
	}
}

func TestFetchEmptyArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	evs, err := c.Fetch(context.Background(), events.FilterCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evs == nil || len(evs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", evs)
	}
}

func TestFetchNonSuccessIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background(), events.FilterCriteria{})
	var te *events.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
	if te.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", te.StatusCode)
	}
}

func TestFetchMalformedBodyIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})

	_, err := c.Fetch(context.Background(), events.FilterCriteria{})
	var de *events.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T (%v)", err, err)
	}
	if !events.IsUpstream(err) {
		t.Error("decode errors should count as upstream failures")
	}
}

func TestFetchUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, zap.NewNop().Sugar(), nil)
	_, err := c.Fetch(context.Background(), events.FilterCriteria{})
	var te *events.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
	if te.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", te.StatusCode)
	}
}

func TestFetchEventAndAttendees(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/42":
			w.Write([]byte(`{"id": "42", "eventname": "Detail", "venue": {"name": "Hall"}}`))
		case "/events/42/user-locations":
			w.Write([]byte(`[{"id": 7, "latitude": 51.4, "longitude": -0.2}]`))
		default:
			http.NotFound(w, r)
		}
	})

	ev, err := c.FetchEvent(context.Background(), "42")
	if err != nil {
		t.Fatalf("FetchEvent: %v", err)
	}
	if ev.Name != "Detail" {
		t.Errorf("unexpected event %+v", ev)
	}

	locs, err := c.FetchAttendees(context.Background(), "42")
	if err != nil {
		t.Fatalf("FetchAttendees: %v", err)
	}
	if len(locs) != 1 || locs[0].UserID != "7" {
		t.Errorf("unexpected attendees %+v", locs)
	}

	if _, err := c.FetchEvent(context.Background(), "404"); err == nil {
		t.Error("expected error for unknown event")
	}
}
