package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"eventconnect/internal/domain/events"

	"go.uber.org/zap"
)

type fakeFetcher struct {
	events []events.RawEvent
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ events.FilterCriteria) ([]events.RawEvent, error) {
	f.calls++
	return f.events, f.err
}

type enricherFunc func(ctx context.Context, c events.Coordinates) string

func (f enricherFunc) Enrich(ctx context.Context, c events.Coordinates) string { return f(ctx, c) }

func rawEvents(n int) []events.RawEvent {
	out := make([]events.RawEvent, n)
	for i := range out {
		out[i] = events.RawEvent{
			ID:    events.EventID(fmt.Sprint(i + 1)),
			Name:  fmt.Sprintf("event %d", i+1),
			Venue: events.Venue{Latitude: float64(i), Longitude: float64(-i)},
		}
	}
	return out
}

func TestAggregatePreservesFetchOrder(t *testing.T) {
	const n = 25
	raw := rawEvents(n)

	// later events finish first
	enricher := enricherFunc(func(_ context.Context, c events.Coordinates) string {
		time.Sleep(time.Duration(n-int(c.Latitude)) * time.Millisecond)
		return fmt.Sprintf("weather for %.0f", c.Latitude)
	})

	for _, limit := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			a := New(&fakeFetcher{events: raw}, enricher, limit, zap.NewNop().Sugar(), nil)

			out, err := a.Aggregate(context.Background(), events.FilterCriteria{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != n {
				t.Fatalf("expected %d events, got %d", n, len(out))
			}
			for i := range out {
				if out[i].ID != raw[i].ID {
					t.Errorf("index %d: expected id %s, got %s", i, raw[i].ID, out[i].ID)
				}
				if want := fmt.Sprintf("weather for %d", i); out[i].Weather != want {
					t.Errorf("index %d: expected weather %q, got %q", i, want, out[i].Weather)
				}
			}
		})
	}
}

func TestAggregateRunsLookupsConcurrently(t *testing.T) {
	const n = 8
	var inFlight, peak atomic.Int32
	enricher := enricherFunc(func(context.Context, events.Coordinates) string {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return "ok"
	})

	a := New(&fakeFetcher{events: rawEvents(n)}, enricher, 0, zap.NewNop().Sugar(), nil)
	if _, err := a.Aggregate(context.Background(), events.FilterCriteria{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() < 2 {
		t.Errorf("expected concurrent lookups, peak was %d", peak.Load())
	}
}

func TestAggregateFetchFailurePropagates(t *testing.T) {
	fetchErr := &events.TransportError{Op: "fetch events", StatusCode: 502, Err: errors.New("bad gateway")}
	var lookups atomic.Int32
	enricher := enricherFunc(func(context.Context, events.Coordinates) string {
		lookups.Add(1)
		return "x"
	})

	a := New(&fakeFetcher{err: fetchErr}, enricher, 0, zap.NewNop().Sugar(), nil)
	out, err := a.Aggregate(context.Background(), events.FilterCriteria{})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected the fetch error back, got %v", err)
	}
	if out != nil {
		t.Errorf("expected no events, got %v", out)
	}
	if lookups.Load() != 0 {
		t.Errorf("expected no weather lookups, got %d", lookups.Load())
	}
}

func TestAggregateWeatherAlwaysFailing(t *testing.T) {
	const fallback = "Weather information unavailable"
	enricher := enricherFunc(func(context.Context, events.Coordinates) string { return fallback })

	a := New(&fakeFetcher{events: rawEvents(5)}, enricher, 0, zap.NewNop().Sugar(), nil)
	out, err := a.Aggregate(context.Background(), events.FilterCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 events, got %d", len(out))
	}
	for i, ev := range out {
		if ev.Weather != fallback {
			t.Errorf("index %d: expected fallback weather, got %q", i, ev.Weather)
		}
	}
}

func TestAggregateEmptyListing(t *testing.T) {
	a := New(&fakeFetcher{events: []events.RawEvent{}}, enricherFunc(func(context.Context, events.Coordinates) string {
		t.Error("no lookups expected")
		return ""
	}), 0, zap.NewNop().Sugar(), nil)

	out, err := a.Aggregate(context.Background(), events.FilterCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty listing, got %#v", out)
	}
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	enricher := enricherFunc(func(context.Context, events.Coordinates) string {
		cancel()
		return "late"
	})

	a := New(&fakeFetcher{events: rawEvents(3)}, enricher, 1, zap.NewNop().Sugar(), nil)
	if _, err := a.Aggregate(ctx, events.FilterCriteria{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAggregateLondonScenario(t *testing.T) {
	raw := []events.RawEvent{
		{ID: "1", Venue: events.Venue{Latitude: 51.5, Longitude: -0.1}},
		{ID: "2", Venue: events.Venue{Latitude: 52, Longitude: -1}},
	}
	enricher := enricherFunc(func(context.Context, events.Coordinates) string { return "Clear, Temperature: 15.0°C" })

	a := New(&fakeFetcher{events: raw}, enricher, 0, zap.NewNop().Sugar(), nil)
	out, err := a.Aggregate(context.Background(), events.FilterCriteria{Location: "London"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" || out[1].ID != "2" {
		t.Fatalf("unexpected order: %+v", out)
	}
	for _, ev := range out {
		if ev.Weather != "Clear, Temperature: 15.0°C" {
			t.Errorf("event %s: unexpected weather %q", ev.ID, ev.Weather)
		}
	}
}
