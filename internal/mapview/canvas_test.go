package mapview

import (
	"errors"
	"testing"

	"eventconnect/internal/domain/events"
)

func TestCanvasMarkers(t *testing.T) {
	c := New(events.FallbackCoordinates, ZoomInitial)

	a := c.AddMarker(MarkerOptions{Title: "a", Position: events.Coordinates{Latitude: 1, Longitude: 1}})
	b := c.AddMarker(MarkerOptions{Title: "b"})
	if a == b {
		t.Fatal("handles must be unique")
	}

	s := c.Snapshot()
	if len(s.Markers) != 2 || s.Markers[0].Handle != a || s.Markers[1].Handle != b {
		t.Fatalf("unexpected markers %+v", s.Markers)
	}

	c.RemoveMarker(a)
	c.RemoveMarker(a)
	if c.Has(a) || !c.Has(b) {
		t.Error("only b should remain")
	}
	if n := len(c.Snapshot().Markers); n != 1 {
		t.Errorf("expected 1 marker, got %d", n)
	}
}

func TestCanvasListeners(t *testing.T) {
	c := New(events.Coordinates{}, ZoomInitial)
	h := c.AddMarker(MarkerOptions{Title: "x"})

	var calls []string
	if err := c.AddListener(h, Click, func() { calls = append(calls, "first") }); err != nil {
		t.Fatal(err)
	}
	// listeners may call back into the map
	c.AddListener(h, Click, func() {
		calls = append(calls, "second")
		c.SetZoom(ZoomEvent)
	})

	if err := c.Trigger(h, Click); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("unexpected calls %v", calls)
	}
	if c.Zoom() != ZoomEvent {
		t.Errorf("expected zoom %d, got %d", ZoomEvent, c.Zoom())
	}

	if err := c.Trigger("missing", Click); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("expected ErrUnknownMarker, got %v", err)
	}
	if err := c.AddListener("missing", Click, func() {}); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("expected ErrUnknownMarker, got %v", err)
	}
}

func TestCanvasInfoWindow(t *testing.T) {
	c := New(events.Coordinates{}, ZoomInitial)
	a := c.AddMarker(MarkerOptions{})
	b := c.AddMarker(MarkerOptions{})

	c.OpenInfo(a, Overlay{Title: "A"})
	c.OpenInfo(b, Overlay{Title: "B"})
	if s := c.Snapshot(); s.OpenInfo != b || s.Overlay.Title != "B" {
		t.Fatalf("expected b open, got %+v", s)
	}

	c.CloseInfo(a)
	if c.Snapshot().OpenInfo != b {
		t.Error("closing a must not close b")
	}

	c.RemoveMarker(b)
	if s := c.Snapshot(); s.OpenInfo != "" || s.Overlay != nil {
		t.Errorf("removing the marker should close its window, got %+v", s)
	}
}

func TestBounds(t *testing.T) {
	if _, ok := NewBounds(); ok {
		t.Fatal("empty bounds should not be ok")
	}

	b, ok := NewBounds(
		events.Coordinates{Latitude: 50, Longitude: -2},
		events.Coordinates{Latitude: 52, Longitude: 0},
		events.Coordinates{Latitude: 51, Longitude: -1},
	)
	if !ok {
		t.Fatal("expected bounds")
	}
	if b.SouthWest != (events.Coordinates{Latitude: 50, Longitude: -2}) || b.NorthEast != (events.Coordinates{Latitude: 52, Longitude: 0}) {
		t.Errorf("unexpected bounds %+v", b)
	}
	if got := b.Center(); got != (events.Coordinates{Latitude: 51, Longitude: -1}) {
		t.Errorf("unexpected center %+v", got)
	}

	c := New(events.Coordinates{}, ZoomWorld)
	c.FitBounds(b)
	if c.Center() != b.Center() || c.Snapshot().Bounds == nil {
		t.Error("FitBounds should record bounds and recenter")
	}
}

func TestParseEventType(t *testing.T) {
	for in, want := range map[string]EventType{"click": Click, "hover": HoverEnter, "mouseover": HoverEnter, "leave": HoverLeave} {
		if got, ok := ParseEventType(in); !ok || got != want {
			t.Errorf("%s: expected %s, got %s", in, want, got)
		}
	}
	if _, ok := ParseEventType("dblclick"); ok {
		t.Error("dblclick should be rejected")
	}
}
