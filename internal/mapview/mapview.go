package mapview

import (
	"errors"
	"math"

	"eventconnect/internal/domain/events"
)

// Zoom levels used by the views.
const (
	ZoomInitial = 8
	ZoomEvent   = 11
	ZoomWorld   = 2
)

var ErrUnknownMarker = errors.New("unknown marker")

// MarkerHandle identifies a marker placed on a Map. Handles are never reused.
type MarkerHandle string

type EventType string

const (
	Click      EventType = "click"
	HoverEnter EventType = "mouseover"
	HoverLeave EventType = "mouseout"
)

// ParseEventType accepts the wire names plus a few aliases.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "click":
		return Click, true
	case "mouseover", "hover", "enter":
		return HoverEnter, true
	case "mouseout", "leave":
		return HoverLeave, true
	}
	return "", false
}

type Listener func()

// Overlay is the content of a marker's info window.
type Overlay struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type MarkerOptions struct {
	Position events.Coordinates
	Title    string
}

// Map is the map widget capability. Implementations must be safe for concurrent use and
// must not hold internal locks while running listeners.
type Map interface {
	AddMarker(opts MarkerOptions) MarkerHandle
	RemoveMarker(h MarkerHandle)
	AddListener(h MarkerHandle, ev EventType, fn Listener) error
	OpenInfo(h MarkerHandle, o Overlay) error
	CloseInfo(h MarkerHandle)
	SetCenter(c events.Coordinates)
	SetZoom(z int)
	FitBounds(b Bounds)
	Center() events.Coordinates
	Zoom() int
}

// Bounds is the smallest lat/lng box containing a set of points.
type Bounds struct {
	SouthWest events.Coordinates `json:"south_west"`
	NorthEast events.Coordinates `json:"north_east"`
}

// NewBounds returns the box around points; ok is false when points is empty.
func NewBounds(points ...events.Coordinates) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b, true
}

func (b Bounds) Extend(p events.Coordinates) Bounds {
	b.SouthWest.Latitude = math.Min(b.SouthWest.Latitude, p.Latitude)
	b.SouthWest.Longitude = math.Min(b.SouthWest.Longitude, p.Longitude)
	b.NorthEast.Latitude = math.Max(b.NorthEast.Latitude, p.Latitude)
	b.NorthEast.Longitude = math.Max(b.NorthEast.Longitude, p.Longitude)
	return b
}

func (b Bounds) Center() events.Coordinates {
	return events.Coordinates{
		Latitude:  (b.SouthWest.Latitude + b.NorthEast.Latitude) / 2,
		Longitude: (b.SouthWest.Longitude + b.NorthEast.Longitude) / 2,
	}
}

// Factory creates a map centered on center at the given zoom.
type Factory func(center events.Coordinates, zoom int) Map
