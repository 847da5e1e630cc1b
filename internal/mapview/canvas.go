package mapview

import (
	"slices"
	"sync"

	"eventconnect/internal/domain/events"

	"github.com/google/uuid"
)

// Canvas is an in-memory Map. It keeps the state a browser widget would draw and lets the
// host replay user interactions through Trigger.
type Canvas struct {
	mu      sync.Mutex
	center  events.Coordinates
	zoom    int
	bounds  *Bounds
	order   []MarkerHandle
	markers map[MarkerHandle]*marker
	open    MarkerHandle
	overlay *Overlay
}

type marker struct {
	opts      MarkerOptions
	listeners map[EventType][]Listener
}

var _ Map = (*Canvas)(nil)

func New(center events.Coordinates, zoom int) *Canvas {
	return &Canvas{
		center:  center,
		zoom:    zoom,
		markers: make(map[MarkerHandle]*marker),
	}
}

// NewFactory adapts New to a Factory.
func NewFactory() Factory {
	return func(center events.Coordinates, zoom int) Map { return New(center, zoom) }
}

func (c *Canvas) AddMarker(opts MarkerOptions) MarkerHandle {
	h := MarkerHandle(uuid.NewString())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[h] = &marker{opts: opts, listeners: make(map[EventType][]Listener)}
	c.order = append(c.order, h)
	return h
}

func (c *Canvas) RemoveMarker(h MarkerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markers[h]; !ok {
		return
	}
	delete(c.markers, h)
	c.order = slices.DeleteFunc(c.order, func(o MarkerHandle) bool { return o == h })
	if c.open == h {
		c.open, c.overlay = "", nil
	}
}

func (c *Canvas) AddListener(h MarkerHandle, ev EventType, fn Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.markers[h]
	if !ok {
		return ErrUnknownMarker
	}
	m.listeners[ev] = append(m.listeners[ev], fn)
	return nil
}

// OpenInfo shows o anchored at h. Only one info window is open at a time.
func (c *Canvas) OpenInfo(h MarkerHandle, o Overlay) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markers[h]; !ok {
		return ErrUnknownMarker
	}
	o.Lines = slices.Clone(o.Lines)
	c.open, c.overlay = h, &o
	return nil
}

func (c *Canvas) CloseInfo(h MarkerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open == h {
		c.open, c.overlay = "", nil
	}
}

func (c *Canvas) SetCenter(center events.Coordinates) {
	c.mu.Lock()
	c.center = center
	c.mu.Unlock()
}

func (c *Canvas) SetZoom(z int) {
	c.mu.Lock()
	c.zoom = z
	c.mu.Unlock()
}

func (c *Canvas) FitBounds(b Bounds) {
	c.mu.Lock()
	c.bounds = &b
	c.center = b.Center()
	c.mu.Unlock()
}

func (c *Canvas) Center() events.Coordinates {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

func (c *Canvas) Zoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Trigger fires ev on marker h, running its listeners in registration order.
func (c *Canvas) Trigger(h MarkerHandle, ev EventType) error {
	c.mu.Lock()
	m, ok := c.markers[h]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownMarker
	}
	fns := slices.Clone(m.listeners[ev])
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// Has reports whether h is currently on the map.
func (c *Canvas) Has(h MarkerHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.markers[h]
	return ok
}

type MarkerState struct {
	Handle   MarkerHandle       `json:"handle"`
	Title    string             `json:"title"`
	Position events.Coordinates `json:"position"`
}

type State struct {
	Center  events.Coordinates `json:"center"`
	Zoom    int                `json:"zoom"`
	Bounds  *Bounds            `json:"bounds,omitempty"`
	Markers []MarkerState      `json:"markers"`
	// OpenInfo is the marker whose info window is showing, if any.
	OpenInfo MarkerHandle `json:"open_info,omitempty"`
	Overlay  *Overlay     `json:"overlay,omitempty"`
}

// Snapshot returns a copy of everything the widget would draw, markers in insertion order.
func (c *Canvas) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Center:   c.center,
		Zoom:     c.zoom,
		Markers:  make([]MarkerState, 0, len(c.order)),
		OpenInfo: c.open,
	}
	if c.bounds != nil {
		b := *c.bounds
		s.Bounds = &b
	}
	if c.overlay != nil {
		o := *c.overlay
		o.Lines = slices.Clone(o.Lines)
		s.Overlay = &o
	}
	for _, h := range c.order {
		m := c.markers[h]
		s.Markers = append(s.Markers, MarkerState{Handle: h, Title: m.opts.Title, Position: m.opts.Position})
	}
	return s
}
