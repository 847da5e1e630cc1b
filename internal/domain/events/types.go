package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FallbackCoordinates is central London, used whenever no better position is known.
var FallbackCoordinates = Coordinates{Latitude: 51.5072, Longitude: -0.1275}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair is inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Text is a string field that the backend sometimes sends as a JSON number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("text field: %w", err)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// EventID identifies an event on the backend.
type EventID = Text

// Venue is where an event takes place.
type Venue struct {
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	Postcode       string  `json:"postcode,omitempty"`
	PostcodeLookup string  `json:"postcode_lookup,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// Coordinates returns the venue position.
func (v Venue) Coordinates() Coordinates {
	return Coordinates{Latitude: v.Latitude, Longitude: v.Longitude}
}

// DisplayPostcode prefers the lookup postcode the backend resolves for display.
func (v Venue) DisplayPostcode() string {
	if v.PostcodeLookup != "" {
		return v.PostcodeLookup
	}
	return v.Postcode
}

// RawEvent is an event exactly as the backend returns it.
type RawEvent struct {
	ID          EventID `json:"id"`
	Name        string  `json:"eventname"`
	Venue       Venue   `json:"venue"`
	Date        string  `json:"date"`
	ImageURL    string  `json:"imageurl"`
	Description string  `json:"description,omitempty"`
	EntryPrice  Text    `json:"entryprice,omitempty"`
	MinAge      Text    `json:"minage,omitempty"`
	Link        string  `json:"link,omitempty"`
}

// EnrichedEvent is a RawEvent with its best-effort weather annotation.
type EnrichedEvent struct {
	RawEvent
	Weather string `json:"weather,omitempty"`
}

// AttendeeLocation is the last known position of a user registered for an event.
type AttendeeLocation struct {
	UserID    Text    `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (a AttendeeLocation) Coordinates() Coordinates {
	return Coordinates{Latitude: a.Latitude, Longitude: a.Longitude}
}

// DetailRoute is the navigation target for an event's detail view.
func DetailRoute(id EventID) string {
	return "/event-details.html?eventId=" + string(id)
}

// ProfileRoute is the navigation target for another user's profile.
func ProfileRoute(userID Text) string {
	return "/other-user-profile.html?userId=" + string(userID)
}

// Position is a resolved or fallback location together with where it came from.
type Position struct {
	Coordinates
	Provenance Provenance `json:"provenance"`
}

type Provenance string

const (
	ProvenanceResolved Provenance = "resolved"
	ProvenanceFallback Provenance = "fallback"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
