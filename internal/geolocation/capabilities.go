package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"eventconnect/internal/domain/events"
)

const DefaultIPLookupURL = "http://ip-api.com/json/"

// IPLookup approximates the position from the public IP address of this process.
type IPLookup struct {
	URL        string
	HTTPClient *http.Client
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l IPLookup) CurrentPosition(ctx context.Context) (events.Coordinates, error) {
	u := l.URL
	if u == "" {
		u = DefaultIPLookupURL
	}
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return events.Coordinates{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return events.Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return events.Coordinates{}, fmt.Errorf("ip lookup: http %d", resp.StatusCode)
	}

	var data ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return events.Coordinates{}, fmt.Errorf("ip lookup: decode: %w", err)
	}
	if !strings.EqualFold(data.Status, "success") {
		return events.Coordinates{}, fmt.Errorf("ip lookup: status %q: %s", data.Status, data.Message)
	}
	return events.Coordinates{Latitude: data.Lat, Longitude: data.Lon}, nil
}

// Static always reports the same configured position.
type Static events.Coordinates

func (s Static) CurrentPosition(context.Context) (events.Coordinates, error) {
	return events.Coordinates(s), nil
}
