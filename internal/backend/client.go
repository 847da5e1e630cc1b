package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/metrics"

	"go.uber.org/zap"
)

const DefaultBaseURL = "http://localhost:8000"

// maxBodyBytes caps how much of a backend response we are willing to read.
const maxBodyBytes = 8 << 20

// Client talks to the events backend. It never retries; callers decide what a failure means.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.SugaredLogger, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// Fetch lists events matching criteria: GET /events?<query>.
func (c *Client) Fetch(ctx context.Context, criteria events.FilterCriteria) ([]events.RawEvent, error) {
	u := c.baseURL + "/events"
	if q := criteria.Query().Encode(); q != "" {
		u += "?" + q
	}

	var out []events.RawEvent
	if err := c.getJSON(ctx, "fetch events", "events", u, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []events.RawEvent{}
	}

	c.logger.Infow("events fetched", "count", len(out), "query", criteria.Query().Encode())
	return out, nil
}

// FetchEvent loads a single event: GET /events/{id}.
func (c *Client) FetchEvent(ctx context.Context, id events.EventID) (*events.RawEvent, error) {
	u := fmt.Sprintf("%s/events/%s", c.baseURL, url.PathEscape(string(id)))

	var ev events.RawEvent
	if err := c.getJSON(ctx, "fetch event", "event", u, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// FetchAttendees loads the positions of users registered for an event:
// GET /events/{id}/user-locations.
func (c *Client) FetchAttendees(ctx context.Context, id events.EventID) ([]events.AttendeeLocation, error) {
	u := fmt.Sprintf("%s/events/%s/user-locations", c.baseURL, url.PathEscape(string(id)))

	var out []events.AttendeeLocation
	if err := c.getJSON(ctx, "fetch attendees", "user_locations", u, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []events.AttendeeLocation{}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &events.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.BackendRequest(endpoint, "error")
		return &events.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.BackendRequest(endpoint, "error")
		return &events.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode/100 != 2 {
		c.metrics.BackendRequest(endpoint, strconv.Itoa(resp.StatusCode))
		msg := truncate(string(raw), 200)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &events.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.metrics.BackendRequest(endpoint, "decode_error")
		return &events.DecodeError{Op: op, Err: err}
	}

	c.metrics.BackendRequest(endpoint, "ok")
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
