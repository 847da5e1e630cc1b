package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

	// Unavailable is the summary used whenever a lookup fails for any reason.
	Unavailable = "Weather information unavailable"

	kelvinOffset = 273.15
)

// Client looks up current conditions from an OpenWeatherMap-compatible endpoint.
// Enrich never fails: weather is an annotation, not something a listing depends on.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.SugaredLogger, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

type currentResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// Enrich returns e.g. "Clear, Temperature: 15.0°C", or Unavailable.
func (c *Client) Enrich(ctx context.Context, coords events.Coordinates) string {
	summary, err := c.lookup(ctx, coords)
	if err != nil {
		c.metrics.WeatherLookup(false)
		c.logger.Warnw("weather lookup failed", "coords", coords.String(), "error", err.Error())
		return Unavailable
	}
	c.metrics.WeatherLookup(true)
	return summary
}

func (c *Client) lookup(ctx context.Context, coords events.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("weather: http %d", resp.StatusCode)
	}

	var data currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("weather: decode: %w", err)
	}
	return summarize(data)
}

// summarize formats a provider response, failing when required fields are missing.
func summarize(data currentResponse) (string, error) {
	if len(data.Weather) == 0 || strings.TrimSpace(data.Weather[0].Main) == "" {
		return "", errors.New("weather: missing condition")
	}
	if data.Main.Temp == nil {
		return "", errors.New("weather: missing temperature")
	}
	return fmt.Sprintf("%s, Temperature: %.1f°C", data.Weather[0].Main, *data.Main.Temp-kelvinOffset), nil
}
