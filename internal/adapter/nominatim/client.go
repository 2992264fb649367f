// Package nominatim implements domain.Geocoder against an OpenStreetMap
// Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

const (
	// DefaultBaseURL is the public Nominatim API endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the client per the OSM usage policy.
	DefaultUserAgent = "WeatherApp/1.0"
	// DefaultLimit is the number of suggestions requested per search.
	DefaultLimit = 7
	// DefaultRateLimit is 1 request per second (OSM policy).
	DefaultRateLimit = rate.Limit(1.0)

	maxLimit = 50
)

// Client implements domain.Geocoder using the Nominatim search and reverse
// endpoints. It never retries and never caches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limit      int
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets the request pace in requests per second. A value <= 0
// removes the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		limit := rate.Limit(rps)
		if rps <= 0 {
			limit = rate.Inf
		}
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithUserAgent sets the client identifier header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLimit sets the maximum number of suggestions per search.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = min(n, maxLimit)
		}
	}
}

// NewClient creates a Nominatim client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		limit:      DefaultLimit,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
		metrics:    metrics,
		logger:     logger.With("component", "nominatim"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForwardSearch returns candidate places for text in the server's order.
// Text with fewer than domain.MinQueryLength meaningful characters yields an
// empty result without a request.
func (c *Client) ForwardSearch(ctx context.Context, text string) ([]domain.PlaceSuggestion, error) {
	query := strings.TrimSpace(text)
	if domain.MeaningfulLength(query) < domain.MinQueryLength {
		return []domain.PlaceSuggestion{}, nil
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(c.limit)},
	}

	var results []searchResult
	if err := c.get(ctx, "forward", c.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	suggestions := make([]domain.PlaceSuggestion, 0, len(results))
	for _, r := range results {
		lat, lon, err := parseLatLon(r.Lat, r.Lon)
		if err != nil {
			c.logger.Warn("skipping search result with bad coordinates", "place_id", r.PlaceID, "error", err)
			continue
		}
		suggestions = append(suggestions, domain.PlaceSuggestion{
			ID:          domain.SuggestionKey(placeID(r.PlaceID), lat, lon),
			DisplayName: r.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
			Address:     r.Address.toMap(),
			Kind:        r.Type,
		})
	}

	outcome := "success"
	if len(suggestions) == 0 {
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues("forward", outcome).Inc()
	return suggestions, nil
}

// ReverseLookup returns the place at coords with its address components.
func (c *Client) ReverseLookup(ctx context.Context, coords domain.Coordinates) (domain.PlaceSuggestion, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(coords.Latitude, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(coords.Longitude, 'f', 6, 64)},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
	}

	var r reverseResult
	if err := c.get(ctx, "reverse", c.baseURL+"/reverse?"+params.Encode(), &r); err != nil {
		return domain.PlaceSuggestion{}, err
	}

	if r.Error != "" {
		// Open water and similar positions have no address; callers fall back
		// to the coordinate label.
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return domain.PlaceSuggestion{
			ID:        domain.SuggestionKey("", coords.Latitude, coords.Longitude),
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		}, nil
	}

	lat, lon, err := parseLatLon(r.Lat, r.Lon)
	if err != nil {
		lat, lon = coords.Latitude, coords.Longitude
	}
	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	return domain.PlaceSuggestion{
		ID:          domain.SuggestionKey(placeID(r.PlaceID), lat, lon),
		DisplayName: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
		Address:     r.Address.toMap(),
		Kind:        r.Type,
	}, nil
}

func (c *Client) get(ctx context.Context, method, requestURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s rate limiter: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fail(method, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return c.fail(method, resp.StatusCode, fmt.Errorf("nominatim API error: %s", strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(method, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(method string, status int, err error) error {
	c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
	c.logger.Warn("geocode request failed", "method", method, "status", status, "error", err)
	return &domain.NetworkError{Op: method, Status: status, Err: err}
}

func placeID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseLatLon(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lat %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lon %q: %w", lonStr, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, errors.New("coordinates out of range")
	}
	return lat, lon, nil
}
