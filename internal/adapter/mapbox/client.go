// Package mapbox implements domain.Geocoder using the Mapbox Places API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

const (
	// DefaultBaseURL is the Mapbox Places endpoint.
	DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// DefaultLimit is the number of suggestions requested per search.
	DefaultLimit = 7

	// Mapbox caps autocomplete results at 10.
	maxLimit = 10
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limit      int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client. limit <= 0 uses DefaultLimit.
func NewClient(token string, timeout time.Duration, limit int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		limit:   min(limit, maxLimit),
		metrics: metrics,
		logger:  logger.With("component", "mapbox"),
	}
}

// ForwardSearch returns candidate places for text in relevance order.
// Text with fewer than domain.MinQueryLength meaningful characters yields an
// empty result without a request.
func (c *Client) ForwardSearch(ctx context.Context, text string) ([]domain.PlaceSuggestion, error) {
	query := strings.TrimSpace(text)
	if domain.MeaningfulLength(query) < domain.MinQueryLength {
		return []domain.PlaceSuggestion{}, nil
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"autocomplete": {"true"},
		"limit":        {strconv.Itoa(c.limit)},
		"types":        {"place,locality,region,country,postcode"},
	}

	resp, err := c.doRequest(ctx, u+"?"+params.Encode(), "forward")
	if err != nil {
		return nil, err
	}

	suggestions := make([]domain.PlaceSuggestion, 0, len(resp.Features))
	for _, f := range resp.Features {
		if s, ok := f.toSuggestion(); ok {
			suggestions = append(suggestions, s)
		}
	}

	outcome := "success"
	if len(suggestions) == 0 {
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues("forward", outcome).Inc()
	return suggestions, nil
}

// ReverseLookup returns the most specific place at coords.
func (c *Client) ReverseLookup(ctx context.Context, coords domain.Coordinates) (domain.PlaceSuggestion, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", coords.Longitude, coords.Latitude)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality,region,country"},
	}

	resp, err := c.doRequest(ctx, u+"?"+params.Encode(), "reverse")
	if err != nil {
		return domain.PlaceSuggestion{}, err
	}

	if len(resp.Features) > 0 {
		if s, ok := resp.Features[0].toSuggestion(); ok {
			c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
			return s, nil
		}
	}

	c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
	return domain.PlaceSuggestion{
		ID:        domain.SuggestionKey("", coords.Latitude, coords.Longitude),
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		return response{}, c.fail(method, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return response{}, c.fail(method, resp.StatusCode, fmt.Errorf("mapbox API error: %s", body))
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return response{}, c.fail(method, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return mapboxResp, nil
}

func (c *Client) fail(method string, status int, err error) error {
	c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
	c.logger.Warn("geocode request failed", "method", method, "status", status, "error", err)
	return &domain.NetworkError{Op: method, Status: status, Err: err}
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string         `json:"id"`
	Center    []float64      `json:"center"` // [lon, lat]
	PlaceName string         `json:"place_name"`
	PlaceType []string       `json:"place_type"`
	Text      string         `json:"text"`
	Relevance float64        `json:"relevance"`
	Context   []contextEntry `json:"context"`
}

type contextEntry struct {
	ID        string `json:"id"` // "<type>.<n>", e.g. "region.9417"
	Text      string `json:"text"`
	ShortCode string `json:"short_code,omitempty"`
}

// componentKeys maps Mapbox place types to domain address keys.
var componentKeys = map[string]string{
	"place":    domain.AddressCity,
	"locality": domain.AddressTown,
	"district": domain.AddressCounty,
	"region":   domain.AddressState,
	"postcode": domain.AddressPostcode,
	"country":  domain.AddressCountry,
}

func (f feature) toSuggestion() (domain.PlaceSuggestion, bool) {
	if len(f.Center) != 2 {
		return domain.PlaceSuggestion{}, false
	}
	lon, lat := f.Center[0], f.Center[1]

	address := make(map[string]string)
	for _, entry := range f.Context {
		kind, _, _ := strings.Cut(entry.ID, ".")
		if key, ok := componentKeys[kind]; ok && entry.Text != "" {
			address[key] = entry.Text
		}
	}
	kind := ""
	if len(f.PlaceType) > 0 {
		kind = f.PlaceType[0]
		if key, ok := componentKeys[kind]; ok && f.Text != "" {
			address[key] = f.Text
		}
	}
	if len(address) == 0 {
		address = nil
	}

	return domain.PlaceSuggestion{
		ID:          domain.SuggestionKey(f.ID, lat, lon),
		DisplayName: f.PlaceName,
		Latitude:    lat,
		Longitude:   lon,
		Address:     address,
		Kind:        kind,
	}, true
}
