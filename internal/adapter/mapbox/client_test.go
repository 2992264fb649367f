package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		limit:      DefaultLimit,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ForwardSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Austin")
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("autocomplete"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					ID:        "place.123",
					Center:    []float64{-97.7431, 30.2672},
					PlaceName: "Austin, Texas, United States",
					PlaceType: []string{"place"},
					Text:      "Austin",
					Relevance: 0.95,
					Context: []contextEntry{
						{ID: "region.9417", Text: "Texas", ShortCode: "US-TX"},
						{ID: "country.8940", Text: "United States", ShortCode: "us"},
					},
				},
				{
					Center:    []float64{-92.9742, 43.6666},
					PlaceName: "Austin, Minnesota, United States",
					PlaceType: []string{"place"},
					Text:      "Austin",
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.ForwardSearch(context.Background(), "Austin")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "place.123", got[0].ID)
	assert.InDelta(t, 30.2672, got[0].Latitude, 1e-9)
	assert.InDelta(t, -97.7431, got[0].Longitude, 1e-9)
	assert.Equal(t, "Austin, Texas, United States", got[0].DisplayName)
	assert.Equal(t, "place", got[0].Kind)
	assert.Equal(t, map[string]string{
		domain.AddressCity:    "Austin",
		domain.AddressState:   "Texas",
		domain.AddressCountry: "United States",
	}, got[0].Address)

	assert.Equal(t, domain.SuggestionKey("", 43.6666, -92.9742), got[1].ID)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "success")), 0)
}

func TestClient_ForwardSearch_ShortQuery(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).ForwardSearch(context.Background(), " a ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_ForwardSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.ForwardSearch(context.Background(), "NONEXISTENT")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "empty")), 0)
}

func TestClient_ReverseLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "-97.743100,30.267200")
		resp := response{
			Features: []feature{
				{
					ID:        "place.123",
					Center:    []float64{-97.7431, 30.2672},
					PlaceName: "Austin, Texas, United States",
					PlaceType: []string{"place"},
					Text:      "Austin",
					Relevance: 0.98,
					Context:   []contextEntry{{ID: "region.9417", Text: "Texas"}},
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.ReverseLookup(context.Background(), domain.Coordinates{Latitude: 30.2672, Longitude: -97.7431})
	require.NoError(t, err)

	assert.Equal(t, "Austin", domain.DerivePlaceName(got.Address, got.Coordinates()))
	assert.Equal(t, "Texas", got.Address[domain.AddressState])
}

func TestClient_ReverseLookup_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{}))
	}))
	defer srv.Close()

	coords := domain.Coordinates{Latitude: -10.5, Longitude: -140.25}
	got, err := testClient(srv.URL).ReverseLookup(context.Background(), coords)
	require.NoError(t, err)
	assert.Nil(t, got.Address)
	assert.Equal(t, coords, got.Coordinates())
}

func TestClient_ForwardSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.ForwardSearch(context.Background(), "Austin")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "error")), 0)
}

func TestClient_ForwardSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.ForwardSearch(context.Background(), "Austin")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestNewClient_ClampsLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, DefaultLimit, NewClient(testToken, time.Second, 0, testMetrics(), logger).limit)
	assert.Equal(t, maxLimit, NewClient(testToken, time.Second, 25, testMetrics(), logger).limit)
}
