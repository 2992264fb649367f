package visualcrossing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-location-service/internal/domain"
)

const timelineJSON = `{
	"resolvedAddress": "Kampala, Central Region, Uganda",
	"timezone": "Africa/Kampala",
	"latitude": 0.3476,
	"longitude": 32.5825,
	"days": [
		{"datetime": "2024-04-26", "temp": 23.1, "tempmax": 27.9, "tempmin": 18.4,
		 "feelslike": 23.5, "humidity": 78.2, "windspeed": 11.2, "precipprob": 90,
		 "conditions": "Rain, Partially cloudy", "description": "Rain in the afternoon.", "icon": "rain"},
		{"datetime": "2024-04-27", "temp": 22.0, "tempmax": 26.0, "tempmin": 18.0, "icon": "partly-cloudy-day"}
	]
}`

func newTestClient(url, key string) *Client {
	return NewClient(url, key, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeline/Kampala", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "metric", q.Get("unitGroup"))
		assert.Equal(t, "days", q.Get("include"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "json", q.Get("contentType"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timelineJSON))
	}))
	defer srv.Close()

	p := newTestClient(srv.URL+"/timeline/", "test-key").FetchWeather(context.Background(), "Kampala", domain.Celsius)
	require.NotNil(t, p)
	assert.Equal(t, "Kampala, Central Region, Uganda", p.ResolvedAddress)
	assert.Equal(t, "Africa/Kampala", p.Timezone)
	require.Len(t, p.Days, 2)

	today, ok := p.Today()
	require.True(t, ok)
	assert.Equal(t, "2024-04-26", today.Date)
	assert.InDelta(t, 27.9, today.TempMax, 0.001)
	assert.InDelta(t, 90, today.PrecipProb, 0.001)
	assert.Equal(t, "rain", today.Icon)
}

func TestFetchWeather_FahrenheitAndCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/51.5074,-0.1278", r.URL.Path)
		assert.Equal(t, "us", r.URL.Query().Get("unitGroup"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timelineJSON))
	}))
	defer srv.Close()

	p := newTestClient(srv.URL, "k").FetchWeather(context.Background(), "51.5074,-0.1278", domain.Fahrenheit)
	assert.NotNil(t, p)
}

func TestFetchWeather_EmptyLocationUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+DefaultLocation, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timelineJSON))
	}))
	defer srv.Close()

	assert.NotNil(t, newTestClient(srv.URL, "k").FetchWeather(context.Background(), "  ", domain.Celsius))
}

func TestFetchWeather_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		ctype  string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: "Invalid location parameter value.", ctype: "text/plain"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", ctype: "text/plain"},
		{name: "malformed body", status: http.StatusOK, body: `{"days": [`, ctype: "application/json"},
		{name: "no days", status: http.StatusOK, body: `{"resolvedAddress": "Nowhere", "days": []}`, ctype: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.ctype)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			assert.Nil(t, newTestClient(srv.URL, "k").FetchWeather(context.Background(), "Kampala", domain.Celsius))
		})
	}
}

func TestFetchWeather_NoKeySkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	assert.Nil(t, newTestClient(srv.URL, "").FetchWeather(context.Background(), "Kampala", domain.Celsius))
	assert.Zero(t, calls.Load())
}

func TestFetchWeather_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	assert.Nil(t, newTestClient(url, "k").FetchWeather(context.Background(), "Kampala", domain.Celsius))
}

var _ domain.WeatherFetcher = (*Client)(nil)
