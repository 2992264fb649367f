//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, DefaultLimit, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardSearch(t *testing.T) {
	c := smokeClient(t)

	got, err := c.ForwardSearch(context.Background(), "Austin, TX")
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.InDelta(t, 30.27, got[0].Latitude, 0.1, "lat should be near Austin")
	assert.InDelta(t, -97.74, got[0].Longitude, 0.1, "lon should be near Austin")
	assert.Contains(t, got[0].DisplayName, "Austin")
}

func TestSmoke_ReverseLookup(t *testing.T) {
	c := smokeClient(t)

	got, err := c.ReverseLookup(context.Background(), domain.Coordinates{Latitude: 30.2672, Longitude: -97.7431})
	require.NoError(t, err)

	assert.Equal(t, "Austin", domain.DerivePlaceName(got.Address, got.Coordinates()))
}

func TestSmoke_ForwardSearch_Nonsense(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return results for nonsense queries, so only
	// the absence of an error is checked.
	_, err := c.ForwardSearch(context.Background(), "XYZNONEXISTENT99")
	require.NoError(t, err)
}
