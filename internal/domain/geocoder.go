package domain

import "context"

// Geocoder is the gateway to a geocoding provider. Implementations are pure
// transport: no retries, no caching, no state shared between calls.
type Geocoder interface {
	// ForwardSearch converts free text to candidate places, in provider order.
	// Input shorter than MinQueryLength yields an empty result, not an error.
	ForwardSearch(ctx context.Context, text string) ([]PlaceSuggestion, error)

	// ReverseLookup converts coordinates to a single place with its address breakdown.
	ReverseLookup(ctx context.Context, coords Coordinates) (PlaceSuggestion, error)
}

// DeviceLocator reads the device's current position. Implementations honour
// ctx cancellation and report failures as ErrPermissionDenied,
// ErrPositionUnavailable or ErrTimeout.
type DeviceLocator interface {
	Locate(ctx context.Context) (Coordinates, error)
}
