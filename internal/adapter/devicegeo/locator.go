// Package devicegeo provides sources of device coordinates for the
// geolocation resolver.
package devicegeo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/weather-location-service/internal/domain"
)

// Static always reports the configured position.
type Static struct {
	coords domain.Coordinates
}

// NewStatic returns a locator fixed at coords.
func NewStatic(coords domain.Coordinates) *Static {
	return &Static{coords: coords}
}

func (s *Static) Locate(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, mapContextErr(err)
	}
	return s.coords, nil
}

// Unsupported models a device without geolocation support.
type Unsupported struct{}

func (Unsupported) Locate(context.Context) (domain.Coordinates, error) {
	return domain.Coordinates{}, domain.ErrPositionUnavailable
}

// IPAPI approximates the device position from its public IP address using an
// ip-api.com compatible endpoint.
type IPAPI struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

type ipapiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
}

// NewIPAPI returns an IP geolocation locator querying url.
func NewIPAPI(url, userAgent string, timeout time.Duration, logger *slog.Logger) *IPAPI {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &IPAPI{client: client, url: url, logger: logger.With("component", "ipapi")}
}

func (l *IPAPI) Locate(ctx context.Context) (domain.Coordinates, error) {
	var body ipapiResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon,city").
		SetResult(&body).
		Get(l.url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Coordinates{}, mapContextErr(ctxErr)
		}
		l.logger.Warn("ip geolocation request failed", "error", err)
		return domain.Coordinates{}, fmt.Errorf("%w: %w", domain.ErrPositionUnavailable,
			&domain.NetworkError{Op: "locate", Err: err})
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.Coordinates{}, domain.ErrPermissionDenied
	default:
		return domain.Coordinates{}, fmt.Errorf("%w: %w", domain.ErrPositionUnavailable,
			&domain.NetworkError{Op: "locate", Status: resp.StatusCode(), Err: errors.New(resp.Status())})
	}

	if body.Status != "success" {
		l.logger.Info("ip geolocation returned no position", "message", body.Message)
		return domain.Coordinates{}, fmt.Errorf("%w: %s", domain.ErrPositionUnavailable, body.Message)
	}
	return domain.Coordinates{Latitude: body.Lat, Longitude: body.Lon}, nil
}

func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return err
}
