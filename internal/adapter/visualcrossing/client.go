// Package visualcrossing fetches day-indexed forecasts from the Visual
// Crossing timeline API.
package visualcrossing

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/weather-location-service/internal/domain"
)

const (
	// DefaultBaseURL is the timeline endpoint; the location is appended as a path segment.
	DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

	// DefaultLocation is requested when the caller passes no location.
	DefaultLocation = "kampala,ug"
)

// Client implements domain.WeatherFetcher. It never returns an error: any
// failure yields a nil payload.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a timeline client. An empty apiKey disables fetching.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With("component", "visualcrossing"),
	}
}

type timelineResponse struct {
	ResolvedAddress string        `json:"resolvedAddress"`
	Timezone        string        `json:"timezone"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	Days            []timelineDay `json:"days"`
}

type timelineDay struct {
	Datetime    string  `json:"datetime"`
	Temp        float64 `json:"temp"`
	TempMax     float64 `json:"tempmax"`
	TempMin     float64 `json:"tempmin"`
	FeelsLike   float64 `json:"feelslike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windspeed"`
	PrecipProb  float64 `json:"precipprob"`
	Conditions  string  `json:"conditions"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// unitGroup maps the temperature unit to the API's unit system.
func unitGroup(u domain.Unit) string {
	if u == domain.Fahrenheit {
		return "us"
	}
	return "metric"
}

func (c *Client) FetchWeather(ctx context.Context, location string, unit domain.Unit) *domain.WeatherPayload {
	if c.apiKey == "" {
		c.logger.Debug("weather fetch skipped, no api key")
		return nil
	}
	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}

	var body timelineResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("location", location).
		SetQueryParams(map[string]string{
			"unitGroup":   unitGroup(unit),
			"include":     "days",
			"key":         c.apiKey,
			"contentType": "json",
		}).
		SetResult(&body).
		Get(c.baseURL + "/{location}")
	if err != nil {
		c.logger.Warn("weather fetch failed", "location", location, "error", err)
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("weather fetch rejected",
			"location", location, "status", resp.StatusCode(), "body", truncate(resp.String(), 200))
		return nil
	}
	if len(body.Days) == 0 {
		c.logger.Warn("weather response has no days", "location", location)
		return nil
	}
	return body.toPayload()
}

func (r timelineResponse) toPayload() *domain.WeatherPayload {
	p := &domain.WeatherPayload{
		ResolvedAddress: r.ResolvedAddress,
		Timezone:        r.Timezone,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Days:            make([]domain.WeatherDay, len(r.Days)),
	}
	for i, d := range r.Days {
		p.Days[i] = domain.WeatherDay{
			Date:        d.Datetime,
			Temp:        d.Temp,
			TempMax:     d.TempMax,
			TempMin:     d.TempMin,
			FeelsLike:   d.FeelsLike,
			Humidity:    d.Humidity,
			WindSpeed:   d.WindSpeed,
			PrecipProb:  d.PrecipProb,
			Conditions:  d.Conditions,
			Description: d.Description,
			Icon:        d.Icon,
		}
	}
	return p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
