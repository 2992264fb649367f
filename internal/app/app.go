// Package app wires the location service components from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-location-service/internal/adapter/devicegeo"
	kafkaadapter "github.com/couchcryptid/weather-location-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-location-service/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-location-service/internal/adapter/nominatim"
	"github.com/couchcryptid/weather-location-service/internal/adapter/postgres"
	"github.com/couchcryptid/weather-location-service/internal/adapter/visualcrossing"
	"github.com/couchcryptid/weather-location-service/internal/config"
	"github.com/couchcryptid/weather-location-service/internal/coordinator"
	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/geolocation"
	"github.com/couchcryptid/weather-location-service/internal/loccache"
	"github.com/couchcryptid/weather-location-service/internal/observability"
	"github.com/couchcryptid/weather-location-service/internal/search"
	"github.com/couchcryptid/weather-location-service/internal/store"
	"github.com/couchcryptid/weather-location-service/internal/unitpref"
)

// App holds the wired components. Close releases the connections it opened.
type App struct {
	Store       store.Store
	Cache       *loccache.Cache
	Units       *unitpref.Preference
	Geocoder    domain.Geocoder
	Resolver    *geolocation.Resolver
	Search      *search.Engine
	Coordinator *coordinator.Coordinator

	closers []func()
	logger  *slog.Logger
}

// New builds every component named by cfg. The coordinator listens to the
// resolver and receives the search engine's selections.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	a := &App{logger: logger}
	clock := clockwork.NewRealClock()

	st, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = st
	a.Cache = loccache.New(st, clock, logger)
	a.Units = unitpref.New(st)
	a.Geocoder = NewGeocoder(cfg, metrics, logger)

	var publisher coordinator.Publisher
	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		a.closers = append(a.closers, func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		})
		publisher = w
		logger.Info("location events enabled", "topic", cfg.KafkaLocationTopic, "brokers", cfg.KafkaBrokers)
	}

	var weather domain.WeatherFetcher
	if cfg.WeatherEnabled() {
		weather = visualcrossing.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout, logger)
	} else {
		logger.Info("weather fetching disabled, WEATHER_API_KEY not set")
	}

	a.Coordinator = coordinator.New(coordinator.Config{
		Weather:   weather,
		Units:     a.Units,
		Publisher: publisher,
		Clock:     clock,
		Metrics:   metrics,
		Logger:    logger,
	})
	a.Resolver = geolocation.New(geolocation.Config{
		Cache:    a.Cache,
		Locator:  NewLocator(cfg, logger),
		Geocoder: a.Geocoder,
		Listener: a.Coordinator,
		Timeout:  cfg.GeolocationTimeout,
		Metrics:  metrics,
		Logger:   logger,
	})
	a.Search = search.New(search.Config{
		Geocoder: a.Geocoder,
		Emitter:  a.Coordinator,
		Clock:    clock,
		Debounce: cfg.SearchDebounce,
		Metrics:  metrics,
		Logger:   logger,
	})
	a.closers = append(a.closers, a.Search.Close)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		a.logger.Info("state backend: memory")
		return store.NewMemoryStore(), nil
	case config.BackendPostgres:
		pool, st, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.logger.Info("state backend: postgres")
		return st, nil
	default:
		a.logger.Info("state backend: file", "path", cfg.StateFile)
		return store.NewFileStore(cfg.StateFile, store.WithLogger(a.logger)), nil
	}
}

// NewGeocoder returns the gateway for the configured provider.
func NewGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if cfg.GeocoderProvider == config.ProviderMapbox {
		logger.Info("geocoder: mapbox", "limit", cfg.SuggestionLimit, "timeout", cfg.GeocoderTimeout)
		return mapbox.NewClient(cfg.MapboxToken, cfg.GeocoderTimeout, cfg.SuggestionLimit, metrics, logger)
	}
	logger.Info("geocoder: nominatim", "base_url", cfg.NominatimBaseURL, "rate_limit", cfg.GeocoderRateLimit)
	return nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeocoderTimeout, metrics, logger,
		nominatim.WithUserAgent(cfg.GeocoderUserAgent),
		nominatim.WithRateLimit(cfg.GeocoderRateLimit),
		nominatim.WithLimit(cfg.SuggestionLimit),
	)
}

// NewLocator returns the device coordinate source. GeolocationNone yields nil,
// which the resolver reports as unavailable.
func NewLocator(cfg *config.Config, logger *slog.Logger) domain.DeviceLocator {
	switch cfg.GeolocationSource {
	case config.GeolocationStatic:
		return devicegeo.NewStatic(domain.Coordinates{Latitude: cfg.GeolocationLat, Longitude: cfg.GeolocationLon})
	case config.GeolocationNone:
		return nil
	default:
		return devicegeo.NewIPAPI(cfg.IPAPIURL, cfg.GeocoderUserAgent, cfg.GeolocationTimeout, logger)
	}
}
