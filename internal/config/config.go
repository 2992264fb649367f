package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Geocoder providers.
const (
	ProviderNominatim = "nominatim"
	ProviderMapbox    = "mapbox"
)

// Device geolocation sources.
const (
	GeolocationIPAPI  = "ipapi"
	GeolocationStatic = "static"
	GeolocationNone   = "none"
)

// State backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

const defaultWeatherBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding gateway.
	GeocoderProvider  string
	NominatimBaseURL  string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderRateLimit float64
	SuggestionLimit   int
	MapboxToken       string

	SearchDebounce time.Duration

	// Device geolocation.
	GeolocationSource  string
	GeolocationLat     float64
	GeolocationLon     float64
	GeolocationTimeout time.Duration
	IPAPIURL           string

	// Persisted state.
	StateBackend string
	StateFile    string
	DatabaseURL  string

	// Weather collaborator.
	WeatherBaseURL string
	WeatherAPIKey  string
	WeatherTimeout time.Duration

	// Location change events.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaLocationTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	rateLimit, err := parsePositiveFloat("GEOCODER_RATE_LIMIT", 1)
	if err != nil {
		return nil, err
	}
	suggestionLimit, err := parsePositiveInt("SUGGESTION_LIMIT", 7)
	if err != nil {
		return nil, err
	}
	debounce, err := parsePositiveDuration("SEARCH_DEBOUNCE", "300ms")
	if err != nil {
		return nil, err
	}
	geoTimeout, err := parsePositiveDuration("GEOLOCATION_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}
	lat, hasLat, err := parseOptionalFloat("GEOLOCATION_LAT")
	if err != nil {
		return nil, err
	}
	lon, hasLon, err := parseOptionalFloat("GEOLOCATION_LON")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderProvider:  strings.ToLower(EnvOrDefault("GEOCODER_PROVIDER", ProviderNominatim)),
		NominatimBaseURL:  strings.TrimRight(EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeocoderUserAgent: EnvOrDefault("GEOCODER_USER_AGENT", "WeatherApp/1.0"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderRateLimit: rateLimit,
		SuggestionLimit:   suggestionLimit,
		MapboxToken:       os.Getenv("MAPBOX_TOKEN"),

		SearchDebounce: debounce,

		GeolocationSource:  strings.ToLower(EnvOrDefault("GEOLOCATION_SOURCE", GeolocationIPAPI)),
		GeolocationLat:     lat,
		GeolocationLon:     lon,
		GeolocationTimeout: geoTimeout,
		IPAPIURL:           EnvOrDefault("IPAPI_URL", "http://ip-api.com/json"),

		StateBackend: strings.ToLower(EnvOrDefault("STATE_BACKEND", BackendFile)),
		StateFile:    EnvOrDefault("STATE_FILE", "weather-locator-state.json"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		WeatherBaseURL: strings.TrimRight(EnvOrDefault("WEATHER_BASE_URL", defaultWeatherBaseURL), "/"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherTimeout: weatherTimeout,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       ParseBrokers(EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaLocationTopic: EnvOrDefault("KAFKA_LOCATION_TOPIC", "weather-location-changes"),
	}

	switch cfg.GeocoderProvider {
	case ProviderNominatim:
	case ProviderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER_PROVIDER: %q", cfg.GeocoderProvider)
	}

	switch cfg.GeolocationSource {
	case GeolocationIPAPI, GeolocationNone:
	case GeolocationStatic:
		if !hasLat || !hasLon {
			return nil, errors.New("GEOLOCATION_SOURCE is static but GEOLOCATION_LAT/GEOLOCATION_LON are not set")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, errors.New("GEOLOCATION_LAT/GEOLOCATION_LON out of range")
		}
	default:
		return nil, fmt.Errorf("invalid GEOLOCATION_SOURCE: %q", cfg.GeolocationSource)
	}

	switch cfg.StateBackend {
	case BackendFile:
		if cfg.StateFile == "" {
			return nil, errors.New("STATE_FILE is required")
		}
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("STATE_BACKEND is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid STATE_BACKEND: %q", cfg.StateBackend)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaLocationTopic == "" {
			return nil, errors.New("KAFKA_LOCATION_TOPIC is required")
		}
	}

	return cfg, nil
}

// WeatherEnabled reports whether a weather API key was configured.
func (c *Config) WeatherEnabled() bool {
	return c.WeatherAPIKey != ""
}
