// Package config loads service settings from the environment.
//
// Values resolve in priority order: OS environment, then a .env file in the
// working directory (development convenience, never required). envconfig
// struct tags define names and defaults; validator tags reject bad values at
// startup rather than at first use.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// City is one entry of the served city catalog.
type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Upstream forecast-core service. An empty base URL switches the web
	// tier to embedded fixture summaries (local development).
	ForecastBaseURL string        `envconfig:"FORECAST_BASE_URL" validate:"omitempty,url"`
	ForecastTimeout time.Duration `envconfig:"FORECAST_TIMEOUT" default:"5s" validate:"gt=0"`
	ForecastRetries uint64        `envconfig:"FORECAST_RETRIES" default:"2"`

	SummaryCacheTTL  time.Duration `envconfig:"SUMMARY_CACHE_TTL" default:"5m" validate:"gt=0"`
	SummaryCacheSize int           `envconfig:"SUMMARY_CACHE_SIZE" default:"64" validate:"gt=0"`

	// Ceiling on the map load chain before it fails with a timeout.
	MapLoadTimeout time.Duration `envconfig:"MAP_LOAD_TIMEOUT" default:"8s" validate:"gt=0"`

	// Kafka wiring, optional: analytics events out, summary-refresh
	// notifications in. Leaving KAFKA_BROKERS unset disables both.
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	AnalyticsTopic  string   `envconfig:"KAFKA_ANALYTICS_TOPIC" default:"frontend-analytics"`
	RefreshTopic    string   `envconfig:"KAFKA_REFRESH_TOPIC" default:"summary-refresh"`
	KafkaGroupID    string   `envconfig:"KAFKA_GROUP_ID" default:"local-weather-web"`
	AnalyticsBuffer int      `envconfig:"ANALYTICS_BUFFER" default:"256" validate:"gt=0"`
	RefreshBatch    int      `envconfig:"REFRESH_BATCH_SIZE" default:"20" validate:"gt=0,lte=500"`

	// City catalog as JSON: {"slug": {"name": ..., "lat": ..., "lon": ...}}.
	// Defaults to the Durango entry when unset.
	CitiesJSON string          `envconfig:"CITIES_CONFIG"`
	Cities     map[string]City `ignored:"true"`
}

// KafkaEnabled reports whether Kafka-backed analytics and refresh
// consumption are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from the environment, applying defaults where
// unset and validating the result.
func Load() (*Config, error) {
	// Missing .env is fine; it never overrides real environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.parseCities(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (cfg *Config) parseCities() error {
	if cfg.CitiesJSON == "" {
		cfg.Cities = map[string]City{
			"durango": {Name: "Durango, CO", Lat: 37.2753, Lon: -107.8801},
		}
		return nil
	}

	cities := make(map[string]City)
	if err := json.Unmarshal([]byte(cfg.CitiesJSON), &cities); err != nil {
		return fmt.Errorf("parse CITIES_CONFIG: %w", err)
	}
	if len(cities) == 0 {
		return fmt.Errorf("CITIES_CONFIG defines no cities")
	}
	for slug, city := range cities {
		if slug == "" || city.Name == "" {
			return fmt.Errorf("CITIES_CONFIG entry %q is missing a slug or name", slug)
		}
	}
	cfg.Cities = cities
	return nil
}
