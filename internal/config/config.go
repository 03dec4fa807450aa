// Package config loads and validates the collector's typed configuration:
// a YAML file for structure, a .env overlay for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

// ProviderConfig is the per-data-source block. APIKey is read from the YAML
// file and replaced by the provider's environment variable (or .env entry)
// whenever that variable is set.
type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// DataSourcesConfig lists the providers this run may construct. A nil block
// means "not configured"; the collector skips it with a warning rather than
// failing startup.
type DataSourcesConfig struct {
	OpenMeteo          *ProviderConfig `yaml:"open_meteo"`
	WeatherBit         *ProviderConfig `yaml:"weatherbit"`
	Meteostat          *ProviderConfig `yaml:"meteostat"`
	WorldWeatherOnline *ProviderConfig `yaml:"world_weather_online"`
	VisualCrossing     *ProviderConfig `yaml:"visual_crossing"`
	OpenWeatherMap     *ProviderConfig `yaml:"openweathermap"`
	Tomorrow           *ProviderConfig `yaml:"tomorrow"`
}

// DBConfig configures the relational journal store.
type DBConfig struct {
	ConnectionString string `yaml:"connection_string" validate:"required"`
}

// APIConfig configures the read-API HTTP server.
type APIConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required,gt=0,lte=65535"`
}

// CollectorConfig configures a single collection run.
type CollectorConfig struct {
	StartDate                 string `yaml:"start_date" validate:"required"`
	EndDate                   string `yaml:"end_date" validate:"required"`
	MinPopulation             int64  `yaml:"min_population" validate:"gte=0"`
	ConcurrentSessionsAllowed int    `yaml:"concurrent_sessions_allowed" validate:"required,gt=0"`
	ChunkSizeDays             int    `yaml:"chunk_size_days" validate:"required,gt=0"`
}

// Start parses StartDate as a UTC date.
func (c CollectorConfig) Start() (time.Time, error) {
	return time.Parse("2006-01-02", c.StartDate)
}

// End parses EndDate as a UTC date.
func (c CollectorConfig) End() (time.Time, error) {
	return time.Parse("2006-01-02", c.EndDate)
}

// Config is the root configuration document.
type Config struct {
	DataSources DataSourcesConfig `yaml:"data_sources"`
	DB          DBConfig          `yaml:"db" validate:"required"`
	API         APIConfig         `yaml:"api" validate:"required"`
	Collector   CollectorConfig   `yaml:"collector" validate:"required"`
}

var validate = validator.New()

// Load reads path as YAML, overlays secrets from .env (if present), and
// validates the result. Any failure here is a weather.ConfigError.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file found, continuing with process environment")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &weather.ConfigError{Field: "path", Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &weather.ConfigError{Field: "yaml", Err: err}
	}

	overlayAPIKeys(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, &weather.ConfigError{Field: "validation", Err: err}
	}
	if _, err := cfg.Collector.Start(); err != nil {
		return nil, &weather.ConfigError{Field: "collector.start_date", Err: err}
	}
	if _, err := cfg.Collector.End(); err != nil {
		return nil, &weather.ConfigError{Field: "collector.end_date", Err: err}
	}

	return &cfg, nil
}

// overlayAPIKeys fills in provider API keys from environment variables,
// taking precedence over whatever the YAML file itself carries so secrets
// never need to live in a committed config file.
func overlayAPIKeys(cfg *Config) {
	overlay := func(pc *ProviderConfig, envVar string) {
		if pc == nil {
			return
		}
		if v := os.Getenv(envVar); v != "" {
			pc.APIKey = v
		}
	}
	overlay(cfg.DataSources.WeatherBit, "WEATHERBIT_API_KEY")
	overlay(cfg.DataSources.WorldWeatherOnline, "WORLD_WEATHER_ONLINE_API_KEY")
	overlay(cfg.DataSources.VisualCrossing, "VISUAL_CROSSING_API_KEY")
	overlay(cfg.DataSources.OpenWeatherMap, "OPENWEATHERMAP_API_KEY")
	overlay(cfg.DataSources.Tomorrow, "TOMORROW_API_KEY")
}

// RequireAPIKey rejects a provider config with an empty key; callers use this
// to decide whether a data source is actually constructible.
func RequireAPIKey(name string, pc *ProviderConfig) (string, error) {
	if pc == nil || pc.APIKey == "" {
		return "", fmt.Errorf("%s: missing api_key", name)
	}
	return pc.APIKey, nil
}
