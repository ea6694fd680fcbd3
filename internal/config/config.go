package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabaseURL    string

	// Cache-aside backend. Redis with an empty URL or token disables caching.
	CacheBackend string
	CacheURL     string
	CacheToken   string

	WeatherAPIURL  string
	WeatherTimeout time.Duration
	SnotelAPIURL   string
	SnotelTimeout  time.Duration
	BatchDelay     time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	APIToken string

	// Empty brokers keep run metrics log-only.
	KafkaBrokers      []string
	KafkaMetricsTopic string

	ScheduleForecast   string
	ScheduleConditions string
	ScheduleSnotel     string
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables in the file named by ENV_FILE (default ".env") are loaded
// first without overriding the environment; a missing file is fine.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	snotelTimeout, err := parsePositiveDuration("SNOTEL_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("BATCH_DELAY", "200ms"))
	if err != nil || batchDelay < 0 {
		return nil, errors.New("invalid BATCH_DELAY: must be a non-negative duration")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    sharedcfg.EnvOrDefault("DATABASE_URL", "file:snowline.db"),

		CacheBackend: sharedcfg.EnvOrDefault("CACHE_BACKEND", "redis"),
		CacheURL:     os.Getenv("CACHE_URL"),
		CacheToken:   os.Getenv("CACHE_TOKEN"),

		WeatherAPIURL:  sharedcfg.EnvOrDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout: weatherTimeout,
		SnotelAPIURL:   sharedcfg.EnvOrDefault("SNOTEL_API_URL", "https://wcc.sc.egov.usda.gov/awdbRestApi/services/v1/data"),
		SnotelTimeout:  snotelTimeout,
		BatchDelay:     batchDelay,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		APIToken: os.Getenv("API_TOKEN"),

		KafkaBrokers:      sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaMetricsTopic: sharedcfg.EnvOrDefault("KAFKA_METRICS_TOPIC", "pipeline-run-metrics"),

		ScheduleForecast:   sharedcfg.EnvOrDefault("SCHEDULE_FORECAST", "0 */3 * * *"),
		ScheduleConditions: sharedcfg.EnvOrDefault("SCHEDULE_CONDITIONS", "0 * * * *"),
		ScheduleSnotel:     sharedcfg.EnvOrDefault("SCHEDULE_SNOTEL", "30 6 * * *"),
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite", cfg.DatabaseDriver)
	}
	switch cfg.CacheBackend {
	case "redis", "memory":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be redis or memory", cfg.CacheBackend)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaMetricsTopic == "" {
		return nil, errors.New("KAFKA_METRICS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
