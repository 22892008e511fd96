package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
// The struct is passed explicitly into the orchestrator at construction; no
// package-level state.
type Config struct {
	HTTPAddr  string // metrics/health listener; empty disables it
	LogLevel  string
	LogFormat string

	DataDir          string
	RawDataDir       string
	ProcessedDataDir string
	LogsDir          string

	WeatherAPIURL    string
	CollisionsAPIURL string
	CollisionsLimit  int
	HTTPTimeout      time.Duration

	// Fallback historical window used once when extraction of the requested
	// range fails.
	FallbackStartDate string
	FallbackEndDate   string

	Database Database
}

// Database holds relational store connection settings. The store is optional:
// with no DB_USER set the load phase is skipped and the pipeline relies on
// CSV snapshots alone.
type Database struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxConns      int
	LoadBatchSize int
}

// Enabled reports whether a database user is configured.
func (d Database) Enabled() bool {
	return d.User != ""
}

// ConnectionString returns the PostgreSQL connection string.
func (d Database) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	timeoutStr := envOrDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid HTTP_TIMEOUT")
	}

	limit, err := parsePositiveInt("COLLISIONS_LIMIT", 50000)
	if err != nil {
		return nil, err
	}

	dbPort, err := parsePositiveInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbMaxConns, err := parsePositiveInt("DB_MAX_CONNS", 4)
	if err != nil {
		return nil, err
	}
	loadBatchSize, err := parsePositiveInt("DB_LOAD_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}

	dataDir := envOrDefault("DATA_DIR", "data")

	cfg := &Config{
		HTTPAddr:  os.Getenv("HTTP_ADDR"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		DataDir:          dataDir,
		RawDataDir:       filepath.Join(dataDir, "raw"),
		ProcessedDataDir: filepath.Join(dataDir, "processed"),
		LogsDir:          filepath.Join(dataDir, "logs"),

		WeatherAPIURL:    envOrDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
		CollisionsAPIURL: envOrDefault("NYC_COLLISIONS_API", "https://data.cityofnewyork.us/resource/h9gi-nx95.csv"),
		CollisionsLimit:  limit,
		HTTPTimeout:      timeout,

		FallbackStartDate: envOrDefault("FALLBACK_START_DATE", "2024-01-01"),
		FallbackEndDate:   envOrDefault("FALLBACK_END_DATE", "2024-01-07"),

		Database: Database{
			Host:          envOrDefault("DB_HOST", "localhost"),
			Port:          dbPort,
			User:          os.Getenv("DB_USER"),
			Password:      os.Getenv("DB_PASSWORD"),
			Name:          envOrDefault("DB_NAME", "nyc_traffic_safety"),
			SSLMode:       envOrDefault("DB_SSL_MODE", "disable"),
			MaxConns:      dbMaxConns,
			LoadBatchSize: loadBatchSize,
		},
	}

	if cfg.WeatherAPIURL == "" {
		return nil, errors.New("WEATHER_API_URL is required")
	}
	if cfg.CollisionsAPIURL == "" {
		return nil, errors.New("NYC_COLLISIONS_API is required")
	}
	if _, err := time.Parse("2006-01-02", cfg.FallbackStartDate); err != nil {
		return nil, errors.New("invalid FALLBACK_START_DATE")
	}
	if _, err := time.Parse("2006-01-02", cfg.FallbackEndDate); err != nil {
		return nil, errors.New("invalid FALLBACK_END_DATE")
	}

	return cfg, nil
}

// EnsureDirs creates the raw, processed, and logs directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RawDataDir, c.ProcessedDataDir, c.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
