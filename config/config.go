package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the listing index of the ministry's domestic price bulletins.
const DefaultBaseURL = "https://www.viwanda.go.tz/documents/product-prices-domestic"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Listing page renderers.
const (
	RendererHTTP   = "http"
	RendererChrome = "chrome"
)

// Config holds all application configuration loaded from environment
// variables and, optionally, a YAML file.
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	StartPage       int           `yaml:"start_page"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	RateLimitMs     int           `yaml:"rate_limit_ms"`
	ListingRenderer string        `yaml:"listing_renderer"`
	ChromeBin       string        `yaml:"chrome_bin"`

	StoreDriver      string `yaml:"store_driver"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
	SQLitePath       string `yaml:"sqlite_path"`
	DBConnectRetries int    `yaml:"db_connect_retries"`

	CSVExportPath string `yaml:"csv_export_path"`
	MetricsAddr   string `yaml:"metrics_addr"`
	LogLevel      string `yaml:"log_level"`
}

// Load reads the .env file and the environment and returns a populated
// Config. When HARVEST_CONFIG names a YAML file, its values override the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BaseURL:         getEnv("BASE_URL", DefaultBaseURL),
		StartPage:       getEnvInt("START_PAGE", 1),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 500*time.Second),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 0),
		ListingRenderer: getEnv("LISTING_RENDERER", RendererHTTP),
		ChromeBin:       getEnv("CHROME_BIN", ""),

		StoreDriver:      getEnv("STORE_DRIVER", DriverPostgres),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "agritech"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "agritech"),
		PostgresDB:       getEnv("POSTGRES_DB", "agritech"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/crop_prices.db"),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 10),

		CSVExportPath: getEnv("CSV_EXPORT_PATH", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("HARVEST_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in a YAML file onto c. Keys that are
// absent from the file leave the current values untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the harvester cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid base url %q", c.BaseURL)
	}
	if c.StartPage < 1 {
		return fmt.Errorf("config: start page must be >= 1, got %d", c.StartPage)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch timeout must be positive, got %v", c.FetchTimeout)
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
	switch c.ListingRenderer {
	case RendererHTTP, RendererChrome:
	default:
		return fmt.Errorf("config: unknown listing renderer %q", c.ListingRenderer)
	}
	return nil
}

// DocumentHost returns scheme://host of the base URL. Bulletin links are only
// accepted when they live under this host.
func (c *Config) DocumentHost() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] Invalid int for %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("[config] Invalid duration for %s=%q, using default %v", key, val, fallback)
		return fallback
	}
	return d
}
