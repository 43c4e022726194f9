package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	// AllowedOrigins are the browser origins (host[:port]) allowed by CORS.
	AllowedOrigins []string
	// APIRateLimit is the per-client request rate on the /v1 API.
	APIRateLimit float64

	DB        DatabaseConfig
	Redis     RedisConfig
	Printify  PrintifyConfig
	Store     StoreConfig
	Import    ImportConfig
	Attribute AttributeConfig
}

// DatabaseConfig contains PostgreSQL connection parameters. The database is
// the store's own database; import bookkeeping lives in its own tables.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters. An empty Host disables
// Redis and the service falls back to in-process locks.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PrintifyConfig contains credentials for the catalog source.
type PrintifyConfig struct {
	BaseURL   string
	APIKey    string
	ShopID    string
	RateLimit float64 // requests per second
}

// StoreConfig contains the internal store endpoints and credentials.
type StoreConfig struct {
	BaseURL     string
	GraphQLPath string
	APIToken    string
	RateLimit   float64 // requests per second
	Timeout     time.Duration
}

// ImportConfig controls the import worker and the per-run pipeline.
type ImportConfig struct {
	Interval      time.Duration // 0 disables the periodic worker
	Concurrency   int
	RetryAttempts int
	RetryBase     time.Duration
	LockTTL       time.Duration
}

// AttributeFlags are the display flags applied to newly created attributes.
type AttributeFlags struct {
	IsRequired        bool
	DisplayOnFrontend bool
	IsFilterable      bool
}

// AttributeConfig holds the default attribute flags and per-axis overrides
// keyed by lower-cased axis type.
type AttributeConfig struct {
	Defaults  AttributeFlags
	Overrides map[string]AttributeFlags
}

// FlagsFor returns the flags for the given axis type.
func (a AttributeConfig) FlagsFor(axisType string) AttributeFlags {
	if f, ok := a.Overrides[strings.ToLower(axisType)]; ok {
		return f
	}
	return a.Defaults
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "localhost:3000,127.0.0.1:3000"))
	cfg.APIRateLimit = getEnvFloat("API_RATE_LIMIT", 10)

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Printify
	cfg.Printify = PrintifyConfig{
		BaseURL:   getEnv("PRINTIFY_BASE_URL", "https://api.printify.com/v1"),
		APIKey:    getEnv("PRINTIFY_API_KEY", ""),
		ShopID:    getEnv("PRINTIFY_SHOP_ID", ""),
		RateLimit: getEnvFloat("PRINTIFY_RATE_LIMIT", 5),
	}

	// Store
	cfg.Store = StoreConfig{
		BaseURL:     strings.TrimSuffix(getEnv("STORE_BASE_URL", "http://localhost:3000"), "/"),
		GraphQLPath: getEnv("STORE_GRAPHQL_PATH", "/api/graphql"),
		APIToken:    getEnv("STORE_API_TOKEN", ""),
		RateLimit:   getEnvFloat("STORE_RATE_LIMIT", 10),
	}

	// Import pipeline
	cfg.Import = ImportConfig{
		Concurrency:   getEnvInt("IMPORT_CONCURRENCY", 4),
		RetryAttempts: getEnvInt("IMPORT_RETRY_ATTEMPTS", 3),
	}

	var err error
	if cfg.Store.Timeout, err = parseDurationEnv("STORE_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	if cfg.Import.Interval, err = parseDurationEnv("IMPORT_INTERVAL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_INTERVAL: %w", err)
	}
	if cfg.Import.RetryBase, err = parseDurationEnv("IMPORT_RETRY_BASE", "500ms"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_RETRY_BASE: %w", err)
	}
	if cfg.Import.LockTTL, err = parseDurationEnv("IMPORT_LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_LOCK_TTL: %w", err)
	}

	// Attribute defaults, all true unless switched off
	cfg.Attribute = AttributeConfig{
		Defaults: AttributeFlags{
			IsRequired:        getEnvBool("ATTRIBUTE_DEFAULT_REQUIRED", true),
			DisplayOnFrontend: getEnvBool("ATTRIBUTE_DEFAULT_FRONTEND", true),
			IsFilterable:      getEnvBool("ATTRIBUTE_DEFAULT_FILTERABLE", true),
		},
	}
	if cfg.Attribute.Overrides, err = parseAttributeFlags(getEnv("ATTRIBUTE_FLAGS", "")); err != nil {
		return nil, fmt.Errorf("invalid ATTRIBUTE_FLAGS: %w", err)
	}

	if cfg.Import.Concurrency <= 0 {
		return nil, errors.New("IMPORT_CONCURRENCY must be greater than zero")
	}

	// Basic validation for DB parameters.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	return cfg, nil
}

// Validate reports missing credentials required to run an import. It is
// checked before every run rather than at startup so the HTTP surface stays
// available while credentials are being provisioned.
func (c *Config) Validate() error {
	var missing []string
	if c.Printify.APIKey == "" {
		missing = append(missing, "PRINTIFY_API_KEY")
	}
	if c.Printify.ShopID == "" {
		missing = append(missing, "PRINTIFY_SHOP_ID")
	}
	if c.Store.BaseURL == "" {
		missing = append(missing, "STORE_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// parseAttributeFlags parses "color=1:1:0,size=1:0:1" into per-axis flags
// (required:frontend:filterable).
func parseAttributeFlags(raw string) (map[string]AttributeFlags, error) {
	out := make(map[string]AttributeFlags)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		axis, flagSpec, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || axis == "" {
			return nil, fmt.Errorf("entry %q must look like axis=1:1:1", entry)
		}
		parts := strings.Split(flagSpec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("entry %q needs three flags", entry)
		}
		var flags [3]bool
		for i, p := range parts {
			b, err := strconv.ParseBool(p)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", entry, err)
			}
			flags[i] = b
		}
		out[strings.ToLower(axis)] = AttributeFlags{IsRequired: flags[0], DisplayOnFrontend: flags[1], IsFilterable: flags[2]}
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
