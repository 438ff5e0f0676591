package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/pathmatch"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Authentication configuration
	Auth AuthConfig

	// Credential store configuration
	Store StoreConfig

	// Identity cache configuration
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	AllowedOrigins  []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds the authentication middleware configuration
type AuthConfig struct {
	// Rules are the path exemption rules. They may also be loaded from a
	// YAML file via AUTHD_AUTH_RULES_FILE; file rules replace env rules.
	Rules     pathmatch.Rules
	RulesFile string

	// Expiration is the absolute key lifetime; zero disables expiry.
	Expiration time.Duration
	// Revalidation is the sliding refresh window; zero disables it.
	Revalidation time.Duration
	// SweepInterval is how often the background sweeper runs.
	SweepInterval time.Duration

	AccountHeader     string
	KeyHeader         string
	DisableHeaderInfo bool

	// AdminRole is the minimum role allowed to manage other accounts.
	AdminRole int

	// Sign-in throttling
	LoginAttempts int
	LoginWindow   time.Duration
	LoginBurst    int
}

// StoreConfig holds credential store configuration
type StoreConfig struct {
	// Type selects the backend: "postgres" or "sqlite"
	Type string

	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	SQLitePath string
}

// CacheConfig holds identity cache configuration
type CacheConfig struct {
	// Type selects the backend: "memory" or "redis"
	Type string

	MaxEntries int
	TTL        time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		Store:         loadStoreConfig(),
		Cache:         loadCacheConfig(),
		Observability: loadObservabilityConfig(),
	}

	if cfg.Auth.RulesFile != "" {
		rules, err := loadRulesFile(cfg.Auth.RulesFile)
		if err != nil {
			return nil, err
		}
		cfg.Auth.Rules = rules
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("AUTHD_HOST", "0.0.0.0"),
		Port:            getEnv("AUTHD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("AUTHD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("AUTHD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("AUTHD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("AUTHD_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("AUTHD_MAX_BODY_BYTES", 1<<20),
		AllowedOrigins:  getEnvList("AUTHD_ALLOWED_ORIGINS", nil),
		HealthPort:      getEnv("AUTHD_HEALTH_PORT", "9090"),
	}
}

// loadAuthConfig loads authentication configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Rules: pathmatch.Rules{
			ProtectedPrefix: getEnv("AUTHD_AUTH_PROTECTED_PREFIX", ""),
			ExactPaths:      getEnvList("AUTHD_AUTH_EXEMPT_PATHS", nil),
			Patterns:        getEnvList("AUTHD_AUTH_EXEMPT_PATTERNS", nil),
		},
		RulesFile:         getEnv("AUTHD_AUTH_RULES_FILE", ""),
		Expiration:        getEnvDuration("AUTHD_AUTH_EXPIRATION", 24*time.Hour),
		Revalidation:      getEnvDuration("AUTHD_AUTH_REVALIDATION", 30*time.Minute),
		SweepInterval:     getEnvDuration("AUTHD_AUTH_SWEEP_INTERVAL", time.Minute),
		AccountHeader:     getEnv("AUTHD_AUTH_ACCOUNT_HEADER", "Account-Auth-Account"),
		KeyHeader:         getEnv("AUTHD_AUTH_KEY_HEADER", "Account-Auth-ApiKey"),
		DisableHeaderInfo: getEnvBool("AUTHD_AUTH_DISABLE_HEADER_INFO", false),
		AdminRole:         getEnvInt("AUTHD_AUTH_ADMIN_ROLE", 9),
		LoginAttempts:     getEnvInt("AUTHD_AUTH_LOGIN_ATTEMPTS", 10),
		LoginWindow:       getEnvDuration("AUTHD_AUTH_LOGIN_WINDOW", time.Minute),
		LoginBurst:        getEnvInt("AUTHD_AUTH_LOGIN_BURST", 5),
	}
}

// loadStoreConfig loads credential store configuration from environment
func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Type:             getEnv("AUTHD_STORE_TYPE", "sqlite"),
		PostgresURL:      getEnv("AUTHD_POSTGRES_URL", ""),
		PostgresMaxConns: getEnvInt("AUTHD_POSTGRES_MAX_CONNS", 10),
		PostgresMinConns: getEnvInt("AUTHD_POSTGRES_MIN_CONNS", 2),
		PostgresTimeout:  getEnvDuration("AUTHD_POSTGRES_TIMEOUT", 5*time.Second),
		SQLitePath:       getEnv("AUTHD_SQLITE_PATH", "authd.db"),
	}
}

// loadCacheConfig loads identity cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Type:          getEnv("AUTHD_CACHE_TYPE", "memory"),
		MaxEntries:    getEnvInt("AUTHD_CACHE_MAX_ENTRIES", 10000),
		TTL:           getEnvDuration("AUTHD_CACHE_TTL", 5*time.Minute),
		RedisURL:      getEnv("AUTHD_REDIS_URL", ""),
		RedisPassword: getEnv("AUTHD_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("AUTHD_REDIS_DB", 0),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("AUTHD_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("AUTHD_METRICS_ENABLED", true),
	}
}

// loadRulesFile reads path exemption rules from a YAML file
func loadRulesFile(path string) (pathmatch.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pathmatch.Rules{}, fmt.Errorf("reading rules file: %w", err)
	}
	var rules pathmatch.Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return pathmatch.Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Store.Type {
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres store")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be postgres or sqlite)", c.Store.Type)
	}

	switch c.Cache.Type {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis cache")
		}
	default:
		return fmt.Errorf("invalid cache type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Auth.Expiration < 0 || c.Auth.Revalidation < 0 {
		return fmt.Errorf("expiration and revalidation windows must not be negative")
	}

	// Compile the rules now so a bad pattern fails startup, not requests.
	if _, err := pathmatch.New(c.Auth.Rules); err != nil {
		return err
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable as a slice
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
