// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables
// with sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	AUTHD_HOST="0.0.0.0"
//	AUTHD_PORT="8080"
//	AUTHD_HEALTH_PORT="9090"
//	AUTHD_READ_TIMEOUT="15s"
//	AUTHD_WRITE_TIMEOUT="15s"
//	AUTHD_ALLOWED_ORIGINS="https://app.example.com"
//
// Authentication settings:
//
//	AUTHD_AUTH_EXPIRATION="24h"       # zero disables expiry
//	AUTHD_AUTH_REVALIDATION="30m"     # zero disables refreshing
//	AUTHD_AUTH_ACCOUNT_HEADER="Account-Auth-Account"
//	AUTHD_AUTH_KEY_HEADER="Account-Auth-ApiKey"
//	AUTHD_AUTH_PROTECTED_PREFIX="/api"
//	AUTHD_AUTH_EXEMPT_PATHS="/health,/login"
//	AUTHD_AUTH_EXEMPT_PATTERNS="^/static/.*"
//	AUTHD_AUTH_RULES_FILE="/etc/authd/rules.yaml"
//	AUTHD_AUTH_DISABLE_HEADER_INFO="false"
//	AUTHD_AUTH_ADMIN_ROLE="9"
//	AUTHD_AUTH_SWEEP_INTERVAL="1m"
//	AUTHD_AUTH_LOGIN_ATTEMPTS="10"
//	AUTHD_AUTH_LOGIN_WINDOW="1m"
//	AUTHD_AUTH_LOGIN_BURST="5"
//
// Store settings:
//
//	AUTHD_STORE_TYPE="sqlite"  # postgres, sqlite
//	AUTHD_POSTGRES_URL="postgres://localhost/authd"
//	AUTHD_SQLITE_PATH="authd.db"
//
// Cache settings:
//
//	AUTHD_CACHE_TYPE="memory"  # memory, redis
//	AUTHD_CACHE_MAX_ENTRIES="10000"
//	AUTHD_CACHE_TTL="5m"
//	AUTHD_REDIS_URL="localhost:6379"
//
// Observability settings:
//
//	AUTHD_LOG_LEVEL="info"  # debug, info, warn, error
//	AUTHD_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Store: %s\n", cfg.Store.Type)
//
// # Related Packages
//
//   - pkg/pathmatch: compiled from the exemption rule settings
//   - pkg/observability: uses the observability configuration
package config
