package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/api"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/cache"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/config"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/middleware"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/pathmatch"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/sessions"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store/postgres"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store/sqlite"
)

// Paths served without credentials; always exempt regardless of the
// configured rules.
var publicPaths = []string{"/healthz", "/v1/accounts", "/v1/sessions"}

func main() {
	startup := logrus.New()
	startup.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		startup.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	st, db, err := openStore(cfg)
	if err != nil {
		startup.Fatalf("Failed to open credential store: %v", err)
	}
	startup.Infof("Credential store ready (%s)", cfg.Store.Type)

	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			startup.Fatalf("Failed to reach redis at %s: %v", cfg.Cache.RedisURL, err)
		}
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	var identityCache cache.IdentityCache
	if redisClient != nil {
		identityCache = cache.NewRedis(st, redisClient, cfg.Cache.TTL, metrics)
	} else {
		identityCache = cache.NewMemory(st, cache.MemoryConfig{
			MaxEntries: cfg.Cache.MaxEntries,
			TTL:        cfg.Cache.TTL,
		}, metrics)
	}

	svc := sessions.NewService(st, auth.NewKeyGenerator(), identityCache)

	sweeper := sessions.NewSweeper(st, cfg.Auth.Expiration, cfg.Auth.SweepInterval, logger, metrics)
	if err := sweeper.Start(); err != nil {
		startup.Fatalf("Failed to start key sweeper: %v", err)
	}

	rules := cfg.Auth.Rules
	rules.ExactPaths = append(rules.ExactPaths, publicPaths...)
	matcher, err := pathmatch.New(rules)
	if err != nil {
		startup.Fatalf("Failed to compile exemption rules: %v", err)
	}

	authMW := middleware.NewAuthMiddleware(matcher, identityCache, st, middleware.Config{
		AccountHeader:     cfg.Auth.AccountHeader,
		KeyHeader:         cfg.Auth.KeyHeader,
		Expiration:        cfg.Auth.Expiration,
		Revalidation:      cfg.Auth.Revalidation,
		DisableHeaderInfo: cfg.Auth.DisableHeaderInfo,
	}, logger, metrics)

	limiterCtx, cancelLimiter := context.WithCancel(context.Background())
	loginLimiter := middleware.NewLoginLimiter(&middleware.LoginLimitConfig{
		AttemptsPerWindow: cfg.Auth.LoginAttempts,
		WindowDuration:    cfg.Auth.LoginWindow,
		BurstSize:         cfg.Auth.LoginBurst,
	})
	loginLimiter.StartCleanup(limiterCtx)

	server := api.NewServer(svc, authMW, logger, metrics, api.Options{
		KeyHeader:      cfg.Auth.KeyHeader,
		AdminRole:      cfg.Auth.AdminRole,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthHeaders:    []string{cfg.Auth.AccountHeader, cfg.Auth.KeyHeader},
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		LoginLimiter:   loginLimiter,
	})

	appServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group := observability.NewServerGroup(logger, cfg.Server.ShutdownTimeout, appServer, healthServer)
	group.OnShutdown(func(ctx context.Context) error {
		sweeper.Stop()
		cancelLimiter()
		return nil
	})
	group.OnShutdown(func(ctx context.Context) error { return identityCache.Close() })
	group.OnShutdown(func(ctx context.Context) error { return st.Close() })

	startup.Infof("Starting authd on %s (health on %s)", appServer.Addr, healthServer.Addr)
	if err := group.Run(); err != nil {
		startup.Fatalf("Server exited with error: %v", err)
	}
}

// openStore builds the configured store backend and exposes its database
// handle for health checks.
func openStore(cfg *config.Config) (store.Store, *sql.DB, error) {
	switch cfg.Store.Type {
	case "postgres":
		st, err := postgres.New(postgres.ConnectionConfig{
			URL:      cfg.Store.PostgresURL,
			MaxConns: cfg.Store.PostgresMaxConns,
			MinConns: cfg.Store.PostgresMinConns,
			Timeout:  cfg.Store.PostgresTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, st.DB(), nil
	default:
		st, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.DB(), nil
	}
}
