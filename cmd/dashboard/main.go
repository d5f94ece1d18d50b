package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/apiclient"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/config"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/middleware"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/nav"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/web"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("version", version)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SessionBackend: cfg.Session.Backend,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Continuing without OpenTelemetry")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	client, err := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, metrics)
	if err != nil {
		logger.WithError(err).Error("Failed to create API client")
		os.Exit(1)
	}

	// Session store
	cookieOpts := session.CookieOptions{
		Secure:   cfg.Session.CookieSecure,
		TokenTTL: cfg.Session.TokenTTL,
		AuthTTL:  cfg.Session.AuthTTL,
	}
	var (
		store       session.Store
		redisClient *redis.Client
	)
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redisClient, err = newRedisClient(cfg.Session)
		if err != nil {
			logger.WithError(err).Error("Invalid redis configuration")
			os.Exit(1)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis not reachable yet, readiness will report it")
		}
		pingCancel()
		store = session.NewRedisStore(redisClient, cookieOpts)
	default:
		store = session.NewCookieStore(cookieOpts)
	}
	logger.WithField("backend", cfg.Session.Backend).Info("Session store initialized")

	flasher := notify.NewFlasher(cfg.Session.CookieSecure)

	// Navigation
	var source nav.MenuSource = client
	if cfg.Nav.CacheTTL > 0 {
		source = nav.NewCachedSource(client, cfg.Nav.CacheSize, cfg.Nav.CacheTTL, metrics)
		logger.WithField("ttl", cfg.Nav.CacheTTL.String()).Info("Menu cache enabled")
	}
	renderer := nav.NewRenderer(nav.Config{
		Source:       source,
		Remote:       client,
		Store:        store,
		Flasher:      flasher,
		LoginPath:    cfg.Routes.LoginPath,
		SyncSnapshot: cfg.Session.SnapshotSync,
		Metrics:      metrics,
	})

	// Access control
	gate := middleware.NewRouteGate(store, middleware.GateConfig{
		Prefixes:     cfg.Routes.ProtectedPrefixes,
		LoginPath:    cfg.Routes.LoginPath,
		NotFoundPath: cfg.Routes.NotFoundPath,
	}, metrics)
	guard := middleware.NewPresenceGuard(store, flasher, middleware.PresenceConfig{
		PublicPaths: cfg.Routes.PublicPaths,
		LoginPath:   cfg.Routes.LoginPath,
		HomePath:    cfg.Routes.HomePath,
	}, metrics)

	// Login throttle, shared across replicas when Redis is available
	rateConfig := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.Login.RatePerMinute,
		WindowDuration:    time.Minute,
		BurstSize:         cfg.Login.Burst,
	}
	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewDistributedRateLimiter(redisClient, rateConfig, "")
	} else {
		local := middleware.NewRateLimiter(rateConfig)
		local.StartCleanup(ctx)
		limiter = local
	}
	proxies, err := httputil.ParseTrustedProxies(cfg.Login.TrustedProxies)
	if err != nil {
		logger.WithError(err).Error("Invalid trusted proxies")
		os.Exit(1)
	}
	throttle := middleware.NewLoginThrottle(limiter, flasher, cfg.Routes.LoginPath, rateConfig.WindowDuration, proxies, metrics)

	dashboard, err := web.NewServer(web.Config{
		Store:     store,
		Flasher:   flasher,
		Auth:      client,
		Renderer:  renderer,
		Gate:      gate,
		Guard:     guard,
		TokenAuth: middleware.NewTokenAuth(store),
		Throttle:  throttle,
		APIProxy:  client.Proxy("/api"),
		Routes: web.Routes{
			LoginPath:    cfg.Routes.LoginPath,
			HomePath:     cfg.Routes.HomePath,
			NotFoundPath: cfg.Routes.NotFoundPath,
			Sections:     cfg.Routes.ProtectedPrefixes,
		},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to create dashboard server")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      dashboard.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics live on their own port for probes and scrapers
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(redisClient, client, version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		return nil
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	serve := func(name string, srv *http.Server) {
		defer observability.RecoverPanic(logger, name)
		logger.WithField("addr", srv.Addr).Infof("Starting %s", name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Errorf("%s failed", name)
			cancel()
		}
	}
	go serve("dashboard server", server)
	go serve("health server", healthServer)

	if err := shutdown.WaitForShutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// newRedisClient accepts either a redis:// URL or a bare host:port
func newRedisClient(cfg config.SessionConfig) (*redis.Client, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), nil
}
