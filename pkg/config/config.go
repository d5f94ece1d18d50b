package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
)

// Session backends
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Remote API configuration
	API APIConfig

	// Session configuration
	Session SessionConfig

	// Route layout for the gate and guard
	Routes RoutesConfig

	// Navigation menu cache
	Nav NavConfig

	// Login throttle
	Login LoginConfig

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

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// APIConfig points at the remote dashboard API
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects and tunes the session store
type SessionConfig struct {
	Backend      string
	CookieSecure bool
	TokenTTL     time.Duration
	AuthTTL      time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int

	// SnapshotSync rewrites the gate's menu snapshot from each live fetch
	SnapshotSync bool
}

// RoutesConfig is the route layout. It can be overridden from a YAML file.
type RoutesConfig struct {
	LoginPath         string   `yaml:"login_path"`
	HomePath          string   `yaml:"home_path"`
	NotFoundPath      string   `yaml:"not_found_path"`
	ProtectedPrefixes []string `yaml:"protected_prefixes"`
	PublicPaths       []string `yaml:"public_paths"`
}

// NavConfig tunes the live menu cache. A zero CacheTTL disables it.
type NavConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

// LoginConfig holds the per-client login throttle
type LoginConfig struct {
	RatePerMinute int
	Burst         int
	// TrustedProxies are addresses or CIDR ranges whose X-Forwarded-For
	// header identifies the client. Empty means the direct peer is the client.
	TrustedProxies []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	routes, err := loadRoutesConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:        loadServerConfig(),
		API:           loadAPIConfig(),
		Session:       loadSessionConfig(),
		Routes:        routes,
		Nav:           loadNavConfig(),
		Login:         loadLoginConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("FESIM_HOST", "0.0.0.0"),
		Port:            getEnv("FESIM_PORT", "3000"),
		ReadTimeout:     getEnvDuration("FESIM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("FESIM_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("FESIM_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("FESIM_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("FESIM_HEALTH_PORT", "9090"),
	}
}

func loadAPIConfig() APIConfig {
	return APIConfig{
		BaseURL: strings.TrimRight(getEnv("FESIM_API_BASE_URL", ""), "/"),
		Timeout: getEnvDuration("FESIM_API_TIMEOUT", 10*time.Second),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:       strings.ToLower(getEnv("FESIM_SESSION_BACKEND", SessionBackendCookie)),
		CookieSecure:  getEnvBool("FESIM_COOKIE_SECURE", false),
		TokenTTL:      getEnvDuration("FESIM_TOKEN_TTL", 30*24*time.Hour),
		AuthTTL:       getEnvDuration("FESIM_AUTH_TTL", 24*time.Hour),
		RedisURL:      getEnv("FESIM_REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("FESIM_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("FESIM_REDIS_DB", 0),
		SnapshotSync:  getEnvBool("FESIM_MENU_SNAPSHOT_SYNC", false),
	}
}

// DefaultRoutes returns the dashboard's route layout
func DefaultRoutes() RoutesConfig {
	return RoutesConfig{
		LoginPath:         "/login",
		HomePath:          "/",
		NotFoundPath:      "/404",
		ProtectedPrefixes: []string{"/setting", "/employee"},
		PublicPaths:       []string{"/login"},
	}
}

// loadRoutesConfig starts from the defaults, applies the routes file when
// FESIM_ROUTES_FILE is set, then individual environment overrides
func loadRoutesConfig() (RoutesConfig, error) {
	routes := DefaultRoutes()

	if path := getEnv("FESIM_ROUTES_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return routes, fmt.Errorf("failed to read routes file: %w", err)
		}
		if routes, err = ParseRoutes(data, routes); err != nil {
			return routes, fmt.Errorf("failed to parse routes file %s: %w", path, err)
		}
	}

	routes.LoginPath = getEnv("FESIM_LOGIN_PATH", routes.LoginPath)
	routes.HomePath = getEnv("FESIM_HOME_PATH", routes.HomePath)
	routes.NotFoundPath = getEnv("FESIM_NOT_FOUND_PATH", routes.NotFoundPath)
	routes.ProtectedPrefixes = getEnvList("FESIM_PROTECTED_PREFIXES", routes.ProtectedPrefixes)
	routes.PublicPaths = getEnvList("FESIM_PUBLIC_PATHS", routes.PublicPaths)
	return routes, nil
}

// ParseRoutes decodes a YAML route layout over base. Keys absent from the
// document keep their base value.
func ParseRoutes(data []byte, base RoutesConfig) (RoutesConfig, error) {
	routes := base
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return base, err
	}
	return routes, nil
}

func loadNavConfig() NavConfig {
	return NavConfig{
		CacheTTL:  getEnvDuration("FESIM_MENU_CACHE_TTL", 0),
		CacheSize: getEnvInt("FESIM_MENU_CACHE_SIZE", 1024),
	}
}

func loadLoginConfig() LoginConfig {
	return LoginConfig{
		RatePerMinute:  getEnvInt("FESIM_LOGIN_RATE_PER_MINUTE", 10),
		Burst:          getEnvInt("FESIM_LOGIN_BURST", 5),
		TrustedProxies: getEnvList("FESIM_TRUSTED_PROXIES", nil),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("FESIM_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("FESIM_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("FESIM_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("FESIM_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("FESIM_OTEL_SERVICE_NAME", "fesim-dashboard"),
		OTelServiceVersion: getEnv("FESIM_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("FESIM_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("FESIM_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate remote API
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required (FESIM_API_BASE_URL)")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	// Validate session config based on backend
	switch c.Session.Backend {
	case SessionBackendCookie:
	case SessionBackendRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis sessions")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be cookie or redis)", c.Session.Backend)
	}
	if c.Session.TokenTTL <= 0 || c.Session.AuthTTL <= 0 {
		return fmt.Errorf("session TTLs must be positive")
	}

	// Validate routes
	for name, path := range map[string]string{
		"login path":     c.Routes.LoginPath,
		"home path":      c.Routes.HomePath,
		"not found path": c.Routes.NotFoundPath,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with /: %q", name, path)
		}
	}
	for _, prefix := range c.Routes.ProtectedPrefixes {
		if !strings.HasPrefix(prefix, "/") || prefix == "/" {
			return fmt.Errorf("invalid protected prefix: %q", prefix)
		}
	}

	if c.Nav.CacheTTL < 0 {
		return fmt.Errorf("menu cache TTL must not be negative")
	}
	if c.Login.RatePerMinute <= 0 {
		return fmt.Errorf("login rate must be positive")
	}
	if _, err := httputil.ParseTrustedProxies(c.Login.TrustedProxies); err != nil {
		return err
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
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

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

// getEnvList returns a comma separated environment variable or a default.
// Blank entries are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
