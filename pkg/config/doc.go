// Package config loads the dashboard configuration from environment variables.
//
// # Overview
//
// Every setting has a default except the remote API address. LoadConfig
// reads the environment once at startup and validates the result.
//
// # Configuration Structure
//
// Server settings:
//
//	FESIM_HOST="0.0.0.0"
//	FESIM_PORT="3000"
//	FESIM_HEALTH_PORT="9090"
//	FESIM_SHUTDOWN_TIMEOUT="30s"
//
// Remote API:
//
//	FESIM_API_BASE_URL="http://localhost:8000/api"  # required
//	FESIM_API_TIMEOUT="10s"
//
// Sessions:
//
//	FESIM_SESSION_BACKEND="cookie"  # cookie, redis
//	FESIM_COOKIE_SECURE="true"
//	FESIM_TOKEN_TTL="720h"
//	FESIM_AUTH_TTL="24h"
//	FESIM_REDIS_URL="localhost:6379"
//	FESIM_MENU_SNAPSHOT_SYNC="false"
//
// Routes, either from the environment or a YAML file:
//
//	FESIM_ROUTES_FILE="/etc/fesim/routes.yaml"
//	FESIM_PROTECTED_PREFIXES="/setting,/employee"
//	FESIM_LOGIN_PATH="/login"
//
// The file uses the same names in snake case:
//
//	login_path: /login
//	protected_prefixes: [/setting, /employee]
//
// Login throttle. Forwarding headers are ignored unless the direct peer is
// listed as a trusted proxy:
//
//	FESIM_LOGIN_RATE_PER_MINUTE="10"
//	FESIM_LOGIN_BURST="5"
//	FESIM_TRUSTED_PROXIES="10.0.0.0/8"
//
// Observability settings:
//
//	FESIM_LOG_LEVEL="info"  # debug, info, warn, error
//	FESIM_METRICS_ENABLED="true"
//	FESIM_OTEL_ENABLED="true"
//	FESIM_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
