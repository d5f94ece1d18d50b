// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/Ardanrestun/FESIMPEGAWAI/pkg/contextkeys"
//   ctx = contextkeys.WithSession(ctx, sess)
//   sess, _ := ctx.Value(contextkeys.SessionKey).(*session.Session)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session
	// Set by: middleware.PresenceGuard (token only) and middleware.RouteGate
	// (token plus authorization snapshot)
	// Required by: Shell handlers, API proxy, logout
	// Type: *session.Session
	SessionKey Key = "session"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, outgoing API calls
	// Type: string
	RequestIDKey Key = "request_id"

	// RoleKey contains the role of the current session
	// Set by: middleware.RouteGate after an allow decision
	// Used by: Logger
	// Type: string
	RoleKey Key = "role"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.RequestIDMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// Helper functions for type-safe context operations

// WithSession adds the session to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithRole adds the session role to the context
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetRole retrieves the session role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}
