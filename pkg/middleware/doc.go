// Package middleware enforces the dashboard's client-side access control.
//
// # Enforcement points
//
// Two independent adapters sit in front of every page and share one pure
// decision, access.IsAuthorized:
//
//	RouteGate      protected prefixes (/setting, /employee); reads the role
//	               and menu snapshot from the session; missing or broken
//	               snapshot -> login, role not allowed -> 404
//	PresenceGuard  every page; no token -> login with "Access Denied",
//	               token on the login page -> home
//
// The gate runs first, mirroring an edge check before the page renders:
//
//	handler := gate.Handler(guard.Handler(pages))
//
// DecideRoute is the gate's decision without HTTP and is what tests and
// diagnostics call directly.
//
// # Other middleware
//
// TokenAuth answers 401 for JSON endpoints without a session. LoginThrottle
// limits login submissions per client address, in memory (RateLimiter) or
// shared through Redis (DistributedRateLimiter).
package middleware
