// Package httputil provides the HTTP plumbing shared by the dashboard's
// handlers: JSON error responses, redirects, client address lookup and the
// request-scoped middleware stack.
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.SecurityHeadersMiddleware,
//	)(router)
//
// RequestIDMiddleware must run first: it places the request id and the
// logger into the context that the later middlewares log through.
//
// # Responses
//
// Page handlers redirect; JSON helpers answer the /api proxy:
//
//	httputil.Redirect(w, r, "/login")
//	httputil.WriteUnauthorized(w, "session expired")
package httputil
