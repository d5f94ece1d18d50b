// Package session stores the dashboard session between requests.
//
// # Overview
//
// A Session is the bearer token issued by the remote API plus the
// Authorization snapshot (role and permitted menu tree) captured at login.
// The two parts expire independently: the token lives for TokenTTL, the
// snapshot for AuthTTL (one day by default).
//
// # Backends
//
// CookieStore keeps everything in browser cookies:
//
//	token  long-lived bearer token
//	role   role identifier, one day
//	menus  base64url JSON menu tree, one day
//
// RedisStore keeps the same data in Redis behind an opaque "sid" cookie:
//
//	store := session.NewRedisStore(redisClient, session.CookieOptions{Secure: true})
//
// # Propagation
//
// Middlewares load the session once per request and attach it to the
// request context. Handlers read it with FromContext instead of reaching
// for cookies themselves.
package session
