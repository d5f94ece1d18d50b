package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/access"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/contextkeys"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// GateDecision is the outcome of evaluating one protected request
type GateDecision int

const (
	// GateAllow lets the request through
	GateAllow GateDecision = iota
	// GateLogin sends the user to the login page
	GateLogin
	// GateNotFound sends the user to the not-found page
	GateNotFound
)

func (d GateDecision) String() string {
	switch d {
	case GateAllow:
		return "allow"
	case GateLogin:
		return "login"
	case GateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// DecideRoute decides a request for a protected path given the
// authorization snapshot and the error, if any, from loading it. Any load
// failure, including a snapshot that cannot be decoded, means login.
func DecideRoute(auth *session.Authorization, loadErr error, path string) GateDecision {
	if loadErr != nil || !auth.Complete() {
		return GateLogin
	}
	if access.IsAuthorized(auth.Menus, auth.Role, path) {
		return GateAllow
	}
	return GateNotFound
}

// GateConfig configures the route gate
type GateConfig struct {
	// Prefixes are the protected sections. A prefix covers itself and
	// every path below it, but not siblings sharing the same leading text.
	Prefixes     []string
	LoginPath    string
	NotFoundPath string
}

// DefaultGateConfig returns the dashboard's protected sections
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Prefixes:     []string{"/setting", "/employee"},
		LoginPath:    "/login",
		NotFoundPath: "/404",
	}
}

// RouteGate enforces role-based access on protected sections using only the
// authorization snapshot held in the session. It never touches the network
// and never modifies the session.
type RouteGate struct {
	store    session.Store
	config   GateConfig
	prefixes []string
	metrics  *observability.Metrics
}

// NewRouteGate creates a route gate. metrics may be nil.
func NewRouteGate(store session.Store, config GateConfig, metrics *observability.Metrics) *RouteGate {
	prefixes := make([]string, 0, len(config.Prefixes))
	for _, p := range config.Prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if config.LoginPath == "" {
		config.LoginPath = "/login"
	}
	if config.NotFoundPath == "" {
		config.NotFoundPath = "/404"
	}
	return &RouteGate{
		store:    store,
		config:   config,
		prefixes: prefixes,
		metrics:  metrics,
	}
}

// Protects reports whether path falls under one of the protected prefixes
func (g *RouteGate) Protects(path string) bool {
	for _, prefix := range g.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Handler wraps an HTTP handler with the route gate
func (g *RouteGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !g.Protects(path) {
			next.ServeHTTP(w, r)
			return
		}

		auth, err := g.store.LoadAuthorization(r)
		decision := DecideRoute(auth, err, path)
		g.record(decision)
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("dashboard.gate.decision", decision.String()))

		logger := observability.FromContext(r.Context()).WithField("path", path)
		if errors.Is(err, session.ErrMalformedSession) {
			logger.WithError(err).Warn("discarding undecodable authorization snapshot")
		}

		switch decision {
		case GateAllow:
			ctx := contextkeys.WithRole(r.Context(), auth.Role)
			sess, ok := session.FromContext(ctx)
			if !ok {
				sess = &session.Session{}
			}
			ctx = session.WithSession(ctx, &session.Session{Token: sess.Token, Auth: auth})
			next.ServeHTTP(w, r.WithContext(ctx))
		case GateNotFound:
			logger = logger.WithField("role", auth.Role)
			if logger.Level() == observability.DebugLevel {
				logger = logger.WithField("reachable", access.Reachable(auth.Menus, auth.Role))
			}
			logger.Info("role not authorized for path")
			httputil.Redirect(w, r, g.config.NotFoundPath)
		default:
			httputil.Redirect(w, r, g.config.LoginPath)
		}
	})
}

func (g *RouteGate) record(decision GateDecision) {
	if g.metrics == nil {
		return
	}
	g.metrics.GateDecisionsTotal.WithLabelValues(decision.String()).Inc()
}
