package middleware

import (
	"net/http"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// AccessDeniedTitle is the notification shown when a page is requested
// without a session
const AccessDeniedTitle = "Access Denied"

// PresenceConfig configures the session presence guard
type PresenceConfig struct {
	// PublicPaths are reachable without a token
	PublicPaths []string
	LoginPath   string
	HomePath    string
}

// DefaultPresenceConfig returns the dashboard's defaults
func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		PublicPaths: []string{"/login"},
		LoginPath:   "/login",
		HomePath:    "/",
	}
}

// PresenceGuard checks only that a token exists. It keeps anonymous users
// on the login page and sends signed-in users away from it. It runs on
// every page, independently of the route gate, and never inspects roles.
type PresenceGuard struct {
	store   session.Store
	flasher *notify.Flasher
	config  PresenceConfig
	public  map[string]bool
	metrics *observability.Metrics
}

// NewPresenceGuard creates a presence guard. metrics may be nil.
func NewPresenceGuard(store session.Store, flasher *notify.Flasher, config PresenceConfig, metrics *observability.Metrics) *PresenceGuard {
	if config.LoginPath == "" {
		config.LoginPath = "/login"
	}
	if config.HomePath == "" {
		config.HomePath = "/"
	}
	public := map[string]bool{config.LoginPath: true}
	for _, p := range config.PublicPaths {
		public[p] = true
	}
	return &PresenceGuard{
		store:   store,
		flasher: flasher,
		config:  config,
		public:  public,
		metrics: metrics,
	}
}

// Handler wraps an HTTP handler with the presence guard
func (g *PresenceGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		token, err := g.store.LoadToken(r)
		hasToken := err == nil && token != ""

		if !hasToken {
			if g.public[path] {
				next.ServeHTTP(w, r)
				return
			}
			g.record("no_token")
			if err := g.flasher.Set(w, notify.Error(AccessDeniedTitle, "")); err != nil {
				observability.FromContext(r.Context()).WithError(err).Warn("failed to queue notification")
			}
			httputil.Redirect(w, r, g.config.LoginPath)
			return
		}

		if path == g.config.LoginPath {
			g.record("signed_in")
			httputil.Redirect(w, r, g.config.HomePath)
			return
		}

		sess, ok := session.FromContext(r.Context())
		if !ok {
			sess = &session.Session{}
		}
		ctx := session.WithSession(r.Context(), &session.Session{Token: token, Auth: sess.Auth})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *PresenceGuard) record(reason string) {
	if g.metrics == nil {
		return
	}
	g.metrics.PresenceRedirectsTotal.WithLabelValues(reason).Inc()
}
