package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/apiclient"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/middleware"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/nav"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// Authenticator exchanges credentials with the remote API
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
}

// Routes is the route layout the shell serves
type Routes struct {
	LoginPath    string
	HomePath     string
	NotFoundPath string
	// Sections are the protected prefixes; each gets a page route for
	// itself and everything below it
	Sections []string
}

// DefaultRoutes returns the dashboard's route layout
func DefaultRoutes() Routes {
	return Routes{
		LoginPath:    "/login",
		HomePath:     "/",
		NotFoundPath: "/404",
		Sections:     []string{"/setting", "/employee"},
	}
}

// Config wires a Server. Throttle, APIProxy and Metrics are optional.
type Config struct {
	Store     session.Store
	Flasher   *notify.Flasher
	Auth      Authenticator
	Renderer  *nav.Renderer
	Gate      *middleware.RouteGate
	Guard     *middleware.PresenceGuard
	TokenAuth *middleware.TokenAuth
	Throttle  *middleware.LoginThrottle
	APIProxy  http.Handler
	Routes    Routes
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

// Server is the dashboard shell: it composes the route gate, the presence
// guard and the navigation renderer around page content
type Server struct {
	store     session.Store
	flasher   *notify.Flasher
	auth      Authenticator
	renderer  *nav.Renderer
	gate      *middleware.RouteGate
	guard     *middleware.PresenceGuard
	tokenAuth *middleware.TokenAuth
	throttle  *middleware.LoginThrottle
	apiProxy  http.Handler
	routes    Routes
	logger    *observability.Logger
	metrics   *observability.Metrics
	pages     *pages
	router    *mux.Router
}

// NewServer creates the dashboard server and registers its routes
func NewServer(cfg Config) (*Server, error) {
	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	defaults := DefaultRoutes()
	if cfg.Routes.LoginPath == "" {
		cfg.Routes.LoginPath = defaults.LoginPath
	}
	if cfg.Routes.HomePath == "" {
		cfg.Routes.HomePath = defaults.HomePath
	}
	if cfg.Routes.NotFoundPath == "" {
		cfg.Routes.NotFoundPath = defaults.NotFoundPath
	}

	s := &Server{
		store:     cfg.Store,
		flasher:   cfg.Flasher,
		auth:      cfg.Auth,
		renderer:  cfg.Renderer,
		gate:      cfg.Gate,
		guard:     cfg.Guard,
		tokenAuth: cfg.TokenAuth,
		throttle:  cfg.Throttle,
		apiProxy:  cfg.APIProxy,
		routes:    cfg.Routes,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		pages:     tmpl,
		router:    mux.NewRouter(),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all the dashboard routes
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	// Assets and the API proxy sit outside the page chain
	s.router.PathPrefix("/static/").Handler(staticHandler())
	if s.apiProxy != nil {
		proxy := s.apiProxy
		if s.tokenAuth != nil {
			proxy = s.tokenAuth.Handler(proxy)
		}
		s.router.PathPrefix("/api/").Handler(proxy)
	}

	// Login and logout
	s.router.Handle(s.routes.LoginPath, s.page(http.HandlerFunc(s.loginPage))).Methods(http.MethodGet)
	s.router.Handle(s.routes.LoginPath, s.page(s.throttled(http.HandlerFunc(s.submitLogin)))).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.logout).Methods(http.MethodGet, http.MethodPost)

	// Authenticated pages
	s.router.Handle(s.routes.HomePath, s.page(http.HandlerFunc(s.homePage))).Methods(http.MethodGet)
	s.router.Handle(s.routes.NotFoundPath, s.page(http.HandlerFunc(s.notFoundPage))).Methods(http.MethodGet)
	for _, section := range s.routes.Sections {
		s.router.Handle(section, s.page(http.HandlerFunc(s.sectionPage))).Methods(http.MethodGet)
		s.router.Handle(section+"/{page:.*}", s.page(http.HandlerFunc(s.sectionPage))).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = s.page(http.HandlerFunc(s.notFoundPage))
}

// page puts a handler behind the route gate and the presence guard. The
// gate runs first, as it would at the edge.
func (s *Server) page(h http.Handler) http.Handler {
	if s.guard != nil {
		h = s.guard.Handler(h)
	}
	if s.gate != nil {
		h = s.gate.Handler(h)
	}
	return h
}

func (s *Server) throttled(h http.Handler) http.Handler {
	if s.throttle == nil {
		return h
	}
	return s.throttle.Handler(h)
}

// Router exposes the router so callers can register extra routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler on the bare router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// maxBodyBytes caps request bodies, proxied uploads included
const maxBodyBytes = 10 << 20

// Handler returns the router wrapped in the request pipeline
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware(s.logger),
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware,
		httputil.SecurityHeadersMiddleware,
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)
	return otelhttp.NewHandler(chain(s.router), "dashboard")
}
