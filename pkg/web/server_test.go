package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/apiclient"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/middleware"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/nav"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

var (
	adminMenus = menu.Tree{
		{ID: menu.StringID("1"), Name: "Dashboard", Route: "/", Icon: "DashboardOutlined", Roles: []string{"admin", "employee"}},
		{ID: menu.StringID("2"), Name: "Setting", Icon: "SettingOutlined", Roles: []string{"admin"}, Children: []menu.Node{
			{ID: menu.StringID("3"), Name: "Users", Route: "/setting/users", Icon: "UserOutlined", Roles: []string{"admin"}},
		}},
		{ID: menu.StringID("4"), Name: "Employee", Icon: "TeamOutlined", Roles: []string{"admin", "employee"}, Children: []menu.Node{
			{ID: menu.StringID("5"), Name: "Tasks", Route: "/employee/tasks", Roles: []string{"admin", "employee"}},
		}},
	}
	employeeMenus = menu.Tree{
		{ID: menu.StringID("1"), Name: "Dashboard", Route: "/", Roles: []string{"admin", "employee"}},
		{ID: menu.StringID("4"), Name: "Employee", Roles: []string{"admin", "employee"}, Children: []menu.Node{
			{ID: menu.StringID("5"), Name: "Tasks", Route: "/employee/tasks", Roles: []string{"admin", "employee"}},
		}},
	}
)

type fakeAuth struct {
	result *apiclient.LoginResult
	err    error
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error) {
	return f.result, f.err
}

type fakeMenus struct {
	trees map[string]menu.Tree
	err   error
}

func (f *fakeMenus) MenuRole(ctx context.Context, token string) (menu.Tree, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trees[token], nil
}

type fakeRemote struct{ err error }

func (f *fakeRemote) Logout(ctx context.Context, token string) error { return f.err }

type harness struct {
	handler http.Handler
	store   session.Store
	auth    *fakeAuth
	menus   *fakeMenus
	metrics *observability.Metrics
}

func newHarness(t *testing.T, configure ...func(*Config)) *harness {
	t.Helper()

	store := session.NewCookieStore(session.CookieOptions{})
	flasher := notify.NewFlasher(false)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	auth := &fakeAuth{}
	menus := &fakeMenus{trees: map[string]menu.Tree{"admin-token": adminMenus, "employee-token": employeeMenus}}

	cfg := Config{
		Store:   store,
		Flasher: flasher,
		Auth:    auth,
		Renderer: nav.NewRenderer(nav.Config{
			Source:  menus,
			Remote:  &fakeRemote{},
			Store:   store,
			Flasher: flasher,
			Metrics: metrics,
		}),
		Gate:      middleware.NewRouteGate(store, middleware.DefaultGateConfig(), metrics),
		Guard:     middleware.NewPresenceGuard(store, flasher, middleware.DefaultPresenceConfig(), metrics),
		TokenAuth: middleware.NewTokenAuth(store),
		Routes:    DefaultRoutes(),
		Logger:    observability.NewLogger(observability.ErrorLevel, io.Discard),
		Metrics:   metrics,
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	server, err := NewServer(cfg)
	require.NoError(t, err)
	return &harness{handler: server.Handler(), store: store, auth: auth, menus: menus, metrics: metrics}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

// signedIn builds a request carrying the cookies of a session logged in
// with token and the given snapshot
func (h *harness) signedIn(t *testing.T, method, path, token, role string, menus menu.Tree) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.store.Save(rec, req, &session.Session{
		Token: token,
		Auth:  &session.Authorization{Role: role, Menus: menus},
	}))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func loginForm(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookies(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	m := make(map[string]*http.Cookie)
	for _, c := range w.Result().Cookies() {
		m[c.Name] = c
	}
	return m
}

// follow copies the cookies a response set onto the next request
func follow(w *httptest.ResponseRecorder, next *http.Request) *http.Request {
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			next.AddCookie(c)
		}
	}
	return next
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<form method="post" action="/login"`)
	assert.NotContains(t, w.Body.String(), "sidebar", "login renders without the shell")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	h.auth.result = &apiclient.LoginResult{
		Token: "admin-token",
		User:  apiclient.User{Role: "admin", Menus: adminMenus},
	}

	w := h.do(loginForm("admin@example.com", "secret"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	set := cookies(w)
	assert.Equal(t, "admin-token", set[session.TokenCookie].Value)
	assert.Contains(t, set, session.RoleCookie)
	assert.Contains(t, set, session.MenusCookie)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.LoginAttemptsTotal.WithLabelValues("success")))

	home := h.do(follow(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), LoginSuccessTitle)
	assert.Contains(t, home.Body.String(), LoginSuccessMessage)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		err      error
		status   int
		message  string
	}{
		{"missing fields", "", "", nil, http.StatusBadRequest, MissingFieldsText},
		{"api message", "a@example.com", "bad", &apiclient.APIError{Status: 401, Message: "Email atau password salah"}, http.StatusUnauthorized, "Email atau password salah"},
		{"api without message", "a@example.com", "bad", &apiclient.APIError{Status: 422}, http.StatusUnauthorized, LoginFailedMessage},
		{"api unreachable", "a@example.com", "pw", errors.New("dial tcp: connection refused"), http.StatusBadGateway, LoginFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.auth.err = tt.err

			w := h.do(loginForm(tt.email, tt.password))

			assert.Equal(t, tt.status, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, LoginFailedTitle)
			assert.Contains(t, body, tt.message)
			assert.NotContains(t, cookies(w), session.TokenCookie)
		})
	}
}

func TestLogin_IncompleteAnswer(t *testing.T) {
	h := newHarness(t)
	h.auth.result = &apiclient.LoginResult{Token: "tok", User: apiclient.User{Role: ""}}

	w := h.do(loginForm("a@example.com", "pw"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, cookies(w), session.TokenCookie)
}

func TestLogin_Throttled(t *testing.T) {
	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
		BurstSize:         1,
	})
	h := newHarness(t, func(cfg *Config) {
		cfg.Throttle = middleware.NewLoginThrottle(limiter, cfg.Flasher, "/login", time.Minute, nil, cfg.Metrics)
	})
	h.auth.err = &apiclient.APIError{Status: 401}

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = h.do(loginForm("a@example.com", "guess"))
	}

	assert.Equal(t, http.StatusSeeOther, last.Code)
	assert.Equal(t, "/login", last.Header().Get("Location"))
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(h.metrics.LoginAttemptsTotal.WithLabelValues("throttled")), float64(1))
}

func TestHome_RequiresToken(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	page := h.do(follow(w, httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Contains(t, page.Body.String(), middleware.AccessDeniedTitle)
}

func TestHome_RendersShell(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.signedIn(t, http.MethodGet, "/", "admin-token", "admin", adminMenus))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, WelcomeText)
	assert.Contains(t, body, AppName)
	assert.Contains(t, body, FooterText)
	assert.Contains(t, body, `href="/setting/users"`)
	assert.Contains(t, body, `<li class="menu-item selected"><a href="/">`)
	assert.Contains(t, body, "icon-dashboard")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestLoginPage_SignedInGoesHome(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.signedIn(t, http.MethodGet, "/login", "admin-token", "admin", adminMenus))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSectionPage(t *testing.T) {
	t.Run("authorized", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(h.signedIn(t, http.MethodGet, "/setting/users", "admin-token", "admin", adminMenus))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<h1>Users</h1>")
		assert.Contains(t, body, `data-endpoint="/api/setting/users"`)
		assert.Contains(t, body, "<details open>", "the Setting group is expanded")
	})

	t.Run("role not in menu", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(h.signedIn(t, http.MethodGet, "/setting/users", "employee-token", "employee", employeeMenus))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/404", w.Header().Get("Location"))
		assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.GateDecisionsTotal.WithLabelValues("not_found")))
	})

	t.Run("no snapshot", func(t *testing.T) {
		h := newHarness(t)
		req := httptest.NewRequest(http.MethodGet, "/employee/tasks", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: "employee-token"})

		w := h.do(req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("deeper path needs its own entry", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(h.signedIn(t, http.MethodGet, "/employee/tasks/5", "admin-token", "admin", adminMenus))

		assert.Equal(t, "/404", w.Header().Get("Location"))
	})
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.signedIn(t, http.MethodGet, "/404", "employee-token", "employee", employeeMenus))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Halaman tidak ditemukan.")

	w = h.do(h.signedIn(t, http.MethodGet, "/no-such-page", "employee-token", "employee", employeeMenus))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)

	w := h.do(h.signedIn(t, http.MethodPost, "/logout", "admin-token", "admin", adminMenus))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	set := cookies(w)
	assert.Equal(t, -1, set[session.TokenCookie].MaxAge)

	page := h.do(follow(w, httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), nav.LogoutTitle)
}

func TestMenuFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.menus.err = errors.New("api down")

	w := h.do(h.signedIn(t, http.MethodGet, "/", "admin-token", "admin", adminMenus))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, -1, cookies(w)[session.TokenCookie].MaxAge)

	// the cleared session keeps the login page from bouncing back home
	page := h.do(follow(w, httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), nav.MenuLoadErrorTitle)
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".sidebar")
}

func TestAPIProxy(t *testing.T) {
	var gotAuth, gotPath, gotCookie string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Budi"}]`))
	}))
	defer upstream.Close()

	client, err := apiclient.New(upstream.URL+"/v1", time.Second, nil)
	require.NoError(t, err)

	h := newHarness(t, func(cfg *Config) { cfg.APIProxy = client.Proxy("/api") })

	t.Run("without token", func(t *testing.T) {
		w := h.do(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("with token", func(t *testing.T) {
		w := h.do(h.signedIn(t, http.MethodGet, "/api/users", "admin-token", "admin", adminMenus))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":1,"name":"Budi"}]`, w.Body.String())
		assert.Equal(t, "Bearer admin-token", gotAuth)
		assert.Equal(t, "/v1/users", gotPath)
		assert.Empty(t, gotCookie)
	})
}

func TestSectionTitle(t *testing.T) {
	view := nav.BuildView(adminMenus, menu.DefaultIcons, "/setting/users/7")
	assert.Equal(t, "Users", sectionTitle(view, "/setting/users/7"))

	assert.Equal(t, "reports", sectionTitle(nav.BuildView(nil, menu.DefaultIcons, "/setting/reports"), "/setting/reports"))
	assert.Equal(t, "reports", sectionTitle(nil, "/setting/reports"))
}
