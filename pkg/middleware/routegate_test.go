package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/contextkeys"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

func TestDecideRoute(t *testing.T) {
	admin := &session.Authorization{Role: "admin", Menus: adminTree}

	tests := []struct {
		name    string
		auth    *session.Authorization
		loadErr error
		path    string
		want    GateDecision
	}{
		{"authorized", admin, nil, "/setting/users", GateAllow},
		{"path not in tree", admin, nil, "/setting/roles", GateNotFound},
		{"no snapshot", nil, session.ErrNoSession, "/setting/users", GateLogin},
		{"malformed snapshot", nil, session.ErrMalformedSession, "/setting/users", GateLogin},
		{"unexpected load error", admin, errors.New("redis down"), "/setting/users", GateLogin},
		{"empty role", &session.Authorization{Role: "", Menus: adminTree}, nil, "/setting/users", GateLogin},
		{"nil menus", &session.Authorization{Role: "admin"}, nil, "/setting/users", GateLogin},
		{"empty menus", &session.Authorization{Role: "admin", Menus: menu.Tree{}}, nil, "/setting/users", GateNotFound},
		{"other role", &session.Authorization{Role: "employee", Menus: adminTree}, nil, "/setting/users", GateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideRoute(tt.auth, tt.loadErr, tt.path))
		})
	}
}

func TestGateDecision_String(t *testing.T) {
	assert.Equal(t, "allow", GateAllow.String())
	assert.Equal(t, "login", GateLogin.String())
	assert.Equal(t, "not_found", GateNotFound.String())
	assert.Equal(t, "unknown", GateDecision(42).String())
}

func TestRouteGate_Protects(t *testing.T) {
	gate := NewRouteGate(newStore(), GateConfig{Prefixes: []string{"/setting/", " /employee", ""}}, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/setting", true},
		{"/setting/users", true},
		{"/setting/users/5/edit", true},
		{"/employee", true},
		{"/employee/tasks", true},
		{"/settings", false},
		{"/employees", false},
		{"/", false},
		{"/login", false},
		{"/api/users", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.Protects(tt.path))
		})
	}
}

func TestRouteGate_Handler(t *testing.T) {
	store := newStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	gate := NewRouteGate(store, DefaultGateConfig(), metrics)

	adminSession := &session.Session{Token: "tok", Auth: &session.Authorization{Role: "admin", Menus: adminTree}}

	t.Run("authorized path passes through", func(t *testing.T) {
		next := &recordingHandler{}
		w := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(w, withCookies(t, store, http.MethodGet, "/setting/users", adminSession))

		assert.True(t, next.called)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, next.sess)
		assert.Equal(t, "admin", next.sess.Auth.Role)
		assert.Equal(t, "admin", contextkeys.GetRole(next.ctx))
	})

	t.Run("path outside the tree goes to not found", func(t *testing.T) {
		next := &recordingHandler{}
		w := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(w, withCookies(t, store, http.MethodGet, "/setting/roles", adminSession))

		assert.False(t, next.called)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/404", w.Header().Get("Location"))
	})

	t.Run("unparsable menus go to login", func(t *testing.T) {
		req := withCookies(t, store, http.MethodGet, "/employee/tasks", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: "tok"})
		req.AddCookie(&http.Cookie{Name: session.RoleCookie, Value: "admin"})
		req.AddCookie(&http.Cookie{Name: session.MenusCookie, Value: "bm90LWpzb24"})
		req = withQuietLogger(req)

		next := &recordingHandler{}
		w := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(w, req)

		assert.False(t, next.called)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("missing snapshot goes to login", func(t *testing.T) {
		next := &recordingHandler{}
		w := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/employee", nil))

		assert.False(t, next.called)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("unprotected path is untouched", func(t *testing.T) {
		next := &recordingHandler{}
		w := httptest.NewRecorder()
		gate.Handler(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, next.called)
		assert.Nil(t, next.sess)
	})

	t.Run("never writes session cookies", func(t *testing.T) {
		w := httptest.NewRecorder()
		gate.Handler(&recordingHandler{}).ServeHTTP(w, withCookies(t, store, http.MethodGet, "/setting/roles", adminSession))
		assert.Empty(t, w.Result().Cookies())
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.GateDecisionsTotal.WithLabelValues("allow")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.GateDecisionsTotal.WithLabelValues("not_found")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.GateDecisionsTotal.WithLabelValues("login")))
}

func TestRouteGate_KeepsTokenFromGuard(t *testing.T) {
	store := newStore()
	gate := NewRouteGate(store, DefaultGateConfig(), nil)
	adminSession := &session.Session{Token: "tok", Auth: &session.Authorization{Role: "admin", Menus: adminTree}}

	req := withCookies(t, store, http.MethodGet, "/setting/users", adminSession)
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{Token: "tok"}))

	next := &recordingHandler{}
	gate.Handler(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, next.sess)
	assert.Equal(t, "tok", next.sess.Token)
	assert.Equal(t, "admin", next.sess.Auth.Role)
}

func TestRouteGate_LogsReachableOnDenial(t *testing.T) {
	store := newStore()
	gate := NewRouteGate(store, DefaultGateConfig(), nil)
	adminSession := &session.Session{Token: "tok", Auth: &session.Authorization{Role: "admin", Menus: adminTree}}

	logged := func(level observability.LogLevel) map[string]interface{} {
		var buf bytes.Buffer
		req := withCookies(t, store, http.MethodGet, "/setting/roles", adminSession)
		req = req.WithContext(observability.WithLogger(req.Context(), observability.NewLogger(level, &buf)))

		w := httptest.NewRecorder()
		gate.Handler(&recordingHandler{}).ServeHTTP(w, req)
		require.Equal(t, "/404", w.Header().Get("Location"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "role not authorized for path", entry["message"])
		assert.Equal(t, "admin", entry["role"])
		return entry
	}

	assert.Equal(t, []interface{}{"/setting/users"}, logged(observability.DebugLevel)["reachable"])
	assert.NotContains(t, logged(observability.InfoLevel), "reachable")
}
