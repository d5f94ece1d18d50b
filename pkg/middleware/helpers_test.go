package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

var adminTree = menu.Tree{
	{ID: menu.StringID("1"), Name: "Users", Route: "/setting/users", Roles: []string{"admin"}},
}

func newStore() *session.CookieStore {
	return session.NewCookieStore(session.CookieOptions{})
}

// withCookies builds a request carrying the cookies a store issued for sess
func withCookies(t *testing.T, store session.Store, method, path string, sess *session.Session) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if sess == nil {
		return req
	}
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, req, sess))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return withQuietLogger(req)
}

func withQuietLogger(r *http.Request) *http.Request {
	ctx := observability.WithLogger(r.Context(), observability.NewLogger(observability.ErrorLevel, io.Discard))
	return r.WithContext(ctx)
}

// recordingHandler remembers the session it was called with
type recordingHandler struct {
	called bool
	sess   *session.Session
	ctx    context.Context
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	h.sess, _ = session.FromContext(r.Context())
	w.Write([]byte("ok"))
}
