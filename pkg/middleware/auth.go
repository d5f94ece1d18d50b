package middleware

import (
	"net/http"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// TokenAuth guards JSON endpoints such as the API proxy. Unlike the
// presence guard it answers 401 instead of redirecting, since the caller is
// a script rather than a browser navigation.
type TokenAuth struct {
	store session.Store
}

// NewTokenAuth creates token authentication middleware
func NewTokenAuth(store session.Store) *TokenAuth {
	return &TokenAuth{store: store}
}

// Handler wraps an HTTP handler with token authentication
func (m *TokenAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.store.LoadToken(r)
		if err != nil || token == "" {
			httputil.WriteUnauthorized(w, "missing session token")
			return
		}

		ctx := session.WithSession(r.Context(), &session.Session{Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
