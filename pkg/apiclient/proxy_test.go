package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

func TestClient_Proxy(t *testing.T) {
	var got *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer upstream.Close()

	client, err := New(upstream.URL+"/api", time.Second, nil)
	require.NoError(t, err)
	proxy := client.Proxy("/api/")

	req := httptest.NewRequest(http.MethodGet, "/api/users?page=2", nil)
	req.Header.Set("Cookie", "token=tok; menus=abc")
	req.Header.Set("Authorization", "Bearer forged")
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{Token: "tok"}))

	w := httptest.NewRecorder()
	proxy.ServeHTTP(w, req)

	require.NotNil(t, got)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"id":1}]`, w.Body.String())
	assert.Equal(t, "/api/users", got.URL.Path)
	assert.Equal(t, "page=2", got.URL.RawQuery)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Empty(t, got.Header.Get("Cookie"))
}

func TestClient_ProxyUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	client, err := New(url, time.Second, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	client.Proxy("/api").ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/users/3", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "api unavailable")
}
