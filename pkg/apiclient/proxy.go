package apiclient

import (
	"net/http"
	nethttputil "net/http/httputil"
	"strings"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// Proxy forwards requests under prefix to the remote API with the session
// token as bearer credential, so browser scripts never see the token.
// It expects the session in the request context (see middleware.TokenAuth).
func (c *Client) Proxy(prefix string) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	target := c.BaseURL()

	proxy := &nethttputil.ReverseProxy{
		Rewrite: func(pr *nethttputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = strings.TrimRight(target.Path, "/") + strings.TrimPrefix(pr.In.URL.Path, prefix)
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()

			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			if token := session.TokenFromContext(pr.In.Context()); token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		Transport: c.http.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			observability.FromContext(r.Context()).WithError(err).Warn("api proxy failed")
			httputil.WriteBadGateway(w, "api unavailable")
		},
	}
	return proxy
}
