package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/contextkeys"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
)

var (
	// ErrNoSession means the requested part of the session is absent or expired
	ErrNoSession = errors.New("no session")
	// ErrMalformedSession means stored session data could not be decoded
	ErrMalformedSession = errors.New("malformed session data")
	// ErrSnapshotTooLarge means the menu snapshot does not fit in a cookie
	ErrSnapshotTooLarge = errors.New("menu snapshot too large for cookie")
)

// Authorization is the snapshot taken at login that the route gate
// evaluates. It expires independently of the token.
type Authorization struct {
	Role  string    `json:"role"`
	Menus menu.Tree `json:"menus"`
}

// Complete reports whether both role and menu snapshot are present
func (a *Authorization) Complete() bool {
	return a != nil && a.Role != "" && a.Menus != nil
}

// Session is the authentication token plus, when still valid, the
// authorization snapshot
type Session struct {
	Token string
	Auth  *Authorization
}

// Store persists sessions between requests.
//
// Login is the only writer of a complete session; logout clears it. The
// optional menu sync rewrites the authorization snapshot alone.
type Store interface {
	// LoadToken returns the bearer token, or ErrNoSession
	LoadToken(r *http.Request) (string, error)

	// LoadAuthorization returns the role and menu snapshot, ErrNoSession
	// when either is missing, or ErrMalformedSession when it cannot be decoded
	LoadAuthorization(r *http.Request) (*Authorization, error)

	// Save writes a complete session
	Save(w http.ResponseWriter, r *http.Request, sess *Session) error

	// SaveAuthorization replaces the authorization snapshot of the current session
	SaveAuthorization(w http.ResponseWriter, r *http.Request, auth *Authorization) error

	// Clear removes everything the store holds for the current session
	Clear(w http.ResponseWriter, r *http.Request) error
}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess *Session) context.Context {
	return contextkeys.WithSession(ctx, sess)
}

// FromContext returns the session attached by the guard or gate middleware
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextkeys.SessionKey).(*Session)
	return sess, ok && sess != nil
}

// TokenFromContext returns the session token attached to ctx, if any
func TokenFromContext(ctx context.Context) string {
	if sess, ok := FromContext(ctx); ok {
		return sess.Token
	}
	return ""
}
