package session

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
)

// Cookie names used by CookieStore
const (
	TokenCookie = "token"
	RoleCookie  = "role"
	MenusCookie = "menus"
)

// MaxCookieSize is the largest Set-Cookie value browsers are required to
// keep. Larger cookies are dropped without an error.
const MaxCookieSize = 4096

// Default lifetimes. The token outlives the authorization snapshot; once
// the snapshot expires the gate sends the user back to login even though
// the token is still present.
const (
	DefaultTokenTTL = 30 * 24 * time.Hour
	DefaultAuthTTL  = 24 * time.Hour
)

// CookieOptions defines how session cookies are issued
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TokenTTL time.Duration
	AuthTTL  time.Duration
}

// normalize applies defaults without overriding explicit settings
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = DefaultTokenTTL
	}
	if o.AuthTTL <= 0 {
		o.AuthTTL = DefaultAuthTTL
	}
	return o
}

func (o CookieOptions) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

func (o CookieOptions) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

// CookieStore keeps the whole session in browser cookies: the token in a
// long-lived cookie, the role and menu snapshot in cookies that expire
// after AuthTTL
type CookieStore struct {
	opts CookieOptions
}

// NewCookieStore creates a cookie-backed session store
func NewCookieStore(opts CookieOptions) *CookieStore {
	return &CookieStore{opts: opts.normalize()}
}

// LoadToken implements Store
func (s *CookieStore) LoadToken(r *http.Request) (string, error) {
	c, err := r.Cookie(TokenCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	return c.Value, nil
}

// LoadAuthorization implements Store
func (s *CookieStore) LoadAuthorization(r *http.Request) (*Authorization, error) {
	roleCookie, err := r.Cookie(RoleCookie)
	if err != nil || roleCookie.Value == "" {
		return nil, ErrNoSession
	}
	menusCookie, err := r.Cookie(MenusCookie)
	if err != nil || menusCookie.Value == "" {
		return nil, ErrNoSession
	}

	role, err := url.QueryUnescape(roleCookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: role: %v", ErrMalformedSession, err)
	}
	tree, err := menu.DecodeCookie(menusCookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSession, err)
	}

	return &Authorization{Role: role, Menus: tree}, nil
}

// Save implements Store
func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("session: missing token")
	}
	if !sess.Auth.Complete() {
		return fmt.Errorf("session: missing role or menus")
	}

	menus, err := s.menusCookie(sess.Auth.Menus)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.opts.cookie(TokenCookie, sess.Token, s.opts.TokenTTL))
	http.SetCookie(w, s.opts.cookie(RoleCookie, url.QueryEscape(sess.Auth.Role), s.opts.AuthTTL))
	http.SetCookie(w, menus)
	return nil
}

// SaveAuthorization implements Store
func (s *CookieStore) SaveAuthorization(w http.ResponseWriter, r *http.Request, auth *Authorization) error {
	if !auth.Complete() {
		return fmt.Errorf("session: missing role or menus")
	}
	menus, err := s.menusCookie(auth.Menus)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.opts.cookie(RoleCookie, url.QueryEscape(auth.Role), s.opts.AuthTTL))
	http.SetCookie(w, menus)
	return nil
}

// menusCookie encodes the snapshot and rejects it when the resulting
// Set-Cookie header would exceed MaxCookieSize
func (s *CookieStore) menusCookie(tree menu.Tree) (*http.Cookie, error) {
	value, err := menu.EncodeCookie(tree)
	if err != nil {
		return nil, fmt.Errorf("session: failed to encode menus: %w", err)
	}
	c := s.opts.cookie(MenusCookie, value, s.opts.AuthTTL)
	if size := len(c.String()); size > MaxCookieSize {
		return nil, fmt.Errorf("session: %w (%d bytes, limit %d); use FESIM_SESSION_BACKEND=redis",
			ErrSnapshotTooLarge, size, MaxCookieSize)
	}
	return c, nil
}

// Clear implements Store
func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	for _, name := range []string{TokenCookie, RoleCookie, MenusCookie} {
		http.SetCookie(w, s.opts.expired(name))
	}
	return nil
}
