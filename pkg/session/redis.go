package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
)

// SessionIDCookie carries the opaque id of a Redis-backed session
const SessionIDCookie = "sid"

// DefaultRedisPrefix namespaces session keys
const DefaultRedisPrefix = "dashboard:session:"

// RedisStore keeps the session in Redis behind an opaque id cookie. Token
// and authorization are separate keys so each keeps its own TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   CookieOptions
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, opts CookieOptions) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		opts:   opts.normalize(),
	}
}

func (s *RedisStore) tokenKey(sid string) string {
	return s.prefix + sid + ":token"
}

func (s *RedisStore) authKey(sid string) string {
	return s.prefix + sid + ":auth"
}

func (s *RedisStore) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionIDCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", ErrNoSession
	}
	return c.Value, nil
}

// LoadToken implements Store
func (s *RedisStore) LoadToken(r *http.Request) (string, error) {
	sid, err := s.sessionID(r)
	if err != nil {
		return "", err
	}
	token, err := s.client.Get(r.Context(), s.tokenKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: failed to load token: %w", err)
	}
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// LoadAuthorization implements Store
func (s *RedisStore) LoadAuthorization(r *http.Request) (*Authorization, error) {
	sid, err := s.sessionID(r)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Get(r.Context(), s.authKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to load authorization: %w", err)
	}

	var auth Authorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if !auth.Complete() {
		return nil, ErrNoSession
	}
	return &auth, nil
}

// Save implements Store. Every login gets a fresh session id.
func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("session: missing token")
	}
	if !sess.Auth.Complete() {
		return fmt.Errorf("session: missing role or menus")
	}
	auth, err := json.Marshal(sess.Auth)
	if err != nil {
		return fmt.Errorf("session: failed to marshal authorization: %w", err)
	}

	ctx := r.Context()
	if old, err := s.sessionID(r); err == nil {
		if err := s.delete(ctx, old); err != nil {
			observability.FromContext(ctx).WithError(err).Warn("failed to delete previous session")
		}
	}

	sid := uuid.NewString()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(sid), sess.Token, s.opts.TokenTTL)
		pipe.Set(ctx, s.authKey(sid), auth, s.opts.AuthTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: failed to store session: %w", err)
	}

	http.SetCookie(w, s.opts.cookie(SessionIDCookie, sid, s.opts.TokenTTL))
	return nil
}

// SaveAuthorization implements Store
func (s *RedisStore) SaveAuthorization(w http.ResponseWriter, r *http.Request, auth *Authorization) error {
	if !auth.Complete() {
		return fmt.Errorf("session: missing role or menus")
	}
	sid, err := s.sessionID(r)
	if err != nil {
		return err
	}
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("session: failed to marshal authorization: %w", err)
	}
	if err := s.client.Set(r.Context(), s.authKey(sid), data, s.opts.AuthTTL).Err(); err != nil {
		return fmt.Errorf("session: failed to store authorization: %w", err)
	}
	return nil
}

// Clear implements Store. The cookie is expired even when Redis is unreachable.
func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, s.opts.expired(SessionIDCookie))

	sid, err := s.sessionID(r)
	if err != nil {
		return nil
	}
	return s.delete(r.Context(), sid)
}

func (s *RedisStore) delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, s.tokenKey(sid), s.authKey(sid)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	return nil
}
