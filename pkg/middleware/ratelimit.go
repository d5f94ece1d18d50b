package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate
	BurstSize int
}

// DefaultLoginRateLimitConfig returns the login throttle defaults: ten
// attempts a minute per client address with a small burst
func DefaultLoginRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Minute,
		BurstSize:         5,
	}
}

// Limiter decides whether another request for key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter implements rate limiting using token bucket algorithm in
// process memory
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
	now     func() time.Time
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultLoginRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow checks if a request is allowed for the given key. It never fails.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     rl.config.RequestsPerWindow + rl.config.BurstSize,
			lastUpdate: rl.now(),
		}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(b.lastUpdate)

	tokensToAdd := int(elapsed.Seconds() * float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds())
	if tokensToAdd > 0 {
		b.tokens += tokensToAdd
		maxTokens := rl.config.RequestsPerWindow + rl.config.BurstSize
		if b.tokens > maxTokens {
			b.tokens = maxTokens
		}
		b.lastUpdate = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}

	return false, nil
}

// Remaining returns the number of remaining tokens for a key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		return rl.config.RequestsPerWindow + rl.config.BurstSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tokens
}

// Cleanup removes idle buckets
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup starts a background goroutine to cleanup old buckets
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// TooManyAttemptsTitle is the notification shown when login is throttled
const TooManyAttemptsTitle = "Terlalu Banyak Percobaan"

// LoginThrottle limits login submissions per client address so the remote
// login endpoint is not used for password guessing. Only POST requests are
// counted; the login page itself always renders.
type LoginThrottle struct {
	limiter   Limiter
	flasher   *notify.Flasher
	loginPath string
	window    time.Duration
	proxies   httputil.TrustedProxies
	metrics   *observability.Metrics
}

// NewLoginThrottle creates the login throttle. Clients are keyed by their
// direct address unless it belongs to proxies. metrics may be nil.
func NewLoginThrottle(limiter Limiter, flasher *notify.Flasher, loginPath string, window time.Duration, proxies httputil.TrustedProxies, metrics *observability.Metrics) *LoginThrottle {
	if loginPath == "" {
		loginPath = "/login"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginThrottle{
		limiter:   limiter,
		flasher:   flasher,
		loginPath: loginPath,
		window:    window,
		proxies:   proxies,
		metrics:   metrics,
	}
}

// Handler wraps an HTTP handler with the login throttle
func (m *LoginThrottle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := "login:" + httputil.ClientIP(r, m.proxies)
		allowed, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// fail open: the remote API still authenticates every attempt
			observability.FromContext(r.Context()).WithError(err).Warn("login throttle unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		if m.metrics != nil {
			m.metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", m.window.Seconds()))
		if err := m.flasher.Set(w, notify.Error(TooManyAttemptsTitle, "Silakan coba lagi dalam beberapa saat.")); err != nil {
			observability.FromContext(r.Context()).WithError(err).Warn("failed to set throttle notification")
		}
		httputil.Redirect(w, r, m.loginPath)
	})
}
