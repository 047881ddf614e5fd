// Package ratelimit provides per-key token buckets for abuse-prone endpoints
// (login, OTP verification and resend, invitation join) and for outbound
// webhook delivery.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed holds one token bucket per key. It is safe for concurrent use.
type Keyed struct {
	limit rate.Limit
	burst int
	idle  time.Duration // entries unused this long are dropped

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Keyed limiter that allows burst events at once and refills
// at `every` events per `per`. For example New(5, 5, time.Minute) allows five
// attempts and then one more every 12 seconds.
func New(burst, every int, per time.Duration) *Keyed {
	k := &Keyed{
		limit:   rate.Limit(float64(every) / per.Seconds()),
		burst:   burst,
		idle:    2 * per,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if k.idle < time.Minute {
		k.idle = time.Minute
	}
	go k.cleanupLoop()
	return k
}

// Limiter returns the bucket for key, creating it on first use.
func (k *Keyed) Limiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Allow reports whether one more event for key may happen now.
func (k *Keyed) Allow(key string) bool {
	return k.Limiter(key).Allow()
}

// Reset forgets key, restoring its full burst. Used after a successful
// sign-in.
func (k *Keyed) Reset(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.buckets, key)
}

// RetryAfter estimates how long until one token is available again.
func (k *Keyed) RetryAfter() time.Duration {
	if k.limit <= 0 {
		return time.Minute
	}
	secs := math.Ceil(1.0 / float64(k.limit))
	return time.Duration(secs) * time.Second
}

// Size is the number of tracked keys.
func (k *Keyed) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Stop ends the background cleanup goroutine.
func (k *Keyed) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
}

func (k *Keyed) cleanupLoop() {
	ticker := time.NewTicker(k.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.sweep(time.Now())
		case <-k.stop:
			return
		}
	}
}

func (k *Keyed) sweep(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) > k.idle {
			delete(k.buckets, key)
		}
	}
}

// Middleware limits requests by keyFn(r). Blocked requests get 429 with a
// Retry-After header. An empty key is never limited.
func (k *Keyed) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := keyFn(r); key != "" && !k.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(int(k.RetryAfter().Seconds())))
				http.Error(w, "Too many requests. Please wait and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter tracks sign-in attempts both per IP and per email, covering
// distributed guessing against one account and one client trying many
// accounts.
type LoginLimiter struct {
	ip    *Keyed
	email *Keyed
}

// NewLoginLimiter allows ipBurst attempts per IP per minute and emailBurst
// attempts per email per five minutes.
func NewLoginLimiter(ipBurst, emailBurst int) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(ipBurst, ipBurst, time.Minute),
		email: New(emailBurst, emailBurst, 5*time.Minute),
	}
}

// Check reports whether a sign-in attempt may proceed, and if not, why.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if key := normalizeEmail(email); key != "" && !ll.email.Allow(key) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the per-email bucket after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalizeEmail(email); key != "" {
		ll.email.Reset(key)
	}
}

// Stop ends both cleanup goroutines.
func (ll *LoginLimiter) Stop() {
	ll.ip.Stop()
	ll.email.Stop()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
