package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

// LoginLimiter throttles authentication attempts per client IP with a
// token bucket, slowing credential guessing against the system login
// endpoint.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*attemptBucket
	rate    float64 // tokens per second
	burst   int
	maxIPs  int // cap on tracked IPs
}

type attemptBucket struct {
	tokens   float64
	lastSeen time.Time
	refilled time.Time
}

// NewLoginLimiter creates a limiter allowing the given sustained
// attempt rate (per second) and burst per IP.
func NewLoginLimiter(rate float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		buckets: make(map[string]*attemptBucket),
		rate:    rate,
		burst:   burst,
		maxIPs:  100000,
	}
}

// Handler returns middleware that applies the limit to requests whose
// path equals protectedPath. All other requests pass through.
func (l *LoginLimiter) Handler(protectedPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != protectedPath {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter, allowed := l.allow(clientIP(r))
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many login attempts"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *LoginLimiter) allow(ip string) (retryAfter float64, allowed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= l.maxIPs {
			return 1.0 / l.rate, false
		}
		l.buckets[ip] = &attemptBucket{
			tokens:   float64(l.burst) - 1,
			lastSeen: now,
			refilled: now,
		}
		return 0, true
	}

	b.tokens += now.Sub(b.refilled).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.refilled = now
	b.lastSeen = now

	if b.tokens < 1 {
		return (1 - b.tokens) / l.rate, false
	}
	b.tokens--
	return 0, true
}

// StartCleanup spawns a goroutine that drops buckets idle longer than
// maxIdle, checking every interval. The returned function stops it.
func (l *LoginLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				l.cleanup(maxIdle)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (l *LoginLimiter) cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// clientIP extracts the client IP from RemoteAddr. Proxy headers are
// not trusted here: a spoofed X-Forwarded-For would bypass the limit.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
