// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit hits per key per duration. A
// background sweep drops expired windows until Stop is called.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweep(duration * 2)
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many hits are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if r := l.limit - w.count; r > 0 {
		return r
	}
	return 0
}

// Reset clears key, e.g. after a successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Stop ends the background sweep.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for k, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are
// ignored here; when the API runs behind a trusted proxy, middleware.RealIP
// rewrites RemoteAddr before this is called.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Guard pairs a per-IP limiter with a per-identity (e-mail) limiter for the
// account endpoints: login, registration, OTP verify and resend.
type Guard struct {
	ip       *Limiter
	identity *Limiter
	ipMsg    string
	idMsg    string
}

// NewGuard builds a guard from explicit limits.
func NewGuard(ipLimit int, ipWindow time.Duration, idLimit int, idWindow time.Duration) *Guard {
	return &Guard{
		ip:       New(ipLimit, ipWindow),
		identity: New(idLimit, idWindow),
		ipMsg:    "Too many requests. Please wait a minute before trying again.",
		idMsg:    "Too many attempts for this account. Please wait a few minutes.",
	}
}

// NewLoginGuard allows 10 attempts per IP per minute and 5 per e-mail per
// 5 minutes.
func NewLoginGuard() *Guard { return NewGuard(10, time.Minute, 5, 5*time.Minute) }

// NewOTPGuard allows 10 requests per IP per minute and 5 per e-mail per
// 10 minutes.
func NewOTPGuard() *Guard { return NewGuard(10, time.Minute, 5, 10*time.Minute) }

// Check records an attempt and returns (allowed, reason).
func (g *Guard) Check(r *http.Request, email string) (bool, string) {
	if !g.ip.Allow(ClientIP(r)) {
		return false, g.ipMsg
	}
	if key := identityKey(email); key != "" && !g.identity.Allow(key) {
		return false, g.idMsg
	}
	return true, ""
}

// ResetIdentity clears the per-e-mail counter.
func (g *Guard) ResetIdentity(email string) {
	if key := identityKey(email); key != "" {
		g.identity.Reset(key)
	}
}

// Stop ends both limiters' sweeps.
func (g *Guard) Stop() {
	g.ip.Stop()
	g.identity.Stop()
}

func identityKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PerIP is middleware rejecting requests over l's per-IP limit with 429.
func PerIP(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				WriteTooMany(w, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteTooMany writes the JSON 429 body used across the API.
func WriteTooMany(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
