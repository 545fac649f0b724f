package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	authPathPrefix    = "/auth/"
	gcThreshold       = 1000
	maxTrackedClients = 10000
	idleClientTTL     = 10 * time.Minute
)

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles per client IP as reported by ClientIP.
// Credential endpoints under /auth/ draw from their own, stricter bucket. A
// non-positive general rate disables general limiting. At most maxClients
// buckets are tracked; the least recently seen one is dropped first.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	maxClients int
	now        func() time.Time
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		maxClients: maxTrackedClients,
		now:        time.Now,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := m.getLimiter(ClientIP(r))

		target := limiter.general
		if strings.HasPrefix(strings.ToLower(r.URL.Path), authPathPrefix) {
			target = limiter.auth
		}

		if target != nil && !target.AllowN(m.now(), 1) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = now
		return limiter
	}

	m.gcLocked(now)

	created := &clientLimiter{
		auth:     newMinuteLimiter(m.authRPM),
		lastSeen: now,
	}
	if m.generalRPM > 0 {
		created.general = newMinuteLimiter(m.generalRPM)
	}
	m.clients[clientIP] = created

	return created
}

func newMinuteLimiter(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	if len(m.clients) < gcThreshold && len(m.clients) < m.maxClients {
		return
	}

	cutoff := now.Add(-idleClientTTL)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}

	for len(m.clients) >= m.maxClients {
		var oldestIP string
		var oldest time.Time
		for ip, limiter := range m.clients {
			if oldestIP == "" || limiter.lastSeen.Before(oldest) {
				oldestIP, oldest = ip, limiter.lastSeen
			}
		}
		delete(m.clients, oldestIP)
	}
}
