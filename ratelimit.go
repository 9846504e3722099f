package geosentinel

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const pruneThreshold = 1024

// ipLimiter is a token-bucket limiter keyed by client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPLimiter allows up to max requests per window and IP.
func newIPLimiter(max int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Limit(float64(max) / window.Seconds()),
		burst:    max,
		idle:     2 * window,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	if len(l.visitors) > pruneThreshold {
		for key, vis := range l.visitors {
			if now.Sub(vis.lastSeen) > l.idle {
				delete(l.visitors, key)
			}
		}
	}
	return v.limiter.Allow()
}

// rateLimit wraps a handler with an IP budget, answering 429 when exceeded.
func (s *Server) rateLimit(l *ipLimiter, message string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: message})
			return
		}
		next(w, r)
	}
}

// apiRateLimit applies the global API budget to every /api route.
func (s *Server) apiRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) >= 4 && r.URL.Path[:4] == "/api" {
			if !s.apiLimiter.allow(clientIP(r)) {
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Message: "Too many requests from this IP, please try again later.",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
