package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiter manages per-client token buckets for the listing endpoint.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*rate.Limiter
	perMin   rate.Limit
	burst    int
	disabled bool
}

func newClientLimiter(requestsPerMinute, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		clients:  make(map[string]*rate.Limiter),
		perMin:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
		disabled: requestsPerMinute <= 0,
	}
}

func (l *clientLimiter) allow(client string) bool {
	if l.disabled {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.clients[client]
	if !ok {
		limiter = rate.NewLimiter(l.perMin, l.burst)
		l.clients[client] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Middleware rejects callers that exceed their per-minute budget with 429.
func (l *clientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
