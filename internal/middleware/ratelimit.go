package middleware

import (
	"net/http"
	"sync"

	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/logger"

	"golang.org/x/time/rate"
)

// maxLimiters acota la memoria del mapa; al superarlo se reinicia.
const maxLimiters = 10000

// RateLimiter limita requests por usuario autenticado (o por IP si no hay claims).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = int(rps) + 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if c, ok := GetClaims(r.Context()); ok && c.UserID != "" {
			key = "user:" + c.UserID
		}

		if !rl.limiter(key).Allow() {
			logger.FromContext(r.Context()).Warn("rate limit exceeded", map[string]any{
				"key":  key,
				"path": r.URL.Path,
			})
			w.Header().Set("Retry-After", "1")
			httpx.WriteStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
