package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"cyclecount/pkg/logger"
)

// CounterExtractor pulls the counter identity a request acts for.
type CounterExtractor func(r *http.Request) string

// DefaultCounterExtractor reads the X-Counter-Name header the floor
// clients send, falling back to the user query parameter.
func DefaultCounterExtractor(r *http.Request) string {
	if name := strings.TrimSpace(r.Header.Get("X-Counter-Name")); name != "" {
		return name
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

type CounterRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor CounterExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewCounterRateLimiter(limit int, window time.Duration, extractor CounterExtractor, log *logger.Logger) *CounterRateLimiter {
	limiter := &CounterRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *CounterRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for name, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, name)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *CounterRateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow records a request for the counter and reports whether it stays
// under the window limit. Requests without an identity are not limited.
func (rl *CounterRateLimiter) Allow(name string) bool {
	if name == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := make([]time.Time, 0, len(rl.requests[name]))
	for _, ts := range rl.requests[name] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[name] = valid
		return false
	}

	rl.requests[name] = append(valid, now)
	return true
}

func CounterRateLimit(limiter *CounterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := limiter.extractor(r)

			if !limiter.Allow(name) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"counter", name,
					"path", r.URL.Path,
					"method", r.Method,
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", limiter.window.String())
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
