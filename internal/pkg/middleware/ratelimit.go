package middleware

import (
	"net/http"
	"sync"
	"time"

	"filestream/internal/pkg/logger"
)

const burstWindow = 5 * time.Second

// RateLimiter applies a per-IP sliding-window limit with a short burst
// allowance on top, so a player fetching a handful of segments in quick
// succession is not cut off.
type RateLimiter struct {
	mu         sync.Mutex
	perMinute  int
	burst      int
	timestamps map[string][]time.Time
	calls      int
	now        func() time.Time
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		perMinute:  perMinute,
		burst:      burst,
		timestamps: make(map[string][]time.Time),
		now:        time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	rl.calls++
	if rl.calls > 1000 {
		rl.cleanup(now)
		rl.calls = 0
	}

	cutoff := now.Add(-time.Minute)
	recent := rl.timestamps[key][:0]
	for _, t := range rl.timestamps[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	rl.timestamps[key] = recent

	if len(recent) <= rl.perMinute {
		return true
	}

	// Over the per-minute limit: still allow short bursts.
	burstCutoff := now.Add(-burstWindow)
	var inBurst int
	for _, t := range recent {
		if t.After(burstCutoff) {
			inBurst++
		}
	}
	return inBurst <= rl.burst
}

func (rl *RateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-time.Minute)
	for key, ts := range rl.timestamps {
		kept := ts[:0]
		for _, t := range ts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(rl.timestamps, key)
		} else {
			rl.timestamps[key] = kept
		}
	}
}

// RateLimit rejects clients over the limit with 429. Paths in skip are
// exempt, as is the status endpoint by convention.
func RateLimit(rl *RateLimiter, log *logger.Logger, skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !rl.Allow(ip) {
				log.FromContext(r.Context()).Warn("rate limited request",
					"ip", ip,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "60")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
