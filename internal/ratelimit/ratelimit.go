package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter tracks and enforces request rate limits per key. A key is a
// principal id for signed-in requests and the client IP otherwise.
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	requestsPerDay    int
	enabled           bool

	windows map[string]*window
	now     func() time.Time
	mu      sync.Mutex
}

// window holds the request times of one key
type window struct {
	minute []time.Time
	hour   []time.Time
	day    []time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits.
// A zero hour or day limit disables that window.
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		requestsPerDay:    requestsPerDay,
		enabled:           enabled,
		windows:           make(map[string]*window),
		now:               time.Now,
	}
}

// AllowRequest checks if a request for key is allowed based on rate limits
// Returns true if allowed, false if rate limit exceeded
func (rl *RateLimiter) AllowRequest(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.windows[key]
	if w == nil {
		w = &window{}
		rl.windows[key] = w
	}
	w.cleanup(now)

	if rl.requestsPerMinute > 0 && len(w.minute) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(w.hour) >= rl.requestsPerHour {
		return false
	}
	if rl.requestsPerDay > 0 && len(w.day) >= rl.requestsPerDay {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	w.day = append(w.day, now)
	return true
}

// cleanup removes expired entries from the time windows
func (w *window) cleanup(now time.Time) {
	w.minute = filterTimes(w.minute, now.Add(-time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-time.Hour))
	w.day = filterTimes(w.day, now.Add(-24*time.Hour))
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// GetStats returns the statistics of one key
func (rl *RateLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	var minute, hour, day int
	if w := rl.windows[key]; w != nil {
		w.cleanup(rl.now())
		minute, hour, day = len(w.minute), len(w.hour), len(w.day)
	}

	return Stats{
		Enabled:             true,
		Key:                 key,
		RequestsLastMinute:  minute,
		RequestsLastHour:    hour,
		RequestsLastDay:     day,
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		LimitPerDay:         rl.requestsPerDay,
		RemainingThisMinute: remaining(rl.requestsPerMinute, minute),
		RemainingThisHour:   remaining(rl.requestsPerHour, hour),
		RemainingThisDay:    remaining(rl.requestsPerDay, day),
	}
}

// Keys returns the number of keys currently tracked.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Prune drops keys with no request in the last day.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	dropped := 0
	for key, w := range rl.windows {
		w.cleanup(now)
		if len(w.day) == 0 {
			delete(rl.windows, key)
			dropped++
		}
	}
	return dropped
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool   `json:"enabled"`
	Key                 string `json:"key,omitempty"`
	RequestsLastMinute  int    `json:"requests_last_minute"`
	RequestsLastHour    int    `json:"requests_last_hour"`
	RequestsLastDay     int    `json:"requests_last_day"`
	LimitPerMinute      int    `json:"limit_per_minute"`
	LimitPerHour        int    `json:"limit_per_hour"`
	LimitPerDay         int    `json:"limit_per_day"`
	RemainingThisMinute int    `json:"remaining_this_minute"`
	RemainingThisHour   int    `json:"remaining_this_hour"`
	RemainingThisDay    int    `json:"remaining_this_day"`
}

func remaining(limit, used int) int {
	if limit <= 0 {
		return 0
	}
	return max(0, limit-used)
}

// KeyFunc picks the limiter key for a request.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by client address.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ClientIP
	}
	return func(c *gin.Context) {
		if !rl.AllowRequest(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
