package backend

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitBreaker stops calling the webhook after repeated failures so that
// requests go straight to the fallback instead of waiting on timeouts.
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	open     bool
	openedAt time.Time
	streak   int
	failed   int
	total    int
	lastFail time.Time

	logger *zap.Logger
	now    func() time.Time
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// failures and lets a trial request through once cooldown has passed since
// the last failure. A threshold of 0 disables it.
func NewCircuitBreaker(threshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordSuccess ends the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.total++
	cb.streak = 0
}

// RecordFailure counts a network or HTTP failure.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.total++
	cb.failed++
	cb.streak++
	cb.lastFail = cb.now()

	if cb.threshold <= 0 || cb.open || cb.streak < cb.threshold {
		return
	}
	cb.open = true
	cb.openedAt = cb.lastFail
	cb.logger.Warn("circuit breaker open, serving local fallback",
		zap.Int("consecutive_failures", cb.streak),
		zap.Duration("retry_after", cb.cooldown),
	)
}

// CanProceed reports whether a remote call may be attempted. An open breaker
// half-opens after the cooldown: the next call goes through and the counters
// start over.
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}
	if cb.now().Sub(cb.lastFail) <= cb.cooldown {
		return false
	}

	cb.logger.Info("circuit breaker half-open, retrying webhook",
		zap.Duration("open_for", cb.now().Sub(cb.openedAt)))
	cb.open = false
	cb.openedAt = time.Time{}
	cb.streak, cb.failed, cb.total = 0, 0, 0
	return true
}

// BreakerStatus is a point-in-time view of the breaker.
type BreakerStatus struct {
	Open          bool       `json:"open"`
	OpenedAt      *time.Time `json:"opened_at,omitempty"`
	Failures      int        `json:"failures"`
	TotalRequests int        `json:"total_requests"`
}

// GetStatus returns the breaker's current counters.
func (cb *CircuitBreaker) GetStatus() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	st := BreakerStatus{Open: cb.open, Failures: cb.failed, TotalRequests: cb.total}
	if cb.open {
		at := cb.openedAt
		st.OpenedAt = &at
	}
	return st
}
