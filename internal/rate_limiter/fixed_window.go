package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/AutoCard/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key in windows of cfg.TimeFrame.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	cfg     config.RateLimiterConfig
	logger  *zap.SugaredLogger
	windows map[string]*window
	now     func() time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	if cfg.TimeFrame <= 0 {
		cfg.TimeFrame = time.Minute
	}
	return &FixedWindowRateLimiter{
		cfg:     cfg,
		logger:  logger,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Enabled() bool {
	return rl.cfg.Enabled
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.cfg.TimeFrame {
		rl.evictExpired(now)
		rl.windows[key] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count >= rl.cfg.RequestsPerTimeFrame {
		retryAfter := rl.cfg.TimeFrame - now.Sub(w.start)
		rl.logger.Debugf("Rate limit exceeded for %s, retry after %v", key, retryAfter)
		return false, retryAfter
	}

	w.count++
	return true, 0
}

// called with rl.mu held
func (rl *FixedWindowRateLimiter) evictExpired(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.cfg.TimeFrame {
			delete(rl.windows, key)
		}
	}
}
