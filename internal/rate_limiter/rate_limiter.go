package ratelimiter

import (
	"time"

	"github.com/SeakMengs/AutoCard/internal/config"
	"github.com/SeakMengs/AutoCard/internal/util"
	"go.uber.org/zap"
)

type Limiter interface {
	// Allow records one request for key and reports whether it may proceed,
	// and when not, how long until the window resets.
	Allow(key string) (bool, time.Duration)
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	// For unit test
	if logger == nil {
		logger = util.NewNopLogger()
	}

	return NewFixedWindowLimiter(cfg, logger)
}
