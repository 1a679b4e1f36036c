package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	if m.rateLimiter == nil || !m.rateLimiter.Enabled() {
		ctx.Next()
		return
	}

	ok, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !ok {
		ctx.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retryAfter.Seconds()))))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests", util.GenerateErrorMessages(errors.New("rate limit exceeded"), "rateLimit"), nil)
		ctx.Abort()
		return
	}

	ctx.Next()
}
