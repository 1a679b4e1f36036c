package middleware

import (
	"net/http"

	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
)

// BearerTokenMiddleware forwards the caller's token to the platform API and
// picture endpoints through the request context. Requests without an
// Authorization header pass through unauthenticated.
func (m Middleware) BearerTokenMiddleware(ctx *gin.Context) {
	if ctx.GetHeader("Authorization") == "" {
		ctx.Next()
		return
	}

	token, err := util.ReadBearerToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	ctx.Request = ctx.Request.WithContext(autocard.WithBearerToken(ctx.Request.Context(), token))
	ctx.Next()
}
