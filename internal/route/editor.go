package route

import (
	"github.com/SeakMengs/AutoCard/internal/controller"
	"github.com/SeakMengs/AutoCard/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Editor(r *gin.RouterGroup, ec *controller.EditorController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/editor/sessions")
	v1.Use(middleware.BearerTokenMiddleware)
	{
		v1.POST("", ec.CreateSession)
		v1.GET("/:sessionId", ec.GetSession)
		v1.PATCH("/:sessionId", ec.PatchSession)
		v1.DELETE("/:sessionId", ec.DeleteSession)
		v1.GET("/:sessionId/preview", ec.Preview)
		v1.POST("/:sessionId/save", ec.Save)
	}
}
