package route

import (
	"github.com/SeakMengs/AutoCard/internal/controller"
	"github.com/SeakMengs/AutoCard/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_IDCards(r *gin.RouterGroup, rc *controller.RenderController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/id-cards")
	v1.Use(middleware.BearerTokenMiddleware)
	{
		v1.POST("/render", rc.RenderIDCard)
		v1.POST("/pdf", rc.IDCardPDF)
	}
}
