package route

import (
	"github.com/SeakMengs/AutoCard/internal/controller"
	"github.com/SeakMengs/AutoCard/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Batches(r *gin.RouterGroup, bc *controller.BatchController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/batches")
	v1.Use(middleware.BearerTokenMiddleware)
	{
		v1.POST("", bc.CreateBatch)
	}
}
