package route

import (
	"github.com/SeakMengs/AutoCard/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_Index(r *gin.RouterGroup, indexController *controller.IndexController, fontController *controller.FontController) {
	v1 := r.Group("/v1")
	{
		v1.GET("", indexController.Index)
		v1.GET("/fonts", fontController.GetFonts)
	}
}
