package controller

import (
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
)

type FontController struct {
	*baseController
}

func (fc FontController) GetFonts(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"fonts":    fc.app.Fonts.Families(),
		"fallback": autocard.FallbackFontFamily,
	})
}
