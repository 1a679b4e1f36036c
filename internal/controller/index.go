package controller

import (
	"sort"

	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

type presetView struct {
	Name         string  `json:"name"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	PageWidthMM  float64 `json:"pageWidthMm"`
	PageHeightMM float64 `json:"pageHeightMm"`
	DPI          float64 `json:"dpi"`
}

func (ic IndexController) Index(ctx *gin.Context) {
	presets := make([]presetView, 0, len(autocard.Presets))
	for _, p := range autocard.Presets {
		presets = append(presets, presetView{
			Name:         p.Name,
			Width:        p.Width,
			Height:       p.Height,
			PageWidthMM:  p.PageWidthMM,
			PageHeightMM: p.PageHeightMM,
			DPI:          p.DPI(),
		})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })

	util.ResponseSuccess(ctx, gin.H{
		"name":    util.GetAppName(),
		"presets": presets,
		"catalogs": []string{
			autocard.IDCardCatalog.Name,
			autocard.CertificateCatalog.Name,
		},
	})
}
