package controller

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"strings"

	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
)

type RenderController struct {
	*baseController
}

type PDFMode string

const (
	PDFModeRaster PDFMode = "raster"
	PDFModeNative PDFMode = "native"
)

type RenderRequest struct {
	LayoutSource
	SubjectSource
	Preset  string  `json:"preset"`
	Padding float64 `json:"padding" binding:"gte=0"`
	Format  string  `json:"format" binding:"omitempty,oneof=png jpeg jpg"`
	Quality int     `json:"quality" binding:"omitempty,min=1,max=100"`
	// "binary" streams the image, "dataUrl" wraps it in the JSON envelope
	Output string `json:"output" binding:"omitempty,oneof=binary dataUrl"`
}

type PDFRequest struct {
	LayoutSource
	SubjectSource
	Preset  string   `json:"preset"`
	Padding float64  `json:"padding" binding:"gte=0"`
	Sides   []string `json:"sides" binding:"omitempty,dive,oneof=front back"`
	Mode    PDFMode  `json:"mode" binding:"omitempty,oneof=raster native"`
}

func (rc RenderController) RenderIDCard(ctx *gin.Context) {
	rc.render(ctx, autocard.IDCardCatalog, autocard.IDCardPreview)
}

func (rc RenderController) RenderCertificate(ctx *gin.Context) {
	rc.render(ctx, autocard.CertificateCatalog, autocard.CertificatePreview)
}

func (rc RenderController) IDCardPDF(ctx *gin.Context) {
	rc.pdf(ctx, autocard.IDCardCatalog, autocard.IDCardPrint, []autocard.Side{autocard.SideFront, autocard.SideBack})
}

func (rc RenderController) CertificatePDF(ctx *gin.Context) {
	rc.pdf(ctx, autocard.CertificateCatalog, autocard.CertificateExport, []autocard.Side{autocard.SideFront})
}

func (rc RenderController) render(ctx *gin.Context, catalog autocard.Catalog, defaultPreset autocard.Preset) {
	var body RenderRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		rc.app.Logger.Debugf("Invalid render request: %s", util.GenerateErrorMessagesAsString(err, nil))
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	preset, err := presetOrDefault(body.Preset, defaultPreset)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "preset"), nil)
		return
	}
	format, err := autocard.ParseImageFormat(body.Format)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "format"), nil)
		return
	}

	sides, err := rc.resolveSides(ctx.Request.Context(), catalog, body.LayoutSource, nil)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load layout", util.GenerateErrorMessages(err), nil)
		return
	}
	subject, err := rc.resolveSubject(ctx.Request.Context(), body.SubjectSource)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load render data", util.GenerateErrorMessages(err), nil)
		return
	}
	if subject == nil {
		subject = autocard.SampleSubject{Catalog: catalog}
	}

	side := sides[0]
	rendering, err := rc.app.Compositor.Render(ctx.Request.Context(), autocard.RenderRequest{
		Catalog:       catalog,
		Layout:        side.Layout,
		Subject:       subject,
		Padding:       body.Padding,
		BackgroundURL: side.Background,
	}.WithPreset(preset))
	if err != nil {
		rc.app.Logger.Errorf("Failed to render %s: %v", catalog.Name, err)
		util.ResponseFailed(ctx, statusFor(err), "Failed to render", util.GenerateErrorMessages(err), nil)
		return
	}

	if body.Output == "dataUrl" {
		dataURL, err := autocard.DataURL(rendering.Image, format, body.Quality)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encode image", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseSuccess(ctx, gin.H{
			"dataUrl":  dataURL,
			"width":    rendering.Image.Bounds().Dx(),
			"height":   rendering.Image.Bounds().Dy(),
			"side":     side.Side,
			"drawn":    rendering.Drawn,
			"fileName": autocard.ExportFileName(catalog, subject, side.Side, format),
		})
		return
	}

	var buf bytes.Buffer
	if err := autocard.EncodeImage(&buf, rendering.Image, format, body.Quality); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encode image", util.GenerateErrorMessages(err), nil)
		return
	}
	util.ResponseBinary(ctx, format.MimeType(), autocard.ExportFileName(catalog, subject, side.Side, format), buf.Bytes())
}

func (rc RenderController) pdf(ctx *gin.Context, catalog autocard.Catalog, defaultPreset autocard.Preset, defaultSides []autocard.Side) {
	var body PDFRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		rc.app.Logger.Debugf("Invalid pdf request: %s", util.GenerateErrorMessagesAsString(err, nil))
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	preset, err := presetOrDefault(body.Preset, defaultPreset)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "preset"), nil)
		return
	}
	requested, err := parseSides(body.Sides)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "sides"), nil)
		return
	}
	if len(requested) == 0 {
		requested = defaultSides
	}

	sides, err := rc.resolveSides(ctx.Request.Context(), catalog, body.LayoutSource, requested)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load layout", util.GenerateErrorMessages(err), nil)
		return
	}
	subject, err := rc.resolveSubject(ctx.Request.Context(), body.SubjectSource)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load render data", util.GenerateErrorMessages(err), nil)
		return
	}
	if subject == nil {
		subject = autocard.SampleSubject{Catalog: catalog}
	}

	var buf bytes.Buffer
	switch body.Mode {
	case PDFModeNative:
		err = rc.nativePDF(ctx, &buf, catalog, preset, body.Padding, subject, sides)
	default:
		err = rc.rasterPDF(ctx, &buf, catalog, preset, body.Padding, subject, sides)
	}
	if err != nil {
		rc.app.Logger.Errorf("Failed to export %s PDF: %v", catalog.Name, err)
		util.ResponseFailed(ctx, statusFor(err), "Failed to export PDF", util.GenerateErrorMessages(err), nil)
		return
	}

	fileName := strings.TrimSuffix(autocard.ExportFileName(catalog, subject, "", autocard.FormatPNG), autocard.FormatPNG.Ext()) + ".pdf"
	util.ResponseBinary(ctx, "application/pdf", fileName, buf.Bytes())
}

func (rc RenderController) rasterPDF(ctx *gin.Context, buf *bytes.Buffer, catalog autocard.Catalog, preset autocard.Preset, padding float64, subject autocard.Subject, sides []resolvedSide) error {
	pages := make([]image.Image, 0, len(sides))
	for _, side := range sides {
		rendering, err := rc.app.Compositor.Render(ctx.Request.Context(), autocard.RenderRequest{
			Catalog:       catalog,
			Layout:        side.Layout,
			Subject:       subject,
			Padding:       padding,
			BackgroundURL: side.Background,
		}.WithPreset(preset))
		if err != nil {
			return err
		}
		pages = append(pages, rendering.Image)
	}
	return autocard.RasterPDF(buf, pages, preset.PageSize())
}

func (rc RenderController) nativePDF(ctx *gin.Context, buf *bytes.Buffer, catalog autocard.Catalog, preset autocard.Preset, padding float64, subject autocard.Subject, sides []resolvedSide) error {
	pages := make([]*autocard.NativePage, 0, len(sides))
	for _, side := range sides {
		page, err := rc.app.Compositor.NativePage(ctx.Request.Context(), autocard.RenderRequest{
			Catalog:       catalog,
			Layout:        side.Layout,
			Subject:       subject,
			Padding:       padding,
			BackgroundURL: side.Background,
		}, preset.PageSize())
		if err != nil {
			return err
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return errors.New("no sides to export")
	}
	return autocard.NativePDF(buf, pages)
}
