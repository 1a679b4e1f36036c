package autocard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
)

/*
 * tdewolff/canvas works in mm and font sizes in pt. Everything here converts from
 * the px space of the render canvas at the boundary.
 */

const ptPerMM = 72 / MMPerInch

// Width of an average glyph relative to the font size, used where the PDF writer
// positions text by its left edge and the real shaped width is unknown.
const averageGlyphWidth = 0.5

// EstimateTextWidth approximates the advance width of text set at size.
func EstimateTextWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * averageGlyphWidth
}

type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

func (p Preset) PageSize() PageSize {
	return PageSize{WidthMM: p.PageWidthMM, HeightMM: p.PageHeightMM}
}

// RasterPDF writes one page per image, each image covering its whole page.
// This keeps exact parity with the preview, which native text cannot for RTL scripts.
func RasterPDF(w io.Writer, pages []image.Image, size PageSize) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to write")
	}

	doc := pdf.New(w, size.WidthMM, size.HeightMM, nil)
	for i, img := range pages {
		if i > 0 {
			doc.NewPage(size.WidthMM, size.HeightMM)
		}
		c := canvas.New(size.WidthMM, size.HeightMM)
		ctx := canvas.NewContext(c)
		dpmm := float64(img.Bounds().Dx()) / size.WidthMM
		ctx.DrawImage(0, 0, img, canvas.DPMM(dpmm))
		c.RenderTo(doc)
	}

	if err := doc.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

type NativeText struct {
	Text string
	// Left edge and vertical center in mm from the top-left corner
	X, Y     float64
	SizePt   float64
	Family   string
	FontData []byte
	Bold     bool
	Color    color.NRGBA
}

type NativeImage struct {
	Image image.Image
	// Top-left corner and size in mm
	X, Y, Width, Height float64
}

type NativePage struct {
	Size       PageSize
	Background image.Image
	Images     []NativeImage
	Texts      []NativeText
}

// NativePage re-derives every enabled field of req in page coordinates. Fields
// resolve exactly as Render resolves them; only text positioning differs.
func (c *Compositor) NativePage(ctx context.Context, req RenderRequest, size PageSize) (*NativePage, error) {
	if req.Layout == nil {
		return nil, ErrLayoutMissing
	}
	if req.Subject == nil {
		req.Subject = SampleSubject{Catalog: req.Catalog}
	}

	// Lay the page out in design px, then scale everything to mm. Padding is
	// given in canvas px like for Render.
	padding := req.Padding
	if req.Width > 0 {
		padding = req.Padding * float64(req.Catalog.Design.Width) / float64(req.Width)
	}
	metrics := NewRenderMetrics(MetricsInput{
		TotalWidth:   float64(req.Catalog.Design.Width),
		TotalHeight:  float64(req.Catalog.Design.Height),
		Padding:      padding,
		DesignWidth:  float64(req.Catalog.Design.Width),
		DesignHeight: float64(req.Catalog.Design.Height),
	})
	if size.WidthMM <= 0 || size.HeightMM <= 0 {
		return nil, fmt.Errorf("invalid page size %.2fx%.2f mm", size.WidthMM, size.HeightMM)
	}
	mmPerPx := size.WidthMM / metrics.TotalWidth()

	page := &NativePage{Size: size}
	state := &renderState{
		req:     req,
		metrics: metrics,
		labels:  WithDefaultLabelValues(req.Layout.FieldValues, req.Catalog),
	}

	if req.BackgroundURL != "" {
		bg, err := c.fetch(ctx, req.BackgroundURL)
		if err != nil {
			c.Logger.Debugf("Background %s not embedded: %v", req.BackgroundURL, err)
		} else {
			// Stretched to fill the page like the raster background
			page.Background = ResizeImage(bg, max(int(math.Round(size.WidthMM*printDPMM)), 1), max(int(math.Round(size.HeightMM*printDPMM)), 1))
		}
	}

	rtl := req.Layout.IsRTL()
	for _, f := range req.Catalog.Fields() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !req.Layout.IsEnabled(f.ID) {
			continue
		}

		pl := req.Layout.PlacementFor(f)
		cx := metrics.PctToX(pl.Anchor().X)
		cy := metrics.PctToY(pl.Anchor().Y)

		switch f.Kind {
		case FieldKindText, FieldKindLabel:
			text := removeLineBreaks(fieldText(state, f))
			if text == "" {
				continue
			}
			resolved := req.Layout.ResolveFont(f)
			sizePx := resolved.Size
			if b, ok := pl.(Box); ok && b.Width > 0 {
				maxWidth := metrics.PctToWidth(b.Width)
				for EstimateTextWidth(text, sizePx) > maxWidth && sizePx-1 >= minFitFontSize {
					sizePx--
				}
			}
			family, data := c.Fonts.FontBytes(resolved.Family, resolved.Bold)

			anchorX := textAnchorX(f, pl, metrics, rtl)
			width := EstimateTextWidth(text, sizePx)
			left := anchorX
			switch textAlignFor(f, rtl) {
			case TextAlignCenter:
				left = anchorX - width/2
			case TextAlignRight:
				left = anchorX - width
			}

			page.Texts = append(page.Texts, NativeText{
				Text:     text,
				X:        left * mmPerPx,
				Y:        cy * mmPerPx,
				SizePt:   sizePx * mmPerPx * ptPerMM,
				Family:   family,
				FontData: data,
				Bold:     resolved.Bold,
				Color:    ParseHexColor(resolved.Color, blackNRGBA),
			})

		case FieldKindImage, FieldKindQR:
			b := pl.(Box)
			w, h := metrics.PctToWidth(b.Width), metrics.PctToHeight(b.Height)

			var img image.Image
			var err error
			if f.Kind == FieldKindImage {
				url := req.Subject.PictureURL()
				if url == "" {
					continue
				}
				img, err = c.fetch(ctx, url)
			} else {
				value := ResolveQRValue(req.Subject, req.Layout.QRSource)
				if value == "" {
					continue
				}
				w = math.Min(w, h)
				h = w
				// Fetch the QR at print resolution rather than design px
				img, err = c.QR.QRCode(ctx, value, int(math.Round(w*mmPerPx*printDPMM)))
			}
			if err != nil {
				if !errors.Is(err, ErrNoPicture) {
					c.Logger.Debugf("Field %s not embedded: %v", f.ID, err)
				}
				continue
			}

			if f.Kind == FieldKindImage {
				// The PDF keeps the aspect ratio of embedded images, stretch it here
				img = ResizeImage(img, max(int(math.Round(w*mmPerPx*printDPMM)), 1), max(int(math.Round(h*mmPerPx*printDPMM)), 1))
			}

			page.Images = append(page.Images, NativeImage{
				Image:  img,
				X:      (cx - w/2) * mmPerPx,
				Y:      (cy - h/2) * mmPerPx,
				Width:  w * mmPerPx,
				Height: h * mmPerPx,
			})
		}
	}

	return page, nil
}

// 300 DPI in dots per mm
const printDPMM = 300 / MMPerInch

type fontKey struct {
	family string
	bold   bool
}

// NativePDF writes pages with native text objects.
func NativePDF(w io.Writer, pages []*NativePage) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to write")
	}

	families := make(map[fontKey]*canvas.FontFamily)
	familyFor := func(t NativeText) (*canvas.FontFamily, canvas.FontStyle, error) {
		style := canvas.FontRegular
		if t.Bold {
			style = canvas.FontBold
		}
		key := fontKey{family: t.Family, bold: t.Bold}
		if ff, ok := families[key]; ok {
			return ff, style, nil
		}
		ff := canvas.NewFontFamily(t.Family)
		if err := ff.LoadFont(t.FontData, 0, style); err != nil {
			return nil, style, fmt.Errorf("loading font %s: %w", t.Family, err)
		}
		families[key] = ff
		return ff, style, nil
	}

	first := pages[0].Size
	doc := pdf.New(w, first.WidthMM, first.HeightMM, nil)
	for i, page := range pages {
		if i > 0 {
			doc.NewPage(page.Size.WidthMM, page.Size.HeightMM)
		}

		c := canvas.New(page.Size.WidthMM, page.Size.HeightMM)
		ctx := canvas.NewContext(c)
		// Page items are top-left based, the canvas origin is bottom-left
		pageH := page.Size.HeightMM

		if page.Background != nil {
			dpmm := float64(page.Background.Bounds().Dx()) / page.Size.WidthMM
			ctx.DrawImage(0, 0, page.Background, canvas.DPMM(dpmm))
		}

		for _, im := range page.Images {
			if im.Width <= 0 {
				continue
			}
			dpmm := float64(im.Image.Bounds().Dx()) / im.Width
			ctx.DrawImage(im.X, pageH-im.Y-im.Height, im.Image, canvas.DPMM(dpmm))
		}

		for _, t := range page.Texts {
			ff, style, err := familyFor(t)
			if err != nil {
				return err
			}
			face := ff.Face(t.SizePt, t.Color, style, canvas.FontNormal)
			text := canvas.NewTextBox(face, t.Text, 0.0, 0.0, canvas.Left, canvas.Top, 0.0, 0.0)
			ctx.DrawText(t.X, pageH-t.Y+text.Bounds().H()/2, text)
		}

		c.RenderTo(doc)
	}

	if err := doc.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// MergePDFFiles concatenates PDFs in order into outFile.
func MergePDFFiles(inFiles []string, outFile string) error {
	if len(inFiles) == 0 {
		return fmt.Errorf("no PDF files to merge")
	}
	if err := api.MergeCreateFile(inFiles, outFile, false, nil); err != nil {
		return fmt.Errorf("failed to merge PDF files: %w", err)
	}
	return nil
}
