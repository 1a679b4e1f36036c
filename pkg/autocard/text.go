package autocard

import (
	"image"
	"image/color"
	"regexp"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type TextAlign int

const (
	TextAlignCenter TextAlign = iota
	TextAlignLeft
	TextAlignRight
)

// Smallest size a label box shrinks its text to.
const minFitFontSize = 4

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

func removeLineBreaks(text string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}

func measureText(face font.Face, text string) float64 {
	return fixedToFloat(font.MeasureString(face, text))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// drawText draws text with (x, y) as the alignment point and y on the middle
// of the em box, the same as textBaseline = "middle" on a 2D canvas.
func drawText(dst *image.RGBA, face font.Face, text string, x, y float64, align TextAlign, col color.Color) {
	width := measureText(face, text)

	startX := x
	switch align {
	case TextAlignCenter:
		startX = x - width/2
	case TextAlignRight:
		startX = x - width
	}

	m := face.Metrics()
	baseline := y + (fixedToFloat(m.Ascent)-fixedToFloat(m.Descent))/2

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(startX), Y: floatToFixed(baseline)},
	}
	drawer.DrawString(text)
}

// textAlignFor maps a field's role to a canvas alignment. Start-aligned fields
// follow the template direction.
func textAlignFor(f FieldConfig, rtl bool) TextAlign {
	if f.Align != FieldAlignStart {
		return TextAlignCenter
	}
	if rtl {
		return TextAlignRight
	}
	return TextAlignLeft
}

// textAnchorX moves start-aligned label boxes to their start edge.
func textAnchorX(f FieldConfig, pl Placement, m RenderMetrics, rtl bool) float64 {
	x := m.PctToX(pl.Anchor().X)
	b, ok := pl.(Box)
	if !ok || b.Width <= 0 || f.Align != FieldAlignStart {
		return x
	}
	half := m.PctToWidth(b.Width) / 2
	if rtl {
		return x + half
	}
	return x - half
}
