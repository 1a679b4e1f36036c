package autocard

import (
	"image/color"
	"strings"

	"github.com/tdewolff/canvas"
)

// ParseHexColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa. Anything else yields fallback.
// canvas.Hex returns a premultiplied color, the result here is not premultiplied.
func ParseHexColor(hex string, fallback color.NRGBA) color.NRGBA {
	hex = strings.TrimSpace(hex)
	digits := strings.TrimPrefix(hex, "#")
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return fallback
	}
	// canvas.Hex reads invalid digits as zero
	if strings.TrimLeft(digits, "0123456789abcdefABCDEF") != "" {
		return fallback
	}

	return color.NRGBAModel.Convert(canvas.Hex(digits)).(color.NRGBA)
}

var blackNRGBA = color.NRGBA{A: 0xff}
