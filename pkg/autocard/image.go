package autocard

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// newWhiteCanvas always allocates, so no render reuses a previous render's bitmap.
func newWhiteCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, xdraw.Src)
	return img
}

// drawStretched scales src onto rect, like drawImage(img, x, y, w, h).
func drawStretched(dst *image.RGBA, src image.Image, rect image.Rectangle) {
	if rect.Empty() {
		return
	}
	xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Over, nil)
}

// centeredRect is the pixel rectangle of a w x h box centered on (cx, cy).
func centeredRect(cx, cy, w, h float64) image.Rectangle {
	x0 := int(math.Round(cx - w/2))
	y0 := int(math.Round(cy - h/2))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}

// ResizeImage scales an image to exactly width x height.
func ResizeImage(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
