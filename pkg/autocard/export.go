package autocard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"
)

type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// Same default as canvas.toDataURL("image/jpeg")
const DefaultJPEGQuality = 92

func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

func (f ImageFormat) MimeType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f ImageFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// EncodeImage writes img in the given format; quality only applies to JPEG and
// falls back to DefaultJPEGQuality outside 1..100.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat, quality int) error {
	switch format {
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
	}
	return nil
}

// DataURL encodes img as e.g. "data:image/png;base64,iVBOR...".
func DataURL(img image.Image, format ImageFormat, quality int) (string, error) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, format, quality); err != nil {
		return "", err
	}
	return "data:" + format.MimeType() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportFileName names a rendered side, e.g. id-card-ADM-2024-0042-front.png
func ExportFileName(catalog Catalog, subject Subject, side Side, format ImageFormat) string {
	stem := unsafeFileChars.ReplaceAllString(strings.TrimSpace(subject.FileStem()), "-")
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = "unknown"
	}
	name := fmt.Sprintf("%s-%s", catalog.Name, stem)
	if side != "" {
		name += "-" + string(side)
	}
	return name + format.Ext()
}
