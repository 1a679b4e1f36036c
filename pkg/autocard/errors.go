package autocard

import "errors"

var (
	// No layout is configured for the requested side, fatal to the render call
	ErrLayoutMissing = errors.New("layout is not configured for the requested side")
	// The picture endpoint answered 404, the subject simply has no picture
	ErrNoPicture        = errors.New("no picture")
	ErrRenderSuperseded = errors.New("render superseded by a newer render")
	ErrUnknownField     = errors.New("unknown field")
	ErrNotResizable     = errors.New("field is not resizable")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrAssetURL         = errors.New("asset url must be http, https or a data url")
	ErrAssetHost        = errors.New("asset host is not allowed")
	ErrImageTooLarge    = errors.New("image dimensions exceed the limit")
)
