package autocard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// AssetFetcher resolves background images, pictures and QR codes to decoded images.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

type bearerTokenKey struct{}

// WithBearerToken attaches the caller's token to outgoing asset requests.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func BearerTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// Pictures above this size are rejected rather than decoded.
const maxAssetBytes = 20 << 20

type HTTPAssetFetcher struct {
	Client *http.Client
	// Hosts, as returned by URLHost, that receive the caller's bearer token
	TokenHosts []string
}

func NewHTTPAssetFetcher(timeout time.Duration, tokenHosts ...string) *HTTPAssetFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPAssetFetcher{Client: &http.Client{Timeout: timeout}, TokenHosts: tokenHosts}
}

// URLHost returns the lower-cased host[:port] of an http or https URL, "" for anything else.
func URLHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.ToLower(u.Host)
}

func (f *HTTPAssetFetcher) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return DecodeDataURL(rawURL)
	}
	host := URLHost(rawURL)
	if host == "" {
		return nil, fmt.Errorf("%w: %.64s", ErrAssetURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if token := BearerTokenFrom(ctx); token != "" && slices.Contains(f.TokenHosts, host) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoPicture
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("requesting %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("asset %s exceeds %d bytes", rawURL, maxAssetBytes)
	}

	return DecodeImage(data)
}

// Pictures decoding to more pixels per side than this are rejected.
const maxAssetDimension = 8192

func DecodeImage(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width > maxAssetDimension || cfg.Height > maxAssetDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// DecodeDataURL accepts base64 data URLs such as "data:image/png;base64,iVBOR...".
func DecodeDataURL(dataURL string) (image.Image, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("malformed data url")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("only base64 data urls are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data url: %w", err)
	}
	return DecodeImage(data)
}

// PictureURL builds the upstream picture endpoint, e.g. https://api.school.test/api/students/42/picture
func PictureURL(baseURL string, kind StudentKind, id string) string {
	if kind == "" {
		kind = StudentKindStudent
	}
	return fmt.Sprintf("%s/api/%s/%s/picture", strings.TrimRight(baseURL, "/"), kind, id)
}
