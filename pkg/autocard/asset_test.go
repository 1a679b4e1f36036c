package autocard

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPAssetFetcher(t *testing.T) {
	picture := pngBytes(t, solid(3, 2, color.Black))
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/students/1/picture":
			gotAuth = r.Header.Get("Authorization")
			w.Write(picture)
		case "/api/students/2/picture":
			http.NotFound(w, r)
		case "/broken":
			w.Write([]byte("not an image"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewHTTPAssetFetcher(0, URLHost(srv.URL))
	ctx := WithBearerToken(context.Background(), "token-1")

	img, err := f.Fetch(ctx, PictureURL(srv.URL, StudentKindStudent, "1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("unexpected bounds %v", b)
	}
	if gotAuth != "Bearer token-1" {
		t.Errorf("expected the bearer token to be forwarded, got %q", gotAuth)
	}

	if _, err := f.Fetch(ctx, PictureURL(srv.URL, "", "2")); !errors.Is(err, ErrNoPicture) {
		t.Errorf("expected ErrNoPicture, got %v", err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/broken"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/fail"); err == nil {
		t.Errorf("expected an error for status 500")
	}
}

func TestHTTPAssetFetcherScopesToken(t *testing.T) {
	picture := pngBytes(t, solid(1, 1, color.White))
	var mu sync.Mutex
	auth := make(map[string]string)
	handler := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			auth[name] = r.Header.Get("Authorization")
			mu.Unlock()
			w.Write(picture)
		})
	}
	api := httptest.NewServer(handler("api"))
	defer api.Close()
	cdn := httptest.NewServer(handler("cdn"))
	defer cdn.Close()

	f := NewHTTPAssetFetcher(0, URLHost(api.URL))
	ctx := WithBearerToken(context.Background(), "token-1")

	for _, u := range []string{api.URL + "/a.png", cdn.URL + "/b.png"} {
		if _, err := f.Fetch(ctx, u); err != nil {
			t.Fatalf("Fetch(%s) error = %v", u, err)
		}
	}
	if auth["api"] != "Bearer token-1" {
		t.Errorf("api Authorization = %q, want the bearer token", auth["api"])
	}
	if auth["cdn"] != "" {
		t.Errorf("cdn Authorization = %q, want no token sent to another host", auth["cdn"])
	}

	for _, u := range []string{"file:///etc/passwd", "ftp://cdn.test/a.png", "not a url"} {
		if _, err := f.Fetch(ctx, u); !errors.Is(err, ErrAssetURL) {
			t.Errorf("Fetch(%q) error = %v, want ErrAssetURL", u, err)
		}
	}
}

func TestURLHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://API.School.test/api/x", "api.school.test"},
		{"http://127.0.0.1:8000/a", "127.0.0.1:8000"},
		{"data:image/png;base64,AA", ""},
		{"/relative/path", ""},
	}
	for _, tt := range tests {
		if got := URLHost(tt.in); got != tt.want {
			t.Errorf("URLHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPictureURL(t *testing.T) {
	got := PictureURL("https://api.school.test/", StudentKindCourseStudent, "9")
	if want := "https://api.school.test/api/course-students/9/picture"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDecodeDataURLRejectsMalformed(t *testing.T) {
	for _, in := range []string{"data:image/png,abc", "image/png;base64,abc", "data:image/png;base64,@@@"} {
		if _, err := DecodeDataURL(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestDecodeImageLimitsDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr error
	}{
		{"at the limit", maxAssetDimension, 1, nil},
		{"too wide", maxAssetDimension + 1, 1, ErrImageTooLarge},
		{"too tall", 1, maxAssetDimension + 1, ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pngBytes(t, image.NewGray(image.Rect(0, 0, tt.w, tt.h)))
			img, err := DecodeImage(data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeImage() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && img.Bounds().Dx() != tt.w {
				t.Errorf("decoded width %d, want %d", img.Bounds().Dx(), tt.w)
			}
		})
	}

	if _, err := DecodeImage([]byte("not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
}
