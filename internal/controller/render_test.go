package controller

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestRenderIDCard(t *testing.T) {
	tests := []struct {
		name         string
		body         gin.H
		wantStatus   int
		wantSize     image.Point
		wantFileName string
	}{
		{
			name:         "catalog defaults with sample data",
			body:         gin.H{},
			wantStatus:   http.StatusOK,
			wantSize:     image.Pt(autocard.IDCardPreview.Width, autocard.IDCardPreview.Height),
			wantFileName: "id-card-sample-front.png",
		},
		{
			name:         "template and student from the platform at print size",
			body:         gin.H{"templateId": "tpl-card", "studentId": "s-1", "preset": autocard.IDCardPrint.Name},
			wantStatus:   http.StatusOK,
			wantSize:     image.Pt(autocard.IDCardPrint.Width, autocard.IDCardPrint.Height),
			wantFileName: "id-card-ADM-1-front.png",
		},
		{
			name:         "inline layout and student",
			body:         gin.H{"layout": gin.H{"enabledFields": []string{"studentName"}}, "student": gin.H{"id": "x", "fullName": "Inline Student"}},
			wantStatus:   http.StatusOK,
			wantSize:     image.Pt(autocard.IDCardPreview.Width, autocard.IDCardPreview.Height),
			wantFileName: "id-card-x-front.png",
		},
		{
			name:       "certificate template on the id card route",
			body:       gin.H{"templateId": "tpl-cert"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown template",
			body:       gin.H{"templateId": "missing"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "platform refuses the caller",
			body:       gin.H{"templateId": "tpl-denied"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown student",
			body:       gin.H{"studentId": "s-404"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unsupported format",
			body:       gin.H{"format": "gif"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown preset",
			body:       gin.H{"preset": "poster"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, nil)
			w := doJSON(t, newTestRouter(app), http.MethodPost, "/api/v1/id-cards/render", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				env := decodeEnvelope[any](t, w)
				if env.Success || len(env.Errors) == 0 {
					t.Errorf("failure envelope = %+v, want success false with errors", env)
				}
				return
			}

			if ct := w.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q, want image/png", ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.wantFileName) {
				t.Errorf("Content-Disposition = %q, want file name %q", cd, tt.wantFileName)
			}
			if got := decodePNG(t, w.Body.Bytes()).Bounds().Size(); got != tt.wantSize {
				t.Errorf("image size = %v, want %v", got, tt.wantSize)
			}
		})
	}
}

func TestRenderForwardsBearerToken(t *testing.T) {
	app, up := newTestApp(t, nil)
	w := doJSON(t, newTestRouter(app), http.MethodPost, "/api/v1/id-cards/render", gin.H{"templateId": "tpl-card", "studentId": "s-2"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if len(up.auth) != 2 {
		t.Fatalf("upstream calls = %d, want template and student lookups", len(up.auth))
	}
	for _, got := range up.auth {
		if got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want the caller's token", got)
		}
	}
}

func TestRenderDataURL(t *testing.T) {
	app, _ := newTestApp(t, nil)
	w := doJSON(t, newTestRouter(app), http.MethodPost, "/api/v1/certificates/render", gin.H{
		"certificateId": "c-1",
		"format":        "jpeg",
		"quality":       80,
		"output":        "dataUrl",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope[struct {
		DataURL  string             `json:"dataUrl"`
		Width    int                `json:"width"`
		Height   int                `json:"height"`
		Side     string             `json:"side"`
		Drawn    []autocard.FieldID `json:"drawn"`
		FileName string             `json:"fileName"`
	}](t, w)

	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(env.Data.DataURL, prefix) {
		t.Fatalf("dataUrl = %.40q, want a jpeg data URL", env.Data.DataURL)
	}
	if _, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(env.Data.DataURL, prefix)); err != nil {
		t.Errorf("dataUrl payload is not base64: %v", err)
	}
	if env.Data.Width != autocard.CertificatePreview.Width || env.Data.Height != autocard.CertificatePreview.Height {
		t.Errorf("size = %dx%d, want certificate preview size", env.Data.Width, env.Data.Height)
	}
	if env.Data.Side != string(autocard.SideFront) {
		t.Errorf("side = %q, want front", env.Data.Side)
	}
	if env.Data.FileName != "certificate-CERT-1-front.jpg" {
		t.Errorf("fileName = %q", env.Data.FileName)
	}
	if len(env.Data.Drawn) == 0 {
		t.Errorf("drawn = %v, want the filled certificate fields", env.Data.Drawn)
	}
}

func TestExportPDF(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		body         gin.H
		wantStatus   int
		wantFileName string
	}{
		{"id card front and back", "/api/v1/id-cards/pdf", gin.H{"templateId": "tpl-card", "studentId": "s-1"}, http.StatusOK, "id-card-ADM-1.pdf"},
		{"id card native text", "/api/v1/id-cards/pdf", gin.H{"templateId": "tpl-card", "studentId": "s-1", "mode": "native", "sides": []string{"front"}}, http.StatusOK, "id-card-ADM-1.pdf"},
		{"certificate with sample data", "/api/v1/certificates/pdf", gin.H{"templateId": "tpl-cert"}, http.StatusOK, "certificate-sample.pdf"},
		{"invalid side", "/api/v1/id-cards/pdf", gin.H{"sides": []string{"inside"}}, http.StatusBadRequest, ""},
		{"invalid mode", "/api/v1/id-cards/pdf", gin.H{"mode": "vector"}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, nil)
			w := doJSON(t, newTestRouter(app), http.MethodPost, tt.target, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
				t.Errorf("Content-Type = %q, want application/pdf", ct)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
				t.Errorf("body does not start with a PDF header")
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.wantFileName) {
				t.Errorf("Content-Disposition = %q, want file name %q", cd, tt.wantFileName)
			}
		})
	}
}

func TestRenderAssetURLHosts(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.Config.Render.AssetHosts = []string{"CDN.school.test"}
	r := newTestRouter(app)

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
	}{
		{
			name:       "picture on the platform host",
			body:       gin.H{"student": gin.H{"id": "x", "pictureUrl": app.Config.Upstream.BaseURL + "/api/students/x/picture"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "background on an allowed host",
			body:       gin.H{"backgroundUrl": "https://cdn.school.test/bg.png"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "picture as data url",
			body:       gin.H{"student": gin.H{"id": "x", "pictureUrl": "data:image/png;base64,AAAA"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "picture on an internal address",
			body:       gin.H{"student": gin.H{"id": "x", "pictureUrl": "http://169.254.169.254/latest/meta-data"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "certificate picture on a foreign host",
			body:       gin.H{"certificate": gin.H{"id": "c", "pictureUrl": "https://evil.test/p.png"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "background with a file scheme",
			body:       gin.H{"backgroundUrl": "file:///etc/passwd"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/id-cards/render", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
