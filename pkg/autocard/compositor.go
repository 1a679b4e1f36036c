package autocard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/image/font"
)

// RenderGuard discards renders that were overtaken by a newer one, e.g. the editor
// preview re-rendering on every keystroke while a slow picture is still loading.
type RenderGuard struct {
	generation atomic.Uint64
}

// Begin starts a render and returns its generation.
func (g *RenderGuard) Begin() uint64 {
	return g.generation.Add(1)
}

func (g *RenderGuard) Current() uint64 {
	return g.generation.Load()
}

type RenderRequest struct {
	Catalog Catalog
	Layout  *LayoutConfig
	Subject Subject
	// Canvas size in px, zero falls back to the catalog design size
	Width  int
	Height int
	// In canvas px, on every side
	Padding float64
	// Optional, drawn stretched over the whole canvas
	BackgroundURL string
	Guard         *RenderGuard
	// Generation returned by Guard.Begin; zero makes Render call Begin itself
	Generation uint64
}

func (r RenderRequest) WithPreset(p Preset) RenderRequest {
	r.Width = p.Width
	r.Height = p.Height
	return r
}

type Rendering struct {
	Image   *image.RGBA
	Metrics RenderMetrics
	// Fields actually drawn, in draw order
	Drawn []FieldID
}

type Compositor struct {
	Fonts   *FontRegistry
	Fetcher AssetFetcher
	QR      QRProvider
	Logger  *zap.SugaredLogger
}

func NewCompositor(fonts *FontRegistry, fetcher AssetFetcher, qr QRProvider, logger *zap.SugaredLogger) *Compositor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if fonts == nil {
		fonts = NewFontRegistry(FontConfig{}, logger)
	}
	if qr == nil {
		qr = NewLocalQRProvider()
	}
	return &Compositor{Fonts: fonts, Fetcher: fetcher, QR: qr, Logger: logger}
}

type faceKey struct {
	stack string
	size  float64
	bold  bool
}

// renderState is owned by exactly one Render call.
type renderState struct {
	req     RenderRequest
	metrics RenderMetrics
	dst     *image.RGBA
	faces   map[faceKey]font.Face
	labels  map[FieldID]string
	drawn   []FieldID
}

func (s *renderState) close() {
	for _, f := range s.faces {
		f.Close()
	}
}

// Render draws every enabled field of the layout for the subject. Asset failures
// only omit the affected field; a missing layout or a superseded render fails the call.
func (c *Compositor) Render(ctx context.Context, req RenderRequest) (*Rendering, error) {
	if req.Layout == nil {
		return nil, ErrLayoutMissing
	}
	if req.Subject == nil {
		req.Subject = SampleSubject{Catalog: req.Catalog}
	}
	if req.Guard != nil && req.Generation == 0 {
		req.Generation = req.Guard.Begin()
	}

	metrics := NewRenderMetrics(MetricsInput{
		TotalWidth:   float64(req.Width),
		TotalHeight:  float64(req.Height),
		Padding:      req.Padding,
		DesignWidth:  float64(req.Catalog.Design.Width),
		DesignHeight: float64(req.Catalog.Design.Height),
	})

	state := &renderState{
		req:     req,
		metrics: metrics,
		dst:     newWhiteCanvas(int(math.Round(metrics.TotalWidth())), int(math.Round(metrics.TotalHeight()))),
		faces:   make(map[faceKey]font.Face),
		labels:  WithDefaultLabelValues(req.Layout.FieldValues, req.Catalog),
	}
	defer state.close()

	if req.BackgroundURL != "" {
		bg, err := c.fetch(ctx, req.BackgroundURL)
		if err := c.checkCurrent(ctx, req); err != nil {
			return nil, err
		}
		if err != nil {
			c.Logger.Debugf("Background %s not drawn: %v", req.BackgroundURL, err)
		} else {
			drawStretched(state.dst, bg, state.dst.Bounds())
		}
	}

	for _, f := range req.Catalog.Fields() {
		if err := c.checkCurrent(ctx, req); err != nil {
			return nil, err
		}
		if !req.Layout.IsEnabled(f.ID) {
			continue
		}

		var drawn bool
		var err error
		switch f.Kind {
		case FieldKindText, FieldKindLabel:
			drawn, err = c.drawTextField(state, f)
		case FieldKindImage:
			drawn, err = c.drawImageField(ctx, state, f)
		case FieldKindQR:
			drawn, err = c.drawQRField(ctx, state, f)
		}

		if cerr := c.checkCurrent(ctx, req); cerr != nil {
			return nil, cerr
		}
		if err != nil {
			if !errors.Is(err, ErrNoPicture) {
				c.Logger.Debugf("Field %s not drawn: %v", f.ID, err)
			}
			continue
		}
		if drawn {
			state.drawn = append(state.drawn, f.ID)
		}
	}

	return &Rendering{Image: state.dst, Metrics: metrics, Drawn: state.drawn}, nil
}

func (c *Compositor) checkCurrent(ctx context.Context, req RenderRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Guard != nil && req.Guard.Current() != req.Generation {
		return ErrRenderSuperseded
	}
	return nil
}

func (c *Compositor) fetch(ctx context.Context, url string) (image.Image, error) {
	if c.Fetcher == nil {
		return nil, fmt.Errorf("no asset fetcher configured")
	}
	return c.Fetcher.Fetch(ctx, url)
}

// fieldText resolves the text a text or label field displays. Labels read the
// layout's static values over catalog defaults; a non-empty static value on a
// data field overrides the subject.
func fieldText(s *renderState, f FieldConfig) string {
	if f.Kind == FieldKindLabel {
		return s.labels[f.ID]
	}
	if v, ok := s.req.Layout.FieldValues[f.ID]; ok && v != nil && strings.TrimSpace(*v) != "" {
		return *v
	}
	return s.req.Subject.FieldValue(f.ID)
}

func (c *Compositor) face(s *renderState, stack string, size float64, bold bool) (font.Face, error) {
	key := faceKey{stack: stack, size: size, bold: bold}
	if f, ok := s.faces[key]; ok {
		return f, nil
	}
	f, _, err := c.Fonts.Face(stack, size, bold)
	if err != nil {
		return nil, err
	}
	s.faces[key] = f
	return f, nil
}

func (c *Compositor) drawTextField(s *renderState, f FieldConfig) (bool, error) {
	text := removeLineBreaks(fieldText(s, f))
	if text == "" {
		return false, nil
	}

	resolved := s.req.Layout.ResolveFont(f)
	rtl := s.req.Layout.IsRTL()
	pl := s.req.Layout.PlacementFor(f)
	size := resolved.Size * s.metrics.FontScale()

	face, err := c.face(s, resolved.Family, size, resolved.Bold)
	if err != nil {
		return false, err
	}

	// Label boxes with a width shrink the text until it fits, one px at a time
	if b, ok := pl.(Box); ok && b.Width > 0 {
		maxWidth := s.metrics.PctToWidth(b.Width)
		minSize := minFitFontSize * s.metrics.FontScale()
		for measureText(face, text) > maxWidth && size-1 >= minSize {
			size--
			if face, err = c.face(s, resolved.Family, size, resolved.Bold); err != nil {
				return false, err
			}
		}
	}

	col := ParseHexColor(resolved.Color, blackNRGBA)
	x := textAnchorX(f, pl, s.metrics, rtl)
	y := s.metrics.PctToY(pl.Anchor().Y)
	drawText(s.dst, face, text, x, y, textAlignFor(f, rtl), col)
	return true, nil
}

func (c *Compositor) drawImageField(ctx context.Context, s *renderState, f FieldConfig) (bool, error) {
	url := s.req.Subject.PictureURL()
	if url == "" {
		return false, nil
	}

	img, err := c.fetch(ctx, url)
	if err != nil {
		return false, err
	}

	b := s.req.Layout.PlacementFor(f).(Box)
	rect := centeredRect(
		s.metrics.PctToX(b.X),
		s.metrics.PctToY(b.Y),
		s.metrics.PctToWidth(b.Width),
		s.metrics.PctToHeight(b.Height),
	)
	drawStretched(s.dst, img, rect)
	return true, nil
}

func (c *Compositor) drawQRField(ctx context.Context, s *renderState, f FieldConfig) (bool, error) {
	value := ResolveQRValue(s.req.Subject, s.req.Layout.QRSource)
	if value == "" {
		return false, nil
	}

	b := s.req.Layout.PlacementFor(f).(Box)
	side := math.Min(s.metrics.PctToWidth(b.Width), s.metrics.PctToHeight(b.Height))
	if side < 1 {
		return false, nil
	}

	img, err := c.QR.QRCode(ctx, value, int(math.Round(side)))
	if err != nil {
		return false, err
	}

	rect := centeredRect(s.metrics.PctToX(b.X), s.metrics.PctToY(b.Y), side, side)
	drawStretched(s.dst, img, rect)
	return true, nil
}

// SampleSubject fills every field with catalog sample text, used by the editor
// preview before a real student is chosen.
type SampleSubject struct {
	Catalog Catalog
	Picture string
}

func (s SampleSubject) FieldValue(id FieldID) string {
	f, ok := s.Catalog.Lookup(id)
	if !ok {
		return ""
	}
	return f.SampleText
}

func (s SampleSubject) PictureURL() string {
	return s.Picture
}

func (s SampleSubject) QRValue(source QRValueSource) string {
	switch source {
	case QRSourceStudentCode:
		return s.FieldValue(FieldStudentCode)
	case QRSourceAdmissionNumber:
		return s.FieldValue(FieldAdmissionNumber)
	case QRSourceCardNumber:
		return s.FieldValue(FieldCardNumber)
	case QRSourceRollNumber:
		return s.FieldValue(FieldRollNumber)
	case QRSourceID:
		return "sample"
	}
	return ""
}

func (s SampleSubject) FileStem() string {
	return "sample"
}
