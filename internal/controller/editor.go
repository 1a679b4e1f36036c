package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SeakMengs/AutoCard/internal/session"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/SeakMengs/AutoCard/pkg/autocard/editor"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type EditorController struct {
	*baseController
}

type EditorEventType string

const (
	EventPointerDown   EditorEventType = "pointer:down"
	EventPointerMove   EditorEventType = "pointer:move"
	EventPointerUp     EditorEventType = "pointer:up"
	EventResizeBegin   EditorEventType = "resize:begin"
	EventClick         EditorEventType = "click"
	EventSelect        EditorEventType = "select"
	EventFieldPosition EditorEventType = "field:position"
	EventFieldSize     EditorEventType = "field:size"
	EventFieldToggle   EditorEventType = "field:toggle"
	EventFieldFont     EditorEventType = "field:font"
	EventFieldValue    EditorEventType = "field:value"
	EventStyleUpdate   EditorEventType = "style:update"
	EventAlign         EditorEventType = "align"
	EventCanvasResize  EditorEventType = "canvas:resize"
)

type PointerDown struct {
	FieldID  autocard.FieldID `json:"fieldId" binding:"required"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Additive bool             `json:"additive"`
}

type PointerMove struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Shift bool    `json:"shift"`
}

type ResizeBegin struct {
	FieldID autocard.FieldID `json:"fieldId" binding:"required"`
	Handle  string           `json:"handle" binding:"required,oneof=n s e w ne nw se sw"`
	X       float64          `json:"x"`
	Y       float64          `json:"y"`
}

type Click struct {
	// Empty clears the selection
	FieldID  autocard.FieldID `json:"fieldId"`
	Additive bool             `json:"additive"`
}

type SelectFields struct {
	FieldIDs []autocard.FieldID `json:"fieldIds"`
}

type FieldPosition struct {
	FieldID autocard.FieldID `json:"fieldId" binding:"required"`
	X       float64          `json:"x" binding:"pct"`
	Y       float64          `json:"y" binding:"pct"`
}

type FieldSize struct {
	FieldID autocard.FieldID `json:"fieldId" binding:"required"`
	Width   *float64         `json:"width" binding:"omitempty,pct"`
	Height  *float64         `json:"height" binding:"omitempty,pct"`
}

type FieldToggle struct {
	FieldID autocard.FieldID `json:"fieldId" binding:"required"`
	Enabled *bool            `json:"enabled" binding:"required"`
}

type FieldFont struct {
	FieldID autocard.FieldID      `json:"fieldId" binding:"required"`
	Font    autocard.FontOverride `json:"font"`
}

type FieldValue struct {
	FieldID autocard.FieldID `json:"fieldId" binding:"required"`
	// null restores the default text, "" leaves the field blank
	Value *string `json:"value" binding:"omitempty,cmax=500"`
}

type StyleUpdate struct {
	FontSize      *float64 `json:"fontSize" binding:"omitempty,gte=0"`
	FontFamily    *string  `json:"fontFamily" binding:"omitempty,cmax=120"`
	TextColor     *string  `json:"textColor" binding:"omitempty,hexcolor"`
	RTL           *bool    `json:"rtl"`
	QRValueSource *string  `json:"qrValueSource"`
}

type Align struct {
	Op string `json:"op" binding:"required,oneof=min-x max-x min-y max-y distribute-vertical"`
}

type CanvasResize struct {
	Width   float64 `json:"width" binding:"required,gt=0"`
	Height  float64 `json:"height" binding:"required,gt=0"`
	Padding float64 `json:"padding" binding:"gte=0"`
}

// EditorChangeEvent is a generic wrapper that holds the event type and raw payload.
type EditorChangeEvent struct {
	Type EditorEventType `json:"type" binding:"required"`
	Data json.RawMessage `json:"data"`
}

type CreateSessionRequest struct {
	TemplateID string  `json:"templateId" binding:"required,strNotEmpty,cmax=64"`
	Kind       string  `json:"kind" binding:"omitempty,oneof=id-card certificate"`
	Side       string  `json:"side" binding:"omitempty,oneof=front back"`
	Width      float64 `json:"width" binding:"gte=0"`
	Height     float64 `json:"height" binding:"gte=0"`
	Padding    float64 `json:"padding" binding:"gte=0"`
}

type PreviewQuery struct {
	SubjectSource
	Format  string `form:"format" binding:"omitempty,oneof=png jpeg jpg"`
	Quality int    `form:"quality" binding:"omitempty,min=1,max=100"`
	Output  string `form:"output" binding:"omitempty,oneof=binary dataUrl"`
}

type sessionView struct {
	ID         string                 `json:"id"`
	TemplateID string                 `json:"templateId"`
	Kind       string                 `json:"kind"`
	Side       autocard.Side          `json:"side"`
	Revision   uint64                 `json:"revision"`
	Dirty      bool                   `json:"dirty"`
	Selection  []autocard.FieldID     `json:"selection"`
	Guides     []editor.Guide         `json:"guides"`
	Dragging   bool                   `json:"dragging"`
	Resizing   bool                   `json:"resizing"`
	Width      float64                `json:"width"`
	Height     float64                `json:"height"`
	Padding    float64                `json:"padding"`
	Background string                 `json:"backgroundUrl,omitempty"`
	Layout     *autocard.LayoutConfig `json:"layout"`
}

func newSessionView(s *session.Session) sessionView {
	m := s.Editor.Metrics()
	selection := s.Editor.Selection()
	if selection == nil {
		selection = []autocard.FieldID{}
	}
	guides := s.Editor.Guides()
	if guides == nil {
		guides = []editor.Guide{}
	}
	return sessionView{
		ID:         s.ID,
		TemplateID: s.TemplateID,
		Kind:       s.Catalog.Name,
		Side:       s.Side,
		Revision:   s.Editor.Revision(),
		Dirty:      s.Dirty(),
		Selection:  selection,
		Guides:     guides,
		Dragging:   s.Editor.Dragging(),
		Resizing:   s.Editor.Resizing(),
		Width:      m.TotalWidth(),
		Height:     m.TotalHeight(),
		Padding:    m.Padding(),
		Background: s.Background,
		Layout:     s.Editor.Layout(),
	}
}

func editorMetrics(catalog autocard.Catalog, width, height, padding float64) autocard.RenderMetrics {
	if width <= 0 {
		width = float64(catalog.Design.Width)
	}
	if height <= 0 {
		height = float64(catalog.Design.Height)
	}
	return autocard.NewRenderMetrics(autocard.MetricsInput{
		TotalWidth:   width,
		TotalHeight:  height,
		Padding:      padding,
		DesignWidth:  float64(catalog.Design.Width),
		DesignHeight: float64(catalog.Design.Height),
	})
}

func (ec EditorController) getSession(ctx *gin.Context) (*session.Session, bool) {
	sessionId := ctx.Param("sessionId")
	if sessionId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New(ErrSessionIdRequired), "sessionId"), nil)
		return nil, false
	}

	s, err := ec.app.Sessions.Get(sessionId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Editor session not found", util.GenerateErrorMessages(err, "sessionId"), nil)
		return nil, false
	}
	return s, true
}

func (ec EditorController) CreateSession(ctx *gin.Context) {
	var body CreateSessionRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	catalog := autocard.IDCardCatalog
	if body.Kind == autocard.CertificateCatalog.Name {
		catalog = autocard.CertificateCatalog
	}
	side, err := sideOrFront(body.Side)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "side"), nil)
		return
	}

	tpl, err := ec.getTemplate(ctx.Request.Context(), catalog, body.TemplateID)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load template", util.GenerateErrorMessages(err, "templateId"), nil)
		return
	}
	layout, err := tpl.Layout.Side(side)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to load template", util.GenerateErrorMessages(err, "side"), nil)
		return
	}

	s := ec.app.Sessions.Create(&session.Session{
		TemplateID: tpl.ID,
		Side:       side,
		Catalog:    catalog,
		Background: tpl.Backgrounds[side],
		Editor:     editor.New(catalog, layout, editorMetrics(catalog, body.Width, body.Height, body.Padding)),
	})

	ctx.JSON(http.StatusCreated, util.BuildResponseSuccess(newSessionView(s)))
}

func (ec EditorController) GetSession(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	util.ResponseSuccess(ctx, newSessionView(s))
}

func (ec EditorController) DeleteSession(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	dirty := s.Dirty()
	ec.app.Sessions.Delete(s.ID)
	util.ResponseSuccess(ctx, gin.H{"discardedChanges": dirty})
}

// PatchSession applies editor events in order. Processing stops at the first
// invalid event; the events before it stay applied.
func (ec EditorController) PatchSession(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	var body struct {
		Events []EditorChangeEvent `json:"events" binding:"required,dive"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch editor session", util.GenerateErrorMessages(err, "events"), nil)
		return
	}

	for idx, event := range body.Events {
		ec.app.Logger.Debugf("Session %s: processing event #%d, type %s", s.ID, idx, event.Type)
		if err := applyEditorEvent(s.Editor, event); err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch editor session", util.GenerateErrorMessages(fmt.Errorf("event #%d (%s): %w", idx, event.Type, err), "events"), newSessionView(s))
			return
		}
	}

	util.ResponseSuccess(ctx, newSessionView(s))
}

func decodeEventData[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&payload); err != nil {
			return payload, fmt.Errorf("invalid payload: %w", err)
		}
	}
	if err := binding.Validator.ValidateStruct(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func applyEditorEvent(e *editor.Editor, event EditorChangeEvent) error {
	switch event.Type {
	case EventPointerDown:
		p, err := decodeEventData[PointerDown](event.Data)
		if err != nil {
			return err
		}
		return e.PointerDown(p.FieldID, editor.Pt{X: p.X, Y: p.Y}, p.Additive)
	case EventPointerMove:
		p, err := decodeEventData[PointerMove](event.Data)
		if err != nil {
			return err
		}
		e.PointerMove(editor.Pt{X: p.X, Y: p.Y}, p.Shift)
	case EventPointerUp:
		e.PointerUp()
	case EventResizeBegin:
		p, err := decodeEventData[ResizeBegin](event.Data)
		if err != nil {
			return err
		}
		handle, err := editor.ParseHandle(p.Handle)
		if err != nil {
			return err
		}
		return e.BeginResize(p.FieldID, handle, editor.Pt{X: p.X, Y: p.Y})
	case EventClick:
		p, err := decodeEventData[Click](event.Data)
		if err != nil {
			return err
		}
		return e.Click(p.FieldID, p.Additive)
	case EventSelect:
		p, err := decodeEventData[SelectFields](event.Data)
		if err != nil {
			return err
		}
		return e.Select(p.FieldIDs...)
	case EventFieldPosition:
		p, err := decodeEventData[FieldPosition](event.Data)
		if err != nil {
			return err
		}
		return e.SetPosition(p.FieldID, autocard.Point{X: p.X, Y: p.Y})
	case EventFieldSize:
		p, err := decodeEventData[FieldSize](event.Data)
		if err != nil {
			return err
		}
		if p.Width != nil {
			if err := e.SetWidth(p.FieldID, *p.Width); err != nil {
				return err
			}
		}
		if p.Height != nil {
			return e.SetHeight(p.FieldID, *p.Height)
		}
	case EventFieldToggle:
		p, err := decodeEventData[FieldToggle](event.Data)
		if err != nil {
			return err
		}
		return e.Toggle(p.FieldID, *p.Enabled)
	case EventFieldFont:
		p, err := decodeEventData[FieldFont](event.Data)
		if err != nil {
			return err
		}
		return e.SetFieldFont(p.FieldID, p.Font)
	case EventFieldValue:
		p, err := decodeEventData[FieldValue](event.Data)
		if err != nil {
			return err
		}
		return e.SetFieldValue(p.FieldID, p.Value)
	case EventStyleUpdate:
		p, err := decodeEventData[StyleUpdate](event.Data)
		if err != nil {
			return err
		}
		style := editor.Style{FontSize: p.FontSize, FontFamily: p.FontFamily, TextColor: p.TextColor, RTL: p.RTL}
		if p.QRValueSource != nil {
			source, err := autocard.ParseQRValueSource(*p.QRValueSource)
			if err != nil {
				return err
			}
			style.QRSource = &source
		}
		e.SetStyle(style)
	case EventAlign:
		p, err := decodeEventData[Align](event.Data)
		if err != nil {
			return err
		}
		op, err := editor.ParseAlignOp(p.Op)
		if err != nil {
			return err
		}
		return e.Align(op)
	case EventCanvasResize:
		p, err := decodeEventData[CanvasResize](event.Data)
		if err != nil {
			return err
		}
		m := e.Metrics()
		e.SetMetrics(autocard.NewRenderMetrics(autocard.MetricsInput{
			TotalWidth:   p.Width,
			TotalHeight:  p.Height,
			Padding:      p.Padding,
			DesignWidth:  m.DesignWidth(),
			DesignHeight: m.DesignHeight(),
		}))
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}

// Preview renders the session's current layout at its canvas size. A preview
// overtaken by a newer one of the same session answers 409.
func (ec EditorController) Preview(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	var query PreviewQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	format, err := autocard.ParseImageFormat(query.Format)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "format"), nil)
		return
	}

	generation := s.Guard.Begin()

	subject, err := ec.resolveSubject(ctx.Request.Context(), query.SubjectSource)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load render data", util.GenerateErrorMessages(err), nil)
		return
	}
	if subject == nil {
		subject = autocard.SampleSubject{Catalog: s.Catalog}
	}

	m := s.Editor.Metrics()
	rendering, err := ec.app.Compositor.Render(ctx.Request.Context(), autocard.RenderRequest{
		Catalog:       s.Catalog,
		Layout:        s.Editor.Layout(),
		Subject:       subject,
		Width:         int(m.TotalWidth()),
		Height:        int(m.TotalHeight()),
		Padding:       m.Padding(),
		BackgroundURL: s.Background,
		Guard:         s.Guard,
		Generation:    generation,
	})
	if err != nil {
		if !errors.Is(err, autocard.ErrRenderSuperseded) {
			ec.app.Logger.Errorf("Session %s preview failed: %v", s.ID, err)
		}
		util.ResponseFailed(ctx, statusFor(err), "Failed to render preview", util.GenerateErrorMessages(err), nil)
		return
	}

	if query.Output == "dataUrl" {
		dataURL, err := autocard.DataURL(rendering.Image, format, query.Quality)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encode image", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseSuccess(ctx, gin.H{"dataUrl": dataURL, "revision": s.Editor.Revision(), "drawn": rendering.Drawn})
		return
	}

	var buf bytes.Buffer
	if err := autocard.EncodeImage(&buf, rendering.Image, format, query.Quality); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encode image", util.GenerateErrorMessages(err), nil)
		return
	}
	util.ResponseBinary(ctx, format.MimeType(), "", buf.Bytes())
}

// Save persists the session's layout upstream. Nothing else ever writes layouts.
func (ec EditorController) Save(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	revision := s.Editor.Revision()
	layout := s.Editor.Layout()
	if err := ec.app.Repository.Template.SaveLayout(ctx.Request.Context(), s.TemplateID, s.Side, layout); err != nil {
		ec.app.Logger.Errorf("Session %s save failed: %v", s.ID, err)
		util.ResponseFailed(ctx, statusFor(err), "Failed to save layout", util.GenerateErrorMessages(err), nil)
		return
	}
	s.MarkSaved(revision)

	util.ResponseSuccess(ctx, newSessionView(s))
}
