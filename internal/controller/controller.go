package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	appcontext "github.com/SeakMengs/AutoCard/internal/app_context"
	"github.com/SeakMengs/AutoCard/internal/repository"
	"github.com/SeakMengs/AutoCard/internal/session"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index  *IndexController
	Font   *FontController
	Render *RenderController
	Batch  *BatchController
	Editor *EditorController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:  &IndexController{baseController: bc},
		Font:   &FontController{baseController: bc},
		Render: &RenderController{baseController: bc},
		Batch:  &BatchController{baseController: bc},
		Editor: &EditorController{baseController: bc},
	}
}

const (
	ErrTemplateKindMismatch = "template %s is a %s template, not %s"
	ErrTemplateIdRequired   = "templateId is required"
	ErrSessionIdRequired    = "sessionId is required"
)

// SubjectSource picks the data a render is filled with. At most one source is
// used, in field order; none renders catalog sample text.
type SubjectSource struct {
	Student       *autocard.Student         `json:"student" form:"-"`
	StudentID     string                    `json:"studentId" form:"studentId"`
	StudentKind   string                    `json:"studentKind" form:"studentKind" binding:"omitempty,oneof=students course-students"`
	Certificate   *autocard.CertificateData `json:"certificate" form:"-"`
	CertificateID string                    `json:"certificateId" form:"certificateId"`
}

// LayoutSource is either an inline layout or a template side fetched upstream.
type LayoutSource struct {
	TemplateID    string          `json:"templateId" binding:"omitempty,cmax=64"`
	Side          string          `json:"side" binding:"omitempty,oneof=front back"`
	Layout        json.RawMessage `json:"layout"`
	BackgroundURL string          `json:"backgroundUrl"`
}

func (b *baseController) resolveSubject(ctx context.Context, src SubjectSource) (autocard.Subject, error) {
	switch {
	case src.Student != nil:
		if err := b.checkAssetURL(src.Student.Picture); err != nil {
			return nil, fmt.Errorf("student pictureUrl: %w", err)
		}
		return *src.Student, nil
	case src.StudentID != "":
		kind, err := autocard.ParseStudentKind(src.StudentKind)
		if err != nil {
			return nil, err
		}
		s, err := b.app.Repository.Student.GetById(ctx, kind, src.StudentID)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", src.StudentID, err)
		}
		return *s, nil
	case src.Certificate != nil:
		if err := b.checkAssetURL(src.Certificate.Picture); err != nil {
			return nil, fmt.Errorf("certificate pictureUrl: %w", err)
		}
		return *src.Certificate, nil
	case src.CertificateID != "":
		c, err := b.app.Repository.Certificate.GetById(ctx, src.CertificateID)
		if err != nil {
			return nil, fmt.Errorf("certificate %s: %w", src.CertificateID, err)
		}
		return *c, nil
	}
	return nil, nil
}

func (b *baseController) getTemplate(ctx context.Context, catalog autocard.Catalog, id string) (*repository.Template, error) {
	tpl, err := b.app.Repository.Template.GetById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}
	if tpl.Catalog.Name != catalog.Name {
		return nil, fmt.Errorf(ErrTemplateKindMismatch, id, tpl.Catalog.Name, catalog.Name)
	}
	return tpl, nil
}

// checkAssetURL guards URLs taken from request bodies. The server fetches them,
// so only data URLs, the platform host and ASSET_ALLOWED_HOSTS pass.
func (b *baseController) checkAssetURL(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return nil
	}
	host := autocard.URLHost(raw)
	if host == "" {
		return fmt.Errorf("%w: %.64s", autocard.ErrAssetURL, raw)
	}
	if host == autocard.URLHost(b.app.Config.Upstream.BaseURL) {
		return nil
	}
	if slices.ContainsFunc(b.app.Config.Render.AssetHosts, func(h string) bool { return strings.EqualFold(h, host) }) {
		return nil
	}
	return fmt.Errorf("%w: %s", autocard.ErrAssetHost, host)
}

type resolvedSide struct {
	Side       autocard.Side
	Layout     *autocard.LayoutConfig
	Background string
}

// resolveSides returns the layouts to render. Inline layouts render a single
// side; templates render the requested sides.
func (b *baseController) resolveSides(ctx context.Context, catalog autocard.Catalog, src LayoutSource, sides []autocard.Side) ([]resolvedSide, error) {
	side, err := sideOrFront(src.Side)
	if err != nil {
		return nil, err
	}
	if err := b.checkAssetURL(src.BackgroundURL); err != nil {
		return nil, fmt.Errorf("backgroundUrl: %w", err)
	}

	switch {
	case len(src.Layout) > 0:
		layout, err := autocard.ParseLayoutConfig(src.Layout, catalog)
		if err != nil {
			return nil, err
		}
		return []resolvedSide{{Side: side, Layout: layout, Background: src.BackgroundURL}}, nil

	case src.TemplateID != "":
		tpl, err := b.getTemplate(ctx, catalog, src.TemplateID)
		if err != nil {
			return nil, err
		}
		if len(sides) == 0 {
			sides = []autocard.Side{side}
		}
		out := make([]resolvedSide, 0, len(sides))
		for _, s := range sides {
			layout, err := tpl.Layout.Side(s)
			if err != nil {
				return nil, err
			}
			bg := tpl.Backgrounds[s]
			if src.BackgroundURL != "" && s == side {
				bg = src.BackgroundURL
			}
			out = append(out, resolvedSide{Side: s, Layout: layout, Background: bg})
		}
		return out, nil
	}

	return []resolvedSide{{Side: side, Layout: autocard.DefaultLayout(catalog), Background: src.BackgroundURL}}, nil
}

func sideOrFront(s string) (autocard.Side, error) {
	if s == "" {
		return autocard.SideFront, nil
	}
	return autocard.ParseSide(s)
}

func parseSides(values []string) ([]autocard.Side, error) {
	var sides []autocard.Side
	for _, v := range values {
		s, err := autocard.ParseSide(v)
		if err != nil {
			return nil, err
		}
		sides = append(sides, s)
	}
	return sides, nil
}

func presetOrDefault(name string, fallback autocard.Preset) (autocard.Preset, error) {
	if name == "" {
		return fallback, nil
	}
	p, ok := autocard.Presets[name]
	if !ok {
		return autocard.Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// statusFor maps library and upstream errors onto HTTP status codes.
func statusFor(err error) int {
	var se *repository.StatusError
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden):
		return se.Status
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, autocard.ErrRenderSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusBadRequest
}
