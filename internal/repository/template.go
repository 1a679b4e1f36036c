package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type TemplateRepository struct {
	*baseRepository
}

// Template is a card or certificate design as stored by the platform.
type Template struct {
	ID   string
	Name string
	// Catalog the template kind renders with
	Catalog     autocard.Catalog
	Layout      autocard.TemplateLayout
	Backgrounds map[autocard.Side]string
}

type templateRecord struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Kind               string          `json:"kind"`
	Front              json.RawMessage `json:"front"`
	Back               json.RawMessage `json:"back"`
	FrontBackgroundURL string          `json:"frontBackgroundUrl"`
	BackBackgroundURL  string          `json:"backBackgroundUrl"`
}

func (tr TemplateRepository) GetById(ctx context.Context, id string) (*Template, error) {
	var env envelope[templateRecord]
	if err := tr.do(ctx, http.MethodGet, "/api/templates/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}

	return env.Data.toTemplate()
}

func (rec templateRecord) toTemplate() (*Template, error) {
	kind := rec.Kind
	if kind == "" {
		kind = autocard.IDCardCatalog.Name
	}
	catalog, err := autocard.CatalogByName(kind)
	if err != nil {
		return nil, err
	}

	t := &Template{
		ID:          rec.ID,
		Name:        rec.Name,
		Catalog:     catalog,
		Backgrounds: make(map[autocard.Side]string),
	}

	// A side that was never saved opens with the default layout
	parse := func(raw json.RawMessage, side autocard.Side) (*autocard.LayoutConfig, error) {
		if len(raw) == 0 || string(raw) == "null" {
			return autocard.DefaultLayout(catalog), nil
		}
		l, err := autocard.ParseLayoutConfig(raw, catalog)
		if err != nil {
			return nil, fmt.Errorf("template %s %s side: %w", rec.ID, side, err)
		}
		// Layouts saved before a default field existed pick it up here
		l.EnabledFields = autocard.MergeEnabledFields(l.EnabledFields, catalog.DefaultEnabled())
		return l, nil
	}
	if t.Layout.Front, err = parse(rec.Front, autocard.SideFront); err != nil {
		return nil, err
	}
	if t.Layout.Back, err = parse(rec.Back, autocard.SideBack); err != nil {
		return nil, err
	}

	if rec.FrontBackgroundURL != "" {
		t.Backgrounds[autocard.SideFront] = rec.FrontBackgroundURL
	}
	if rec.BackBackgroundURL != "" {
		t.Backgrounds[autocard.SideBack] = rec.BackBackgroundURL
	}

	return t, nil
}

// SaveLayout persists one side. Editor sessions only call this on an explicit save.
func (tr TemplateRepository) SaveLayout(ctx context.Context, id string, side autocard.Side, layout *autocard.LayoutConfig) error {
	if layout == nil {
		return autocard.ErrLayoutMissing
	}
	path := fmt.Sprintf("/api/templates/%s/layout/%s", url.PathEscape(id), side)
	return tr.do(ctx, http.MethodPut, path, nil, layout, nil)
}
