package autocard

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideFront:
		return SideFront, nil
	case SideBack:
		return SideBack, nil
	default:
		return "", fmt.Errorf("invalid side %q, expected front or back", s)
	}
}

// Built-in font stacks, the last tier of font resolution.
const (
	DefaultRTLFontStack = "'Noto Naskh Arabic', 'Amiri', Tahoma, Arial"
	DefaultLTRFontStack = "Arial"
	DefaultTextColor    = "#000000"
	DefaultFontSize     = 12
)

// Placement is implemented by Point (text fields) and Box (image, QR and label box fields).
type Placement interface {
	Anchor() Point
	isPlacement()
}

// Point is a center anchor in percentage space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Anchor() Point { return p }
func (Point) isPlacement()    {}

func (p Point) clamp() Point {
	return Point{X: ClampPct(p.X), Y: ClampPct(p.Y)}
}

// Box is center-anchored; Width and Height are percentages of the content box.
type Box struct {
	Point
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Box) clamp() Box {
	return Box{Point: b.Point.clamp(), Width: ClampPct(b.Width), Height: ClampPct(b.Height)}
}

// WithAnchor moves a placement keeping its kind and size.
func WithAnchor(pl Placement, pt Point) Placement {
	pt = pt.clamp()
	switch v := pl.(type) {
	case Box:
		v.Point = pt
		return v
	default:
		return pt
	}
}

type FontOverride struct {
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	TextColor  *string  `json:"textColor,omitempty"`
}

// LayoutConfig describes one side of a template.
type LayoutConfig struct {
	EnabledFields []FieldID
	Positions     map[FieldID]Placement
	FontSize      float64
	FontFamily    string
	TextColor     string
	// nil means RTL, only an explicit false switches the template to LTR
	RTL         *bool
	FieldFonts  map[FieldID]FontOverride
	FieldValues map[FieldID]*string
	QRSource    QRValueSource
}

type TemplateLayout struct {
	Front *LayoutConfig
	Back  *LayoutConfig
}

func (t TemplateLayout) Side(side Side) (*LayoutConfig, error) {
	var l *LayoutConfig
	switch side {
	case SideFront:
		l = t.Front
	case SideBack:
		l = t.Back
	}
	if l == nil {
		return nil, fmt.Errorf("%s: %w", side, ErrLayoutMissing)
	}
	return l, nil
}

// DefaultLayout is the layout a template gets when it is first opened.
func DefaultLayout(catalog Catalog) *LayoutConfig {
	l := &LayoutConfig{
		EnabledFields: catalog.DefaultEnabled(),
		Positions:     make(map[FieldID]Placement),
		TextColor:     DefaultTextColor,
		FieldFonts:    make(map[FieldID]FontOverride),
		FieldValues:   make(map[FieldID]*string),
		QRSource:      QRSourceStudentCode,
	}
	for _, f := range catalog.Fields() {
		l.Positions[f.ID] = f.DefaultPlacement()
	}
	return l
}

func (l *LayoutConfig) IsRTL() bool {
	return l.RTL == nil || *l.RTL
}

func (l *LayoutConfig) IsEnabled(id FieldID) bool {
	return slices.Contains(l.EnabledFields, id)
}

func (l *LayoutConfig) SetEnabled(id FieldID, enabled bool) {
	if enabled {
		l.EnabledFields = MergeEnabledFields(l.EnabledFields, []FieldID{id})
		return
	}
	l.EnabledFields = slices.DeleteFunc(slices.Clone(l.EnabledFields), func(f FieldID) bool { return f == id })
}

// PlacementFor returns the configured placement, or the catalog default.
// A configured Point on a box field is widened with the default size.
func (l *LayoutConfig) PlacementFor(f FieldConfig) Placement {
	pl, ok := l.Positions[f.ID]
	if !ok || pl == nil {
		return f.DefaultPlacement()
	}
	if f.Kind.Box() {
		if _, isBox := pl.(Box); !isBox {
			return Box{Point: pl.Anchor(), Width: f.DefaultWidth, Height: f.DefaultHeight}
		}
	} else if b, isBox := pl.(Box); isBox {
		return b.Point
	}
	return pl
}

func (l *LayoutConfig) SetPlacement(id FieldID, pl Placement) {
	if l.Positions == nil {
		l.Positions = make(map[FieldID]Placement)
	}
	switch v := pl.(type) {
	case Box:
		l.Positions[id] = v.clamp()
	case Point:
		l.Positions[id] = v.clamp()
	}
}

// Clone returns a deep copy, editor snapshots must not alias the live layout.
func (l *LayoutConfig) Clone() *LayoutConfig {
	if l == nil {
		return nil
	}
	c := *l
	c.EnabledFields = slices.Clone(l.EnabledFields)
	c.Positions = make(map[FieldID]Placement, len(l.Positions))
	for k, v := range l.Positions {
		c.Positions[k] = v
	}
	c.FieldFonts = make(map[FieldID]FontOverride, len(l.FieldFonts))
	for k, v := range l.FieldFonts {
		c.FieldFonts[k] = FontOverride{
			FontSize:   clonePtr(v.FontSize),
			FontFamily: clonePtr(v.FontFamily),
			TextColor:  clonePtr(v.TextColor),
		}
	}
	c.FieldValues = make(map[FieldID]*string, len(l.FieldValues))
	for k, v := range l.FieldValues {
		c.FieldValues[k] = clonePtr(v)
	}
	if l.RTL != nil {
		rtl := *l.RTL
		c.RTL = &rtl
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MergeEnabledFields is a de-duplicated union keeping the order of existing first,
// so older templates gain newly introduced default fields.
func MergeEnabledFields(existing, defaults []FieldID) []FieldID {
	seen := make(map[FieldID]struct{}, len(existing)+len(defaults))
	out := make([]FieldID, 0, len(existing)+len(defaults))
	for _, list := range [][]FieldID{existing, defaults} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// WithDefaultLabelValues overlays catalog defaults beneath user values.
// A missing or nil value means "use default"; an explicit empty string stays blank.
func WithDefaultLabelValues(values map[FieldID]*string, catalog Catalog) map[FieldID]string {
	out := make(map[FieldID]string)
	for _, f := range catalog.Fields() {
		if f.Kind == FieldKindLabel {
			out[f.ID] = f.DefaultValue
		}
	}
	for id, v := range values {
		if v != nil {
			out[id] = *v
		}
	}
	return out
}

type ResolvedFont struct {
	Family string
	Size   float64
	Color  string
	Bold   bool
}

// ResolveFont applies field override, then template global, then the direction-aware default.
func (l *LayoutConfig) ResolveFont(f FieldConfig) ResolvedFont {
	override := l.FieldFonts[f.ID]

	family := l.FontFamily
	if override.FontFamily != nil && strings.TrimSpace(*override.FontFamily) != "" {
		family = *override.FontFamily
	}
	if strings.TrimSpace(family) == "" {
		if l.IsRTL() {
			family = DefaultRTLFontStack
		} else {
			family = DefaultLTRFontStack
		}
	}

	size := l.FontSize
	if override.FontSize != nil && *override.FontSize > 0 {
		size = *override.FontSize
	}
	if size <= 0 {
		size = f.DefaultFontSize
	}
	if size <= 0 {
		size = DefaultFontSize
	}

	color := l.TextColor
	if override.TextColor != nil && *override.TextColor != "" {
		color = *override.TextColor
	}
	if color == "" {
		color = DefaultTextColor
	}

	return ResolvedFont{Family: family, Size: size, Color: color, Bold: f.Bold}
}

func positionKey(id FieldID) string {
	return string(id) + "Position"
}

type wirePosition struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// ParseLayoutConfig decodes the frontend wire format, where each position lives
// under a flat "<field>Position" key. Unknown fields are dropped.
func ParseLayoutConfig(data []byte, catalog Catalog) (*LayoutConfig, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}

	l := DefaultLayout(catalog)
	l.EnabledFields = nil
	l.TextColor = ""

	for key, value := range raw {
		var err error
		switch key {
		case "enabledFields":
			var ids []FieldID
			if err = json.Unmarshal(value, &ids); err == nil {
				for _, id := range ids {
					if _, ok := catalog.Lookup(id); ok {
						l.EnabledFields = MergeEnabledFields(l.EnabledFields, []FieldID{id})
					}
				}
			}
		case "fontSize":
			err = json.Unmarshal(value, &l.FontSize)
		case "fontFamily":
			err = json.Unmarshal(value, &l.FontFamily)
		case "textColor":
			err = json.Unmarshal(value, &l.TextColor)
		case "rtl":
			err = json.Unmarshal(value, &l.RTL)
		case "qrValueSource":
			err = json.Unmarshal(value, &l.QRSource)
		case "fieldFonts":
			err = json.Unmarshal(value, &l.FieldFonts)
		case "fieldValues":
			err = json.Unmarshal(value, &l.FieldValues)
		default:
			f, ok := catalog.ByPositionKey(key)
			if !ok {
				continue
			}
			var wp wirePosition
			if err = json.Unmarshal(value, &wp); err == nil {
				l.SetPlacement(f.ID, wp.toPlacement(f))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("decoding layout key %q: %w", key, err)
		}
	}

	if l.FieldFonts == nil {
		l.FieldFonts = make(map[FieldID]FontOverride)
	}
	if l.FieldValues == nil {
		l.FieldValues = make(map[FieldID]*string)
	}
	if l.QRSource == "" {
		l.QRSource = QRSourceStudentCode
	}

	return l, nil
}

func (wp wirePosition) toPlacement(f FieldConfig) Placement {
	def := f.DefaultPlacement()
	pt := def.Anchor()
	if wp.X != nil {
		pt.X = *wp.X
	}
	if wp.Y != nil {
		pt.Y = *wp.Y
	}
	if !f.Kind.Box() {
		return pt
	}
	b := Box{Point: pt, Width: f.DefaultWidth, Height: f.DefaultHeight}
	if wp.Width != nil {
		b.Width = *wp.Width
	}
	if wp.Height != nil {
		b.Height = *wp.Height
	}
	return b
}

func (l *LayoutConfig) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"enabledFields": l.EnabledFields,
		"fontSize":      l.FontSize,
		"fontFamily":    l.FontFamily,
		"textColor":     l.TextColor,
		"rtl":           l.IsRTL(),
		"fieldFonts":    l.FieldFonts,
		"fieldValues":   l.FieldValues,
		"qrValueSource": l.QRSource,
	}
	if l.EnabledFields == nil {
		out["enabledFields"] = []FieldID{}
	}
	for id, pl := range l.Positions {
		out[positionKey(id)] = pl
	}
	return json.Marshal(out)
}
