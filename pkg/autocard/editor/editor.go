package editor

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

// Distance in percentage points under which a dragged field snaps to another field.
const SnapThreshold = 0.8

// Smallest width or height a resize can produce, in percentage points.
const MinBoxSize = 1.0

// Pt is a pointer position in editor canvas pixels.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Axis string

const (
	AxisNone Axis = ""
	AxisX    Axis = "x"
	AxisY    Axis = "y"
)

// Guide is a snap line. AxisX guides are vertical lines at Value percent of the
// width, AxisY guides horizontal lines at Value percent of the height.
type Guide struct {
	Axis  Axis    `json:"axis"`
	Value float64 `json:"value"`
}

type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

func ParseHandle(s string) (Handle, error) {
	switch h := Handle(s); h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return h, nil
	default:
		return "", fmt.Errorf("invalid resize handle %q", s)
	}
}

type mode int

const (
	modeIdle mode = iota
	modeDragging
	modeResizing
)

type dragState struct {
	field   autocard.FieldID
	start   Pt
	origins map[autocard.FieldID]autocard.Point
	lock    Axis
	moved   bool
	// additive pointer-down on an already selected field deselects it on release without movement
	pendingDeselect bool
}

type resizeState struct {
	field  autocard.FieldID
	handle Handle
	start  Pt
	origin autocard.Box
}

// Editor mutates one side's layout in response to pointer and toolbar input.
// It is safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	catalog  autocard.Catalog
	layout   *autocard.LayoutConfig
	metrics  autocard.RenderMetrics
	selected []autocard.FieldID

	mode          mode
	drag          dragState
	resize        resizeState
	guides        []Guide
	suppressClick bool
	revision      uint64
}

// New copies layout; the caller's value is never mutated.
func New(catalog autocard.Catalog, layout *autocard.LayoutConfig, metrics autocard.RenderMetrics) *Editor {
	if layout == nil {
		layout = autocard.DefaultLayout(catalog)
	}
	return &Editor{
		catalog: catalog,
		layout:  layout.Clone(),
		metrics: metrics,
	}
}

// Layout returns a deep copy of the current layout.
func (e *Editor) Layout() *autocard.LayoutConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.Clone()
}

func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

func (e *Editor) Metrics() autocard.RenderMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// SetMetrics follows the editor container when it is resized.
func (e *Editor) SetMetrics(m autocard.RenderMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

func (e *Editor) Selection() []autocard.FieldID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.selected)
}

func (e *Editor) Guides() []Guide {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.guides)
}

func (e *Editor) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == modeDragging
}

func (e *Editor) Resizing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == modeResizing
}

func (e *Editor) touch() {
	e.revision++
}

func (e *Editor) lookup(id autocard.FieldID) (autocard.FieldConfig, error) {
	f, ok := e.catalog.Lookup(id)
	if !ok {
		return autocard.FieldConfig{}, fmt.Errorf("%s: %w", id, autocard.ErrUnknownField)
	}
	return f, nil
}

func (e *Editor) isSelected(id autocard.FieldID) bool {
	return slices.Contains(e.selected, id)
}

func (e *Editor) placement(id autocard.FieldID) autocard.Placement {
	f, _ := e.catalog.Lookup(id)
	return e.layout.PlacementFor(f)
}

// PointerDown starts dragging field. Without additive the field becomes the only
// selection unless it is already part of it, so a group drag keeps the group.
func (e *Editor) PointerDown(id autocard.FieldID, pt Pt, additive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(id); err != nil {
		return err
	}
	// A new press starts a new gesture, even if no click followed the last one
	e.suppressClick = false

	pendingDeselect := false
	switch {
	case additive && e.isSelected(id):
		pendingDeselect = true
	case additive:
		e.selected = append(e.selected, id)
	case !e.isSelected(id):
		e.selected = []autocard.FieldID{id}
	}

	origins := make(map[autocard.FieldID]autocard.Point, len(e.selected))
	for _, sel := range e.selected {
		origins[sel] = e.placement(sel).Anchor()
	}

	e.mode = modeDragging
	e.drag = dragState{field: id, start: pt, origins: origins, pendingDeselect: pendingDeselect}
	e.guides = nil
	return nil
}

// BeginResize starts resizing a box field from one of its handles.
func (e *Editor) BeginResize(id autocard.FieldID, handle Handle, pt Pt) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !f.Kind.Box() {
		return fmt.Errorf("%s: %w", id, autocard.ErrNotResizable)
	}
	if _, err := ParseHandle(string(handle)); err != nil {
		return err
	}

	e.suppressClick = false
	e.mode = modeResizing
	e.resize = resizeState{
		field:  id,
		handle: handle,
		start:  pt,
		origin: e.layout.PlacementFor(f).(autocard.Box),
	}
	e.guides = nil
	return nil
}

// PointerMove updates the active drag or resize. shift locks a drag to the axis
// that has moved further since the drag started; the lock holds until the next drag.
func (e *Editor) PointerMove(pt Pt, shift bool) []Guide {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.mode {
	case modeDragging:
		e.moveDrag(pt, shift)
	case modeResizing:
		e.moveResize(pt)
	}
	return slices.Clone(e.guides)
}

func (e *Editor) moveDrag(pt Pt, shift bool) {
	d := &e.drag
	dxPx, dyPx := pt.X-d.start.X, pt.Y-d.start.Y

	if shift && d.lock == AxisNone && (dxPx != 0 || dyPx != 0) {
		if math.Abs(dxPx) >= math.Abs(dyPx) {
			d.lock = AxisX
		} else {
			d.lock = AxisY
		}
	}
	switch d.lock {
	case AxisX:
		dyPx = 0
	case AxisY:
		dxPx = 0
	}

	dx, dy := e.metrics.DXToPct(dxPx), e.metrics.DYToPct(dyPx)
	if dx == 0 && dy == 0 && !d.moved {
		return
	}
	d.moved = true

	origin, ok := d.origins[d.field]
	if !ok {
		return
	}
	target := autocard.Point{X: autocard.ClampPct(origin.X + dx), Y: autocard.ClampPct(origin.Y + dy)}

	e.guides = nil
	if d.lock != AxisY {
		if v, ok := e.snap(target.X, AxisX); ok {
			target.X = v
			e.guides = append(e.guides, Guide{Axis: AxisX, Value: v})
		}
	}
	if d.lock != AxisX {
		if v, ok := e.snap(target.Y, AxisY); ok {
			target.Y = v
			e.guides = append(e.guides, Guide{Axis: AxisY, Value: v})
		}
	}

	// The whole selection follows the dragged field's snapped delta
	dx, dy = target.X-origin.X, target.Y-origin.Y
	for id, o := range d.origins {
		pl := e.placement(id)
		e.layout.SetPlacement(id, autocard.WithAnchor(pl, autocard.Point{X: o.X + dx, Y: o.Y + dy}))
	}
	e.touch()
}

// snap finds the closest anchor coordinate of an enabled, unselected field within SnapThreshold.
func (e *Editor) snap(value float64, axis Axis) (float64, bool) {
	best, found := 0.0, false
	bestDist := SnapThreshold
	for _, f := range e.catalog.Fields() {
		if !e.layout.IsEnabled(f.ID) || e.isSelected(f.ID) {
			continue
		}
		a := e.layout.PlacementFor(f).Anchor()
		other := a.X
		if axis == AxisY {
			other = a.Y
		}
		if dist := math.Abs(other - value); dist <= bestDist {
			best, bestDist, found = other, dist, true
		}
	}
	return best, found
}

func (e *Editor) moveResize(pt Pt) {
	r := e.resize
	f, _ := e.catalog.Lookup(r.field)
	dx := e.metrics.DXToPct(pt.X - r.start.X)
	dy := e.metrics.DYToPct(pt.Y - r.start.Y)

	o := r.origin
	left, right := o.X-o.Width/2, o.X+o.Width/2
	top, bottom := o.Y-o.Height/2, o.Y+o.Height/2

	// Dragged edges stop at the card border
	switch r.handle {
	case HandleE, HandleNE, HandleSE:
		right = max(min(right+dx, 100), left+MinBoxSize)
	case HandleW, HandleNW, HandleSW:
		left = min(max(left+dx, 0), right-MinBoxSize)
	}
	switch r.handle {
	case HandleS, HandleSE, HandleSW:
		bottom = max(min(bottom+dy, 100), top+MinBoxSize)
	case HandleN, HandleNE, HandleNW:
		top = min(max(top+dy, 0), bottom-MinBoxSize)
	}

	width, height := right-left, bottom-top
	if f.Kind == autocard.FieldKindQR {
		side := squareSide(r.handle, width, height)
		roomX, roomY := 100-left, 100-top
		switch r.handle {
		case HandleW, HandleNW, HandleSW:
			roomX = right
		}
		switch r.handle {
		case HandleN, HandleNE, HandleNW:
			roomY = bottom
		}
		side = max(min(side, roomX, roomY), MinBoxSize)
		width, height = side, side
		// Keep the edges opposite to the handle in place
		switch r.handle {
		case HandleW, HandleNW, HandleSW:
			left = right - side
		default:
			right = left + side
		}
		switch r.handle {
		case HandleN, HandleNE, HandleNW:
			top = bottom - side
		default:
			bottom = top + side
		}
	}

	e.layout.SetPlacement(r.field, autocard.Box{
		Point:  autocard.Point{X: (left + right) / 2, Y: (top + bottom) / 2},
		Width:  width,
		Height: height,
	})
	e.touch()
}

func squareSide(h Handle, width, height float64) float64 {
	switch h {
	case HandleE, HandleW:
		return width
	case HandleN, HandleS:
		return height
	default:
		return max(width, height)
	}
}

// PointerUp ends any drag or resize and swallows the click that follows it.
func (e *Editor) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == modeDragging && e.drag.pendingDeselect && !e.drag.moved {
		e.selected = slices.DeleteFunc(e.selected, func(id autocard.FieldID) bool { return id == e.drag.field })
	}
	if e.mode != modeIdle {
		e.suppressClick = true
	}
	e.mode = modeIdle
	e.drag = dragState{}
	e.resize = resizeState{}
	e.guides = nil
}

// Click selects id, or toggles it when additive. An empty id clears the selection.
// The click synthesized right after a pointer-up is ignored.
func (e *Editor) Click(id autocard.FieldID, additive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suppressClick {
		e.suppressClick = false
		return nil
	}
	if id == "" {
		e.selected = nil
		return nil
	}
	if _, err := e.lookup(id); err != nil {
		return err
	}

	switch {
	case additive && e.isSelected(id):
		e.selected = slices.DeleteFunc(e.selected, func(s autocard.FieldID) bool { return s == id })
	case additive:
		e.selected = append(e.selected, id)
	default:
		e.selected = []autocard.FieldID{id}
	}
	return nil
}

func (e *Editor) Select(ids ...autocard.FieldID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var selected []autocard.FieldID
	for _, id := range ids {
		if _, err := e.lookup(id); err != nil {
			return err
		}
		if !slices.Contains(selected, id) {
			selected = append(selected, id)
		}
	}
	e.selected = selected
	return nil
}

// SetPosition moves a field's anchor, keeping its size.
func (e *Editor) SetPosition(id autocard.FieldID, pt autocard.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(id); err != nil {
		return err
	}
	e.layout.SetPlacement(id, autocard.WithAnchor(e.placement(id), pt))
	e.touch()
	return nil
}

func (e *Editor) SetWidth(id autocard.FieldID, width float64) error {
	return e.setSize(id, &width, nil)
}

func (e *Editor) SetHeight(id autocard.FieldID, height float64) error {
	return e.setSize(id, nil, &height)
}

func (e *Editor) setSize(id autocard.FieldID, width, height *float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !f.Kind.Box() {
		return fmt.Errorf("%s: %w", id, autocard.ErrNotResizable)
	}

	b := e.layout.PlacementFor(f).(autocard.Box)
	if width != nil {
		b.Width = max(*width, MinBoxSize)
		if f.Kind == autocard.FieldKindQR {
			b.Height = b.Width
		}
	}
	if height != nil {
		b.Height = max(*height, MinBoxSize)
		if f.Kind == autocard.FieldKindQR {
			b.Width = b.Height
		}
	}
	e.layout.SetPlacement(id, b)
	e.touch()
	return nil
}

// Toggle enables or disables a field; disabled fields leave the selection.
func (e *Editor) Toggle(id autocard.FieldID, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(id); err != nil {
		return err
	}
	e.layout.SetEnabled(id, enabled)
	if !enabled {
		e.selected = slices.DeleteFunc(e.selected, func(s autocard.FieldID) bool { return s == id })
	}
	e.touch()
	return nil
}

func (e *Editor) SetFieldFont(id autocard.FieldID, font autocard.FontOverride) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(id); err != nil {
		return err
	}
	if e.layout.FieldFonts == nil {
		e.layout.FieldFonts = make(map[autocard.FieldID]autocard.FontOverride)
	}
	e.layout.FieldFonts[id] = font
	e.touch()
	return nil
}

// SetFieldValue sets static text. nil restores the catalog default, "" leaves the field blank.
func (e *Editor) SetFieldValue(id autocard.FieldID, value *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(id); err != nil {
		return err
	}
	if e.layout.FieldValues == nil {
		e.layout.FieldValues = make(map[autocard.FieldID]*string)
	}
	if value == nil {
		delete(e.layout.FieldValues, id)
	} else {
		v := *value
		e.layout.FieldValues[id] = &v
	}
	e.touch()
	return nil
}

type Style struct {
	FontSize   *float64
	FontFamily *string
	TextColor  *string
	RTL        *bool
	QRSource   *autocard.QRValueSource
}

// SetStyle applies the template-wide settings that are set.
func (e *Editor) SetStyle(s Style) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.FontSize != nil {
		e.layout.FontSize = max(*s.FontSize, 0)
	}
	if s.FontFamily != nil {
		e.layout.FontFamily = *s.FontFamily
	}
	if s.TextColor != nil {
		e.layout.TextColor = *s.TextColor
	}
	if s.RTL != nil {
		rtl := *s.RTL
		e.layout.RTL = &rtl
	}
	if s.QRSource != nil {
		e.layout.QRSource = *s.QRSource
	}
	e.touch()
}
