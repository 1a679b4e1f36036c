package editor

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// On the preview card one percent of the width is 3.23px and of the height 2.04px.
const (
	pxPerPctX = 3.23
	pxPerPctY = 2.04
)

func newTestEditor() *Editor {
	m := autocard.MetricsForPreset(autocard.IDCardPreview, autocard.IDCardPreview, 0)
	return New(autocard.IDCardCatalog, autocard.DefaultLayout(autocard.IDCardCatalog), m)
}

func anchorOf(t *testing.T, e *Editor, id autocard.FieldID) autocard.Point {
	t.Helper()
	f, ok := autocard.IDCardCatalog.Lookup(id)
	if !ok {
		t.Fatalf("unknown field %s", id)
	}
	return e.Layout().PlacementFor(f).Anchor()
}

func boxOf(t *testing.T, e *Editor, id autocard.FieldID) autocard.Box {
	t.Helper()
	f, _ := autocard.IDCardCatalog.Lookup(id)
	b, ok := e.Layout().PlacementFor(f).(autocard.Box)
	if !ok {
		t.Fatalf("%s is not a box", id)
	}
	return b
}

var approxPct = cmpopts.EquateApprox(0, 1e-6)

func TestDragConvertsPixelsToPercent(t *testing.T) {
	e := newTestEditor()
	start := anchorOf(t, e, autocard.FieldStudentName)

	if err := e.PointerDown(autocard.FieldStudentName, Pt{X: 100, Y: 100}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.PointerMove(Pt{X: 100 + 10*pxPerPctX, Y: 100 - 5*pxPerPctY}, false)
	e.PointerUp()

	want := autocard.Point{X: start.X + 10, Y: start.Y - 5}
	if diff := cmp.Diff(want, anchorOf(t, e, autocard.FieldStudentName), approxPct); diff != "" {
		t.Errorf("unexpected position (-want +got):\n%s", diff)
	}
}

func TestDragClampsToCard(t *testing.T) {
	e := newTestEditor()

	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	e.PointerMove(Pt{X: 5000, Y: -5000}, false)
	e.PointerUp()

	if got := anchorOf(t, e, autocard.FieldStudentName); got != (autocard.Point{X: 100, Y: 0}) {
		t.Errorf("expected clamped position, got %#v", got)
	}
}

func TestDragSnapsToOtherFields(t *testing.T) {
	e := newTestEditor()
	label := anchorOf(t, e, autocard.FieldNameLabel)
	start := anchorOf(t, e, autocard.FieldStudentName)

	// Land 0.5 points right of the name label's x
	dx := (label.X + 0.5 - start.X) * pxPerPctX
	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	guides := e.PointerMove(Pt{X: dx}, false)

	if got := anchorOf(t, e, autocard.FieldStudentName); math.Abs(got.X-label.X) > 1e-9 {
		t.Errorf("expected snap to x %v, got %v", label.X, got.X)
	}
	if diff := cmp.Diff([]Guide{{Axis: AxisX, Value: label.X}}, guides); diff != "" {
		t.Errorf("unexpected guides (-want +got):\n%s", diff)
	}

	e.PointerUp()
	if len(e.Guides()) != 0 {
		t.Errorf("guides should clear on pointer up")
	}
}

func TestDragDoesNotSnapBeyondThreshold(t *testing.T) {
	e := newTestEditor()
	label := anchorOf(t, e, autocard.FieldNameLabel)
	start := anchorOf(t, e, autocard.FieldStudentName)

	dx := (label.X + 1.5 - start.X) * pxPerPctX
	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	if guides := e.PointerMove(Pt{X: dx}, false); len(guides) != 0 {
		t.Errorf("expected no guides, got %v", guides)
	}
	if got := anchorOf(t, e, autocard.FieldStudentName); math.Abs(got.X-(label.X+1.5)) > 1e-6 {
		t.Errorf("expected free position, got %v", got.X)
	}
}

func TestShiftLockHoldsUntilNextDrag(t *testing.T) {
	e := newTestEditor()
	start := anchorOf(t, e, autocard.FieldStudentName)

	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	// x moved further, so the drag locks horizontally
	e.PointerMove(Pt{X: 10, Y: 3}, true)
	// releasing shift does not unlock
	e.PointerMove(Pt{X: 10, Y: 30}, false)

	got := anchorOf(t, e, autocard.FieldStudentName)
	if got.Y != start.Y {
		t.Errorf("expected y locked at %v, got %v", start.Y, got.Y)
	}
	if math.Abs(got.X-(start.X+10/pxPerPctX)) > 1e-6 {
		t.Errorf("expected x to follow the pointer, got %v", got.X)
	}
	e.PointerUp()

	// a new drag starts unlocked
	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	e.PointerMove(Pt{Y: 30}, false)
	e.PointerUp()

	if after := anchorOf(t, e, autocard.FieldStudentName); math.Abs(after.Y-(start.Y+30/pxPerPctY)) > 1e-6 {
		t.Errorf("expected y to move in the next drag, got %v", after.Y)
	}
}

func TestGroupDragMovesSelection(t *testing.T) {
	e := newTestEditor()
	name := anchorOf(t, e, autocard.FieldStudentName)
	photo := anchorOf(t, e, autocard.FieldPhoto)

	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	e.PointerUp()
	e.PointerDown(autocard.FieldPhoto, Pt{}, true)
	e.PointerMove(Pt{Y: 4 * pxPerPctY}, false)
	e.PointerUp()

	if got := anchorOf(t, e, autocard.FieldStudentName); math.Abs(got.Y-(name.Y+4)) > 1e-6 {
		t.Errorf("name should move with the group, got %v", got.Y)
	}
	if got := anchorOf(t, e, autocard.FieldPhoto); math.Abs(got.Y-(photo.Y+4)) > 1e-6 {
		t.Errorf("photo should move by 4 points, got %v", got.Y)
	}
}

func TestResizeQRStaysSquare(t *testing.T) {
	e := newTestEditor()
	origin := boxOf(t, e, autocard.FieldQRCode)

	if err := e.BeginResize(autocard.FieldQRCode, HandleSE, Pt{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.Resizing() {
		t.Fatalf("expected resizing state")
	}
	e.PointerMove(Pt{X: 4 * pxPerPctX, Y: 1 * pxPerPctY}, false)
	e.PointerUp()

	b := boxOf(t, e, autocard.FieldQRCode)
	if math.Abs(b.Width-b.Height) > 1e-9 {
		t.Errorf("expected a square box, got %vx%v", b.Width, b.Height)
	}
	if math.Abs(b.Width-(origin.Width+4)) > 1e-6 {
		t.Errorf("expected the larger edit to win, got width %v", b.Width)
	}
	// top-left corner stays where it was
	if math.Abs((b.X-b.Width/2)-(origin.X-origin.Width/2)) > 1e-6 || math.Abs((b.Y-b.Height/2)-(origin.Y-origin.Height/2)) > 1e-6 {
		t.Errorf("resize moved the opposite corner: %#v", b)
	}
}

func TestResizePhotoEastHandle(t *testing.T) {
	e := newTestEditor()
	origin := boxOf(t, e, autocard.FieldPhoto)

	e.BeginResize(autocard.FieldPhoto, HandleE, Pt{})
	e.PointerMove(Pt{X: 2 * pxPerPctX, Y: 50}, false)
	e.PointerUp()

	b := boxOf(t, e, autocard.FieldPhoto)
	want := autocard.Box{Point: autocard.Point{X: origin.X + 1, Y: origin.Y}, Width: origin.Width + 2, Height: origin.Height}
	if diff := cmp.Diff(want, b, approxPct); diff != "" {
		t.Errorf("unexpected box (-want +got):\n%s", diff)
	}
}

func TestResizeHasMinimumSize(t *testing.T) {
	e := newTestEditor()
	e.BeginResize(autocard.FieldPhoto, HandleW, Pt{})
	e.PointerMove(Pt{X: 1000}, false)
	e.PointerUp()

	if b := boxOf(t, e, autocard.FieldPhoto); math.Abs(b.Width-MinBoxSize) > 1e-9 {
		t.Errorf("expected minimum width, got %v", b.Width)
	}
}

func TestResizeStopsAtCardEdge(t *testing.T) {
	tests := []struct {
		name   string
		field  autocard.FieldID
		handle Handle
		move   Pt
		want   autocard.Box
	}{
		{
			// qrCode spans 79..97 x 71..89; the square is bounded by the right edge
			name:   "qr dragged far past the bottom",
			field:  autocard.FieldQRCode,
			handle: HandleSE,
			move:   Pt{X: 10, Y: 300},
			want:   autocard.Box{Point: autocard.Point{X: 89.5, Y: 81.5}, Width: 21, Height: 21},
		},
		{
			// photo spans 6..30 x 30..80
			name:   "photo dragged past the top left corner",
			field:  autocard.FieldPhoto,
			handle: HandleNW,
			move:   Pt{X: -500, Y: -500},
			want:   autocard.Box{Point: autocard.Point{X: 15, Y: 40}, Width: 30, Height: 80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			if err := e.BeginResize(tt.field, tt.handle, Pt{}); err != nil {
				t.Fatalf("BeginResize() error = %v", err)
			}
			e.PointerMove(tt.move, false)
			e.PointerUp()

			if diff := cmp.Diff(tt.want, boxOf(t, e, tt.field), approxPct); diff != "" {
				t.Errorf("unexpected box (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResizeTextFieldIsRejected(t *testing.T) {
	e := newTestEditor()
	if err := e.BeginResize(autocard.FieldStudentName, HandleE, Pt{}); !errors.Is(err, autocard.ErrNotResizable) {
		t.Errorf("expected ErrNotResizable, got %v", err)
	}
	if err := e.SetWidth(autocard.FieldStudentName, 10); !errors.Is(err, autocard.ErrNotResizable) {
		t.Errorf("expected ErrNotResizable, got %v", err)
	}
}

func TestSetWidthKeepsQRSquare(t *testing.T) {
	e := newTestEditor()
	if err := e.SetWidth(autocard.FieldQRCode, 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := boxOf(t, e, autocard.FieldQRCode); b.Width != 25 || b.Height != 25 {
		t.Errorf("expected 25x25, got %vx%v", b.Width, b.Height)
	}

	if err := e.SetHeight(autocard.FieldPhoto, 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	photo, _ := autocard.IDCardCatalog.Lookup(autocard.FieldPhoto)
	if b := boxOf(t, e, autocard.FieldPhoto); b.Height != 40 || b.Width != photo.DefaultWidth {
		t.Errorf("photo height edit should not touch its width, got %vx%v", b.Width, b.Height)
	}
}

func TestAlign(t *testing.T) {
	ids := []autocard.FieldID{autocard.FieldSchoolName, autocard.FieldStudentName, autocard.FieldPhoto}

	tests := []struct {
		name  string
		op    AlignOp
		check func(t *testing.T, before, after map[autocard.FieldID]autocard.Point)
	}{
		{
			name: "Min X",
			op:   AlignMinX,
			check: func(t *testing.T, before, after map[autocard.FieldID]autocard.Point) {
				for _, id := range ids {
					if after[id].X != before[autocard.FieldPhoto].X || after[id].Y != before[id].Y {
						t.Errorf("%s at %#v", id, after[id])
					}
				}
			},
		},
		{
			name: "Max Y",
			op:   AlignMaxY,
			check: func(t *testing.T, before, after map[autocard.FieldID]autocard.Point) {
				for _, id := range ids {
					if after[id].Y != before[autocard.FieldPhoto].Y || after[id].X != before[id].X {
						t.Errorf("%s at %#v", id, after[id])
					}
				}
			},
		},
		{
			name: "Distribute vertical",
			op:   DistributeVertical,
			check: func(t *testing.T, before, after map[autocard.FieldID]autocard.Point) {
				top, bottom := before[autocard.FieldSchoolName].Y, before[autocard.FieldPhoto].Y
				if after[autocard.FieldSchoolName].Y != top || after[autocard.FieldPhoto].Y != bottom {
					t.Errorf("outer fields should stay put, got %#v", after)
				}
				if mid := after[autocard.FieldStudentName].Y; math.Abs(mid-(top+bottom)/2) > 1e-9 {
					t.Errorf("expected the middle field at %v, got %v", (top+bottom)/2, mid)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			if err := e.Select(ids...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			before := map[autocard.FieldID]autocard.Point{}
			for _, id := range ids {
				before[id] = anchorOf(t, e, id)
			}
			if err := e.Align(tt.op); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			after := map[autocard.FieldID]autocard.Point{}
			for _, id := range ids {
				after[id] = anchorOf(t, e, id)
			}
			tt.check(t, before, after)
		})
	}
}

func TestAlignNeedsTwoFields(t *testing.T) {
	e := newTestEditor()
	e.Select(autocard.FieldPhoto)
	rev := e.Revision()

	if err := e.AlignMaxX(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Revision() != rev {
		t.Errorf("a single selected field should not be aligned")
	}
}

func TestPointerUpSuppressesClick(t *testing.T) {
	e := newTestEditor()

	e.PointerDown(autocard.FieldStudentName, Pt{}, false)
	e.PointerUp()
	// the browser fires a click on the canvas after the drag
	e.Click("", false)

	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldStudentName}) {
		t.Errorf("click after a drag should be ignored, selection %v", got)
	}

	e.Click("", false)
	if got := e.Selection(); len(got) != 0 {
		t.Errorf("a real click on the background clears the selection, got %v", got)
	}
}

func TestPressClearsSuppressedClick(t *testing.T) {
	e := newTestEditor()

	// released outside the card, so no click follows the drag
	e.PointerDown(autocard.FieldStudentName, Pt{X: 100, Y: 100}, false)
	e.PointerMove(Pt{X: 120, Y: 100}, false)
	e.PointerUp()

	e.PointerDown(autocard.FieldPhoto, Pt{X: 40, Y: 60}, false)
	if err := e.Click(autocard.FieldQRCode, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldQRCode}) {
		t.Errorf("click after a new press should select, got %v", got)
	}

	e.PointerUp()
	if err := e.BeginResize(autocard.FieldPhoto, HandleSE, Pt{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Click(autocard.FieldStudentName, false)
	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldStudentName}) {
		t.Errorf("click after a resize press should select, got %v", got)
	}
}

func TestClickSelection(t *testing.T) {
	e := newTestEditor()

	e.Click(autocard.FieldPhoto, false)
	e.Click(autocard.FieldQRCode, true)
	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldPhoto, autocard.FieldQRCode}) {
		t.Errorf("unexpected selection %v", got)
	}

	e.Click(autocard.FieldPhoto, true)
	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldQRCode}) {
		t.Errorf("additive click should toggle, got %v", got)
	}

	e.Click(autocard.FieldStudentName, false)
	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldStudentName}) {
		t.Errorf("plain click should replace the selection, got %v", got)
	}

	if err := e.Click("nope", false); !errors.Is(err, autocard.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestAdditivePressWithoutMoveDeselects(t *testing.T) {
	e := newTestEditor()
	e.Select(autocard.FieldPhoto, autocard.FieldQRCode)

	e.PointerDown(autocard.FieldPhoto, Pt{}, true)
	e.PointerUp()

	if got := e.Selection(); !slices.Equal(got, []autocard.FieldID{autocard.FieldQRCode}) {
		t.Errorf("unexpected selection %v", got)
	}
}

func TestToggleAndValues(t *testing.T) {
	e := newTestEditor()
	e.Select(autocard.FieldPhoto)
	rev := e.Revision()

	if err := e.Toggle(autocard.FieldPhoto, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Layout().IsEnabled(autocard.FieldPhoto) {
		t.Errorf("photo should be disabled")
	}
	if len(e.Selection()) != 0 {
		t.Errorf("disabled fields leave the selection")
	}

	blank := ""
	e.SetFieldValue(autocard.FieldNameLabel, &blank)
	if v := e.Layout().FieldValues[autocard.FieldNameLabel]; v == nil || *v != "" {
		t.Errorf("expected an explicit blank value")
	}
	e.SetFieldValue(autocard.FieldNameLabel, nil)
	if _, ok := e.Layout().FieldValues[autocard.FieldNameLabel]; ok {
		t.Errorf("nil should restore the default")
	}

	size := 14.0
	e.SetFieldFont(autocard.FieldStudentName, autocard.FontOverride{FontSize: &size})
	name, _ := autocard.IDCardCatalog.Lookup(autocard.FieldStudentName)
	if got := e.Layout().ResolveFont(name).Size; got != 14 {
		t.Errorf("expected override size 14, got %v", got)
	}

	if e.Revision() != rev+4 {
		t.Errorf("expected 4 revisions, got %d", e.Revision()-rev)
	}
}

func TestLayoutIsACopy(t *testing.T) {
	original := autocard.DefaultLayout(autocard.IDCardCatalog)
	e := New(autocard.IDCardCatalog, original, autocard.MetricsForPreset(autocard.IDCardPreview, autocard.IDCardPreview, 0))

	e.SetPosition(autocard.FieldStudentName, autocard.Point{X: 1, Y: 1})
	f, _ := autocard.IDCardCatalog.Lookup(autocard.FieldStudentName)
	if original.PlacementFor(f) == e.Layout().PlacementFor(f) {
		t.Errorf("editor must not mutate the layout it was created with")
	}

	l := e.Layout()
	l.SetPlacement(autocard.FieldStudentName, autocard.Point{X: 99, Y: 99})
	if e.Layout().PlacementFor(f) != (autocard.Point{X: 1, Y: 1}) {
		t.Errorf("Layout must return a deep copy")
	}
}

func TestSetStyle(t *testing.T) {
	e := newTestEditor()
	ltr := false
	family := "Roboto"
	src := autocard.QRSourceAdmissionNumber
	e.SetStyle(Style{RTL: &ltr, FontFamily: &family, QRSource: &src})

	l := e.Layout()
	if l.IsRTL() || l.FontFamily != "Roboto" || l.QRSource != autocard.QRSourceAdmissionNumber {
		t.Errorf("unexpected style rtl=%v family=%q qr=%q", l.IsRTL(), l.FontFamily, l.QRSource)
	}
}
