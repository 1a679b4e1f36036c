package editor

import (
	"fmt"
	"sort"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type AlignOp string

const (
	AlignMinX          AlignOp = "min-x"
	AlignMaxX          AlignOp = "max-x"
	AlignMinY          AlignOp = "min-y"
	AlignMaxY          AlignOp = "max-y"
	DistributeVertical AlignOp = "distribute-vertical"
)

func ParseAlignOp(s string) (AlignOp, error) {
	switch op := AlignOp(s); op {
	case AlignMinX, AlignMaxX, AlignMinY, AlignMaxY, DistributeVertical:
		return op, nil
	default:
		return "", fmt.Errorf("invalid align operation %q", s)
	}
}

// Align applies op to the current selection. Fewer than two selected fields is a no-op.
func (e *Editor) Align(op AlignOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.selected) < 2 {
		return nil
	}

	anchors := make(map[autocard.FieldID]autocard.Point, len(e.selected))
	for _, id := range e.selected {
		anchors[id] = e.placement(id).Anchor()
	}

	switch op {
	case AlignMinX, AlignMaxX:
		target := extreme(anchors, func(p autocard.Point) float64 { return p.X }, op == AlignMinX)
		for id, a := range anchors {
			e.moveTo(id, autocard.Point{X: target, Y: a.Y})
		}
	case AlignMinY, AlignMaxY:
		target := extreme(anchors, func(p autocard.Point) float64 { return p.Y }, op == AlignMinY)
		for id, a := range anchors {
			e.moveTo(id, autocard.Point{X: a.X, Y: target})
		}
	case DistributeVertical:
		e.distributeVertical(anchors)
	default:
		return fmt.Errorf("invalid align operation %q", op)
	}

	e.touch()
	return nil
}

func (e *Editor) AlignMinX() error          { return e.Align(AlignMinX) }
func (e *Editor) AlignMaxX() error          { return e.Align(AlignMaxX) }
func (e *Editor) AlignMinY() error          { return e.Align(AlignMinY) }
func (e *Editor) AlignMaxY() error          { return e.Align(AlignMaxY) }
func (e *Editor) DistributeVertical() error { return e.Align(DistributeVertical) }

func (e *Editor) moveTo(id autocard.FieldID, pt autocard.Point) {
	e.layout.SetPlacement(id, autocard.WithAnchor(e.placement(id), pt))
}

func extreme(anchors map[autocard.FieldID]autocard.Point, coord func(autocard.Point) float64, lowest bool) float64 {
	first := true
	var v float64
	for _, a := range anchors {
		c := coord(a)
		if first || (lowest && c < v) || (!lowest && c > v) {
			v, first = c, false
		}
	}
	return v
}

// distributeVertical sorts by Y and spaces the fields evenly between the topmost
// and bottommost, which stay where they are.
func (e *Editor) distributeVertical(anchors map[autocard.FieldID]autocard.Point) {
	ids := make([]autocard.FieldID, 0, len(anchors))
	for id := range anchors {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if anchors[ids[i]].Y == anchors[ids[j]].Y {
			return ids[i] < ids[j]
		}
		return anchors[ids[i]].Y < anchors[ids[j]].Y
	})

	minY, maxY := anchors[ids[0]].Y, anchors[ids[len(ids)-1]].Y
	step := (maxY - minY) / float64(len(ids)-1)
	for i, id := range ids {
		e.moveTo(id, autocard.Point{X: anchors[id].X, Y: minY + step*float64(i)})
	}
}
