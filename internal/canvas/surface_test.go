package canvas

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"testing"

	"github.com/example/clipdeck/internal/shape"
)

func newTestSurface(w, h int) *Surface {
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(base, base.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return New(base, shape.Builtin(), shape.DefaultStyle())
}

func drag(s *Surface, x0, y0, x1, y1 float64) {
	s.PointerDown(shape.Point{X: x0, Y: y0})
	midX := (x0 + x1) / 2
	midY := (y0 + y1) / 2
	s.PointerMove(shape.Point{X: midX, Y: midY})
	s.PointerMove(shape.Point{X: x1, Y: y1})
	s.PointerUp(shape.Point{X: x1, Y: y1})
}

func TestThinRectDragCommitsNothing(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindRect)

	baseline := s.HistoryLen()
	drag(s, 10, 10, 80, 11)
	if len(s.Objects()) != 0 {
		t.Fatalf("thin drag committed %d objects", len(s.Objects()))
	}
	if s.HistoryLen() != baseline {
		t.Fatal("degenerate drag wrote a history entry")
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("phase after degenerate drag: %v", s.Phase())
	}
}

func TestCommitPushesExactlyOneEntry(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindRect)

	before := s.HistoryLen()
	drag(s, 10, 10, 90, 70)
	if len(s.Objects()) != 1 {
		t.Fatalf("got %d objects, want 1", len(s.Objects()))
	}
	if s.HistoryLen() != before+1 {
		t.Fatalf("history grew by %d, want 1", s.HistoryLen()-before)
	}
	if s.HistoryCursor() != s.HistoryLen()-1 {
		t.Fatalf("cursor %d not at end %d", s.HistoryCursor(), s.HistoryLen()-1)
	}
	if s.Selected() == nil {
		t.Fatal("committed shape was not auto-selected")
	}
}

func TestUndoRedoRestoresDeepEqualState(t *testing.T) {
	s := newTestSurface(400, 400)
	rng := rand.New(rand.NewSource(7))

	tools := []shape.Kind{shape.KindRect, shape.KindEllipse, shape.KindArrow}
	for i := 0; i < 20; i++ {
		switch rng.Intn(3) {
		case 0: // draw
			s.Deselect()
			s.SetTool(tools[rng.Intn(len(tools))])
			x := float64(rng.Intn(300))
			y := float64(rng.Intn(300))
			drag(s, x, y, x+20+float64(rng.Intn(60)), y+20+float64(rng.Intn(60)))
		case 1: // move the selected shape, if any
			if s.Selected() != nil {
				sel := s.Selected()
				p := pickPointOn(s, sel)
				s.PointerDown(p)
				s.PointerMove(shape.Point{X: p.X + 5, Y: p.Y + 5})
				s.PointerUp(shape.Point{X: p.X + 5, Y: p.Y + 5})
			}
		case 2: // restyle
			if s.Selected() != nil {
				s.SetStrokeWidth(float64(1 + rng.Intn(8)))
			}
		}
	}

	before := snapshotObjects(t, s)
	if !s.Undo() {
		t.Fatal("undo failed with non-empty history")
	}
	if !s.Redo() {
		t.Fatal("redo failed after undo")
	}
	after := snapshotObjects(t, s)
	if !bytes.Equal(before, after) {
		t.Fatalf("undo+redo changed state:\nbefore %s\nafter  %s", before, after)
	}
}

func pickPointOn(s *Surface, o *Object) shape.Point {
	switch o.Data.Kind {
	case shape.KindArrow:
		return shape.Point{
			X: (o.Data.P0.X + o.Data.P1.X) / 2,
			Y: (o.Data.P0.Y + o.Data.P1.Y) / 2,
		}
	default:
		// Top edge midpoint sits on the outline for rect and ellipse.
		minX, maxX := o.Data.P0.X, o.Data.P1.X
		if minX > maxX {
			minX, maxX = maxX, minX
		}
		minY := o.Data.P0.Y
		if o.Data.P1.Y < minY {
			minY = o.Data.P1.Y
		}
		return shape.Point{X: (minX + maxX) / 2, Y: minY}
	}
}

func snapshotObjects(t *testing.T, s *Surface) []byte {
	t.Helper()
	type flat struct {
		ID    string
		Data  shape.Data
		Style shape.Style
	}
	var out []flat
	for _, o := range s.Objects() {
		out = append(out, flat{ID: o.ID, Data: *o.Data, Style: o.Style})
	}
	buf, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal objects: %v", err)
	}
	return buf
}

func TestUndoTruncatesFutureOnNextPush(t *testing.T) {
	s := newTestSurface(300, 300)
	s.SetTool(shape.KindRect)
	drag(s, 10, 10, 60, 60)
	s.Deselect()
	drag(s, 100, 100, 160, 160)
	s.Deselect()

	lenBefore := s.HistoryLen()
	s.Undo()
	s.Undo()
	drag(s, 200, 200, 260, 260)
	if s.HistoryLen() >= lenBefore {
		t.Fatalf("push after undo did not truncate: len %d, was %d", s.HistoryLen(), lenBefore)
	}
	if s.HistoryCursor() != s.HistoryLen()-1 {
		t.Fatal("cursor not at end after truncating push")
	}
	if s.CanRedo() {
		t.Fatal("redo available after truncating push")
	}
}

func TestRestoreDoesNotPolluteHistory(t *testing.T) {
	s := newTestSurface(300, 300)
	s.SetTool(shape.KindText)
	// Empty text placeholder: undo restore deselects it, which would
	// delete-and-push if the loading guard failed.
	s.PointerDown(shape.Point{X: 50, Y: 50})
	s.PointerUp(shape.Point{X: 50, Y: 50})

	lenBefore := s.HistoryLen()
	s.Undo()
	if s.HistoryLen() != lenBefore {
		t.Fatalf("restore changed history length: %d -> %d", lenBefore, s.HistoryLen())
	}
}

func TestMoveAfterReleaseIsIgnored(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindRect)
	drag(s, 10, 10, 80, 80)
	obj := s.Objects()[0]
	p0, p1 := obj.Data.P0, obj.Data.P1

	// Stray move with no gesture in progress.
	s.Deselect()
	s.PointerMove(shape.Point{X: 150, Y: 150})
	if obj.Data.P0 != p0 || obj.Data.P1 != p1 {
		t.Fatal("stray move mutated committed geometry")
	}
}

func TestExistingShapeWinsOverActiveTool(t *testing.T) {
	s := newTestSurface(300, 300)
	s.SetTool(shape.KindRect)
	drag(s, 50, 50, 150, 120)
	s.Deselect()

	// Tool still active, press on the existing outline.
	s.PointerDown(shape.Point{X: 100, Y: 50})
	if s.Phase() != PhaseSelected {
		t.Fatalf("phase %v, want selected", s.Phase())
	}
	if len(s.Objects()) != 1 {
		t.Fatal("press on existing shape started a new one")
	}
	s.PointerUp(shape.Point{X: 100, Y: 50})
}

func TestEscapeDiscardsTransientWithoutHistory(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindEllipse)
	before := s.HistoryLen()
	s.PointerDown(shape.Point{X: 10, Y: 10})
	s.PointerMove(shape.Point{X: 90, Y: 90})
	if !s.Escape() {
		t.Fatal("escape during drawing not handled")
	}
	s.PointerUp(shape.Point{X: 90, Y: 90})
	if len(s.Objects()) != 0 {
		t.Fatal("cancelled gesture still committed")
	}
	if s.HistoryLen() != before {
		t.Fatal("cancelled gesture wrote history")
	}
}

func TestEmptyTextDeselectDeletes(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindText)
	s.PointerDown(shape.Point{X: 40, Y: 40})
	s.PointerUp(shape.Point{X: 40, Y: 40})

	if len(s.Objects()) != 1 {
		t.Fatalf("click-only text committed %d objects, want 1", len(s.Objects()))
	}
	if !s.EditingText() {
		t.Fatal("placeholder did not enter edit mode")
	}
	s.Deselect()
	if len(s.Objects()) != 0 {
		t.Fatal("empty text survived deselect")
	}
}

func TestNonEmptyTextSurvivesDeselect(t *testing.T) {
	s := newTestSurface(200, 200)
	s.SetTool(shape.KindText)
	s.PointerDown(shape.Point{X: 40, Y: 40})
	s.PointerUp(shape.Point{X: 40, Y: 40})
	s.AppendText("note")
	s.BackspaceText()
	s.Deselect()
	if len(s.Objects()) != 1 {
		t.Fatalf("got %d objects, want 1", len(s.Objects()))
	}
	if got := s.Objects()[0].Data.Text; got != "not" {
		t.Fatalf("text %q, want %q", got, "not")
	}
}

func TestControlPointResizePushesOncePerGesture(t *testing.T) {
	s := newTestSurface(300, 300)
	s.SetTool(shape.KindRect)
	drag(s, 50, 50, 150, 120)
	obj := s.Objects()[0]
	before := s.HistoryLen()

	// Grab the br handle and drag it through several moves.
	s.PointerDown(shape.Point{X: 150, Y: 120})
	if s.Phase() != PhaseResizing {
		t.Fatalf("phase %v, want resizing", s.Phase())
	}
	s.PointerMove(shape.Point{X: 170, Y: 140})
	s.PointerMove(shape.Point{X: 200, Y: 180})
	s.PointerUp(shape.Point{X: 200, Y: 180})

	if s.HistoryLen() != before+1 {
		t.Fatalf("resize gesture pushed %d entries, want 1", s.HistoryLen()-before)
	}
	if obj.Data.P1.X != 200 || obj.Data.P1.Y != 180 {
		t.Fatalf("resize did not land: %+v", obj.Data.P1)
	}
	if s.Objects()[0] != obj {
		t.Fatal("resize replaced the object instead of mutating it")
	}
}

func TestExportEndToEnd(t *testing.T) {
	// 1000x800 source, select {100,100,300,200}, draw a rect at local
	// {10,10,50,40}, export, decode, verify size and stroke placement.
	src := image.NewRGBA(image.Rect(0, 0, 1000, 800))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sel := image.Rect(100, 100, 400, 300)
	crop := image.NewRGBA(image.Rect(0, 0, sel.Dx(), sel.Dy()))
	draw.Draw(crop, crop.Bounds(), src, sel.Min, draw.Src)

	s := New(crop, shape.Builtin(), shape.Style{
		Stroke: color.RGBA{R: 255, A: 255},
		Fill:   color.RGBA{R: 255, A: 255},
		Width:  2,
	})
	s.SetTool(shape.KindRect)
	drag(s, 10, 10, 60, 50)

	data, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("export size %dx%d, want 300x200", b.Dx(), b.Dy())
	}
	// Top edge midpoint of the drawn rectangle.
	r, g, _, _ := img.At(35, 10).RGBA()
	if r>>8 < 200 || g>>8 > 100 {
		t.Fatalf("expected red stroke at (35,10), got r=%d g=%d", r>>8, g>>8)
	}
	// Interior stays the base color.
	r, g, b, _ := img.At(35, 30).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Fatalf("interior not preserved: %d %d %d", r>>8, g>>8, b>>8)
	}
}
