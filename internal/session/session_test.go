package session

import (
	"image"
	"testing"

	"github.com/example/clipdeck/internal/shape"
)

func TestToolbarLayoutDoesNotOverlap(t *testing.T) {
	tb := newToolbar()
	for i := 1; i < len(tb.buttons); i++ {
		prev := tb.buttons[i-1].rect
		cur := tb.buttons[i].rect
		if prev.Overlaps(cur) {
			t.Fatalf("buttons %d and %d overlap: %v %v", i-1, i, prev, cur)
		}
		if cur.Min.X < prev.Max.X {
			t.Fatalf("button %d not laid out after %d", i, i-1)
		}
	}
}

func TestToolbarHit(t *testing.T) {
	tb := newToolbar()
	first := tb.buttons[0]
	got := tb.hit(first.rect.Min.Add(image.Pt(2, 2)))
	if got == nil || got.tool != shape.KindRect {
		t.Fatalf("hit on first button returned %+v", got)
	}
	if tb.hit(image.Pt(-5, -5)) != nil {
		t.Fatal("hit outside the bar returned a button")
	}
	if tb.hit(image.Pt(0, toolbarHeight+10)) != nil {
		t.Fatal("hit below the bar returned a button")
	}
}

func TestSelectedOutlineCoversPenStroke(t *testing.T) {
	d := &shape.Data{
		Kind:   shape.KindPen,
		Points: []shape.Point{{X: 10, Y: 40}, {X: 60, Y: 5}, {X: 30, Y: 80}},
	}
	r := selectedOutline(d)
	if r.Min.X > 10-4 || r.Min.Y > 5-4 || r.Max.X < 60+4 || r.Max.Y < 80+4 {
		t.Fatalf("outline %v does not cover the stroke", r)
	}
}

func TestSelectedOutlineNormalizesReversedRect(t *testing.T) {
	d := &shape.Data{
		Kind: shape.KindRect,
		P0:   shape.Point{X: 90, Y: 70},
		P1:   shape.Point{X: 20, Y: 10},
	}
	r := selectedOutline(d)
	if r.Min.X != 20-4 || r.Min.Y != 10-4 {
		t.Fatalf("outline origin %v for reversed corners", r.Min)
	}
}

func TestCropRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	got := cropRGBA(src, image.Rect(10, 10, 60, 40))
	if got == nil {
		t.Fatal("valid crop returned nil")
	}
	if b := got.Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Fatalf("crop size %dx%d", b.Dx(), b.Dy())
	}
	if cropRGBA(src, image.Rect(200, 200, 300, 300)) != nil {
		t.Fatal("out-of-bounds crop should return nil")
	}
}
