package shape

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func mustBehavior(t *testing.T, k Kind) Behavior {
	t.Helper()
	b, ok := Builtin().Lookup(k)
	if !ok {
		t.Fatalf("no behavior registered for %q", k)
	}
	return b
}

func TestRegistryLookupUnknownKind(t *testing.T) {
	r := Builtin()
	if _, ok := r.Lookup(Kind("sticker")); ok {
		t.Fatal("expected lookup miss for unknown kind")
	}
}

func TestRectCreateRejectsThinDrags(t *testing.T) {
	b := mustBehavior(t, KindRect)
	cases := []struct {
		name       string
		start, cur Point
		want       bool
	}{
		{"click", Point{X: 10, Y: 10}, Point{X: 10, Y: 10}, false},
		{"thin horizontal", Point{X: 10, Y: 10}, Point{X: 60, Y: 11.5}, false},
		{"thin vertical", Point{X: 10, Y: 10}, Point{X: 11, Y: 60}, false},
		{"valid", Point{X: 10, Y: 10}, Point{X: 12, Y: 12}, true},
		{"valid reversed", Point{X: 60, Y: 50}, Point{X: 10, Y: 10}, true},
	}
	for _, tc := range cases {
		d, ok := b.Create(tc.start, tc.cur, nil)
		if ok != tc.want {
			t.Errorf("%s: got ok=%v want %v", tc.name, ok, tc.want)
		}
		if ok && d.Kind != KindRect {
			t.Errorf("%s: wrong kind %q", tc.name, d.Kind)
		}
	}
}

func TestEllipseCreateRejectsThinDrags(t *testing.T) {
	b := mustBehavior(t, KindEllipse)
	if _, ok := b.Create(Point{X: 0, Y: 0}, Point{X: 100, Y: 1}, nil); ok {
		t.Fatal("thin ellipse drag should reject")
	}
	if _, ok := b.Create(Point{X: 0, Y: 0}, Point{X: 30, Y: 20}, nil); !ok {
		t.Fatal("valid ellipse drag should commit")
	}
}

func TestArrowCreateRejectsOnlyWhenBothExtentsSmall(t *testing.T) {
	b := mustBehavior(t, KindArrow)
	if _, ok := b.Create(Point{X: 0, Y: 0}, Point{X: 4, Y: 4}, nil); ok {
		t.Fatal("tiny arrow should reject")
	}
	// A nearly horizontal arrow is fine: only one extent needs to clear
	// the minimum.
	if _, ok := b.Create(Point{X: 0, Y: 0}, Point{X: 40, Y: 1}, nil); !ok {
		t.Fatal("horizontal arrow should commit")
	}
}

func TestPenCreateNeedsTwoPoints(t *testing.T) {
	b := mustBehavior(t, KindPen)
	if _, ok := b.Create(Point{}, Point{}, []Point{{X: 1, Y: 1}}); ok {
		t.Fatal("single-point pen stroke should reject")
	}
	pts := []Point{{X: 1, Y: 1}, {X: 5, Y: 9}, {X: 7, Y: 4}}
	d, ok := b.Create(Point{}, Point{}, pts)
	if !ok {
		t.Fatal("multi-point pen stroke should commit")
	}
	if len(d.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(d.Points))
	}
	// The behavior must copy the accumulated slice, not alias it.
	pts[0].X = 99
	if d.Points[0].X == 99 {
		t.Fatal("pen data aliases the gesture buffer")
	}
}

func TestTextCreateNeverRejects(t *testing.T) {
	b := mustBehavior(t, KindText)
	d, ok := b.Create(Point{X: 5, Y: 5}, Point{X: 5, Y: 5}, nil)
	if !ok {
		t.Fatal("text click should commit a placeholder")
	}
	if d.Text != "" {
		t.Fatalf("placeholder text should be empty, got %q", d.Text)
	}
	if d.FontSize <= 0 {
		t.Fatal("placeholder needs a usable font size")
	}
}

func TestArrowMoveRoundTrips(t *testing.T) {
	b := mustBehavior(t, KindArrow)
	d, ok := b.Create(Point{X: 12.25, Y: 7.5}, Point{X: 180.75, Y: 93.125}, nil)
	if !ok {
		t.Fatal("arrow create failed")
	}
	orig0, orig1 := d.P0, d.P1
	b.Move(d, 33.7, -18.2)
	b.Move(d, -33.7, 18.2)
	const tol = 1e-9
	if math.Abs(d.P0.X-orig0.X) > tol || math.Abs(d.P0.Y-orig0.Y) > tol ||
		math.Abs(d.P1.X-orig1.X) > tol || math.Abs(d.P1.Y-orig1.Y) > tol {
		t.Fatalf("move round trip drifted: %+v %+v vs %+v %+v", d.P0, d.P1, orig0, orig1)
	}
}

func TestRectCornerDragNormalizesFlip(t *testing.T) {
	b := mustBehavior(t, KindRect)
	d, _ := b.Create(Point{X: 10, Y: 10}, Point{X: 50, Y: 40}, nil)
	var tl *ControlPoint
	cps := b.ControlPoints()
	for i := range cps {
		if cps[i].Name == "tl" {
			tl = &cps[i]
			break
		}
	}
	if tl == nil {
		t.Fatal("rect has no tl handle")
	}
	// Drag past the opposite corner; the persisted data must come out
	// with positive extents.
	tl.Apply(d, Point{X: 120, Y: 90})
	minX, minY, maxX, maxY := dataRect(d)
	if maxX-minX < 0 || maxY-minY < 0 {
		t.Fatalf("negative extent after flip: %v %v %v %v", minX, minY, maxX, maxY)
	}
	if d.P0.X > d.P1.X || d.P0.Y > d.P1.Y {
		t.Fatalf("corners not normalized after flip: %+v %+v", d.P0, d.P1)
	}
}

func TestPenStartHandleTranslatesWholeStroke(t *testing.T) {
	b := mustBehavior(t, KindPen)
	d, _ := b.Create(Point{}, Point{}, []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})
	cps := b.ControlPoints()
	if len(cps) != 2 {
		t.Fatalf("pen handles: got %d want 2", len(cps))
	}
	cps[0].Apply(d, Point{X: 5, Y: 5})
	want := []Point{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}}
	for i, p := range d.Points {
		if p != want[i] {
			t.Fatalf("point %d: got %+v want %+v", i, p, want[i])
		}
	}
}

func TestArrowPolygonShape(t *testing.T) {
	d := &Data{Kind: KindArrow, P0: Point{X: 0, Y: 0}, P1: Point{X: 100, Y: 0}}
	poly := arrowPolygon(d, 4)
	if len(poly) != 7 {
		t.Fatalf("arrow polygon has %d vertices, want 7", len(poly))
	}
	if poly[3] != d.P1 {
		t.Fatalf("tip vertex %+v, want endpoint %+v", poly[3], d.P1)
	}
	// Head length stays under 40% of the segment even for wide strokes.
	short := &Data{Kind: KindArrow, P0: Point{X: 0, Y: 0}, P1: Point{X: 20, Y: 0}}
	p := arrowPolygon(short, 10)
	neckX := p[1].X
	if headLen := short.P1.X - neckX; headLen > 20*0.4+1e-9 {
		t.Fatalf("head length %v exceeds 40%% cap", headLen)
	}
}

func TestArrowHitInsideSilhouette(t *testing.T) {
	b := mustBehavior(t, KindArrow)
	d := &Data{Kind: KindArrow, P0: Point{X: 0, Y: 50}, P1: Point{X: 100, Y: 50}}
	st := Style{Stroke: color.RGBA{A: 255}, Width: 4, Fill: color.RGBA{A: 255}}
	if !b.Hit(d, st, Point{X: 50, Y: 50}, 0) {
		t.Fatal("center of shaft should hit")
	}
	if b.Hit(d, st, Point{X: 50, Y: 80}, 3) {
		t.Fatal("point far off the shaft should miss")
	}
}

func TestRectRenderStrokesOutline(t *testing.T) {
	b := mustBehavior(t, KindRect)
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	st := Style{Stroke: color.RGBA{R: 255, A: 255}, Width: 2}
	d := &Data{Kind: KindRect, P0: Point{X: 20, Y: 20}, P1: Point{X: 80, Y: 60}}
	b.Render(dst, d, st)
	if dst.RGBAAt(50, 20).R == 0 {
		t.Fatal("top edge not stroked")
	}
	if dst.RGBAAt(50, 40).R != 0 {
		t.Fatal("interior should stay untouched")
	}
}

func TestTextRenderAndMeasure(t *testing.T) {
	b := mustBehavior(t, KindText)
	d := &Data{Kind: KindText, P0: Point{X: 10, Y: 10}, Text: "hi", FontSize: 18}
	w, h := measureText(d)
	if w <= 0 || h <= 0 {
		t.Fatalf("measure returned %v x %v", w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 120, 60))
	b.Render(dst, d, Style{Stroke: color.RGBA{B: 255, A: 255}})
	found := false
	for y := 0; y < 60 && !found; y++ {
		for x := 0; x < 120; x++ {
			if dst.RGBAAt(x, y).B > 0 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("text render produced no pixels")
	}
}

func TestDataCloneIsDeep(t *testing.T) {
	d := &Data{Kind: KindPen, Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	c := d.Clone()
	c.Points[0].X = 99
	if d.Points[0].X == 99 {
		t.Fatal("clone shares the points slice")
	}
}
