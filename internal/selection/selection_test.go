package selection

import (
	"image"
	"image/color"
	"testing"
)

func TestDragInAnyDirectionYieldsBoundingBox(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 300, Y: 200})
	c.UpdateSelection(Point{X: 100, Y: 350})
	got := c.Box()
	want := Box{X: 100, Y: 200, W: 200, H: 150}
	if got != want {
		t.Fatalf("box %+v, want %+v", got, want)
	}
}

func TestTinyDragCollapsesSelection(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 108, Y: 180})
	c.CommitOrDiscard()
	if c.Active() {
		t.Fatal("sub-minimum drag left an active selection")
	}
	if c.Box() != (Box{}) {
		t.Fatalf("collapsed selection kept box %+v", c.Box())
	}
}

func TestValidDragCommits(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 200, Y: 180})
	c.CommitOrDiscard()
	if !c.Active() {
		t.Fatal("valid drag did not commit")
	}
}

func TestResizeClampsToBounds(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 150, Y: 150})
	c.CommitOrDiscard()

	h, ok := c.HandleAt(Point{X: 101, Y: 99})
	if !ok || h != HandleNW {
		t.Fatalf("handle at nw corner: %q ok=%v", h, ok)
	}
	c.BeginResize(h, Point{X: 100, Y: 100})
	c.Drag(Point{X: -500, Y: -500})
	c.End()

	got := c.Box()
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("origin not clamped: %+v", got)
	}
	if got.W != 150 || got.H != 150 {
		t.Fatalf("far edge moved during clamp: %+v", got)
	}
}

func TestResizeFlipNormalizes(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 200, Y: 200})
	c.CommitOrDiscard()

	// Drag the east edge left past the west edge.
	c.BeginResize(HandleE, Point{X: 200, Y: 150})
	c.Drag(Point{X: 40, Y: 150})
	c.End()

	got := c.Box()
	if got.W < 0 || got.H < 0 {
		t.Fatalf("negative extent persisted: %+v", got)
	}
	if got.X != 40 || got.W != 60 {
		t.Fatalf("flip did not swap edges: %+v", got)
	}
}

func TestEdgeHandleConstrainsAxis(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 200, Y: 200})
	c.CommitOrDiscard()

	c.BeginResize(HandleN, Point{X: 150, Y: 100})
	c.Drag(Point{X: 400, Y: 50})
	c.End()

	got := c.Box()
	if got.X != 100 || got.W != 100 {
		t.Fatalf("north handle moved the horizontal edges: %+v", got)
	}
	if got.Y != 50 || got.H != 150 {
		t.Fatalf("north edge did not follow the drag: %+v", got)
	}
}

func TestMoveClampsInsideBounds(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 300, Y: 250})
	c.CommitOrDiscard()

	c.BeginMove(Point{X: 200, Y: 175})
	c.Drag(Point{X: 5000, Y: 5000})
	c.End()

	got := c.Box()
	if got.X+got.W != 800 || got.Y+got.H != 600 {
		t.Fatalf("move escaped bounds: %+v", got)
	}
	if got.W != 200 || got.H != 150 {
		t.Fatalf("move changed extents: %+v", got)
	}
}

func TestDoubleClickSelectsFullBounds(t *testing.T) {
	c := New(image.Rect(0, 0, 1024, 768))
	c.SelectAll()
	got := c.Box()
	if got != (Box{X: 0, Y: 0, W: 1024, H: 768}) {
		t.Fatalf("full-bounds selection %+v", got)
	}
}

func TestHandleHitThreshold(t *testing.T) {
	c := New(image.Rect(0, 0, 800, 600))
	c.StartSelection(Point{X: 100, Y: 100})
	c.UpdateSelection(Point{X: 200, Y: 200})
	c.CommitOrDiscard()

	if _, ok := c.HandleAt(Point{X: 100 + 11, Y: 100}); !ok {
		t.Fatal("point within 12px of nw should hit")
	}
	if _, ok := c.HandleAt(Point{X: 130, Y: 130}); ok {
		t.Fatal("point far from every handle should miss")
	}
}

func TestProbeRetainsLastColorOutOfRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.SetRGBA(5, 5, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	c := New(img.Bounds())
	if _, ok := c.LastColor(); ok {
		t.Fatal("fresh controller reports a color")
	}
	c.Sample(img, Point{X: 5, Y: 5})
	c.Sample(img, Point{X: -50, Y: 400})
	got, ok := c.LastColor()
	if !ok || got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("probe lost last color: %+v ok=%v", got, ok)
	}
}

func TestMagnifyOutputSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	c := New(img.Bounds())
	out := c.Magnify(img, Point{X: 50, Y: 50}, 120, 120)
	if b := out.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Fatalf("magnifier size %dx%d", b.Dx(), b.Dy())
	}
}
