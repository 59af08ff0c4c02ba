// Package selection implements the region-selection overlay for one capture
// window: drag-to-select, handle-based resize/move with clamping, the
// full-bounds double-click shortcut, and the magnifier pixel probe.
package selection

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Box is a selection rectangle in capture pixel space. Extents are always
// non-negative outside of an in-progress drag.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect converts the box to an image rectangle, rounding outward is not
// needed because handles and clamping keep coordinates integral in practice.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X)),
		int(math.Round(b.Y)),
		int(math.Round(b.X+b.W)),
		int(math.Round(b.Y+b.H)),
	)
}

// Handle names one of the eight resize handles.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
)

const (
	// handleHitThreshold is the pick distance for resize handles.
	handleHitThreshold = 12.0
	// minExtent collapses a selection drag that stayed below it on either
	// axis.
	minExtent = 10.0
	// MagnifierZoom is the fixed magnification of the pixel probe.
	MagnifierZoom = 4
)

type mode int

const (
	modeNone mode = iota
	modeCreating
	modeMoving
	modeResizing
)

// Controller owns the selection state for one capture window.
type Controller struct {
	bounds image.Rectangle

	box    Box
	active bool

	mode     mode
	anchor   Point
	handle   Handle
	startBox Box
	startPt  Point

	lastColor color.RGBA
	hasColor  bool
}

// Point mirrors the surface coordinate pair without importing the shape
// package; the overlay predates any editing surface.
type Point struct{ X, Y float64 }

// New returns a controller for a capture of the given bounds.
func New(bounds image.Rectangle) *Controller {
	return &Controller{bounds: bounds}
}

// Active reports whether a committed selection exists.
func (c *Controller) Active() bool { return c.active }

// Dragging reports whether any selection gesture is in progress.
func (c *Controller) Dragging() bool { return c.mode != modeNone }

// Box returns the current selection box.
func (c *Controller) Box() Box { return c.box }

// StartSelection begins a zero-size selection anchored at p, replacing any
// existing selection.
func (c *Controller) StartSelection(p Point) {
	c.anchor = p
	c.box = Box{X: p.X, Y: p.Y}
	c.active = true
	c.mode = modeCreating
}

// UpdateSelection recomputes the box as the bounding rectangle of the anchor
// and p, so dragging works in all four directions.
func (c *Controller) UpdateSelection(p Point) {
	if c.mode != modeCreating {
		return
	}
	minX, maxX := minMax(c.anchor.X, p.X)
	minY, maxY := minMax(c.anchor.Y, p.Y)
	c.box = Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
	c.clampBox()
}

// CommitOrDiscard ends a creation drag. A drag that stayed under the minimum
// extent on either axis counts as a click and clears the selection entirely;
// full bounds stays one double-click away.
func (c *Controller) CommitOrDiscard() {
	if c.mode != modeCreating {
		return
	}
	c.mode = modeNone
	if c.box.W < minExtent || c.box.H < minExtent {
		c.Clear()
	}
}

// SelectAll selects the full capture bounds (double-click shortcut).
func (c *Controller) SelectAll() {
	c.box = Box{
		X: float64(c.bounds.Min.X),
		Y: float64(c.bounds.Min.Y),
		W: float64(c.bounds.Dx()),
		H: float64(c.bounds.Dy()),
	}
	c.active = true
	c.mode = modeNone
}

// Clear drops the selection.
func (c *Controller) Clear() {
	c.box = Box{}
	c.active = false
	c.mode = modeNone
}

// HandlePositions returns the eight handle centers for the current box.
func (c *Controller) HandlePositions() map[Handle]Point {
	b := c.box
	midX := b.X + b.W/2
	midY := b.Y + b.H/2
	return map[Handle]Point{
		HandleNW: {b.X, b.Y},
		HandleN:  {midX, b.Y},
		HandleNE: {b.X + b.W, b.Y},
		HandleE:  {b.X + b.W, midY},
		HandleSE: {b.X + b.W, b.Y + b.H},
		HandleS:  {midX, b.Y + b.H},
		HandleSW: {b.X, b.Y + b.H},
		HandleW:  {b.X, midY},
	}
}

// HandleAt returns the handle within the hit threshold of p, preferring the
// nearest when several qualify.
func (c *Controller) HandleAt(p Point) (Handle, bool) {
	if !c.active {
		return "", false
	}
	best := Handle("")
	bestDist := math.Inf(1)
	for h, pos := range c.HandlePositions() {
		d := math.Hypot(p.X-pos.X, p.Y-pos.Y)
		if d <= handleHitThreshold && d < bestDist {
			best, bestDist = h, d
		}
	}
	return best, best != ""
}

// Inside reports whether p falls within the selection body.
func (c *Controller) Inside(p Point) bool {
	if !c.active {
		return false
	}
	return p.X >= c.box.X && p.X <= c.box.X+c.box.W &&
		p.Y >= c.box.Y && p.Y <= c.box.Y+c.box.H
}

// BeginResize starts a handle drag.
func (c *Controller) BeginResize(h Handle, p Point) {
	c.mode = modeResizing
	c.handle = h
	c.startBox = c.box
	c.startPt = p
}

// BeginMove starts a body drag.
func (c *Controller) BeginMove(p Point) {
	c.mode = modeMoving
	c.startBox = c.box
	c.startPt = p
}

// Drag advances a move or resize gesture.
func (c *Controller) Drag(p Point) {
	switch c.mode {
	case modeMoving:
		c.dragMove(p)
	case modeResizing:
		c.dragResize(p)
	case modeCreating:
		c.UpdateSelection(p)
	}
}

// End finishes a move or resize gesture. Creation drags go through
// CommitOrDiscard instead.
func (c *Controller) End() {
	if c.mode == modeMoving || c.mode == modeResizing {
		c.mode = modeNone
	}
}

func (c *Controller) dragMove(p Point) {
	dx := p.X - c.startPt.X
	dy := p.Y - c.startPt.Y
	b := c.startBox
	b.X += dx
	b.Y += dy
	// Translation clamps without shrinking.
	b.X = clamp(b.X, float64(c.bounds.Min.X), float64(c.bounds.Max.X)-b.W)
	b.Y = clamp(b.Y, float64(c.bounds.Min.Y), float64(c.bounds.Max.Y)-b.H)
	c.box = b
}

func (c *Controller) dragResize(p Point) {
	dx := p.X - c.startPt.X
	dy := p.Y - c.startPt.Y
	b := c.startBox
	left := b.X
	top := b.Y
	right := b.X + b.W
	bottom := b.Y + b.H

	switch c.handle {
	case HandleNW:
		left += dx
		top += dy
	case HandleN:
		top += dy
	case HandleNE:
		right += dx
		top += dy
	case HandleE:
		right += dx
	case HandleSE:
		right += dx
		bottom += dy
	case HandleS:
		bottom += dy
	case HandleSW:
		left += dx
		bottom += dy
	case HandleW:
		left += dx
	}

	// Flip normalization: a handle dragged across the opposite edge swaps
	// sides rather than persisting a negative extent.
	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	left = clamp(left, float64(c.bounds.Min.X), float64(c.bounds.Max.X))
	right = clamp(right, float64(c.bounds.Min.X), float64(c.bounds.Max.X))
	top = clamp(top, float64(c.bounds.Min.Y), float64(c.bounds.Max.Y))
	bottom = clamp(bottom, float64(c.bounds.Min.Y), float64(c.bounds.Max.Y))

	c.box = Box{X: left, Y: top, W: right - left, H: bottom - top}
}

func (c *Controller) clampBox() {
	b := c.box
	left := clamp(b.X, float64(c.bounds.Min.X), float64(c.bounds.Max.X))
	top := clamp(b.Y, float64(c.bounds.Min.Y), float64(c.bounds.Max.Y))
	right := clamp(b.X+b.W, float64(c.bounds.Min.X), float64(c.bounds.Max.X))
	bottom := clamp(b.Y+b.H, float64(c.bounds.Min.Y), float64(c.bounds.Max.Y))
	c.box = Box{X: left, Y: top, W: right - left, H: bottom - top}
}

// Sample probes the 1x1 pixel under p and remembers its color. Out-of-range
// probes are ignored and the last color is retained.
func (c *Controller) Sample(src *image.RGBA, p Point) {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	if !image.Pt(x, y).In(src.Bounds()) {
		return
	}
	c.lastColor = src.RGBAAt(x, y)
	c.hasColor = true
}

// LastColor returns the most recent successful probe.
func (c *Controller) LastColor() (color.RGBA, bool) {
	return c.lastColor, c.hasColor
}

// Magnify renders the fixed-zoom crop around p into a new image of the given
// output size, nearest-neighbor so pixel boundaries stay sharp. The caller
// overlays the crosshair.
func (c *Controller) Magnify(src *image.RGBA, p Point, outW, outH int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	srcW := outW / MagnifierZoom
	srcH := outH / MagnifierZoom
	x := int(math.Round(p.X)) - srcW/2
	y := int(math.Round(p.Y)) - srcH/2
	region := image.Rect(x, y, x+srcW, y+srcH)
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), src, region, xdraw.Src, nil)
	return out
}

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(hi, v))
}
