// Package shape defines the vector annotation model: a closed set of shape
// kinds, the per-kind behavior implementations, and the registry used by the
// drawing surface to dispatch gesture and render calls.
package shape

import (
	"image"
	"image/color"
)

// Point is a coordinate in editing-surface pixel space. All external
// coordinates (window, device-scaled) are converted before entering this
// package.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the point translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Kind identifies one of the five builtin shape types. The set is closed;
// the tag of a shape never changes after creation.
type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindArrow   Kind = "arrow"
	KindPen     Kind = "pen"
	KindText    Kind = "text"
)

// Data is the tagged union of shape geometry. Which fields are meaningful
// depends on Kind: rect/ellipse/arrow use P0 and P1 (unnormalized, min/max is
// derived on demand), pen uses Points in stroke order, text uses P0 as the
// anchor together with Text and FontSize.
type Data struct {
	Kind     Kind    `json:"kind"`
	P0       Point   `json:"p0"`
	P1       Point   `json:"p1"`
	Points   []Point `json:"points,omitempty"`
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// Clone returns a deep copy of the shape data.
func (d *Data) Clone() *Data {
	c := *d
	if d.Points != nil {
		c.Points = append([]Point(nil), d.Points...)
	}
	return &c
}

// Style carries the drawing configuration applied to a shape: stroke color
// and width, plus the fill color used for arrow bodies. It is an explicit
// value owned by the active editing session and threaded into every behavior
// call.
type Style struct {
	Stroke color.RGBA `json:"stroke"`
	Width  float64    `json:"width"`
	Fill   color.RGBA `json:"fill"`
}

// DefaultStyle is the style applied when a session starts without an explicit
// configuration.
func DefaultStyle() Style {
	red := color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	return Style{Stroke: red, Width: 3, Fill: red}
}

// ControlPoint is a named, draggable handle projected from shape data.
// Position reads the handle location out of the data; Apply writes a dragged
// location back in. Control points hold no state of their own.
type ControlPoint struct {
	Name     string
	Position func(*Data) Point
	Apply    func(*Data, Point)
}

// Behavior is the capability bundle implemented once per shape kind.
type Behavior interface {
	// Kind reports the tag this behavior handles.
	Kind() Kind

	// Create computes shape data from a drag gesture. accumulated carries
	// the intermediate pointer positions for kinds that need them (pen).
	// The second return is false when the gesture is degenerate and no
	// shape should be committed.
	Create(start, current Point, accumulated []Point) (*Data, bool)

	// Render paints the shape into dst using the given style.
	Render(dst *image.RGBA, d *Data, st Style)

	// Move translates the shape geometry in place.
	Move(d *Data, dx, dy float64)

	// ControlPoints returns the handle definitions for this kind. An empty
	// slice is valid.
	ControlPoints() []ControlPoint

	// Hit reports whether p falls on the shape within tol pixels.
	Hit(d *Data, st Style, p Point, tol float64) bool
}

// Registry maps shape kinds to behaviors. Registration happens once at
// startup for the fixed builtin set; Lookup on an unknown kind is not fatal,
// callers treat it as a no-op.
type Registry struct {
	handlers map[Kind]Behavior
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[Kind]Behavior{}}
}

// Register inserts or overwrites the behavior for its kind.
func (r *Registry) Register(b Behavior) {
	r.handlers[b.Kind()] = b
}

// Lookup returns the behavior for kind.
func (r *Registry) Lookup(kind Kind) (Behavior, bool) {
	b, ok := r.handlers[kind]
	return b, ok
}

// Builtin returns a registry populated with the five builtin behaviors.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(rectBehavior{})
	r.Register(ellipseBehavior{})
	r.Register(arrowBehavior{})
	r.Register(penBehavior{})
	r.Register(textBehavior{})
	return r
}

const (
	// minRectExtent rejects rectangle/ellipse drags where either axis
	// stayed below this many pixels.
	minRectExtent = 2.0
	// minArrowExtent rejects arrow drags where both axes stayed below
	// this many pixels.
	minArrowExtent = 5.0
)
