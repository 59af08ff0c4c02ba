package shape

import (
	"image"
	"math"
)

type arrowBehavior struct{}

func (arrowBehavior) Kind() Kind { return KindArrow }

func (arrowBehavior) Create(start, current Point, _ []Point) (*Data, bool) {
	if math.Abs(current.X-start.X) < minArrowExtent && math.Abs(current.Y-start.Y) < minArrowExtent {
		return nil, false
	}
	return &Data{Kind: KindArrow, P0: start, P1: current}, true
}

// arrowPolygon builds the arrow silhouette as one closed 7-vertex polygon:
// the shaft and the triangular head share an outline so fill and hit-testing
// see a single solid shape. Vertex order runs tail corner, neck corner, head
// corner, tip, head corner, neck corner, tail corner; deviating from it
// produces a self-intersecting fill.
func arrowPolygon(d *Data, strokeWidth float64) []Point {
	dx := d.P1.X - d.P0.X
	dy := d.P1.Y - d.P0.Y
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return nil
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	shaftHalf := strokeWidth / 2
	if shaftHalf < 1 {
		shaftHalf = 1
	}
	// Head is five shafts wide; its length tracks the width but never
	// exceeds 40% of the segment so short arrows keep a visible shaft.
	headHalf := shaftHalf * 5
	headLen := headHalf * 2
	if max := length * 0.4; headLen > max {
		headLen = max
	}

	neckX := d.P1.X - ux*headLen
	neckY := d.P1.Y - uy*headLen

	return []Point{
		{X: d.P0.X + nx*shaftHalf, Y: d.P0.Y + ny*shaftHalf},
		{X: neckX + nx*shaftHalf, Y: neckY + ny*shaftHalf},
		{X: neckX + nx*headHalf, Y: neckY + ny*headHalf},
		d.P1,
		{X: neckX - nx*headHalf, Y: neckY - ny*headHalf},
		{X: neckX - nx*shaftHalf, Y: neckY - ny*shaftHalf},
		{X: d.P0.X - nx*shaftHalf, Y: d.P0.Y - ny*shaftHalf},
	}
}

func (arrowBehavior) Render(dst *image.RGBA, d *Data, st Style) {
	poly := arrowPolygon(d, st.Width)
	if poly == nil {
		return
	}
	fill := st.Fill
	if fill.A == 0 {
		fill = st.Stroke
	}
	fillPolygon(dst, poly, fill)
	// A thin outline pass smooths the staircase the scanline fill leaves.
	strokePolyline(dst, append(poly, poly[0]), fill, 1)
}

func (arrowBehavior) Move(d *Data, dx, dy float64) {
	d.P0 = d.P0.Add(dx, dy)
	d.P1 = d.P1.Add(dx, dy)
}

func (arrowBehavior) ControlPoints() []ControlPoint {
	return []ControlPoint{
		{
			Name:     "start",
			Position: func(d *Data) Point { return d.P0 },
			Apply:    func(d *Data, p Point) { d.P0 = p },
		},
		{
			Name:     "end",
			Position: func(d *Data) Point { return d.P1 },
			Apply:    func(d *Data, p Point) { d.P1 = p },
		},
	}
}

func (arrowBehavior) Hit(d *Data, st Style, p Point, tol float64) bool {
	poly := arrowPolygon(d, st.Width)
	if poly == nil {
		return false
	}
	if pointInPolygon(poly, p) {
		return true
	}
	for i := range poly {
		if distToSegment(p, poly[i], poly[(i+1)%len(poly)]) <= tol {
			return true
		}
	}
	return false
}
