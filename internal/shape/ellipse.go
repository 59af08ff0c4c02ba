package shape

import (
	"image"
	"math"
)

type ellipseBehavior struct{}

func (ellipseBehavior) Kind() Kind { return KindEllipse }

func (ellipseBehavior) Create(start, current Point, _ []Point) (*Data, bool) {
	if math.Abs(current.X-start.X) < minRectExtent || math.Abs(current.Y-start.Y) < minRectExtent {
		return nil, false
	}
	return &Data{Kind: KindEllipse, P0: start, P1: current}, true
}

// bezierCircleK is the control-point ratio that makes four cubic Beziers
// approximate a circle.
const bezierCircleK = 0.55228

// ellipseOutline returns the ellipse inscribed in the shape's bounding box,
// flattened to a closed polyline. Four cubic segments, one per quadrant.
func ellipseOutline(d *Data) []Point {
	minX, minY, maxX, maxY := dataRect(d)
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	rx := (maxX - minX) / 2
	ry := (maxY - minY) / 2
	ox := rx * bezierCircleK
	oy := ry * bezierCircleK

	right := Point{X: cx + rx, Y: cy}
	bottom := Point{X: cx, Y: cy + ry}
	left := Point{X: cx - rx, Y: cy}
	top := Point{X: cx, Y: cy - ry}

	steps := int(math.Max(8, (rx+ry)/4))
	pts := []Point{right}
	pts = flattenCubic(pts, right, Point{X: cx + rx, Y: cy + oy}, Point{X: cx + ox, Y: cy + ry}, bottom, steps)
	pts = flattenCubic(pts, bottom, Point{X: cx - ox, Y: cy + ry}, Point{X: cx - rx, Y: cy + oy}, left, steps)
	pts = flattenCubic(pts, left, Point{X: cx - rx, Y: cy - oy}, Point{X: cx - ox, Y: cy - ry}, top, steps)
	pts = flattenCubic(pts, top, Point{X: cx + ox, Y: cy - ry}, Point{X: cx + rx, Y: cy - oy}, right, steps)
	return pts
}

func (ellipseBehavior) Render(dst *image.RGBA, d *Data, st Style) {
	strokePolyline(dst, ellipseOutline(d), st.Stroke, st.Width)
}

func (ellipseBehavior) Move(d *Data, dx, dy float64) {
	d.P0 = d.P0.Add(dx, dy)
	d.P1 = d.P1.Add(dx, dy)
}

func (ellipseBehavior) ControlPoints() []ControlPoint {
	return cornerControlPoints()
}

func (ellipseBehavior) Hit(d *Data, st Style, p Point, tol float64) bool {
	reach := math.Max(tol, st.Width/2+1)
	outline := ellipseOutline(d)
	for i := 1; i < len(outline); i++ {
		if distToSegment(p, outline[i-1], outline[i]) <= reach {
			return true
		}
	}
	return false
}
