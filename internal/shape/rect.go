package shape

import (
	"image"
	"math"
)

type rectBehavior struct{}

func (rectBehavior) Kind() Kind { return KindRect }

func (rectBehavior) Create(start, current Point, _ []Point) (*Data, bool) {
	if math.Abs(current.X-start.X) < minRectExtent || math.Abs(current.Y-start.Y) < minRectExtent {
		return nil, false
	}
	return &Data{Kind: KindRect, P0: start, P1: current}, true
}

func (rectBehavior) Render(dst *image.RGBA, d *Data, st Style) {
	minX, minY, maxX, maxY := dataRect(d)
	corners := []Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}
	strokePolyline(dst, corners, st.Stroke, st.Width)
}

func (rectBehavior) Move(d *Data, dx, dy float64) {
	d.P0 = d.P0.Add(dx, dy)
	d.P1 = d.P1.Add(dx, dy)
}

func (rectBehavior) ControlPoints() []ControlPoint {
	return cornerControlPoints()
}

func (rectBehavior) Hit(d *Data, st Style, p Point, tol float64) bool {
	minX, minY, maxX, maxY := dataRect(d)
	reach := math.Max(tol, st.Width/2+1)
	corners := [4]Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
	for i := range corners {
		if distToSegment(p, corners[i], corners[(i+1)%4]) <= reach {
			return true
		}
	}
	return false
}

// cornerControlPoints is shared by rect and ellipse: four named corner
// handles. Apply renormalizes so a handle dragged across the opposite corner
// never persists a negative extent.
func cornerControlPoints() []ControlPoint {
	corner := func(name string, px func(minX, minY, maxX, maxY float64) (float64, float64)) ControlPoint {
		return ControlPoint{
			Name: name,
			Position: func(d *Data) Point {
				minX, minY, maxX, maxY := dataRect(d)
				x, y := px(minX, minY, maxX, maxY)
				return Point{X: x, Y: y}
			},
			Apply: func(d *Data, p Point) {
				minX, minY, maxX, maxY := dataRect(d)
				switch name {
				case "tl":
					minX, minY = p.X, p.Y
				case "tr":
					maxX, minY = p.X, p.Y
				case "bl":
					minX, maxY = p.X, p.Y
				case "br":
					maxX, maxY = p.X, p.Y
				}
				minX, maxX = minMax(minX, maxX)
				minY, maxY = minMax(minY, maxY)
				d.P0 = Point{X: minX, Y: minY}
				d.P1 = Point{X: maxX, Y: maxY}
			},
		}
	}
	return []ControlPoint{
		corner("tl", func(minX, minY, _, _ float64) (float64, float64) { return minX, minY }),
		corner("tr", func(_, minY, maxX, _ float64) (float64, float64) { return maxX, minY }),
		corner("bl", func(minX, _, _, maxY float64) (float64, float64) { return minX, maxY }),
		corner("br", func(_, _, maxX, maxY float64) (float64, float64) { return maxX, maxY }),
	}
}
