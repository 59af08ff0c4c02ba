package shape

import "image"

type penBehavior struct{}

func (penBehavior) Kind() Kind { return KindPen }

func (penBehavior) Create(_, _ Point, accumulated []Point) (*Data, bool) {
	if len(accumulated) < 2 {
		return nil, false
	}
	return &Data{Kind: KindPen, Points: append([]Point(nil), accumulated...)}, true
}

func (penBehavior) Render(dst *image.RGBA, d *Data, st Style) {
	if len(d.Points) == 0 {
		return
	}
	strokePolyline(dst, d.Points, st.Stroke, st.Width)
}

func (penBehavior) Move(d *Data, dx, dy float64) {
	for i := range d.Points {
		d.Points[i] = d.Points[i].Add(dx, dy)
	}
}

// ControlPoints exposes start and end of the stroke as translate handles:
// dragging either moves the whole stroke rather than reshaping it.
func (penBehavior) ControlPoints() []ControlPoint {
	translate := func(name string, pick func(*Data) Point) ControlPoint {
		return ControlPoint{
			Name:     name,
			Position: pick,
			Apply: func(d *Data, p Point) {
				if len(d.Points) == 0 {
					return
				}
				anchor := pick(d)
				dx, dy := p.X-anchor.X, p.Y-anchor.Y
				for i := range d.Points {
					d.Points[i] = d.Points[i].Add(dx, dy)
				}
			},
		}
	}
	return []ControlPoint{
		translate("start", func(d *Data) Point {
			if len(d.Points) == 0 {
				return Point{}
			}
			return d.Points[0]
		}),
		translate("end", func(d *Data) Point {
			if len(d.Points) == 0 {
				return Point{}
			}
			return d.Points[len(d.Points)-1]
		}),
	}
}

func (penBehavior) Hit(d *Data, st Style, p Point, tol float64) bool {
	if len(d.Points) == 0 {
		return false
	}
	if len(d.Points) == 1 {
		return distToSegment(p, d.Points[0], d.Points[0]) <= tol
	}
	for i := 1; i < len(d.Points); i++ {
		if distToSegment(p, d.Points[i-1], d.Points[i]) <= tol {
			return true
		}
	}
	return false
}
