package shape

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// Rasterization primitives shared by the shape behaviors. Lines are stroked
// with a distance-field pass so edges come out anti-aliased regardless of
// width; polygons are filled with an even-odd scanline sweep.

func strokeSegment(dst *image.RGBA, a, b Point, c color.RGBA, width float64) {
	halfW := width / 2
	if halfW < 0.75 {
		halfW = 0.75
	}
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length < 0.5 {
		fillCircle(dst, a, halfW, c)
		return
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	margin := int(halfW) + 2
	x0 := int(math.Floor(math.Min(a.X, b.X))) - margin
	x1 := int(math.Ceil(math.Max(a.X, b.X))) + margin
	y0 := int(math.Floor(math.Min(a.Y, b.Y))) - margin
	y1 := int(math.Ceil(math.Max(a.Y, b.Y))) + margin

	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			vx := float64(px) - a.X
			vy := float64(py) - a.Y
			along := vx*ux + vy*uy

			var dist float64
			switch {
			case along <= 0:
				dist = math.Hypot(vx, vy)
			case along >= length:
				dist = math.Hypot(float64(px)-b.X, float64(py)-b.Y)
			default:
				dist = math.Abs(vx*nx + vy*ny)
			}
			blendCoverage(dst, px, py, c, dist, halfW)
		}
	}
}

func strokePolyline(dst *image.RGBA, pts []Point, c color.RGBA, width float64) {
	if len(pts) == 1 {
		fillCircle(dst, pts[0], math.Max(width/2, 0.75), c)
		return
	}
	for i := 1; i < len(pts); i++ {
		strokeSegment(dst, pts[i-1], pts[i], c, width)
	}
}

func fillCircle(dst *image.RGBA, center Point, radius float64, c color.RGBA) {
	margin := int(radius) + 2
	x0 := int(math.Floor(center.X)) - margin
	x1 := int(math.Ceil(center.X)) + margin
	y0 := int(math.Floor(center.Y)) - margin
	y1 := int(math.Ceil(center.Y)) + margin
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dist := math.Hypot(float64(px)-center.X, float64(py)-center.Y)
			blendCoverage(dst, px, py, c, dist, radius)
		}
	}
}

// blendCoverage converts a distance-to-edge into an alpha coverage and blends
// the pixel. Distances within halfW are fully covered; the falloff band is
// one pixel wide.
func blendCoverage(dst *image.RGBA, x, y int, c color.RGBA, dist, halfW float64) {
	if dist > halfW+1 {
		return
	}
	coverage := 1.0
	if dist > halfW {
		coverage = halfW + 1 - dist
	}
	if coverage <= 0 {
		return
	}
	out := c
	out.A = uint8(math.Round(float64(c.A) * coverage))
	blendPixel(dst, x, y, out)
}

// blendPixel source-over composites a single pixel, bounds-checked.
func blendPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	off := (y-bounds.Min.Y)*dst.Stride + (x-bounds.Min.X)*4
	if c.A == 255 {
		dst.Pix[off+0] = c.R
		dst.Pix[off+1] = c.G
		dst.Pix[off+2] = c.B
		dst.Pix[off+3] = 255
		return
	}
	if c.A == 0 {
		return
	}
	srcA := uint32(c.A)
	invA := 255 - srcA
	dst.Pix[off+0] = uint8((uint32(c.R)*srcA + uint32(dst.Pix[off+0])*invA) / 255)
	dst.Pix[off+1] = uint8((uint32(c.G)*srcA + uint32(dst.Pix[off+1])*invA) / 255)
	dst.Pix[off+2] = uint8((uint32(c.B)*srcA + uint32(dst.Pix[off+2])*invA) / 255)
	dst.Pix[off+3] = uint8(srcA + uint32(dst.Pix[off+3])*invA/255)
}

// fillPolygon fills a closed polygon with an even-odd scanline sweep. The
// vertex slice is treated as closed (last connects back to first).
func fillPolygon(dst *image.RGBA, pts []Point, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	minY := math.Inf(1)
	maxY := math.Inf(-1)
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	y0 := int(math.Floor(minY))
	y1 := int(math.Ceil(maxY))

	var xs []float64
	for py := y0; py <= y1; py++ {
		sy := float64(py) + 0.5
		xs = xs[:0]
		for i := range pts {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			if (a.Y <= sy) == (b.Y <= sy) {
				continue
			}
			t := (sy - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Round(xs[i]))
			x1 := int(math.Round(xs[i+1]))
			for px := x0; px < x1; px++ {
				blendPixel(dst, px, py, c)
			}
		}
	}
}

// pointInPolygon reports whether p lies inside the closed polygon, even-odd
// rule.
func pointInPolygon(pts []Point, p Point) bool {
	inside := false
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		if (a.Y <= p.Y) == (b.Y <= p.Y) {
			continue
		}
		t := (p.Y - a.Y) / (b.Y - a.Y)
		if p.X < a.X+t*(b.X-a.X) {
			inside = !inside
		}
	}
	return inside
}

// distToSegment returns the distance from p to the segment ab.
func distToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// flattenCubic appends a polyline approximation of the cubic Bezier
// p0..p3 to out, excluding p0 itself.
func flattenCubic(out []Point, p0, p1, p2, p3 Point, steps int) []Point {
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		a := mt * mt * mt
		b := 3 * mt * mt * t
		c := 3 * mt * t * t
		d := t * t * t
		out = append(out, Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return out
}

// bounds helpers shared by rect-like behaviors.

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

func dataRect(d *Data) (minX, minY, maxX, maxY float64) {
	minX, maxX = minMax(d.P0.X, d.P1.X)
	minY, maxY = minMax(d.P0.Y, d.P1.Y)
	return
}
