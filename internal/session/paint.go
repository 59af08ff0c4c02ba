package session

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/clipdeck/internal/selection"
	"github.com/example/clipdeck/internal/shape"
)

// frameDropThreshold limits how many queued frames may be cancelled in a row
// before one is allowed to finish, so a burst of pointer events cannot starve
// the screen forever.
const frameDropThreshold = 10

const (
	dimAlpha       = 110
	handleBoxSize  = 8
	magnifierSize  = 120
	shapeHandleBox = 7
)

// paintState is an immutable snapshot of everything one frame needs. The
// event loop builds it and hands it to the render goroutine; nothing in it is
// shared mutable state.
type paintState struct {
	width, height int
	capture       *image.RGBA

	selActive   bool
	selDragging bool
	box         selection.Box
	handles     map[selection.Handle]selection.Point

	cursor    selection.Point
	hasCursor bool
	magnifier *image.RGBA
	probe     color.RGBA
	hasProbe  bool

	editing      bool
	composite    *image.RGBA
	boxOrigin    image.Point
	shapeHandles []shape.Point
	selectedRect image.Rectangle
	hasSelected  bool

	toolbar toolbarState

	message      string
	messageUntil time.Time
}

func (cw *captureWindow) buildPaintState() paintState {
	st := paintState{
		width:        cw.width,
		height:       cw.height,
		capture:      cw.disp.Image,
		selActive:    cw.sel.Active(),
		selDragging:  cw.sel.Dragging(),
		box:          cw.sel.Box(),
		cursor:       cw.cursor,
		hasCursor:    cw.hasCursor,
		message:      cw.message,
		messageUntil: cw.messageUntil,
	}
	if st.selActive && !st.selDragging {
		st.handles = cw.sel.HandlePositions()
	}
	if cw.state == stateSelecting && !st.selActive && st.hasCursor {
		st.magnifier = cw.sel.Magnify(cw.disp.Image, cw.cursor, magnifierSize, magnifierSize)
		st.probe, st.hasProbe = cw.sel.LastColor()
	}
	if cw.state == stateEditing && cw.surface != nil {
		st.editing = true
		st.composite = cw.surface.Composite(true)
		st.boxOrigin = cw.sel.Box().Rect().Min
		st.toolbar = cw.toolbar.state(cw.surface)
		if sel := cw.surface.Selected(); sel != nil {
			st.hasSelected = true
			st.selectedRect = selectedOutline(sel.Data)
			st.shapeHandles = cw.surface.HandlePositions()
		}
	}
	return st
}

// selectedOutline computes the dashed selection box drawn around the active
// shape, in surface coordinates.
func selectedOutline(d *shape.Data) image.Rectangle {
	var minX, minY, maxX, maxY float64
	switch d.Kind {
	case shape.KindPen:
		if len(d.Points) == 0 {
			return image.Rectangle{}
		}
		minX, minY = d.Points[0].X, d.Points[0].Y
		maxX, maxY = minX, minY
		for _, p := range d.Points {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	case shape.KindText:
		w, h := shape.MeasureTextBounds(d)
		minX, minY = d.P0.X, d.P0.Y
		maxX, maxY = d.P0.X+w, d.P0.Y+h
	default:
		minX = math.Min(d.P0.X, d.P1.X)
		minY = math.Min(d.P0.Y, d.P1.Y)
		maxX = math.Max(d.P0.X, d.P1.X)
		maxY = math.Max(d.P0.Y, d.P1.Y)
	}
	const pad = 4
	return image.Rect(int(minX)-pad, int(minY)-pad, int(maxX)+pad, int(maxY)+pad)
}

// painter owns the render goroutine. Frames are cancellable mid-draw when a
// newer snapshot supersedes them.
type painter struct {
	scr screen.Screen
	w   screen.Window

	mu        sync.Mutex
	cancel    context.CancelFunc
	dropCount int

	ch chan paintState
}

func newPainter(scr screen.Screen, w screen.Window) *painter {
	p := &painter{scr: scr, w: w, ch: make(chan paintState, 1)}
	go p.run()
	return p
}

func (p *painter) stop() { close(p.ch) }

func (p *painter) submit(st paintState) {
	p.mu.Lock()
	if p.cancel != nil && p.dropCount < frameDropThreshold {
		p.cancel()
		p.dropCount++
	}
	p.mu.Unlock()
	select {
	case p.ch <- st:
	default:
		select {
		case <-p.ch:
		default:
		}
		p.ch <- st
	}
}

func (p *painter) run() {
	for st := range p.ch {
		ctx, cancel := context.WithCancel(context.Background())
		p.mu.Lock()
		p.cancel = cancel
		p.mu.Unlock()
		drawFrame(ctx, p.scr, p.w, st)
		p.mu.Lock()
		p.cancel = nil
		if ctx.Err() == nil {
			p.dropCount = 0
		}
		p.mu.Unlock()
		cancel()
	}
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{X: st.width, Y: st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()

	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), st.capture, st.capture.Bounds(), xdraw.Src, nil)
	if ctx.Err() != nil {
		return
	}

	// scale from capture space to window space
	sx := float64(st.width) / float64(st.capture.Bounds().Dx())
	sy := float64(st.height) / float64(st.capture.Bounds().Dy())
	toWin := func(x, y float64) image.Point {
		return image.Pt(int(math.Round(x*sx)), int(math.Round(y*sy)))
	}

	if st.editing {
		drawEditing(ctx, dst, st, toWin)
	} else {
		drawSelecting(ctx, dst, st, toWin)
	}
	if ctx.Err() != nil {
		return
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawNotice(dst, st.width, st.height, st.message)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, dst.Bounds())
	w.Publish()
}

func drawSelecting(ctx context.Context, dst *image.RGBA, st paintState, toWin func(x, y float64) image.Point) {
	boxRect := image.Rectangle{
		Min: toWin(st.box.X, st.box.Y),
		Max: toWin(st.box.X+st.box.W, st.box.Y+st.box.H),
	}

	// Dim everything outside the selection.
	dim := color.RGBA{A: dimAlpha}
	full := dst.Bounds()
	if st.selActive || st.selDragging {
		for _, r := range []image.Rectangle{
			image.Rect(full.Min.X, full.Min.Y, full.Max.X, boxRect.Min.Y),
			image.Rect(full.Min.X, boxRect.Max.Y, full.Max.X, full.Max.Y),
			image.Rect(full.Min.X, boxRect.Min.Y, boxRect.Min.X, boxRect.Max.Y),
			image.Rect(boxRect.Max.X, boxRect.Min.Y, full.Max.X, boxRect.Max.Y),
		} {
			draw.Draw(dst, r.Intersect(full), &image.Uniform{dim}, image.Point{}, draw.Over)
		}
		drawDashedRect(dst, boxRect, 4, 2, color.White, color.Black)
	} else {
		draw.Draw(dst, full, &image.Uniform{dim}, image.Point{}, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}

	for _, pos := range st.handles {
		hp := toWin(pos.X, pos.Y)
		hr := image.Rect(hp.X-handleBoxSize/2, hp.Y-handleBoxSize/2, hp.X+handleBoxSize/2, hp.Y+handleBoxSize/2)
		draw.Draw(dst, hr.Intersect(dst.Bounds()), &image.Uniform{color.White}, image.Point{}, draw.Src)
		drawRectOutline(dst, hr, color.Black, 1)
	}
	if ctx.Err() != nil {
		return
	}

	if st.magnifier != nil && st.hasCursor {
		drawMagnifier(dst, st, toWin)
	}
}

func drawMagnifier(dst *image.RGBA, st paintState, toWin func(x, y float64) image.Point) {
	cur := toWin(st.cursor.X, st.cursor.Y)
	mx := cur.X + 20
	my := cur.Y + 20
	if mx+magnifierSize > dst.Bounds().Max.X {
		mx = cur.X - 20 - magnifierSize
	}
	if my+magnifierSize > dst.Bounds().Max.Y {
		my = cur.Y - 20 - magnifierSize
	}
	panel := image.Rect(mx, my, mx+magnifierSize, my+magnifierSize)
	draw.Draw(dst, panel.Intersect(dst.Bounds()), st.magnifier, image.Point{}, draw.Src)
	drawRectOutline(dst, panel, color.White, 2)

	// Crosshair through the panel center.
	cx := mx + magnifierSize/2
	cy := my + magnifierSize/2
	cross := color.RGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff}
	for x := panel.Min.X; x < panel.Max.X; x++ {
		setIfInside(dst, x, cy, cross)
	}
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		setIfInside(dst, cx, y, cross)
	}

	if st.hasProbe {
		swatch := image.Rect(panel.Min.X, panel.Max.Y, panel.Min.X+magnifierSize, panel.Max.Y+18)
		draw.Draw(dst, swatch.Intersect(dst.Bounds()), &image.Uniform{st.probe}, image.Point{}, draw.Src)
		drawRectOutline(dst, swatch, color.White, 1)
	}
}

func drawEditing(ctx context.Context, dst *image.RGBA, st paintState, toWin func(x, y float64) image.Point) {
	if st.composite != nil {
		origin := toWin(float64(st.boxOrigin.X), float64(st.boxOrigin.Y))
		far := toWin(
			float64(st.boxOrigin.X+st.composite.Bounds().Dx()),
			float64(st.boxOrigin.Y+st.composite.Bounds().Dy()),
		)
		target := image.Rectangle{Min: origin, Max: far}
		xdraw.NearestNeighbor.Scale(dst, target, st.composite, st.composite.Bounds(), xdraw.Src, nil)
		drawRectOutline(dst, target, color.White, 1)

		if ctx.Err() != nil {
			return
		}

		if st.hasSelected {
			outline := st.selectedRect.Add(st.boxOrigin)
			winOutline := image.Rectangle{
				Min: toWin(float64(outline.Min.X), float64(outline.Min.Y)),
				Max: toWin(float64(outline.Max.X), float64(outline.Max.Y)),
			}
			drawDashedRect(dst, winOutline, 4, 1, color.White, color.Black)
			for _, hp := range st.shapeHandles {
				p := toWin(hp.X+float64(st.boxOrigin.X), hp.Y+float64(st.boxOrigin.Y))
				hr := image.Rect(p.X-shapeHandleBox/2, p.Y-shapeHandleBox/2, p.X+shapeHandleBox/2, p.Y+shapeHandleBox/2)
				draw.Draw(dst, hr.Intersect(dst.Bounds()), &image.Uniform{color.White}, image.Point{}, draw.Src)
				drawRectOutline(dst, hr, color.Black, 1)
			}
		}
	}
	if ctx.Err() != nil {
		return
	}
	st.toolbar.draw(dst)
}

func drawNotice(dst *image.RGBA, width, height int, msg string) {
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13}
	wmsg := d.MeasureString(msg).Ceil()
	px := (width - wmsg) / 2
	py := height / 2
	rect := image.Rect(px-10, py-18, px+wmsg+10, py+10)
	draw.Draw(dst, rect.Intersect(dst.Bounds()), &image.Uniform{color.RGBA{R: 255, G: 255, B: 255, A: 235}}, image.Point{}, draw.Over)
	drawRectOutline(dst, rect, color.Black, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// drawDashedRect alternates two colors along each edge so the outline stays
// visible on any background.
func drawDashedRect(dst *image.RGBA, r image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	pick := func(i int) color.Color {
		if (i/dash)%2 == 0 {
			return c1
		}
		return c2
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := x - r.Min.X
			setColorIfInside(dst, x, r.Min.Y+t, pick(i))
			setColorIfInside(dst, x, r.Max.Y-1-t, pick(i))
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := y - r.Min.Y
			setColorIfInside(dst, r.Min.X+t, y, pick(i))
			setColorIfInside(dst, r.Max.X-1-t, y, pick(i))
		}
	}
}

func drawRectOutline(dst *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setColorIfInside(dst, x, r.Min.Y+t, c)
			setColorIfInside(dst, x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setColorIfInside(dst, r.Min.X+t, y, c)
			setColorIfInside(dst, r.Max.X-1-t, y, c)
		}
	}
}

func setIfInside(dst *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.SetRGBA(x, y, c)
	}
}

func setColorIfInside(dst *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.Set(x, y, c)
	}
}

func copyRect(dst, src *image.RGBA, r image.Rectangle) {
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
}
