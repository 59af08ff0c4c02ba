// Package session runs the interactive capture windows: one window per
// display, each wiring pointer and key events to the region-selection
// controller and, once a region is confirmed, to the drawing surface.
package session

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/clipdeck/internal/canvas"
	"github.com/example/clipdeck/internal/selection"
	"github.com/example/clipdeck/internal/shape"
)

// Host is the boundary to the surrounding application: persisting exported
// images, publishing clipboard content, and tearing the capture down.
type Host interface {
	// PersistImage stores an encoded PNG and returns its location.
	PersistImage(png []byte) (string, error)
	// SetClipboardItem publishes stored content to the system clipboard.
	// kind is "image" or "text".
	SetClipboardItem(ref string, kind string) error
	// CloseCapture tells the host the capture session ended.
	CloseCapture()
}

// DisplayCapture is one display's bitmap with its placement metadata.
type DisplayCapture struct {
	Name  string
	Image *image.RGBA
	// Pos is the display origin in global screen coordinates.
	Pos image.Point
	// Scale converts logical window pixels to capture pixels.
	Scale float64
}

// selectionElsewhere tells a window that another window took selection
// authority; any in-progress selection there is abandoned.
type selectionElsewhere struct{}

// closeRequested shuts a window's event loop down.
type closeRequested struct{}

// Session coordinates the per-display capture windows. Windows share no
// selection state; coordination happens through notifications.
type Session struct {
	displays []DisplayCapture
	host     Host
	style    shape.Style
	registry *shape.Registry
	log      *slog.Logger

	mu      sync.Mutex
	windows []*captureWindow
	closed  bool
}

// New builds a session over the given display captures.
func New(displays []DisplayCapture, host Host, style shape.Style, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		displays: displays,
		host:     host,
		style:    style,
		registry: shape.Builtin(),
		log:      logger,
	}
}

// Run opens one window per display and blocks until all of them close.
func (s *Session) Run() {
	driver.Main(s.main)
}

func (s *Session) main(scr screen.Screen) {
	defer s.host.CloseCapture()

	var wg sync.WaitGroup
	for i, d := range s.displays {
		win, err := newCaptureWindow(scr, s, i, d)
		if err != nil {
			// A display that cannot open a window is omitted; the
			// session continues with the rest.
			s.log.Error("open capture window", "display", d.Name, "error", err)
			continue
		}
		s.mu.Lock()
		s.windows = append(s.windows, win)
		s.mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			win.loop()
		}()
	}
	wg.Wait()
}

// selectionStarted cancels in-progress selections in every window except the
// origin.
func (s *Session) selectionStarted(origin *captureWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.windows {
		if w != origin {
			w.w.Send(selectionElsewhere{})
		}
	}
}

// closeAll ends the whole session.
func (s *Session) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, w := range s.windows {
		w.w.Send(closeRequested{})
	}
}

type windowState int

const (
	stateSelecting windowState = iota
	stateEditing
)

// captureWindow is the shell for one display.
type captureWindow struct {
	sess *Session
	disp DisplayCapture
	w    screen.Window
	scr  screen.Screen

	width, height int

	state   windowState
	sel     *selection.Controller
	surface *canvas.Surface
	toolbar *toolbar

	cursor    selection.Point
	hasCursor bool

	lastClickAt  time.Time
	lastClickPos image.Point

	mouseDown bool

	message      string
	messageUntil time.Time

	paints *painter
}

func newCaptureWindow(scr screen.Screen, sess *Session, idx int, d DisplayCapture) (*captureWindow, error) {
	bounds := d.Image.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if d.Scale > 1 {
		width = int(float64(width) / d.Scale)
		height = int(float64(height) / d.Scale)
	}
	w, err := scr.NewWindow(&screen.NewWindowOptions{
		Width:  width,
		Height: height,
		Title:  fmt.Sprintf("ClipDeck Capture %d", idx+1),
	})
	if err != nil {
		return nil, fmt.Errorf("new window: %w", err)
	}
	cw := &captureWindow{
		sess:    sess,
		disp:    d,
		w:       w,
		scr:     scr,
		width:   width,
		height:  height,
		sel:     selection.New(bounds),
		toolbar: newToolbar(),
	}
	cw.paints = newPainter(scr, w)
	return cw, nil
}

func (cw *captureWindow) loop() {
	defer cw.w.Release()
	defer cw.paints.stop()
	for {
		switch e := cw.w.NextEvent().(type) {
		case closeRequested:
			return
		case selectionElsewhere:
			if cw.state == stateSelecting && (cw.sel.Dragging() || cw.sel.Active()) {
				cw.sel.Clear()
				cw.repaint()
			}
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			cw.width = e.WidthPx
			cw.height = e.HeightPx
			cw.repaint()
		case paint.Event:
			cw.paints.submit(cw.buildPaintState())
		case mouse.Event:
			cw.onMouse(e)
		case key.Event:
			if cw.onKey(e) {
				return
			}
		}
	}
}

func (cw *captureWindow) repaint() { cw.w.Send(paint.Event{}) }

// toImage maps window coordinates to capture-bitmap coordinates.
func (cw *captureWindow) toImage(x, y float32) selection.Point {
	sx := float64(cw.disp.Image.Bounds().Dx()) / float64(cw.width)
	sy := float64(cw.disp.Image.Bounds().Dy()) / float64(cw.height)
	return selection.Point{X: float64(x) * sx, Y: float64(y) * sy}
}

// toSurface maps window coordinates into the editing surface's local space.
func (cw *captureWindow) toSurface(x, y float32) shape.Point {
	p := cw.toImage(x, y)
	box := cw.sel.Box()
	return shape.Point{X: p.X - box.X, Y: p.Y - box.Y}
}

func (cw *captureWindow) onMouse(e mouse.Event) {
	// A visible notice absorbs the press that dismisses it.
	if cw.message != "" && time.Now().Before(cw.messageUntil) && e.Direction == mouse.DirPress {
		cw.messageUntil = time.Time{}
		cw.repaint()
		return
	}

	if cw.state == stateEditing {
		cw.onMouseEditing(e)
		return
	}
	cw.onMouseSelecting(e)
}

func (cw *captureWindow) onMouseSelecting(e mouse.Event) {
	p := cw.toImage(e.X, e.Y)
	cw.cursor = p
	cw.hasCursor = true

	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		winPt := image.Pt(int(e.X), int(e.Y))
		if !cw.sel.Active() && time.Since(cw.lastClickAt) < 400*time.Millisecond &&
			dist(winPt, cw.lastClickPos) < 6 {
			cw.sel.SelectAll()
			cw.lastClickAt = time.Time{}
			cw.repaint()
			return
		}
		cw.lastClickAt = time.Now()
		cw.lastClickPos = winPt

		if h, ok := cw.sel.HandleAt(p); ok {
			cw.sel.BeginResize(h, p)
		} else if cw.sel.Inside(p) {
			cw.sel.BeginMove(p)
		} else {
			cw.sel.StartSelection(p)
			cw.sess.selectionStarted(cw)
		}
	case e.Direction == mouse.DirNone || (e.Button == mouse.ButtonLeft && e.Direction == mouse.DirNone):
		if cw.sel.Dragging() {
			cw.sel.Drag(p)
		} else if !cw.sel.Active() {
			cw.sel.Sample(cw.disp.Image, p)
		}
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if cw.sel.Dragging() {
			cw.sel.CommitOrDiscard()
			cw.sel.End()
		}
	}
	cw.repaint()
}

func (cw *captureWindow) onMouseEditing(e mouse.Event) {
	winPt := image.Pt(int(e.X), int(e.Y))
	if winPt.Y < toolbarHeight {
		if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
			if btn := cw.toolbar.hit(winPt); btn != nil {
				cw.activateButton(btn)
			}
		}
		cw.repaint()
		return
	}

	p := cw.toSurface(e.X, e.Y)
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		cw.mouseDown = true
		cw.surface.PointerDown(p)
	case e.Direction == mouse.DirNone:
		if cw.mouseDown {
			cw.surface.PointerMove(p)
		}
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if cw.mouseDown {
			cw.mouseDown = false
			cw.surface.PointerUp(p)
		}
	}
	cw.repaint()
}

func (cw *captureWindow) activateButton(b *toolbarButton) {
	switch b.kind {
	case buttonTool:
		cw.surface.SetTool(b.tool)
	case buttonColor:
		cw.surface.SetStrokeColor(b.color)
	case buttonWidth:
		cw.surface.SetStrokeWidth(b.width)
	case buttonAction:
		switch b.action {
		case "undo":
			cw.surface.Undo()
		case "redo":
			cw.surface.Redo()
		case "save":
			cw.saveSurface()
		case "copy":
			cw.copySurface()
		}
	}
}

func (cw *captureWindow) onKey(e key.Event) (done bool) {
	if e.Direction != key.DirPress {
		return false
	}

	switch e.Code {
	case key.CodeEscape:
		return cw.onEscape()
	case key.CodeReturnEnter:
		cw.onEnter()
		return false
	case key.CodeDeleteBackspace:
		if cw.state == stateEditing {
			cw.surface.BackspaceText()
			cw.repaint()
		}
		return false
	}

	if cw.state == stateEditing {
		if e.Modifiers&key.ModControl != 0 {
			switch e.Rune {
			case 'z':
				cw.surface.Undo()
			case 'y':
				cw.surface.Redo()
			case 's':
				cw.saveSurface()
			case 'c':
				cw.copySurface()
			}
			cw.repaint()
			return false
		}
		if cw.surface.EditingText() && e.Rune > 0 {
			cw.surface.AppendText(string(e.Rune))
			cw.repaint()
			return false
		}
		switch e.Rune {
		case 'r':
			cw.surface.SetTool(shape.KindRect)
		case 'o':
			cw.surface.SetTool(shape.KindEllipse)
		case 'a':
			cw.surface.SetTool(shape.KindArrow)
		case 'p':
			cw.surface.SetTool(shape.KindPen)
		case 't':
			cw.surface.SetTool(shape.KindText)
		}
		cw.repaint()
	}
	return false
}

// onEscape steps back one level: transient gesture, then selection, then the
// session itself.
func (cw *captureWindow) onEscape() bool {
	if cw.state == stateEditing {
		if cw.surface.Escape() {
			cw.repaint()
			return false
		}
		// Nothing left to cancel on the surface: drop back to region
		// selection, keeping the box.
		cw.surface = nil
		cw.state = stateSelecting
		cw.repaint()
		return false
	}
	if cw.sel.Dragging() || cw.sel.Active() {
		cw.sel.Clear()
		cw.repaint()
		return false
	}
	cw.sess.closeAll()
	return false
}

// onEnter confirms the selection and opens the editing surface on its crop.
func (cw *captureWindow) onEnter() {
	if cw.state != stateSelecting || !cw.sel.Active() {
		return
	}
	crop := cropRGBA(cw.disp.Image, cw.sel.Box().Rect())
	if crop == nil {
		return
	}
	cw.surface = canvas.New(crop, cw.sess.registry, cw.sess.style)
	cw.surface.SetTool(shape.KindRect)
	cw.state = stateEditing
	cw.repaint()
}

func (cw *captureWindow) saveSurface() {
	data, err := cw.surface.Export()
	if err != nil {
		cw.notice(fmt.Sprintf("export failed: %v", err))
		return
	}
	path, err := cw.sess.host.PersistImage(data)
	if err != nil {
		// Host failures stay dismissable; the session remains open for
		// a retry.
		cw.notice(fmt.Sprintf("save failed: %v", err))
		return
	}
	cw.notice(fmt.Sprintf("saved %s", path))
}

func (cw *captureWindow) copySurface() {
	data, err := cw.surface.Export()
	if err != nil {
		cw.notice(fmt.Sprintf("export failed: %v", err))
		return
	}
	path, err := cw.sess.host.PersistImage(data)
	if err != nil {
		cw.notice(fmt.Sprintf("save failed: %v", err))
		return
	}
	if err := cw.sess.host.SetClipboardItem(path, "image"); err != nil {
		cw.notice(fmt.Sprintf("copy failed: %v", err))
		return
	}
	cw.notice("copied to clipboard")
}

func (cw *captureWindow) notice(msg string) {
	cw.message = msg
	cw.messageUntil = time.Now().Add(3 * time.Second)
	cw.repaint()
}

func cropRGBA(src *image.RGBA, r image.Rectangle) *image.RGBA {
	r = r.Intersect(src.Bounds())
	if r.Empty() {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	copyRect(dst, src, r)
	return dst
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
