package session

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/clipdeck/internal/canvas"
	"github.com/example/clipdeck/internal/shape"
)

const toolbarHeight = 36

type buttonKind int

const (
	buttonTool buttonKind = iota
	buttonColor
	buttonWidth
	buttonAction
)

type toolbarButton struct {
	kind   buttonKind
	label  string
	tool   shape.Kind
	color  color.RGBA
	width  float64
	action string

	rect image.Rectangle
}

// toolbar lays its buttons out left to right: tools, palette, widths, then
// undo/redo/save/copy.
type toolbar struct {
	buttons []toolbarButton
}

var toolbarPalette = []color.RGBA{
	{R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	{R: 0xfb, G: 0x8c, B: 0x00, A: 0xff},
	{R: 0xfd, G: 0xd8, B: 0x35, A: 0xff},
	{R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
	{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	{R: 0x8e, G: 0x24, B: 0xaa, A: 0xff},
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

var toolbarWidths = []float64{2, 3, 5, 8}

func newToolbar() *toolbar {
	t := &toolbar{}
	tools := []struct {
		label string
		kind  shape.Kind
	}{
		{"R:Rect", shape.KindRect},
		{"O:Ellipse", shape.KindEllipse},
		{"A:Arrow", shape.KindArrow},
		{"P:Pen", shape.KindPen},
		{"T:Text", shape.KindText},
	}
	for _, tl := range tools {
		t.buttons = append(t.buttons, toolbarButton{kind: buttonTool, label: tl.label, tool: tl.kind})
	}
	for _, c := range toolbarPalette {
		t.buttons = append(t.buttons, toolbarButton{kind: buttonColor, color: c})
	}
	for _, w := range toolbarWidths {
		t.buttons = append(t.buttons, toolbarButton{kind: buttonWidth, width: w})
	}
	for _, a := range []struct{ label, action string }{
		{"Undo", "undo"}, {"Redo", "redo"}, {"Save", "save"}, {"Copy", "copy"},
	} {
		t.buttons = append(t.buttons, toolbarButton{kind: buttonAction, label: a.label, action: a.action})
	}
	t.layout()
	return t
}

func (t *toolbar) layout() {
	d := &font.Drawer{Face: basicfont.Face7x13}
	x := 4
	for i := range t.buttons {
		b := &t.buttons[i]
		w := 22
		if b.label != "" {
			w = d.MeasureString(b.label).Ceil() + 12
		}
		b.rect = image.Rect(x, 4, x+w, toolbarHeight-4)
		x += w + 4
	}
}

// hit returns the button under p, or nil.
func (t *toolbar) hit(p image.Point) *toolbarButton {
	for i := range t.buttons {
		if p.In(t.buttons[i].rect) {
			return &t.buttons[i]
		}
	}
	return nil
}

// toolbarState is the immutable per-frame view of the toolbar.
type toolbarState struct {
	buttons     []toolbarButton
	activeTool  shape.Kind
	activeColor color.RGBA
	activeWidth float64
	canUndo     bool
	canRedo     bool
}

func (t *toolbar) state(s *canvas.Surface) toolbarState {
	st := s.Style()
	return toolbarState{
		buttons:     t.buttons,
		activeTool:  s.Tool(),
		activeColor: st.Stroke,
		activeWidth: st.Width,
		canUndo:     s.CanUndo(),
		canRedo:     s.CanRedo(),
	}
}

func (ts toolbarState) draw(dst *image.RGBA) {
	if len(ts.buttons) == 0 {
		return
	}
	bar := image.Rect(dst.Bounds().Min.X, dst.Bounds().Min.Y, dst.Bounds().Max.X, toolbarHeight)
	draw.Draw(dst, bar.Intersect(dst.Bounds()), &image.Uniform{color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13}
	for _, b := range ts.buttons {
		r := b.rect.Intersect(dst.Bounds())
		switch b.kind {
		case buttonColor:
			draw.Draw(dst, r, &image.Uniform{b.color}, image.Point{}, draw.Src)
			if b.color == ts.activeColor {
				drawRectOutline(dst, b.rect, color.Black, 2)
			} else {
				drawRectOutline(dst, b.rect, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}, 1)
			}
		case buttonWidth:
			draw.Draw(dst, r, &image.Uniform{color.White}, image.Point{}, draw.Src)
			// Centered dot matching the stroke width.
			c := b.rect.Min.Add(b.rect.Max).Div(2)
			half := int(b.width / 2)
			dot := image.Rect(c.X-half, c.Y-half, c.X+half+1, c.Y+half+1)
			draw.Draw(dst, dot.Intersect(dst.Bounds()), image.Black, image.Point{}, draw.Src)
			if b.width == ts.activeWidth {
				drawRectOutline(dst, b.rect, color.Black, 2)
			} else {
				drawRectOutline(dst, b.rect, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}, 1)
			}
		default:
			bg := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			if b.kind == buttonTool && b.tool == ts.activeTool {
				bg = color.RGBA{R: 0xbb, G: 0xdd, B: 0xff, A: 0xff}
			}
			if b.kind == buttonAction && ((b.action == "undo" && !ts.canUndo) || (b.action == "redo" && !ts.canRedo)) {
				bg = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
			}
			draw.Draw(dst, r, &image.Uniform{bg}, image.Point{}, draw.Src)
			drawRectOutline(dst, b.rect, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}, 1)
			d.Dot = fixed.P(b.rect.Min.X+6, b.rect.Max.Y-8)
			d.DrawString(b.label)
		}
	}
}
