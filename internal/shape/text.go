package shape

import (
	"image"
	"log"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const defaultFontSize = 18

type textBehavior struct{}

func (textBehavior) Kind() Kind { return KindText }

// Create never rejects: a click with no drag yields an empty placeholder at
// the anchor which is populated in-place afterwards.
func (textBehavior) Create(start, _ Point, _ []Point) (*Data, bool) {
	return &Data{Kind: KindText, P0: start, FontSize: defaultFontSize}, true
}

func (textBehavior) Render(dst *image.RGBA, d *Data, st Style) {
	if d.Text == "" {
		return
	}
	face := faceForSize(d.FontSize)
	if face == nil {
		return
	}
	lineH := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	y := int(math.Round(d.P0.Y)) + ascent
	src := image.NewUniform(st.Stroke)
	for _, line := range strings.Split(d.Text, "\n") {
		drawer := &font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  fixed.P(int(math.Round(d.P0.X)), y),
		}
		drawer.DrawString(line)
		y += lineH
	}
}

func (textBehavior) Move(d *Data, dx, dy float64) {
	d.P0 = d.P0.Add(dx, dy)
}

func (textBehavior) ControlPoints() []ControlPoint { return nil }

func (textBehavior) Hit(d *Data, _ Style, p Point, tol float64) bool {
	w, h := measureText(d)
	minX := d.P0.X - tol
	minY := d.P0.Y - tol
	maxX := d.P0.X + w + tol
	maxY := d.P0.Y + h + tol
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// MeasureTextBounds reports the rendered extent of a text shape, used for
// selection chrome around text.
func MeasureTextBounds(d *Data) (w, h float64) {
	return measureText(d)
}

// measureText returns the rendered extent of a text shape. Empty shapes
// report a one-line click target so they stay selectable while being edited.
func measureText(d *Data) (w, h float64) {
	face := faceForSize(d.FontSize)
	if face == nil {
		return 0, 0
	}
	lineH := float64(face.Metrics().Height.Ceil())
	lines := strings.Split(d.Text, "\n")
	maxW := 0.0
	for _, line := range lines {
		lw := float64(font.MeasureString(face, line).Ceil())
		if lw > maxW {
			maxW = lw
		}
	}
	if maxW < 12 {
		maxW = 12
	}
	return maxW, lineH * float64(len(lines))
}

// StepFontSize maps a stroke-width notch onto a font size; the text tool
// reuses the toolbar's width picker for sizing.
func StepFontSize(width float64) float64 {
	size := 10 + width*4
	if size < 10 {
		size = 10
	}
	return size
}

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	faceMu     sync.Mutex
	faceCache  = map[float64]font.Face{}
)

func faceForSize(size float64) font.Face {
	if size <= 0 {
		size = defaultFontSize
	}
	fontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("parse font: %v", err)
			return
		}
		parsedFont = f
	})
	if parsedFont == nil {
		return nil
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if face, ok := faceCache[size]; ok {
		return face
	}
	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("font face: %v", err)
		return nil
	}
	faceCache[size] = face
	return face
}
