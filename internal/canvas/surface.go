// Package canvas owns the annotation editing surface for one capture
// session: the persistent object list, the pointer gesture state machine,
// snapshot undo/redo, and raster export.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/google/uuid"

	"github.com/example/clipdeck/internal/shape"
)

// Phase is the gesture state of the surface. All pointer events are
// interpreted against the current phase; events that do not fit it are
// dropped, so a stray move after a release cannot corrupt a gesture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDrawing
	PhaseSelected
	PhaseMoving
	PhaseResizing
)

// Object is one committed annotation: immutable identity, mutable geometry
// and style.
type Object struct {
	ID    string
	Data  *shape.Data
	Style shape.Style
}

const (
	// objectHitTol is the pick tolerance for selecting a shape body.
	objectHitTol = 6.0
	// handleHitTol is the pick tolerance for a shape control point.
	handleHitTol = 8.0
)

// Surface is the drawing controller for one editing session. It is owned by
// a single event loop; no internal locking.
type Surface struct {
	base     *image.RGBA
	registry *shape.Registry
	style    shape.Style
	tool     shape.Kind

	objects  []*Object
	selected *Object

	phase        Phase
	gestureStart shape.Point
	lastPoint    shape.Point
	accumulated  []shape.Point
	transient    *shape.Data
	activeHandle *shape.ControlPoint
	moved        bool

	editingText bool
	textDirty   bool

	hist    *history
	loading bool
}

// New builds a surface seeded with the cropped capture bitmap and pushes the
// baseline history entry. The surface keeps its own copy of the bitmap.
func New(base *image.RGBA, registry *shape.Registry, style shape.Style) *Surface {
	b := image.NewRGBA(image.Rect(0, 0, base.Bounds().Dx(), base.Bounds().Dy()))
	draw.Draw(b, b.Bounds(), base, base.Bounds().Min, draw.Src)
	s := &Surface{
		base:     b,
		registry: registry,
		style:    style,
		hist:     newHistory(),
	}
	s.pushHistory()
	return s
}

// SetTool selects the drawing tool applied to the next gesture on empty
// surface. An empty kind means plain selection mode.
func (s *Surface) SetTool(k shape.Kind) { s.tool = k }

// Tool returns the active drawing tool.
func (s *Surface) Tool() shape.Kind { return s.tool }

// Phase returns the current gesture phase.
func (s *Surface) Phase() Phase { return s.phase }

// Objects returns the persistent object list, newest last.
func (s *Surface) Objects() []*Object { return s.objects }

// Selected returns the active object, or nil.
func (s *Surface) Selected() *Object { return s.selected }

// Style returns the session drawing configuration.
func (s *Surface) Style() shape.Style { return s.style }

// EditingText reports whether the selected object is a text shape currently
// receiving keystrokes.
func (s *Surface) EditingText() bool { return s.editingText }

// Bounds returns the editing-surface pixel bounds.
func (s *Surface) Bounds() image.Rectangle { return s.base.Bounds() }

func (s *Surface) pushHistory() {
	if s.loading {
		return
	}
	// Marshal of plain geometry structs cannot fail in practice; a failed
	// push degrades undo, nothing else.
	_ = s.hist.push(s.objects)
}

// HistoryLen and HistoryCursor expose log shape for toolbar state.
func (s *Surface) HistoryLen() int    { return len(s.hist.entries) }
func (s *Surface) HistoryCursor() int { return s.hist.cursor }
func (s *Surface) CanUndo() bool      { return s.hist.canUndo() }
func (s *Surface) CanRedo() bool      { return s.hist.canRedo() }

// PointerDown begins a gesture. An existing object under the cursor always
// wins over tool-initiated creation, so shapes stay editable while a drawing
// tool is active.
func (s *Surface) PointerDown(p shape.Point) {
	switch s.phase {
	case PhaseIdle, PhaseSelected:
	default:
		return
	}

	if s.phase == PhaseSelected && s.selected != nil {
		if cp := s.handleAt(p); cp != nil {
			s.activeHandle = cp
			s.moved = false
			s.phase = PhaseResizing
			return
		}
		if s.hitObject(s.selected, p) {
			s.lastPoint = p
			s.moved = false
			s.phase = PhaseMoving
			return
		}
	}

	if hit := s.topObjectAt(p); hit != nil {
		if hit != s.selected {
			s.deselect()
			s.selected = hit
		}
		s.phase = PhaseSelected
		return
	}

	s.deselect()
	if s.tool == "" {
		s.phase = PhaseIdle
		return
	}
	s.gestureStart = p
	s.accumulated = s.accumulated[:0]
	s.accumulated = append(s.accumulated, p)
	s.transient = nil
	s.moved = false
	s.phase = PhaseDrawing
}

// PointerMove advances the active gesture. Moves outside a gesture are
// ignored.
func (s *Surface) PointerMove(p shape.Point) {
	switch s.phase {
	case PhaseDrawing:
		if p != s.gestureStart {
			s.moved = true
		}
		s.accumulated = append(s.accumulated, p)
		b, ok := s.registry.Lookup(s.tool)
		if !ok {
			return
		}
		// Replace, never stack: the previous transient is dropped on
		// every recompute.
		if d, valid := b.Create(s.gestureStart, p, s.accumulated); valid {
			s.transient = d
		} else {
			s.transient = nil
		}
	case PhaseMoving:
		b, ok := s.registry.Lookup(s.selected.Data.Kind)
		if !ok {
			return
		}
		b.Move(s.selected.Data, p.X-s.lastPoint.X, p.Y-s.lastPoint.Y)
		s.lastPoint = p
		s.moved = true
	case PhaseResizing:
		s.activeHandle.Apply(s.selected.Data, p)
		s.moved = true
	}
}

// PointerUp completes the active gesture.
func (s *Surface) PointerUp(p shape.Point) {
	switch s.phase {
	case PhaseDrawing:
		s.finishDrawing(p)
	case PhaseMoving:
		s.phase = PhaseSelected
		if s.moved {
			s.pushHistory()
		}
	case PhaseResizing:
		s.activeHandle = nil
		s.phase = PhaseSelected
		if s.moved {
			s.pushHistory()
		}
	}
}

func (s *Surface) finishDrawing(p shape.Point) {
	defer func() { s.transient = nil }()
	b, ok := s.registry.Lookup(s.tool)
	if !ok {
		s.phase = PhaseIdle
		return
	}

	if s.tool == shape.KindText && !s.moved {
		// Click-only text: commit an empty placeholder and start
		// editing in place.
		d, _ := b.Create(s.gestureStart, s.gestureStart, nil)
		obj := s.commit(d)
		s.selected = obj
		s.editingText = true
		s.textDirty = false
		s.phase = PhaseSelected
		return
	}

	d, valid := b.Create(s.gestureStart, p, s.accumulated)
	if !valid {
		// Degenerate drag: nothing committed, no history entry.
		s.phase = PhaseIdle
		return
	}
	obj := s.commit(d)
	s.selected = obj
	s.phase = PhaseSelected
}

func (s *Surface) commit(d *shape.Data) *Object {
	obj := &Object{ID: uuid.NewString(), Data: d, Style: s.style}
	s.objects = append(s.objects, obj)
	s.pushHistory()
	return obj
}

// deselect drops the active selection. An empty text shape is deleted
// outright rather than retained.
func (s *Surface) deselect() {
	if s.selected == nil {
		return
	}
	sel := s.selected
	s.selected = nil
	if sel.Data.Kind == shape.KindText && sel.Data.Text == "" {
		s.removeObject(sel)
		s.pushHistory()
	} else if s.editingText && s.textDirty {
		s.pushHistory()
	}
	s.editingText = false
	s.textDirty = false
	s.phase = PhaseIdle
}

// Deselect clears the current selection, applying the empty-text deletion
// rule.
func (s *Surface) Deselect() { s.deselect() }

func (s *Surface) removeObject(o *Object) {
	for i, obj := range s.objects {
		if obj == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return
		}
	}
}

// Escape cancels the innermost activity: an in-progress gesture first, then
// the selection. It reports whether anything was cancelled so the caller can
// escalate to closing the session.
func (s *Surface) Escape() bool {
	switch s.phase {
	case PhaseDrawing:
		s.transient = nil
		s.phase = PhaseIdle
		return true
	case PhaseMoving, PhaseResizing:
		s.activeHandle = nil
		s.phase = PhaseSelected
		return true
	}
	if s.selected != nil {
		s.deselect()
		return true
	}
	return false
}

// SetStrokeColor updates the session color and, when a shape is selected,
// restyles it in place with one history entry.
func (s *Surface) SetStrokeColor(c color.RGBA) {
	s.style.Stroke = c
	s.style.Fill = c
	if s.selected != nil {
		s.selected.Style.Stroke = s.style.Stroke
		s.selected.Style.Fill = s.style.Fill
		s.pushHistory()
	}
}

// SetStrokeWidth updates the session stroke width. For a selected text shape
// the width notch steps the font size instead.
func (s *Surface) SetStrokeWidth(w float64) {
	s.style.Width = w
	if s.selected == nil {
		return
	}
	if s.selected.Data.Kind == shape.KindText {
		s.selected.Data.FontSize = shape.StepFontSize(w)
	} else {
		s.selected.Style.Width = w
	}
	s.pushHistory()
}

// AppendText adds typed characters to the text shape being edited.
func (s *Surface) AppendText(str string) {
	if !s.editingText || s.selected == nil || str == "" {
		return
	}
	s.selected.Data.Text += str
	s.textDirty = true
}

// BackspaceText removes the last rune from the text shape being edited.
func (s *Surface) BackspaceText() {
	if !s.editingText || s.selected == nil || s.selected.Data.Text == "" {
		return
	}
	runes := []rune(s.selected.Data.Text)
	s.selected.Data.Text = string(runes[:len(runes)-1])
	s.textDirty = true
}

// Undo steps the history cursor back and replaces the object list from the
// snapshot. Restores never write history themselves.
func (s *Surface) Undo() bool {
	objects, ok := s.hist.undo()
	if !ok {
		return false
	}
	s.restore(objects)
	return true
}

// Redo steps the history cursor forward.
func (s *Surface) Redo() bool {
	objects, ok := s.hist.redo()
	if !ok {
		return false
	}
	s.restore(objects)
	return true
}

func (s *Surface) restore(objects []*Object) {
	s.loading = true
	defer func() { s.loading = false }()
	s.selected = nil
	s.editingText = false
	s.textDirty = false
	s.transient = nil
	s.activeHandle = nil
	s.objects = objects
	s.phase = PhaseIdle
}

func (s *Surface) hitObject(o *Object, p shape.Point) bool {
	b, ok := s.registry.Lookup(o.Data.Kind)
	if !ok {
		return false
	}
	return b.Hit(o.Data, o.Style, p, objectHitTol)
}

// topObjectAt returns the topmost object under p.
func (s *Surface) topObjectAt(p shape.Point) *Object {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if s.hitObject(s.objects[i], p) {
			return s.objects[i]
		}
	}
	return nil
}

func (s *Surface) handleAt(p shape.Point) *shape.ControlPoint {
	if s.selected == nil {
		return nil
	}
	b, ok := s.registry.Lookup(s.selected.Data.Kind)
	if !ok {
		return nil
	}
	cps := b.ControlPoints()
	for i := range cps {
		pos := cps[i].Position(s.selected.Data)
		dx, dy := p.X-pos.X, p.Y-pos.Y
		if dx*dx+dy*dy <= handleHitTol*handleHitTol {
			return &cps[i]
		}
	}
	return nil
}

// HandlePositions returns the control-point locations of the selected shape
// for chrome drawing. The positions are recomputed from shape data on every
// call.
func (s *Surface) HandlePositions() []shape.Point {
	if s.selected == nil {
		return nil
	}
	b, ok := s.registry.Lookup(s.selected.Data.Kind)
	if !ok {
		return nil
	}
	cps := b.ControlPoints()
	out := make([]shape.Point, 0, len(cps))
	for i := range cps {
		out = append(out, cps[i].Position(s.selected.Data))
	}
	return out
}

// Composite renders the base bitmap plus all persistent shapes into a fresh
// image. When includeTransient is set the in-progress shape is painted on
// top; selection chrome is never included.
func (s *Surface) Composite(includeTransient bool) *image.RGBA {
	out := image.NewRGBA(s.base.Bounds())
	draw.Draw(out, out.Bounds(), s.base, s.base.Bounds().Min, draw.Src)
	for _, o := range s.objects {
		if b, ok := s.registry.Lookup(o.Data.Kind); ok {
			b.Render(out, o.Data, o.Style)
		}
	}
	if includeTransient && s.transient != nil {
		if b, ok := s.registry.Lookup(s.transient.Kind); ok {
			b.Render(out, s.transient, s.style)
		}
	}
	return out
}

// Export rasterizes the surface to PNG at natural resolution, persistent
// shapes only.
func (s *Surface) Export() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Composite(false)); err != nil {
		return nil, fmt.Errorf("encode surface: %w", err)
	}
	return buf.Bytes(), nil
}
