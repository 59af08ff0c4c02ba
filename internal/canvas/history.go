package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/example/clipdeck/internal/shape"
)

// savedObject is the serialized form of one annotation inside a history
// snapshot. Control-point decorations are derived state and never stored.
type savedObject struct {
	ID    string      `json:"id"`
	Data  *shape.Data `json:"data"`
	Style shape.Style `json:"style"`
}

// history is a linear log of full object-list snapshots with a cursor.
// Pushing after an undo discards everything past the cursor before
// appending.
type history struct {
	entries [][]byte
	cursor  int
}

func newHistory() *history {
	return &history{cursor: -1}
}

func (h *history) push(objects []*Object) error {
	snap := make([]savedObject, 0, len(objects))
	for _, o := range objects {
		snap = append(snap, savedObject{ID: o.ID, Data: o.Data, Style: o.Style})
	}
	buf, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot history: %w", err)
	}
	h.entries = append(h.entries[:h.cursor+1], buf)
	h.cursor = len(h.entries) - 1
	return nil
}

func (h *history) canUndo() bool { return h.cursor > 0 }
func (h *history) canRedo() bool { return h.cursor < len(h.entries)-1 }

func (h *history) undo() ([]*Object, bool) {
	if !h.canUndo() {
		return nil, false
	}
	h.cursor--
	return h.restore()
}

func (h *history) redo() ([]*Object, bool) {
	if !h.canRedo() {
		return nil, false
	}
	h.cursor++
	return h.restore()
}

func (h *history) restore() ([]*Object, bool) {
	var snap []savedObject
	if err := json.Unmarshal(h.entries[h.cursor], &snap); err != nil {
		return nil, false
	}
	objects := make([]*Object, 0, len(snap))
	for _, s := range snap {
		objects = append(objects, &Object{ID: s.ID, Data: s.Data, Style: s.Style})
	}
	return objects, true
}
