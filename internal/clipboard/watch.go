package clipboard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	"image/png"
	"sync"
	"time"
)

// EventKind tags what a clipboard change carried.
type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
)

// Event is one observed clipboard change.
type Event struct {
	Kind  EventKind
	Text  string
	Image image.Image
}

// Watcher polls the system clipboard and reports changes. Polling keeps the
// monitor portable across X11 and Wayland sessions where change
// notifications are unreliable.
type Watcher struct {
	interval time.Duration

	lastText  [32]byte
	lastImage [32]byte
	primed    bool

	mu      sync.Mutex
	ignored map[[32]byte]struct{}
}

// NewWatcher builds a watcher polling at the given interval.
func NewWatcher(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{
		interval: interval,
		ignored:  map[[32]byte]struct{}{},
	}
}

// Ignore marks content the application itself placed on the clipboard so the
// watcher does not report it back as a new item.
func (w *Watcher) Ignore(data []byte) {
	w.mu.Lock()
	w.ignored[sha256.Sum256(data)] = struct{}{}
	w.mu.Unlock()
}

func (w *Watcher) skipIgnored(sum [32]byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, skip := w.ignored[sum]
	delete(w.ignored, sum)
	return skip
}

// Run polls until ctx is cancelled, sending each observed change to out.
// The clipboard content present at startup is not reported.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range w.poll() {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) poll() []Event {
	var events []Event
	prime := !w.primed
	w.primed = true

	if text, err := ReadText(); err == nil && text != "" {
		sum := sha256.Sum256([]byte(text))
		if sum != w.lastText {
			w.lastText = sum
			if !w.skipIgnored(sum) && !prime {
				events = append(events, Event{Kind: EventText, Text: text})
			}
		}
	}

	if img, err := ReadImage(); err == nil && img != nil {
		var buf bytes.Buffer
		if encErr := png.Encode(&buf, img); encErr == nil {
			sum := sha256.Sum256(buf.Bytes())
			if sum != w.lastImage {
				w.lastImage = sum
				if !w.skipIgnored(sum) && !prime {
					events = append(events, Event{Kind: EventImage, Image: img})
				}
			}
		}
	}
	return events
}
