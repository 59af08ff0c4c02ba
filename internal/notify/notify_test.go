package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/clipdeck/internal/platform"
)

type sentNote struct {
	title string
	body  string
}

func captureNotes(t *testing.T) *[]sentNote {
	t.Helper()
	var notes []sentNote
	prev := notifyFn
	notifyFn = func(title, body string, _ platform.Options) error {
		notes = append(notes, sentNote{title: title, body: body})
		return nil
	}
	t.Cleanup(func() { notifyFn = prev })
	return &notes
}

func TestNotifierDisabledByDefault(t *testing.T) {
	notes := captureNotes(t)
	n := New(DefaultPreferences())

	n.Copy("hello")
	n.Capture("eDP-1", nil)
	n.Save("/tmp/shot.png")

	if len(*notes) != 0 {
		t.Fatalf("expected no notifications, got %d", len(*notes))
	}
}

func TestNotifierCopyTemplate(t *testing.T) {
	notes := captureNotes(t)
	n := New(DefaultPreferences())
	n.Enable(EventCopy, true)

	n.Copy("3 lines of text")
	n.Copy("")

	if len(*notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(*notes))
	}
	if (*notes)[0].title != "ClipDeck" {
		t.Fatalf("title = %q", (*notes)[0].title)
	}
	if (*notes)[0].body != "Copied 3 lines of text to clipboard" {
		t.Fatalf("body = %q", (*notes)[0].body)
	}
	if (*notes)[1].body != "Copied image to clipboard" {
		t.Fatalf("empty detail body = %q", (*notes)[1].body)
	}
}

func TestNotifierEventIsolation(t *testing.T) {
	notes := captureNotes(t)
	n := New(DefaultPreferences())
	n.Enable(EventSave, true)

	n.Copy("ignored")
	n.Save("shot.png")

	if len(*notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(*notes))
	}
	if !strings.HasPrefix((*notes)[0].body, "Saved ") {
		t.Fatalf("body = %q", (*notes)[0].body)
	}
}

func TestNotifierCustomTitle(t *testing.T) {
	notes := captureNotes(t)
	prefs := DefaultPreferences()
	prefs.Title = "Screenshots"
	n := New(prefs)
	n.Enable(EventCopy, true)

	n.Copy("x")
	if (*notes)[0].title != "Screenshots" {
		t.Fatalf("title = %q", (*notes)[0].title)
	}
}

func TestNotifierBackendErrorIsSwallowed(t *testing.T) {
	prev := notifyFn
	notifyFn = func(string, string, platform.Options) error {
		return errors.New("bus unavailable")
	}
	t.Cleanup(func() { notifyFn = prev })

	n := New(DefaultPreferences())
	n.Enable(EventCopy, true)
	n.Copy("still fine")
}
