// Package tray owns the system tray icon and its menu.
package tray

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/example/clipdeck/assets"
)

// recentSlots is the number of history entries shown in the Recent submenu.
const recentSlots = 10

// RecentItem is one history entry offered for re-copy from the menu.
type RecentItem struct {
	ID    int64
	Label string
}

// Callbacks are invoked from the tray's own goroutines.
type Callbacks struct {
	Capture      func()
	SelectRecent func(id int64)
	TogglePause  func(paused bool)
	OpenSaveDir  func()
	Quit         func()
}

// Tray wraps systray with a fixed menu layout. Run blocks the calling
// goroutine for the life of the tray.
type Tray struct {
	hotkeyLabel string
	cb          Callbacks

	mu    sync.Mutex
	items []RecentItem
	slots [recentSlots]*systray.MenuItem
	empty *systray.MenuItem
	ready bool
}

func New(hotkeyLabel string, cb Callbacks) *Tray {
	return &Tray{hotkeyLabel: hotkeyLabel, cb: cb}
}

// Run starts the tray loop. It must be called from the process main
// goroutine on platforms that require it and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears the tray down and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetRecent replaces the Recent submenu contents. Items beyond the
// slot count are dropped.
func (t *Tray) SetRecent(items []RecentItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(items) > recentSlots {
		items = items[:recentSlots]
	}
	t.items = items
	if t.ready {
		t.applyRecentLocked()
	}
}

func (t *Tray) onReady() {
	if icon, err := assets.IconPNG(32); err == nil {
		systray.SetIcon(icon)
	} else {
		slog.Warn("tray icon unavailable", "error", err)
	}
	systray.SetTitle("ClipDeck")
	systray.SetTooltip("ClipDeck clipboard history")

	captureTitle := "Take screenshot"
	if t.hotkeyLabel != "" {
		captureTitle = fmt.Sprintf("Take screenshot (%s)", t.hotkeyLabel)
	}
	mCapture := systray.AddMenuItem(captureTitle, "Capture and annotate the screen")
	systray.AddSeparator()

	mRecent := systray.AddMenuItem("Recent clips", "Copy a recent history entry")
	t.mu.Lock()
	t.empty = mRecent.AddSubMenuItem("(empty)", "")
	t.empty.Disable()
	for i := range t.slots {
		t.slots[i] = mRecent.AddSubMenuItem("", "")
		t.slots[i].Hide()
		go t.slotLoop(i)
	}
	t.ready = true
	t.applyRecentLocked()
	t.mu.Unlock()

	systray.AddSeparator()
	mPause := systray.AddMenuItemCheckbox("Pause monitoring", "Stop recording clipboard changes", false)
	mOpenDir := systray.AddMenuItem("Open capture folder", "Show saved screenshots")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit ClipDeck")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cb.Capture != nil {
					t.cb.Capture()
				}
			case <-mPause.ClickedCh:
				paused := !mPause.Checked()
				if paused {
					mPause.Check()
				} else {
					mPause.Uncheck()
				}
				if t.cb.TogglePause != nil {
					t.cb.TogglePause(paused)
				}
			case <-mOpenDir.ClickedCh:
				if t.cb.OpenSaveDir != nil {
					t.cb.OpenSaveDir()
				}
			case <-mQuit.ClickedCh:
				if t.cb.Quit != nil {
					t.cb.Quit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) slotLoop(idx int) {
	for range t.slots[idx].ClickedCh {
		t.mu.Lock()
		var id int64 = -1
		if idx < len(t.items) {
			id = t.items[idx].ID
		}
		t.mu.Unlock()
		if id >= 0 && t.cb.SelectRecent != nil {
			t.cb.SelectRecent(id)
		}
	}
}

func (t *Tray) applyRecentLocked() {
	for i, slot := range t.slots {
		if i < len(t.items) {
			slot.SetTitle(t.items[i].Label)
			slot.Show()
		} else {
			slot.Hide()
		}
	}
	if len(t.items) == 0 {
		t.empty.Show()
	} else {
		t.empty.Hide()
	}
}

func (t *Tray) onExit() {}
