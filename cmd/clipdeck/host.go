package main

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/clipdeck/internal/clipboard"
	"github.com/example/clipdeck/internal/notify"
	"github.com/example/clipdeck/internal/store"
)

// captureHost backs an annotation session: exported images land in the
// save directory, get a history record, and can be pushed to the
// system clipboard.
type captureHost struct {
	saveDir  string
	st       *store.Store
	notifier *notify.Notifier
	onClose  func()
}

func (h *captureHost) PersistImage(data []byte) (string, error) {
	name := fmt.Sprintf("capture_%s.png", time.Now().Format("20060102_150405"))
	path := filepath.Join(h.saveDir, name)
	if _, err := os.Stat(path); err == nil {
		// A second export within the same second gets a unique suffix.
		name = fmt.Sprintf("capture_%d.png", time.Now().UnixNano())
		path = filepath.Join(h.saveDir, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}
	if h.st != nil {
		if _, err := h.st.Add(store.KindImage, path); err != nil {
			slog.Warn("record capture in history", "error", err)
		}
	}
	if h.notifier != nil {
		h.notifier.Save(path)
	}
	return path, nil
}

func (h *captureHost) SetClipboardItem(ref string, kind string) error {
	switch kind {
	case "image":
		data, err := os.ReadFile(ref)
		if err != nil {
			return fmt.Errorf("read %s: %w", ref, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode %s: %w", ref, err)
		}
		if err := clipboard.WriteImage(img); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		if h.notifier != nil {
			h.notifier.Copy(filepath.Base(ref))
		}
		return nil
	case "text":
		if err := clipboard.WriteText(ref); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		if h.notifier != nil {
			h.notifier.Copy(ref)
		}
		return nil
	default:
		return fmt.Errorf("unknown clipboard item kind %q", kind)
	}
}

func (h *captureHost) CloseCapture() {
	if h.onClose != nil {
		h.onClose()
	}
}
