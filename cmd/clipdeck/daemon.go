package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.design/x/hotkey/mainthread"

	"github.com/example/clipdeck/internal/clipboard"
	"github.com/example/clipdeck/internal/hotkey"
	"github.com/example/clipdeck/internal/store"
	"github.com/example/clipdeck/internal/tray"
)

// pruneInterval is how often the history is trimmed to its configured cap.
const pruneInterval = 10 * time.Minute

type daemonCmd struct {
	*root
	fs *flag.FlagSet

	noTray   bool
	noHotkey bool

	st        *store.Store
	tr        *tray.Tray
	watcher   *clipboard.Watcher
	saveDir   string
	paused    atomic.Bool
	capturing atomic.Bool
}

func parseDaemonCmd(args []string, r *root) (*daemonCmd, error) {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	cmd := &daemonCmd{root: r, fs: fs}
	fs.BoolVar(&cmd.noTray, "no-tray", false, "run without a system tray icon")
	fs.BoolVar(&cmd.noHotkey, "no-hotkey", false, "run without registering the global capture shortcut")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: cmd}
		}
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (d *daemonCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func (d *daemonCmd) Run() error {
	saveDir, err := d.config.ResolveSaveDir()
	if err != nil {
		return fmt.Errorf("resolve save directory: %w", err)
	}
	d.saveDir = saveDir

	st, err := store.Open(saveDir)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	d.st = st
	defer st.Close()

	var runErr error
	mainthread.Init(func() {
		runErr = d.serve()
	})
	return runErr
}

func (d *daemonCmd) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	interval := time.Duration(d.config.History.MonitorIntervalMs) * time.Millisecond
	d.watcher = clipboard.NewWatcher(interval)
	events := make(chan clipboard.Event, 8)
	go d.watcher.Run(ctx, events)
	go d.consumeClipboard(ctx, events)
	go d.pruneLoop(ctx)

	if !d.noHotkey {
		combo, err := hotkey.ParseCombo(d.config.Hotkey.Combo)
		if err != nil {
			return err
		}
		presses, err := hotkey.Listen(ctx, combo)
		if err != nil {
			slog.Warn("global shortcut unavailable", "combo", d.config.Hotkey.Combo, "error", err)
		} else {
			go func() {
				for range presses {
					d.launchCapture()
				}
			}()
			slog.Info("global shortcut registered", "combo", d.config.Hotkey.Combo)
		}
	}

	slog.Info("clipboard monitor started", "interval", interval, "save_dir", d.saveDir)

	if d.noTray {
		<-sig
		return nil
	}

	d.tr = tray.New(d.config.Hotkey.Combo, tray.Callbacks{
		Capture:      d.launchCapture,
		SelectRecent: d.copyHistoryItem,
		TogglePause: func(paused bool) {
			d.paused.Store(paused)
			slog.Info("clipboard monitoring toggled", "paused", paused)
		},
		OpenSaveDir: d.openSaveDir,
		Quit:        cancel,
	})
	go func() {
		<-sig
		d.tr.Quit()
	}()
	d.refreshTray()
	d.tr.Run()
	return nil
}

// consumeClipboard records observed clipboard changes in the history.
func (d *daemonCmd) consumeClipboard(ctx context.Context, events <-chan clipboard.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if d.paused.Load() {
				continue
			}
			if err := d.recordEvent(ev); err != nil {
				slog.Warn("record clipboard change", "error", err)
				continue
			}
			d.refreshTray()
		}
	}
}

func (d *daemonCmd) recordEvent(ev clipboard.Event) error {
	switch ev.Kind {
	case clipboard.EventText:
		if strings.TrimSpace(ev.Text) == "" {
			return nil
		}
		_, err := d.st.Add(store.KindText, ev.Text)
		return err
	case clipboard.EventImage:
		path := filepath.Join(d.saveDir, fmt.Sprintf("clip_%d.png", time.Now().UnixNano()))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := png.Encode(f, ev.Image); err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		_, err = d.st.Add(store.KindImage, path)
		return err
	default:
		return nil
	}
}

func (d *daemonCmd) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := d.st.Prune(d.config.History.MaxItems)
			if err != nil {
				slog.Warn("prune history", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("pruned history", "removed", removed)
				d.refreshTray()
			}
		}
	}
}

// launchCapture runs the annotation session in a child process so the
// daemon keeps its tray and hotkey loops while windows are open.
func (d *daemonCmd) launchCapture() {
	if !d.capturing.CompareAndSwap(false, true) {
		slog.Debug("capture already in progress")
		return
	}
	exe, err := os.Executable()
	if err != nil {
		d.capturing.Store(false)
		slog.Error("resolve executable", "error", err)
		return
	}
	args := []string{}
	if d.configPath != "" {
		args = append(args, "-config", d.configPath)
	}
	args = append(args, "capture")
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		d.capturing.Store(false)
		slog.Error("start capture", "error", err)
		return
	}
	go func() {
		defer d.capturing.Store(false)
		if err := cmd.Wait(); err != nil {
			slog.Warn("capture session", "error", err)
		}
		d.refreshTray()
	}()
}

// copyHistoryItem puts a stored entry back on the clipboard.
func (d *daemonCmd) copyHistoryItem(id int64) {
	item, err := d.st.Get(id)
	if err != nil {
		slog.Warn("history item unavailable", "id", id, "error", err)
		return
	}
	switch item.Kind {
	case store.KindText:
		if err := clipboard.WriteText(item.Content); err != nil {
			slog.Warn("copy history text", "id", id, "error", err)
			return
		}
		d.notifier.Copy(recentLabel(*item))
	case store.KindImage:
		f, err := os.Open(item.Content)
		if err != nil {
			slog.Warn("open history image", "path", item.Content, "error", err)
			return
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			slog.Warn("decode history image", "path", item.Content, "error", err)
			return
		}
		// The watcher would otherwise see our own write as a fresh
		// image and save a second copy.
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			d.watcher.Ignore(buf.Bytes())
		}
		if err := clipboard.WriteImage(img); err != nil {
			slog.Warn("copy history image", "id", id, "error", err)
			return
		}
		d.notifier.Copy(filepath.Base(item.Content))
	}
	d.refreshTray()
}

func (d *daemonCmd) refreshTray() {
	if d.tr == nil {
		return
	}
	items, err := d.st.List(10, 0)
	if err != nil {
		slog.Warn("list history for tray", "error", err)
		return
	}
	recent := make([]tray.RecentItem, 0, len(items))
	for _, it := range items {
		recent = append(recent, tray.RecentItem{ID: it.ID, Label: recentLabel(it)})
	}
	d.tr.SetRecent(recent)
}

func (d *daemonCmd) openSaveDir() {
	if err := exec.Command("xdg-open", d.saveDir).Start(); err != nil {
		slog.Warn("open save directory", "error", err)
	}
}

// contentLabel renders a history item as a short single line.
func contentLabel(it store.Item) string {
	const maxLabel = 48
	var label string
	switch it.Kind {
	case store.KindImage:
		label = "[img] " + filepath.Base(it.Content)
	default:
		label = strings.Join(strings.Fields(it.Content), " ")
	}
	if runes := []rune(label); len(runes) > maxLabel {
		label = string(runes[:maxLabel-3]) + "..."
	}
	return label
}

func recentLabel(it store.Item) string {
	label := contentLabel(it)
	if it.Pinned {
		label = "* " + label
	}
	return label
}
