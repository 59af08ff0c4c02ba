package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/example/clipdeck/internal/capture"
	"github.com/example/clipdeck/internal/session"
	"github.com/example/clipdeck/internal/shape"
	"github.com/example/clipdeck/internal/store"
)

// Seams for tests.
var (
	captureDisplaysFn = capture.CaptureDisplays
	captureDisplayFn  = capture.CaptureDisplay
	captureRegionFn   = capture.CaptureRegion
)

type captureCmd struct {
	*root
	fs *flag.FlagSet

	display string
	cursor  bool
	raw     bool
	region  bool
	out     string
}

func parseCaptureCmd(args []string, r *root) (*captureCmd, error) {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	cmd := &captureCmd{root: r, fs: fs}
	fs.StringVar(&cmd.display, "display", "", "capture a single display: primary, an index, or a name substring")
	fs.BoolVar(&cmd.cursor, "cursor", false, "include the mouse cursor in the capture")
	fs.BoolVar(&cmd.raw, "raw", false, "skip the annotation window and save the capture directly")
	fs.BoolVar(&cmd.region, "region", false, "with -raw, let the desktop portal pick the region interactively")
	fs.StringVar(&cmd.out, "out", "", "with -raw, write the capture to this file instead of the save directory")
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
	if cmd.out != "" && !cmd.raw {
		return nil, errors.New("-out requires -raw")
	}
	if cmd.region && !cmd.raw {
		return nil, errors.New("-region requires -raw")
	}
	return cmd, nil
}

func (c *captureCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *captureCmd) Run() error {
	opts := capture.Options{IncludeCursor: c.cursor}
	if c.raw {
		return c.runRaw(opts)
	}

	displays, err := captureDisplaysFn(opts)
	if err != nil {
		return fmt.Errorf("failed to capture screen: %w", err)
	}
	if c.display != "" {
		displays, err = filterDisplays(displays, c.display)
		if err != nil {
			return err
		}
	}

	saveDir, err := c.config.ResolveSaveDir()
	if err != nil {
		return fmt.Errorf("resolve save directory: %w", err)
	}
	st, err := store.Open(saveDir)
	if err != nil {
		slog.Warn("history store unavailable, captures will not be recorded", "error", err)
		st = nil
	} else {
		defer st.Close()
	}

	host := &captureHost{saveDir: saveDir, st: st, notifier: c.notifier}
	c.notifier.Capture(captureDetail(displays), displays[0].Image)

	captures := make([]session.DisplayCapture, 0, len(displays))
	for _, d := range displays {
		captures = append(captures, session.DisplayCapture{
			Name:  d.Name,
			Image: d.Image,
			Pos:   d.Bounds.Min,
			Scale: d.Scale,
		})
	}

	style := shape.DefaultStyle()
	style.Stroke = c.config.StrokeColor()
	if c.config.Drawing.StrokeWidth > 0 {
		style.Width = c.config.Drawing.StrokeWidth
	}

	sess := session.New(captures, host, style, slog.Default())
	sess.Run()
	return nil
}

func (c *captureCmd) runRaw(opts capture.Options) error {
	var (
		img *image.RGBA
		err error
	)
	if c.region {
		img, err = captureRegionFn(opts)
	} else {
		img, err = captureDisplayFn(c.display, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to capture screen: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode capture: %w", err)
	}

	if c.out != "" {
		if err := os.WriteFile(c.out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.out, err)
		}
		fmt.Println(c.out)
		return nil
	}

	saveDir, err := c.config.ResolveSaveDir()
	if err != nil {
		return fmt.Errorf("resolve save directory: %w", err)
	}
	st, err := store.Open(saveDir)
	if err != nil {
		slog.Warn("history store unavailable", "error", err)
		st = nil
	} else {
		defer st.Close()
	}
	host := &captureHost{saveDir: saveDir, st: st, notifier: c.notifier}
	path, err := host.PersistImage(buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func filterDisplays(displays []capture.Display, selector string) ([]capture.Display, error) {
	monitors := make([]capture.MonitorInfo, 0, len(displays))
	for i, d := range displays {
		monitors = append(monitors, capture.MonitorInfo{Index: i, Name: d.Name, Rect: d.Bounds, Primary: d.Primary})
	}
	mon, err := capture.FindMonitor(monitors, selector)
	if err != nil {
		return nil, err
	}
	return displays[mon.Index : mon.Index+1], nil
}

func captureDetail(displays []capture.Display) string {
	if len(displays) == 1 {
		return displays[0].Name
	}
	return fmt.Sprintf("%d displays", len(displays))
}
