// Package capture grabs desktop pixels through the XDG screenshot portal
// and maps them onto the monitor layout reported by X RandR.
package capture

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
)

// Options tune how the portal takes the screenshot.
type Options struct {
	IncludeCursor bool
}

// Display is one monitor's crop of the desktop screenshot.
type Display struct {
	Name    string
	Primary bool
	Image   *image.RGBA
	// Bounds is the monitor rectangle in logical screen coordinates.
	Bounds image.Rectangle
	// Scale converts logical coordinates to capture pixels. 1 on
	// unscaled setups, 2 on HiDPI desktops where the portal hands back
	// physical pixels.
	Scale float64
}

// Seams for tests; production code never touches these.
var (
	screenshotFn = func(interactive bool, opts Options) (*image.RGBA, error) {
		return portalScreenshot(interactive, opts)
	}
	monitorsFn = ListMonitors
)

// CaptureScreen captures the whole desktop as a single image.
func CaptureScreen(opts Options) (*image.RGBA, error) {
	return screenshotFn(false, opts)
}

// CaptureDisplays captures the desktop once and returns a crop per
// monitor. Monitors whose geometry falls outside the screenshot are
// logged and skipped. When the monitor layout cannot be read, the full
// screenshot is returned as a single unnamed display.
func CaptureDisplays(opts Options) ([]Display, error) {
	shot, err := screenshotFn(false, opts)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}

	monitors, err := monitorsFn()
	if err != nil {
		slog.Warn("monitor layout unavailable, using whole screen", "error", err)
		return []Display{{
			Name:    "screen",
			Primary: true,
			Image:   shot,
			Bounds:  image.Rect(0, 0, shot.Bounds().Dx(), shot.Bounds().Dy()),
			Scale:   1,
		}}, nil
	}

	scale := layoutScale(shot.Bounds(), monitors)
	displays := make([]Display, 0, len(monitors))
	for _, mon := range monitors {
		rect := scaleRect(mon.Rect, scale)
		crop, err := cropToRect(shot, rect)
		if err != nil {
			slog.Warn("display outside screenshot, skipping", "display", mon.Name, "error", err)
			continue
		}
		displays = append(displays, Display{
			Name:    mon.Name,
			Primary: mon.Primary,
			Image:   crop,
			Bounds:  mon.Rect,
			Scale:   scale,
		})
	}
	if len(displays) == 0 {
		return nil, fmt.Errorf("no display matched the captured image")
	}
	return displays, nil
}

// CaptureDisplay captures a single monitor picked by selector. An empty
// selector means the first monitor; "primary", an index, or a name
// substring also work.
func CaptureDisplay(selector string, opts Options) (*image.RGBA, error) {
	shot, err := screenshotFn(false, opts)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	monitors, err := monitorsFn()
	if err != nil {
		if selector == "" {
			return shot, nil
		}
		return nil, fmt.Errorf("monitor layout: %w", err)
	}
	mon, err := FindMonitor(monitors, selector)
	if err != nil {
		return nil, err
	}
	return cropToRect(shot, scaleRect(mon.Rect, layoutScale(shot.Bounds(), monitors)))
}

// CaptureRegion lets the portal drive an interactive region pick.
func CaptureRegion(opts Options) (*image.RGBA, error) {
	return screenshotFn(true, opts)
}

// layoutScale infers the pixel density of the screenshot by comparing
// its width against the union of the monitor rectangles.
func layoutScale(shot image.Rectangle, monitors []MonitorInfo) float64 {
	var union image.Rectangle
	for _, mon := range monitors {
		union = union.Union(mon.Rect)
	}
	if union.Dx() <= 0 {
		return 1
	}
	scale := float64(shot.Dx()) / float64(union.Dx())
	if scale < 0.5 {
		return 1
	}
	return scale
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(float64(r.Min.X)*scale),
		int(float64(r.Min.Y)*scale),
		int(float64(r.Max.X)*scale),
		int(float64(r.Max.Y)*scale),
	)
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
