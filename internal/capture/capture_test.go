package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// testShot paints each monitor region a distinct solid color so crops
// can be verified by sampling a pixel.
func testShot(w, h int, fills map[image.Rectangle]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for rect, c := range fills {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func withSeams(t *testing.T, shot *image.RGBA, shotErr error, monitors []MonitorInfo, monErr error) {
	t.Helper()
	prevShot, prevMon := screenshotFn, monitorsFn
	screenshotFn = func(bool, Options) (*image.RGBA, error) {
		if shotErr != nil {
			return nil, shotErr
		}
		return shot, nil
	}
	monitorsFn = func() ([]MonitorInfo, error) {
		if monErr != nil {
			return nil, monErr
		}
		return monitors, nil
	}
	t.Cleanup(func() {
		screenshotFn = prevShot
		monitorsFn = prevMon
	})
}

func TestCaptureDisplaysSplitsPerMonitor(t *testing.T) {
	left := image.Rect(0, 0, 800, 600)
	right := image.Rect(800, 0, 1400, 600)
	shot := testShot(1400, 600, map[image.Rectangle]color.RGBA{
		left:  {R: 0xff, A: 0xff},
		right: {B: 0xff, A: 0xff},
	})
	withSeams(t, shot, nil, []MonitorInfo{
		{Index: 0, Name: "eDP-1", Rect: left, Primary: true},
		{Index: 1, Name: "HDMI-1", Rect: right},
	}, nil)

	displays, err := CaptureDisplays(Options{})
	if err != nil {
		t.Fatalf("CaptureDisplays: %v", err)
	}
	if len(displays) != 2 {
		t.Fatalf("expected 2 displays, got %d", len(displays))
	}
	if displays[0].Name != "eDP-1" || !displays[0].Primary {
		t.Fatalf("unexpected first display %+v", displays[0])
	}
	if got := displays[0].Image.Bounds(); got.Dx() != 800 || got.Dy() != 600 {
		t.Fatalf("first crop bounds %v", got)
	}
	if got := displays[1].Image.RGBAAt(10, 10); got.B != 0xff || got.R != 0 {
		t.Fatalf("second crop sampled wrong region: %v", got)
	}
	if displays[1].Bounds != right {
		t.Fatalf("second display bounds %v, want %v", displays[1].Bounds, right)
	}
	if displays[0].Scale != 1 {
		t.Fatalf("scale = %v, want 1", displays[0].Scale)
	}
}

func TestCaptureDisplaysHiDPIScale(t *testing.T) {
	// Logical layout is 1000 wide, screenshot is 2000: scale 2.
	logical := image.Rect(0, 0, 1000, 500)
	shot := testShot(2000, 1000, map[image.Rectangle]color.RGBA{
		image.Rect(0, 0, 2000, 1000): {G: 0xff, A: 0xff},
	})
	withSeams(t, shot, nil, []MonitorInfo{
		{Index: 0, Name: "eDP-1", Rect: logical, Primary: true},
	}, nil)

	displays, err := CaptureDisplays(Options{})
	if err != nil {
		t.Fatalf("CaptureDisplays: %v", err)
	}
	if len(displays) != 1 {
		t.Fatalf("expected 1 display, got %d", len(displays))
	}
	if displays[0].Scale != 2 {
		t.Fatalf("scale = %v, want 2", displays[0].Scale)
	}
	if got := displays[0].Image.Bounds(); got.Dx() != 2000 || got.Dy() != 1000 {
		t.Fatalf("crop bounds %v, want full 2000x1000", got)
	}
	if displays[0].Bounds != logical {
		t.Fatalf("logical bounds %v, want %v", displays[0].Bounds, logical)
	}
}

func TestCaptureDisplaysSkipsOutOfRangeMonitor(t *testing.T) {
	inside := image.Rect(0, 0, 640, 480)
	shot := testShot(640, 480, map[image.Rectangle]color.RGBA{
		inside: {R: 0xff, A: 0xff},
	})
	withSeams(t, shot, nil, []MonitorInfo{
		{Index: 0, Name: "eDP-1", Rect: inside, Primary: true},
		{Index: 1, Name: "ghost", Rect: image.Rect(5000, 5000, 6000, 6000)},
	}, nil)

	displays, err := CaptureDisplays(Options{})
	if err != nil {
		t.Fatalf("CaptureDisplays: %v", err)
	}
	if len(displays) != 1 || displays[0].Name != "eDP-1" {
		t.Fatalf("expected only the in-range display, got %+v", displays)
	}
}

func TestCaptureDisplaysFallsBackWithoutLayout(t *testing.T) {
	shot := testShot(320, 200, nil)
	withSeams(t, shot, nil, nil, errors.New("no X server"))

	displays, err := CaptureDisplays(Options{})
	if err != nil {
		t.Fatalf("CaptureDisplays: %v", err)
	}
	if len(displays) != 1 {
		t.Fatalf("expected single fallback display, got %d", len(displays))
	}
	if displays[0].Image != shot || !displays[0].Primary {
		t.Fatalf("fallback display should carry the full screenshot")
	}
}

func TestCaptureDisplaysScreenshotError(t *testing.T) {
	shotErr := errors.New("portal unavailable")
	withSeams(t, nil, shotErr, nil, nil)

	if _, err := CaptureDisplays(Options{}); !errors.Is(err, shotErr) {
		t.Fatalf("expected wrapped screenshot error, got %v", err)
	}
}

func TestCaptureDisplaySelector(t *testing.T) {
	left := image.Rect(0, 0, 100, 100)
	right := image.Rect(100, 0, 200, 100)
	shot := testShot(200, 100, map[image.Rectangle]color.RGBA{
		left:  {R: 0xff, A: 0xff},
		right: {B: 0xff, A: 0xff},
	})
	monitors := []MonitorInfo{
		{Index: 0, Name: "eDP-1", Rect: left},
		{Index: 1, Name: "HDMI-1", Rect: right, Primary: true},
	}
	withSeams(t, shot, nil, monitors, nil)

	img, err := CaptureDisplay("hdmi", Options{})
	if err != nil {
		t.Fatalf("CaptureDisplay: %v", err)
	}
	if got := img.RGBAAt(5, 5); got.B != 0xff {
		t.Fatalf("selector matched wrong monitor: %v", got)
	}

	if _, err := CaptureDisplay("nope", Options{}); err == nil {
		t.Fatalf("expected error for unknown selector")
	}
}

func TestFindMonitor(t *testing.T) {
	monitors := []MonitorInfo{
		{Index: 0, Name: "eDP-1", Rect: image.Rect(0, 0, 1, 1)},
		{Index: 1, Name: "HDMI-1", Rect: image.Rect(1, 0, 2, 1), Primary: true},
	}

	tests := []struct {
		selector string
		wantName string
		wantErr  bool
	}{
		{selector: "", wantName: "eDP-1"},
		{selector: "primary", wantName: "HDMI-1"},
		{selector: "1", wantName: "HDMI-1"},
		{selector: "#0", wantName: "eDP-1"},
		{selector: "hdmi", wantName: "HDMI-1"},
		{selector: "9", wantErr: true},
		{selector: "dvi", wantErr: true},
	}
	for _, tc := range tests {
		mon, err := FindMonitor(monitors, tc.selector)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("selector %q: expected error", tc.selector)
			}
			continue
		}
		if err != nil {
			t.Fatalf("selector %q: %v", tc.selector, err)
		}
		if mon.Name != tc.wantName {
			t.Fatalf("selector %q resolved %q, want %q", tc.selector, mon.Name, tc.wantName)
		}
	}

	if _, err := FindMonitor(nil, "primary"); !errors.Is(err, errNoMonitors) {
		t.Fatalf("expected errNoMonitors, got %v", err)
	}
}
