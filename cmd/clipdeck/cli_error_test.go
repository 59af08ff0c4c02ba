package main

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/clipdeck/internal/capture"
	"github.com/example/clipdeck/internal/store"
)

func TestCaptureRunCaptureError(t *testing.T) {
	original := captureDisplaysFn
	sentinel := errors.New("portal denied")
	captureDisplaysFn = func(capture.Options) ([]capture.Display, error) { return nil, sentinel }
	t.Cleanup(func() { captureDisplaysFn = original })

	cmd := &captureCmd{root: &root{program: "clipdeck"}}
	if err := cmd.Run(); err == nil {
		t.Fatalf("expected error")
	} else {
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
		if want := "failed to capture screen"; !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to contain %q, got %v", want, err)
		}
	}
}

func TestCaptureRawWritesFile(t *testing.T) {
	original := captureDisplayFn
	captureDisplayFn = func(string, capture.Options) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}
	t.Cleanup(func() { captureDisplayFn = original })

	out := filepath.Join(t.TempDir(), "shot.png")
	cmd := &captureCmd{root: &root{program: "clipdeck"}, raw: true, out: out}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if len(data) == 0 || string(data[1:4]) != "PNG" {
		t.Fatalf("output is not a PNG")
	}
}

func TestParseCaptureRegionRequiresRaw(t *testing.T) {
	r := &root{program: "clipdeck"}
	_, err := parseCaptureCmd([]string{"-region"}, r)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "-region requires -raw"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseCaptureOutRequiresRaw(t *testing.T) {
	r := &root{program: "clipdeck"}
	_, err := parseCaptureCmd([]string{"-out", "x.png"}, r)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "-out requires -raw"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseHistorySearchRequiresPattern(t *testing.T) {
	r := &root{program: "clipdeck"}
	_, err := parseHistoryCmd([]string{"search"}, r)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "requires a pattern"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseHistoryPinRequiresID(t *testing.T) {
	r := &root{program: "clipdeck"}
	_, err := parseHistoryCmd([]string{"pin"}, r)
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "requires an entry id"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseHistoryUnknownOp(t *testing.T) {
	r := &root{program: "clipdeck"}
	_, err := parseHistoryCmd([]string{"frobnicate"}, r)
	if err == nil {
		t.Fatalf("expected usage error")
	}
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UsageError, got %T", err)
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	if _, err := parseID("seven"); err == nil {
		t.Fatalf("expected error")
	}
	id, err := parseID("42")
	if err != nil || id != 42 {
		t.Fatalf("parseID(42) = %d, %v", id, err)
	}
}

func TestContentLabel(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := contentLabel(store.Item{Kind: store.KindText, Content: long})
	if len([]rune(got)) > 48 {
		t.Fatalf("label too long: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}

	got = contentLabel(store.Item{Kind: store.KindText, Content: "line one\nline two"})
	if strings.Contains(got, "\n") {
		t.Fatalf("label keeps newlines: %q", got)
	}

	got = contentLabel(store.Item{Kind: store.KindImage, Content: "/data/captures/capture_20260829_120000.png"})
	if got != "[img] capture_20260829_120000.png" {
		t.Fatalf("image label = %q", got)
	}

	pinned := recentLabel(store.Item{Kind: store.KindText, Content: "hello", Pinned: true})
	if pinned != "* hello" {
		t.Fatalf("pinned label = %q", pinned)
	}
}
