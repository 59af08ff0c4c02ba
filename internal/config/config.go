// Package config loads the ClipDeck configuration from a TOML file in the
// user config directory, creating it with defaults on first run.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Hotkey  HotkeyConfig  `toml:"hotkey"`
	History HistoryConfig `toml:"history"`
	Capture CaptureConfig `toml:"capture"`
	Notify  NotifyConfig  `toml:"notify"`
	Drawing DrawingConfig `toml:"drawing"`
	Log     LogConfig     `toml:"log"`
}

type HotkeyConfig struct {
	// Combo triggers a capture session, e.g. "ctrl+shift+s".
	Combo string `toml:"combo"`
}

type HistoryConfig struct {
	// MaxItems bounds the unpinned history; older entries are pruned.
	MaxItems int `toml:"max_items"`
	// MonitorIntervalMs is the clipboard poll fallback interval.
	MonitorIntervalMs int `toml:"monitor_interval_ms"`
}

type CaptureConfig struct {
	// SaveDir receives exported captures. Empty means
	// $XDG_DATA_HOME/clipdeck/captures.
	SaveDir string `toml:"save_dir"`
}

type NotifyConfig struct {
	Capture bool `toml:"capture"`
	Save    bool `toml:"save"`
	Copy    bool `toml:"copy"`
}

type DrawingConfig struct {
	// StrokeColor is a hex color like "#e53935".
	StrokeColor string  `toml:"stroke_color"`
	StrokeWidth float64 `toml:"stroke_width"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Hotkey:  HotkeyConfig{Combo: "ctrl+shift+s"},
		History: HistoryConfig{MaxItems: 200, MonitorIntervalMs: 500},
		Capture: CaptureConfig{SaveDir: ""},
		Notify:  NotifyConfig{Capture: true, Save: true, Copy: true},
		Drawing: DrawingConfig{StrokeColor: "#e53935", StrokeWidth: 3},
		Log:     LogConfig{Level: "info", Format: "auto"},
	}
}

// Dir returns the ClipDeck config directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	dir := filepath.Join(base, "clipdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path, writing out the defaults first if the
// file does not exist. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as TOML.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// SaveDir resolves the capture save directory, creating it if needed.
func (c *Config) ResolveSaveDir() (string, error) {
	dir := c.Capture.SaveDir
	if dir == "" {
		base, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		dir = filepath.Join(base, ".local", "share", "clipdeck", "captures")
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "clipdeck", "captures")
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create save dir: %w", err)
	}
	return dir, nil
}

// StrokeColor parses the configured hex color, falling back to the default
// on a malformed value.
func (c *Config) StrokeColor() color.RGBA {
	col, err := ParseHexColor(c.Drawing.StrokeColor)
	if err != nil {
		col, _ = ParseHexColor(defaultConfig().Drawing.StrokeColor)
	}
	return col
}

// ParseHexColor parses "#rgb" or "#rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) == 0 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color %q: expected leading #", s)
	}
	hex := s[1:]
	nib := func(b byte) (uint8, error) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', nil
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, nil
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, nil
		}
		return 0, fmt.Errorf("color %q: bad hex digit %q", s, b)
	}
	switch len(hex) {
	case 3:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := nib(hex[i])
			if err != nil {
				return color.RGBA{}, err
			}
			out[i] = v*16 + v
		}
		return color.RGBA{R: out[0], G: out[1], B: out[2], A: 0xff}, nil
	case 6:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			hi, err := nib(hex[2*i])
			if err != nil {
				return color.RGBA{}, err
			}
			lo, err := nib(hex[2*i+1])
			if err != nil {
				return color.RGBA{}, err
			}
			out[i] = hi*16 + lo
		}
		return color.RGBA{R: out[0], G: out[1], B: out[2], A: 0xff}, nil
	}
	return color.RGBA{}, fmt.Errorf("color %q: expected 3 or 6 hex digits", s)
}
