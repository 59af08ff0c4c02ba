// Package hotkey registers the global capture shortcut.
package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.design/x/hotkey"
)

// Combo is a parsed shortcut like ctrl+shift+s.
type Combo struct {
	Mods []hotkey.Modifier
	Key  hotkey.Key
}

// ParseCombo parses a combo string. Parts are separated by '+'; every
// part except the last must be a modifier (ctrl, alt, shift, super).
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Combo{}, fmt.Errorf("empty hotkey combo %q", s)
	}
	var combo Combo
	for _, part := range parts[:len(parts)-1] {
		switch strings.TrimSpace(part) {
		case "ctrl", "control":
			combo.Mods = append(combo.Mods, hotkey.ModCtrl)
		case "alt", "option":
			combo.Mods = append(combo.Mods, hotkey.Mod1)
		case "shift":
			combo.Mods = append(combo.Mods, hotkey.ModShift)
		case "super", "win", "cmd", "meta":
			combo.Mods = append(combo.Mods, hotkey.Mod4)
		default:
			return Combo{}, fmt.Errorf("unknown modifier %q in combo %q", part, s)
		}
	}
	key, err := parseKey(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return Combo{}, fmt.Errorf("combo %q: %w", s, err)
	}
	combo.Key = key
	return combo, nil
}

func parseKey(name string) (hotkey.Key, error) {
	if len(name) == 1 {
		c := name[0]
		if c >= 'a' && c <= 'z' {
			return hotkey.Key(c - 'a' + 'A'), nil
		}
		if c >= '0' && c <= '9' {
			return hotkey.Key(c), nil
		}
	}
	switch name {
	case "f1":
		return hotkey.KeyF1, nil
	case "f2":
		return hotkey.KeyF2, nil
	case "f3":
		return hotkey.KeyF3, nil
	case "f4":
		return hotkey.KeyF4, nil
	case "f5":
		return hotkey.KeyF5, nil
	case "f6":
		return hotkey.KeyF6, nil
	case "f7":
		return hotkey.KeyF7, nil
	case "f8":
		return hotkey.KeyF8, nil
	case "f9":
		return hotkey.KeyF9, nil
	case "f10":
		return hotkey.KeyF10, nil
	case "f11":
		return hotkey.KeyF11, nil
	case "f12":
		return hotkey.KeyF12, nil
	case "space":
		return hotkey.KeySpace, nil
	case "return", "enter":
		return hotkey.KeyReturn, nil
	case "tab":
		return hotkey.KeyTab, nil
	case "up":
		return hotkey.KeyUp, nil
	case "down":
		return hotkey.KeyDown, nil
	case "left":
		return hotkey.KeyLeft, nil
	case "right":
		return hotkey.KeyRight, nil
	case "delete", "del":
		return hotkey.KeyDelete, nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// Listen registers the combo and forwards key-down events until the
// context is cancelled. The hotkey is unregistered on return.
func Listen(ctx context.Context, combo Combo) (<-chan struct{}, error) {
	hk := hotkey.New(combo.Mods, combo.Key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register hotkey: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := hk.Unregister(); err != nil {
				slog.Warn("unregister hotkey", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
