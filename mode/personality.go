// Package mode decides which USB personality the device boots into.
package mode

import (
	"fmt"
	"strings"
)

// Personality is the USB identity presented to the host.
type Personality uint8

const (
	// HID is the generic joystick personality.
	HID Personality = iota
	// XInput is the console-style personality.
	XInput
)

func (p Personality) String() string {
	switch p {
	case HID:
		return "hid"
	case XInput:
		return "xinput"
	default:
		return fmt.Sprintf("Personality(%d)", uint8(p))
	}
}

// Description is the human-readable name reported to the desktop tool.
func (p Personality) Description() string {
	switch p {
	case HID:
		return "generic joystick"
	case XInput:
		return "console-style gamepad"
	default:
		return "unknown"
	}
}

// ParsePersonality accepts the stored names and the aliases the desktop
// tool sends.
func ParsePersonality(s string) (Personality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hid", "joystick", "gamepad":
		return HID, nil
	case "xinput":
		return XInput, nil
	default:
		return 0, fmt.Errorf("unknown personality %q (want hid or xinput)", s)
	}
}
