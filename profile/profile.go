// Package profile holds the device profile and the store that keeps it in
// flash.
package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Pin identifies one of the profile's line assignments.
type Pin int

const (
	PinUp Pin = iota
	PinDown
	PinLeft
	PinRight
	PinGreen
	PinRed
	PinYellow
	PinBlue
	PinOrange
	PinStrumUp
	PinStrumDown
	PinTilt
	PinSelect
	PinStart
	PinGuide
	PinWhammy
	PinNeopixel
	PinJoystickX
	PinJoystickY
	NumPins
)

var pinKeys = [NumPins]string{
	"UP", "DOWN", "LEFT", "RIGHT",
	"GREEN_FRET", "RED_FRET", "YELLOW_FRET", "BLUE_FRET", "ORANGE_FRET",
	"STRUM_UP", "STRUM_DOWN", "TILT",
	"SELECT", "START", "GUIDE",
	"WHAMMY", "neopixel_pin", "joystick_x_pin", "joystick_y_pin",
}

func (p Pin) String() string {
	if p < 0 || p >= NumPins {
		return "Pin(" + strconv.Itoa(int(p)) + ")"
	}
	return pinKeys[p]
}

// LED identifies one of the seven addressable LED slots.
type LED int

const (
	LEDGreen LED = iota
	LEDRed
	LEDYellow
	LEDBlue
	LEDOrange
	LEDStrumUp
	LEDStrumDown
	NumLEDs
)

var ledKeys = [NumLEDs]string{
	"GREEN_FRET_led", "RED_FRET_led", "YELLOW_FRET_led", "BLUE_FRET_led",
	"ORANGE_FRET_led", "STRUM_UP_led", "STRUM_DOWN_led",
}

func (l LED) String() string {
	if l < 0 || l >= NumLEDs {
		return "LED(" + strconv.Itoa(int(l)) + ")"
	}
	return ledKeys[l]
}

// HatMode selects what the direction controls drive.
type HatMode string

const (
	HatDPad     HatMode = "dpad"
	HatJoystick HatMode = "joystick"
)

// Stored USB personality names.
const (
	USBModeHID    = "hid"
	USBModeXInput = "xinput"
)

// MaxGPIO is the highest line number on the board.
const MaxGPIO = 29

type Metadata struct {
	Version     string
	Description string
	LastUpdated string
}

// Profile is the user-editable device configuration.
type Profile struct {
	Metadata        Metadata
	DeviceName      string
	Pins            [NumPins]string
	LEDs            [NumLEDs]int
	LEDBrightness   float64
	WhammyMin       uint32
	WhammyMax       uint32
	WhammyReverse   bool
	TiltWaveEnabled bool
	HatMode         HatMode
	LEDColor        [NumLEDs]string
	ReleasedColor   [NumLEDs]string
	USBMode         string
}

// Default returns the factory profile.
func Default() Profile {
	return Profile{
		Metadata: Metadata{
			Version:     "4.0.0",
			Description: "BumbleGum Guitar Controller Configuration",
			LastUpdated: "2025-08-21",
		},
		DeviceName: "Guitar Controller",
		Pins: [NumPins]string{
			PinUp:        "GP2",
			PinDown:      "GP3",
			PinLeft:      "GP4",
			PinRight:     "GP5",
			PinGreen:     "GP10",
			PinRed:       "GP11",
			PinYellow:    "GP12",
			PinBlue:      "GP13",
			PinOrange:    "GP14",
			PinStrumUp:   "GP7",
			PinStrumDown: "GP8",
			PinTilt:      "GP9",
			PinSelect:    "GP0",
			PinStart:     "GP1",
			PinGuide:     "GP6",
			PinWhammy:    "GP27",
			PinNeopixel:  "GP23",
			PinJoystickX: "GP28",
			PinJoystickY: "GP29",
		},
		LEDs: [NumLEDs]int{
			LEDGreen:     6,
			LEDRed:       5,
			LEDYellow:    4,
			LEDBlue:      3,
			LEDOrange:    2,
			LEDStrumUp:   0,
			LEDStrumDown: 1,
		},
		LEDBrightness:   1.0,
		WhammyMin:       500,
		WhammyMax:       65000,
		WhammyReverse:   false,
		TiltWaveEnabled: true,
		HatMode:         HatDPad,
		LEDColor: [NumLEDs]string{
			"#FFFFFF", "#FFFFFF", "#B33E00", "#0000FF", "#FFFF00", "#FF0000", "#00FF00",
		},
		ReleasedColor: [NumLEDs]string{
			"#454545", "#454545", "#521C00", "#000091", "#696B00", "#8C0009", "#003D00",
		},
		USBMode: USBModeHID,
	}
}

// ParseGPIO parses a line assignment of the form "GP<n>".
func ParseGPIO(s string) (uint8, error) {
	digits, ok := strings.CutPrefix(s, "GP")
	if !ok {
		return 0, fmt.Errorf("%q does not start with GP", s)
	}
	if digits == "" || len(digits) > 2 {
		return 0, fmt.Errorf("%q is not GP0-GP%d", s, MaxGPIO)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not GP0-GP%d", s, MaxGPIO)
		}
	}
	n, _ := strconv.Atoi(digits)
	if n > MaxGPIO {
		return 0, fmt.Errorf("%q is not GP0-GP%d", s, MaxGPIO)
	}
	return uint8(n), nil
}

// GPIO returns the line number assigned to pin.
func (p *Profile) GPIO(pin Pin) (uint8, bool) {
	if pin < 0 || pin >= NumPins {
		return 0, false
	}
	n, err := ParseGPIO(p.Pins[pin])
	return n, err == nil
}
