package report

import (
	"encoding/binary"

	"github.com/bumblegum/guitarcore/input"
)

// HIDReportSize is the length of a generic joystick report.
const HIDReportSize = 7

// Button bitmasks of the generic joystick report.
const (
	HIDButtonGreen     = 1 << 0
	HIDButtonRed       = 1 << 1
	HIDButtonYellow    = 1 << 2
	HIDButtonBlue      = 1 << 3
	HIDButtonOrange    = 1 << 4
	HIDButtonSelect    = 1 << 5
	HIDButtonStart     = 1 << 6
	HIDButtonGuide     = 1 << 7
	HIDButtonStrumUp   = 1 << 8
	HIDButtonStrumDown = 1 << 9
	HIDButtonTilt      = 1 << 10
)

var hidButtons = []struct {
	control input.Control
	mask    uint16
}{
	{input.Green, HIDButtonGreen},
	{input.Red, HIDButtonRed},
	{input.Yellow, HIDButtonYellow},
	{input.Blue, HIDButtonBlue},
	{input.Orange, HIDButtonOrange},
	{input.Select, HIDButtonSelect},
	{input.Start, HIDButtonStart},
	{input.Guide, HIDButtonGuide},
	{input.StrumUp, HIDButtonStrumUp},
	{input.StrumDown, HIDButtonStrumDown},
	{input.Tilt, HIDButtonTilt},
}

// HIDState is the generic joystick report before encoding.
type HIDState struct {
	Buttons uint16
	Hat     uint8
	// Axes: 0-255
	X, Y, Z, Rz uint8
}

// HIDStateFrom maps a snapshot onto the generic joystick layout. The
// whammy drives Z and the tilt sensor drives Rz at one of its extremes.
func HIDStateFrom(s input.Snapshot) HIDState {
	st := HIDState{
		Hat: HatCenter,
		X:   uint8(s.JoyX >> 8),
		Y:   uint8(s.JoyY >> 8),
		Z:   uint8(s.Whammy >> 8),
		Rz:  0xFF,
	}
	for _, b := range hidButtons {
		if s.Pressed(b.control) {
			st.Buttons |= b.mask
		}
	}
	if s.Tilted() {
		st.Rz = 0x00
	}

	up, down := s.Pressed(input.Up), s.Pressed(input.Down)
	left, right := s.Pressed(input.Left), s.Pressed(input.Right)
	if !s.DPadAsStick {
		st.Hat = Hat(up, down, left, right)
		return st
	}
	switch axis(right, left) {
	case 1:
		st.X = 0xFF
	case -1:
		st.X = 0x00
	}
	switch axis(down, up) {
	case 1:
		st.Y = 0xFF
	case -1:
		st.Y = 0x00
	}
	return st
}

// BuildReport encodes the state into the 7-byte generic joystick report.
// Layout (indices in the returned slice):
//
//	0: Buttons (low byte)
//	1: Buttons (high byte)
//	2: Hat (0-7 clockwise from N, 8 centre)
//	3: X  (joystick X)
//	4: Y  (joystick Y)
//	5: Z  (whammy)
//	6: Rz (tilt: 0x00 tilted, 0xFF level)
func (h *HIDState) BuildReport() []byte {
	b := make([]byte, HIDReportSize)
	binary.LittleEndian.PutUint16(b[0:2], h.Buttons)
	b[2] = h.Hat
	b[3] = h.X
	b[4] = h.Y
	b[5] = h.Z
	b[6] = h.Rz
	return b
}
