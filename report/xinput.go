package report

import (
	"encoding/binary"
	"math"

	"github.com/bumblegum/guitarcore/input"
)

// XInputReportSize is the length of a console-style frame: a 2-byte header
// followed by a 20-byte payload.
const XInputReportSize = 22

// Button bitmasks of the console-style report (XInput compatible).
const (
	XInputDPadUp    = 0x0001
	XInputDPadDown  = 0x0002
	XInputDPadLeft  = 0x0004
	XInputDPadRight = 0x0008
	XInputStart     = 0x0010
	XInputBack      = 0x0020
	XInputLShoulder = 0x0100
	XInputGuide     = 0x0400
	XInputA         = 0x1000
	XInputB         = 0x2000
	XInputX         = 0x4000
	XInputY         = 0x8000
)

var xinputButtons = []struct {
	control input.Control
	mask    uint16
}{
	{input.Green, XInputA},
	{input.Red, XInputB},
	{input.Yellow, XInputY},
	{input.Blue, XInputX},
	{input.Orange, XInputLShoulder},
	{input.StrumUp, XInputDPadUp},
	{input.StrumDown, XInputDPadDown},
	{input.Start, XInputStart},
	{input.Select, XInputBack},
	{input.Guide, XInputGuide},
}

// XInputState is the console-style report before encoding.
type XInputState struct {
	Buttons uint16
	// Triggers: 0-255
	LT, RT uint8
	// Sticks: signed 16-bit
	LX, LY int16
	RX, RY int16
}

// XInputStateFrom maps a snapshot onto the console-style layout. The whammy
// drives the right stick X axis and the tilt sensor drives right stick Y at
// one of its extremes. Triggers are unused.
func XInputStateFrom(s input.Snapshot) XInputState {
	st := XInputState{
		LX: centered(s.JoyX),
		LY: centered(s.JoyY),
		RX: centered(s.Whammy),
		RY: math.MaxInt16,
	}
	for _, b := range xinputButtons {
		if s.Pressed(b.control) {
			st.Buttons |= b.mask
		}
	}
	if s.Tilted() {
		st.RY = math.MinInt16
	}

	up, down := s.Pressed(input.Up), s.Pressed(input.Down)
	left, right := s.Pressed(input.Left), s.Pressed(input.Right)
	if !s.DPadAsStick {
		if up {
			st.Buttons |= XInputDPadUp
		}
		if down {
			st.Buttons |= XInputDPadDown
		}
		if left {
			st.Buttons |= XInputDPadLeft
		}
		if right {
			st.Buttons |= XInputDPadRight
		}
		return st
	}
	switch axis(right, left) {
	case 1:
		st.LX = math.MaxInt16
	case -1:
		st.LX = math.MinInt16
	}
	switch axis(up, down) {
	case 1:
		st.LY = math.MaxInt16
	case -1:
		st.LY = math.MinInt16
	}
	return st
}

// centered maps 0..65535 onto -32768..32767.
func centered(v uint16) int16 {
	return int16(int32(v) - 0x8000)
}

// BuildReport encodes the state into the 22-byte console-style frame.
// Layout (indices in the returned slice):
//
//	 0: 0x00              - Message type
//	 1: 0x14              - Payload size (20 bytes)
//	 2: Buttons (low byte)
//	 3: Buttons (high byte)
//	 4: LT (0-255)
//	 5: RT (0-255)
//	 6-7: LX (little-endian int16)
//	 8-9: LY (little-endian int16)
//	10-11: RX (little-endian int16, whammy)
//	12-13: RY (little-endian int16, tilt)
//	14-21: Reserved / zero
func (x *XInputState) BuildReport() []byte {
	b := make([]byte, XInputReportSize)
	b[0] = 0x00
	b[1] = 0x14
	binary.LittleEndian.PutUint16(b[2:4], x.Buttons)
	b[4] = x.LT
	b[5] = x.RT
	binary.LittleEndian.PutUint16(b[6:8], uint16(x.LX))
	binary.LittleEndian.PutUint16(b[8:10], uint16(x.LY))
	binary.LittleEndian.PutUint16(b[10:12], uint16(x.RX))
	binary.LittleEndian.PutUint16(b[12:14], uint16(x.RY))
	return b
}
