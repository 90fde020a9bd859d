// Package report encodes input snapshots into the wire reports of each USB
// personality.
package report

import (
	"github.com/bumblegum/guitarcore/input"
	"github.com/bumblegum/guitarcore/mode"
)

// Builder is a report state that can encode itself for USB transfer.
type Builder interface {
	// BuildReport returns a freshly allocated report.
	BuildReport() []byte
}

// For returns the report state of s for personality p.
func For(s input.Snapshot, p mode.Personality) Builder {
	if p == mode.XInput {
		st := XInputStateFrom(s)
		return &st
	}
	st := HIDStateFrom(s)
	return &st
}

// Encode returns the wire report of s for personality p.
func Encode(s input.Snapshot, p mode.Personality) []byte {
	return For(s, p).BuildReport()
}

// EncodeHID returns the generic joystick report of s.
func EncodeHID(s input.Snapshot) []byte {
	st := HIDStateFrom(s)
	return st.BuildReport()
}

// EncodeXInput returns the console-style frame of s.
func EncodeXInput(s input.Snapshot) []byte {
	st := XInputStateFrom(s)
	return st.BuildReport()
}

// Size returns the report length of personality p.
func Size(p mode.Personality) int {
	if p == mode.XInput {
		return XInputReportSize
	}
	return HIDReportSize
}
