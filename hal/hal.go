// Package hal defines the hardware collaborators the firmware core talks to.
//
// A board build backs these with the microcontroller SDK; tests and the
// emulator use package sim.
package hal

import "time"

// SectorSize is the erase granularity of the configuration flash.
const SectorSize = 4096

// Pins reads digital input lines. Level returns the electrical level of the
// line (true = high). Inputs are wired with pull-ups, so a pressed switch
// reads low.
type Pins interface {
	Level(pin uint8) bool
}

// ADC reads analog channels as 16-bit counts (0..65535).
type ADC interface {
	Read(channel uint8) uint16
}

// Flash is one erase-aligned non-volatile sector.
//
// Erase sets every byte of the sector to 0xFF. Program may only clear bits,
// so programming over unerased data does not yield the requested bytes.
type Flash interface {
	ReadAt(p []byte, off int64) (int, error)
	Erase() error
	Program(data []byte) error
	Size() int
}

// Critical runs fn with every other activity on the core suspended.
// A board build masks interrupts; the host build only needs the caller's lock.
type Critical func(fn func())

// Clock is the monotonic time source of the core.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Resetter reboots the device. On hardware Reset does not return.
type Resetter interface {
	Reset()
}

// SystemClock is a Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Board bundles the collaborators of one device.
type Board struct {
	Pins     Pins
	ADC      ADC
	Clock    Clock
	Resetter Resetter
	Critical Critical
}
