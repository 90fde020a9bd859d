// Package input samples the controller's switches and potentiometers.
package input

import (
	"strconv"
	"sync"
	"time"

	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/profile"
)

// Control is a logical input of the controller.
type Control int

const (
	Green Control = iota
	Red
	Yellow
	Blue
	Orange
	StrumUp
	StrumDown
	Up
	Down
	Left
	Right
	Select
	Start
	Guide
	Tilt
	NumControls
)

var controlNames = [NumControls]string{
	"green", "red", "yellow", "blue", "orange", "strum_up", "strum_down",
	"up", "down", "left", "right", "select", "start", "guide", "tilt",
}

func (c Control) String() string {
	if c < 0 || c >= NumControls {
		return "Control(" + strconv.Itoa(int(c)) + ")"
	}
	return controlNames[c]
}

// ParseControl looks a control up by name.
func ParseControl(name string) (Control, bool) {
	for c, n := range controlNames {
		if n == name {
			return Control(c), true
		}
	}
	return 0, false
}

// Axis centre and full scale for 16-bit analog values.
const (
	AxisMax    = 0xFFFF
	AxisCenter = 0x8000
)

// firstADCLine is the GPIO line of ADC channel 0.
const firstADCLine = 26

// Analog is an ADC channel, if the assigned line has one.
type Analog struct {
	Channel uint8
	Present bool
}

// AnalogFor returns the ADC channel behind a GPIO line.
func AnalogFor(line uint8) Analog {
	if line < firstADCLine || line > profile.MaxGPIO {
		return Analog{}
	}
	return Analog{Channel: line - firstADCLine, Present: true}
}

// Wiring maps logical controls to physical lines.
type Wiring struct {
	// Lines lists every line of a control; any of them pressed presses it.
	Lines [NumControls][]uint8
	// Debounced marks controls read through a Debouncer.
	Debounced [NumControls]bool

	Whammy        Analog
	WhammyMin     uint32
	WhammyMax     uint32
	WhammyReverse bool

	JoyX Analog
	JoyY Analog

	DPadAsStick bool
}

// WiringFromProfile builds the wiring for p. The strum lines also drive the
// D-pad up and down directions, and the tilt sensor is debounced.
func WiringFromProfile(p profile.Profile) Wiring {
	var w Wiring
	add := func(c Control, pin profile.Pin) {
		if line, ok := p.GPIO(pin); ok {
			w.Lines[c] = append(w.Lines[c], line)
		}
	}
	add(Green, profile.PinGreen)
	add(Red, profile.PinRed)
	add(Yellow, profile.PinYellow)
	add(Blue, profile.PinBlue)
	add(Orange, profile.PinOrange)
	add(StrumUp, profile.PinStrumUp)
	add(StrumDown, profile.PinStrumDown)
	add(Up, profile.PinUp)
	add(Up, profile.PinStrumUp)
	add(Down, profile.PinDown)
	add(Down, profile.PinStrumDown)
	add(Left, profile.PinLeft)
	add(Right, profile.PinRight)
	add(Select, profile.PinSelect)
	add(Start, profile.PinStart)
	add(Guide, profile.PinGuide)
	add(Tilt, profile.PinTilt)
	w.Debounced[Tilt] = true

	if line, ok := p.GPIO(profile.PinWhammy); ok {
		w.Whammy = AnalogFor(line)
	}
	if line, ok := p.GPIO(profile.PinJoystickX); ok {
		w.JoyX = AnalogFor(line)
	}
	if line, ok := p.GPIO(profile.PinJoystickY); ok {
		w.JoyY = AnalogFor(line)
	}
	w.WhammyMin = p.WhammyMin
	w.WhammyMax = p.WhammyMax
	w.WhammyReverse = p.WhammyReverse
	w.DPadAsStick = p.HatMode == profile.HatJoystick
	return w
}

// Snapshot is one sampled, debounced and calibrated view of the inputs.
type Snapshot struct {
	Controls [NumControls]bool

	// Whammy is 0 at rest and AxisMax fully depressed.
	Whammy uint16
	JoyX   uint16
	JoyY   uint16

	DPadAsStick bool
}

// Pressed reports whether c is active.
func (s Snapshot) Pressed(c Control) bool {
	if c < 0 || c >= NumControls {
		return false
	}
	return s.Controls[c]
}

// Tilted reports whether the tilt sensor is active.
func (s Snapshot) Tilted() bool { return s.Controls[Tilt] }

// Sampler reads the board through a Wiring. It owns the debounce state.
type Sampler struct {
	mu       sync.Mutex
	pins     hal.Pins
	adc      hal.ADC
	wiring   Wiring
	window   time.Duration
	debounce [NumControls]*Debouncer
}

func NewSampler(pins hal.Pins, adc hal.ADC, wiring Wiring) *Sampler {
	s := &Sampler{pins: pins, adc: adc, window: DefaultDebounce}
	s.SetWiring(wiring)
	return s
}

// SetWiring replaces the wiring. Debounce state of controls that stay
// debounced is kept.
func (s *Sampler) SetWiring(w Wiring) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wiring = w
	for c := Control(0); c < NumControls; c++ {
		switch {
		case !w.Debounced[c]:
			s.debounce[c] = nil
		case s.debounce[c] == nil:
			s.debounce[c] = NewDebouncer(s.window)
		}
	}
}

// Sample reads every control and axis.
func (s *Sampler) Sample(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{DPadAsStick: s.wiring.DPadAsStick, JoyX: AxisCenter, JoyY: AxisCenter}
	for c := Control(0); c < NumControls; c++ {
		pressed := false
		for _, line := range s.wiring.Lines[c] {
			if !s.pins.Level(line) {
				pressed = true
			}
		}
		if d := s.debounce[c]; d != nil {
			pressed = d.Update(pressed, now)
		}
		snap.Controls[c] = pressed
	}

	if s.adc == nil {
		return snap
	}
	if a := s.wiring.Whammy; a.Present {
		raw := uint32(s.adc.Read(a.Channel))
		snap.Whammy = uint16(Calibrate(raw, s.wiring.WhammyMin, s.wiring.WhammyMax, s.wiring.WhammyReverse, AxisMax))
	}
	if a := s.wiring.JoyX; a.Present {
		snap.JoyX = s.adc.Read(a.Channel)
	}
	if a := s.wiring.JoyY; a.Present {
		snap.JoyY = s.adc.Read(a.Channel)
	}
	return snap
}
