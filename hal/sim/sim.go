// Package sim provides simulated hardware for tests and the emulator.
package sim

import (
	"sync"
	"time"
)

// Pins simulates pull-up input lines. Lines read high unless pressed.
type Pins struct {
	mu      sync.Mutex
	pressed map[uint8]bool
}

func NewPins() *Pins {
	return &Pins{pressed: map[uint8]bool{}}
}

// Press pulls the line low.
func (p *Pins) Press(pin uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pressed[pin] = true
}

// Release lets the line float back high.
func (p *Pins) Release(pin uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pressed, pin)
}

// Set presses or releases the line.
func (p *Pins) Set(pin uint8, pressed bool) {
	if pressed {
		p.Press(pin)
	} else {
		p.Release(pin)
	}
}

func (p *Pins) Level(pin uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.pressed[pin]
}

// ADC holds a fixed reading per channel.
type ADC struct {
	mu     sync.Mutex
	values map[uint8]uint16
}

func NewADC() *ADC {
	return &ADC{values: map[uint8]uint16{}}
}

func (a *ADC) Set(channel uint8, v uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[channel] = v
}

func (a *ADC) Read(channel uint8) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.values[channel]
}

// Clock is a manually advanced clock. Sleep advances it instead of blocking.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Unix(0, 0)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Sleep(d time.Duration) { c.Advance(d) }

// Resetter records reset requests.
type Resetter struct {
	mu    sync.Mutex
	count int
	hook  func()
}

// OnReset registers a function run on every reset.
func (r *Resetter) OnReset(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = fn
}

func (r *Resetter) Reset() {
	r.mu.Lock()
	r.count++
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Count returns how many resets were requested.
func (r *Resetter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Critical is a host stand-in for masking interrupts: sections run one at a
// time under a lock.
type Critical struct {
	mu      sync.Mutex
	count   sync.Mutex
	entered int
}

// Run is a hal.Critical.
func (c *Critical) Run(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count.Lock()
	c.entered++
	c.count.Unlock()
	fn()
}

// Entered returns how many sections have been run.
func (c *Critical) Entered() int {
	c.count.Lock()
	defer c.count.Unlock()
	return c.entered
}
