package mode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/profile"
)

// DefaultSettle is how long the boot combo lines are left to settle before
// they are sampled.
const DefaultSettle = 50 * time.Millisecond

// Source says which rule picked the boot personality.
type Source int

const (
	SourceProfile Source = iota
	SourceFlag
	SourceCombo
)

func (s Source) String() string {
	switch s {
	case SourceFlag:
		return "flag"
	case SourceCombo:
		return "combo"
	default:
		return "profile"
	}
}

// ProfileStore is the part of profile.Store the arbiter needs.
type ProfileStore interface {
	Active() profile.Profile
	SetStoredMode(name string) error
}

// Arbiter picks the personality at boot and performs switches, which always
// go through a reset.
type Arbiter struct {
	flags    FlagStore
	profiles ProfileStore
	board    hal.Board
	logger   *slog.Logger

	// Settle defaults to DefaultSettle.
	Settle time.Duration

	mu       sync.Mutex
	running  Personality
	resolved bool
}

func NewArbiter(flags FlagStore, profiles ProfileStore, board hal.Board, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{flags: flags, profiles: profiles, board: board, logger: logger, Settle: DefaultSettle}
}

// Resolve decides the boot personality. A pending one-shot flag wins, then a
// held boot combo, then the stored profile setting. Flag and combo choices
// are written back to the profile so they stick on later boots.
func (a *Arbiter) Resolve(ctx context.Context) (Personality, Source, error) {
	flag, err := a.flags.Consume()
	if err != nil {
		a.logger.Error("mode flag not cleared", "error", err)
	}
	if p, ok := flag.Personality(); ok {
		a.remember(p)
		return a.settle(p, SourceFlag), SourceFlag, nil
	}

	if p, ok, err := a.bootCombo(ctx); err != nil {
		return 0, 0, err
	} else if ok {
		a.remember(p)
		return a.settle(p, SourceCombo), SourceCombo, nil
	}

	stored := a.profiles.Active().USBMode
	p, err := ParsePersonality(stored)
	if err != nil {
		a.logger.Warn("stored usb mode unusable, using hid", "usb_mode", stored)
		p = HID
	}
	return a.settle(p, SourceProfile), SourceProfile, nil
}

func (a *Arbiter) settle(p Personality, src Source) Personality {
	a.mu.Lock()
	a.running = p
	a.resolved = true
	a.mu.Unlock()
	a.logger.Info("usb personality selected", "personality", p, "source", src)
	return p
}

func (a *Arbiter) remember(p Personality) {
	if err := a.profiles.SetStoredMode(p.String()); err != nil {
		a.logger.Error("failed to store usb mode", "personality", p, "error", err)
	}
}

// bootCombo samples the green and red fret lines. Green alone selects
// XInput and red alone selects HID; both or neither is no request.
func (a *Arbiter) bootCombo(ctx context.Context) (Personality, bool, error) {
	prof := a.profiles.Active()
	green, gok := prof.GPIO(profile.PinGreen)
	red, rok := prof.GPIO(profile.PinRed)
	if !gok || !rok || a.board.Pins == nil {
		return 0, false, nil
	}

	if a.board.Clock != nil {
		a.board.Clock.Sleep(a.Settle)
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	greenHeld := !a.board.Pins.Level(green)
	redHeld := !a.board.Pins.Level(red)
	a.logger.Debug("boot combo sampled", "green", greenHeld, "red", redHeld)
	switch {
	case greenHeld && !redHeld:
		return XInput, true, nil
	case redHeld && !greenHeld:
		return HID, true, nil
	default:
		return 0, false, nil
	}
}

// Running returns the personality chosen by Resolve.
func (a *Arbiter) Running() Personality {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Switch requests p for the next boot and resets. Asking for the running
// personality does nothing.
func (a *Arbiter) Switch(p Personality) error {
	a.mu.Lock()
	same := a.resolved && a.running == p
	a.mu.Unlock()
	if same {
		return nil
	}
	if err := a.flags.Set(p); err != nil {
		return err
	}
	a.logger.Info("switching usb personality", "from", a.Running(), "to", p)
	if a.board.Resetter != nil {
		a.board.Resetter.Reset()
	}
	return nil
}
