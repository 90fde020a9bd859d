// Package engine wires the profile store, mode arbiter, sampler and report
// encoder into one device session and runs its cooperative loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/input"
	"github.com/bumblegum/guitarcore/mode"
	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/report"
	"github.com/bumblegum/guitarcore/storage"
	"github.com/bumblegum/guitarcore/usb"
)

// DefaultInterval is the report cadence (125 Hz).
const DefaultInterval = 8 * time.Millisecond

// Version is the firmware version reported by the command surface.
const Version = "4.0.0"

// Transport is the USB device stack. Task must be called every loop
// iteration; Send is only called when Ready reports true.
type Transport interface {
	Init(desc *usb.Descriptor) error
	Task()
	Ready() bool
	Send(report []byte) error
}

// Config holds the collaborators of a Session.
type Config struct {
	Board     hal.Board
	Transport Transport
	Logger    *slog.Logger

	// ProfileFlash and FlagFlash are the sectors holding the profile record
	// and the one-shot mode flag. Writes to both run inside Board.Critical.
	ProfileFlash hal.Flash
	FlagFlash    hal.Flash

	// Interval defaults to DefaultInterval.
	Interval time.Duration
	// Settle overrides the boot combo settle delay when non-zero.
	Settle time.Duration
}

// Stats counts what happened to encoded frames.
type Stats struct {
	Steps   uint64
	Sent    uint64
	Dropped uint64 // due but the transport was not ready
	Failed  uint64 // Send returned an error
}

// Session is one boot of the device. It owns all mutable state.
type Session struct {
	board     hal.Board
	transport Transport
	logger    *slog.Logger
	interval  time.Duration

	store   *profile.Store
	flags   mode.FlagStore
	arbiter *mode.Arbiter
	sampler *input.Sampler

	mu          sync.Mutex
	booted      bool
	personality mode.Personality
	source      mode.Source
	lastSend    time.Time
	sentAny     bool
	stats       Stats
}

func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Board.Clock == nil {
		cfg.Board.Clock = hal.SystemClock{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	profileBlock := storage.NewBlock(cfg.ProfileFlash, cfg.Board.Critical, logger.With("sector", "profile"))
	flagBlock := storage.NewBlock(cfg.FlagFlash, cfg.Board.Critical, logger.With("sector", "flag"))
	store := profile.NewStore(profileBlock, logger.With("component", "profile"))
	flags := mode.NewBlockFlag(flagBlock, logger.With("component", "mode"))
	arbiter := mode.NewArbiter(flags, store, cfg.Board, logger.With("component", "mode"))
	if cfg.Settle > 0 {
		arbiter.Settle = cfg.Settle
	}
	return &Session{
		board:     cfg.Board,
		transport: cfg.Transport,
		logger:    logger,
		interval:  interval,
		store:     store,
		flags:     flags,
		arbiter:   arbiter,
		sampler:   input.NewSampler(cfg.Board.Pins, cfg.Board.ADC, input.WiringFromProfile(store.Active())),
	}
}

// Boot loads the profile, resolves the personality and brings up the
// transport with that personality's descriptors.
func (s *Session) Boot(ctx context.Context) error {
	prof := s.store.Load()

	p, src, err := s.arbiter.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve personality: %w", err)
	}

	s.sampler.SetWiring(input.WiringFromProfile(s.store.Active()))

	desc := usb.DescriptorFor(p)
	if p == mode.HID {
		desc = desc.WithProduct(prof.DeviceName)
	}
	if err := s.transport.Init(desc); err != nil {
		return fmt.Errorf("init transport: %w", err)
	}

	s.mu.Lock()
	s.booted = true
	s.personality = p
	s.source = src
	s.mu.Unlock()
	s.logger.Info("device booted",
		"personality", p,
		"source", src,
		"device", prof.DeviceName,
		"report_bytes", report.Size(p),
		"interval", s.interval)
	return nil
}

// Step runs one loop iteration: service the transport, sample, encode and
// hand the frame off if it is due and the transport can take it. A frame
// that cannot be sent is dropped, never queued. Step does nothing before
// Boot.
func (s *Session) Step() {
	if !s.isBooted() {
		return
	}
	s.transport.Task()

	now := s.board.Clock.Now()
	snap := s.sampler.Sample(now)

	s.mu.Lock()
	p := s.personality
	s.stats.Steps++
	due := !s.sentAny || now.Sub(s.lastSend) >= s.interval
	s.mu.Unlock()

	frame := report.Encode(snap, p)
	if !due {
		return
	}
	if !s.transport.Ready() {
		s.mu.Lock()
		s.stats.Dropped++
		s.mu.Unlock()
		return
	}

	err := s.transport.Send(frame)
	s.mu.Lock()
	s.lastSend = now
	s.sentAny = true
	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Sent++
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("report send failed", "error", err)
	}
}

// Run loops Step until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if !s.isBooted() {
		return errors.New("session not booted")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.Step()
		runtime.Gosched()
	}
}

func (s *Session) isBooted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booted
}

// Stats returns a copy of the frame counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Source returns the rule that picked the running personality.
func (s *Session) Source() mode.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Snapshot samples the inputs without advancing the loop. Before Boot the
// wiring is that of the default profile.
func (s *Session) Snapshot() input.Snapshot {
	return s.sampler.Sample(s.board.Clock.Now())
}
