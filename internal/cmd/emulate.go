package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/bumblegum/guitarcore/command"
	"github.com/bumblegum/guitarcore/engine"
	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/input"
	"github.com/bumblegum/guitarcore/internal/log"
	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/usb"
)

type Emulate struct {
	FlashImage `embed:""`
	Hold       []string      `help:"Controls held while the device boots (e.g. green, red)" sep:","`
	Duration   time.Duration `help:"Stop after this long (0 runs until interrupted)" default:"0s"`
	Interval   time.Duration `help:"Report interval" default:"8ms" env:"GUITARCORE_INTERVAL"`
	Console    bool          `help:"Read console commands from stdin" default:"true" negatable:""`
}

// Run is called by Kong when the emulate command is executed.
func (e *Emulate) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if e.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Duration)
		defer cancel()
	}

	im, err := e.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	var in io.Reader
	if e.Console {
		in = os.Stdin
	}
	interactive := e.Console && term.IsTerminal(int(os.Stdin.Fd()))
	return e.emulate(ctx, im, in, os.Stdout, interactive, logger, rawLogger)
}

func (e *Emulate) emulate(ctx context.Context, im *image, in io.Reader, out io.Writer, interactive bool, logger *slog.Logger, rawLogger log.RawLogger) error {
	pins := sim.NewPins()
	adc := sim.NewADC()
	reset := &sim.Resetter{}

	held, err := e.heldLines(im, logger)
	if err != nil {
		return err
	}

	var lines <-chan string
	if in != nil {
		lines = readLines(in)
	}
	prompt := func() {
		if interactive {
			fmt.Fprint(out, "> ")
		}
	}

	for boot := 0; ; boot++ {
		bootCtx, cancelBoot := context.WithCancel(ctx)
		reset.OnReset(cancelBoot)

		s := engine.New(engine.Config{
			Board: hal.Board{
				Pins:     pins,
				ADC:      adc,
				Clock:    hal.SystemClock{},
				Resetter: reset,
				Critical: im.critical.Run,
			},
			ProfileFlash: im.file.Sector(profileSector),
			FlagFlash:    im.file.Sector(flagSector),
			Transport:    newFrameTransport(rawLogger, logger),
			Logger:       logger,
			Interval:     e.Interval,
		})

		if boot == 0 {
			for _, l := range held {
				pins.Press(l)
			}
		}
		err := s.Boot(bootCtx)
		for _, l := range held {
			pins.Release(l)
		}
		if err != nil {
			cancelBoot()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		centerSticks(adc, s.Profile())

		d := command.NewDispatcher(s, logger.With("component", "console"))
		if in != nil {
			for _, l := range d.Banner() {
				fmt.Fprintln(out, l)
			}
			prompt()
		}

		done := make(chan error, 1)
		go func() { done <- s.Run(bootCtx) }()

	serve:
		for {
			select {
			case <-bootCtx.Done():
				break serve
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				for _, l := range d.Handle(bootCtx, line) {
					fmt.Fprintln(out, l)
				}
				if !d.Writing() {
					prompt()
				}
			}
		}
		runErr := <-done
		cancelBoot()

		st := s.Stats()
		logger.Info("session ended", "steps", st.Steps, "sent", st.Sent, "dropped", st.Dropped, "failed", st.Failed)
		if runErr != nil {
			return runErr
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Info("device reset, rebooting", "boot", boot+1)
	}
}

// heldLines resolves --hold names to the lines wired in the stored profile.
func (e *Emulate) heldLines(im *image, logger *slog.Logger) ([]uint8, error) {
	if len(e.Hold) == 0 {
		return nil, nil
	}
	store := profile.NewStore(im.profile, logger.With("component", "profile"))
	w := input.WiringFromProfile(store.Load())
	var out []uint8
	for _, name := range e.Hold {
		c, ok := input.ParseControl(name)
		if !ok {
			return nil, fmt.Errorf("unknown control %q", name)
		}
		out = append(out, w.Lines[c]...)
	}
	return out, nil
}

// centerSticks rests the joystick channels at mid scale.
func centerSticks(adc *sim.ADC, p profile.Profile) {
	w := input.WiringFromProfile(p)
	for _, a := range []input.Analog{w.JoyX, w.JoyY} {
		if a.Present {
			adc.Set(a.Channel, input.AxisCenter)
		}
	}
}

func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		_ = command.ReadLines(r, func(line string) error {
			ch <- line
			return nil
		})
	}()
	return ch
}

// frameTransport stands in for the USB stack. The descriptors and every
// report that differs from the previous one go to the raw logger.
type frameTransport struct {
	raw    log.RawLogger
	logger *slog.Logger
	last   []byte
}

func newFrameTransport(raw log.RawLogger, logger *slog.Logger) *frameTransport {
	return &frameTransport{raw: raw, logger: logger}
}

func (t *frameTransport) Init(desc *usb.Descriptor) error {
	t.raw.Log(false, desc.Bytes())
	t.raw.Log(false, desc.ConfigurationBytes())
	t.logger.Info("usb device enumerated",
		"vid", fmt.Sprintf("%04x", desc.Device.IDVendor),
		"pid", fmt.Sprintf("%04x", desc.Device.IDProduct),
		"product", desc.Strings[desc.Device.IProduct])
	return nil
}

func (t *frameTransport) Task() {}

func (t *frameTransport) Ready() bool { return true }

func (t *frameTransport) Send(report []byte) error {
	if bytes.Equal(report, t.last) {
		return nil
	}
	t.last = slices.Clone(report)
	t.raw.Log(false, report)
	return nil
}
