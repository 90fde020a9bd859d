package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bumblegum/guitarcore/mode"
	"github.com/bumblegum/guitarcore/profile"
)

// ModeCommand groups the offline USB personality subcommands.
type ModeCommand struct {
	Get ModeGet `cmd:"" help:"Print the stored personality and any pending one-shot request"`
	Set ModeSet `cmd:"" help:"Store the personality used on the next boot"`
}

type ModeGet struct {
	FlashImage `embed:""`
	out        io.Writer `kong:"-"`
}

func (c *ModeGet) Run(logger *slog.Logger) error {
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	store := profile.NewStore(im.profile, logger)
	p := store.Load()
	w := stdout(c.out)
	if stored, err := mode.ParsePersonality(p.USBMode); err == nil {
		fmt.Fprintf(w, "stored: %s (%s)\n", stored, stored.Description())
	} else {
		fmt.Fprintf(w, "stored: %s\n", p.USBMode)
	}

	// The device clears the flag when it boots; only look at it here.
	pending := mode.NewBlockFlag(im.flag, logger).Peek()
	if next, ok := pending.Personality(); ok {
		fmt.Fprintf(w, "pending: %s (%s)\n", next, next.Description())
	} else {
		fmt.Fprintln(w, "pending: none")
	}
	return nil
}

type ModeSet struct {
	FlashImage `embed:""`
	Mode       string `arg:"" help:"Personality (hid or xinput)"`
	Once       bool   `help:"Only request the personality for the next boot, keeping the stored one"`
}

func (c *ModeSet) Run(logger *slog.Logger) error {
	p, err := mode.ParsePersonality(c.Mode)
	if err != nil {
		return err
	}
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	if c.Once {
		if err := mode.NewBlockFlag(im.flag, logger).Set(p); err != nil {
			return err
		}
		logger.Info("one-shot personality requested", "mode", p)
		return nil
	}
	store := profile.NewStore(im.profile, logger)
	store.Load()
	if err := store.SetStoredMode(p.String()); err != nil {
		return err
	}
	logger.Info("personality stored", "mode", p)
	return nil
}
