package cmd

import (
	"fmt"
	"log/slog"

	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/storage"
)

// Sector layout of a flash image: the profile record, then the mode flag.
const (
	profileSector = iota
	flagSector
	imageSectors
)

// FlashImage selects the on-disk flash image shared by the emulator and the
// offline profile and mode commands.
type FlashImage struct {
	Flash string `help:"Flash image file" default:"guitarcore.flash" type:"path" env:"GUITARCORE_FLASH"`
}

type image struct {
	file     *sim.FileFlash
	critical *sim.Critical
	profile  *storage.Block
	flag     *storage.Block
}

func (fi FlashImage) open(logger *slog.Logger) (*image, error) {
	ff, err := sim.OpenFileFlash(fi.Flash, imageSectors)
	if err != nil {
		return nil, fmt.Errorf("open flash image: %w", err)
	}
	logger.Debug("opened flash image", "path", fi.Flash, "sectors", imageSectors)
	crit := &sim.Critical{}
	return &image{
		file:     ff,
		critical: crit,
		profile:  storage.NewBlock(ff.Sector(profileSector), crit.Run, logger.With("sector", "profile")),
		flag:     storage.NewBlock(ff.Sector(flagSector), crit.Run, logger.With("sector", "flag")),
	}, nil
}

func (im *image) Close() error { return im.file.Close() }
