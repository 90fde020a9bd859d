package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bumblegum/guitarcore/profile"
)

// ProfileCommand groups the offline profile subcommands.
type ProfileCommand struct {
	Show     ProfileShow     `cmd:"" help:"Print the stored profile"`
	Set      ProfileSet      `cmd:"" help:"Replace the stored profile from a file"`
	Validate ProfileValidate `cmd:"" help:"Check a profile file without storing it"`
	Export   ProfileExport   `cmd:"" help:"Write the stored profile as json, yaml or toml"`
	Default  ProfileDefault  `cmd:"" help:"Print the default profile"`
	Erase    ProfileErase    `cmd:"" help:"Erase the stored profile; the next boot stores the defaults"`
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// formatFor picks the explicit format, or the one implied by the file
// extension, or JSON.
func formatFor(explicit, path string) (profile.Format, error) {
	if explicit != "" {
		return profile.ParseFormat(explicit)
	}
	if ext := filepath.Ext(path); ext != "" {
		if f, err := profile.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return profile.FormatJSON, nil
}

type ProfileShow struct {
	FlashImage `embed:""`
	out        io.Writer `kong:"-"`
}

func (c *ProfileShow) Run(logger *slog.Logger) error {
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	store := profile.NewStore(im.profile, logger)
	store.Load()
	_, err = fmt.Fprintln(stdout(c.out), string(store.Text()))
	return err
}

type ProfileSet struct {
	FlashImage `embed:""`
	File       string `arg:"" help:"Profile file" type:"existingfile"`
	Format     string `help:"Input format (json, yaml, toml); defaults to the file extension"`
}

func (c *ProfileSet) Run(logger *slog.Logger) error {
	p, err := readProfile(c.File, c.Format, logger)
	if err != nil {
		return err
	}
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	store := profile.NewStore(im.profile, logger)
	store.Load()
	if err := store.Replace(p); err != nil {
		return err
	}
	logger.Info("profile stored", "device", p.DeviceName, "usb_mode", p.USBMode)
	return nil
}

type ProfileValidate struct {
	File   string    `arg:"" help:"Profile file" type:"existingfile"`
	Format string    `help:"Input format (json, yaml, toml); defaults to the file extension"`
	out    io.Writer `kong:"-"`
}

func (c *ProfileValidate) Run(logger *slog.Logger) error {
	p, err := readProfile(c.File, c.Format, logger)
	if err != nil {
		return err
	}
	w := stdout(c.out)
	err = profile.Validate(p)
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintln(w, f.Error())
		}
		return fmt.Errorf("%s: %d invalid field(s)", c.File, len(verr.Fields))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok\n", c.File)
	return nil
}

type ProfileExport struct {
	FlashImage `embed:""`
	Format     string    `help:"Output format" enum:"json,yaml,yml,toml" default:"json"`
	Output     string    `help:"Destination file (defaults to stdout)" short:"o"`
	out        io.Writer `kong:"-"`
}

func (c *ProfileExport) Run(logger *slog.Logger) error {
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	store := profile.NewStore(im.profile, logger)
	return writeProfile(store.Load(), c.Format, c.Output, stdout(c.out))
}

type ProfileErase struct {
	FlashImage `embed:""`
	Yes        bool `help:"Confirm erasing the stored profile" short:"y"`
}

func (c *ProfileErase) Run(logger *slog.Logger) error {
	if !c.Yes {
		return errors.New("refusing to erase the stored profile without --yes")
	}
	im, err := c.open(logger)
	if err != nil {
		return err
	}
	defer im.Close()

	if err := profile.NewStore(im.profile, logger).Erase(); err != nil {
		return fmt.Errorf("erase profile: %w", err)
	}
	logger.Info("profile erased", "flash", c.Flash)
	return nil
}

type ProfileDefault struct {
	Format string    `help:"Output format" enum:"json,yaml,yml,toml" default:"json"`
	Output string    `help:"Destination file (defaults to stdout)" short:"o"`
	out    io.Writer `kong:"-"`
}

func (c *ProfileDefault) Run() error {
	return writeProfile(profile.Default(), c.Format, c.Output, stdout(c.out))
}

func readProfile(path, format string, logger *slog.Logger) (profile.Profile, error) {
	f, err := formatFor(format, path)
	if err != nil {
		return profile.Profile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, err
	}
	p, warnings, err := profile.Import(data, f)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("read %s: %w", path, err)
	}
	for _, w := range warnings {
		logger.Warn("profile key", "field", w.Field, "reason", w.Reason)
	}
	return p, nil
}

func writeProfile(p profile.Profile, format, dest string, w io.Writer) error {
	f, err := profile.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := profile.Export(p, f)
	if err != nil {
		return err
	}
	if dest == "" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
