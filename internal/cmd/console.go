package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/bumblegum/guitarcore/internal/log"
)

// Console sends one command line to a controller's serial console and prints
// what comes back until the line goes quiet.
type Console struct {
	Port    string        `help:"Serial port of the controller" required:"" env:"GUITARCORE_PORT"`
	Baud    int           `help:"Baud rate" default:"115200"`
	Timeout time.Duration `help:"Stop reading after this long without output" default:"2s"`
	File    string        `help:"Send this file with WRITEFILE:<name>" type:"existingfile"`
	Command []string      `arg:"" optional:"" help:"Command words, e.g. GET_MODE or SET_MODE xinput"`
	out     io.Writer     `kong:"-"`
}

// Run is called by Kong when the console command is executed.
func (c *Console) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	lines, err := c.request()
	if err != nil {
		return err
	}

	port, err := serial.Open(c.Port, &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Port, err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(c.Timeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.Debug("could not flush serial input", "error", err)
	}

	logger.Debug("console connected", "port", c.Port, "baud", c.Baud)
	return c.exchange(port, lines, logger, rawLogger)
}

// request builds the lines to send.
func (c *Console) request() ([]string, error) {
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(c.File)
		lines := []string{"WRITEFILE:" + name}
		lines = append(lines, strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")...)
		return append(lines, "END_FILE"), nil
	}
	if len(c.Command) == 0 {
		return nil, errors.New("no command given")
	}
	return []string{strings.Join(c.Command, " ")}, nil
}

// exchange writes lines and copies the reply to the output. The serial port
// returns an empty read once its timeout passes with no data; that ends the
// reply.
func (c *Console) exchange(rw io.ReadWriter, lines []string, logger *slog.Logger, rawLogger log.RawLogger) error {
	for _, l := range lines {
		b := []byte(l + "\n")
		rawLogger.Log(true, b)
		if _, err := rw.Write(b); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	out := stdout(c.out)
	var pending []byte
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			rawLogger.Log(false, buf[:n])
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				fmt.Fprintln(out, strings.TrimRight(string(pending[:i]), "\r"))
				pending = pending[i+1:]
			}
		}
		if n == 0 || err != nil {
			if len(pending) > 0 {
				fmt.Fprintln(out, strings.TrimRight(string(pending), "\r"))
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			logger.Debug("console reply complete")
			return nil
		}
	}
}
