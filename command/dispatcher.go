package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bumblegum/guitarcore/mode"
)

// BuildDate is reported by VERSION. Set with -ldflags at build time.
var BuildDate = "unknown"

// Features lists what VERSION advertises.
var Features = []string{"xinput", "hid", "config_switching"}

// Device is what the command surface drives.
type Device interface {
	ConfigSource
	Mode() mode.Personality
	SetMode(name string) error
	Restart() error
	Version() string
}

var wsRegex = regexp.MustCompile(`\s`)

// Dispatcher turns console lines into response lines. Lines received between
// WRITEFILE:<name> and END_FILE are collected as file content.
type Dispatcher struct {
	dev    Device
	files  *Files
	router *Router
	logger *slog.Logger

	writing *pendingWrite
}

type pendingWrite struct {
	name     string
	buf      bytes.Buffer
	overflow bool
}

func NewDispatcher(dev Device, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{dev: dev, files: NewFiles(dev), router: NewRouter(), logger: logger}
	d.router.Register("get_mode", d.getMode)
	d.router.Register("set_mode", d.setMode)
	d.router.Register("get_config", d.getConfig)
	d.router.Register("restart", d.restart)
	d.router.Register("version", d.version)
	d.router.Register("help", d.help)
	d.router.Register("readfile:{name}", d.readFile)
	d.router.Register("writefile:{name}", d.writeFile)
	return d
}

// Files returns the virtual file table.
func (d *Dispatcher) Files() *Files { return d.files }

// Writing reports whether a WRITEFILE stream is open.
func (d *Dispatcher) Writing() bool { return d.writing != nil }

// Banner is printed when the console opens.
func (d *Dispatcher) Banner() []string {
	return []string{
		"# BumbleGum Guitar Controller Command Interface Ready",
		"# Send HELP for available commands",
		"# Current mode: " + d.dev.Mode().String(),
	}
}

// Handle processes one line and returns the lines to send back. Blank lines
// outside a write stream produce no output.
func (d *Dispatcher) Handle(ctx context.Context, line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if d.writing != nil {
		return d.collect(line)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	word, payload := line, ""
	if loc := wsRegex.FindStringIndex(line); loc != nil {
		word = line[:loc[0]]
		payload = strings.TrimSpace(line[loc[1]:])
	}
	d.logger.Debug("console cmd", "cmd", word)

	h, params := d.router.Match(word)
	if h == nil {
		d.logger.Info("unknown console command", "cmd", word)
		return []string{errorJSON(ErrUnknownCommand)}
	}
	req := &Request{Ctx: ctx, Params: params, Payload: payload}
	res := &Response{}
	if err := h(req, res, d.logger); err != nil {
		d.logger.Warn("console command failed", "cmd", word, "error", err)
		return append(res.Lines, errorJSON(err))
	}
	return res.Lines
}

// Serve reads lines from r until EOF or ctx is done and writes responses to
// w.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	err := ReadLines(r, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, out := range d.Handle(ctx, line) {
			if _, err := fmt.Fprintln(w, out); err != nil {
				return err
			}
		}
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (d *Dispatcher) getMode(_ *Request, res *Response, _ *slog.Logger) error {
	res.Println(okJSON(map[string]any{"mode": d.dev.Mode().String()}))
	return nil
}

func (d *Dispatcher) setMode(req *Request, res *Response, logger *slog.Logger) error {
	if req.Payload == "" {
		return ErrBadRequest("usage: SET_MODE <xinput|hid>")
	}
	p, err := mode.ParsePersonality(req.Payload)
	if err != nil {
		return ErrBadRequest(err.Error())
	}
	changing := p != d.dev.Mode()
	if changing {
		// The device resets inside SetMode, so the reply goes out first.
		res.Println(okJSON(map[string]any{"mode": p.String()}))
		res.Println("# Device restarting in " + p.String() + " mode")
	}
	if err := d.dev.SetMode(p.String()); err != nil {
		res.Lines = nil
		return err
	}
	if !changing {
		res.Println(okJSON(map[string]any{"mode": p.String()}))
	}
	logger.Info("mode set over console", "mode", p, "changed", changing)
	return nil
}

func (d *Dispatcher) getConfig(_ *Request, res *Response, _ *slog.Logger) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, d.dev.ConfigText()); err != nil {
		return ErrInternal(err.Error())
	}
	res.Println(okJSON(map[string]any{"config": json.RawMessage(compact.Bytes())}))
	return nil
}

func (d *Dispatcher) restart(_ *Request, res *Response, _ *slog.Logger) error {
	res.Println("# Restarting device...")
	return d.dev.Restart()
}

func (d *Dispatcher) version(_ *Request, res *Response, _ *slog.Logger) error {
	res.Println(okJSON(map[string]any{"version": map[string]any{
		"firmware":   "BumbleGum Guitar Controller",
		"version":    d.dev.Version(),
		"build_date": BuildDate,
		"features":   Features,
	}}))
	return nil
}

func (d *Dispatcher) help(_ *Request, res *Response, _ *slog.Logger) error {
	for _, l := range []string{
		"Available commands:",
		"GET_MODE - Get current USB mode",
		"SET_MODE <xinput|hid> - Set USB mode",
		"GET_CONFIG - Get device configuration",
		"RESTART - Restart device",
		"VERSION - Get firmware info",
		"READFILE:<name> - Print a file",
		"WRITEFILE:<name> - Write a file, end with END_FILE",
		"Boot combos: Green=XInput, Red=HID",
	} {
		res.Println("# " + l)
	}
	return nil
}

func (d *Dispatcher) readFile(req *Request, res *Response, logger *slog.Logger) error {
	name := req.Params["name"]
	content, ok := d.files.Read(name)
	if !ok {
		// File transfer replies are plain text for the configurator.
		res.Println("ERROR: File not found: " + name)
		return nil
	}
	res.Println("START_" + name)
	body := strings.TrimSuffix(string(content), "\n")
	res.Lines = append(res.Lines, strings.Split(body, "\n")...)
	res.Println("END_" + name)
	logger.Debug("sent file", "name", name, "bytes", len(content))
	return nil
}

func (d *Dispatcher) writeFile(req *Request, res *Response, _ *slog.Logger) error {
	name := req.Params["name"]
	if err := checkName(name); err != nil {
		res.Println("ERROR: " + WrapError(err).Message)
		return nil
	}
	d.writing = &pendingWrite{name: name}
	res.Println("READY")
	return nil
}

func (d *Dispatcher) collect(line string) []string {
	w := d.writing
	if strings.Contains(line, "END_FILE") {
		d.writing = nil
		return d.finish(w)
	}
	if w.buf.Len()+len(line)+1 >= MaxFileContent {
		w.overflow = true
		return nil
	}
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
	return nil
}

func (d *Dispatcher) finish(w *pendingWrite) []string {
	if w.overflow {
		return []string{fmt.Sprintf("ERROR: File %s too large (max %d bytes)", w.name, MaxFileContent-1)}
	}
	warnings, err := d.files.Write(w.name, w.buf.Bytes())
	if err != nil {
		d.logger.Warn("file write failed", "name", w.name, "error", err)
		werr := WrapError(err)
		out := []string{}
		for _, f := range werr.Fields {
			out = append(out, "# "+f.Field+": "+f.Reason)
		}
		return append(out, "ERROR: "+werr.Message)
	}
	var out []string
	for _, wn := range warnings {
		out = append(out, "# warning: "+wn.String())
	}
	d.logger.Info("file written", "name", w.name, "bytes", w.buf.Len(), "warnings", len(warnings))
	return append(out, "FILE_WRITTEN")
}
