package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/internal/log"
	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tempImage(t *testing.T) FlashImage {
	t.Helper()
	return FlashImage{Flash: filepath.Join(t.TempDir(), "test.flash")}
}

func TestProfileDefaultFormats(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer
			c := &ProfileDefault{Format: format, out: &out}
			require.NoError(t, c.Run())

			f, err := profile.ParseFormat(format)
			require.NoError(t, err)
			p, _, err := profile.Import(out.Bytes(), f)
			require.NoError(t, err)
			assert.Equal(t, profile.Default(), p)
		})
	}
}

func TestProfileSetThenShow(t *testing.T) {
	logger := quietLogger()
	fi := tempImage(t)

	p := profile.Default()
	p.DeviceName = "Bench Guitar"
	p.WhammyReverse = true
	src := filepath.Join(t.TempDir(), "guitar.yaml")
	data, err := profile.Export(p, profile.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	require.NoError(t, (&ProfileSet{FlashImage: fi, File: src}).Run(logger))

	var out bytes.Buffer
	require.NoError(t, (&ProfileShow{FlashImage: fi, out: &out}).Run(logger))
	got, warnings, err := profile.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Bench Guitar", got.DeviceName)
	assert.True(t, got.WhammyReverse)
}

func TestProfileErase(t *testing.T) {
	logger := quietLogger()
	fi := tempImage(t)

	p := profile.Default()
	p.DeviceName = "Bench Guitar"
	src := filepath.Join(t.TempDir(), "guitar.json")
	require.NoError(t, os.WriteFile(src, profile.Generate(p), 0o644))
	require.NoError(t, (&ProfileSet{FlashImage: fi, File: src}).Run(logger))

	assert.Error(t, (&ProfileErase{FlashImage: fi}).Run(logger))
	require.NoError(t, (&ProfileErase{FlashImage: fi, Yes: true}).Run(logger))

	ff, err := sim.OpenFileFlash(fi.Flash, imageSectors)
	require.NoError(t, err)
	_, err = storage.ReadRecord(storage.NewBlock(ff.Sector(profileSector), nil, logger), storage.ProfileMagic)
	assert.Error(t, err)
	require.NoError(t, ff.Close())

	var out bytes.Buffer
	require.NoError(t, (&ProfileShow{FlashImage: fi, out: &out}).Run(logger))
	got, _, err := profile.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, profile.Default(), got)
}

func TestProfileSetRejectsInvalid(t *testing.T) {
	logger := quietLogger()
	fi := tempImage(t)

	p := profile.Default()
	p.Pins[profile.PinGreen] = "GP40"
	src := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(src, profile.Generate(p), 0o644))

	err := (&ProfileSet{FlashImage: fi, File: src}).Run(logger)
	var verr *profile.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("GREEN_FRET"))
}

func TestProfileValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, profile.Generate(profile.Default()), 0o644))

	var out bytes.Buffer
	require.NoError(t, (&ProfileValidate{File: good, out: &out}).Run(quietLogger()))
	assert.Contains(t, out.String(), "ok")

	p := profile.Default()
	p.LEDBrightness = 2
	p.HatMode = "wheel"
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, profile.Generate(p), 0o644))

	out.Reset()
	err := (&ProfileValidate{File: bad, out: &out}).Run(quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 invalid")
	assert.Contains(t, out.String(), "led_brightness")
	assert.Contains(t, out.String(), "hat_mode")
}

func TestProfileExportToFile(t *testing.T) {
	fi := tempImage(t)
	dest := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, (&ProfileExport{FlashImage: fi, Format: "toml", Output: dest}).Run(quietLogger()))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	p, _, err := profile.Import(data, profile.FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, profile.Default(), p)
}

func TestModeSetAndGet(t *testing.T) {
	logger := quietLogger()
	fi := tempImage(t)

	var out bytes.Buffer
	require.NoError(t, (&ModeGet{FlashImage: fi, out: &out}).Run(logger))
	assert.Equal(t, "stored: hid (generic joystick)\npending: none\n", out.String())

	require.NoError(t, (&ModeSet{FlashImage: fi, Mode: "xinput", Once: true}).Run(logger))
	out.Reset()
	require.NoError(t, (&ModeGet{FlashImage: fi, out: &out}).Run(logger))
	assert.Equal(t, "stored: hid (generic joystick)\npending: xinput (console-style gamepad)\n", out.String())

	require.NoError(t, (&ModeSet{FlashImage: fi, Mode: "XInput"}).Run(logger))
	out.Reset()
	require.NoError(t, (&ModeGet{FlashImage: fi, out: &out}).Run(logger))
	assert.Equal(t, "stored: xinput (console-style gamepad)\npending: xinput (console-style gamepad)\n", out.String())

	assert.Error(t, (&ModeSet{FlashImage: fi, Mode: "ps2"}).Run(logger))
}

func TestConfigInitTemplates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&ConfigInit{Command: "emulate", Format: "json", Stdout: true, out: &out}).Run())

	var m map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, "guitarcore.flash", m["flash"])
	assert.Equal(t, "8ms", m["interval"])
	assert.Equal(t, true, m["console"])
	logCfg, ok := m["log"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "info", logCfg["level"])

	out.Reset()
	require.NoError(t, (&ConfigInit{Command: "console", Format: "yml", Stdout: true, out: &out}).Run())
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &y))
	assert.Equal(t, 115200, y["baud"])

	dest := filepath.Join(t.TempDir(), "emulate.toml")
	require.NoError(t, (&ConfigInit{Command: "emulate", Format: "toml", Output: dest}).Run())
	assert.Error(t, (&ConfigInit{Command: "emulate", Format: "toml", Output: dest}).Run())
	assert.NoError(t, (&ConfigInit{Command: "emulate", Format: "toml", Output: dest, Force: true}).Run())
}

type loopback struct {
	written bytes.Buffer
	reply   *strings.Reader
}

func (l *loopback) Write(p []byte) (int, error) { return l.written.Write(p) }

// Read mimics a serial port: an empty read means the timeout passed.
func (l *loopback) Read(p []byte) (int, error) {
	n, _ := l.reply.Read(p)
	return n, nil
}

func TestConsoleExchange(t *testing.T) {
	var out, raw bytes.Buffer
	c := &Console{Command: []string{"SET_MODE", "xinput"}, out: &out}
	lines, err := c.request()
	require.NoError(t, err)

	rw := &loopback{reply: strings.NewReader("{\"status\":\"ok\",\"mode\":\"xinput\"}\r\n# Device restarting")}
	require.NoError(t, c.exchange(rw, lines, quietLogger(), log.NewRaw(&raw)))

	assert.Equal(t, "SET_MODE xinput\n", rw.written.String())
	assert.Equal(t, "{\"status\":\"ok\",\"mode\":\"xinput\"}\n# Device restarting\n", out.String())
	assert.Contains(t, raw.String(), "H->D")
	assert.Contains(t, raw.String(), "D->H")
}

func TestConsoleFileRequest(t *testing.T) {
	src := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(src, []byte("{\n  \"device_name\": \"X\"\n}\n"), 0o644))

	lines, err := (&Console{File: src}).request()
	require.NoError(t, err)
	assert.Equal(t, []string{"WRITEFILE:config.json", "{", `  "device_name": "X"`, "}", "END_FILE"}, lines)

	_, err = (&Console{}).request()
	assert.Error(t, err)
}

func TestEmulateRebootsIntoRequestedMode(t *testing.T) {
	fi := tempImage(t)
	e := &Emulate{FlashImage: fi, Interval: 8 * time.Millisecond}
	im, err := e.open(quietLogger())
	require.NoError(t, err)
	defer im.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	var out, raw bytes.Buffer
	in := strings.NewReader("GET_MODE\nSET_MODE xinput\n")
	require.NoError(t, e.emulate(ctx, im, in, &out, false, quietLogger(), log.NewRaw(&raw)))

	text := out.String()
	assert.Contains(t, text, "# Current mode: hid")
	assert.Contains(t, text, `{"mode":"hid","status":"ok"}`)
	assert.Contains(t, text, "# Current mode: xinput")
	assert.NotEmpty(t, raw.String(), "descriptors and frames are dumped")
}

func TestEmulateBootComboFromHold(t *testing.T) {
	fi := tempImage(t)
	e := &Emulate{FlashImage: fi, Interval: 8 * time.Millisecond, Hold: []string{"green"}}
	im, err := e.open(quietLogger())
	require.NoError(t, err)
	defer im.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, e.emulate(ctx, im, strings.NewReader(""), &out, false, quietLogger(), log.NewRaw(nil)))
	assert.Contains(t, out.String(), "# Current mode: xinput")

	var modeOut bytes.Buffer
	require.NoError(t, im.Close())
	require.NoError(t, (&ModeGet{FlashImage: fi, out: &modeOut}).Run(quietLogger()))
	assert.Contains(t, modeOut.String(), "stored: xinput")
}

func TestEmulateRejectsUnknownHold(t *testing.T) {
	fi := tempImage(t)
	e := &Emulate{FlashImage: fi, Hold: []string{"whammy"}}
	im, err := e.open(quietLogger())
	require.NoError(t, err)
	defer im.Close()

	err = e.emulate(context.Background(), im, nil, io.Discard, false, quietLogger(), log.NewRaw(nil))
	assert.ErrorContains(t, err, "whammy")
}
