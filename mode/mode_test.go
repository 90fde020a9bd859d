package mode_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/mode"
	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/storage"
)

const (
	greenLine = 10
	redLine   = 11
)

type rig struct {
	pins      *sim.Pins
	clock     *sim.Clock
	reset     *sim.Resetter
	flagFlash *sim.MemFlash
	flags     *mode.BlockFlag
	store     *profile.Store
	arbiter   *mode.Arbiter
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		pins:      sim.NewPins(),
		clock:     sim.NewClock(),
		reset:     &sim.Resetter{},
		flagFlash: sim.NewMemFlash(),
	}
	r.flags = mode.NewBlockFlag(storage.NewBlock(r.flagFlash, nil, nil), nil)
	r.store = profile.NewStore(storage.NewBlock(sim.NewMemFlash(), nil, nil), nil)
	r.store.Load()
	r.arbiter = mode.NewArbiter(r.flags, r.store, hal.Board{Pins: r.pins, Clock: r.clock, Resetter: r.reset}, nil)
	return r
}

func TestParsePersonality(t *testing.T) {
	tests := []struct {
		in   string
		want mode.Personality
		err  bool
	}{
		{in: "hid", want: mode.HID},
		{in: "HID", want: mode.HID},
		{in: "joystick", want: mode.HID},
		{in: "gamepad", want: mode.HID},
		{in: " xinput ", want: mode.XInput},
		{in: "switch", err: true},
		{in: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := mode.ParsePersonality(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlagIsConsumedOnce(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.flags.Set(mode.XInput))

	f, err := r.flags.Consume()
	require.NoError(t, err)
	assert.Equal(t, mode.FlagXInput, f)

	f, err = r.flags.Consume()
	require.NoError(t, err)
	assert.Equal(t, mode.FlagNone, f)
}

func TestConsumeWithoutFlagDoesNotWrite(t *testing.T) {
	r := newRig(t)
	f, err := r.flags.Consume()
	require.NoError(t, err)
	assert.Equal(t, mode.FlagNone, f)
	erases, _ := r.flagFlash.Writes()
	assert.Zero(t, erases)
}

func TestCorruptFlagIsIgnored(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.flags.Set(mode.XInput))
	r.flagFlash.Corrupt(storage.HeaderSize)

	f, err := r.flags.Consume()
	require.NoError(t, err)
	assert.Equal(t, mode.FlagNone, f)
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		flag       *mode.Personality
		hold       []uint8
		want       mode.Personality
		wantSource mode.Source
		wantStored string
	}{
		{name: "defaults to hid", stored: "hid", want: mode.HID, wantSource: mode.SourceProfile, wantStored: "hid"},
		{name: "stored xinput", stored: "xinput", want: mode.XInput, wantSource: mode.SourceProfile, wantStored: "xinput"},
		{name: "green combo", stored: "hid", hold: []uint8{greenLine}, want: mode.XInput, wantSource: mode.SourceCombo, wantStored: "xinput"},
		{name: "red combo", stored: "xinput", hold: []uint8{redLine}, want: mode.HID, wantSource: mode.SourceCombo, wantStored: "hid"},
		{name: "both held is no combo", stored: "xinput", hold: []uint8{greenLine, redLine}, want: mode.XInput, wantSource: mode.SourceProfile, wantStored: "xinput"},
		{name: "flag beats combo", stored: "hid", flag: ptr(mode.HID), hold: []uint8{greenLine}, want: mode.HID, wantSource: mode.SourceFlag, wantStored: "hid"},
		{name: "flag beats profile", stored: "hid", flag: ptr(mode.XInput), want: mode.XInput, wantSource: mode.SourceFlag, wantStored: "xinput"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			require.NoError(t, r.store.SetStoredMode(tt.stored))
			if tt.flag != nil {
				require.NoError(t, r.flags.Set(*tt.flag))
			}
			for _, line := range tt.hold {
				r.pins.Press(line)
			}

			got, src, err := r.arbiter.Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSource, src)
			assert.Equal(t, tt.wantStored, r.store.Active().USBMode)
			assert.Equal(t, tt.want, r.arbiter.Running())
		})
	}
}

func TestResolveWaitsForSettle(t *testing.T) {
	r := newRig(t)
	start := r.clock.Now()
	_, _, err := r.arbiter.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, r.clock.Now().Sub(start))
}

func TestResolveCancelled(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := r.arbiter.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlagConsumedAcrossReboots(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.store.SetStoredMode("hid"))
	require.NoError(t, r.flags.Set(mode.XInput))

	got, _, err := r.arbiter.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mode.XInput, got)

	next := mode.NewArbiter(r.flags, r.store, hal.Board{Pins: r.pins, Clock: r.clock}, nil)
	got, src, err := next.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mode.XInput, got)
	assert.Equal(t, mode.SourceProfile, src)
}

func TestSwitch(t *testing.T) {
	r := newRig(t)
	_, _, err := r.arbiter.Resolve(context.Background())
	require.NoError(t, err)
	erases, _ := r.flagFlash.Writes()

	require.NoError(t, r.arbiter.Switch(mode.HID))
	after, _ := r.flagFlash.Writes()
	assert.Equal(t, erases, after)
	assert.Zero(t, r.reset.Count())

	require.NoError(t, r.arbiter.Switch(mode.XInput))
	assert.Equal(t, 1, r.reset.Count())

	f, err := r.flags.Consume()
	require.NoError(t, err)
	assert.Equal(t, mode.FlagXInput, f)
}

func TestSwitchWriteFailureDoesNotReset(t *testing.T) {
	r := newRig(t)
	_, _, err := r.arbiter.Resolve(context.Background())
	require.NoError(t, err)
	r.flagFlash.DropPrograms = true

	err = r.arbiter.Switch(mode.XInput)
	assert.ErrorIs(t, err, storage.ErrWriteFailure)
	assert.Zero(t, r.reset.Count())
}

func ptr(p mode.Personality) *mode.Personality { return &p }
