package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/storage"
)

func newStore(t *testing.T) (*profile.Store, *sim.MemFlash) {
	t.Helper()
	flash := sim.NewMemFlash()
	return profile.NewStore(storage.NewBlock(flash, nil, nil), nil), flash
}

func TestLoadEmptyWritesDefaults(t *testing.T) {
	s, flash := newStore(t)

	p := s.Load()
	assert.Equal(t, "4.0.0", p.Metadata.Version)
	assert.Equal(t, uint32(500), p.WhammyMin)
	assert.Equal(t, uint32(65000), p.WhammyMax)

	erases, programs := flash.Writes()
	assert.Equal(t, 1, erases)
	assert.Equal(t, 1, programs)

	again := profile.NewStore(storage.NewBlock(flash, nil, nil), nil)
	assert.Equal(t, p, again.Load())
	erases, _ = flash.Writes()
	assert.Equal(t, 1, erases, "a valid record must not be rewritten")
}

func TestLoadCorruptedFallsBackToDefaults(t *testing.T) {
	s, flash := newStore(t)
	s.Load()

	custom := profile.Default()
	custom.DeviceName = "Custom"
	require.NoError(t, s.Replace(custom))

	flash.Corrupt(storage.HeaderSize + 10)

	reloaded := profile.NewStore(storage.NewBlock(flash, nil, nil), nil)
	p := reloaded.Load()
	assert.Equal(t, profile.Default(), p)
}

func TestLoadRejectsInvalidPayload(t *testing.T) {
	flash := sim.NewMemFlash()
	block := storage.NewBlock(flash, nil, nil)
	require.NoError(t, storage.WriteRecord(block, storage.ProfileMagic, []byte(`{"whammy_min": 9000, "whammy_max": 100}`)))

	p := profile.NewStore(block, nil).Load()
	assert.Equal(t, profile.Default(), p)
}

func TestUpdate(t *testing.T) {
	s, _ := newStore(t)
	s.Load()

	p := profile.Default()
	p.DeviceName = "Updated"
	p.WhammyReverse = true
	_, err := s.Update(profile.Generate(p))
	require.NoError(t, err)
	assert.Equal(t, p, s.Active())
	assert.Equal(t, string(profile.Generate(p)), string(s.Text()))
}

func TestUpdateFailureKeepsPrevious(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, err error)
	}{
		{
			name: "not an object",
			text: `[1,2,3]`,
			check: func(t *testing.T, err error) {
				var pe *profile.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
		{
			name: "invalid fields",
			text: `{"device_name": "", "GREEN_FRET": "GP99", "led_brightness": 2}`,
			check: func(t *testing.T, err error) {
				var ve *profile.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.True(t, ve.Has("device_name"))
				assert.True(t, ve.Has("GREEN_FRET"))
				assert.True(t, ve.Has("led_brightness"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, flash := newStore(t)
			before := s.Load()
			stored := flash.Bytes()

			_, err := s.Update([]byte(tt.text))
			tt.check(t, err)
			assert.Equal(t, before, s.Active())
			assert.Equal(t, stored, flash.Bytes())
		})
	}
}

func TestUpdateWriteFailureKeepsPrevious(t *testing.T) {
	s, flash := newStore(t)
	before := s.Load()
	flash.DropPrograms = true

	p := profile.Default()
	p.DeviceName = "Never"
	_, err := s.Update(profile.Generate(p))
	assert.ErrorIs(t, err, storage.ErrWriteFailure)
	assert.Equal(t, before, s.Active())
}

func TestSetStoredMode(t *testing.T) {
	s, flash := newStore(t)
	s.Load()
	erases, _ := flash.Writes()

	require.NoError(t, s.SetStoredMode(profile.USBModeHID))
	after, _ := flash.Writes()
	assert.Equal(t, erases, after, "unchanged mode must not write")

	require.NoError(t, s.SetStoredMode(profile.USBModeXInput))
	assert.Equal(t, profile.USBModeXInput, s.Active().USBMode)

	reloaded := profile.NewStore(storage.NewBlock(flash, nil, nil), nil)
	assert.Equal(t, profile.USBModeXInput, reloaded.Load().USBMode)

	var ve *profile.ValidationError
	assert.ErrorAs(t, s.SetStoredMode("ps2"), &ve)
}

func TestErase(t *testing.T) {
	s, flash := newStore(t)
	s.Load()
	require.NoError(t, s.SetStoredMode(profile.USBModeXInput))

	require.NoError(t, s.Erase())
	assert.Equal(t, profile.Default(), s.Active())

	_, err := storage.ReadRecord(storage.NewBlock(flash, nil, nil), storage.ProfileMagic)
	var ce *storage.CorruptionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, storage.ReasonEmpty, ce.Reason)
}
