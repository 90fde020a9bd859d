package storage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/hal/sim"
	"github.com/bumblegum/guitarcore/storage"
)

func TestChecksumKnownVector(t *testing.T) {
	assert.Equal(t, uint32(0xCBF43926), storage.Checksum([]byte("123456789")))
}

func TestRecordRoundTrip(t *testing.T) {
	flash := sim.NewMemFlash()
	b := storage.NewBlock(flash, nil, nil)

	payload := []byte(`{"device_name":"Guitar Controller"}`)
	require.NoError(t, storage.WriteRecord(b, storage.ProfileMagic, payload))

	got, err := storage.ReadRecord(b, storage.ProfileMagic)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadRecordRejects(t *testing.T) {
	payload := []byte("hello flash")

	tests := []struct {
		name   string
		mutate func(f *sim.MemFlash)
		magic  uint32
		reason storage.CorruptionReason
	}{
		{name: "erased sector", mutate: func(f *sim.MemFlash) { _ = f.Erase() }, magic: storage.ProfileMagic, reason: storage.ReasonEmpty},
		{name: "wrong magic", magic: storage.FlagMagic, reason: storage.ReasonMagic},
		{name: "version byte", mutate: func(f *sim.MemFlash) { f.Corrupt(4) }, magic: storage.ProfileMagic, reason: storage.ReasonVersion},
		{name: "payload byte", mutate: func(f *sim.MemFlash) { f.Corrupt(storage.HeaderSize + 3) }, magic: storage.ProfileMagic, reason: storage.ReasonChecksum},
		{name: "checksum byte", mutate: func(f *sim.MemFlash) { f.Corrupt(13) }, magic: storage.ProfileMagic, reason: storage.ReasonChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flash := sim.NewMemFlash()
			b := storage.NewBlock(flash, nil, nil)
			require.NoError(t, storage.WriteRecord(b, storage.ProfileMagic, payload))
			if tt.mutate != nil {
				tt.mutate(flash)
			}

			_, err := storage.ReadRecord(b, tt.magic)
			var ce *storage.CorruptionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.reason, ce.Reason)
		})
	}
}

func TestEverySingleByteFlipIsDetected(t *testing.T) {
	payload := []byte(`{"whammy_min":500,"whammy_max":65000}`)
	for i := 0; i < storage.HeaderSize+len(payload); i++ {
		flash := sim.NewMemFlash()
		b := storage.NewBlock(flash, nil, nil)
		require.NoError(t, storage.WriteRecord(b, storage.ProfileMagic, payload))
		flash.Corrupt(i)

		_, err := storage.ReadRecord(b, storage.ProfileMagic)
		assert.Error(t, err, "flip at offset %d went unnoticed", i)
	}
}

func TestWriteBlockVerifies(t *testing.T) {
	flash := sim.NewMemFlash()
	flash.DropPrograms = true
	b := storage.NewBlock(flash, nil, nil)

	err := b.WriteBlock([]byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrWriteFailure))

	var wf *storage.WriteFailure
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, "verify", wf.Op)
}

func TestWriteBlockRunsInsideCriticalSection(t *testing.T) {
	flash := sim.NewMemFlash()
	entered := 0
	b := storage.NewBlock(flash, func(fn func()) {
		entered++
		fn()
	}, nil)

	require.NoError(t, b.WriteBlock([]byte("abc")))
	assert.Equal(t, 1, entered)

	erases, programs := flash.Writes()
	assert.Equal(t, 1, erases)
	assert.Equal(t, 1, programs)
}

func TestWriteRecordTooLarge(t *testing.T) {
	b := storage.NewBlock(sim.NewMemFlash(), nil, nil)
	err := storage.WriteRecord(b, storage.ProfileMagic, make([]byte, b.Size()))
	assert.ErrorIs(t, err, storage.ErrWriteFailure)
}

func TestReadOutOfRange(t *testing.T) {
	b := storage.NewBlock(sim.NewMemFlash(), nil, nil)
	_, err := b.Read(b.Size()-2, 4)
	assert.Error(t, err)

	got, err := b.Read(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, got)
}
