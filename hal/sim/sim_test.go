package sim_test

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/hal"
	"github.com/bumblegum/guitarcore/hal/sim"
)

func TestMemFlashProgramOnlyClearsBits(t *testing.T) {
	f := sim.NewMemFlashSize(4)
	require.NoError(t, f.Program([]byte{0x0F, 0xF0}))
	require.NoError(t, f.Program([]byte{0xF0, 0xFF}))
	assert.Equal(t, []byte{0x00, 0xF0, 0xFF, 0xFF}, f.Bytes())

	require.NoError(t, f.Erase())
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, f.Bytes())

	erases, programs := f.Writes()
	assert.Equal(t, 1, erases)
	assert.Equal(t, 2, programs)

	assert.Error(t, f.Program(make([]byte, 5)))
}

func TestMemFlashDropPrograms(t *testing.T) {
	f := sim.NewMemFlashSize(2)
	f.DropPrograms = true
	require.NoError(t, f.Program([]byte{0, 0}))
	assert.Equal(t, []byte{0xFF, 0xFF}, f.Bytes())
}

func TestFileFlashPersistsSectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.flash")

	ff, err := sim.OpenFileFlash(path, 2)
	require.NoError(t, err)
	require.NoError(t, ff.Sector(1).Program([]byte("abc")))
	require.NoError(t, ff.Close())

	ff, err = sim.OpenFileFlash(path, 2)
	require.NoError(t, err)
	defer ff.Close()

	buf := make([]byte, 4)
	_, err = ff.Sector(1).ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0xFF}, buf)

	_, err = ff.Sector(0).ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf)

	require.NoError(t, ff.Sector(1).Erase())
	_, err = ff.Sector(1).ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf)

	assert.Equal(t, hal.SectorSize, ff.Sector(0).Size())
	assert.Panics(t, func() { ff.Sector(2) })
}

func TestFileFlashIsLocked(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("flock semantics only checked on linux and darwin")
	}
	path := filepath.Join(t.TempDir(), "image.flash")
	ff, err := sim.OpenFileFlash(path, 1)
	require.NoError(t, err)

	_, err = sim.OpenFileFlash(path, 1)
	assert.Error(t, err)

	require.NoError(t, ff.Close())
	ff, err = sim.OpenFileFlash(path, 1)
	require.NoError(t, err)
	require.NoError(t, ff.Close())
}

func TestPinsAreActiveLow(t *testing.T) {
	p := sim.NewPins()
	assert.True(t, p.Level(3))
	p.Press(3)
	assert.False(t, p.Level(3))
	p.Set(3, false)
	assert.True(t, p.Level(3))
}

func TestClockSleepAdvances(t *testing.T) {
	c := sim.NewClock()
	start := c.Now()
	c.Sleep(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, c.Now().Sub(start))
}

func TestResetterRunsHook(t *testing.T) {
	var r sim.Resetter
	hits := 0
	r.OnReset(func() { hits++ })
	r.Reset()
	r.Reset()
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 2, hits)
}
