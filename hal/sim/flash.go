package sim

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bumblegum/guitarcore/hal"
)

// MemFlash is a RAM-backed NOR flash sector.
type MemFlash struct {
	mu   sync.Mutex
	data []byte

	// DropPrograms makes Program silently leave the sector erased, the way a
	// worn or write-protected part behaves.
	DropPrograms bool

	erases   int
	programs int
}

// NewMemFlash returns an erased sector of hal.SectorSize bytes.
func NewMemFlash() *MemFlash {
	return NewMemFlashSize(hal.SectorSize)
}

func NewMemFlashSize(size int) *MemFlash {
	f := &MemFlash{data: make([]byte, size)}
	for i := range f.data {
		f.data[i] = 0xFF
	}
	return f
}

func (f *MemFlash) Size() int { return len(f.data) }

func (f *MemFlash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *MemFlash) Erase() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.erases++
	for i := range f.data {
		f.data[i] = 0xFF
	}
	return nil
}

func (f *MemFlash) Program(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(data) > len(f.data) {
		return fmt.Errorf("program %d bytes into %d byte sector", len(data), len(f.data))
	}
	f.programs++
	if f.DropPrograms {
		return nil
	}
	for i, b := range data {
		f.data[i] &= b
	}
	return nil
}

// Corrupt flips every bit of the byte at off.
func (f *MemFlash) Corrupt(off int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[off] ^= 0xFF
}

// Writes returns the number of erase and program operations performed.
func (f *MemFlash) Writes() (erases, programs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.erases, f.programs
}

// Bytes returns a copy of the sector contents.
func (f *MemFlash) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.data...)
}

// FileFlash keeps a flash image on disk so state survives emulator runs.
// The image holds consecutive sectors; Sector returns a view of one of them.
// The file is locked exclusively while open.
type FileFlash struct {
	mu      sync.Mutex
	f       *os.File
	sectors int
}

// OpenFileFlash opens or creates an image of the given number of sectors.
func OpenFileFlash(path string, sectors int) (*FileFlash, error) {
	if sectors <= 0 {
		return nil, errors.New("sector count must be positive")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock flash image %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	want := int64(sectors * hal.SectorSize)
	if st.Size() < want {
		blank := make([]byte, want-st.Size())
		for i := range blank {
			blank[i] = 0xFF
		}
		if _, err := f.WriteAt(blank, st.Size()); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("initialise flash image: %w", err)
		}
	}
	return &FileFlash{f: f, sectors: sectors}, nil
}

// Close releases the lock and the file.
func (ff *FileFlash) Close() error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	_ = unlockFile(ff.f)
	return ff.f.Close()
}

// Sector returns sector i of the image.
func (ff *FileFlash) Sector(i int) hal.Flash {
	if i < 0 || i >= ff.sectors {
		panic(fmt.Sprintf("sector %d out of range", i))
	}
	return &fileSector{ff: ff, base: int64(i * hal.SectorSize)}
}

type fileSector struct {
	ff   *FileFlash
	base int64
}

func (s *fileSector) Size() int { return hal.SectorSize }

func (s *fileSector) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= hal.SectorSize {
		return 0, io.EOF
	}
	if rem := hal.SectorSize - off; int64(len(p)) > rem {
		p = p[:rem]
	}
	s.ff.mu.Lock()
	defer s.ff.mu.Unlock()
	return s.ff.f.ReadAt(p, s.base+off)
}

func (s *fileSector) Erase() error {
	blank := make([]byte, hal.SectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	s.ff.mu.Lock()
	defer s.ff.mu.Unlock()
	_, err := s.ff.f.WriteAt(blank, s.base)
	return err
}

func (s *fileSector) Program(data []byte) error {
	if len(data) > hal.SectorSize {
		return fmt.Errorf("program %d bytes into %d byte sector", len(data), hal.SectorSize)
	}
	s.ff.mu.Lock()
	defer s.ff.mu.Unlock()
	cur := make([]byte, len(data))
	if _, err := s.ff.f.ReadAt(cur, s.base); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	for i := range cur {
		cur[i] &= data[i]
	}
	if _, err := s.ff.f.WriteAt(cur, s.base); err != nil {
		return err
	}
	return s.ff.f.Sync()
}
