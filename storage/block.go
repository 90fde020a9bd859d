// Package storage persists checksummed records in erase-before-write flash.
package storage

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bumblegum/guitarcore/hal"
)

// Backend is raw block storage over one sector.
type Backend interface {
	Read(offset, n int) ([]byte, error)
	WriteBlock(payload []byte) error
	Size() int
}

// Block implements Backend on a hal.Flash sector. Writes erase the whole
// sector, program it and read it back; readers never see a torn sector
// because reads and writes share one exclusive section.
type Block struct {
	mu       sync.Mutex
	flash    hal.Flash
	critical hal.Critical
	logger   *slog.Logger
}

// NewBlock wraps a flash sector. critical may be nil.
func NewBlock(flash hal.Flash, critical hal.Critical, logger *slog.Logger) *Block {
	if critical == nil {
		critical = func(fn func()) { fn() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Block{flash: flash, critical: critical, logger: logger}
}

func (b *Block) Size() int { return b.flash.Size() }

func (b *Block) Read(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > b.flash.Size() {
		return nil, fmt.Errorf("read %d bytes at %d outside %d byte sector", n, offset, b.flash.Size())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(offset, n)
}

func (b *Block) readLocked(offset, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := b.flash.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *Block) WriteBlock(payload []byte) error {
	size := b.flash.Size()
	if len(payload) > size {
		return &WriteFailure{Op: "size", Err: fmt.Errorf("%d bytes exceed %d byte sector", len(payload), size)}
	}
	image := bytes.Repeat([]byte{0xFF}, size)
	copy(image, payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	var eraseErr, programErr error
	b.critical(func() {
		if eraseErr = b.flash.Erase(); eraseErr != nil {
			return
		}
		programErr = b.flash.Program(image)
	})
	if eraseErr != nil {
		return &WriteFailure{Op: "erase", Err: eraseErr}
	}
	if programErr != nil {
		return &WriteFailure{Op: "program", Err: programErr}
	}

	got, err := b.readLocked(0, size)
	if err != nil {
		return &WriteFailure{Op: "verify", Err: err}
	}
	if !bytes.Equal(got, image) {
		b.logger.Error("flash verification mismatch", "bytes", len(payload))
		return &WriteFailure{Op: "verify"}
	}
	b.logger.Debug("flash block written", "bytes", len(payload))
	return nil
}

// Erase wipes the sector.
func (b *Block) Erase() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	b.critical(func() { err = b.flash.Erase() })
	if err != nil {
		return &WriteFailure{Op: "erase", Err: err}
	}
	return nil
}

// WriteRecord frames payload and writes it as the sector's only record.
func WriteRecord(b Backend, magic uint32, payload []byte) error {
	if len(payload) > b.Size()-HeaderSize {
		return &WriteFailure{Op: "size", Err: fmt.Errorf("payload of %d bytes exceeds %d", len(payload), b.Size()-HeaderSize)}
	}
	return b.WriteBlock(EncodeRecord(magic, payload))
}

// ReadRecord reads and validates the sector's record.
func ReadRecord(b Backend, magic uint32) ([]byte, error) {
	raw, err := b.Read(0, b.Size())
	if err != nil {
		return nil, &CorruptionError{Reason: ReasonEmpty, Detail: err.Error()}
	}
	return DecodeRecord(magic, raw)
}
