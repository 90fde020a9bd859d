package mode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bumblegum/guitarcore/storage"
)

// Flag is a personality request that survives exactly one reset.
type Flag uint8

const (
	FlagNone Flag = iota
	FlagHID
	FlagXInput
)

// FlagFor returns the flag requesting p.
func FlagFor(p Personality) Flag {
	if p == XInput {
		return FlagXInput
	}
	return FlagHID
}

// Personality returns the requested personality, if any.
func (f Flag) Personality() (Personality, bool) {
	switch f {
	case FlagHID:
		return HID, true
	case FlagXInput:
		return XInput, true
	default:
		return 0, false
	}
}

func (f Flag) String() string {
	if p, ok := f.Personality(); ok {
		return p.String()
	}
	return "none"
}

// FlagStore keeps the one-shot flag across a reset.
type FlagStore interface {
	// Consume returns the pending flag and clears it.
	Consume() (Flag, error)
	Set(p Personality) error
}

// BlockFlag keeps the flag in its own flash record.
type BlockFlag struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewBlockFlag(backend storage.Backend, logger *slog.Logger) *BlockFlag {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockFlag{backend: backend, logger: logger}
}

// Peek returns the pending flag without clearing it. Unreadable or invalid
// records read as FlagNone.
func (b *BlockFlag) Peek() Flag {
	payload, err := storage.ReadRecord(b.backend, storage.FlagMagic)
	if err != nil {
		var ce *storage.CorruptionError
		if errors.As(err, &ce) && ce.Reason != storage.ReasonEmpty {
			b.logger.Warn("ignoring unreadable mode flag", "error", err)
		}
		return FlagNone
	}
	if len(payload) != 1 {
		b.logger.Warn("ignoring invalid mode flag", "bytes", len(payload))
		return FlagNone
	}
	f := Flag(payload[0])
	if _, ok := f.Personality(); !ok {
		if f != FlagNone {
			b.logger.Warn("ignoring invalid mode flag", "value", payload[0])
		}
		return FlagNone
	}
	return f
}

func (b *BlockFlag) Consume() (Flag, error) {
	f := b.Peek()
	if f == FlagNone {
		return FlagNone, nil
	}
	if err := storage.WriteRecord(b.backend, storage.FlagMagic, []byte{byte(FlagNone)}); err != nil {
		return f, fmt.Errorf("clear mode flag: %w", err)
	}
	b.logger.Debug("mode flag consumed", "flag", f)
	return f, nil
}

func (b *BlockFlag) Set(p Personality) error {
	if err := storage.WriteRecord(b.backend, storage.FlagMagic, []byte{byte(FlagFor(p))}); err != nil {
		return fmt.Errorf("set mode flag: %w", err)
	}
	b.logger.Debug("mode flag set", "personality", p)
	return nil
}
