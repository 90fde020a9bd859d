package log_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bumblegum/guitarcore/internal/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   log.LevelTrace,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, log.ParseLevel(in), in)
	}
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 8, 21, 12, 30, 5, 0, time.UTC)
	r := log.NewRawWithClock(&buf, func() time.Time { return at })

	r.Log(false, []byte{0x00, 0x14, 0xab})
	r.Log(true, nil)
	r.Log(true, []byte{0x01})

	assert.Equal(t, "12:30:05.000 #1 D->H 3 bytes: 00 14 ab\n12:30:05.000 #2 H->D 1 bytes: 01\n", buf.String())
}

func TestRawLoggerNilWriter(t *testing.T) {
	assert.NotPanics(t, func() { log.NewRaw(nil).Log(true, []byte{1, 2}) })
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	_, _, err := log.Setup(log.Options{Format: "xml"})
	assert.Error(t, err)
}
