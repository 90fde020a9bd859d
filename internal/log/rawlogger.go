package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger dumps USB frames and command traffic as hex.
type RawLogger interface {
	// Log records one frame. in is true for host-to-device traffic.
	Log(in bool, data []byte)
}

type rawLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
	seq uint64
}

// NewRaw returns a RawLogger writing to w. A nil w discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

// NewRawWithClock is NewRaw with a custom timestamp source.
func NewRawWithClock(w io.Writer, now func() time.Time) RawLogger {
	return &rawLogger{w: w, now: now}
}

func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "D->H"
	if in {
		dir = "H->D"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	line := fmt.Sprintf("%s #%d %s %d bytes: %s\n",
		r.now().Format("15:04:05.000"),
		r.seq,
		dir,
		len(data),
		hexbuf.String())
	_, _ = io.WriteString(r.w, line)
}
