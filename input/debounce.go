package input

import "time"

// DefaultDebounce is the settle window for bouncy lines.
const DefaultDebounce = 50 * time.Millisecond

// Debouncer accepts a new level only after it has been observed
// continuously for the window. Until then the last stable level is kept.
type Debouncer struct {
	window  time.Duration
	stable  bool
	pending bool
	next    bool
	since   time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Update feeds one raw observation and returns the stable level.
func (d *Debouncer) Update(raw bool, now time.Time) bool {
	if raw == d.stable {
		d.pending = false
		return d.stable
	}
	if !d.pending || d.next != raw {
		d.pending = true
		d.next = raw
		d.since = now
	}
	if now.Sub(d.since) >= d.window {
		d.stable = raw
		d.pending = false
	}
	return d.stable
}
