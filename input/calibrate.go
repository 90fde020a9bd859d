package input

// Calibrate clamps raw to [min, max] and rescales it linearly onto
// [0, outMax], inverted when reverse is set. A degenerate range yields 0.
func Calibrate(raw, min, max uint32, reverse bool, outMax uint32) uint32 {
	if max <= min {
		return 0
	}
	if raw < min {
		raw = min
	}
	if raw > max {
		raw = max
	}
	out := uint32(uint64(raw-min) * uint64(outMax) / uint64(max-min))
	if reverse {
		return outMax - out
	}
	return out
}
