package report

// Hat switch values. Directions run clockwise from north.
const (
	HatN uint8 = iota
	HatNE
	HatE
	HatSE
	HatS
	HatSW
	HatW
	HatNW
	HatCenter
)

// Hat encodes four direction inputs into a hat switch value. Opposite
// directions cancel on their axis, so up+down+left is west.
func Hat(up, down, left, right bool) uint8 {
	vertical := axis(up, down)
	horizontal := axis(right, left)
	switch {
	case vertical > 0 && horizontal == 0:
		return HatN
	case vertical > 0 && horizontal > 0:
		return HatNE
	case vertical == 0 && horizontal > 0:
		return HatE
	case vertical < 0 && horizontal > 0:
		return HatSE
	case vertical < 0 && horizontal == 0:
		return HatS
	case vertical < 0 && horizontal < 0:
		return HatSW
	case vertical == 0 && horizontal < 0:
		return HatW
	case vertical > 0 && horizontal < 0:
		return HatNW
	default:
		return HatCenter
	}
}

// axis returns 1 when only pos is set, -1 when only neg is set, else 0.
func axis(pos, neg bool) int {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	default:
		return 0
	}
}
