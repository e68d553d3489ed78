package bitstream

// The controller compresses the flux stream to four 2-bit run-length
// samples per byte, taken high-to-low. Each sample expands to a short
// cell of the MFM bitstream:
//
//	00 -> nothing (padding)
//	01 -> 01
//	10 -> 001
//	11 -> 0001
type expansion struct {
	bits uint16 // expanded bits, left-aligned
	n    int
}

var fluxTable [256]expansion

func init() {
	// Per-sample expansions, left-aligned in a uint16.
	samples := [4]expansion{
		{0x0000, 0},
		{0x4000, 2}, // 01
		{0x2000, 3}, // 001
		{0x1000, 4}, // 0001
	}
	for v := 0; v < 256; v++ {
		var e expansion
		for shift := 6; shift >= 0; shift -= 2 {
			s := samples[(v>>shift)&3]
			e.bits |= s.bits >> e.n
			e.n += s.n
		}
		fluxTable[v] = e
	}
}

// ExpandFlux decompresses a raw track read from the controller into the
// flux bitstream. The expansion is total: any input byte sequence yields
// a valid stream, and downstream consumers tolerate leading or trailing
// garbage.
func ExpandFlux(raw []byte) *Bitstream {
	// Average expansion is about 12 bits per input byte.
	out := New(len(raw) * 12)
	for _, v := range raw {
		e := fluxTable[v]
		out.appendBits(e.bits, e.n)
	}
	return out
}
