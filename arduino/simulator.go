package arduino

import (
	"fmt"

	"github.com/hpingel/access1581/bitstream"
)

// Simulator replays previously captured track bitstreams instead of
// driving hardware. It stands in for a Client when the serial device is
// the literal "simulated".
type Simulator struct {
	tracks map[int]map[int]*bitstream.Bitstream
}

// NewSimulator builds a simulator over captured bitstreams indexed by
// physical track and head.
func NewSimulator(tracks map[int]map[int]*bitstream.Bitstream) *Simulator {
	return &Simulator{tracks: tracks}
}

// ReadBitstream returns the captured bitstream for the position. A
// position missing from the capture yields an empty stream, which parses
// to zero sectors, the same as an unreadable track.
func (s *Simulator) ReadBitstream(track, head int) (*bitstream.Bitstream, error) {
	if track < 0 || head < 0 {
		return nil, fmt.Errorf("invalid position track %d head %d", track, head)
	}
	if heads, ok := s.tracks[track]; ok {
		if bs, ok := heads[head]; ok {
			return bs, nil
		}
	}
	return bitstream.New(0), nil
}

// Close is a no-op; there is no hardware to park.
func (s *Simulator) Close() error {
	return nil
}
