// Package capture persists decompressed track bitstreams to a TOML
// file. The simulated controller backend replays such a capture, which
// makes the whole pipeline testable without drive hardware.
package capture

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/hpingel/access1581/bitstream"
)

// TrackBits is one captured track read in textual form.
type TrackBits struct {
	Cylinder int    `toml:"cylinder"`
	Head     int    `toml:"head"`
	Bits     string `toml:"bits"`
}

// Capture is a set of track bitstreams indexed by physical position.
type Capture struct {
	Tracks []TrackBits `toml:"track"`
}

// New returns an empty capture.
func New() *Capture {
	return &Capture{}
}

// Set stores the bitstream for a physical position, replacing any
// earlier entry.
func (c *Capture) Set(cylinder, head int, bs *bitstream.Bitstream) {
	bits := bs.String()
	for i := range c.Tracks {
		if c.Tracks[i].Cylinder == cylinder && c.Tracks[i].Head == head {
			c.Tracks[i].Bits = bits
			return
		}
	}
	c.Tracks = append(c.Tracks, TrackBits{Cylinder: cylinder, Head: head, Bits: bits})
}

// Bitstreams parses every entry into a lookup table keyed by cylinder
// and head.
func (c *Capture) Bitstreams() (map[int]map[int]*bitstream.Bitstream, error) {
	out := make(map[int]map[int]*bitstream.Bitstream)
	for _, t := range c.Tracks {
		bs, err := bitstream.Parse(t.Bits)
		if err != nil {
			return nil, fmt.Errorf("capture entry cylinder %d head %d: %w", t.Cylinder, t.Head, err)
		}
		if out[t.Cylinder] == nil {
			out[t.Cylinder] = make(map[int]*bitstream.Bitstream)
		}
		out[t.Cylinder][t.Head] = bs
	}
	return out, nil
}

// Load reads a capture file.
func Load(path string) (*Capture, error) {
	var c Capture
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("failed to parse capture file %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the capture to a file.
func (c *Capture) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	return nil
}
