// Package format describes the double density disk layouts the imager
// understands and precomputes their sector marker bit patterns.
package format

import (
	"fmt"
	"sort"

	"github.com/hpingel/access1581/bitstream"
)

// Legal bit distance between the end of a sector header sync and the end
// of the following data sync. Tunable: drives and firmware revisions
// disagree slightly on the upper bound; 720 covers everything seen in
// practice.
const (
	OffsetRangeLower = 704
	OffsetRangeUpper = 720
)

// Number of MFM-encoded zero bytes expected ahead of each sync sequence.
// Matching them reduces false marker hits in the gap noise.
const (
	headerLeadZeros = 10
	dataLeadZeros   = 6
)

// Sync tag bytes of the IBM track layout.
const (
	TagHeader = 0xfe // sector ID record
	TagData   = 0xfb // sector data record
)

// DiskFormat is the immutable geometry and marker description of one
// disk layout. Create one per imaging run via ByName.
type DiskFormat struct {
	Name            string
	TrackCount      int
	HeadCount       int
	SectorSize      int
	SectorsPerTrack int

	// SwapSides reports whether logical head 0 maps directly to
	// physical side 0. The IBM layout reaches logical head 0 through
	// the opposite physical side on this drive pathway; the 1581
	// layout does not.
	SwapSides bool

	ImageExtension string

	// SectorStart matches the run-in plus A1 A1 A1 FE sync of a sector
	// header; SectorDataStart the run-in plus A1 A1 A1 FB sync of a
	// data field. Clock bits are wildcards, data bits fixed.
	SectorStart     *bitstream.Pattern
	SectorDataStart *bitstream.Pattern
}

var registry = map[string]func() *DiskFormat{
	"ibmdos":  newIBMDOS,
	"cbm1581": newCBM1581,
}

func newIBMDOS() *DiskFormat {
	return &DiskFormat{
		Name:            "ibmdos",
		TrackCount:      80,
		HeadCount:       2,
		SectorSize:      512,
		SectorsPerTrack: 9,
		SwapSides:       false,
		ImageExtension:  "img",
		SectorStart:     compileMarker(headerLeadZeros, TagHeader),
		SectorDataStart: compileMarker(dataLeadZeros, TagData),
	}
}

func newCBM1581() *DiskFormat {
	f := newIBMDOS()
	f.Name = "cbm1581"
	f.SectorsPerTrack = 10
	f.SwapSides = true
	f.ImageExtension = "d81"
	return f
}

// ByName returns a fresh descriptor for the named disk format.
func ByName(name string) (*DiskFormat, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown disk format %q (supported: %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists the supported format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrackPayloadSize returns the byte length of one assembled track.
func (f *DiskFormat) TrackPayloadSize() int {
	return f.SectorsPerTrack * f.SectorSize
}

// ImageSize returns the total byte length of a complete disk image.
func (f *DiskFormat) ImageSize() int {
	return f.TrackCount * f.HeadCount * f.TrackPayloadSize()
}

// PhysicalHead maps a logical head number to the physical side to read.
func (f *DiskFormat) PhysicalHead(head int) int {
	if f.SwapSides {
		return head
	}
	return 1 - head
}

// compileMarker builds the flexible bit pattern of a sync sequence:
// leadZeros MFM-encoded zero bytes, three A1 sync cells (built from the
// 0x4489 violation cell, not a plain MFM encoding), and the tag byte.
// The mask fixes only the data half of every cell, so each clock bit is
// a wildcard.
func compileMarker(leadZeros int, tag byte) *bitstream.Pattern {
	bits := bitstream.New((leadZeros + 4) * 16)
	prev := 0
	for i := 0; i < leadZeros; i++ {
		prev = bits.AppendMFM(0x00, prev)
	}
	for i := 0; i < 3; i++ {
		bits.AppendUint16(bitstream.SyncCellA1)
	}
	bits.AppendMFM(tag, 1) // last data bit of A1 is 1

	mask := bitstream.New(bits.Len())
	for i := 0; i < bits.Len()/2; i++ {
		mask.AppendBit(0) // clock
		mask.AppendBit(1) // data
	}
	return bitstream.CompilePattern(bits, mask)
}
