package track

import (
	"github.com/hpingel/access1581/bitstream"
	"github.com/hpingel/access1581/crc16"
)

// sectorSpec describes one synthetic sector for test track construction.
type sectorSpec struct {
	track  byte
	side   byte
	sector byte
	length byte
	data   []byte

	corruptHeaderCRC bool
	corruptDataCRC   bool

	// Extra stray bits inserted into the gap between the ID field and
	// the data field, to shift the header-to-data offset off its
	// nominal 704 bits.
	gapStrayBits int

	// Extra gap bytes between ID field and data run-in. Each adds 16
	// bits to the header-to-data offset.
	extraGapBytes int
}

// trackBuilder assembles an MFM track bitstream the way the drive
// electronics would see it: gaps, run-in zeros, sync cells and encoded
// record bytes with continuous clocking.
type trackBuilder struct {
	bs   *bitstream.Bitstream
	prev int
}

func newTrackBuilder() *trackBuilder {
	return &trackBuilder{bs: bitstream.New(0)}
}

func (b *trackBuilder) bytes(data ...byte) {
	for _, v := range data {
		b.prev = b.bs.AppendMFM(v, b.prev)
	}
}

func (b *trackBuilder) repeat(v byte, n int) {
	for i := 0; i < n; i++ {
		b.bytes(v)
	}
}

func (b *trackBuilder) sync(tag byte) {
	for i := 0; i < 3; i++ {
		b.bs.AppendUint16(bitstream.SyncCellA1)
	}
	b.prev = b.bs.AppendMFM(tag, 1)
}

// sector emits one complete sector record. With the nominal 22 gap
// bytes and 12 run-in zeros the data sync ends exactly 704 bits after
// the header sync.
func (b *trackBuilder) sector(s sectorSpec) {
	b.repeat(0x00, 12)
	b.sync(0xfe)
	id := []byte{s.track, s.side, s.sector, s.length}
	b.bytes(id...)
	headerCRC := crc16.Checksum(append([]byte{0xa1, 0xa1, 0xa1, 0xfe}, id...))
	if s.corruptHeaderCRC {
		headerCRC ^= 0x5555
	}
	b.bytes(byte(headerCRC>>8), byte(headerCRC))

	b.repeat(0x4e, 22+s.extraGapBytes)
	for i := 0; i < s.gapStrayBits; i++ {
		b.bs.AppendBit(0)
		b.prev = 0
	}
	b.repeat(0x00, 12)
	b.sync(0xfb)
	b.bytes(s.data...)
	dataCRC := crc16.Update(crc16.Update(crc16.Init, []byte{0xa1, 0xa1, 0xa1, 0xfb}), s.data)
	if s.corruptDataCRC {
		dataCRC ^= 0x5555
	}
	b.bytes(byte(dataCRC>>8), byte(dataCRC))
	b.repeat(0x4e, 16)
}

// buildTrack renders a full synthetic track with leading and trailing
// gap bytes.
func buildTrack(specs ...sectorSpec) *bitstream.Bitstream {
	b := newTrackBuilder()
	b.repeat(0x4e, 32)
	for _, s := range specs {
		b.sector(s)
	}
	b.repeat(0x4e, 32)
	return b.bs
}

// sectorData produces 512 recognizable bytes seeded by the sector
// number.
func sectorData(seed byte) []byte {
	data := make([]byte, 512)
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}

// fakeSource replays prepared bitstreams keyed by physical position.
// Successive reads of the same position step through the per-position
// list, so tests can model a sector that heals on a later attempt.
type fakeSource struct {
	streams map[[2]int][]*bitstream.Bitstream
	reads   map[[2]int]int
	closed  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		streams: make(map[[2]int][]*bitstream.Bitstream),
		reads:   make(map[[2]int]int),
	}
}

func (f *fakeSource) add(track, head int, bs *bitstream.Bitstream) {
	key := [2]int{track, head}
	f.streams[key] = append(f.streams[key], bs)
}

func (f *fakeSource) ReadBitstream(track, head int) (*bitstream.Bitstream, error) {
	key := [2]int{track, head}
	f.reads[key]++
	list := f.streams[key]
	if len(list) == 0 {
		return bitstream.New(0), nil
	}
	idx := f.reads[key] - 1
	if idx >= len(list) {
		idx = len(list) - 1
	}
	return list[idx], nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}
