package track

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hpingel/access1581/bitstream"
	"github.com/hpingel/access1581/format"
)

// Source delivers decompressed track bitstreams by physical position.
// The hardware client and the capture-replaying simulator both satisfy
// it.
type Source interface {
	ReadBitstream(track, head int) (*bitstream.Bitstream, error)
	Close() error
}

const (
	// MFM-encoded bit length of the prelude (A1 A1 A1 plus tag byte).
	preludeBits = 4 * 16

	// MFM-encoded bit length of a 512-byte data field and of a CRC word.
	sectorDataBits = 512 * 16
	crcBits        = 2 * 16
)

// Parser extracts candidate sector records from single track reads.
// Incomplete sectors at the end of the captured chunk are discarded; CRC
// validation is left to the Validator.
type Parser struct {
	format *format.DiskFormat
	source Source

	lastBitstream *bitstream.Bitstream
}

// NewParser creates a parser reading through the given source.
func NewParser(f *format.DiskFormat, source Source) *Parser {
	return &Parser{format: f, source: source}
}

// LastBitstream returns the bitstream of the most recent DetectSectors
// call, for debug capture.
func (p *Parser) LastBitstream() *bitstream.Bitstream {
	return p.lastBitstream
}

// DetectSectors reads the requested logical track position and returns
// every complete sector record found in the flux stream.
func (p *Parser) DetectSectors(trackNo, headNo int) ([]SectorRecord, error) {
	bs, err := p.source.ReadBitstream(trackNo, p.format.PhysicalHead(headNo))
	if err != nil {
		return nil, fmt.Errorf("failed to read track %d head %d: %w", trackNo, headNo, err)
	}
	p.lastBitstream = bs

	headerEnds, dataEnds := p.findMarkers(bs)
	pairs := pairMarkers(headerEnds, dataEnds, bs.Len())

	records := make([]SectorRecord, 0, len(pairs))
	for _, pair := range pairs {
		records = append(records, extractRecord(bs, pair.header, pair.data))
	}
	return records, nil
}

type markerPair struct {
	header int // bit offset just past the header sync
	data   int // bit offset just past the data sync
}

// findMarkers locates all header and data sync marks. Data marks that
// lie too close to the start to belong to any detected header are
// discarded up front.
func (p *Parser) findMarkers(bs *bitstream.Bitstream) (headerEnds, dataEnds []int) {
	headerEnds = p.format.SectorStart.FindAll(bs)
	if len(headerEnds) == 0 {
		return nil, nil
	}
	for _, end := range p.format.SectorDataStart.FindAll(bs) {
		if end >= headerEnds[0]+format.OffsetRangeLower {
			dataEnds = append(dataEnds, end)
		}
	}
	return headerEnds, dataEnds
}

// pairMarkers walks header and data offsets in order with a single
// index. A header whose data field plus CRC would run past the end of
// the captured stream is dropped; the next data candidate then pairs
// with the following header.
func pairMarkers(headerEnds, dataEnds []int, streamLen int) []markerPair {
	var pairs []markerPair
	hi, di := 0, 0
	for hi < len(headerEnds) && di < len(dataEnds) {
		h, d := headerEnds[hi], dataEnds[di]
		if offset := d - h; offset < format.OffsetRangeLower || offset > format.OffsetRangeUpper {
			log.Warn("unusual header to data offset", "offset", offset)
		}
		hi++
		di++
		if d <= h {
			log.Warn("ignoring data marker behind its header", "data", d, "header", h)
			continue
		}
		if d+sectorDataBits+crcBits > streamLen {
			// The sector is cut off at the end of the chunk; its header
			// is dropped and the next candidate pairs with the
			// following header.
			continue
		}
		pairs = append(pairs, markerPair{header: h, data: d})
	}
	return pairs
}

// extractRecord windows the stream around one header/data pair and
// MFM-decodes the record fields.
func extractRecord(bs *bitstream.Bitstream, header, data int) SectorRecord {
	win := bs.Slice(header-preludeBits, data+sectorDataBits+crcBits)
	dataStart := data - header + preludeBits // data offset within the window

	headerBytes := win.Slice(0, 2*preludeBits).DecodeMFM()
	headerCRC := win.Slice(2*preludeBits, 2*preludeBits+crcBits).DecodeMFM()
	dataMeta := win.Slice(dataStart-preludeBits, dataStart).DecodeMFM()
	dataBytes := win.Slice(dataStart, dataStart+sectorDataBits).DecodeMFM()
	dataCRC := win.Slice(dataStart+sectorDataBits, dataStart+sectorDataBits+crcBits).DecodeMFM()

	return SectorRecord{
		TrackNo:     int(headerBytes[4]),
		SideNo:      int(headerBytes[5]),
		SectorNo:    int(headerBytes[6]),
		LengthCode:  int(headerBytes[7]),
		HeaderBytes: headerBytes,
		HeaderCRC:   uint16(headerCRC[0])<<8 | uint16(headerCRC[1]),
		DataMeta:    dataMeta,
		Data:        dataBytes,
		DataCRC:     uint16(dataCRC[0])<<8 | uint16(dataCRC[1]),
	}
}
