// Package track turns flux bitstreams into validated sector data: it
// locates sector markers, extracts MFM-decoded records, verifies their
// checksums and assembles complete track payloads with retries.
package track

import (
	"github.com/hpingel/access1581/crc16"
)

// SectorRecord is one sector as parsed off a track, before validation.
type SectorRecord struct {
	TrackNo    int
	SideNo     int
	SectorNo   int
	LengthCode int // 2 means 512-byte sectors

	// HeaderBytes is the decoded A1 A1 A1 FE prelude plus the four ID
	// bytes, the exact span the header CRC covers.
	HeaderBytes []byte
	HeaderCRC   uint16

	// DataMeta is the decoded A1 A1 A1 FB prelude of the data field;
	// the data CRC covers it together with Data.
	DataMeta []byte
	Data     []byte
	DataCRC  uint16
}

// HeaderCRCOK verifies the ID field checksum.
func (r *SectorRecord) HeaderCRCOK() bool {
	return crc16.Checksum(r.HeaderBytes) == r.HeaderCRC
}

// DataCRCOK verifies the data field checksum.
func (r *SectorRecord) DataCRCOK() bool {
	crc := crc16.Update(crc16.Init, r.DataMeta)
	return crc16.Update(crc, r.Data) == r.DataCRC
}

// CRCOK reports whether both checksums verify.
func (r *SectorRecord) CRCOK() bool {
	return r.HeaderCRCOK() && r.DataCRCOK()
}
