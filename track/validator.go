package track

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hpingel/access1581/bitstream"
	"github.com/hpingel/access1581/format"
)

// TrackStatus describes how much of a track the validator recovered.
type TrackStatus int

const (
	// TrackComplete: every expected sector was recovered.
	TrackComplete TrackStatus = iota
	// TrackPartial: some but not all sectors were recovered after all
	// retries.
	TrackPartial
	// TrackEmpty: no sector was ever recovered; the payload is a
	// zero-filled stub.
	TrackEmpty
)

// Result is the outcome of reading one track.
type Result struct {
	// Payload holds the accepted sector bytes in ascending sector
	// order. Complete and Empty results have the full track length;
	// Partial results are short.
	Payload []byte
	Status  TrackStatus

	// Sectors maps each accepted sector number to its data, so a
	// caller can realign a partial track.
	Sectors map[int][]byte

	// Attempts is the number of reads performed.
	Attempts int

	// Bitstream is the decompressed stream of the last read, for debug
	// capture.
	Bitstream *bitstream.Bitstream
}

// Validator drives the per-track retry loop: it requests sector records
// from the parser, checks their consistency and CRCs, deduplicates by
// sector number and re-reads the track until it is complete or the
// retries are exhausted.
type Validator struct {
	format      *format.DiskFormat
	parser      *Parser
	maxRetries  int
	stopOnError bool
}

// NewValidator creates a validator performing up to maxRetries reads per
// track. With stopOnError, sector records inconsistent with the
// requested position abort the run instead of being skipped.
func NewValidator(f *format.DiskFormat, parser *Parser, maxRetries int, stopOnError bool) *Validator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Validator{
		format:      f,
		parser:      parser,
		maxRetries:  maxRetries,
		stopOnError: stopOnError,
	}
}

// ReadTrack reads and validates one logical track position.
func (v *Validator) ReadTrack(trackNo, headNo int) (Result, error) {
	accepted := make(map[int][]byte)
	attempts := 0

	for attempt := 1; attempt <= v.maxRetries; attempt++ {
		attempts = attempt
		if attempt > 1 {
			log.Info("repeating track read", "attempt", attempt, "of", v.maxRetries)
		}

		records, err := v.parser.DetectSectors(trackNo, headNo)
		if err != nil {
			return Result{}, err
		}
		final := attempt == v.maxRetries
		if err := v.addValidSectors(records, trackNo, headNo, final, accepted); err != nil {
			return Result{}, err
		}

		fmt.Printf("Reading track: %2d, head: %d. Number of valid sectors found: %d/%d\n",
			trackNo, headNo, len(accepted), v.format.SectorsPerTrack)
		if len(accepted) == v.format.SectorsPerTrack {
			break
		}
	}

	result := Result{
		Sectors:   accepted,
		Attempts:  attempts,
		Bitstream: v.parser.LastBitstream(),
	}
	switch {
	case len(accepted) == v.format.SectorsPerTrack:
		result.Status = TrackComplete
		result.Payload = assemblePayload(accepted, v.format)
	case len(accepted) == 0:
		log.Warn("no sectors recovered, filling track with zeros", "track", trackNo, "head", headNo)
		result.Status = TrackEmpty
		result.Payload = make([]byte, v.format.TrackPayloadSize())
	default:
		log.Warn("not enough sectors found", "track", trackNo, "head", headNo,
			"found", len(accepted), "expected", v.format.SectorsPerTrack)
		result.Status = TrackPartial
		result.Payload = assemblePayload(accepted, v.format)
	}
	return result, nil
}

// addValidSectors merges one read's records into the accepted set. A
// sector already present is never replaced. CRC failures are skipped so
// a retry can pick the sector up, except on the final attempt where the
// best available bytes are kept with a warning.
func (v *Validator) addValidSectors(records []SectorRecord, trackNo, headNo int, final bool, accepted map[int][]byte) error {
	for i := range records {
		rec := &records[i]
		crcOK := rec.CRCOK()
		log.Debug("sector record",
			"track", rec.TrackNo, "side", rec.SideNo, "sector", rec.SectorNo,
			"length_code", rec.LengthCode, "crc_ok", crcOK)

		if rec.TrackNo != trackNo {
			if err := v.handleSectorError(&SectorError{Kind: WrongTrack, Track: trackNo, Head: headNo, Record: rec}); err != nil {
				return err
			}
			continue
		}
		if rec.SideNo != headNo {
			if err := v.handleSectorError(&SectorError{Kind: WrongSide, Track: trackNo, Head: headNo, Record: rec}); err != nil {
				return err
			}
			continue
		}
		if rec.SectorNo < 1 || rec.SectorNo > v.format.SectorsPerTrack {
			if err := v.handleSectorError(&SectorError{Kind: SectorOutOfRange, Track: trackNo, Head: headNo, Record: rec}); err != nil {
				return err
			}
			continue
		}
		if _, ok := accepted[rec.SectorNo]; ok {
			continue
		}
		if rec.LengthCode != 2 {
			if err := v.handleSectorError(&SectorError{Kind: BadLength, Track: trackNo, Head: headNo, Record: rec}); err != nil {
				return err
			}
			continue
		}

		if !crcOK {
			if !final {
				log.Warn("invalid CRC, sector skipped for retry",
					"track", trackNo, "head", headNo, "sector", rec.SectorNo)
				continue
			}
			log.Warn("invalid CRC, adding sector data anyway",
				"track", trackNo, "head", headNo, "sector", rec.SectorNo)
		}
		accepted[rec.SectorNo] = rec.Data
	}
	return nil
}

// handleSectorError applies the error-versus-warning policy.
func (v *Validator) handleSectorError(err *SectorError) error {
	if v.stopOnError {
		return err
	}
	log.Error(err.Error())
	return nil
}

// assemblePayload concatenates accepted sector data in ascending sector
// number order.
func assemblePayload(accepted map[int][]byte, f *format.DiskFormat) []byte {
	payload := make([]byte, 0, f.TrackPayloadSize())
	for sector := 1; sector <= f.SectorsPerTrack; sector++ {
		if data, ok := accepted[sector]; ok {
			payload = append(payload, data...)
		}
	}
	return payload
}
