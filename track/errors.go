package track

import "fmt"

// SectorErrorKind classifies a sector record that contradicts the
// requested disk position.
type SectorErrorKind int

const (
	// WrongTrack: the ID field names another track.
	WrongTrack SectorErrorKind = iota
	// WrongSide: the ID field names the other side. Usually the chosen
	// disk format has the wrong side mapping.
	WrongSide
	// SectorOutOfRange: sector number outside 1..sectors-per-track.
	SectorOutOfRange
	// BadLength: sector length code other than 2 (512 bytes).
	BadLength
)

// SectorError reports a sector record inconsistent with the requested
// position. By default these are logged and the record skipped; with
// stop-on-error enabled they become fatal.
type SectorError struct {
	Kind   SectorErrorKind
	Track  int
	Head   int
	Record *SectorRecord
}

func (e *SectorError) Error() string {
	switch e.Kind {
	case WrongTrack:
		return fmt.Sprintf("wrong track number %d on track %d head %d",
			e.Record.TrackNo, e.Track, e.Head)
	case WrongSide:
		return fmt.Sprintf("wrong side number %d on track %d head %d; check the selected disk format (swapped sides?)",
			e.Record.SideNo, e.Track, e.Head)
	case SectorOutOfRange:
		return fmt.Sprintf("sector number %d out of expected bounds on track %d head %d",
			e.Record.SectorNo, e.Track, e.Head)
	case BadLength:
		return fmt.Sprintf("non-512 byte sector length code %d on track %d head %d",
			e.Record.LengthCode, e.Track, e.Head)
	}
	return "unknown sector error"
}
