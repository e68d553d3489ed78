package arduino

// command is the closed set of controller operations. Each maps to a
// one-byte opcode, optionally followed by a parameter; the firmware
// acknowledges with an ASCII '1'.
type command int

const (
	cmdVersion command = iota
	cmdMotorOn
	cmdMotorOff
	cmdRewind
	cmdHead0
	cmdHead1
	cmdSelectTrack
	cmdReadTrackFromIndex
	cmdReadTrackInstant
)

// encode returns the opcode bytes to put on the wire, whether the reply
// carries the 4-byte firmware version, and a human readable label.
func (c command) encode() (opcode []byte, expectsFirmware bool, label string) {
	switch c {
	case cmdVersion:
		return []byte{'?'}, true, "detecting firmware version"
	case cmdMotorOn:
		return []byte{'+'}, false, "switching motor on"
	case cmdMotorOff:
		return []byte{'-'}, false, "switching motor off"
	case cmdRewind:
		return []byte{'.'}, false, "rewinding to track 0"
	case cmdHead0:
		return []byte{'['}, false, "selecting head 0"
	case cmdHead1:
		return []byte{']'}, false, "selecting head 1"
	case cmdSelectTrack:
		return []byte{'#'}, false, "selecting track"
	case cmdReadTrackFromIndex:
		return []byte{'<', 0x01}, false, "reading track from index pulse"
	case cmdReadTrackInstant:
		return []byte{'<', 0x00}, false, "instantly reading track"
	}
	panic("arduino: unknown command")
}
