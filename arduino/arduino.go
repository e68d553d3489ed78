// Package arduino talks to the Arduino floppy controller over a high
// speed serial link and turns its compressed flux reads into bitstreams.
//
// The controller implements the command interface of Rob Smith's Arduino
// Amiga Floppy Disk Reader/Writer firmware.
package arduino

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"

	"github.com/hpingel/access1581/bitstream"
)

const baudRate = 2000000

const (
	// Upper bound on one compressed track read, including slack for
	// drives that spin slow.
	maxTrackBytes = 12200

	// A healthy full-revolution read is around 10,400 bytes; anything
	// below this is suspicious.
	shortTrackBytes = 10223

	// Fixed first read on the portable bulk path.
	bulkReadBytes = 10380
)

// Stats accumulates time spent on the serial link and in decompression
// over an imaging run.
type Stats struct {
	TrackRead  time.Duration
	Commands   time.Duration
	Decompress time.Duration
}

// Client is a scoped handle on the controller. The first command opens
// the port and runs the handshake; Close rewinds the head, stops the
// motor and releases the port. Track and head selections are cached so
// repeated reads of the same position skip the seek commands.
type Client struct {
	device     string
	trackCount int

	port         serial.Port
	connected    bool
	motorRunning bool
	firmware     string

	// Sentinels outside the geometry force the first selection.
	currentTrack int
	currentHead  int

	readFromIndex bool
	stats         Stats
}

// NewClient prepares a handle for the given serial device. The port is
// opened lazily by the first command.
func NewClient(device string, trackCount int) *Client {
	return &Client{
		device:       device,
		trackCount:   trackCount,
		currentTrack: 100,
		currentHead:  2,
	}
}

// SetReadFromIndex selects whether track reads wait for the index pulse
// (aligned to rotation start) or begin immediately. Ignoring the pulse
// is faster and is the default.
func (c *Client) SetReadFromIndex(fromIndex bool) {
	c.readFromIndex = fromIndex
}

// Firmware returns the 4-character firmware version reported during the
// handshake, or an empty string before the link is open.
func (c *Client) Firmware() string {
	return c.firmware
}

// Stats returns the accumulated serial and decompression timings.
func (c *Client) Stats() Stats {
	return c.stats
}

// Open establishes the serial session and runs the handshake: query the
// firmware version, then rewind to track 0.
func (c *Client) Open() error {
	if c.connected {
		return nil
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(c.device, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", c.device, err)
	}
	c.port = port
	c.connected = true
	if err := port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to clear input buffer: %w", err)
	}

	if err := c.sendCommand(cmdVersion, nil); err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	log.Info("connection to microcontroller established", "device", c.device, "firmware", c.firmware)
	return c.sendCommand(cmdRewind, nil)
}

// Close rewinds the head, switches the motor off and closes the port.
// Safe to call more than once.
func (c *Client) Close() error {
	if !c.connected {
		return nil
	}
	// Best effort: park the mechanism even if one command fails.
	if err := c.sendCommand(cmdRewind, nil); err != nil {
		log.Warn("rewind on shutdown failed", "err", err)
	}
	if err := c.sendCommand(cmdMotorOff, nil); err != nil {
		log.Warn("motor off on shutdown failed", "err", err)
	}
	c.connected = false
	c.motorRunning = false
	return c.port.Close()
}

// sendCommand performs one command/reply exchange. Any command other
// than the version query requires the motor: if it is known off, a
// motor-on command is issued first. The input buffer is cleared before
// writing so a stale byte cannot be mistaken for the reply.
func (c *Client) sendCommand(cmd command, param []byte) error {
	if !c.connected {
		if err := c.Open(); err != nil {
			return err
		}
	}

	switch cmd {
	case cmdVersion:
		// Usable without the motor.
	case cmdMotorOn:
		c.motorRunning = true
	case cmdMotorOff:
		c.motorRunning = false
	default:
		if !c.motorRunning {
			if err := c.sendCommand(cmdMotorOn, nil); err != nil {
				return err
			}
		}
	}

	opcode, expectsFirmware, label := cmd.encode()
	start := time.Now()
	defer func() { c.stats.Commands += time.Since(start) }()

	if err := c.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%s: failed to clear input buffer: %w", label, err)
	}
	if _, err := c.port.Write(append(opcode, param...)); err != nil {
		return fmt.Errorf("%s: write failed: %w", label, err)
	}

	reply := make([]byte, 1)
	if _, err := io.ReadFull(c.port, reply); err != nil {
		return fmt.Errorf("%s: failed to read reply: %w", label, err)
	}
	if expectsFirmware {
		firmware := make([]byte, 4)
		if _, err := io.ReadFull(c.port, firmware); err != nil {
			return fmt.Errorf("%s: failed to read firmware version: %w", label, err)
		}
		c.firmware = string(firmware)
	}
	if reply[0] != '1' {
		return &ControllerError{Cmd: label, Reply: reply[0]}
	}
	return nil
}

// selectTrackAndHead positions the mechanism, skipping commands when the
// cached position already matches.
func (c *Client) selectTrackAndHead(track, head int) error {
	if track != c.currentTrack {
		if track < 0 || track >= c.trackCount {
			return &RangeError{What: "track", Value: track, Max: c.trackCount - 1}
		}
		param := fmt.Sprintf("%02d", track)
		if err := c.sendCommand(cmdSelectTrack, []byte(param)); err != nil {
			return err
		}
		c.currentTrack = track
	}
	if head != c.currentHead {
		headCmd := cmdHead0
		if head == 1 {
			headCmd = cmdHead1
		} else if head != 0 {
			return &RangeError{What: "head", Value: head, Max: 1}
		}
		if err := c.sendCommand(headCmd, nil); err != nil {
			return err
		}
		c.currentHead = head
	}
	return nil
}

// ReadBitstream reads the raw compressed track at the given physical
// position and expands it to a flux bitstream.
func (c *Client) ReadBitstream(track, head int) (*bitstream.Bitstream, error) {
	raw, err := c.ReadRawTrack(track, head)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	bs := bitstream.ExpandFlux(raw)
	c.stats.Decompress += time.Since(start)
	return bs, nil
}
