package arduino

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"
)

// ReadRawTrack positions the mechanism and streams one compressed track
// off the drive. The controller terminates the stream with a zero byte;
// the returned bytes exclude it. Reads shorter than a full revolution
// are reported with a warning and returned as-is.
func (c *Client) ReadRawTrack(track, head int) ([]byte, error) {
	if err := c.selectTrackAndHead(track, head); err != nil {
		return nil, err
	}
	if !c.motorRunning {
		if err := c.sendCommand(cmdMotorOn, nil); err != nil {
			return nil, err
		}
	}

	readCmd := cmdReadTrackInstant
	if c.readFromIndex {
		readCmd = cmdReadTrackFromIndex
	}
	opcode, _, label := readCmd.encode()

	start := time.Now()
	defer func() { c.stats.TrackRead += time.Since(start) }()

	if _, err := c.port.Write(opcode); err != nil {
		return nil, fmt.Errorf("%s: write failed: %w", label, err)
	}

	var data []byte
	var err error
	if runtime.GOOS == "linux" {
		data, err = c.readUntilSentinel()
	} else {
		data, err = c.readBulkAndDrain()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	if len(data) < shortTrackBytes {
		log.Warn("track read suspiciously short", "track", track, "head", head, "bytes", len(data))
	}
	return data, nil
}

// readUntilSentinel consumes the stream byte-wise until the zero
// terminator, bounded so a wedged controller cannot hang the host.
func (c *Client) readUntilSentinel() ([]byte, error) {
	data := make([]byte, 0, maxTrackBytes)
	buf := make([]byte, 1)
	for len(data) < maxTrackBytes {
		if _, err := io.ReadFull(c.port, buf); err != nil {
			return nil, fmt.Errorf("failed to read track data: %w", err)
		}
		if buf[0] == 0 {
			break
		}
		data = append(data, buf[0])
	}
	return data, nil
}

// readBulkAndDrain is the portable path for hosts where byte-wise serial
// reads are slow: read a fixed block covering most of a revolution, then
// drain the remainder with a short timeout until the terminator. The
// result is identical to readUntilSentinel.
func (c *Client) readBulkAndDrain() ([]byte, error) {
	data := make([]byte, bulkReadBytes)
	if _, err := io.ReadFull(c.port, data); err != nil {
		return nil, fmt.Errorf("failed to read track data: %w", err)
	}

	if err := c.port.SetReadTimeout(50 * time.Millisecond); err != nil {
		return nil, fmt.Errorf("failed to set drain timeout: %w", err)
	}
	defer func() {
		if err := c.port.SetReadTimeout(serial.NoTimeout); err != nil {
			log.Warn("failed to restore read timeout", "err", err)
		}
	}()

	buf := make([]byte, 256)
	for len(data) < maxTrackBytes {
		n, err := c.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to drain track data: %w", err)
		}
		if n == 0 {
			break
		}
		data = append(data, buf[:n]...)
	}

	// Trim at the terminator; the bulk block may already contain it.
	for i, b := range data {
		if b == 0 {
			return data[:i], nil
		}
	}
	return data, nil
}
