// Package imager orchestrates the full disk read: it iterates every
// track and head, collects the validated payloads and assembles the
// flat sector image.
package imager

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/hpingel/access1581/arduino"
	"github.com/hpingel/access1581/capture"
	"github.com/hpingel/access1581/format"
	"github.com/hpingel/access1581/track"
)

// Imager reads a whole disk through a validator and writes the image.
type Imager struct {
	format    *format.DiskFormat
	validator *track.Validator
	source    track.Source

	// When set, every track's decompressed bitstream is recorded here,
	// keyed by physical position, for later replay.
	capture *capture.Capture
}

// New creates an imager. The source is the same one the validator's
// parser reads through; the imager owns its shutdown.
func New(f *format.DiskFormat, validator *track.Validator, source track.Source) *Imager {
	return &Imager{format: f, validator: validator, source: source}
}

// RecordCapture enables bitstream capture into c during Image.
func (im *Imager) RecordCapture(c *capture.Capture) {
	im.capture = c
}

// Image reads every track in (track, head) order and returns the
// assembled image. The result is always exactly ImageSize bytes: tracks
// with missing sectors are realigned with zero-filled gaps so the image
// stays byte-aligned.
func (im *Imager) Image() ([]byte, error) {
	f := im.format
	image := make([]byte, 0, f.ImageSize())

	for trackNo := 0; trackNo < f.TrackCount; trackNo++ {
		for headNo := 0; headNo < f.HeadCount; headNo++ {
			result, err := im.validator.ReadTrack(trackNo, headNo)
			if err != nil {
				return nil, fmt.Errorf("track %d head %d: %w", trackNo, headNo, err)
			}

			payload := result.Payload
			if result.Status == track.TrackPartial {
				payload = alignPartial(result.Sectors, f)
			}
			if len(payload) != f.TrackPayloadSize() {
				return nil, fmt.Errorf("track %d head %d: payload is %d bytes, expected %d",
					trackNo, headNo, len(payload), f.TrackPayloadSize())
			}
			image = append(image, payload...)

			if im.capture != nil && result.Bitstream != nil {
				im.capture.Set(trackNo, f.PhysicalHead(headNo), result.Bitstream)
			}
		}
	}
	return image, nil
}

// Run reads the disk, writes the image to path and prints its digests.
// The controller is shut down on every path, including errors.
func (im *Imager) Run(path string) error {
	defer func() {
		if err := im.source.Close(); err != nil {
			log.Warn("failed to close controller", "err", err)
		}
	}()

	image, err := im.Image()
	if err != nil {
		return err
	}

	fmt.Printf("Writing image to file %s\n", path)
	if err := os.WriteFile(path, image, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	fmt.Printf("MD5   : %x\n", md5.Sum(image))
	fmt.Printf("SHA1  : %x\n", sha1.Sum(image))
	fmt.Printf("SHA256: %x\n", sha256.Sum256(image))

	im.printStats()
	return nil
}

// printStats reports serial and decompression timings when the source
// collects them (the hardware client does, the simulator does not).
func (im *Imager) printStats() {
	s, ok := im.source.(interface{ Stats() arduino.Stats })
	if !ok {
		return
	}
	stats := s.Stats()
	fmt.Printf("Total duration of all track reads   : %.2f seconds\n", stats.TrackRead.Seconds())
	fmt.Printf("Total duration other serial commands: %.2f seconds\n", stats.Commands.Seconds())
	fmt.Printf("Total duration of all decompressions: %.2f seconds\n", stats.Decompress.Seconds())
}

// alignPartial rebuilds a track payload from an incomplete sector set,
// zero-filling the missing sectors so the image offsets stay correct.
func alignPartial(sectors map[int][]byte, f *format.DiskFormat) []byte {
	payload := make([]byte, f.TrackPayloadSize())
	for sector, data := range sectors {
		copy(payload[(sector-1)*f.SectorSize:], data)
	}
	return payload
}
