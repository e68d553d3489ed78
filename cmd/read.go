package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hpingel/access1581/arduino"
	"github.com/hpingel/access1581/capture"
	"github.com/hpingel/access1581/config"
	"github.com/hpingel/access1581/format"
	"github.com/hpingel/access1581/imager"
	"github.com/hpingel/access1581/track"
)

var (
	diskTypeFlag       string
	outputFlag         string
	serialDeviceFlag   string
	retriesFlag        int
	stopOnErrorFlag    bool
	storeBitstreamFlag bool
	captureFileFlag    string
	fromIndexFlag      bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the floppy disk into an image file",
	Long: `Read all 80 tracks of both disk sides and write the decoded sectors to a
flat image file. Tracks with CRC errors are re-read until the configured
number of retries (total read attempts per track) is used up.

The serial device value 'simulated' replays a bitstream capture file
instead of driving hardware; 'auto' picks the first USB serial port.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Flags left at their zero value fall back to the defaults file.
		if diskTypeFlag == "" {
			diskTypeFlag = config.DiskType
		}
		if serialDeviceFlag == "" {
			serialDeviceFlag = config.SerialDevice
		}
		if retriesFlag <= 0 {
			retriesFlag = config.Retries
		}

		diskFormat, err := format.ByName(diskTypeFlag)
		if err != nil {
			cobra.CheckErr(err)
		}

		output := outputFlag
		if output == "" {
			output = fmt.Sprintf("image_%s.%s", diskFormat.Name, diskFormat.ImageExtension)
		}

		fmt.Printf("Selected disk format is %s, we expect %d sectors per track\n",
			diskFormat.Name, diskFormat.SectorsPerTrack)
		fmt.Printf("Target image file is: %s\n", output)
		fmt.Printf("Serial device is: %s\n", serialDeviceFlag)

		source, err := openSource(diskFormat)
		if err != nil {
			cobra.CheckErr(err)
		}

		parser := track.NewParser(diskFormat, source)
		validator := track.NewValidator(diskFormat, parser, retriesFlag, stopOnErrorFlag)
		im := imager.New(diskFormat, validator, source)

		var rec *capture.Capture
		if storeBitstreamFlag {
			rec = capture.New()
			im.RecordCapture(rec)
		}

		if err := im.Run(output); err != nil {
			cobra.CheckErr(err)
		}

		if rec != nil {
			if err := rec.Save(captureFileFlag); err != nil {
				cobra.CheckErr(err)
			}
			log.Info("bitstream capture written", "file", captureFileFlag)
		}
	},
}

// openSource creates the track source selected by the serial device
// flag: replayed capture, auto-detected port, or a literal device path.
func openSource(diskFormat *format.DiskFormat) (track.Source, error) {
	if serialDeviceFlag == "simulated" {
		loaded, err := capture.Load(captureFileFlag)
		if err != nil {
			return nil, err
		}
		tracks, err := loaded.Bitstreams()
		if err != nil {
			return nil, err
		}
		return arduino.NewSimulator(tracks), nil
	}

	device := serialDeviceFlag
	if device == "auto" {
		found, err := findUSBSerialDevice()
		if err != nil {
			return nil, err
		}
		device = found
	}

	client := arduino.NewClient(device, diskFormat.TrackCount)
	client.SetReadFromIndex(fromIndexFlag)
	return client, nil
}

func init() {
	readCmd.Flags().StringVarP(&diskTypeFlag, "disktype", "d", "",
		fmt.Sprintf("type of DD disk in floppy drive: %v", format.Names()))
	readCmd.Flags().StringVarP(&outputFlag, "output", "o", "",
		"file path/name of image file to write to, default is image_<disktype>.<ext>")
	readCmd.Flags().StringVarP(&serialDeviceFlag, "serialdevice", "s", "",
		"serial device of the controller, e.g. /dev/ttyUSB0 ('simulated' replays a capture, 'auto' detects)")
	readCmd.Flags().IntVarP(&retriesFlag, "retries", "r", 0,
		"number of read attempts per disk track; a track is read again after an invalid CRC check")
	readCmd.Flags().BoolVar(&stopOnErrorFlag, "stop-on-error", false,
		"abort on sector records inconsistent with the requested position")
	readCmd.Flags().BoolVar(&storeBitstreamFlag, "store-bitstream", false,
		"persist every decompressed track bitstream to the capture file")
	readCmd.Flags().StringVar(&captureFileFlag, "capture-file", "raw_debug_capture.toml",
		"bitstream capture file used by --store-bitstream and the simulated device")
	readCmd.Flags().BoolVar(&fromIndexFlag, "from-index", false,
		"align track reads to the index pulse instead of reading instantly")

	rootCmd.AddCommand(readCmd)
}
