package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"github.com/hpingel/access1581/arduino"
	"github.com/hpingel/access1581/config"
	"github.com/hpingel/access1581/format"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List serial ports and query the controller firmware",
	Long: `List the serial ports on this host (with VID/PID for USB ports) and, if a controller is reachable
on the configured device, report its firmware version.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to list serial ports: %w", err))
		}

		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
		} else {
			fmt.Println("Serial ports:")
			for _, port := range ports {
				if port.IsUSB {
					fmt.Printf("  %s (USB VID=%s PID=%s SN=%s)\n",
						port.Name, port.VID, port.PID, port.SerialNumber)
				} else {
					fmt.Printf("  %s\n", port.Name)
				}
			}
		}

		fmt.Printf("Configured device: %s\n", config.SerialDevice)

		client := arduino.NewClient(config.SerialDevice, 80)
		if err := client.Open(); err != nil {
			fmt.Printf("Controller: not reachable (%v)\n", err)
			return
		}
		defer client.Close()
		fmt.Printf("Controller firmware: %s\n", client.Firmware())
	},
}

// findUSBSerialDevice returns the first USB serial port on the host.
func findUSBSerialDevice() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	for _, port := range ports {
		if port.IsUSB {
			return port.Name, nil
		}
	}
	return "", fmt.Errorf("no USB serial port found (expected the controller on e.g. %s)",
		config.SerialDevice)
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported disk formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range format.Names() {
			f, err := format.ByName(name)
			if err != nil {
				cobra.CheckErr(err)
			}
			fmt.Printf("%-8s  %d tracks, %d heads, %d sectors of %d bytes per track -> %s (%d bytes)\n",
				f.Name, f.TrackCount, f.HeadCount, f.SectorsPerTrack, f.SectorSize,
				"."+f.ImageExtension, f.ImageSize())
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(formatsCmd)
}
