// Package cmd implements the access1581 command line interface.
package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hpingel/access1581/config"
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "access1581",
	Short: "Image double density 3.5\" floppy disks via an Arduino floppy controller",
	Long: `access1581 reads IBM PC compatible DD 3.5" floppy disks and Commodore 1581
disks through an Arduino running the Amiga Floppy Disk Reader/Writer firmware,
attached over a 2 Mbaud serial link. The raw flux stream of every track is
decoded sector by sector with CRC validation and assembled into a flat
image file (.img or .d81).`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}

		switch cmd.Name() {
		case "read", "status":
			// These commands need the defaults file
			if err := config.Initialize(); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"log per-sector debug details")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
