/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/serial"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Find the port the board is attached to",
	Long: `Scan the serial ports for the board and print its path.

A port qualifies when its USB descriptor names a known UART bridge, or when
a short reset makes it print an ESP32 boot banner. Each candidate is
probed once per debounce window.

With --watch the scan repeats until a board shows up or Ctrl+C.

Example usage:
  protoboard detect
  protoboard panel --port "$(protoboard detect)"
  protoboard detect --watch`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		useEnumerator, _ := cmd.Flags().GetBool("enumerator")

		var lister protoboard.PortLister = serial.SysfsLister{}
		if useEnumerator {
			lister = serial.EnumeratorLister{}
		}

		disc, err := protoboard.NewDiscovery(lister,
			append(cfg.SessionOptions(), protoboard.WithLogger(logger.Named("discovery")))...)
		if err != nil {
			fail("%v", err)
		}

		if !watch {
			path, ok := disc.Scan(cmd.Context())
			if !ok {
				fmt.Fprintln(os.Stderr, "No board found")
				os.Exit(1)
			}
			fmt.Println(path)
			return
		}

		ctx, stop := signalContext()
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var found string
		disc.Run(ctx, func() bool { return false }, func(path string) {
			found = path
			cancel()
		})
		if found == "" {
			os.Exit(1)
		}
		fmt.Println(found)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().BoolP("watch", "w", false, "keep scanning until a board is found")
	detectCmd.Flags().Bool("enumerator", false, "Use the USB enumerator instead of sysfs")
}
