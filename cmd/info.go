/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata,
and whether it looks like the board.

With --probe the board is reset once and its boot output is checked for
an ESP32 banner.

Examples:
  protoboard info /dev/ttyUSB0
  protoboard info /dev/ttyACM0 --probe`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		probe, _ := cmd.Flags().GetBool("probe")

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fail("getting port info: %v", err)
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)
		fmt.Printf("  Bridge:      %s\n", yesNo(protoboard.MatchesVendor(info.Descriptor())))

		if info.IsUSB() {
			fmt.Println("\nUSB Device Information:")
			printField("Vendor ID", info.VendorID)
			printField("Product ID", info.ProductID)
			printField("Serial", info.SerialNumber)
			printField("Interface", info.InterfaceNumber)
			printField("Bus", info.BusNumber)
			printField("Device", info.DeviceNumber)
			printField("Manufacturer", info.Manufacturer)
			printField("Product", info.Product)
		}

		if probe {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Serial.Discovery.Probe+time.Second)
			defer cancel()
			ok, err := serial.SniffBanner(ctx, portPath, cfg.Serial.BaudRate)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nProbe failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("\n  ESP32 banner: %s\n", yesNo(ok))
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("probe", false, "reset the board and look for an ESP32 boot banner")
}

func printField(label, value string) {
	if value != "" {
		fmt.Printf("  %-13s %s\n", label+":", value)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
