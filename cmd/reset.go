/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/protoboard/serial"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port|serial>",
	Short: "Reset the board or its USB bridge",
	Long: `Reset the board without unplugging it.

By default the EN line is pulsed through DTR/RTS, the same way the
firmware uploader does it. The board reboots and the port stays put.

With --usb a USB-level reset is performed on the bridge instead. The device
re-enumerates afterwards, which may change the port path. Use serial numbers
to identify devices reliably across a USB reset.

USB reset requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  protoboard reset /dev/ttyUSB0                 # EN pulse
  sudo protoboard reset --usb /dev/ttyUSB0      # USB reset by port path
  sudo protoboard reset --usb --serial NC7ILXW1 # USB reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		usb, _ := cmd.Flags().GetBool("usb")
		if serialFlag != "" && !usb {
			return errors.New("--serial requires --usb")
		}
		if serialFlag == "" && len(args) != 1 {
			return errors.New("requires either a port path argument or --serial flag")
		}
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		usb, _ := cmd.Flags().GetBool("usb")
		if !usb {
			pulse, _ := cmd.Flags().GetDuration("pulse")
			fmt.Printf("Pulsing EN on %s\n", args[0])
			if err := serial.PulseReset(args[0], cfg.Serial.BaudRate, pulse); err != nil {
				fail("%v", err)
			}
			fmt.Println("Board reset")
			return
		}

		if !serial.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Error: usbreset utility not available")
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			os.Exit(1)
		}

		serialFlag, _ := cmd.Flags().GetString("serial")

		var err error
		if serialFlag != "" {
			fmt.Printf("Resetting USB device with serial: %s\n", serialFlag)
			err = serial.ResetUSBDeviceBySerial(serialFlag)
		} else {
			fmt.Printf("Resetting USB device: %s\n", args[0])
			err = serial.ResetUSBDevice(args[0])
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			os.Exit(1)
		}

		fmt.Println("USB device reset successfully")
		fmt.Println("Device will re-enumerate (port path may change)")
		fmt.Println("\nUse 'protoboard list --table' to see updated device list")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Bool("usb", false, "Reset the USB bridge instead of pulsing EN")
	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number (with --usb)")
	resetCmd.Flags().Duration("pulse", serial.DefaultPulse, "How long EN is held low")
}
