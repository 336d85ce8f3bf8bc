/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/protoboard/serial"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals <port>",
	Short: "Display or drive modem signal states",
	Long: `Display the current state of all modem control signals.

The output lines can be set with --dtr and --rts before the states are read.
On most dev boards DTR and RTS are wired to EN and IO0, so changing them may
hold the board in reset or bootloader mode. --pulse runs the regular EN reset
sequence instead.

Examples:
  protoboard signals /dev/ttyUSB0
  protoboard signals /dev/ttyUSB0 --dtr off --rts on
  protoboard signals /dev/ttyUSB0 --pulse

Signal meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		dtrFlag, _ := cmd.Flags().GetString("dtr")
		rtsFlag, _ := cmd.Flags().GetString("rts")
		pulse, _ := cmd.Flags().GetBool("pulse")

		port, err := serial.Open(portPath, serial.WithBaudRate(cfg.Serial.BaudRate), serial.WithExclusive(false))
		if err != nil {
			fail("opening port: %v", err)
		}
		defer port.Close()

		if dtrFlag != "" {
			state, err := parseOnOff(dtrFlag)
			if err != nil {
				fail("--dtr: %v", err)
			}
			if err := port.SetDTR(state); err != nil {
				fail("setting DTR: %v", err)
			}
		}
		if rtsFlag != "" {
			state, err := parseOnOff(rtsFlag)
			if err != nil {
				fail("--rts: %v", err)
			}
			if err := port.SetRTS(state); err != nil {
				fail("setting RTS: %v", err)
			}
		}
		if pulse {
			if err := serial.PulseLines(port, serial.DefaultPulse); err != nil {
				fail("reset pulse: %v", err)
			}
			fmt.Println("EN pulsed")
		}

		signals, err := port.GetModemSignals()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading modem signals: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Modem Signals for %s:\n\n", portPath)
		fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
		fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
		fmt.Printf("  RI  (Ring Indicator):      %s\n", formatSignalState(signals.RI))
		fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
		fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
		fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))
	},
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().String("dtr", "", "Set DTR before reading (on|off)")
	signalsCmd.Flags().String("rts", "", "Set RTS before reading (on|off)")
	signalsCmd.Flags().Bool("pulse", false, "Pulse EN through DTR/RTS before reading")
}
