/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/protoboard"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <command> [args...]",
	Short: "Send one protocol command to the board",
	Long: `Send a single command to the board and, unless --no-wait is given,
wait for its acknowledgement.

Commands:
  led <1-3> <on|off>   set an LED, waits for ACK:LED:<n>:<v>
  reset                reset the counter, waits for ACK:RESET
  raw <text>           send a line as is, waits for any reply

Example usage:
  protoboard send led 2 on --port /dev/ttyUSB0
  protoboard send reset --timeout 3s
  protoboard send raw "LED:1:0" --no-wait`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		noWait, _ := cmd.Flags().GetBool("no-wait")

		line, expect, err := parseSendArgs(args)
		if err != nil {
			fail("%v", err)
		}
		if cfg.Serial.Port == "" {
			fail("no port given, use --port")
		}
		if noWait {
			expect = nil
		}

		if err := sendLine(cmd.Context(), cfg.Serial.Port, line, expect, timeout); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().DurationP("timeout", "t", 1500*time.Millisecond, "how long to wait for the acknowledgement")
	sendCmd.Flags().Bool("no-wait", false, "do not wait for an acknowledgement")
}

// ackMatcher reports whether a reply acknowledges the sent command
type ackMatcher func(ev protoboard.Event) bool

// parseSendArgs turns the command arguments into a protocol line and the
// acknowledgement to wait for
func parseSendArgs(args []string) (string, ackMatcher, error) {
	switch strings.ToLower(args[0]) {
	case "led":
		if len(args) != 3 {
			return "", nil, errors.New("usage: led <1-3> <on|off>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > protoboard.SensorIndex {
			return "", nil, fmt.Errorf("LED must be 1..%d, got %q", protoboard.SensorIndex, args[1])
		}
		on, err := parseOnOff(args[2])
		if err != nil {
			return "", nil, err
		}
		idx := n - 1
		return protoboard.FormatLEDCommand(idx, on), func(ev protoboard.Event) bool {
			return ev.Kind == protoboard.EventLedAck && ev.Index == idx && ev.State == on
		}, nil

	case "reset":
		if len(args) != 1 {
			return "", nil, errors.New("usage: reset")
		}
		return protoboard.CommandReset, func(ev protoboard.Event) bool {
			return ev.Kind == protoboard.EventResetAck
		}, nil

	case "raw":
		if len(args) < 2 {
			return "", nil, errors.New("usage: raw <text>")
		}
		return strings.Join(args[1:], " "), func(protoboard.Event) bool { return true }, nil

	default:
		return "", nil, fmt.Errorf("unknown command %q", args[0])
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "high":
		return true, nil
	case "off", "0", "false", "low":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state %q, use on or off", s)
	}
}

func sendLine(ctx context.Context, portPath, line string, expect ackMatcher, timeout time.Duration) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)
	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), portPath)

	reader, err := protoboard.NewLineReader(protoboard.WithLogger(logger.Named("reader")))
	if err != nil {
		return err
	}
	if err := reader.Start(portPath, cfg.Serial.BaudRate); err != nil {
		return fmt.Errorf("open %s: %w", portPath, err)
	}
	defer reader.Stop()

	if err := reader.Write(line); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Printf("%s Sent %s\n", successStyle.Render("✓"), line)

	if expect == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no acknowledgement within %s", timeout)
		case msg := <-reader.Messages():
			switch msg.Kind {
			case protoboard.ReaderDisconnected:
				if msg.Err != nil {
					return fmt.Errorf("connection lost: %w", msg.Err)
				}
				return errors.New("connection lost")
			case protoboard.ReaderLine:
				ev := protoboard.Classify(msg.Line)
				fmt.Printf("%s %s\n", infoStyle.Render("←"), msg.Line)
				if expect(ev) {
					fmt.Printf("%s Acknowledged\n", successStyle.Render("✓"))
					return nil
				}
			}
		}
	}
}
