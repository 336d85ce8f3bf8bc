/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List the serial ports of the host and mark the ones whose USB descriptors
name a UART bridge commonly found on ESP32 boards (CP210x, CH340, FTDI...).

By default ports are read from /dev and sysfs. --enumerator asks the
platform USB enumerator instead, which also works where sysfs is missing.

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")
		useEnumerator, _ := cmd.Flags().GetBool("enumerator")

		var lister protoboard.PortLister = serial.SysfsLister{}
		if useEnumerator {
			lister = serial.EnumeratorLister{}
		}

		ports, err := lister.Ports()
		if err != nil {
			fail("listing ports: %v", err)
		}

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(ports)
		} else {
			renderSimple(ports)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, board, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
	listCmd.Flags().Bool("enumerator", false, "Use the USB enumerator instead of sysfs")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []serial.PortInfo, filterType string) []serial.PortInfo {
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []serial.PortInfo
	for _, info := range ports {
		name := strings.ToLower(info.Name)
		keep := false
		switch strings.ToLower(filterType) {
		case "usb":
			keep = info.IsUSB() || strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm")
		case "board":
			keep = protoboard.MatchesVendor(info.Descriptor())
		case "standard":
			keep = strings.HasPrefix(name, "ttys")
		case "arm":
			keep = strings.HasPrefix(name, "ttyama")
		}
		if keep {
			filtered = append(filtered, info)
		}
	}
	return filtered
}

// renderTable renders the port list in a styled static table format
func renderTable(ports []serial.PortInfo) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	portWidth := 15
	typeWidth := 18
	usbWidth := 11
	descWidth := 34

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	boardStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		portWidth, "Port",
		typeWidth, "Type",
		usbWidth, "VID:PID",
		descWidth, "Description",
		"Board")
	fmt.Println(headerStyle.Render(header))

	for _, info := range ports {
		usb := "-"
		if info.IsUSB() {
			usb = info.VendorID + ":" + info.ProductID
		}
		desc := info.Description
		if info.Product != "" {
			desc = info.Product
		}

		board := ""
		if protoboard.MatchesVendor(info.Descriptor()) {
			board = boardStyle.Render("✓")
		}

		row := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
			portWidth, info.Name,
			typeWidth, getPortType(info.Name),
			usbWidth, usb,
			descWidth, desc,
			board)
		fmt.Println(cellStyle.Render(row))
	}
}

// renderSimple renders the port list in simple text format
func renderSimple(ports []serial.PortInfo) {
	for _, info := range ports {
		fmt.Println(info.Path)
	}
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
