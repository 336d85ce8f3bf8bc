package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard/internal/tui/styles"
)

// ConnectionInfo describes the serial link shown on the right of the bar
type ConnectionInfo struct {
	BaudRate  int
	Discovery bool
}

type StatusBar struct {
	styles         styles.Styles
	portPath       string
	status         string
	err            error
	width          int
	connecting     bool
	resetPending   bool
	connectionInfo *ConnectionInfo
}

func NewStatusBar(st styles.Styles, portPath string) *StatusBar {
	return &StatusBar{
		styles:   st,
		portPath: portPath,
		status:   "Initializing...",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPort(path string) {
	sb.portPath = path
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetResetPending(pending bool) {
	sb.resetPending = pending
}

func (sb *StatusBar) Status() string {
	return sb.status
}

func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) SetConnecting() {
	sb.status = "Connecting..."
	sb.connecting = true
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = "Connected"
	sb.connecting = false
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.connecting = false
	if err != nil {
		sb.status = fmt.Sprintf("Disconnected: %v", err)
		sb.err = err
	} else {
		sb.status = "Disconnected"
		sb.err = nil
	}
}

// View renders the bar: mode, port and link indicator on the left, link
// details and the clock on the right
func (sb *StatusBar) View(mode string, connected bool, timestamp string) string {
	p := sb.styles.Palette
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: Mode indicator
	modeBg := p.Blue
	if mode != "NORMAL" {
		modeBg = p.Green
	}
	modeView := lipgloss.NewStyle().
		Foreground(p.Base).
		Background(modeBg).
		Bold(true).
		Padding(0, 1).
		Render(mode)

	// Section 2: Port path
	portPath := sb.portPath
	if portPath == "" {
		portPath = "no port"
	}
	port := lipgloss.NewStyle().
		Foreground(p.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(portPath)

	// Section 3: Single character connection indicator
	var indicator string
	var indicatorStyle lipgloss.Style
	switch {
	case connected:
		indicatorStyle = lipgloss.NewStyle().Foreground(p.Green)
		indicator = "●"
	case sb.err != nil:
		indicatorStyle = lipgloss.NewStyle().Foreground(p.Red)
		indicator = "✗"
	case sb.connecting:
		indicatorStyle = lipgloss.NewStyle().Foreground(p.Yellow)
		indicator = "○"
	default:
		indicatorStyle = lipgloss.NewStyle().Foreground(p.Red)
		indicator = "○"
	}
	connIndicator := indicatorStyle.Render(indicator)

	divider := lipgloss.NewStyle().
		Foreground(p.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{modeView, port, connIndicator}
	if sb.resetPending {
		left = append(left, lipgloss.NewStyle().
			Foreground(p.Peach).
			Bold(true).
			Padding(0, 1).
			Render("RESET pending"))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	// Section 4: Connection info
	connInfo := "⚡ serial"
	if sb.connectionInfo != nil {
		connInfo = fmt.Sprintf("⚡ %d baud", sb.connectionInfo.BaudRate)
		if sb.connectionInfo.Discovery {
			connInfo += " auto"
		}
	}
	details := lipgloss.NewStyle().
		Foreground(p.Subtext0).
		Padding(0, 1).
		Render(connInfo)

	// Section 5: Timestamp
	clock := lipgloss.NewStyle().
		Foreground(p.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
