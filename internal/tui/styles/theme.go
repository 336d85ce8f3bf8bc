package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard/internal/config"
	"github.com/allbin/protoboard/internal/tui/colors"
)

// Styles holds every style the panel renders with
type Styles struct {
	Palette colors.Palette

	// Header styles
	Title lipgloss.Style

	// Status styles
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusConnecting   lipgloss.Style

	// Content area styles
	ContentBorder lipgloss.Style
	Box           lipgloss.Style

	// LED styles
	LEDOn      lipgloss.Style
	LEDOff     lipgloss.Style
	LEDPending lipgloss.Style
	Counter    lipgloss.Style

	// Input styles
	Input lipgloss.Style

	Error lipgloss.Style
	Info  lipgloss.Style
	Faint lipgloss.Style
}

// New builds the styles for theme, falling back to dark for unknown themes
func New(theme config.Theme) Styles {
	p := colors.ForTheme(theme != config.ThemeLight)

	return Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Mauve).
			Background(p.Surface0).
			Padding(0, 1),

		StatusConnected: lipgloss.NewStyle().
			Foreground(p.Green).
			Bold(true),
		StatusDisconnected: lipgloss.NewStyle().
			Foreground(p.Red).
			Bold(true),
		StatusConnecting: lipgloss.NewStyle().
			Foreground(p.Yellow).
			Bold(true),

		ContentBorder: lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.Surface1),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Surface2).
			Padding(0, 1),

		LEDOn: lipgloss.NewStyle().
			Foreground(p.Green).
			Bold(true),
		LEDOff: lipgloss.NewStyle().
			Foreground(p.Overlay0),
		LEDPending: lipgloss.NewStyle().
			Foreground(p.Yellow),
		Counter: lipgloss.NewStyle().
			Foreground(p.Peach).
			Bold(true),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Surface2).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Red),
		Info: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Mauve),
		Faint: lipgloss.NewStyle().
			Foreground(p.Subtext0).
			Faint(true),
	}
}

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusError
)

func (s Styles) Status(status StatusType) lipgloss.Style {
	switch status {
	case StatusConnected:
		return s.StatusConnected
	case StatusConnecting:
		return s.StatusConnecting
	default:
		return s.StatusDisconnected
	}
}
