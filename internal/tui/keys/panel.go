package keys

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// PanelKeys drive the control panel
type PanelKeys struct {
	CommonKeys
	LED1    key.Binding
	LED2    key.Binding
	LED3    key.Binding
	Reset   key.Binding
	Connect key.Binding
	Export  key.Binding
	Enter   key.Binding
	Up      key.Binding
	Down    key.Binding
}

func NewPanelKeys() PanelKeys {
	return PanelKeys{
		CommonKeys: NewCommonKeys(),
		LED1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle LED 1"),
		),
		LED2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle LED 2"),
		),
		LED3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle LED 3"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset counter"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect/disconnect"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export history"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect to port"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// LEDIndex returns the 0-based LED msg toggles, or -1
func (k PanelKeys) LEDIndex(msg tea.KeyMsg) int {
	switch {
	case key.Matches(msg, k.LED1):
		return 0
	case key.Matches(msg, k.LED2):
		return 1
	case key.Matches(msg, k.LED3):
		return 2
	}
	return -1
}

func (k PanelKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.LED1, k.LED2, k.LED3, k.Reset, k.Connect, k.Quit}
}

func (k PanelKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.LED1, k.LED2, k.LED3, k.Reset},
		{k.Connect, k.InsertMode, k.Enter, k.Escape},
		{k.Up, k.Down, k.Export},
		{k.Help, k.Quit},
	}
}
