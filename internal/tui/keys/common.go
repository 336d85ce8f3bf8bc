package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys are bound in every panel mode
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding // opens the port prompt
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "port"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}
