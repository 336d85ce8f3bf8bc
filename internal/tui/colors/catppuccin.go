package colors

import "github.com/charmbracelet/lipgloss"

// Palette is one Catppuccin flavour
type Palette struct {
	// Base colors
	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Crust    lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Surface2 lipgloss.Color
	Overlay0 lipgloss.Color
	Overlay1 lipgloss.Color
	Overlay2 lipgloss.Color
	Subtext0 lipgloss.Color
	Subtext1 lipgloss.Color
	Text     lipgloss.Color

	// Accent colors
	Lavender  lipgloss.Color
	Blue      lipgloss.Color
	Sapphire  lipgloss.Color
	Sky       lipgloss.Color
	Teal      lipgloss.Color
	Green     lipgloss.Color
	Yellow    lipgloss.Color
	Peach     lipgloss.Color
	Maroon    lipgloss.Color
	Red       lipgloss.Color
	Mauve     lipgloss.Color
	Pink      lipgloss.Color
	Flamingo  lipgloss.Color
	Rosewater lipgloss.Color
}

// Mocha is the dark flavour
var Mocha = Palette{
	Base:     lipgloss.Color("#1e1e2e"),
	Mantle:   lipgloss.Color("#181825"),
	Crust:    lipgloss.Color("#11111b"),
	Surface0: lipgloss.Color("#313244"),
	Surface1: lipgloss.Color("#45475a"),
	Surface2: lipgloss.Color("#585b70"),
	Overlay0: lipgloss.Color("#6c7086"),
	Overlay1: lipgloss.Color("#7f849c"),
	Overlay2: lipgloss.Color("#9399b2"),
	Subtext0: lipgloss.Color("#a6adc8"),
	Subtext1: lipgloss.Color("#bac2de"),
	Text:     lipgloss.Color("#cdd6f4"),

	Lavender:  lipgloss.Color("#b4befe"),
	Blue:      lipgloss.Color("#89b4fa"),
	Sapphire:  lipgloss.Color("#74c7ec"),
	Sky:       lipgloss.Color("#89dceb"),
	Teal:      lipgloss.Color("#94e2d5"),
	Green:     lipgloss.Color("#a6e3a1"),
	Yellow:    lipgloss.Color("#f9e2af"),
	Peach:     lipgloss.Color("#fab387"),
	Maroon:    lipgloss.Color("#eba0ac"),
	Red:       lipgloss.Color("#f38ba8"),
	Mauve:     lipgloss.Color("#cba6f7"),
	Pink:      lipgloss.Color("#f5c2e7"),
	Flamingo:  lipgloss.Color("#f2cdcd"),
	Rosewater: lipgloss.Color("#f5e0dc"),
}

// Latte is the light flavour
var Latte = Palette{
	Base:     lipgloss.Color("#eff1f5"),
	Mantle:   lipgloss.Color("#e6e9ef"),
	Crust:    lipgloss.Color("#dce0e8"),
	Surface0: lipgloss.Color("#ccd0da"),
	Surface1: lipgloss.Color("#bcc0cc"),
	Surface2: lipgloss.Color("#acb0be"),
	Overlay0: lipgloss.Color("#9ca0b0"),
	Overlay1: lipgloss.Color("#8c8fa1"),
	Overlay2: lipgloss.Color("#7c7f93"),
	Subtext0: lipgloss.Color("#6c6f85"),
	Subtext1: lipgloss.Color("#5c5f77"),
	Text:     lipgloss.Color("#4c4f69"),

	Lavender:  lipgloss.Color("#7287fd"),
	Blue:      lipgloss.Color("#1e66f5"),
	Sapphire:  lipgloss.Color("#209fb5"),
	Sky:       lipgloss.Color("#04a5e5"),
	Teal:      lipgloss.Color("#179299"),
	Green:     lipgloss.Color("#40a02b"),
	Yellow:    lipgloss.Color("#df8e1d"),
	Peach:     lipgloss.Color("#fe640b"),
	Maroon:    lipgloss.Color("#e64553"),
	Red:       lipgloss.Color("#d20f39"),
	Mauve:     lipgloss.Color("#8839ef"),
	Pink:      lipgloss.Color("#ea76cb"),
	Flamingo:  lipgloss.Color("#dd7878"),
	Rosewater: lipgloss.Color("#dc8a78"),
}

// ForTheme returns Latte when dark is false and Mocha otherwise
func ForTheme(dark bool) Palette {
	if dark {
		return Mocha
	}
	return Latte
}
