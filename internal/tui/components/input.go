package components

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard/internal/tui/styles"
)

const maxPortHistory = 20

// Input is the port prompt. It remembers ports that were connected to and
// offers known ports as completions.
type Input struct {
	textInput     textinput.Model
	styles        styles.Styles
	history       []string
	historyIndex  int
	currentInput  string // Store current input when navigating history
	terminalWidth int
}

func NewInput(st styles.Styles, placeholder string) *Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Prompt = "" // We handle prompt styling separately
	ti.ShowSuggestions = true

	return &Input{
		textInput:    ti,
		styles:       st,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.terminalWidth = width
	// Account for: border(2) + padding(2) + prompt(1) + space(1) = 6 characters
	usableWidth := width - 6
	if usableWidth < 20 {
		usableWidth = 20
	}
	i.textInput.Width = usableWidth
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Focused() bool {
	return i.textInput.Focused()
}

func (i *Input) Value() string {
	return strings.TrimSpace(i.textInput.Value())
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// SetSuggestions replaces the completion candidates, typically the detected ports
func (i *Input) SetSuggestions(ports []string) {
	i.textInput.SetSuggestions(ports)
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View() string {
	prompt := lipgloss.NewStyle().
		Foreground(i.styles.Palette.Green).
		Bold(true).
		Render(">")

	var content string
	if i.textInput.Focused() {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		instruction := lipgloss.NewStyle().
			Foreground(i.styles.Palette.Overlay0).
			Render("Press 'p' to choose a port")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", instruction)
	}

	// RoundedBorder and padding take 4 columns
	width := i.terminalWidth - 4
	if width < 10 {
		width = 10
	}

	style := i.styles.Input.
		Width(width).
		AlignHorizontal(lipgloss.Left)
	if i.textInput.Focused() {
		style = style.BorderForeground(i.styles.Palette.Green)
	}
	return style.Render(content)
}

// AddToHistory remembers a port, moving it to the end if already known
func (i *Input) AddToHistory(port string) {
	port = strings.TrimSpace(port)
	if port == "" {
		return
	}

	if idx := slices.Index(i.history, port); idx >= 0 {
		i.history = slices.Delete(i.history, idx, idx+1)
	}
	i.history = append(i.history, port)
	if len(i.history) > maxPortHistory {
		i.history = i.history[1:]
	}

	i.historyIndex = -1
	i.currentInput = ""
}

// History returns remembered ports, oldest first
func (i *Input) History() []string {
	return slices.Clone(i.history)
}

// NavigateHistoryUp moves to the previous remembered port
func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}

	// First time navigating: save current input
	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}

	i.textInput.SetValue(i.history[i.historyIndex])
}

// NavigateHistoryDown moves to the next remembered port
func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
	} else {
		// Back to current input
		i.historyIndex = -1
		i.textInput.SetValue(i.currentInput)
		i.currentInput = ""
	}
}
