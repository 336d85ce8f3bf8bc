package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard/internal/tui/styles"
)

const maxNotices = 200

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// NoticeMsg is a line for the notice pane
type NoticeMsg struct {
	Timestamp time.Time
	Level     Level
	Text      string
}

// Notices is a scrolling pane of connection events, reset outcomes and errors
type Notices struct {
	viewport viewport.Model
	styles   styles.Styles
	messages []NoticeMsg
}

func NewNotices(st styles.Styles, width, height int) *Notices {
	return &Notices{
		viewport: viewport.New(width, height),
		styles:   st,
	}
}

func (n *Notices) SetSize(width, height int) {
	n.viewport.Width = width
	n.viewport.Height = height
}

func (n *Notices) Add(msg NoticeMsg) {
	n.messages = append(n.messages, msg)
	if len(n.messages) > maxNotices {
		n.messages = n.messages[len(n.messages)-maxNotices:]
	}
	n.refresh()
}

func (n *Notices) Messages() []NoticeMsg {
	return append([]NoticeMsg(nil), n.messages...)
}

func (n *Notices) Clear() {
	n.messages = nil
	n.viewport.SetContent("")
}

func (n *Notices) refresh() {
	lines := make([]string, len(n.messages))
	for i, m := range n.messages {
		lines[i] = n.Format(m)
	}
	n.viewport.SetContent(strings.Join(lines, "\n"))
	n.viewport.GotoBottom()
}

// Format renders one notice with a timestamp and level indicator
func (n *Notices) Format(msg NoticeMsg) string {
	p := n.styles.Palette

	var color lipgloss.Color
	var tag string
	switch msg.Level {
	case LevelWarn:
		color, tag = p.Yellow, "! WARN"
	case LevelError:
		color, tag = p.Red, "✗ ERR "
	default:
		color, tag = p.Sky, "• INFO"
	}

	ts := lipgloss.NewStyle().
		Foreground(p.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05")))
	indicator := lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(tag)

	return fmt.Sprintf("%s %s %s", ts, indicator, msg.Text)
}

func (n *Notices) Update(msg tea.Msg) (*Notices, tea.Cmd) {
	// Only window resizes reach the viewport so it doesn't consume panel keys
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		n.viewport, cmd = n.viewport.Update(msg)
		return n, cmd
	}
	return n, nil
}

func (n *Notices) View() string {
	return n.viewport.View()
}
