package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/tui/styles"
)

const (
	columnTime    = "time"
	columnChannel = "channel"
	columnEvent   = "event"
)

type ViewMode int

const (
	// ViewModeFollow keeps the newest entries on screen
	ViewModeFollow ViewMode = iota
	// ViewModeBrowse lets the user page through older entries
	ViewModeBrowse
)

// HistoryTable shows the activity log, newest first
type HistoryTable struct {
	table    table.Model
	styles   styles.Styles
	viewMode ViewMode
	entries  []protoboard.HistoryEntry
	limit    int
	width    int
	height   int
}

// NewHistoryTable keeps at most limit entries; 0 means unbounded
func NewHistoryTable(st styles.Styles, limit int) *HistoryTable {
	ht := &HistoryTable{
		styles: st,
		limit:  limit,
		width:  80,
		height: 10,
	}
	ht.table = ht.build()
	return ht
}

func (ht *HistoryTable) build() table.Model {
	p := ht.styles.Palette

	columns := []table.Column{
		table.NewColumn(columnTime, "Time", 14),
		table.NewColumn(columnChannel, "Channel", 9),
		table.NewFlexColumn(columnEvent, "Event", 1),
	}

	pageSize := ht.height - 4 // header, borders and footer
	if pageSize < 1 {
		pageSize = 1
	}

	return table.New(columns).
		WithRows(ht.rows()).
		WithPageSize(pageSize).
		WithTargetWidth(ht.width).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(p.Text).
			BorderForeground(p.Surface1).
			Align(lipgloss.Left)).
		HeaderStyle(lipgloss.NewStyle().
			Foreground(p.Text).
			Bold(true)).
		HighlightStyle(lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface1)).
		Focused(ht.viewMode == ViewModeBrowse)
}

func (ht *HistoryTable) rows() []table.Row {
	rows := make([]table.Row, 0, len(ht.entries))
	for i := len(ht.entries) - 1; i >= 0; i-- {
		e := ht.entries[i]
		rows = append(rows, table.NewRow(table.RowData{
			columnTime:    e.Timestamp.Format("15:04:05.000"),
			columnChannel: ChannelName(e.Channel),
			columnEvent:   table.NewStyledCell(e.Label, ht.labelStyle(e.Label)),
		}))
	}
	return rows
}

func (ht *HistoryTable) labelStyle(label string) lipgloss.Style {
	p := ht.styles.Palette
	switch {
	case strings.HasPrefix(label, "ACK"):
		return lipgloss.NewStyle().Foreground(p.Green)
	case strings.HasSuffix(label, "(GUI)"), strings.HasPrefix(label, "GUI_"):
		return lipgloss.NewStyle().Foreground(p.Blue)
	case label == "RESET", strings.HasPrefix(label, "COUNTER"):
		return lipgloss.NewStyle().Foreground(p.Peach)
	case strings.HasPrefix(label, "SENSOR"):
		return lipgloss.NewStyle().Foreground(p.Mauve)
	default:
		return lipgloss.NewStyle().Foreground(p.Text)
	}
}

// ChannelName labels a history channel for display
func ChannelName(channel int) string {
	switch {
	case channel == protoboard.ChannelSystem:
		return "SYS"
	case channel == protoboard.SensorIndex+1:
		return "SENSOR"
	default:
		return fmt.Sprintf("LED %d", channel)
	}
}

func (ht *HistoryTable) SetSize(width, height int) {
	ht.width, ht.height = width, height
	ht.table = ht.build()
}

// SetEntries replaces the whole log
func (ht *HistoryTable) SetEntries(entries []protoboard.HistoryEntry) {
	ht.entries = append([]protoboard.HistoryEntry(nil), entries...)
	ht.trim()
	ht.table = ht.table.WithRows(ht.rows())
}

// Append adds entries to the log
func (ht *HistoryTable) Append(entries ...protoboard.HistoryEntry) {
	if len(entries) == 0 {
		return
	}
	ht.entries = append(ht.entries, entries...)
	ht.trim()
	ht.table = ht.table.WithRows(ht.rows())
	if ht.viewMode == ViewModeFollow {
		ht.table = ht.table.PageFirst()
	}
}

func (ht *HistoryTable) trim() {
	if ht.limit > 0 && len(ht.entries) > ht.limit {
		ht.entries = ht.entries[len(ht.entries)-ht.limit:]
	}
}

// Entries returns the retained entries, oldest first
func (ht *HistoryTable) Entries() []protoboard.HistoryEntry {
	return append([]protoboard.HistoryEntry(nil), ht.entries...)
}

func (ht *HistoryTable) Len() int {
	return len(ht.entries)
}

func (ht *HistoryTable) ViewMode() ViewMode {
	return ht.viewMode
}

// SetViewMode switches between following new entries and browsing
func (ht *HistoryTable) SetViewMode(mode ViewMode) {
	ht.viewMode = mode
	ht.table = ht.table.Focused(mode == ViewModeBrowse)
	if mode == ViewModeFollow {
		ht.table = ht.table.PageFirst()
	}
}

func (ht *HistoryTable) Update(msg tea.Msg) (*HistoryTable, tea.Cmd) {
	var cmd tea.Cmd
	ht.table, cmd = ht.table.Update(msg)
	return ht, cmd
}

func (ht *HistoryTable) View() string {
	if len(ht.entries) == 0 {
		return ht.styles.Faint.Render("No activity yet")
	}
	return ht.table.View()
}
