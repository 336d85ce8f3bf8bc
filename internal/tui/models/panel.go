package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/config"
	"github.com/allbin/protoboard/internal/tui/components"
	"github.com/allbin/protoboard/internal/tui/keys"
	"github.com/allbin/protoboard/internal/tui/styles"
)

const (
	actionTimeout = 3 * time.Second

	ledPanelHeight = 5
	noticesHeight  = 4
	inputHeight    = 3
	statusHeight   = 1
	helpHeight     = 1
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModePort
)

func (m InputMode) String() string {
	switch m {
	case InputModePort:
		return "PORT"
	default:
		return "NORMAL"
	}
}

// Panel is the part of a protoboard.Session the control panel drives
type Panel interface {
	Connect(ctx context.Context, path string) error
	Disconnect(ctx context.Context) error
	ToggleLED(ctx context.Context, index int) error
	RequestReset(ctx context.Context) error
	Snapshot(ctx context.Context) (protoboard.Snapshot, error)
	Subscribe(ctx context.Context) (<-chan protoboard.Update, func(), error)
}

// ExportFunc writes entries somewhere and returns where
type ExportFunc func(ctx context.Context, entries []protoboard.HistoryEntry) (string, error)

type (
	// UpdateMsg carries one session update
	UpdateMsg protoboard.Update

	// SnapshotMsg carries the initial session state
	SnapshotMsg protoboard.Snapshot

	// SubscriptionClosedMsg is sent once the session stops publishing
	SubscriptionClosedMsg struct{}

	// ActionResultMsg reports the outcome of a key press
	ActionResultMsg struct {
		Action string
		Err    error
	}

	// ExportedMsg reports an export
	ExportedMsg struct {
		Path string
		Err  error
	}

	// PortFoundMsg is sent when discovery finds a board
	PortFoundMsg struct {
		Path string
	}

	// PortsMsg lists the ports available for the port prompt
	PortsMsg struct {
		Ports []string
	}

	tickMsg time.Time
)

// Options configure a PanelModel
type Options struct {
	Theme        config.Theme
	Port         string
	BaudRate     int
	Discovery    bool
	HistoryLimit int
	Export       ExportFunc
	Clock        func() time.Time
}

// PanelModel is the bubbletea model of the control panel
type PanelModel struct {
	panel  Panel
	ctx    context.Context
	opts   Options
	styles styles.Styles
	keys   keys.PanelKeys
	help   help.Model

	leds      *components.LEDPanel
	history   *components.HistoryTable
	notices   *components.Notices
	input     *components.Input
	statusBar *components.StatusBar

	updates <-chan protoboard.Update
	cancel  func()

	inputMode InputMode
	connected bool
	port      string
	closed    bool
	ready     bool
	width     int
}

// NewPanelModel subscribes to panel. The subscription ends when the model quits
// or ctx is cancelled.
func NewPanelModel(ctx context.Context, panel Panel, opts Options) (*PanelModel, error) {
	updates, cancel, err := panel.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	st := styles.New(opts.Theme)
	m := &PanelModel{
		panel:     panel,
		ctx:       ctx,
		opts:      opts,
		styles:    st,
		keys:      keys.NewPanelKeys(),
		help:      help.New(),
		leds:      components.NewLEDPanel(st),
		history:   components.NewHistoryTable(st, opts.HistoryLimit),
		notices:   components.NewNotices(st, 80, noticesHeight),
		input:     components.NewInput(st, "/dev/ttyUSB0"),
		statusBar: components.NewStatusBar(st, opts.Port),
		updates:   updates,
		cancel:    cancel,
		port:      opts.Port,
	}
	m.statusBar.SetConnectionInfo(&components.ConnectionInfo{
		BaudRate:  opts.BaudRate,
		Discovery: opts.Discovery,
	})
	m.statusBar.SetDisconnected(nil)
	if opts.Port != "" {
		m.input.AddToHistory(opts.Port)
	}
	return m, nil
}

func (m *PanelModel) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshot(), m.waitForUpdate(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *PanelModel) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		snap, err := m.panel.Snapshot(ctx)
		if err != nil {
			return ActionResultMsg{Action: "snapshot", Err: err}
		}
		return SnapshotMsg(snap)
	}
}

func (m *PanelModel) waitForUpdate() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return SubscriptionClosedMsg{}
		}
		return UpdateMsg(u)
	}
}

// run performs fn against the panel off the UI goroutine
func (m *PanelModel) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		return ActionResultMsg{Action: action, Err: fn(ctx)}
	}
}

func (m *PanelModel) notify(level components.Level, format string, args ...any) {
	m.notices.Add(components.NoticeMsg{
		Timestamp: m.opts.Clock(),
		Level:     level,
		Text:      fmt.Sprintf(format, args...),
	})
}

func (m *PanelModel) setConnected(connected bool, port string, err error) {
	if port != "" && port != m.port {
		m.port = port
		m.statusBar.SetPort(port)
	}

	if connected == m.connected {
		if err != nil {
			m.statusBar.SetDisconnected(err)
		}
		return
	}

	m.connected = connected
	if connected {
		m.statusBar.SetConnected()
		m.input.AddToHistory(m.port)
		m.notify(components.LevelInfo, "Connected to %s", m.port)
		return
	}
	m.statusBar.SetDisconnected(err)
	if err != nil {
		m.notify(components.LevelWarn, "Connection to %s lost: %v", m.port, err)
	} else {
		m.notify(components.LevelInfo, "Disconnected from %s", m.port)
	}
}

func (m *PanelModel) applyUpdate(u protoboard.Update) {
	lost := m.connected && !u.Connected
	m.leds.SetState(u.State)
	m.statusBar.SetResetPending(u.Pending)
	m.history.Append(u.Entries...)
	m.setConnected(u.Connected, u.Port, u.Err)

	switch u.Notice {
	case protoboard.NoticeResetConfirmed:
		m.notify(components.LevelInfo, "Counter reset confirmed by device")
	case protoboard.NoticeResetFallback:
		m.notify(components.LevelWarn, "No reset ACK from device, hardware reset used")
	}

	// A lost connection is already reported by setConnected
	if u.Err != nil && !lost {
		m.notify(components.LevelError, "%v", u.Err)
	}
}

func (m *PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ready = true

	case tickMsg:
		return m, tick()

	case SnapshotMsg:
		m.leds.SetState(msg.State)
		m.history.SetEntries(msg.History)
		m.statusBar.SetResetPending(msg.Pending)
		m.setConnected(msg.Connected, msg.Port, nil)

	case UpdateMsg:
		m.applyUpdate(protoboard.Update(msg))
		return m, m.waitForUpdate()

	case SubscriptionClosedMsg:
		m.closed = true
		m.statusBar.SetDisconnected(protoboard.ErrSessionClosed)
		m.notify(components.LevelError, "Session stopped")

	case ActionResultMsg:
		m.handleResult(msg)

	case ExportedMsg:
		if msg.Err != nil {
			m.notify(components.LevelError, "Export failed: %v", msg.Err)
		} else {
			m.notify(components.LevelInfo, "History exported to %s", msg.Path)
		}

	case PortFoundMsg:
		m.input.AddToHistory(msg.Path)
		m.notify(components.LevelInfo, "Board found on %s", msg.Path)

	case PortsMsg:
		m.input.SetSuggestions(msg.Ports)

	case tea.KeyMsg:
		if m.inputMode == InputModePort {
			return m, m.updatePortMode(msg)
		}
		cmd, quit := m.updateNormalMode(msg)
		if quit {
			return m, cmd
		}
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.notices, cmd = m.notices.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *PanelModel) handleResult(msg ActionResultMsg) {
	switch {
	case msg.Err == nil:
		return
	case errors.Is(msg.Err, protoboard.ErrResetPending):
		m.notify(components.LevelWarn, "A counter reset is already waiting for the device")
	case errors.Is(msg.Err, protoboard.ErrSessionClosed):
		m.closed = true
		m.notify(components.LevelError, "Session stopped")
	case msg.Action == "connect" && !errors.Is(msg.Err, context.DeadlineExceeded):
		// The session publishes failed connects itself
		m.statusBar.SetDisconnected(msg.Err)
	default:
		m.notify(components.LevelError, "%s: %v", msg.Action, msg.Err)
	}
}

func (m *PanelModel) updatePortMode(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.leavePortMode()
		return nil

	case key.Matches(msg, m.keys.Enter):
		path := m.input.Value()
		m.leavePortMode()
		if path == "" {
			return nil
		}
		return m.connectTo(path)

	case msg.Type == tea.KeyUp:
		m.input.NavigateHistoryUp()
		return nil

	case msg.Type == tea.KeyDown:
		m.input.NavigateHistoryDown()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *PanelModel) leavePortMode() {
	m.inputMode = InputModeNormal
	m.input.Blur()
	m.input.SetValue("")
}

func (m *PanelModel) connectTo(path string) tea.Cmd {
	m.port = path
	m.statusBar.SetPort(path)
	m.statusBar.SetConnecting()
	m.input.AddToHistory(path)
	return m.run("connect", func(ctx context.Context) error {
		return m.panel.Connect(ctx, path)
	})
}

// updateNormalMode handles a key outside the port prompt. quit is true when
// the returned command ends the program.
func (m *PanelModel) updateNormalMode(msg tea.KeyMsg) (cmd tea.Cmd, quit bool) {
	if idx := m.keys.LEDIndex(msg); idx >= 0 {
		return m.run(fmt.Sprintf("LED %d", idx+1), func(ctx context.Context) error {
			return m.panel.ToggleLED(ctx, idx)
		}), false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Cleanup()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Reset):
		return m.run("reset", m.panel.RequestReset), false

	case key.Matches(msg, m.keys.Connect):
		if m.connected {
			return m.run("disconnect", m.panel.Disconnect), false
		}
		if m.port == "" {
			m.inputMode = InputModePort
			return m.input.Focus(), false
		}
		return m.connectTo(m.port), false

	case key.Matches(msg, m.keys.InsertMode):
		m.inputMode = InputModePort
		return m.input.Focus(), false

	case key.Matches(msg, m.keys.Export):
		return m.exportHistory(), false

	case key.Matches(msg, m.keys.Escape):
		m.history.SetViewMode(components.ViewModeFollow)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.history.SetViewMode(components.ViewModeBrowse)
		var c tea.Cmd
		m.history, c = m.history.Update(msg)
		return c, false
	}
	return nil, false
}

func (m *PanelModel) exportHistory() tea.Cmd {
	if m.opts.Export == nil {
		m.notify(components.LevelWarn, "Export is not configured")
		return nil
	}
	entries := m.history.Entries()
	export := m.opts.Export
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		path, err := export(ctx, entries)
		return ExportedMsg{Path: path, Err: err}
	}
}

func (m *PanelModel) resize(width, height int) {
	m.width = width
	tableHeight := height - ledPanelHeight - noticesHeight - inputHeight - statusHeight - helpHeight - 2
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.history.SetSize(width, tableHeight)
	m.notices.SetSize(width, noticesHeight)
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width
}

// Cleanup ends the session subscription
func (m *PanelModel) Cleanup() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Accessors used by the command and tests

func (m *PanelModel) State() protoboard.DeviceState { return m.leds.State() }
func (m *PanelModel) History() []protoboard.HistoryEntry { return m.history.Entries() }
func (m *PanelModel) Notices() []components.NoticeMsg { return m.notices.Messages() }
func (m *PanelModel) Connected() bool { return m.connected }
func (m *PanelModel) Port() string { return m.port }
func (m *PanelModel) InputMode() InputMode { return m.inputMode }
func (m *PanelModel) Closed() bool { return m.closed }

func (m *PanelModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	mode := m.inputMode.String()
	statusBar := m.statusBar.View(mode, m.connected, m.opts.Clock().Format("15:04:05"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.leds.View(),
		m.styles.ContentBorder.Render(m.history.View()),
		m.styles.ContentBorder.Render(m.notices.View()),
		m.input.View(),
		statusBar,
		m.help.View(m.keys),
	)
}
