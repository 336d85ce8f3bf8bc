package protoboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard/serial"
)

const (
	subscriberBuffer = 16
	recordBuffer     = 256
	recordTimeout    = 5 * time.Second
)

// Update is published to subscribers after every change
type Update struct {
	State     DeviceState    `json:"state"`
	Connected bool           `json:"connected"`
	Port      string         `json:"port,omitempty"`
	Pending   bool           `json:"reset_pending"`
	Entries   []HistoryEntry `json:"entries,omitempty"`
	Notice    Notice         `json:"notice,omitempty"`
	Err       error          `json:"-"`
}

// Snapshot is a point-in-time copy of a Session
type Snapshot struct {
	State     DeviceState    `json:"state"`
	Connected bool           `json:"connected"`
	Port      string         `json:"port,omitempty"`
	Pending   bool           `json:"reset_pending"`
	History   []HistoryEntry `json:"history"`
}

// CommandKind selects what a Command does
type CommandKind int

const (
	CommandLED CommandKind = iota
	CommandToggle
	CommandResetCounter
	CommandSyncCounter
)

// Command is a request coming from outside the panel, e.g. the HTTP channel
type Command struct {
	Kind    CommandKind
	Index   int
	On      bool
	Counter uint64
	Origin  string
}

// Session serializes everything that touches device state through one
// goroutine: reader messages, caller requests and the reset deadline.
type Session struct {
	config Config
	log    *zap.SugaredLogger
	reader *LineReader
	rec    *Reconciler

	requests chan func()
	records  chan Record
	done     chan struct{}
	runOnce  sync.Once

	// Owned by the Run goroutine
	connected bool
	conn      uint64
	port      string
	subs      map[int]chan Update
	nextSub   int
	timer     *time.Timer
	timerC    <-chan time.Time
}

// NewSession creates a disconnected session. Call Run to start it.
func NewSession(opts ...Option) (*Session, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Session{
		config:   config,
		log:      config.Logger,
		reader:   newLineReader(config),
		rec:      newReconciler(config),
		requests: make(chan func()),
		records:  make(chan Record, recordBuffer),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Update),
	}, nil
}

// Run processes messages until ctx is cancelled. The connection is stopped and
// every subscription closed before Run returns. Run may only be called once.
func (s *Session) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return ErrSessionRunning
	}

	var wg sync.WaitGroup
	if s.config.Recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.recordLoop()
		}()
	}

	defer func() {
		s.reader.Stop()
		s.stopTimer()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		close(s.done)
		close(s.records)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.requests:
			fn()
		case msg := <-s.reader.Messages():
			s.handleMessage(msg)
		case <-s.timerC:
			s.timerC = nil
			// The timer measured the window, so expire at the deadline itself
			deadline, _ := s.rec.Deadline()
			s.apply(s.rec.Expire(deadline), nil)
		}
	}
}

func (s *Session) recordLoop() {
	for rec := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := s.config.Recorder.RecordEvent(ctx, rec); err != nil {
			s.config.Instruments.RecordFailed()
			s.log.Warnw("Failed to record event", "type", rec.Type, "detail", rec.Detail, "error", err)
		}
		cancel()
	}
}

// do runs fn on the session goroutine and waits for it
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	req := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.requests <- req:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handleMessage(msg ReaderMessage) {
	switch msg.Kind {
	case ReaderLine:
		// Lines still queued from a stopped connection are dropped
		if msg.Conn != s.conn || !s.connected {
			s.log.Debugw("Dropping line from closed connection", "line", msg.Line, "port", msg.Path)
			return
		}
		s.handleLine(msg.Line)

	case ReaderConnected:
		if msg.Conn != s.conn || s.connected {
			return
		}
		s.connected = true
		s.config.Instruments.ConnectionChanged(true)
		s.publish(Update{})

	case ReaderDisconnected:
		if msg.Conn != s.conn || !s.connected {
			return
		}
		s.connected = false
		s.config.Instruments.ConnectionChanged(false)
		if msg.Err != nil {
			s.log.Warnw("Connection lost", "port", msg.Path, "error", msg.Err)
		}
		s.publish(Update{Err: msg.Err})
	}
}

func (s *Session) handleLine(line string) {
	ev := Classify(line)
	s.config.Instruments.LineReceived(ev.Kind)
	if ev.Kind == EventRaw {
		s.log.Debugw("Unrecognized line", "line", line)
	}
	s.apply(s.rec.Apply(ev, s.config.Clock()), nil)
}

// apply carries out an Effect and publishes the result
func (s *Session) apply(eff Effect, err error) {
	if eff.Ignored {
		return
	}

	if eff.Command != "" {
		if werr := s.reader.Write(eff.Command); werr != nil {
			s.log.Warnw("Failed to write command", "command", eff.Command, "error", werr)
			err = errors.Join(err, werr)
		}
	}

	if _, pending := s.rec.Deadline(); pending {
		s.armTimer()
	} else {
		s.stopTimer()
	}

	if eff.HardwareReset {
		if herr := s.hardwareReset(); herr != nil {
			err = errors.Join(err, herr)
		}
	}

	switch eff.Notice {
	case NoticeResetConfirmed:
		s.log.Infow("Counter reset confirmed by device")
		s.config.Instruments.ResetCompleted(eff.Notice)
	case NoticeResetFallback:
		s.log.Warnw("No reset ACK from device, used hardware reset", "port", s.port)
		s.config.Instruments.ResetCompleted(eff.Notice)
	}

	s.config.Instruments.CounterChanged(s.rec.State().Counter)

	if s.config.Recorder != nil {
		for _, rec := range eff.Records {
			select {
			case s.records <- rec:
			default:
				s.config.Instruments.RecordFailed()
				s.log.Warnw("Record queue full, dropping event", "type", rec.Type)
			}
		}
	}

	s.publish(Update{Entries: eff.Entries, Notice: eff.Notice, Err: err})
}

func (s *Session) armTimer() {
	if s.timerC != nil {
		return
	}
	deadline, _ := s.rec.Deadline()
	s.timer = time.NewTimer(deadline.Sub(s.config.Clock()))
	s.timerC = s.timer.C
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer, s.timerC = nil, nil
}

// hardwareReset pulses the reset lines through a fresh connection to the
// last known port, falling back to the live connection if that fails
func (s *Session) hardwareReset() error {
	if s.port == "" {
		return fmt.Errorf("hardware reset: %w", ErrNotConnected)
	}

	err := s.config.Resetter(s.port, s.config.BaudRate)
	if err == nil {
		s.log.Infow("Pulsed reset lines", "port", s.port)
		return nil
	}

	if perr := s.reader.PulseReset(serial.DefaultPulse); perr == nil {
		s.log.Infow("Pulsed reset lines on live connection", "port", s.port, "error", err)
		return nil
	}

	s.log.Warnw("Hardware reset failed", "port", s.port, "error", err)
	return fmt.Errorf("hardware reset %s: %w", s.port, err)
}

func (s *Session) publish(u Update) {
	u.State = s.rec.State()
	u.Connected = s.connected
	u.Port = s.port
	_, u.Pending = s.rec.Deadline()

	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.config.Instruments.UpdateDropped()
		}
	}
}

// Connect attaches the session to path, dropping any current connection
func (s *Session) Connect(ctx context.Context, path string) error {
	var err error
	if derr := s.do(ctx, func() {
		s.disconnect()
		s.port = path
		if err = s.reader.Start(path, s.config.BaudRate); err != nil {
			s.publish(Update{Err: err})
			return
		}
		s.conn = s.reader.conn
	}); derr != nil {
		return derr
	}
	return err
}

// Disconnect stops the current connection, if any
func (s *Session) Disconnect(ctx context.Context) error {
	return s.do(ctx, s.disconnect)
}

func (s *Session) disconnect() {
	s.reader.Stop()
	if s.connected {
		s.connected = false
		s.config.Instruments.ConnectionChanged(false)
		s.publish(Update{})
	}
}

// SelectPort sets the port used for offline hardware resets without connecting
func (s *Session) SelectPort(ctx context.Context, path string) error {
	return s.do(ctx, func() { s.port = path })
}

// SetLED sets LED index (0..2) from the local panel
func (s *Session) SetLED(ctx context.Context, index int, on bool) error {
	return s.Execute(ctx, Command{Kind: CommandLED, Index: index, On: on, Origin: OriginApp})
}

// ToggleLED flips LED index (0..2) from the local panel
func (s *Session) ToggleLED(ctx context.Context, index int) error {
	return s.Execute(ctx, Command{Kind: CommandToggle, Index: index, Origin: OriginApp})
}

// RequestReset starts a counter reset from the local panel
func (s *Session) RequestReset(ctx context.Context) error {
	return s.Execute(ctx, Command{Kind: CommandResetCounter, Origin: OriginApp})
}

// Execute runs a command on behalf of origin
func (s *Session) Execute(ctx context.Context, cmd Command) error {
	if cmd.Origin == "" {
		cmd.Origin = OriginApp
	}

	var err error
	if derr := s.do(ctx, func() {
		now := s.config.Clock()
		var eff Effect
		switch cmd.Kind {
		case CommandLED:
			eff, err = s.rec.SetLED(cmd.Index, cmd.On, cmd.Origin, now, s.connected)
		case CommandToggle:
			eff, err = s.rec.ToggleLED(cmd.Index, cmd.Origin, now, s.connected)
		case CommandResetCounter:
			eff, err = s.rec.RequestReset(cmd.Origin, now, s.connected)
			if err == nil {
				s.config.Instruments.ResetRequested()
			}
		case CommandSyncCounter:
			eff = s.rec.SyncCounter(cmd.Counter, cmd.Origin, now)
		default:
			err = fmt.Errorf("unknown command kind %d", cmd.Kind)
		}
		if err != nil {
			return
		}
		// Write and reset failures are reported to subscribers, not the caller
		s.apply(eff, nil)
	}); derr != nil {
		return derr
	}
	return err
}

// Inject processes line as if it had been received from the device
func (s *Session) Inject(ctx context.Context, line string) error {
	return s.do(ctx, func() {
		s.handleLine(line)
	})
}

// Snapshot returns the current state and history
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		_, pending := s.rec.Deadline()
		snap = Snapshot{
			State:     s.rec.State(),
			Connected: s.connected,
			Port:      s.port,
			Pending:   pending,
			History:   s.rec.History(),
		}
	})
	return snap, err
}

// Subscribe returns a channel of updates and a function that cancels the
// subscription. Updates are dropped for subscribers that fall behind. The
// channel is closed on cancel or when Run returns.
func (s *Session) Subscribe(ctx context.Context) (<-chan Update, func(), error) {
	ch := make(chan Update, subscriberBuffer)
	var id int
	if err := s.do(ctx, func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = ch
	}); err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// Run closes every channel itself on the way out
			_ = s.do(context.Background(), func() {
				if _, ok := s.subs[id]; ok {
					close(ch)
					delete(s.subs, id)
				}
			})
		})
	}
	return ch, cancel, nil
}

// Done is closed once Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}
