package protoboard

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard/serial"
)

// maxLineLength caps a partial line; longer runs without a terminator are
// emitted as they are
const maxLineLength = 4096

// Port is what the LineReader needs from a serial connection
type Port interface {
	io.ReadWriteCloser
	// InputWaiting reports the number of bytes ready to be read
	InputWaiting() (int, error)
}

// Opener opens the port at path
type Opener func(path string, baud int) (Port, error)

// SerialOpener opens a real serial device. The handle is not exclusive so a
// hardware reset can still open the port alongside it.
func SerialOpener(path string, baud int) (Port, error) {
	return serial.Open(path, serial.WithBaudRate(baud), serial.WithExclusive(false))
}

// ReaderMessageKind tags a ReaderMessage
type ReaderMessageKind int

const (
	ReaderLine ReaderMessageKind = iota
	ReaderConnected
	ReaderDisconnected
)

func (k ReaderMessageKind) String() string {
	switch k {
	case ReaderLine:
		return "line"
	case ReaderConnected:
		return "connected"
	case ReaderDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ReaderMessage is one notification from a LineReader. Conn numbers each
// successful Start so that late messages from an earlier connection can be
// told apart.
type ReaderMessage struct {
	Kind ReaderMessageKind
	Line string
	Path string
	Err  error
	Conn uint64
}

// LineReader owns one serial connection at a time and publishes decoded lines
// and connection changes on a single channel, in the order they happened.
type LineReader struct {
	open Opener
	poll time.Duration
	log  *zap.SugaredLogger
	msgs chan ReaderMessage

	mu   sync.Mutex
	port Port
	path string
	conn uint64
	stop chan struct{}
	done chan struct{}
	// failed is set before done closes when the loop published its own
	// ReaderDisconnected
	failed *bool
}

// NewLineReader creates a stopped reader
func NewLineReader(opts ...Option) (*LineReader, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newLineReader(config), nil
}

func newLineReader(config Config) *LineReader {
	return &LineReader{
		open: config.Opener,
		poll: config.PollInterval,
		log:  config.Logger,
		msgs: make(chan ReaderMessage, config.QueueSize),
	}
}

// Messages returns the channel lines and status changes are delivered on.
// It is never closed.
func (r *LineReader) Messages() <-chan ReaderMessage {
	return r.msgs
}

// Start opens path and starts the read loop. A failure is both returned and
// published as ReaderDisconnected.
func (r *LineReader) Start(path string, baud int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runningLocked() {
		return ErrAlreadyConnected
	}

	port, err := r.open(path, baud)
	if err != nil {
		r.log.Warnw("Failed to open serial port", "port", path, "baud", baud, "error", err)
		r.emitNow(ReaderMessage{Kind: ReaderDisconnected, Path: path, Err: err, Conn: r.conn})
		return err
	}

	r.conn++
	r.port = port
	r.path = path
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.failed = new(bool)

	r.log.Infow("Serial port opened", "port", path, "baud", baud)
	go r.loop(port, path, r.conn, r.stop, r.done, r.failed)
	return nil
}

// runningLocked reports whether a read loop is alive
func (r *LineReader) runningLocked() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Connected reports whether a read loop is alive
func (r *LineReader) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runningLocked()
}

// Path returns the port of the current or last connection
func (r *LineReader) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Write sends line followed by a newline. It does nothing when not connected.
func (r *LineReader) Write(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.runningLocked() {
		return nil
	}
	_, err := r.port.Write([]byte(line + "\n"))
	return err
}

// PulseReset pulses the reset lines on the live connection
func (r *LineReader) PulseReset(pulse time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.runningLocked() {
		return ErrNotConnected
	}
	lines, ok := r.port.(serial.ControlLines)
	if !ok {
		return ErrNotConnected
	}
	return serial.PulseLines(lines, pulse)
}

// Stop ends the read loop, waits for it to exit and publishes
// ReaderDisconnected. The port is closed when Stop returns. Calling Stop on a
// stopped reader is a no-op.
func (r *LineReader) Stop() {
	r.mu.Lock()
	stop, done, failed, conn, path := r.stop, r.done, r.failed, r.conn, r.path
	r.stop, r.done, r.failed, r.port = nil, nil, nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
	r.log.Infow("Serial port closed", "port", path)
	if !*failed {
		r.emitNow(ReaderMessage{Kind: ReaderDisconnected, Path: path, Conn: conn})
	}
}

// emitNow publishes without blocking; the caller may be the consumer itself
func (r *LineReader) emitNow(msg ReaderMessage) {
	select {
	case r.msgs <- msg:
	default:
		r.log.Debugw("Reader queue full, dropping status", "kind", msg.Kind, "port", msg.Path)
	}
}

// emit publishes unless stop is closed first
func (r *LineReader) emit(stop <-chan struct{}, msg ReaderMessage) bool {
	select {
	case r.msgs <- msg:
		return true
	case <-stop:
		return false
	}
}

func (r *LineReader) loop(port Port, path string, conn uint64, stop <-chan struct{}, done chan<- struct{}, failed *bool) {
	defer close(done)
	defer port.Close()

	if !r.emit(stop, ReaderMessage{Kind: ReaderConnected, Path: path, Conn: conn}) {
		return
	}

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	var partial []byte
	buf := make([]byte, 1024)

	fail := func(err error) {
		r.log.Warnw("Serial read failed", "port", path, "error", err)
		*failed = r.emit(stop, ReaderMessage{Kind: ReaderDisconnected, Path: path, Err: err, Conn: conn})
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		waiting, err := port.InputWaiting()
		if err != nil {
			fail(err)
			return
		}

		if waiting > 0 {
			n, err := port.Read(buf[:min(waiting, len(buf))])
			if err != nil {
				fail(err)
				return
			}

			var lines []string
			lines, partial = splitLines(append(partial, buf[:n]...))
			for _, line := range lines {
				if !r.emit(stop, ReaderMessage{Kind: ReaderLine, Line: line, Path: path, Conn: conn}) {
					return
				}
			}
			if n == len(buf) {
				continue
			}
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// splitLines cuts data at \n and \r, returning the trimmed non-empty lines
// and the unterminated remainder. Invalid UTF-8 is dropped.
func splitLines(data []byte) ([]string, []byte) {
	var lines []string
	for {
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			break
		}
		if line := decodeLine(data[:i]); line != "" {
			lines = append(lines, line)
		}
		data = data[i+1:]
	}

	if len(data) > maxLineLength {
		if line := decodeLine(data); line != "" {
			lines = append(lines, line)
		}
		return lines, nil
	}

	// Keep the remainder in its own buffer so the caller can append freely
	rest := make([]byte, len(data))
	copy(rest, data)
	return lines, rest
}

func decodeLine(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), ""))
}
