package protoboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard/serial"
)

// Config holds the tunables shared by the LineReader, Reconciler, Session and
// Discovery. Zero values are never used directly; start from DefaultConfig.
type Config struct {
	BaudRate     int
	PollInterval time.Duration
	QueueSize    int

	ResetTimeout   time.Duration
	HistoryLimit   int
	SensorDebounce time.Duration

	ScanInterval time.Duration
	ScanDebounce time.Duration
	ProbeTimeout time.Duration

	Logger      *zap.SugaredLogger
	Opener      Opener
	Resetter    HardwareResetter
	Prober      Prober
	Recorder    Recorder
	Instruments Instruments
	Clock       func() time.Time
}

// Option configures a Config
type Option func(*Config) error

// DefaultConfig returns the settings the firmware was written against
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		PollInterval: 10 * time.Millisecond,
		QueueSize:    64,

		ResetTimeout: 1500 * time.Millisecond,
		HistoryLimit: 500,

		ScanInterval: 1500 * time.Millisecond,
		ScanDebounce: 3 * time.Second,
		ProbeTimeout: 1500 * time.Millisecond,

		Logger:      zap.NewNop().Sugar(),
		Opener:      SerialOpener,
		Resetter:    PulseResetter,
		Prober:      serial.SniffBanner,
		Instruments: nopInstruments{},
		Clock:       time.Now,
	}
}

func newConfig(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// WithBaudRate sets the line speed used for connections, resets and probes
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidOption
		}
		c.BaudRate = rate
		return nil
	}
}

// WithPollInterval sets how long the reader sleeps when no input is queued
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidOption
		}
		c.PollInterval = d
		return nil
	}
}

// WithQueueSize sets the capacity of the reader message channel
func WithQueueSize(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return ErrInvalidOption
		}
		c.QueueSize = n
		return nil
	}
}

// WithResetTimeout sets how long to wait for ACK:RESET before falling back
// to a hardware reset
func WithResetTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidOption
		}
		c.ResetTimeout = d
		return nil
	}
}

// WithHistoryLimit bounds the in-memory history. 0 keeps everything.
func WithHistoryLimit(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidOption
		}
		c.HistoryLimit = n
		return nil
	}
}

// WithSensorDebounce ignores rising sensor edges that follow the previous
// counted edge by less than d. 0 disables debouncing.
func WithSensorDebounce(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return ErrInvalidOption
		}
		c.SensorDebounce = d
		return nil
	}
}

// WithScanInterval sets how often Discovery lists ports
func WithScanInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidOption
		}
		c.ScanInterval = d
		return nil
	}
}

// WithScanDebounce sets the minimum time between two attempts on the same port
func WithScanDebounce(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return ErrInvalidOption
		}
		c.ScanDebounce = d
		return nil
	}
}

// WithProbeTimeout bounds how long a boot banner is waited for
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidOption
		}
		c.ProbeTimeout = d
		return nil
	}
}

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.Logger = logger
		}
		return nil
	}
}

// WithOpener replaces how serial ports are opened
func WithOpener(open Opener) Option {
	return func(c *Config) error {
		if open == nil {
			return ErrInvalidOption
		}
		c.Opener = open
		return nil
	}
}

// WithHardwareResetter replaces the DTR/RTS reset used when no live
// connection is available
func WithHardwareResetter(reset HardwareResetter) Option {
	return func(c *Config) error {
		if reset == nil {
			return ErrInvalidOption
		}
		c.Resetter = reset
		return nil
	}
}

// WithProber replaces the boot banner probe used by Discovery
func WithProber(probe Prober) Option {
	return func(c *Config) error {
		if probe == nil {
			return ErrInvalidOption
		}
		c.Prober = probe
		return nil
	}
}

// WithRecorder persists every recorded event
func WithRecorder(r Recorder) Option {
	return func(c *Config) error {
		c.Recorder = r
		return nil
	}
}

// WithInstruments reports session activity, e.g. to metrics
func WithInstruments(i Instruments) Option {
	return func(c *Config) error {
		if i == nil {
			i = nopInstruments{}
		}
		c.Instruments = i
		return nil
	}
}

// WithClock replaces time.Now for history timestamps and the reset deadline.
// The reset window itself is always measured on a real timer, so a fixed or
// skewed clock still gets its fallback after ResetTimeout.
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		if now == nil {
			return ErrInvalidOption
		}
		c.Clock = now
		return nil
	}
}

// HardwareResetter pulses the reset lines of the board on path
type HardwareResetter func(path string, baud int) error

// PulseResetter resets the board through a fresh connection
func PulseResetter(path string, baud int) error {
	return serial.PulseReset(path, baud, serial.DefaultPulse)
}

// Prober reports whether the port at path looks like the board
type Prober func(ctx context.Context, path string, baud int) (bool, error)

// Recorder persists protocol events
type Recorder interface {
	RecordEvent(ctx context.Context, rec Record) error
}

// Instruments observes a Session
type Instruments interface {
	LineReceived(kind EventKind)
	ConnectionChanged(connected bool)
	CounterChanged(value uint64)
	ResetRequested()
	ResetCompleted(notice Notice)
	UpdateDropped()
	RecordFailed()
}

type nopInstruments struct{}

func (nopInstruments) LineReceived(EventKind) {}
func (nopInstruments) ConnectionChanged(bool) {}
func (nopInstruments) CounterChanged(uint64) {}
func (nopInstruments) ResetRequested() {}
func (nopInstruments) ResetCompleted(Notice) {}
func (nopInstruments) UpdateDropped() {}
func (nopInstruments) RecordFailed() {}
