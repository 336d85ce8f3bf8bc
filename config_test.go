package protoboard

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", c.BaudRate)
	}
	if c.ResetTimeout != 1500*time.Millisecond {
		t.Errorf("ResetTimeout = %v, want 1.5s", c.ResetTimeout)
	}
	if c.PollInterval != 10*time.Millisecond {
		t.Errorf("PollInterval = %v, want 10ms", c.PollInterval)
	}
	if c.ScanInterval != 1500*time.Millisecond || c.ScanDebounce != 3*time.Second {
		t.Errorf("scan = %v/%v, want 1.5s/3s", c.ScanInterval, c.ScanDebounce)
	}
	if c.SensorDebounce != 0 {
		t.Errorf("SensorDebounce = %v, want off", c.SensorDebounce)
	}
	if c.Logger == nil || c.Opener == nil || c.Resetter == nil || c.Prober == nil || c.Instruments == nil {
		t.Error("defaults left a collaborator nil")
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"baud 0", WithBaudRate(0)},
		{"poll 0", WithPollInterval(0)},
		{"queue 0", WithQueueSize(0)},
		{"reset timeout negative", WithResetTimeout(-time.Second)},
		{"history negative", WithHistoryLimit(-1)},
		{"debounce negative", WithSensorDebounce(-time.Millisecond)},
		{"scan interval 0", WithScanInterval(0)},
		{"probe timeout 0", WithProbeTimeout(0)},
		{"nil opener", WithOpener(nil)},
		{"nil resetter", WithHardwareResetter(nil)},
		{"nil prober", WithProber(nil)},
		{"nil clock", WithClock(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.opt); !errors.Is(err, ErrInvalidOption) {
				t.Errorf("NewSession() error = %v, want ErrInvalidOption", err)
			}
		})
	}
}

func TestWithLoggerNilKeepsDefault(t *testing.T) {
	c, err := newConfig([]Option{WithLogger(nil), WithInstruments(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if c.Logger == nil || c.Instruments == nil {
		t.Error("nil logger or instruments replaced the default")
	}
}
