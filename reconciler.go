package protoboard

import (
	"fmt"
	"time"
)

// Notice is a user-visible outcome of reconciliation
type Notice int

const (
	NoticeNone Notice = iota
	// NoticeResetConfirmed means the device acknowledged a counter reset
	NoticeResetConfirmed
	// NoticeResetFallback means no ACK arrived and the board was reset
	// through its control lines instead
	NoticeResetFallback
)

func (n Notice) String() string {
	switch n {
	case NoticeNone:
		return "none"
	case NoticeResetConfirmed:
		return "reset-confirmed"
	case NoticeResetFallback:
		return "reset-fallback"
	default:
		return fmt.Sprintf("Notice(%d)", int(n))
	}
}

// MarshalText implements encoding.TextMarshaler
func (n Notice) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// Effect describes what a transition changed and what the caller has to do
// about it. The Reconciler itself performs no I/O.
type Effect struct {
	// Entries were appended to the history
	Entries []HistoryEntry
	// Records should be persisted
	Records []Record
	// Command is a line to write to the device, empty for none
	Command string
	// HardwareReset asks for the board to be reset through DTR/RTS
	HardwareReset bool
	Notice        Notice
	// Ignored is set when the event had no effect at all
	Ignored bool
}

// Reconciler applies events to a DeviceState. It is not safe for concurrent
// use; a Session owns one and drives it from a single goroutine.
type Reconciler struct {
	state   DeviceState
	history *History

	resetTimeout time.Duration
	debounce     time.Duration
	lastRise     time.Time

	pending  bool
	deadline time.Time
}

// NewReconciler returns a Reconciler for a board in its power-on state
func NewReconciler(opts ...Option) (*Reconciler, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newReconciler(config), nil
}

func newReconciler(config Config) *Reconciler {
	return &Reconciler{
		history:      NewHistory(config.HistoryLimit),
		resetTimeout: config.ResetTimeout,
		debounce:     config.SensorDebounce,
	}
}

// State returns a copy of the current device state
func (r *Reconciler) State() DeviceState {
	return r.state
}

// History returns a copy of the retained history
func (r *Reconciler) History() []HistoryEntry {
	return r.history.Entries()
}

// Deadline returns the pending reset deadline, if a reset is pending
func (r *Reconciler) Deadline() (time.Time, bool) {
	return r.deadline, r.pending
}

// Apply reconciles one event from the device
func (r *Reconciler) Apply(ev Event, now time.Time) Effect {
	var eff Effect

	switch ev.Kind {
	case EventButtonPressed:
		if ev.Index < 0 || ev.Index >= SensorIndex {
			return r.raw(ev.Text, now)
		}
		r.state.LEDs[ev.Index] = LED{Value: true, Confirmed: true}
		r.log(&eff, now, ev.Index+1, "BTN")
		eff.Records = append(eff.Records, ledRecord(now, ev.Index, true, OriginDevice))

	case EventLedAck:
		switch {
		case ev.Index == SensorIndex:
			return r.sensor(ev.State, now)
		case ev.Index < 0 || ev.Index > SensorIndex:
			return r.raw(ev.Text, now)
		}
		r.state.LEDs[ev.Index] = LED{Value: ev.State, Confirmed: true}
		r.log(&eff, now, ev.Index+1, "ACK:"+bit(ev.State))
		eff.Records = append(eff.Records, ledRecord(now, ev.Index, ev.State, OriginDevice))

	case EventSensorChanged:
		return r.sensor(ev.State, now)

	case EventResetAck:
		if !r.pending {
			return Effect{Ignored: true}
		}
		r.pending = false
		r.deadline = time.Time{}
		r.state.Counter = 0
		r.log(&eff, now, ChannelSystem, "ACK:RESET")
		eff.Records = append(eff.Records, counterRecord(now, RecordCounterReset, 0, OriginDevice))
		eff.Notice = NoticeResetConfirmed

	default:
		return r.raw(ev.Text, now)
	}

	return eff
}

// sensor performs rising-edge detection on the sensor channel
func (r *Reconciler) sensor(on bool, now time.Time) Effect {
	var eff Effect
	rising := on && !r.state.SensorBlocked

	r.state.SensorBlocked = on
	r.state.LEDs[SensorIndex] = LED{Value: on, Confirmed: true}

	if !on {
		r.log(&eff, now, SensorIndex+1, "SENSOR_OFF")
		eff.Records = append(eff.Records, Record{
			Timestamp: now, Type: RecordSensorFree, Detail: DetailSensor, Origin: OriginDevice, Value: "0",
		})
		return eff
	}

	r.log(&eff, now, SensorIndex+1, "SENSOR_ON")
	value := "1"
	if rising && !r.bouncing(now) {
		r.state.Counter++
		r.lastRise = now
		value = fmt.Sprintf("contador=%d", r.state.Counter)
	}
	eff.Records = append(eff.Records, Record{
		Timestamp: now, Type: RecordSensorBlocked, Detail: DetailSensor, Origin: OriginDevice, Value: value,
	})
	return eff
}

func (r *Reconciler) bouncing(now time.Time) bool {
	return r.debounce > 0 && !r.lastRise.IsZero() && now.Sub(r.lastRise) < r.debounce
}

func (r *Reconciler) raw(text string, now time.Time) Effect {
	var eff Effect
	r.log(&eff, now, ChannelSystem, text)
	return eff
}

// SetLED applies a local LED write. While connected the value stays
// unconfirmed until the device acknowledges it and Effect.Command carries the
// line to send.
func (r *Reconciler) SetLED(index int, on bool, origin string, now time.Time, connected bool) (Effect, error) {
	switch {
	case index == SensorIndex:
		return Effect{}, ErrSensorLED
	case index < 0 || index > SensorIndex:
		return Effect{}, fmt.Errorf("%w: %d", ErrInvalidLED, index)
	}

	var eff Effect
	r.state.LEDs[index] = LED{Value: on, Confirmed: !connected}
	if connected {
		eff.Command = FormatLEDCommand(index, on)
		r.log(&eff, now, index+1, "GUI_TOGGLE:"+bit(on))
	} else if on {
		r.log(&eff, now, index+1, "ON (GUI)")
	} else {
		r.log(&eff, now, index+1, "OFF (GUI)")
	}
	eff.Records = append(eff.Records, ledRecord(now, index, on, origin))
	return eff, nil
}

// ToggleLED flips the current value of an LED through SetLED
func (r *Reconciler) ToggleLED(index int, origin string, now time.Time, connected bool) (Effect, error) {
	if index < 0 || index > SensorIndex {
		return Effect{}, fmt.Errorf("%w: %d", ErrInvalidLED, index)
	}
	return r.SetLED(index, !r.state.LEDs[index].Value, origin, now, connected)
}

// RequestReset zeroes the counter at once. While connected it arms the ACK
// deadline and asks for RESET to be sent; offline it asks for an immediate
// hardware reset instead.
func (r *Reconciler) RequestReset(origin string, now time.Time, connected bool) (Effect, error) {
	if r.pending {
		return Effect{}, ErrResetPending
	}

	var eff Effect
	r.state.Counter = 0
	r.log(&eff, now, ChannelSystem, "RESET")
	eff.Records = append(eff.Records, counterRecord(now, RecordCounterReset, 0, origin))

	if connected {
		r.pending = true
		r.deadline = now.Add(r.resetTimeout)
		eff.Command = CommandReset
	} else {
		eff.HardwareReset = true
	}
	return eff, nil
}

// Expire fires the reset fallback once the deadline has passed
func (r *Reconciler) Expire(now time.Time) Effect {
	if !r.pending || now.Before(r.deadline) {
		return Effect{Ignored: true}
	}
	r.pending = false
	r.deadline = time.Time{}
	return Effect{HardwareReset: true, Notice: NoticeResetFallback}
}

// SyncCounter adopts a counter value reported out of band, e.g. over HTTP
func (r *Reconciler) SyncCounter(value uint64, origin string, now time.Time) Effect {
	var eff Effect
	if value == r.state.Counter {
		return Effect{Ignored: true}
	}
	r.state.Counter = value
	r.log(&eff, now, ChannelSystem, fmt.Sprintf("COUNTER:%d", value))
	eff.Records = append(eff.Records, counterRecord(now, RecordCounterChange, value, origin))
	return eff
}

func (r *Reconciler) log(eff *Effect, now time.Time, channel int, label string) {
	entry := HistoryEntry{Timestamp: now, Channel: channel, Label: label}
	r.history.Append(entry)
	eff.Entries = append(eff.Entries, entry)
}
