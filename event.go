package protoboard

import "fmt"

// EventKind tags the variant held by an Event
type EventKind int

const (
	// EventRaw is any line that is not part of the protocol vocabulary
	EventRaw EventKind = iota
	// EventButtonPressed is a physical button 1..3 (Index 0..2)
	EventButtonPressed
	// EventLedAck confirms an LED state (Index 0..3, State)
	EventLedAck
	// EventResetAck confirms a counter reset
	EventResetAck
	// EventSensorChanged reports the IR sensor state (State true = blocked)
	EventSensorChanged
)

func (k EventKind) String() string {
	switch k {
	case EventRaw:
		return "raw"
	case EventButtonPressed:
		return "button"
	case EventLedAck:
		return "led-ack"
	case EventResetAck:
		return "reset-ack"
	case EventSensorChanged:
		return "sensor"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a classified device line. Text always holds the trimmed line it
// came from; Index and State are only meaningful for the kinds that use them.
type Event struct {
	Kind  EventKind
	Index int
	State bool
	Text  string
}

func (e Event) String() string {
	switch e.Kind {
	case EventButtonPressed:
		return fmt.Sprintf("button{%d}", e.Index)
	case EventLedAck:
		return fmt.Sprintf("led-ack{%d,%t}", e.Index, e.State)
	case EventResetAck:
		return "reset-ack"
	case EventSensorChanged:
		return fmt.Sprintf("sensor{%t}", e.State)
	default:
		return fmt.Sprintf("raw{%q}", e.Text)
	}
}
