package protoboard

import "time"

// LED is the host's view of one LED. Confirmed is false while an optimistic
// write awaits its ACK from the device.
type LED struct {
	Value     bool `json:"value"`
	Confirmed bool `json:"confirmed"`
}

// DeviceState is the reconciled state of the board
type DeviceState struct {
	LEDs          [NumLEDs]LED `json:"leds"`
	Counter       uint64       `json:"counter"`
	SensorBlocked bool         `json:"sensor_blocked"`
}

// Values returns the plain on/off state of every LED
func (s DeviceState) Values() [NumLEDs]bool {
	var v [NumLEDs]bool
	for i, led := range s.LEDs {
		v[i] = led.Value
	}
	return v
}

// ChannelSystem is the history channel for entries not tied to an LED
const ChannelSystem = 0

// HistoryEntry is one line of the activity log. Channel is 0 for system
// entries and 1..4 for LED channels.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   int       `json:"channel"`
	Label     string    `json:"label"`
}

// History is an append-only log, optionally trimmed to the newest limit entries
type History struct {
	entries []HistoryEntry
	limit   int
}

// NewHistory creates a history keeping at most limit entries; 0 means unbounded
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Append adds an entry, dropping the oldest one past the limit
func (h *History) Append(e HistoryEntry) {
	h.entries = append(h.entries, e)
	if h.limit > 0 && len(h.entries) > h.limit {
		// Copy down instead of reslicing so the backing array stays bounded
		n := copy(h.entries, h.entries[len(h.entries)-h.limit:])
		clear(h.entries[n:])
		h.entries = h.entries[:n]
	}
}

// Len returns the number of retained entries
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the retained entries, oldest first
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
