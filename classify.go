package protoboard

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandReset asks the device to zero its counter
const CommandReset = "RESET"

// NumLEDs is the number of LED channels, the last one mirrors the sensor
const NumLEDs = 4

// SensorIndex is the LED channel driven by the IR sensor
const SensorIndex = NumLEDs - 1

// Classify maps one line from the device onto an Event. Prefixes are matched
// case-insensitively in protocol priority order. Lines with malformed fields
// come back as EventRaw; Classify never fails.
func Classify(line string) Event {
	line = strings.TrimSpace(line)
	up := strings.ToUpper(line)
	raw := Event{Kind: EventRaw, Text: line}

	switch {
	case strings.HasPrefix(up, "ACK:RESET"):
		return Event{Kind: EventResetAck, Text: line}

	case strings.HasPrefix(up, "BTN:"):
		n, ok := field(line, 1)
		if !ok {
			return raw
		}
		switch {
		case n >= 1 && n <= 3:
			return Event{Kind: EventButtonPressed, Index: n - 1, Text: line}
		case n == NumLEDs:
			return Event{Kind: EventSensorChanged, State: true, Text: line}
		}
		return raw

	case strings.HasPrefix(up, "ACK:LED:"):
		parts := strings.Split(line, ":")
		if len(parts) < 4 {
			return raw
		}
		n, ok := field(line, 2)
		if !ok || n < 1 || n > NumLEDs {
			return raw
		}
		return Event{Kind: EventLedAck, Index: n - 1, State: strings.TrimSpace(parts[3]) == "1", Text: line}

	case strings.HasPrefix(up, "SENSOR:"), strings.HasPrefix(up, "PROX:"):
		_, value, _ := strings.Cut(line, ":")
		return Event{Kind: EventSensorChanged, State: truthy(value), Text: line}
	}

	return raw
}

// field parses the colon separated field at pos as an integer
func field(line string, pos int) (int, bool) {
	parts := strings.Split(line, ":")
	if pos >= len(parts) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[pos]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func truthy(v string) bool {
	v = strings.TrimSpace(v)
	// SENSOR:1:extra still reads the first field
	if i := strings.IndexByte(v, ':'); i >= 0 {
		v = v[:i]
	}
	return v == "1" || strings.EqualFold(v, "on") || strings.EqualFold(v, "true")
}

// FormatLEDCommand renders the host command that sets LED index (0-based)
func FormatLEDCommand(index int, on bool) string {
	v := 0
	if on {
		v = 1
	}
	return fmt.Sprintf("LED:%d:%d", index+1, v)
}
