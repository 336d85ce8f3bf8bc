package protoboard

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{"ACK:RESET", Event{Kind: EventResetAck, Text: "ACK:RESET"}},
		{"ack:reset ok", Event{Kind: EventResetAck, Text: "ack:reset ok"}},
		{"BTN:1", Event{Kind: EventButtonPressed, Index: 0, Text: "BTN:1"}},
		{"btn:3", Event{Kind: EventButtonPressed, Index: 2, Text: "btn:3"}},
		{"BTN:4", Event{Kind: EventSensorChanged, State: true, Text: "BTN:4"}},
		{"BTN:5", Event{Kind: EventRaw, Text: "BTN:5"}},
		{"BTN:0", Event{Kind: EventRaw, Text: "BTN:0"}},
		{"BTN:x", Event{Kind: EventRaw, Text: "BTN:x"}},
		{"BTN:", Event{Kind: EventRaw, Text: "BTN:"}},
		{"ACK:LED:2:1", Event{Kind: EventLedAck, Index: 1, State: true, Text: "ACK:LED:2:1"}},
		{"ACK:LED:1:0", Event{Kind: EventLedAck, Index: 0, State: false, Text: "ACK:LED:1:0"}},
		{"ACK:LED:4:1", Event{Kind: EventLedAck, Index: 3, State: true, Text: "ACK:LED:4:1"}},
		{"ACK:LED:5:1", Event{Kind: EventRaw, Text: "ACK:LED:5:1"}},
		{"ACK:LED:a:1", Event{Kind: EventRaw, Text: "ACK:LED:a:1"}},
		{"ACK:LED:2", Event{Kind: EventRaw, Text: "ACK:LED:2"}},
		{"SENSOR:1", Event{Kind: EventSensorChanged, State: true, Text: "SENSOR:1"}},
		{"SENSOR:0", Event{Kind: EventSensorChanged, State: false, Text: "SENSOR:0"}},
		{"sensor:on", Event{Kind: EventSensorChanged, State: true, Text: "sensor:on"}},
		{"PROX:TRUE", Event{Kind: EventSensorChanged, State: true, Text: "PROX:TRUE"}},
		{"PROX:off", Event{Kind: EventSensorChanged, State: false, Text: "PROX:off"}},
		{"PROX:", Event{Kind: EventSensorChanged, State: false, Text: "PROX:"}},
		{"garbage:::data", Event{Kind: EventRaw, Text: "garbage:::data"}},
		{"  BTN:2\r", Event{Kind: EventButtonPressed, Index: 1, Text: "BTN:2"}},
		{"", Event{Kind: EventRaw, Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := Classify(tt.line); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestClassifyResetBeatsOtherPrefixes(t *testing.T) {
	// ACK:RESET is checked before ACK:LED
	if got := Classify("ACK:RESET:LED:1:1"); got.Kind != EventResetAck {
		t.Errorf("got %v, want reset-ack", got)
	}
}

func TestFormatLEDCommand(t *testing.T) {
	tests := []struct {
		index int
		on    bool
		want  string
	}{
		{0, true, "LED:1:1"},
		{1, false, "LED:2:0"},
		{2, true, "LED:3:1"},
	}

	for _, tt := range tests {
		if got := FormatLEDCommand(tt.index, tt.on); got != tt.want {
			t.Errorf("FormatLEDCommand(%d, %v) = %q, want %q", tt.index, tt.on, got, tt.want)
		}
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: EventButtonPressed, Index: 2}, "button{2}"},
		{Event{Kind: EventLedAck, Index: 1, State: true}, "led-ack{1,true}"},
		{Event{Kind: EventResetAck}, "reset-ack"},
		{Event{Kind: EventSensorChanged}, "sensor{false}"},
		{Event{Kind: EventRaw, Text: "hi"}, `raw{"hi"}`},
	}

	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
