package protoboard

import (
	"testing"
	"time"
)

func TestHistoryUnbounded(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 1000; i++ {
		h.Append(HistoryEntry{Channel: i % 5})
	}
	if h.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", h.Len())
	}
}

func TestHistoryLimitKeepsNewest(t *testing.T) {
	h := NewHistory(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Append(HistoryEntry{Timestamp: base.Add(time.Duration(i) * time.Second), Label: string(rune('a' + i))})
	}

	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i, want := range []string{"c", "d", "e"} {
		if entries[i].Label != want {
			t.Errorf("entries[%d].Label = %q, want %q", i, entries[i].Label, want)
		}
	}
}

func TestHistoryEntriesIsCopy(t *testing.T) {
	h := NewHistory(0)
	h.Append(HistoryEntry{Label: "BTN"})

	entries := h.Entries()
	entries[0].Label = "changed"

	if h.Entries()[0].Label != "BTN" {
		t.Error("Entries() exposed internal storage")
	}
}

func TestDeviceStateValues(t *testing.T) {
	var s DeviceState
	s.LEDs[0] = LED{Value: true}
	s.LEDs[3] = LED{Value: true, Confirmed: true}

	want := [NumLEDs]bool{true, false, false, true}
	if got := s.Values(); got != want {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}
