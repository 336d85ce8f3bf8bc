package protoboard

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestReconciler(t *testing.T, opts ...Option) *Reconciler {
	t.Helper()
	r, err := NewReconciler(opts...)
	if err != nil {
		t.Fatalf("NewReconciler() returned error: %v", err)
	}
	return r
}

func sensorEvent(on bool) Event {
	return Event{Kind: EventSensorChanged, State: on}
}

func TestSensorCountsRisingEdges(t *testing.T) {
	tests := []struct {
		name   string
		inputs []bool
		want   uint64
	}{
		{"rise, hold, fall, rise", []bool{true, true, false, true}, 2},
		{"held high", []bool{true, true, true}, 1},
		{"falls only", []bool{false, false}, 0},
		{"alternating", []bool{true, false, true, false, true}, 3},
		{"starts low", []bool{false, true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(t)
			for i, on := range tt.inputs {
				r.Apply(sensorEvent(on), t0.Add(time.Duration(i)*time.Second))
			}
			if got := r.State().Counter; got != tt.want {
				t.Errorf("Counter = %d, want %d", got, tt.want)
			}
			if got := r.State().SensorBlocked; got != tt.inputs[len(tt.inputs)-1] {
				t.Errorf("SensorBlocked = %v, want %v", got, tt.inputs[len(tt.inputs)-1])
			}
		})
	}
}

func TestSensorIncrementsAtRisingPositions(t *testing.T) {
	r := newTestReconciler(t)
	inputs := []bool{true, true, false, true}
	want := []uint64{1, 1, 1, 2}

	for i, on := range inputs {
		r.Apply(sensorEvent(on), t0)
		if got := r.State().Counter; got != want[i] {
			t.Errorf("after input %d Counter = %d, want %d", i, got, want[i])
		}
	}
}

func TestSensorHistoryAndLED(t *testing.T) {
	r := newTestReconciler(t)

	eff := r.Apply(sensorEvent(true), t0)
	if len(eff.Entries) != 1 || eff.Entries[0].Label != "SENSOR_ON" || eff.Entries[0].Channel != 4 {
		t.Errorf("unexpected entries %+v", eff.Entries)
	}
	if !r.State().LEDs[SensorIndex].Value {
		t.Error("LED 4 should follow the sensor")
	}
	if eff.Records[0].Type != RecordSensorBlocked || eff.Records[0].Value != "contador=1" {
		t.Errorf("unexpected record %+v", eff.Records[0])
	}

	// Repeat is still logged
	eff = r.Apply(sensorEvent(true), t0)
	if len(eff.Entries) != 1 || eff.Entries[0].Label != "SENSOR_ON" {
		t.Errorf("repeat entries = %+v", eff.Entries)
	}

	eff = r.Apply(sensorEvent(false), t0)
	if eff.Entries[0].Label != "SENSOR_OFF" || eff.Records[0].Type != RecordSensorFree {
		t.Errorf("unexpected effect %+v", eff)
	}
	if r.State().LEDs[SensorIndex].Value || r.State().SensorBlocked {
		t.Error("sensor should be free")
	}
}

func TestButtonSetsLEDAndNeverCounts(t *testing.T) {
	for i := 0; i < 3; i++ {
		r := newTestReconciler(t)
		r.Apply(sensorEvent(true), t0)
		before := r.State().Counter

		eff := r.Apply(Event{Kind: EventButtonPressed, Index: i}, t0)

		state := r.State()
		if !state.LEDs[i].Value || !state.LEDs[i].Confirmed {
			t.Errorf("button %d: LED = %+v, want on and confirmed", i, state.LEDs[i])
		}
		if state.Counter != before {
			t.Errorf("button %d changed counter %d -> %d", i, before, state.Counter)
		}
		if eff.Entries[0].Label != "BTN" || eff.Entries[0].Channel != i+1 {
			t.Errorf("button %d: entry %+v", i, eff.Entries[0])
		}
		if eff.Records[0].Origin != OriginDevice || eff.Records[0].Detail != LEDDetail(i) {
			t.Errorf("button %d: record %+v", i, eff.Records[0])
		}
	}
}

func TestLedAckOnSensorChannelIsSensorChange(t *testing.T) {
	seqs := [][]bool{
		{true},
		{true, true, false, true},
		{false, true, false},
	}

	for _, seq := range seqs {
		viaAck := newTestReconciler(t)
		viaSensor := newTestReconciler(t)
		for _, on := range seq {
			viaAck.Apply(Event{Kind: EventLedAck, Index: SensorIndex, State: on}, t0)
			viaSensor.Apply(sensorEvent(on), t0)
		}
		if viaAck.State() != viaSensor.State() {
			t.Errorf("seq %v: LedAck state %+v != SensorChanged state %+v", seq, viaAck.State(), viaSensor.State())
		}
	}
}

func TestLedAckConfirmsOptimisticWrite(t *testing.T) {
	r := newTestReconciler(t)

	eff, err := r.SetLED(1, true, OriginApp, t0, true)
	if err != nil {
		t.Fatalf("SetLED() returned error: %v", err)
	}
	if eff.Command != "LED:2:1" {
		t.Errorf("Command = %q, want LED:2:1", eff.Command)
	}
	if led := r.State().LEDs[1]; !led.Value || led.Confirmed {
		t.Errorf("LED after write = %+v, want on and unconfirmed", led)
	}
	if eff.Entries[0].Label != "GUI_TOGGLE:1" {
		t.Errorf("label = %q, want GUI_TOGGLE:1", eff.Entries[0].Label)
	}

	eff = r.Apply(Event{Kind: EventLedAck, Index: 1, State: true}, t0)
	if led := r.State().LEDs[1]; !led.Value || !led.Confirmed {
		t.Errorf("LED after ack = %+v, want on and confirmed", led)
	}
	if eff.Entries[0].Label != "ACK:1" {
		t.Errorf("label = %q, want ACK:1", eff.Entries[0].Label)
	}
}

func TestSetLEDOffline(t *testing.T) {
	r := newTestReconciler(t)

	eff, err := r.SetLED(0, true, OriginApp, t0, false)
	if err != nil {
		t.Fatalf("SetLED() returned error: %v", err)
	}
	if eff.Command != "" {
		t.Errorf("offline write produced command %q", eff.Command)
	}
	if eff.Entries[0].Label != "ON (GUI)" {
		t.Errorf("label = %q, want ON (GUI)", eff.Entries[0].Label)
	}

	eff, _ = r.ToggleLED(0, OriginApp, t0, false)
	if eff.Entries[0].Label != "OFF (GUI)" || r.State().LEDs[0].Value {
		t.Errorf("toggle did not turn LED off: %+v", eff.Entries)
	}
}

func TestSetLEDRejectsSensorAndOutOfRange(t *testing.T) {
	r := newTestReconciler(t)

	if _, err := r.SetLED(SensorIndex, true, OriginApp, t0, true); !errors.Is(err, ErrSensorLED) {
		t.Errorf("SetLED(3) error = %v, want ErrSensorLED", err)
	}
	if _, err := r.ToggleLED(SensorIndex, OriginApp, t0, true); !errors.Is(err, ErrSensorLED) {
		t.Errorf("ToggleLED(3) error = %v, want ErrSensorLED", err)
	}
	for _, idx := range []int{-1, 4, 10} {
		if _, err := r.SetLED(idx, true, OriginApp, t0, true); !errors.Is(err, ErrInvalidLED) {
			t.Errorf("SetLED(%d) error = %v, want ErrInvalidLED", idx, err)
		}
	}
	if len(r.History()) != 0 {
		t.Errorf("rejected writes should not touch history, got %+v", r.History())
	}
}

func TestResetIsOptimistic(t *testing.T) {
	r := newTestReconciler(t)
	for _, on := range []bool{true, false, true} {
		r.Apply(sensorEvent(on), t0)
	}

	eff, err := r.RequestReset(OriginApp, t0, true)
	if err != nil {
		t.Fatalf("RequestReset() returned error: %v", err)
	}
	if r.State().Counter != 0 {
		t.Errorf("Counter = %d, want 0 right after request", r.State().Counter)
	}
	if eff.Command != CommandReset {
		t.Errorf("Command = %q, want %q", eff.Command, CommandReset)
	}
	if eff.HardwareReset {
		t.Error("connected reset should wait for the ACK")
	}
	deadline, pending := r.Deadline()
	if !pending || !deadline.Equal(t0.Add(1500*time.Millisecond)) {
		t.Errorf("Deadline() = %v, %v; want %v, true", deadline, pending, t0.Add(1500*time.Millisecond))
	}
}

func TestResetAckWithinWindow(t *testing.T) {
	r := newTestReconciler(t)
	r.RequestReset(OriginApp, t0, true)

	eff := r.Apply(Event{Kind: EventResetAck}, t0.Add(200*time.Millisecond))
	if eff.Notice != NoticeResetConfirmed {
		t.Errorf("Notice = %v, want reset-confirmed", eff.Notice)
	}
	if _, pending := r.Deadline(); pending {
		t.Error("pending reset should be cleared by the ACK")
	}
	if eff.Entries[0].Label != "ACK:RESET" {
		t.Errorf("label = %q, want ACK:RESET", eff.Entries[0].Label)
	}

	// The deadline passing afterwards does nothing
	if eff := r.Expire(t0.Add(2 * time.Second)); !eff.Ignored || eff.HardwareReset {
		t.Errorf("Expire after ACK = %+v, want ignored", eff)
	}
}

func TestResetTimeoutFallsBackOnce(t *testing.T) {
	r := newTestReconciler(t)
	r.RequestReset(OriginApp, t0, true)

	if eff := r.Expire(t0.Add(1499 * time.Millisecond)); !eff.Ignored {
		t.Errorf("Expire before deadline = %+v, want ignored", eff)
	}

	eff := r.Expire(t0.Add(1500 * time.Millisecond))
	if !eff.HardwareReset || eff.Notice != NoticeResetFallback {
		t.Errorf("Expire at deadline = %+v, want fallback", eff)
	}
	if _, pending := r.Deadline(); pending {
		t.Error("pending reset should be cleared after fallback")
	}

	if eff := r.Expire(t0.Add(3 * time.Second)); !eff.Ignored {
		t.Errorf("second Expire = %+v, want ignored", eff)
	}

	// A late ACK is ignored
	if eff := r.Apply(Event{Kind: EventResetAck}, t0.Add(4*time.Second)); !eff.Ignored {
		t.Errorf("late ACK = %+v, want ignored", eff)
	}
}

func TestResetOfflineRequestsHardwareReset(t *testing.T) {
	r := newTestReconciler(t)

	eff, err := r.RequestReset(OriginApp, t0, false)
	if err != nil {
		t.Fatalf("RequestReset() returned error: %v", err)
	}
	if !eff.HardwareReset || eff.Command != "" {
		t.Errorf("offline reset effect = %+v", eff)
	}
	if _, pending := r.Deadline(); pending {
		t.Error("offline reset should not wait for an ACK")
	}
}

func TestConcurrentResetRejected(t *testing.T) {
	r := newTestReconciler(t)
	if _, err := r.RequestReset(OriginApp, t0, true); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RequestReset(OriginApp, t0.Add(time.Second), true); !errors.Is(err, ErrResetPending) {
		t.Errorf("second RequestReset error = %v, want ErrResetPending", err)
	}
	deadline, _ := r.Deadline()
	if !deadline.Equal(t0.Add(1500 * time.Millisecond)) {
		t.Errorf("rejected request moved the deadline to %v", deadline)
	}
}

func TestStrayResetAckIgnored(t *testing.T) {
	r := newTestReconciler(t)
	r.Apply(sensorEvent(true), t0)

	eff := r.Apply(Event{Kind: EventResetAck}, t0)
	if !eff.Ignored {
		t.Errorf("stray ACK effect = %+v, want ignored", eff)
	}
	if r.State().Counter != 1 {
		t.Errorf("stray ACK changed counter to %d", r.State().Counter)
	}
}

func TestRawGoesToSystemChannel(t *testing.T) {
	r := newTestReconciler(t)

	eff := r.Apply(Classify("garbage:::data"), t0)
	if len(eff.Entries) != 1 {
		t.Fatalf("entries = %+v", eff.Entries)
	}
	if e := eff.Entries[0]; e.Channel != ChannelSystem || e.Label != "garbage:::data" {
		t.Errorf("entry = %+v", e)
	}
	if len(eff.Records) != 0 {
		t.Errorf("raw lines are not persisted, got %+v", eff.Records)
	}
}

func TestSensorDebounce(t *testing.T) {
	r := newTestReconciler(t, WithSensorDebounce(100*time.Millisecond))

	r.Apply(sensorEvent(true), t0)
	r.Apply(sensorEvent(false), t0.Add(10*time.Millisecond))
	r.Apply(sensorEvent(true), t0.Add(20*time.Millisecond))
	if got := r.State().Counter; got != 1 {
		t.Errorf("Counter = %d after bounce, want 1", got)
	}

	r.Apply(sensorEvent(false), t0.Add(150*time.Millisecond))
	r.Apply(sensorEvent(true), t0.Add(200*time.Millisecond))
	if got := r.State().Counter; got != 2 {
		t.Errorf("Counter = %d after clean edge, want 2", got)
	}
}

func TestSyncCounter(t *testing.T) {
	r := newTestReconciler(t)

	eff := r.SyncCounter(7, OriginWeb, t0)
	if r.State().Counter != 7 {
		t.Errorf("Counter = %d, want 7", r.State().Counter)
	}
	if eff.Records[0].Type != RecordCounterChange || eff.Records[0].Value != "7" {
		t.Errorf("record = %+v", eff.Records[0])
	}
	if eff := r.SyncCounter(7, OriginWeb, t0); !eff.Ignored {
		t.Error("same value should be ignored")
	}
}

func TestHistoryLimitOption(t *testing.T) {
	r := newTestReconciler(t, WithHistoryLimit(2))
	for i := 0; i < 5; i++ {
		r.Apply(Event{Kind: EventRaw, Text: "x"}, t0)
	}
	if got := len(r.History()); got != 2 {
		t.Errorf("len(History()) = %d, want 2", got)
	}
}
