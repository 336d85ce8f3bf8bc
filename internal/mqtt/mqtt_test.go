package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/allbin/protoboard"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func TestNewTopics(t *testing.T) {
	topics := NewTopics("lab/board")
	assert.Equal(t, "lab/board/state", topics.State)
	assert.Equal(t, "lab/board/notice", topics.Notice)
	assert.Equal(t, "lab/board/status", topics.Status)
}

func TestFormatStatePayload(t *testing.T) {
	u := protoboard.Update{
		Connected: true,
		Port:      "/dev/ttyUSB0",
		Pending:   true,
		Entries:   []protoboard.HistoryEntry{{Timestamp: t0, Channel: 4, Label: "SENSOR_ON"}},
	}
	u.State.LEDs[0] = protoboard.LED{Value: true, Confirmed: true}
	u.State.LEDs[2] = protoboard.LED{Value: true}
	u.State.Counter = 7
	u.State.SensorBlocked = true

	data, err := FormatStatePayload(u, t0)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"timestamp": "2025-06-01T08:00:00Z",
		"connected": true,
		"port": "/dev/ttyUSB0",
		"leds": [true, false, true, false],
		"confirmed": [true, false, false, false],
		"counter": 7,
		"sensor_blocked": true,
		"reset_pending": true,
		"events": ["SENSOR_ON"]
	}`, string(data))
}

func TestFormatNoticePayload(t *testing.T) {
	data, err := FormatNoticePayload(protoboard.NoticeResetFallback, t0)
	require.NoError(t, err)

	var p NoticePayload
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, "reset-fallback", p.Notice)
	assert.Equal(t, "2025-06-01T08:00:00Z", p.Timestamp)
}

func TestForwarderPublishesStateAndNotices(t *testing.T) {
	pub := NewFakePublisher()
	fwd := NewForwarder(pub, zaptest.NewLogger(t).Sugar())

	updates := make(chan protoboard.Update, 3)
	updates <- protoboard.Update{Connected: true}
	updates <- protoboard.Update{Notice: protoboard.NoticeResetConfirmed}
	updates <- protoboard.Update{}
	close(updates)

	fwd.Run(context.Background(), updates)

	assert.Len(t, pub.States, 3)
	assert.Len(t, pub.StatePayloads, 3)
	assert.Equal(t, []protoboard.Notice{protoboard.NoticeResetConfirmed}, pub.Notices)
}

func TestForwarderKeepsGoingOnError(t *testing.T) {
	pub := NewFakePublisher()
	pub.PublishError = errors.New("broker down")

	var failures int
	fwd := NewForwarder(pub, nil)
	fwd.OnError = func(error) { failures++ }

	updates := make(chan protoboard.Update, 2)
	updates <- protoboard.Update{}
	updates <- protoboard.Update{Notice: protoboard.NoticeResetFallback}
	close(updates)

	fwd.Run(context.Background(), updates)
	assert.Equal(t, 3, failures)
	assert.Empty(t, pub.States)
}

func TestForwarderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewForwarder(NewFakePublisher(), nil).Run(ctx, make(chan protoboard.Update))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
}

func TestFakePublisherClose(t *testing.T) {
	pub := NewFakePublisher()
	var p Publisher = pub
	require.NoError(t, p.Close())
	assert.True(t, pub.Closed)
}
