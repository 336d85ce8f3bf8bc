package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/model"
	"github.com/allbin/protoboard/internal/store"
)

// flakyMarkStore fails MarkCommandSent while failMarks is set
type flakyMarkStore struct {
	store.Store
	failMarks bool
}

func (f *flakyMarkStore) MarkCommandSent(ctx context.Context, id uint) error {
	if f.failMarks {
		return errors.New("database is locked")
	}
	return f.Store.MarkCommandSent(ctx, id)
}

func TestRelayPoll(t *testing.T) {
	s := newTestStore(t)
	panel := newFakePanel()
	ctx := context.Background()

	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "LED", Detail: "LED1", Action: "ON"}))
	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "MOTOR", Detail: "M1", Action: "ON"}))
	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "SYSTEM", Detail: "CONTADOR", Action: "RESET", DeviceID: "other"}))

	var results []string
	relay := NewRelay(s, panel, "esp32", time.Hour, nil)
	relay.Observe = func(r string) { results = append(results, r) }

	require.NoError(t, relay.Poll(ctx))

	assert.Equal(t, []protoboard.Command{
		{Kind: protoboard.CommandLED, Index: 0, On: true, Origin: protoboard.OriginWeb},
	}, panel.commands())
	assert.Equal(t, []string{RelayExecuted, RelayRejected}, results)

	pending, err := s.PendingCommands(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "other", pending[0].DeviceID)
}

func TestRelayMarksRejectedCommands(t *testing.T) {
	s := newTestStore(t)
	panel := newFakePanel()
	panel.err = protoboard.ErrResetPending
	ctx := context.Background()

	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "SYSTEM", Detail: "CONTADOR", Action: "RESET"}))

	relay := NewRelay(s, panel, "", time.Hour, nil)
	require.NoError(t, relay.Poll(ctx))

	pending, err := s.PendingCommands(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelayStopsWhenSessionCloses(t *testing.T) {
	s := newTestStore(t)
	panel := newFakePanel()
	panel.err = protoboard.ErrSessionClosed
	ctx := context.Background()

	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "LED", Detail: "LED2", Action: "TOGGLE"}))

	relay := NewRelay(s, panel, "", time.Millisecond, nil)
	err := relay.Run(ctx)
	assert.True(t, errors.Is(err, protoboard.ErrSessionClosed))

	// Left queued for the next session
	pending, err := s.PendingCommands(ctx, "")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	relay := NewRelay(newTestStore(t), newFakePanel(), "", time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, relay.Run(ctx), context.DeadlineExceeded)
}

func TestRelayDoesNotRerunUnmarkedCommand(t *testing.T) {
	s := &flakyMarkStore{Store: newTestStore(t), failMarks: true}
	panel := newFakePanel()
	ctx := context.Background()

	require.NoError(t, s.EnqueueCommand(ctx, &model.Command{Type: "LED", Detail: "LED1", Action: "TOGGLE"}))

	relay := NewRelay(s, panel, "", time.Hour, nil)
	require.Error(t, relay.Poll(ctx))
	require.Len(t, panel.commands(), 1)

	// Still queued, but not toggled a second time
	require.Error(t, relay.Poll(ctx))
	assert.Len(t, panel.commands(), 1)

	s.failMarks = false
	require.NoError(t, relay.Poll(ctx))
	assert.Len(t, panel.commands(), 1)

	pending, err := s.PendingCommands(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
