package mqtt

import (
	"time"

	"github.com/allbin/protoboard"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// States contains all updates that were published.
	States []protoboard.Update

	// StatePayloads contains the JSON payloads for state messages.
	StatePayloads [][]byte

	// Notices contains all notices that were published.
	Notices []protoboard.Notice

	// PublishError, if set, will be returned by PublishState and PublishNotice.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	now func() time.Time
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{now: time.Now}
}

// PublishState records the update.
func (f *FakePublisher) PublishState(update protoboard.Update) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatStatePayload(update, f.now())
	if err != nil {
		return err
	}
	f.States = append(f.States, update)
	f.StatePayloads = append(f.StatePayloads, payload)
	return nil
}

// PublishNotice records the notice.
func (f *FakePublisher) PublishNotice(notice protoboard.Notice, _ time.Time) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Notices = append(f.Notices, notice)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
