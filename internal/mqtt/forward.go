package mqtt

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard"
)

// Forwarder copies session updates to a Publisher
type Forwarder struct {
	pub Publisher
	log *zap.SugaredLogger
	now func() time.Time

	// OnError is called for every failed publish when set
	OnError func(error)
}

// NewForwarder creates a Forwarder
func NewForwarder(pub Publisher, log *zap.SugaredLogger) *Forwarder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Forwarder{pub: pub, log: log, now: time.Now}
}

// Run publishes updates until the channel is closed or ctx is done. Failed
// publishes are logged and do not stop forwarding.
func (f *Forwarder) Run(ctx context.Context, updates <-chan protoboard.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			f.forward(u)
		}
	}
}

func (f *Forwarder) forward(u protoboard.Update) {
	if err := f.pub.PublishState(u); err != nil {
		f.fail(err)
	}
	if u.Notice == protoboard.NoticeNone {
		return
	}
	if err := f.pub.PublishNotice(u.Notice, f.now()); err != nil {
		f.fail(err)
	}
}

func (f *Forwarder) fail(err error) {
	f.log.Warnw("MQTT publish failed", "error", err)
	if f.OnError != nil {
		f.OnError(err)
	}
}
