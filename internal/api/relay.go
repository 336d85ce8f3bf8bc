package api

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/store"
)

// Relay results reported to Observe
const (
	RelayExecuted = "executed"
	RelayRejected = "rejected"
	RelayFailed   = "failed"
)

// Relay hands queued web commands to the panel
type Relay struct {
	store    store.Store
	panel    Panel
	deviceID string
	interval time.Duration
	log      *zap.SugaredLogger

	// unmarked holds commands that ran but could not be marked sent yet
	unmarked map[uint]struct{}

	// Observe is called with the result of every command when set
	Observe func(result string)
}

// NewRelay creates a Relay polling every interval for commands addressed to
// deviceID or to no device in particular
func NewRelay(s store.Store, panel Panel, deviceID string, interval time.Duration, log *zap.SugaredLogger) *Relay {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Relay{
		store:    s,
		panel:    panel,
		deviceID: deviceID,
		interval: interval,
		log:      log,
		unmarked: make(map[uint]struct{}),
	}
}

// Run polls until ctx is done or the session has stopped
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, protoboard.ErrSessionClosed) {
				return err
			}
			r.log.Warnw("Command relay failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs every pending command once. Commands the panel rejects are still
// marked sent so they are not retried forever. A command that ran but could
// not be marked is not run again by this Relay. Poll must not be called
// concurrently.
func (r *Relay) Poll(ctx context.Context) error {
	cmds, err := r.store.PendingCommands(ctx, r.deviceID)
	if err != nil {
		return err
	}

	var markErr error
	for _, qc := range cmds {
		if _, ok := r.unmarked[qc.ID]; ok {
			markErr = errors.Join(markErr, r.mark(ctx, qc.ID))
			continue
		}

		cmd, err := ToCommand(qc)
		if err == nil {
			err = r.panel.Execute(ctx, cmd)
		}

		switch {
		case err == nil:
			r.observe(RelayExecuted)
			r.log.Infow("Relayed web command", "id", qc.ID, "type", qc.Type, "detail", qc.Detail, "action", qc.Action)
		case errors.Is(err, protoboard.ErrSessionClosed), ctx.Err() != nil:
			r.observe(RelayFailed)
			return err
		default:
			r.observe(RelayRejected)
			r.log.Warnw("Web command rejected", "id", qc.ID, "error", err)
		}

		markErr = errors.Join(markErr, r.mark(ctx, qc.ID))
	}
	return markErr
}

func (r *Relay) mark(ctx context.Context, id uint) error {
	if err := r.store.MarkCommandSent(ctx, id); err != nil {
		r.unmarked[id] = struct{}{}
		r.log.Warnw("Failed to mark command sent", "id", id, "error", err)
		return err
	}
	delete(r.unmarked, id)
	return nil
}

func (r *Relay) observe(result string) {
	if r.Observe != nil {
		r.Observe(result)
	}
}
