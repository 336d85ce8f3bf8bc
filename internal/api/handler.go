// Package api serves the HTTP command channel of the panel.
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/export"
	"github.com/allbin/protoboard/internal/store"
)

// Panel is the part of a protoboard.Session the HTTP channel drives
type Panel interface {
	Execute(ctx context.Context, cmd protoboard.Command) error
	Snapshot(ctx context.Context) (protoboard.Snapshot, error)
	Subscribe(ctx context.Context) (<-chan protoboard.Update, func(), error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	panel    Panel
	renderer *export.Renderer
	log      *zap.SugaredLogger
}

// NewHandler creates a new API handler. panel may be nil when the server
// runs without a board attached; the live endpoints then answer 503.
func NewHandler(s store.Store, panel Panel, renderer *export.Renderer, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if renderer == nil {
		renderer = export.NewRenderer(false)
	}
	return &Handler{store: s, panel: panel, renderer: renderer, log: log}
}
