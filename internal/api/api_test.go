package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/config"
	"github.com/allbin/protoboard/internal/db"
	"github.com/allbin/protoboard/internal/export"
	"github.com/allbin/protoboard/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePanel records executed commands and serves a fixed snapshot
type fakePanel struct {
	mu      sync.Mutex
	cmds    []protoboard.Command
	err     error
	snap    protoboard.Snapshot
	updates chan protoboard.Update
}

func newFakePanel() *fakePanel {
	return &fakePanel{updates: make(chan protoboard.Update, 4)}
}

func (p *fakePanel) Execute(_ context.Context, cmd protoboard.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.cmds = append(p.cmds, cmd)
	return nil
}

func (p *fakePanel) Snapshot(context.Context) (protoboard.Snapshot, error) {
	return p.snap, nil
}

func (p *fakePanel) Subscribe(context.Context) (<-chan protoboard.Update, func(), error) {
	return p.updates, func() {}, nil
}

func (p *fakePanel) commands() []protoboard.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protoboard.Command(nil), p.cmds...)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return store.NewGormStore(gdb)
}

func testHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{
		RateLimit: 1000,
		Burst:     1000,
		CacheTTL:  time.Minute,
	}
}

// setupRouter wires a router on a fresh store. panel may be nil.
func setupRouter(t *testing.T, cfg config.HTTPConfig, panel Panel, pdf bool) (*gin.Engine, store.Store) {
	t.Helper()
	s := newTestStore(t)
	h := NewHandler(s, panel, export.NewRenderer(pdf), nil)
	return NewRouter(cfg, h, nil, zap.NewNop().Sugar()), s
}
