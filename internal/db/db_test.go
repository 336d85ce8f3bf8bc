package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/allbin/protoboard/internal/config"
	"github.com/allbin/protoboard/internal/model"
)

func TestDialector(t *testing.T) {
	_, err := Dialector(&config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Dialector(&config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)

	d, err := Dialector(&config.DatabaseConfig{Driver: "sqlite", DSN: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.DatabaseConfig{Driver: "postgres", DSN: "host=localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestInitMigratesSqlite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "protoboard.db"),
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute,
	}

	gdb, err := Init(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer Close(gdb)

	for _, table := range []any{&model.User{}, &model.Event{}, &model.Export{}, &model.Command{}, &model.DeviceState{}} {
		assert.True(t, gdb.Migrator().HasTable(table))
	}
	assert.True(t, gdb.Migrator().HasIndex(&model.DeviceState{}, "idx_device_detail"))
}
