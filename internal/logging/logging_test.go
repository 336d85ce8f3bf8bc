package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("test", Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protoboard.log")

	log, err := New("panel", Options{Level: "info", Path: path})
	require.NoError(t, err)

	log.Debugw("hidden", "k", 1)
	log.Infow("Serial port opened", "port", "/dev/ttyUSB0")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Serial port opened")
	assert.Contains(t, string(data), `"logger":"panel"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewDevelopment(t *testing.T) {
	log, err := New("dev", Options{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(-1))
}
