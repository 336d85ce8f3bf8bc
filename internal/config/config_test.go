package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protoboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 1500*time.Millisecond, cfg.Serial.ResetTimeout)
	assert.Equal(t, 500, cfg.Serial.HistoryLimit)
	assert.True(t, cfg.Serial.Discovery.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Serial.Discovery.Debounce)
	assert.Equal(t, "", cfg.Database.Driver)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
theme: Light
serial:
  port: /dev/ttyUSB1
  reset_timeout: 2s
  sensor_debounce: 50ms
database:
  driver: SQLite
  dsn: file::memory:
mqtt:
  broker: tcp://localhost:1883
  prefix: lab/board
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, ThemeLight, cfg.Theme)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 2*time.Second, cfg.Serial.ResetTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Serial.SensorDebounce)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab/board", cfg.MQTT.Prefix)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROTOBOARD_SERIAL_PORT", "/dev/ttyACM0")
	t.Setenv("PROTOBOARD_THEME", "light")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, ThemeLight, cfg.Theme)
}

func TestBindFlagsOverridesFile(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyUSB0\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("port", "", "")
	fs.Int("baud", 115200, "")
	require.NoError(t, fs.Parse([]string{"--port", "/dev/ttyUSB3", "--baud", "9600"}))

	v := viper.New()
	require.NoError(t, BindFlags(v, fs))

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"theme", "theme: sepia\n"},
		{"baud", "serial:\n  baud: 0\n"},
		{"reset timeout", "serial:\n  reset_timeout: 0s\n"},
		{"history", "serial:\n  history_limit: -1\n"},
		{"driver", "database:\n  driver: mysql\n"},
		{"qos", "mqtt:\n  qos: 3\n"},
		{"rate", "http:\n  rate_limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSessionOptions(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Len(t, cfg.SessionOptions(), 7)

	cfg.Serial.Discovery.Interval = 0
	assert.Len(t, cfg.SessionOptions(), 6)
}
