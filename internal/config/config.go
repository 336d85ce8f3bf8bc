// Package config loads the protoboard application configuration from a
// config file, PROTOBOARD_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/allbin/protoboard"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Theme selects the panel colour scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Config represents the overall application configuration
type Config struct {
	Theme    Theme          `mapstructure:"theme"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Export   ExportConfig   `mapstructure:"export"`
}

// SerialConfig holds the device connection settings
type SerialConfig struct {
	// Port is connected at start-up. Empty means auto discovery.
	Port           string          `mapstructure:"port"`
	BaudRate       int             `mapstructure:"baud"`
	ResetTimeout   time.Duration   `mapstructure:"reset_timeout"`
	HistoryLimit   int             `mapstructure:"history_limit"`
	SensorDebounce time.Duration   `mapstructure:"sensor_debounce"`
	Discovery      DiscoveryConfig `mapstructure:"discovery"`
}

// DiscoveryConfig holds the port scanner settings
type DiscoveryConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Debounce time.Duration `mapstructure:"debounce"`
	Probe    time.Duration `mapstructure:"probe_timeout"`
}

// LogConfig holds the logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// DatabaseConfig holds the database connection configuration
type DatabaseConfig struct {
	// Driver is sqlite or postgres. Empty disables persistence.
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MQTTConfig holds the broker the session updates are forwarded to
type MQTTConfig struct {
	// Broker is a URL such as tcp://localhost:1883. Empty disables MQTT.
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Prefix   string `mapstructure:"prefix"`
	QoS      byte   `mapstructure:"qos"`
}

// HTTPConfig holds the command channel server settings
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	Burst        int           `mapstructure:"burst"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Auth         bool          `mapstructure:"auth"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ExportConfig holds the history export settings
type ExportConfig struct {
	PDF bool   `mapstructure:"pdf"`
	Dir string `mapstructure:"dir"`
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("theme", string(ThemeDark))

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.reset_timeout", 1500*time.Millisecond)
	v.SetDefault("serial.history_limit", 500)
	v.SetDefault("serial.sensor_debounce", time.Duration(0))
	v.SetDefault("serial.discovery.enabled", true)
	v.SetDefault("serial.discovery.interval", 1500*time.Millisecond)
	v.SetDefault("serial.discovery.debounce", 3*time.Second)
	v.SetDefault("serial.discovery.probe_timeout", 1500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "protoboard.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "protoboard")
	v.SetDefault("mqtt.prefix", "protoboard")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.rate_limit", 5.0)
	v.SetDefault("http.burst", 10)
	v.SetDefault("http.cache_ttl", 2*time.Second)
	v.SetDefault("http.auth", false)
	v.SetDefault("http.poll_interval", 500*time.Millisecond)

	v.SetDefault("export.pdf", true)
	v.SetDefault("export.dir", ".")
}

// flagKeys maps persistent flag names to configuration keys
var flagKeys = map[string]string{
	"port":      "serial.port",
	"baud":      "serial.baud",
	"theme":     "theme",
	"log-level": "log.level",
	"log-file":  "log.file",
	"db-driver": "database.driver",
	"db-dsn":    "database.dsn",
	"mqtt":      "mqtt.broker",
	"addr":      "http.addr",
}

// BindFlags binds the flags present in fs to their configuration keys
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration. path names an explicit config file; when
// empty protoboard.yaml is looked up in the working directory and in
// $HOME/.config/protoboard. A missing default file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("PROTOBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("protoboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/protoboard")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Theme = Theme(strings.ToLower(string(cfg.Theme)))
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default
func (c *Config) Validate() error {
	switch c.Theme {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("%w: theme must be light or dark, got %q", ErrInvalidConfig, c.Theme)
	}

	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("%w: serial.baud must be positive", ErrInvalidConfig)
	}
	if c.Serial.ResetTimeout <= 0 {
		return fmt.Errorf("%w: serial.reset_timeout must be positive", ErrInvalidConfig)
	}
	if c.Serial.HistoryLimit < 0 {
		return fmt.Errorf("%w: serial.history_limit cannot be negative", ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalidConfig)
	}
	if c.HTTP.RateLimit <= 0 || c.HTTP.Burst <= 0 {
		return fmt.Errorf("%w: http.rate_limit and http.burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// SessionOptions turns the serial section into session options
func (c *Config) SessionOptions() []protoboard.Option {
	s := c.Serial
	opts := []protoboard.Option{
		protoboard.WithBaudRate(s.BaudRate),
		protoboard.WithResetTimeout(s.ResetTimeout),
		protoboard.WithHistoryLimit(s.HistoryLimit),
		protoboard.WithSensorDebounce(s.SensorDebounce),
	}
	if s.Discovery.Interval > 0 {
		opts = append(opts, protoboard.WithScanInterval(s.Discovery.Interval))
	}
	if s.Discovery.Debounce > 0 {
		opts = append(opts, protoboard.WithScanDebounce(s.Discovery.Debounce))
	}
	if s.Discovery.Probe > 0 {
		opts = append(opts, protoboard.WithProbeTimeout(s.Discovery.Probe))
	}
	return opts
}
