/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/allbin/protoboard/internal/config"
	"github.com/allbin/protoboard/internal/logging"
)

// annotationTUI marks commands that take over the terminal
const annotationTUI = "tui"

var (
	cfgFile string
	v       = viper.New()

	// Set by PersistentPreRunE before any command runs
	cfg    *config.Config
	logger *zap.SugaredLogger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "protoboard",
	Short: "Control an ESP32 protoboard over its serial line protocol",
	Long: `protoboard talks to a microcontroller board with four LEDs, three push
buttons, an IR proximity sensor and a device-side counter over a newline
delimited text protocol.

Run 'protoboard panel' for the interactive control panel or
'protoboard serve' for the headless HTTP command channel.

Configuration is read from protoboard.yaml in the working directory or
$HOME/.config/protoboard, from PROTOBOARD_* environment variables and from
the flags below, in increasing order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = c

		// The panel draws on the terminal, so it logs nowhere unless a file is set
		if cmd.Annotations[annotationTUI] != "" && cfg.Log.File == "" {
			logger = zap.NewNop().Sugar()
			return nil
		}

		l, err := logging.New("protoboard", logging.Options{
			Level:       cfg.Log.Level,
			Development: cfg.Log.Development,
			Path:        cfg.Log.File,
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./protoboard.yaml)")
	pf.StringP("port", "p", "", "serial port of the board (default: auto discovery)")
	pf.IntP("baud", "b", 115200, "baud rate")
	pf.String("theme", "dark", "panel theme: light or dark")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-file", "", "write logs to this file instead of stderr")
	pf.String("db-driver", "", "database driver: sqlite or postgres (empty disables persistence)")
	pf.String("db-dsn", "protoboard.db", "database DSN")
	pf.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	pf.String("addr", ":5000", "HTTP listen address")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
