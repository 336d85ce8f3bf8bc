/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/export"
	"github.com/allbin/protoboard/internal/tui/models"
	"github.com/allbin/protoboard/serial"
)

// panelCmd represents the panel command
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Interactive control panel for the board",
	Long: `Open the terminal control panel.

The panel shows the four LEDs, the IR sensor, the device counter and the
activity history. Keys:
  1 2 3   toggle LED 1..3
  r       reset the counter (hardware reset if the board does not ACK)
  c       connect or disconnect
  p       type a port to connect to
  e       export the history
  ?       full help

Without --port the panel scans for a known USB-UART bridge and connects
to the first port that answers like an ESP32.

Example usage:
  protoboard panel
  protoboard panel --port /dev/ttyUSB0 --theme light
  protoboard panel --db-driver sqlite --user admin`,
	Annotations: map[string]string{annotationTUI: "true"},
	Args:        cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		user, _ := cmd.Flags().GetString("user")
		formatFlag, _ := cmd.Flags().GetString("export-format")

		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			fail("%v", err)
		}

		if err := runPanel(user, format); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(panelCmd)

	panelCmd.Flags().StringP("user", "u", "", "log in as this user before opening the panel (needs a database)")
	panelCmd.Flags().String("export-format", "csv", "history export format: csv or pdf")
}

func runPanel(user string, format export.Format) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	if user != "" {
		if err := login(ctx, a, user); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	found := make(chan string, 4)
	if err := a.start(gctx, g, func(path string) {
		select {
		case found <- path:
		default:
		}
	}); err != nil {
		return err
	}

	model, err := models.NewPanelModel(gctx, a.session, models.Options{
		Theme:        cfg.Theme,
		Port:         cfg.Serial.Port,
		BaudRate:     cfg.Serial.BaudRate,
		Discovery:    cfg.Serial.Port == "" && cfg.Serial.Discovery.Enabled,
		HistoryLimit: cfg.Serial.HistoryLimit,
		Export:       exportToFile(a, format),
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	go func() {
		if ports, err := serial.ListPorts(); err == nil {
			p.Send(models.PortsMsg{Ports: ports})
		}
		for {
			select {
			case <-gctx.Done():
				return
			case path := <-found:
				p.Send(models.PortFoundMsg{Path: path})
			}
		}
	}()

	_, runErr := p.Run()
	model.Cleanup()
	stop()

	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

// exportToFile writes history to the export directory and, when persistence
// is enabled, keeps a copy in the database
func exportToFile(a *app, format export.Format) models.ExportFunc {
	renderer := export.NewRenderer(cfg.Export.PDF)
	return func(ctx context.Context, entries []protoboard.HistoryEntry) (string, error) {
		data, err := renderer.Render(format, entries)
		if err != nil {
			return "", err
		}

		if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
		path := filepath.Join(cfg.Export.Dir, export.Filename(format, time.Now()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}

		if a.store != nil {
			if id, err := a.store.SaveExport(ctx, data, string(format)); err != nil {
				logger.Warnw("Failed to store export", "path", path, "error", err)
			} else {
				logger.Infow("Export stored", "id", id, "path", path)
			}
		}
		return path, nil
	}
}
