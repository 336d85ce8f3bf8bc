/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/api"
	"github.com/allbin/protoboard/internal/export"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the board session behind the HTTP command channel",
	Long: `Run a headless session with the HTTP command channel.

Web clients queue LED and reset commands through POST /api/commands. They
are relayed to the board in order, recorded with origin WEB, and marked sent.
The board itself can post its counter and LED states to /api/device/...
without credentials. GET /api/ws streams every state change; /metrics
exposes Prometheus metrics.

A database is required for the command queue.

Example usage:
  protoboard serve --db-driver sqlite --port /dev/ttyUSB0
  protoboard serve --db-driver postgres --db-dsn "host=db user=pb" --mqtt tcp://broker:1883
  protoboard serve --db-driver sqlite --no-board    # queue only, no serial port`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		noBoard, _ := cmd.Flags().GetBool("no-board")
		deviceID, _ := cmd.Flags().GetString("device-id")

		if err := runServe(noBoard, deviceID); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-board", false, "serve the queue and history without opening a serial session")
	serveCmd.Flags().String("device-id", "", "only relay commands addressed to this device (and to no device)")
}

func runServe(noBoard bool, deviceID string) error {
	if !logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(appOptions{metrics: true})
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return errors.New("serve needs a database, set --db-driver")
	}

	g, gctx := errgroup.WithContext(ctx)

	var panel api.Panel
	if !noBoard {
		if err := a.start(gctx, g, nil); err != nil {
			return err
		}
		panel = a.session

		relay := api.NewRelay(a.store, a.session, deviceID, cfg.HTTP.PollInterval, logger.Named("relay"))
		relay.Observe = a.metrics.CommandRelayed
		g.Go(func() error {
			err := relay.Run(gctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, protoboard.ErrSessionClosed) {
				return nil
			}
			return err
		})
	}

	handler := api.NewHandler(a.store, panel, export.NewRenderer(cfg.Export.PDF), logger.Named("api"))
	router := api.NewRouter(cfg.HTTP, handler, a.metrics.Handler(), logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Infow("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infow("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
