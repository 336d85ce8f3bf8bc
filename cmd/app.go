/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/db"
	"github.com/allbin/protoboard/internal/metrics"
	"github.com/allbin/protoboard/internal/mqtt"
	"github.com/allbin/protoboard/internal/store"
	"github.com/allbin/protoboard/serial"
)

// app is a Session together with the collaborators configured around it
type app struct {
	session   *protoboard.Session
	db        *gorm.DB
	store     store.Store // nil when persistence is disabled
	metrics   *metrics.Metrics
	publisher mqtt.Publisher // nil when MQTT is disabled
}

// appOptions selects the optional parts of an app
type appOptions struct {
	metrics bool
	extra   []protoboard.Option
}

func newApp(o appOptions) (*app, error) {
	a := &app{}

	gdb, err := db.Init(&cfg.Database, logger.Named("db"))
	switch {
	case errors.Is(err, db.ErrDisabled):
		logger.Debugw("Persistence disabled")
	case err != nil:
		return nil, err
	default:
		a.db = gdb
		a.store = store.NewGormStore(gdb)
	}

	opts := append(cfg.SessionOptions(), protoboard.WithLogger(logger.Named("session")))
	if a.store != nil {
		opts = append(opts, protoboard.WithRecorder(a.store))
	}
	if o.metrics {
		a.metrics = metrics.New()
		opts = append(opts, protoboard.WithInstruments(a.metrics))
	}
	opts = append(opts, o.extra...)

	a.session, err = protoboard.NewSession(opts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create session: %w", err)
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Prefix:   cfg.MQTT.Prefix,
			QoS:      cfg.MQTT.QoS,
			Logger:   logger.Named("mqtt"),
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		a.publisher = pub
	}
	return a, nil
}

// start runs the session, the MQTT forwarder and port discovery in g. The
// configured port, if any, is connected once the session is up.
func (a *app) start(ctx context.Context, g *errgroup.Group, onFound func(path string)) error {
	g.Go(func() error {
		err := a.session.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.publisher != nil {
		updates, cancel, err := a.session.Subscribe(ctx)
		if err != nil {
			return err
		}
		fwd := mqtt.NewForwarder(a.publisher, logger.Named("mqtt"))
		if a.metrics != nil {
			fwd.OnError = a.metrics.PublishFailed
		}
		g.Go(func() error {
			defer cancel()
			fwd.Run(ctx, updates)
			return nil
		})
	}

	if port := cfg.Serial.Port; port != "" {
		if err := a.session.Connect(ctx, port); err != nil {
			// The panel and the relay can still reconnect later
			logger.Warnw("Initial connect failed", "port", port, "error", err)
		}
		return nil
	}

	if !cfg.Serial.Discovery.Enabled {
		return nil
	}

	disc, err := protoboard.NewDiscovery(serial.EnumeratorLister{},
		append(cfg.SessionOptions(), protoboard.WithLogger(logger.Named("discovery")))...)
	if err != nil {
		return err
	}
	g.Go(func() error {
		disc.Run(ctx, a.connected(ctx), func(path string) {
			if onFound != nil {
				onFound(path)
			}
			if err := a.session.Connect(ctx, path); err != nil {
				logger.Warnw("Connect to discovered port failed", "port", path, "error", err)
			}
		})
		return nil
	})
	return nil
}

// connected reports the session's link state for discovery
func (a *app) connected(ctx context.Context) func() bool {
	return func() bool {
		qctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		snap, err := a.session.Snapshot(qctx)
		if err != nil {
			// Stop scanning once the session is gone
			return true
		}
		return snap.Connected
	}
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Warnw("Failed to close MQTT publisher", "error", err)
		}
	}
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			logger.Warnw("Failed to close database", "error", err)
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
