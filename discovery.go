package protoboard

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/protoboard/serial"
)

// VendorMarkers are lowercase substrings of USB descriptors that identify the
// UART bridges found on ESP32 dev boards
var VendorMarkers = []string{
	"silicon labs",
	"cp210",
	"ch340",
	"ch910",
	"ch915",
	"ftdi",
	"usb-serial",
	"esp32",
	"espressif",
}

// PortLister enumerates candidate serial ports
type PortLister interface {
	Ports() ([]serial.PortInfo, error)
}

// MatchesVendor reports whether a port descriptor names a known bridge
func MatchesVendor(descriptor string) bool {
	descriptor = strings.ToLower(descriptor)
	for _, m := range VendorMarkers {
		if strings.Contains(descriptor, m) {
			return true
		}
	}
	return false
}

// Discovery looks for the board among the serial ports of the host
type Discovery struct {
	lister   PortLister
	probe    Prober
	baud     int
	interval time.Duration
	debounce time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger

	tried map[string]time.Time
}

// NewDiscovery creates a Discovery reading ports from lister
func NewDiscovery(lister PortLister, opts ...Option) (*Discovery, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Discovery{
		lister:   lister,
		probe:    config.Prober,
		baud:     config.BaudRate,
		interval: config.ScanInterval,
		debounce: config.ScanDebounce,
		timeout:  config.ProbeTimeout,
		now:      config.Clock,
		log:      config.Logger,
		tried:    make(map[string]time.Time),
	}, nil
}

// Scan makes one pass over the ports and returns the first that looks like
// the board. Ports attempted within the debounce window are skipped.
func (d *Discovery) Scan(ctx context.Context) (string, bool) {
	ports, err := d.lister.Ports()
	if err != nil {
		d.log.Warnw("Failed to list serial ports", "error", err)
		return "", false
	}

	for _, p := range ports {
		if ctx.Err() != nil {
			return "", false
		}

		now := d.now()
		if last, ok := d.tried[p.Path]; ok && now.Sub(last) < d.debounce {
			continue
		}
		d.tried[p.Path] = now

		if MatchesVendor(p.Descriptor()) {
			d.log.Infow("Found board by USB descriptor", "port", p.Path, "vid", p.VendorID, "pid", p.ProductID)
			return p.Path, true
		}

		probeCtx, cancel := context.WithTimeout(ctx, d.timeout)
		ok, err := d.probe(probeCtx, p.Path, d.baud)
		cancel()
		if err != nil {
			d.log.Debugw("Probe failed", "port", p.Path, "error", err)
			continue
		}
		if ok {
			d.log.Infow("Found board by boot banner", "port", p.Path)
			return p.Path, true
		}
	}
	return "", false
}

// Run scans every interval while connected reports false and hands matches
// to found. It returns when ctx is done.
func (d *Discovery) Run(ctx context.Context, connected func() bool, found func(path string)) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if !connected() {
			if path, ok := d.Scan(ctx); ok {
				found(path)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
