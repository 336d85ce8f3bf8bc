package serial

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultPulse is how long EN is held low during a hardware reset
const DefaultPulse = 50 * time.Millisecond

// BannerPattern matches the ROM bootloader output of Espressif chips
var BannerPattern = regexp.MustCompile(`(?i)ets |rst:|esp32|espressif|chip`)

// ControlLines is the part of a Port that drives the modem output lines
type ControlLines interface {
	SetDTR(state bool) error
	SetRTS(state bool) error
}

// PulseLines drives the auto-reset circuit found on most USB-UART dev boards:
// DTR low and RTS high pulls EN low, then both are released.
func PulseLines(p ControlLines, pulse time.Duration) error {
	if err := p.SetDTR(false); err != nil {
		return fmt.Errorf("drop DTR: %w", err)
	}
	if err := p.SetRTS(true); err != nil {
		return fmt.Errorf("raise RTS: %w", err)
	}
	if pulse > 0 {
		time.Sleep(pulse)
	}
	if err := p.SetDTR(true); err != nil {
		return fmt.Errorf("raise DTR: %w", err)
	}
	if err := p.SetRTS(false); err != nil {
		return fmt.Errorf("drop RTS: %w", err)
	}
	return nil
}

// PulseReset opens a fresh connection to the port, pulses the reset lines
// and closes it again. The port must not be held exclusively by someone else.
func PulseReset(path string, baud int, pulse time.Duration) error {
	p, err := Open(path, WithBaudRate(baud), WithExclusive(false))
	if err != nil {
		return err
	}
	defer p.Close()

	return PulseLines(p, pulse)
}

// SniffBanner resets the board on path and reports whether anything resembling
// a boot banner shows up before ctx expires.
func SniffBanner(ctx context.Context, path string, baud int) (bool, error) {
	p, err := Open(path, WithBaudRate(baud), WithReadTimeout(100*time.Millisecond))
	if err != nil {
		return false, err
	}
	defer p.Close()

	// Boards without the auto-reset circuit still get a chance to print
	_ = PulseLines(p, DefaultPulse)

	var seen strings.Builder
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return false, nil
		default:
		}

		n, err := p.Read(buf)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", path, err)
		}
		if n == 0 {
			continue
		}
		seen.WriteString(strings.ToValidUTF8(string(buf[:n]), ""))
		if BannerPattern.MatchString(seen.String()) {
			return true, nil
		}
		// Banner text is short; only the tail can still complete a match
		if seen.Len() > 4096 {
			tail := seen.String()[seen.Len()-64:]
			for !utf8.ValidString(tail) {
				tail = tail[1:]
			}
			seen.Reset()
			seen.WriteString(tail)
		}
	}
}
