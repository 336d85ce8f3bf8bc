/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/tui/components"
	"github.com/allbin/protoboard/internal/tui/styles"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Follow the board activity on stdout",
	Long: `Connect to the board and print every history entry, counter change and
reset outcome as it happens. Nothing is sent to the board.

With --output the same lines are appended, without colors, to a file so a
capture can be resumed later. Events are recorded in the database and
forwarded to MQTT when those are configured.

Example usage:
  protoboard listen
  protoboard listen --port /dev/ttyUSB0 --baud 9600
  protoboard listen --output session.log --raw`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		raw, _ := cmd.Flags().GetBool("raw")

		if err := runListen(output, raw); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringP("output", "o", "", "append activity to this file")
	listenCmd.Flags().Bool("raw", false, "plain output: no colors, no timestamps")
}

func runListen(output string, raw bool) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	var capture io.Writer
	if output != "" {
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer f.Close()
		capture = f
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := a.start(gctx, g, func(path string) {
		fmt.Fprintf(os.Stderr, "Board found on %s\n", path)
	}); err != nil {
		return err
	}

	updates, cancel, err := a.session.Subscribe(gctx)
	if err != nil {
		return err
	}
	defer cancel()

	p := newActivityPrinter(os.Stdout, capture, raw)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				p.print(u)
			}
		}
	})

	return g.Wait()
}

// activityPrinter writes session updates as one line per event
type activityPrinter struct {
	out       io.Writer
	capture   io.Writer
	raw       bool
	styles    styles.Styles
	connected bool
	counter   uint64
}

func newActivityPrinter(out, capture io.Writer, raw bool) *activityPrinter {
	return &activityPrinter{out: out, capture: capture, raw: raw, styles: styles.New(cfg.Theme)}
}

func (p *activityPrinter) line(style lipgloss.Style, tag, text string) {
	plain := fmt.Sprintf("%-7s %s", tag, text)
	if p.capture != nil {
		fmt.Fprintln(p.capture, plain)
	}
	if p.raw {
		fmt.Fprintln(p.out, plain)
		return
	}
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf("%-7s", tag))+" "+text)
}

func (p *activityPrinter) print(u protoboard.Update) {
	if u.Connected != p.connected {
		p.connected = u.Connected
		if u.Connected {
			p.line(p.styles.StatusConnected, "LINK", "connected to "+u.Port)
		} else {
			p.line(p.styles.StatusDisconnected, "LINK", "disconnected from "+u.Port)
		}
	}

	for _, e := range u.Entries {
		text := e.Label
		if !p.raw {
			text = e.Timestamp.Format("15:04:05.000") + " " + text
		}
		p.line(p.styles.Info, components.ChannelName(e.Channel), text)
	}

	if u.State.Counter != p.counter {
		p.counter = u.State.Counter
		p.line(p.styles.Counter, "COUNT", fmt.Sprintf("%d", p.counter))
	}

	switch u.Notice {
	case protoboard.NoticeResetConfirmed:
		p.line(p.styles.StatusConnected, "RESET", "confirmed by device")
	case protoboard.NoticeResetFallback:
		p.line(p.styles.StatusConnecting, "RESET", "no ACK, hardware reset used")
	}

	if u.Err != nil {
		p.line(p.styles.Error, "ERROR", u.Err.Error())
	}
}
