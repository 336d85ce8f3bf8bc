/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/protoboard/internal/api"
	"github.com/allbin/protoboard/internal/export"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded activity from the database",
	Long: `Render the most recent recorded events as CSV or PDF.

The file is written to --output, or to the export directory with a
timestamped name. With --list the exports saved by the panel and the HTTP
API are listed instead, and --id fetches one of them.

Example usage:
  protoboard export --format csv --limit 500
  protoboard export --format pdf -o session.pdf
  protoboard export --list
  protoboard export --id 6a1f... -o old.csv`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		formatFlag, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetInt("limit")
		list, _ := cmd.Flags().GetBool("list")
		id, _ := cmd.Flags().GetString("id")
		ctx := cmd.Context()

		s, closeStore, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer closeStore()

		if list {
			exports, err := s.ListExports(ctx)
			if err != nil {
				fail("listing exports: %v", err)
			}
			if len(exports) == 0 {
				fmt.Println("No exports saved")
				return
			}
			header := lipgloss.NewStyle().Bold(true)
			fmt.Println(header.Render(fmt.Sprintf("%-36s  %-6s  %8s  %s", "ID", "FORMAT", "SIZE", "CREATED")))
			for _, e := range exports {
				fmt.Printf("%-36s  %-6s  %8d  %s\n", e.ID, e.Format, e.Size, e.CreatedAt.Format(export.TimeLayout))
			}
			return
		}

		var (
			data   []byte
			format export.Format
			at     = time.Now()
		)
		if id != "" {
			saved, err := s.GetExport(ctx, id)
			if err != nil {
				fail("fetching export %s: %v", id, err)
			}
			if format, err = export.ParseFormat(saved.Format); err != nil {
				fail("%v", err)
			}
			data, at = saved.Data, saved.CreatedAt
		} else {
			if format, err = export.ParseFormat(formatFlag); err != nil {
				fail("%v", err)
			}
			events, err := s.RecentEvents(ctx, limit)
			if err != nil {
				fail("loading events: %v", err)
			}
			renderer := export.NewRenderer(cfg.Export.PDF)
			if data, err = renderer.Render(format, api.EventsToHistory(events)); err != nil {
				fail("rendering %s: %v", format, err)
			}
		}

		if output == "" {
			if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
				fail("create export dir: %v", err)
			}
			output = filepath.Join(cfg.Export.Dir, export.Filename(format, at))
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			fail("write export: %v", err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(data), output)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "csv", "Export format (csv|pdf)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: export dir)")
	exportCmd.Flags().IntP("limit", "n", 1000, "Number of events to export")
	exportCmd.Flags().Bool("list", false, "List saved exports")
	exportCmd.Flags().String("id", "", "Write a saved export by ID")
}
