// Package export renders panel history as CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/model"
)

// Format is an export file format
type Format string

const (
	FormatCSV Format = "CSV"
	FormatPDF Format = "PDF"
)

var (
	// ErrPDFUnavailable is returned when PDF export is turned off
	ErrPDFUnavailable = errors.New("pdf export unavailable")
	// ErrUnknownFormat is returned by ParseFormat
	ErrUnknownFormat = errors.New("unknown export format")
)

// TimeLayout is how timestamps are written in exports
const TimeLayout = "2006-01-02 15:04:05"

// ParseFormat accepts csv or pdf in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension including the dot
func (f Format) Ext() string {
	return "." + strings.ToLower(string(f))
}

// Filename names a session export taken at t
func Filename(f Format, t time.Time) string {
	return "session_" + t.Format("2006-01-02_15-04-05") + f.Ext()
}

// Renderer turns history into export files
type Renderer struct {
	pdf   bool
	title string
	now   func() time.Time
}

// NewRenderer creates a Renderer. PDF output is only produced when pdf is set.
func NewRenderer(pdf bool) *Renderer {
	return &Renderer{pdf: pdf, title: "Session history", now: time.Now}
}

// Render renders entries in format f
func (r *Renderer) Render(f Format, entries []protoboard.HistoryEntry) ([]byte, error) {
	switch f {
	case FormatCSV:
		return RenderCSV(entries)
	case FormatPDF:
		return r.RenderPDF(entries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// RenderCSV writes a timestamp,led,event table
func RenderCSV(entries []protoboard.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"timestamp", "led", "event"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{e.Timestamp.Format(TimeLayout), strconv.Itoa(e.Channel), e.Label}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderEventsCSV writes the persisted event log
func RenderEventsCSV(events []model.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "type", "detail", "origin", "value", "remote_ip", "timestamp"}); err != nil {
		return nil, err
	}
	for _, e := range events {
		row := []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Type,
			e.Detail,
			e.Origin,
			e.Value,
			e.RemoteIP,
			e.Timestamp.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF writes one line per entry on A4 pages
func (r *Renderer) RenderPDF(entries []protoboard.HistoryEntry) ([]byte, error) {
	if !r.pdf {
		return nil, ErrPDFUnavailable
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle(r.title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(r.title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		line := fmt.Sprintf("%s | LED:%d | %s", e.Timestamp.Format(TimeLayout), e.Channel, e.Label)
		if len(line) > 200 {
			line = line[:200]
		}
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
