package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/export"
	"github.com/allbin/protoboard/internal/model"
	"github.com/allbin/protoboard/internal/store"
)

// GetState returns the live panel snapshot.
func (h *Handler) GetState(c *gin.Context) {
	if h.panel == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no board attached"})
		return
	}
	snap, err := h.panel.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetEvents returns the most recent persisted events.
func (h *Handler) GetEvents(c *gin.Context) {
	events, err := h.store.RecentEvents(c.Request.Context(), queryLimit(c, 5))
	if err != nil {
		h.log.Errorw("Failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Export renders the history, stores the file and sends it back. The live
// history is used when a board is attached, the event log otherwise.
func (h *Handler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var entries []protoboard.HistoryEntry
	if h.panel != nil {
		snap, err := h.panel.Snapshot(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		entries = snap.History
	} else {
		events, err := h.store.RecentEvents(ctx, 0)
		if err != nil {
			h.log.Errorw("Failed to list events", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
			return
		}
		entries = EventsToHistory(events)
	}

	data, err := h.renderer.Render(format, entries)
	if errors.Is(err, export.ErrPDFUnavailable) {
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Errorw("Failed to render export", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export"})
		return
	}

	id, err := h.store.SaveExport(ctx, data, string(format))
	if err != nil {
		h.log.Errorw("Failed to save export", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save export"})
		return
	}

	c.Header("X-Export-ID", id)
	sendExport(c, format, time.Now(), data)
}

// GetExports lists stored exports.
func (h *Handler) GetExports(c *gin.Context) {
	exports, err := h.store.ListExports(c.Request.Context())
	if err != nil {
		h.log.Errorw("Failed to list exports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list exports"})
		return
	}
	if exports == nil {
		exports = []model.Export{}
	}
	c.JSON(http.StatusOK, gin.H{"exports": exports})
}

// GetExport downloads one stored export.
func (h *Handler) GetExport(c *gin.Context) {
	exp, err := h.store.GetExport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
		return
	}
	if err != nil {
		h.log.Errorw("Failed to load export", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load export"})
		return
	}
	sendExport(c, export.Format(exp.Format), exp.CreatedAt, exp.Data)
}

func sendExport(c *gin.Context, format export.Format, at time.Time, data []byte) {
	contentType := "text/csv"
	if format == export.FormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format, at)))
	c.Data(http.StatusOK, contentType, data)
}

// EventsToHistory maps persisted events onto history channels
func EventsToHistory(events []model.Event) []protoboard.HistoryEntry {
	entries := make([]protoboard.HistoryEntry, 0, len(events))
	// Newest first from the store, oldest first in a history
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		channel := protoboard.ChannelSystem
		switch {
		case e.Detail == protoboard.DetailSensor:
			channel = protoboard.SensorIndex + 1
		case strings.HasPrefix(e.Detail, "LED"):
			if n, err := strconv.Atoi(strings.TrimPrefix(e.Detail, "LED")); err == nil {
				channel = n
			}
		}
		entries = append(entries, protoboard.HistoryEntry{
			Timestamp: e.Timestamp,
			Channel:   channel,
			Label:     e.Type + ":" + e.Value,
		})
	}
	return entries
}
