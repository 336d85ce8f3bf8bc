package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allbin/protoboard"
)

type postCounterRequest struct {
	Counter  *uint64 `json:"contador" binding:"required"`
	DeviceID string  `json:"device_id"`
}

// PostCounter takes the counter value reported by the board over HTTP.
func (h *Handler) PostCounter(c *gin.Context) {
	var req postCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	value := strconv.FormatUint(*req.Counter, 10)

	if err := h.store.ReportState(ctx, req.DeviceID, protoboard.DetailCounter, value); err != nil {
		h.log.Errorw("Failed to store counter", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store counter"})
		return
	}

	if h.panel != nil {
		// The session records the change itself
		cmd := protoboard.Command{Kind: protoboard.CommandSyncCounter, Counter: *req.Counter, Origin: protoboard.OriginDevice}
		if err := h.panel.Execute(ctx, cmd); err != nil {
			h.log.Warnw("Failed to sync counter", "error", err)
		}
	} else {
		rec := protoboard.Record{
			Timestamp: time.Now(),
			Type:      protoboard.RecordCounterChange,
			Detail:    protoboard.DetailCounter,
			Origin:    protoboard.OriginDevice,
			Value:     value,
		}
		if err := h.store.RecordEvent(ctx, rec); err != nil {
			h.log.Warnw("Failed to record counter", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "contador": *req.Counter})
}

type postLEDRequest struct {
	State    any    `json:"estado"`
	DeviceID string `json:"device_id"`
}

// PostLEDState stores an LED state reported by the board.
func (h *Handler) PostLEDState(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 || n > protoboard.NumLEDs {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid LED number"})
		return
	}

	var req postLEDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	on, ok := truthy(req.State)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid estado"})
		return
	}

	detail := protoboard.LEDDetail(n - 1)
	value := "0"
	if on {
		value = "1"
	}
	if err := h.store.ReportState(c.Request.Context(), req.DeviceID, detail, value); err != nil {
		h.log.Errorw("Failed to store LED state", "led", detail, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "detalle": detail, "valor": value})
}

// GetDeviceState returns the last reported values of a device.
func (h *Handler) GetDeviceState(c *gin.Context) {
	states, err := h.store.States(c.Request.Context(), c.Query("device_id"))
	if err != nil {
		h.log.Errorw("Failed to list device state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list state"})
		return
	}

	values := make(map[string]string, len(states))
	for _, s := range states {
		values[s.Detail] = s.Value
	}
	c.JSON(http.StatusOK, gin.H{"estado": values})
}
