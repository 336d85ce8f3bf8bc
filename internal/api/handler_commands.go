package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allbin/protoboard/internal/api/mw"
	"github.com/allbin/protoboard/internal/model"
	"github.com/allbin/protoboard/internal/store"
)

type postCommandRequest struct {
	Type     string `json:"tipo" binding:"required"`
	Detail   string `json:"detalle" binding:"required"`
	Action   string `json:"accion" binding:"required"`
	DeviceID string `json:"device_id"`
}

// PostCommand queues a command for the panel.
func (h *Handler) PostCommand(c *gin.Context) {
	var req postCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := model.Command{
		Type:     strings.ToUpper(req.Type),
		Detail:   strings.ToUpper(req.Detail),
		Action:   strings.ToUpper(req.Action),
		DeviceID: req.DeviceID,
	}
	if _, err := ToCommand(cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if user := mw.CurrentUser(c); user != nil {
		cmd.UserID = &user.ID
	}

	if err := h.store.EnqueueCommand(c.Request.Context(), &cmd); err != nil {
		h.log.Errorw("Failed to enqueue command", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue command"})
		return
	}
	c.JSON(http.StatusCreated, cmd)
}

// GetCommands lists commands. With pending=true only unsent commands for
// device_id are returned, oldest first.
func (h *Handler) GetCommands(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		cmds []model.Command
		err  error
	)
	if pending, _ := strconv.ParseBool(c.Query("pending")); pending {
		cmds, err = h.store.PendingCommands(ctx, c.Query("device_id"))
	} else {
		cmds, err = h.store.ListCommands(ctx, queryLimit(c, 50))
	}
	if err != nil {
		h.log.Errorw("Failed to list commands", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list commands"})
		return
	}
	if cmds == nil {
		cmds = []model.Command{}
	}
	c.JSON(http.StatusOK, gin.H{"commands": cmds})
}

// MarkCommandSent flags a command as delivered.
func (h *Handler) MarkCommandSent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid command id"})
		return
	}

	err = h.store.MarkCommandSent(c.Request.Context(), uint(id))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "command not found"})
		return
	}
	if err != nil {
		h.log.Errorw("Failed to mark command sent", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark command"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return min(limit, 1000)
}
