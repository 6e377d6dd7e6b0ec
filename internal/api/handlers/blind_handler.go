package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/services"
	"github.com/univeil/univeil/internal/utils"
)

// BlindHandler exposes the seven blind-dating operations the mobile client
// polls and mutates through.
type BlindHandler struct {
	queue *services.Matchmaker
	svc   services.BlindService
}

func NewBlindHandler(queue *services.Matchmaker, svc services.BlindService) *BlindHandler {
	return &BlindHandler{queue: queue, svc: svc}
}

type JoinQueueResponse struct {
	Status    string `json:"status"` // searching | matched
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func (h *BlindHandler) JoinQueue(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.queue.Join(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := JoinQueueResponse{Status: res.Status}
	if res.Session != nil {
		out.SessionID = res.Session.SessionID
		out.ExpiresAt = res.Session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00")
	}
	c.JSON(http.StatusOK, out)
}

func (h *BlindHandler) LeaveQueue(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.queue.Leave(userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *BlindHandler) Status(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.svc.StatusFor(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

func (h *BlindHandler) Messages(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.svc.Messages(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *BlindHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "BlindHandler.SendMessage", "invalid request body", err))
		return
	}

	st, err := h.svc.Send(c.Request.Context(), userID, c.Param("session_id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

type RecordChoiceRequest struct {
	Choice string `json:"choice" binding:"required"` // reveal | chat | decline
}

func (h *BlindHandler) RecordChoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req RecordChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "BlindHandler.RecordChoice", "invalid request body", err))
		return
	}

	res, err := h.svc.RecordChoice(c.Request.Context(), userID, c.Param("session_id"), req.Choice)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *BlindHandler) EndSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.End(c.Request.Context(), userID, c.Param("session_id")); err != nil {
		// not-found during cleanup is fine; the client resets regardless
		if utils.IsCode(err, utils.CodeNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// sessionStatusOK reports whether a session status admits live chat.
func sessionStatusOK(status string) bool {
	return status == models.BlindStatusActive || status == models.BlindStatusExtended
}
