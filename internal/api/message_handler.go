package api

import (
	"net/http"

	"lumen-chat/backend/internal/service"
	apperrors "lumen-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// MessageHandler exposes the generation commands. Fragments stream out over
// the websocket hub; these endpoints block until the cycle completes and
// return the persisted assistant message.
type MessageHandler struct {
	chat *service.ChatService
}

func NewMessageHandler(chat *service.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

type sendMessageRequest struct {
	Content string   `json:"content" binding:"required"`
	Images  []string `json:"images"`
	PDFs    []string `json:"pdfs"`
	Model   string   `json:"model" binding:"required"`
	ReplyTo *int64   `json:"reply_to"`
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Model   string `json:"model" binding:"required"`
}

type regenerateRequest struct {
	Model string `json:"model" binding:"required"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	message, err := h.chat.Send(c.Request.Context(), threadID, req.Content, req.Images, req.PDFs, req.Model, req.ReplyTo)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *MessageHandler) Edit(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	messageID, ok := messageParam(c)
	if !ok {
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	message, err := h.chat.Edit(c.Request.Context(), threadID, messageID, req.Content, req.Model)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, message)
}

// DeleteFrom removes the message and the rest of the thread after it
func (h *MessageHandler) DeleteFrom(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	messageID, ok := messageParam(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteMessagesFrom(threadID, messageID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *MessageHandler) Regenerate(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	message, err := h.chat.Regenerate(c.Request.Context(), threadID, req.Model)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *MessageHandler) RegenerateFrom(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	messageID, ok := messageParam(c)
	if !ok {
		return
	}
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	message, err := h.chat.RegenerateFrom(c.Request.Context(), threadID, messageID, req.Model)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, message)
}
