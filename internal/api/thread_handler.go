package api

import (
	"net/http"
	"strconv"

	"lumen-chat/backend/internal/service"
	apperrors "lumen-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ThreadHandler exposes thread lifecycle over HTTP
type ThreadHandler struct {
	threads *service.ThreadService
}

func NewThreadHandler(threads *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

type createThreadRequest struct {
	Title        string  `json:"title" binding:"required"`
	SystemPrompt *string `json:"system_prompt"`
}

type renameThreadRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *ThreadHandler) Create(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	thread, err := h.threads.Create(req.Title, req.SystemPrompt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *ThreadHandler) List(c *gin.Context) {
	threads, err := h.threads.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h *ThreadHandler) Rename(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	var req renameThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	if err := h.threads.Rename(threadID, req.Title); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

func (h *ThreadHandler) Archive(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	if err := h.threads.Archive(threadID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (h *ThreadHandler) Delete(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	if err := h.threads.Delete(threadID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ThreadHandler) Messages(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	messages, err := h.threads.Messages(threadID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// threadParam parses the :id path segment, reporting a validation error
// through the error middleware on failure.
func threadParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewValidationError("invalid thread id"))
		return 0, false
	}
	return id, true
}

func messageParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("messageId"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewValidationError("invalid message id"))
		return 0, false
	}
	return id, true
}
